package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"api_crowdsale/internal/ledger"
	"api_crowdsale/internal/sales"
	"api_crowdsale/internal/units"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

var (
	errInvalidAddress = errors.New("invalid address")
	errAmountRequired = errors.New("exactly one of amount_wei or amount_ether is required")
)

// salesHandler holds the sale engine and implements HTTP handlers for purchases.
type salesHandler struct {
	saleService *sales.Service
	bank        *ledger.Ledger
	logger      *zap.Logger
	now         func() time.Time
}

// NewSalesHandler creates a new sales handler. bank may be nil when payments
// are settled by a remote wallet service.
func NewSalesHandler(saleService *sales.Service, bank *ledger.Ledger, logger *zap.Logger, now func() time.Time) *salesHandler {
	return &salesHandler{
		saleService: saleService,
		bank:        bank,
		logger:      logger,
		now:         now,
	}
}

type purchaseRequest struct {
	Beneficiary string `json:"beneficiary" binding:"required"`
	Payer       string `json:"payer" binding:"required"`
	AmountWei   string `json:"amount_wei"`
	AmountEther string `json:"amount_ether"`
}

type paymentRequest struct {
	From        string `json:"from" binding:"required"`
	AmountWei   string `json:"amount_wei"`
	AmountEther string `json:"amount_ether"`
}

type purchaseResponse struct {
	ID          string    `json:"id"`
	Beneficiary string    `json:"beneficiary"`
	Payer       string    `json:"payer"`
	PaymentWei  string    `json:"payment_wei"`
	AssetAmount string    `json:"asset_amount"`
	Timestamp   time.Time `json:"timestamp"`
}

type saleResponse struct {
	State            sales.State `json:"state"`
	Rate             string      `json:"rate"`
	Wallet           string      `json:"wallet"`
	SaleAccount      string      `json:"sale_account"`
	HardCapWei       string      `json:"hard_cap_wei"`
	TotalRaisedWei   string      `json:"total_raised_wei"`
	TotalRaisedEther string      `json:"total_raised_ether"`
	RemainingCapWei  string      `json:"remaining_cap_wei"`
	RemainingSupply  string      `json:"remaining_supply"`
	CapReached       bool        `json:"cap_reached"`
	OpeningTime      time.Time   `json:"opening_time"`
	ClosingTime      time.Time   `json:"closing_time"`
}

type balanceResponse struct {
	Address     string `json:"address"`
	Tokens      string `json:"tokens"`
	TokensEther string `json:"tokens_ether"`
	NativeWei   string `json:"native_wei,omitempty"`
	NativeEther string `json:"native_ether,omitempty"`
}

// handlePurchase handles the POST /purchases endpoint.
func (h *salesHandler) handlePurchase(ctx *gin.Context) {
	var req purchaseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	beneficiary, err := parseAddress(req.Beneficiary)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid beneficiary address"})
		return
	}
	payer, err := parseAddress(req.Payer)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid payer address"})
		return
	}
	amount, err := parseAmount(req.AmountWei, req.AmountEther)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.saleService.Purchase(ctx.Request.Context(), beneficiary, payer, amount, h.now())
	if err != nil {
		writeSaleError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, toPurchaseResponse(record))
}

// handleDirectPayment handles the POST /payments endpoint: a bare payment buys
// tokens for the sender.
func (h *salesHandler) handleDirectPayment(ctx *gin.Context) {
	var req paymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	from, err := parseAddress(req.From)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid sender address"})
		return
	}
	amount, err := parseAmount(req.AmountWei, req.AmountEther)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.saleService.PurchaseDirect(ctx.Request.Context(), from, amount, h.now())
	if err != nil {
		writeSaleError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, toPurchaseResponse(record))
}

func (h *salesHandler) handleGetSale(ctx *gin.Context) {
	s := h.saleService
	snap := s.Snapshot(h.now())

	ctx.JSON(http.StatusOK, saleResponse{
		State:            snap.State,
		Rate:             s.Rate().Dec(),
		Wallet:           s.Wallet().Hex(),
		SaleAccount:      s.SaleAccount().Hex(),
		HardCapWei:       s.HardCap().Dec(),
		TotalRaisedWei:   snap.TotalRaised.Dec(),
		TotalRaisedEther: units.FormatEther(snap.TotalRaised),
		RemainingCapWei:  snap.RemainingCap.Dec(),
		RemainingSupply:  snap.RemainingSupply.Dec(),
		CapReached:       snap.CapReached,
		OpeningTime:      s.OpeningTime(),
		ClosingTime:      s.ClosingTime(),
	})
}

func (h *salesHandler) handleGetBalance(ctx *gin.Context) {
	account, err := parseAddress(ctx.Param("address"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tokens := h.saleService.Assets().BalanceOf(account)
	resp := balanceResponse{
		Address:     account.Hex(),
		Tokens:      tokens.Dec(),
		TokensEther: units.FormatEther(tokens),
	}
	if h.bank != nil {
		native := h.bank.BalanceOf(account)
		resp.NativeWei = native.Dec()
		resp.NativeEther = units.FormatEther(native)
	}
	ctx.JSON(http.StatusOK, resp)
}

// writeSaleError maps engine failures onto HTTP status codes.
func writeSaleError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, sales.ErrInvalidBeneficiary),
		errors.Is(err, sales.ErrZeroPayment),
		errors.Is(err, sales.ErrArithmeticOverflow):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, sales.ErrSaleNotOpen):
		ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, sales.ErrCapExceeded):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, sales.ErrInsufficientAssetSupply):
		ctx.JSON(http.StatusConflict, gin.H{"error": sales.ErrInsufficientAssetSupply.Error()})
	case errors.Is(err, sales.ErrForwardingFailed):
		ctx.JSON(http.StatusBadGateway, gin.H{"error": sales.ErrForwardingFailed.Error()})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func toPurchaseResponse(r *sales.PurchaseRecord) purchaseResponse {
	return purchaseResponse{
		ID:          r.ID,
		Beneficiary: r.Beneficiary.Hex(),
		Payer:       r.Payer.Hex(),
		PaymentWei:  r.PaymentAmount.Dec(),
		AssetAmount: r.AssetAmount.Dec(),
		Timestamp:   r.Timestamp,
	}
}

func parseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, errInvalidAddress
	}
	return common.HexToAddress(s), nil
}

func parseAmount(wei, ether string) (*uint256.Int, error) {
	switch {
	case wei != "" && ether == "":
		return units.ParseWei(wei)
	case ether != "" && wei == "":
		return units.ParseEther(ether)
	default:
		return nil, errAmountRequired
	}
}
