package sales

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"api_crowdsale/internal/ledger"
	"api_crowdsale/internal/metrics"
	"api_crowdsale/internal/units"
	"api_crowdsale/internal/wallet"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

var (
	ErrInvalidBeneficiary      = errors.New("beneficiary is the zero address")
	ErrZeroPayment             = errors.New("payment amount is 0")
	ErrSaleNotOpen             = errors.New("sale not open")
	ErrCapExceeded             = errors.New("cap exceeded")
	ErrInsufficientAssetSupply = errors.New("insufficient asset supply")
	ErrArithmeticOverflow      = errors.New("arithmetic overflow")
	ErrForwardingFailed        = errors.New("payment forwarding failed")
)

// ErrInvalidConfig is returned by NewService when the sale parameters are unusable.
var ErrInvalidConfig = errors.New("invalid sale config")

// Service is the sale ledger and acceptance engine. Every purchase runs as one
// indivisible unit: it either commits the cap, asset and payment movements
// together or leaves all of them untouched.
type Service struct {
	mu        sync.Mutex
	cfg       Config
	window    Window
	cap       *CapTracker
	assets    *ledger.Ledger
	forwarder wallet.Forwarder
	logger    *zap.Logger
	metrics   *metrics.Sale
}

// NewService creates a new Service. A local forwarder must settle against a
// different ledger than assets, since forwarding runs while the asset ledger is locked.
func NewService(cfg Config, assets *ledger.Ledger, forwarder wallet.Forwarder, logger *zap.Logger, m *metrics.Sale) (*Service, error) {
	if logger == nil {
		logger, _ = zap.NewProduction()
		defer logger.Sync() // flushes buffer, if any
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if assets == nil || forwarder == nil {
		return nil, fmt.Errorf("%w: asset ledger and forwarder are required", ErrInvalidConfig)
	}
	if local, ok := forwarder.(*wallet.LocalForwarder); ok {
		switch local.Bank() {
		case nil:
			return nil, fmt.Errorf("%w: local forwarder has no bank ledger", ErrInvalidConfig)
		case assets:
			return nil, fmt.Errorf("%w: local forwarder settles against the asset ledger", ErrInvalidConfig)
		}
	}

	cfg.Rate = new(uint256.Int).Set(cfg.Rate)
	cfg.HardCap = new(uint256.Int).Set(cfg.HardCap)

	return &Service{
		cfg:       cfg,
		window:    Window{Open: cfg.OpeningTime, Close: cfg.ClosingTime},
		cap:       NewCapTracker(cfg.HardCap),
		assets:    assets,
		forwarder: forwarder,
		logger:    logger,
		metrics:   m,
	}, nil
}

func validateConfig(cfg Config) error {
	switch {
	case cfg.Rate == nil || cfg.Rate.IsZero():
		return fmt.Errorf("%w: rate must be positive", ErrInvalidConfig)
	case cfg.HardCap == nil || cfg.HardCap.IsZero():
		return fmt.Errorf("%w: hard cap must be positive", ErrInvalidConfig)
	case cfg.Wallet == (common.Address{}):
		return fmt.Errorf("%w: wallet is the zero address", ErrInvalidConfig)
	case cfg.SaleAccount == (common.Address{}):
		return fmt.Errorf("%w: sale account is the zero address", ErrInvalidConfig)
	case !cfg.OpeningTime.Before(cfg.ClosingTime):
		return fmt.Errorf("%w: opening time must be before closing time", ErrInvalidConfig)
	}
	return nil
}

// Purchase buys assets for beneficiary with a payment tendered by payer at time now.
func (s *Service) Purchase(ctx context.Context, beneficiary, payer common.Address, payment *uint256.Int, now time.Time) (*PurchaseRecord, error) {
	record, err := s.purchase(ctx, beneficiary, payer, payment, now)
	if err != nil {
		fields := []zap.Field{
			zap.String("beneficiary", beneficiary.Hex()),
			zap.String("payer", payer.Hex()),
			zap.String("payment_wei", decString(payment)),
			zap.Error(err),
		}
		if errors.Is(err, ErrForwardingFailed) {
			s.logger.Error("purchase rolled back", fields...)
		} else {
			s.logger.Warn("purchase rejected", fields...)
		}
		s.metrics.RecordRejected(rejectReason(err))
		return nil, err
	}

	s.logger.Info("tokens purchased",
		zap.String("purchase_id", record.ID),
		zap.String("beneficiary", record.Beneficiary.Hex()),
		zap.String("payer", record.Payer.Hex()),
		zap.String("payment_wei", record.PaymentAmount.Dec()),
		zap.String("asset_amount", record.AssetAmount.Dec()),
	)
	return record, nil
}

// PurchaseDirect handles a bare payment: the payer is also the beneficiary.
func (s *Service) PurchaseDirect(ctx context.Context, payer common.Address, payment *uint256.Int, now time.Time) (*PurchaseRecord, error) {
	return s.Purchase(ctx, payer, payer, payment, now)
}

func (s *Service) purchase(ctx context.Context, beneficiary, payer common.Address, payment *uint256.Int, now time.Time) (*PurchaseRecord, error) {
	if beneficiary == (common.Address{}) {
		return nil, ErrInvalidBeneficiary
	}
	if payment == nil || payment.IsZero() {
		return nil, ErrZeroPayment
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.window.IsOpen(now) {
		return nil, ErrSaleNotOpen
	}
	if err := s.cap.Reserve(payment); err != nil {
		return nil, err
	}
	assetAmount, err := ToAssetAmount(payment, s.cfg.Rate)
	if err != nil {
		s.cap.Release(payment)
		return nil, err
	}

	err = s.assets.Update(func(tx *ledger.Tx) error {
		if err := tx.Transfer(s.cfg.SaleAccount, beneficiary, assetAmount); err != nil {
			if errors.Is(err, ledger.ErrInsufficientBalance) {
				return fmt.Errorf("%w: %w", ErrInsufficientAssetSupply, err)
			}
			return err
		}
		if err := s.forwarder.Forward(ctx, payer, s.cfg.Wallet, payment); err != nil {
			return fmt.Errorf("%w: %w", ErrForwardingFailed, err)
		}
		return nil
	})
	if err != nil {
		s.cap.Release(payment)
		return nil, err
	}

	raised := s.cap.TotalRaised()
	s.metrics.RecordAccepted(units.Float(raised), units.Float(assetAmount))

	return &PurchaseRecord{
		ID:            uuid.NewString(),
		Beneficiary:   beneficiary,
		Payer:         payer,
		PaymentAmount: new(uint256.Int).Set(payment),
		AssetAmount:   assetAmount,
		Timestamp:     now,
	}, nil
}

func decString(v *uint256.Int) string {
	if v == nil {
		return "<nil>"
	}
	return v.Dec()
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidBeneficiary):
		return "invalid_beneficiary"
	case errors.Is(err, ErrZeroPayment):
		return "zero_payment"
	case errors.Is(err, ErrSaleNotOpen):
		return "sale_not_open"
	case errors.Is(err, ErrCapExceeded):
		return "cap_exceeded"
	case errors.Is(err, ErrArithmeticOverflow):
		return "arithmetic_overflow"
	case errors.Is(err, ErrInsufficientAssetSupply):
		return "insufficient_asset_supply"
	case errors.Is(err, ErrForwardingFailed):
		return "forwarding_failed"
	default:
		return "other"
	}
}

// State derives the sale phase at time now.
func (s *Service) State(now time.Time) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked(now)
}

func (s *Service) stateLocked(now time.Time) State {
	switch {
	case s.window.HasClosed(now) || s.cap.Reached():
		return StateClosed
	case s.window.IsOpen(now):
		return StateOpen
	default:
		return StatePending
	}
}

// Snapshot reads the state, raise total, remaining cap and remaining supply
// under one lock, so no purchase can land between the reads.
func (s *Service) Snapshot(now time.Time) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		State:           s.stateLocked(now),
		TotalRaised:     s.cap.TotalRaised(),
		RemainingCap:    s.cap.Remaining(),
		RemainingSupply: s.assets.BalanceOf(s.cfg.SaleAccount),
		CapReached:      s.cap.Reached(),
	}
}

// IsOpen reports whether the window admits purchases at now, ignoring the cap.
func (s *Service) IsOpen(now time.Time) bool {
	return s.window.IsOpen(now)
}

// HasClosed reports whether the closing time has passed.
func (s *Service) HasClosed(now time.Time) bool {
	return s.window.HasClosed(now)
}

// TotalRaised returns the accepted payment volume.
func (s *Service) TotalRaised() *uint256.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cap.TotalRaised()
}

// CapReached reports whether the raise total has hit the hard cap.
func (s *Service) CapReached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cap.Reached()
}

// RemainingCap returns the payment volume still acceptable.
func (s *Service) RemainingCap() *uint256.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cap.Remaining()
}

// RemainingSupply returns the unsold asset units held by the sale account.
func (s *Service) RemainingSupply() *uint256.Int {
	return s.assets.BalanceOf(s.cfg.SaleAccount)
}

func (s *Service) Rate() *uint256.Int          { return new(uint256.Int).Set(s.cfg.Rate) }
func (s *Service) HardCap() *uint256.Int       { return new(uint256.Int).Set(s.cfg.HardCap) }
func (s *Service) Wallet() common.Address      { return s.cfg.Wallet }
func (s *Service) SaleAccount() common.Address { return s.cfg.SaleAccount }
func (s *Service) OpeningTime() time.Time      { return s.cfg.OpeningTime }
func (s *Service) ClosingTime() time.Time      { return s.cfg.ClosingTime }

// Assets exposes the ledger the sale delivers from.
func (s *Service) Assets() *ledger.Ledger { return s.assets }
