package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"api_crowdsale/internal/ledger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
	"resty.dev/v3"
)

// ErrRejected is returned when the wallet service refuses a transfer.
var ErrRejected = errors.New("wallet: transfer rejected")

// Forwarder moves native currency out of the sale's custody.
// Forward must report the outcome synchronously.
type Forwarder interface {
	Forward(ctx context.Context, from, to common.Address, amount *uint256.Int) error
}

// LocalForwarder settles payments against an in-memory native-currency bank.
type LocalForwarder struct {
	bank *ledger.Ledger
}

// NewLocalForwarder creates a forwarder backed by bank.
func NewLocalForwarder(bank *ledger.Ledger) *LocalForwarder {
	return &LocalForwarder{bank: bank}
}

// Bank returns the ledger payments are settled against.
func (f *LocalForwarder) Bank() *ledger.Ledger { return f.bank }

// Forward debits the payer and credits the destination wallet.
func (f *LocalForwarder) Forward(_ context.Context, from, to common.Address, amount *uint256.Int) error {
	return f.bank.Transfer(from, to, amount)
}

// transferRequest is the body posted to the wallet service.
type transferRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	AmountWei string `json:"amount_wei"`
}

// HTTPForwarder posts transfers to a remote wallet service.
type HTTPForwarder struct {
	client *resty.Client
	url    string
	logger *zap.Logger
}

// NewHTTPForwarder creates a forwarder posting to url.
func NewHTTPForwarder(url string, timeout time.Duration, logger *zap.Logger) *HTTPForwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &HTTPForwarder{
		client: client,
		url:    url,
		logger: logger,
	}
}

// Forward requests the wallet service to move amount from one account to another.
// Any non-2xx answer is treated as a rejected transfer.
func (f *HTTPForwarder) Forward(ctx context.Context, from, to common.Address, amount *uint256.Int) error {
	body := transferRequest{
		From:      from.Hex(),
		To:        to.Hex(),
		AmountWei: amount.Dec(),
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(f.url)
	if err != nil {
		f.logger.Error("error calling wallet service", zap.String("url", f.url), zap.Error(err))
		return fmt.Errorf("wallet: request to %s: %w", f.url, err)
	}
	if resp.IsError() {
		f.logger.Warn("wallet service refused transfer",
			zap.Int("status", resp.StatusCode()),
			zap.String("to", body.To),
			zap.String("amount_wei", body.AmountWei),
		)
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode())
	}
	return nil
}
