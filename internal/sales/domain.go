package sales

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// State is the logical phase of the sale, derived from time and the raise total.
type State string

const (
	StatePending State = "pending"
	StateOpen    State = "open"
	StateClosed  State = "closed"
)

// Config is fixed at construction and never changes afterwards.
type Config struct {
	// Rate is the number of asset units bought per payment unit.
	Rate *uint256.Int
	// Wallet receives every forwarded payment.
	Wallet common.Address
	// SaleAccount is the asset ledger account pre-funded with the sellable supply.
	SaleAccount common.Address
	// HardCap bounds the cumulative accepted payment volume.
	HardCap     *uint256.Int
	OpeningTime time.Time
	ClosingTime time.Time
}

// PurchaseRecord describes one accepted purchase. It is returned to the caller, not stored.
type PurchaseRecord struct {
	ID            string         `json:"id"`
	Beneficiary   common.Address `json:"beneficiary"`
	Payer         common.Address `json:"payer"`
	PaymentAmount *uint256.Int   `json:"payment_amount"`
	AssetAmount   *uint256.Int   `json:"asset_amount"`
	Timestamp     time.Time      `json:"timestamp"`
}

// Snapshot is a consistent view of the sale's mutable state at one instant.
type Snapshot struct {
	State           State
	TotalRaised     *uint256.Int
	RemainingCap    *uint256.Int
	RemainingSupply *uint256.Int
	CapReached      bool
}
