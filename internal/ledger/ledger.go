package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ErrInsufficientBalance is returned when the sender holds less than the transfer amount.
var ErrInsufficientBalance = errors.New("ledger: insufficient balance")

// ErrInvalidRecipient is returned when moving or minting to the zero address.
var ErrInvalidRecipient = errors.New("ledger: recipient is the zero address")

// ErrSupplyOverflow is returned when minting would push the total supply past 2^256-1.
var ErrSupplyOverflow = errors.New("ledger: supply overflow")

// Ledger is an in-memory balance book for a single fungible asset.
// The sum of all balances always equals TotalSupply; only Mint changes it.
type Ledger struct {
	mu       sync.RWMutex
	balances map[common.Address]*uint256.Int
	supply   *uint256.Int
}

// New instantiates an empty Ledger.
func New() *Ledger {
	return &Ledger{
		balances: map[common.Address]*uint256.Int{},
		supply:   new(uint256.Int),
	}
}

// Mint credits amount to the given account and grows the supply.
// It is meant for deployment funding, never for purchases.
func (l *Ledger) Mint(to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return ErrInvalidRecipient
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	supply, overflow := new(uint256.Int).AddOverflow(l.supply, amount)
	if overflow {
		return ErrSupplyOverflow
	}
	l.supply = supply
	l.balances[to] = new(uint256.Int).Add(l.balanceOf(to), amount)
	return nil
}

// BalanceOf returns a copy of the account balance. Unknown accounts hold zero.
func (l *Ledger) BalanceOf(account common.Address) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(uint256.Int).Set(l.balanceOf(account))
}

// TotalSupply returns a copy of the current supply.
func (l *Ledger) TotalSupply() *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(uint256.Int).Set(l.supply)
}

// Transfer moves amount from one account to another.
func (l *Ledger) Transfer(from, to common.Address, amount *uint256.Int) error {
	return l.Update(func(tx *Tx) error {
		return tx.Transfer(from, to, amount)
	})
}

// Update runs fn against a staged view of the ledger while holding the write
// lock. Staged changes are committed only when fn returns nil.
//
// fn must not call back into the same Ledger.
func (l *Ledger) Update(fn func(tx *Tx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx := &Tx{ledger: l, staged: map[common.Address]*uint256.Int{}}
	if err := fn(tx); err != nil {
		return err
	}
	for account, balance := range tx.staged {
		if balance.IsZero() {
			delete(l.balances, account)
			continue
		}
		l.balances[account] = balance
	}
	return nil
}

func (l *Ledger) balanceOf(account common.Address) *uint256.Int {
	if b, ok := l.balances[account]; ok {
		return b
	}
	return new(uint256.Int)
}

// Tx is a staged set of balance changes, valid only inside Update.
type Tx struct {
	ledger *Ledger
	staged map[common.Address]*uint256.Int
}

// BalanceOf returns the staged balance of account.
func (tx *Tx) BalanceOf(account common.Address) *uint256.Int {
	return new(uint256.Int).Set(tx.balanceOf(account))
}

// Transfer stages a move of amount between two accounts.
func (tx *Tx) Transfer(from, to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return ErrInvalidRecipient
	}
	fromBalance := tx.balanceOf(from)
	if fromBalance.Lt(amount) {
		return fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientBalance, from.Hex(), fromBalance.Dec(), amount.Dec())
	}
	tx.staged[from] = new(uint256.Int).Sub(fromBalance, amount)
	// Cannot overflow: the sum of all balances is bounded by the supply.
	tx.staged[to] = new(uint256.Int).Add(tx.balanceOf(to), amount)
	return nil
}

func (tx *Tx) balanceOf(account common.Address) *uint256.Int {
	if b, ok := tx.staged[account]; ok {
		return b
	}
	return tx.ledger.balanceOf(account)
}
