package sales

import (
	"context"
	"errors"
	"testing"
	"time"

	"api_crowdsale/internal/ledger"
	"api_crowdsale/internal/wallet"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
	"pgregory.net/rapid"
)

// Random purchase sequences against a small sale: every accepted purchase is
// priced exactly, the raise total tracks accepted payments and stays under the
// cap, and every rejected purchase leaves all balances untouched.
func TestProperty_PurchaseSequences(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rate := rapid.Uint64Range(1, 1_000_000).Draw(t, "rate")
		hardCap := rapid.Uint64Range(1, 10_000).Draw(t, "hardCap")
		supply := rapid.Uint64Range(0, 20_000*rate).Draw(t, "supply")

		assets := ledger.New()
		if supply > 0 {
			if err := assets.Mint(saleAccount, uint256.NewInt(supply)); err != nil {
				t.Fatalf("mint: %v", err)
			}
		}
		bank := ledger.New()
		buyers := []common.Address{investor, purchaser}
		for _, b := range buyers {
			if err := bank.Mint(b, uint256.NewInt(rapid.Uint64Range(0, 20_000).Draw(t, "funds"))); err != nil {
				t.Fatalf("mint: %v", err)
			}
		}

		duration := time.Duration(rapid.Int64Range(1, 1000).Draw(t, "duration")) * time.Second
		svc, err := NewService(Config{
			Rate:        uint256.NewInt(rate),
			Wallet:      owner,
			SaleAccount: saleAccount,
			HardCap:     uint256.NewInt(hardCap),
			OpeningTime: openingTime,
			ClosingTime: openingTime.Add(duration),
		}, assets, wallet.NewLocalForwarder(bank), zap.NewNop(), nil)
		if err != nil {
			t.Fatalf("NewService: %v", err)
		}

		accepted := uint64(0)
		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			buyer := rapid.SampledFrom(buyers).Draw(t, "buyer")
			payment := rapid.Uint64Range(0, 3_000).Draw(t, "payment")
			offset := time.Duration(rapid.Int64Range(-100, 1100).Draw(t, "offset")) * time.Second
			now := openingTime.Add(offset)

			tokensBefore := assets.BalanceOf(buyer)
			saleBefore := assets.BalanceOf(saleAccount)
			coinsBefore := bank.BalanceOf(buyer)
			walletBefore := bank.BalanceOf(owner)

			record, err := svc.PurchaseDirect(context.Background(), buyer, uint256.NewInt(payment), now)
			if err != nil {
				if !assets.BalanceOf(buyer).Eq(tokensBefore) || !assets.BalanceOf(saleAccount).Eq(saleBefore) ||
					!bank.BalanceOf(buyer).Eq(coinsBefore) || !bank.BalanceOf(owner).Eq(walletBefore) {
					t.Fatalf("rejected purchase (%v) changed balances", err)
				}
				if svc.TotalRaised().Uint64() != accepted {
					t.Fatalf("rejected purchase (%v) changed total raised", err)
				}
				if (now.Before(openingTime) || !now.Before(openingTime.Add(duration))) && payment > 0 && !errors.Is(err, ErrSaleNotOpen) {
					t.Fatalf("out-of-window purchase failed with %v, want %v", err, ErrSaleNotOpen)
				}
				continue
			}

			if now.Before(openingTime) || !now.Before(openingTime.Add(duration)) {
				t.Fatalf("purchase accepted outside the window at %v", now)
			}
			want := new(uint256.Int).Mul(uint256.NewInt(payment), uint256.NewInt(rate))
			if !record.AssetAmount.Eq(want) {
				t.Fatalf("asset amount %s, want %s", record.AssetAmount.Dec(), want.Dec())
			}
			if got := new(uint256.Int).Sub(assets.BalanceOf(buyer), tokensBefore); !got.Eq(want) {
				t.Fatalf("buyer credited %s, want %s", got.Dec(), want.Dec())
			}
			accepted += payment
			if svc.TotalRaised().Uint64() != accepted {
				t.Fatalf("total raised %d, want %d", svc.TotalRaised().Uint64(), accepted)
			}
			if accepted > hardCap {
				t.Fatalf("total raised %d exceeds cap %d", accepted, hardCap)
			}
		}

		if !assets.TotalSupply().Eq(uint256.NewInt(supply)) {
			t.Fatalf("asset supply changed")
		}
		if bank.BalanceOf(owner).Uint64() != accepted {
			t.Fatalf("wallet received %d, want %d", bank.BalanceOf(owner).Uint64(), accepted)
		}
	})
}
