package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"api_crowdsale/internal/ledger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	payer  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	target = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func TestLocalForwarder(t *testing.T) {
	bank := ledger.New()
	require.NoError(t, bank.Mint(payer, uint256.NewInt(10)))

	f := NewLocalForwarder(bank)
	assert.Same(t, bank, f.Bank())
	require.NoError(t, f.Forward(context.Background(), payer, target, uint256.NewInt(4)))
	assert.Equal(t, uint64(6), bank.BalanceOf(payer).Uint64())
	assert.Equal(t, uint64(4), bank.BalanceOf(target).Uint64())

	err := f.Forward(context.Background(), payer, target, uint256.NewInt(7))
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
}

func TestHTTPForwarder_Success(t *testing.T) {
	var got transferRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := NewHTTPForwarder(srv.URL, time.Second, zaptest.NewLogger(t))
	err := f.Forward(context.Background(), payer, target, uint256.NewInt(1500))
	require.NoError(t, err)

	assert.Equal(t, payer.Hex(), got.From)
	assert.Equal(t, target.Hex(), got.To)
	assert.Equal(t, "1500", got.AmountWei)
}

func TestHTTPForwarder_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer srv.Close()

	f := NewHTTPForwarder(srv.URL, time.Second, zaptest.NewLogger(t))
	err := f.Forward(context.Background(), payer, target, uint256.NewInt(1))
	assert.ErrorIs(t, err, ErrRejected)
}

func TestHTTPForwarder_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	f := NewHTTPForwarder(url, time.Second, zaptest.NewLogger(t))
	err := f.Forward(context.Background(), payer, target, uint256.NewInt(1))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRejected)
}
