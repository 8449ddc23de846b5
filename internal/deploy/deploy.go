package deploy

import (
	"fmt"
	"time"

	"api_crowdsale/internal/config"
	"api_crowdsale/internal/ledger"
	"api_crowdsale/internal/metrics"
	"api_crowdsale/internal/sales"
	"api_crowdsale/internal/units"
	"api_crowdsale/internal/wallet"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Deployment is a ready-to-serve sale together with the ledgers it operates on.
type Deployment struct {
	Sale  *sales.Service
	Token *ledger.Ledger
	// Bank holds native-currency balances when payments are settled locally.
	// It is nil when a remote wallet service is used.
	Bank     *ledger.Ledger
	Registry *prometheus.Registry
}

// Deploy builds the token ledger, funds the sale account and wires the sale engine.
//
// Off mainnet a fresh token is created: its supply is minted to the deployer and
// the tokens cap is moved to the sale account. On mainnet the token already
// exists, so only genesis holdings are loaded and nothing is transferred.
func Deploy(cfg *config.Config, logger *zap.Logger) (*Deployment, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	params, err := saleParams(cfg)
	if err != nil {
		return nil, err
	}

	token := ledger.New()
	bank := ledger.New()
	for _, g := range cfg.Genesis {
		addr := common.HexToAddress(g.Address)
		if err := mintEther(bank, addr, g.BalanceEther); err != nil {
			return nil, fmt.Errorf("deploy: genesis balance for %s: %w", g.Address, err)
		}
		if err := mintEther(token, addr, g.TokensEther); err != nil {
			return nil, fmt.Errorf("deploy: genesis tokens for %s: %w", g.Address, err)
		}
	}

	if cfg.IsMainnet() {
		logger.Info("using deployed token", zap.String("token", cfg.Token.Address), zap.String("wallet", cfg.Sale.Wallet))
	} else {
		deployer := common.HexToAddress(cfg.Token.Deployer)
		supply := cfg.Token.SupplyEther
		if supply == "" {
			supply = cfg.Sale.TokensCapEther
		}
		if err := mintEther(token, deployer, supply); err != nil {
			return nil, fmt.Errorf("deploy: mint token supply: %w", err)
		}
		tokensCap, err := units.ParseEther(cfg.Sale.TokensCapEther)
		if err != nil {
			return nil, fmt.Errorf("deploy: tokens cap: %w", err)
		}
		if err := token.Transfer(deployer, params.SaleAccount, tokensCap); err != nil {
			return nil, fmt.Errorf("deploy: fund sale account: %w", err)
		}
		logger.Info("token deployed",
			zap.String("deployer", deployer.Hex()),
			zap.String("supply", supply),
			zap.String("sale_account", params.SaleAccount.Hex()),
		)
	}

	if err := checkSupply(params, token.BalanceOf(params.SaleAccount)); err != nil {
		logger.Warn("sale account cannot cover the hard cap", zap.Error(err))
	}

	var forwarder wallet.Forwarder
	if cfg.Forwarder.URL != "" {
		timeout := time.Duration(cfg.Forwarder.TimeoutSeconds) * time.Second
		forwarder = wallet.NewHTTPForwarder(cfg.Forwarder.URL, timeout, logger)
		bank = nil
	} else {
		forwarder = wallet.NewLocalForwarder(bank)
	}

	registry := prometheus.NewRegistry()
	svc, err := sales.NewService(params, token, forwarder, logger, metrics.NewSale(registry))
	if err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}

	logger.Info("crowdsale deployed",
		zap.String("network", cfg.Network.Name),
		zap.String("sale_account", params.SaleAccount.Hex()),
		zap.String("wallet", params.Wallet.Hex()),
		zap.String("rate", params.Rate.Dec()),
		zap.String("hard_cap_ether", cfg.Sale.HardCapEther),
		zap.Time("opening_time", params.OpeningTime),
		zap.Time("closing_time", params.ClosingTime),
	)

	return &Deployment{
		Sale:     svc,
		Token:    token,
		Bank:     bank,
		Registry: registry,
	}, nil
}

func saleParams(cfg *config.Config) (sales.Config, error) {
	rate, err := units.ParseWei(cfg.Sale.Rate)
	if err != nil {
		return sales.Config{}, fmt.Errorf("deploy: rate: %w", err)
	}
	hardCap, err := units.ParseEther(cfg.Sale.HardCapEther)
	if err != nil {
		return sales.Config{}, fmt.Errorf("deploy: hard cap: %w", err)
	}
	opening := time.Unix(cfg.Sale.StartDate, 0).UTC()
	return sales.Config{
		Rate:        rate,
		Wallet:      common.HexToAddress(cfg.Sale.Wallet),
		SaleAccount: common.HexToAddress(cfg.Sale.Account),
		HardCap:     hardCap,
		OpeningTime: opening,
		ClosingTime: opening.Add(time.Duration(cfg.Sale.DurationSeconds) * time.Second),
	}, nil
}

func mintEther(l *ledger.Ledger, to common.Address, amount string) error {
	if amount == "" {
		return nil
	}
	v, err := units.ParseEther(amount)
	if err != nil {
		return err
	}
	if v.IsZero() {
		return nil
	}
	return l.Mint(to, v)
}

// checkSupply reports when selling the whole hard cap would need more tokens
// than the sale account holds.
func checkSupply(params sales.Config, funded *uint256.Int) error {
	needed, overflow := new(uint256.Int).MulOverflow(params.HardCap, params.Rate)
	if overflow {
		return sales.ErrArithmeticOverflow
	}
	if funded.Lt(needed) {
		return fmt.Errorf("sale account holds %s tokens, hard cap needs %s", units.FormatEther(funded), units.FormatEther(needed))
	}
	return nil
}
