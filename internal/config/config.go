package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// NetworkMainnet selects pre-deployed token and wallet addresses instead of a local deployment.
const NetworkMainnet = "mainnet"

// Config describes one sale deployment and the HTTP server in front of it.
type Config struct {
	Network   NetworkConfig    `toml:"network"`
	Sale      SaleConfig       `toml:"sale"`
	Token     TokenConfig      `toml:"token"`
	Forwarder ForwarderConfig  `toml:"forwarder"`
	Server    ServerConfig     `toml:"server"`
	Genesis   []GenesisAccount `toml:"genesis" validate:"dive"`
}

type NetworkConfig struct {
	Name string `toml:"name" validate:"required"`
}

// SaleConfig holds the sale parameters. Amounts are decimal strings in whole units.
type SaleConfig struct {
	Rate            string `toml:"rate" validate:"required,numeric"`
	Wallet          string `toml:"wallet" validate:"required,eth_addr"`
	Account         string `toml:"account" validate:"required,eth_addr"`
	HardCapEther    string `toml:"hard_cap_ether" validate:"required"`
	TokensCapEther  string `toml:"tokens_cap_ether" validate:"required"`
	StartDate       int64  `toml:"start_date" validate:"gt=0"`
	DurationSeconds int64  `toml:"duration_seconds" validate:"gt=0"`
}

type TokenConfig struct {
	// Address of an already deployed token; required on mainnet.
	Address     string `toml:"address" validate:"omitempty,eth_addr"`
	Deployer    string `toml:"deployer" validate:"required,eth_addr"`
	SupplyEther string `toml:"supply_ether"`
}

type ForwarderConfig struct {
	URL            string `toml:"url" validate:"omitempty,url"`
	TimeoutSeconds int    `toml:"timeout_seconds" validate:"gt=0"`
}

type ServerConfig struct {
	Address   string  `toml:"address" validate:"required"`
	RateLimit float64 `toml:"rate_limit" validate:"gte=0"`
	Burst     int     `toml:"burst" validate:"gte=0"`
}

// GenesisAccount seeds native-currency and token balances at deployment.
type GenesisAccount struct {
	Address      string `toml:"address" validate:"required,eth_addr"`
	BalanceEther string `toml:"balance_ether"`
	TokensEther  string `toml:"tokens_ether"`
}

// Default returns a local deployment mirroring the production sale parameters.
func Default() *Config {
	const deployer = "0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1"
	return &Config{
		Network: NetworkConfig{Name: "development"},
		Sale: SaleConfig{
			Rate:            "500000",
			Wallet:          deployer,
			Account:         "0xe78A0F7E598Cc8b0Bb87894B0F60dD2a88d6a8Ab",
			HardCapEther:    "50000",
			TokensCapEther:  "25000000000",
			StartDate:       1609027200,
			DurationSeconds: 5184000,
		},
		Token: TokenConfig{
			Deployer:    deployer,
			SupplyEther: "25000000000",
		},
		Forwarder: ForwarderConfig{TimeoutSeconds: 10},
		Server: ServerConfig{
			Address:   ":8081",
			RateLimit: 50,
			Burst:     100,
		},
		Genesis: []GenesisAccount{
			{Address: "0xFFcf8FDEE72ac11b5c542428B35EEF5769C409f0", BalanceEther: "1000"},
			{Address: "0x22d491Bde2303f2f43325b2108D26f1eAbA1e32b", BalanceEther: "1000"},
		},
	}
}

// Load reads the TOML file at path on top of Default. A missing file yields the
// defaults. Environment overrides are applied before validation.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			return nil, fmt.Errorf("config: unknown keys in %s: %s", path, strings.Join(keys, ", "))
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: stat %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Network.Name = strings.TrimSpace(EnvOrDefault("NETWORK_NAME", c.Network.Name))
	c.Server.Address = EnvOrDefault("SERVER_ADDRESS", c.Server.Address)
	c.Server.RateLimit = FloatFromEnv("SERVER_RATE_LIMIT", c.Server.RateLimit)
	c.Server.Burst = IntFromEnv("SERVER_BURST", c.Server.Burst)
	c.Forwarder.URL = EnvOrDefault("FORWARDER_URL", c.Forwarder.URL)
}

// IsMainnet reports whether the deployment targets the production network.
func (c *Config) IsMainnet() bool {
	return strings.EqualFold(c.Network.Name, NetworkMainnet)
}
