package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sale.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, "500000", cfg.Sale.Rate)
	assert.Equal(t, "50000", cfg.Sale.HardCapEther)
	assert.Equal(t, int64(1609027200), cfg.Sale.StartDate)
	assert.Equal(t, int64(5184000), cfg.Sale.DurationSeconds)
	assert.False(t, cfg.IsMainnet())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[network]
name = "ropsten"

[sale]
rate = "1000"
wallet = "0x00000000000000000000000000000000000000aa"
account = "0x00000000000000000000000000000000000000cc"
hard_cap_ether = "10.5"
tokens_cap_ether = "10500"
start_date = 1700000000
duration_seconds = 60

[server]
address = ":9000"

[[genesis]]
address = "0x0000000000000000000000000000000000000011"
balance_ether = "5"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ropsten", cfg.Network.Name)
	assert.Equal(t, "1000", cfg.Sale.Rate)
	assert.Equal(t, "10.5", cfg.Sale.HardCapEther)
	assert.Equal(t, ":9000", cfg.Server.Address)
	require.Len(t, cfg.Genesis, 1)
	assert.Equal(t, "5", cfg.Genesis[0].BalanceEther)
	assert.Equal(t, 10, cfg.Forwarder.TimeoutSeconds, "untouched keys keep their defaults")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":7000")
	t.Setenv("FORWARDER_URL", "http://wallet.local/transfers")
	t.Setenv("SERVER_BURST", "7")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Address)
	assert.Equal(t, "http://wallet.local/transfers", cfg.Forwarder.URL)
	assert.Equal(t, 7, cfg.Server.Burst)
}

func TestLoad_UnknownKey(t *testing.T) {
	path := writeConfig(t, `
[sale]
price = "1"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sale.price")
}

func TestValidate_CollectsProblems(t *testing.T) {
	cfg := Default()
	cfg.Sale.Wallet = "not-an-address"
	cfg.Sale.Rate = "0"
	cfg.Sale.HardCapEther = "1.0000000000000000001"
	cfg.Sale.DurationSeconds = 0

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "Config.Sale.Wallet (eth_addr)")
	assert.Contains(t, msg, "Config.Sale.DurationSeconds (gt)")
	assert.Contains(t, msg, "sale.rate must be positive")
	assert.Contains(t, msg, "sale.hard_cap_ether")
}

func TestValidate_RateMustBeWholeUnits(t *testing.T) {
	for _, rate := range []string{"1.5", "-1"} {
		cfg := Default()
		cfg.Sale.Rate = rate

		err := cfg.Validate()
		require.Error(t, err, rate)
		assert.Contains(t, err.Error(), "sale.rate: invalid amount", rate)
	}
}

func TestValidate_ForwarderNeedsTimeout(t *testing.T) {
	cfg := Default()
	cfg.Forwarder.TimeoutSeconds = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Config.Forwarder.TimeoutSeconds (gt)")
}

func TestValidate_MainnetNeedsDeployedAddresses(t *testing.T) {
	cfg := Default()
	cfg.Network.Name = "mainnet"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token.address is required on mainnet")
	assert.Contains(t, err.Error(), "forwarder.url is required on mainnet")

	cfg.Token.Address = "0xbee571a0a8599ada125e1a33e56287c3c594a5e2"
	cfg.Forwarder.URL = "https://wallet.example.com/transfers"
	assert.NoError(t, cfg.Validate())
}
