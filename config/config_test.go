package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "./escrow-data", cfg.DataDir)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, ":9464", cfg.MetricsAddress)
	require.Equal(t, []string{"NHB", "ZNHB"}, cfg.AllowedTokens)
	require.Equal(t, uint32(10_000), cfg.MaxFeeBps)
	require.Equal(t, int64(120), cfg.Oracle.MaxQuoteAgeSeconds)
	require.Equal(t, int64(60), cfg.Vault.MinWaitSeconds)
	require.Equal(t, int64(90*24*60*60), cfg.Vault.MaxWaitSeconds)

	_, err = os.Stat(path)
	require.NoError(t, err, "default file must be written")

	// The written file loads back to the same configuration.
	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, again)
}

func TestLoadParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := strings.Join([]string{
		`DataDir = "/var/lib/escrowd"`,
		`LogLevel = "debug"`,
		`AllowedTokens = ["nhb", "usdc"]`,
		`FeeTreasury = "0x0102030405060708090a0b0c0d0e0f1011121314"`,
		``,
		`[oracle]`,
		`MaxQuoteAgeSeconds = 300`,
		`Priority = ["manual"]`,
		``,
		`[vault]`,
		`MinWaitSeconds = 120`,
		`MaxWaitSeconds = 3600`,
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/escrowd", cfg.DataDir)
	require.Equal(t, "debug", cfg.LogLevel)
	// Token symbols are upper-cased during normalisation.
	require.Equal(t, []string{"NHB", "USDC"}, cfg.AllowedTokens)
	require.Equal(t, int64(300), cfg.Oracle.MaxQuoteAgeSeconds)
	require.Equal(t, []string{"manual"}, cfg.Oracle.Priority)
	require.Equal(t, int64(120), cfg.Vault.MinWaitSeconds)
	require.Equal(t, int64(3600), cfg.Vault.MaxWaitSeconds)

	treasury, err := cfg.TreasuryAddress()
	require.NoError(t, err)
	require.Equal(t, byte(0x01), treasury[0])
	require.Equal(t, byte(0x14), treasury[19])
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := &Config{LogLevel: "loud"}
	cfg.Normalise()
	require.Error(t, cfg.Validate(), "unknown log level")

	cfg = &Config{AllowedTokens: []string{"X"}}
	cfg.Normalise()
	require.Error(t, cfg.Validate(), "one-character token")

	cfg = &Config{FeeTreasury: "0xnothex"}
	cfg.Normalise()
	require.Error(t, cfg.Validate(), "malformed treasury")
}

func TestTreasuryAddressDefaultsToZero(t *testing.T) {
	cfg := &Config{}
	cfg.Normalise()
	addr, err := cfg.TreasuryAddress()
	require.NoError(t, err)
	require.Equal(t, [20]byte{}, addr)
}

func TestParseAddress(t *testing.T) {
	want := "0102030405060708090a0b0c0d0e0f1011121314"
	withPrefix, err := ParseAddress("0x" + want)
	require.NoError(t, err)
	bare, err := ParseAddress(want)
	require.NoError(t, err)
	require.Equal(t, withPrefix, bare)

	_, err = ParseAddress("0x0102")
	require.Error(t, err, "short address")
}
