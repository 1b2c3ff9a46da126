package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config carries everything the node needs to wire up the engines: storage
// location, token policy, fee routing, oracle freshness and the vault delay
// bounds.
type Config struct {
	DataDir        string `toml:"DataDir"`
	LogLevel       string `toml:"LogLevel"`
	LogPath        string `toml:"LogPath"`
	MetricsAddress string `toml:"MetricsAddress"`

	AllowedTokens []string `toml:"AllowedTokens"`
	FeeTreasury   string   `toml:"FeeTreasury"`
	MaxFeeBps     uint32   `toml:"MaxFeeBps"`

	Oracle OracleConfig `toml:"oracle"`
	Vault  VaultConfig  `toml:"vault"`
}

// OracleConfig controls quote aggregation for the price-conditioned engines.
type OracleConfig struct {
	MaxQuoteAgeSeconds int64    `toml:"MaxQuoteAgeSeconds"`
	Priority           []string `toml:"Priority"`
}

// VaultConfig bounds the withdrawal delay a vault may be created with.
type VaultConfig struct {
	MinWaitSeconds int64 `toml:"MinWaitSeconds"`
	MaxWaitSeconds int64 `toml:"MaxWaitSeconds"`
}

// Load reads the configuration at path, creating a default file when none
// exists yet. The returned config is always normalised.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.Normalise()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Normalise()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(cfg)
}

// Normalise fills in defaults for every unset field so callers never have to
// guard against zero values.
func (c *Config) Normalise() {
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./escrow-data"
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = "info"
	}
	if strings.TrimSpace(c.MetricsAddress) == "" {
		c.MetricsAddress = ":9464"
	}
	if len(c.AllowedTokens) == 0 {
		c.AllowedTokens = []string{"NHB", "ZNHB"}
	}
	for i, token := range c.AllowedTokens {
		c.AllowedTokens[i] = strings.ToUpper(strings.TrimSpace(token))
	}
	if c.MaxFeeBps == 0 || c.MaxFeeBps > 10_000 {
		c.MaxFeeBps = 10_000
	}
	if c.Oracle.MaxQuoteAgeSeconds <= 0 {
		c.Oracle.MaxQuoteAgeSeconds = 120
	}
	if c.Oracle.Priority == nil {
		c.Oracle.Priority = []string{}
	}
	if c.Vault.MinWaitSeconds <= 0 {
		c.Vault.MinWaitSeconds = 60
	}
	if c.Vault.MaxWaitSeconds < c.Vault.MinWaitSeconds {
		c.Vault.MaxWaitSeconds = 90 * 24 * 60 * 60
	}
}

// Validate rejects configurations the engines cannot run with.
func (c *Config) Validate() error {
	for _, token := range c.AllowedTokens {
		if len(token) < 2 || len(token) > 8 {
			return fmt.Errorf("allowed token %q must be 2 to 8 characters", token)
		}
	}
	if treasury := strings.TrimSpace(c.FeeTreasury); treasury != "" {
		if _, err := ParseAddress(treasury); err != nil {
			return fmt.Errorf("fee treasury: %w", err)
		}
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// TreasuryAddress decodes the fee treasury. A blank setting yields the zero
// address, which routes fees to the burn account.
func (c *Config) TreasuryAddress() ([20]byte, error) {
	trimmed := strings.TrimSpace(c.FeeTreasury)
	if trimmed == "" {
		return [20]byte{}, nil
	}
	return ParseAddress(trimmed)
}

// ParseAddress decodes a 20-byte hex address with optional 0x prefix.
func ParseAddress(s string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if len(raw) != len(addr) {
		return addr, fmt.Errorf("invalid address %q: want %d bytes, got %d", s, len(addr), len(raw))
	}
	copy(addr[:], raw)
	return addr, nil
}
