package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

type AppConfig struct {
	ListenAddr string `yaml:"listen_addr"`

	// Verdict signing
	SignerKeyHex  string `yaml:"signer_private_key"`
	ChainID       uint64 `yaml:"chain_id"`
	EscrowAddress string `yaml:"escrow_address"`

	// Escrow RPC
	RPCEndpoints  []string      `yaml:"rpc_endpoints"`
	VerifyRetries int           `yaml:"verify_retries"`
	VerifyBackoff time.Duration `yaml:"verify_backoff"`

	// Optional stores
	RedisURL    string `yaml:"redis_url"`
	DatabaseURL string `yaml:"database_url"`

	UsernamesFile string `yaml:"usernames_file"`

	// Room timing (zero → defaults below)
	DefaultTimeBudget time.Duration `yaml:"default_time_budget"`
	DrawOfferTTL      time.Duration `yaml:"draw_offer_ttl"`
	ReconnectWindow   time.Duration `yaml:"reconnect_window"`
	CleanupDelay      time.Duration `yaml:"cleanup_delay"`
	VerdictMaxWait    time.Duration `yaml:"verdict_max_wait"`
}

// Load builds the config from an optional YAML file (CONFIG_FILE) with
// environment variables taking precedence over file values.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:        ":8080",
		ChainID:           1,
		VerifyRetries:     15,
		VerifyBackoff:     3 * time.Second,
		UsernamesFile:     "data/usernames.json",
		DefaultTimeBudget: 300 * time.Second,
		DrawOfferTTL:      30 * time.Second,
		ReconnectWindow:   60 * time.Second,
		CleanupDelay:      30 * time.Second,
		VerdictMaxWait:    30 * time.Second,
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("SIGNER_PRIVATE_KEY")); v != "" {
		cfg.SignerKeyHex = v
	}
	if v := strings.TrimSpace(os.Getenv("CHAIN_ID")); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, errors.New("CHAIN_ID must be a positive integer")
		}
		cfg.ChainID = n
	}
	if v := strings.TrimSpace(os.Getenv("ESCROW_ADDRESS")); v != "" {
		cfg.EscrowAddress = v
	}
	if v := strings.TrimSpace(os.Getenv("RPC_URLS")); v != "" {
		cfg.RPCEndpoints = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("USERNAMES_FILE")); v != "" {
		cfg.UsernamesFile = v
	}
	if v := strings.TrimSpace(os.Getenv("VERIFY_RETRIES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.VerifyRetries = n
		}
	}
	if d, ok := envSeconds("VERIFY_BACKOFF_SEC"); ok {
		cfg.VerifyBackoff = d
	}
	if d, ok := envSeconds("DEFAULT_TIME_BUDGET_SEC"); ok {
		cfg.DefaultTimeBudget = d
	}
	if d, ok := envSeconds("DRAW_OFFER_TTL_SEC"); ok {
		cfg.DrawOfferTTL = d
	}
	if d, ok := envSeconds("RECONNECT_WINDOW_SEC"); ok {
		cfg.ReconnectWindow = d
	}
	if d, ok := envSeconds("CLEANUP_DELAY_SEC"); ok {
		cfg.CleanupDelay = d
	}
	if d, ok := envSeconds("VERDICT_MAX_WAIT_SEC"); ok {
		cfg.VerdictMaxWait = d
	}

	return cfg, nil
}

// VerificationEnabled reports whether on-chain stake checks can run at all.
// Without an escrow address and at least one RPC endpoint the coordinator
// admits rooms unconditionally, which is only suitable for development.
func (c *AppConfig) VerificationEnabled() bool {
	return strings.TrimSpace(c.EscrowAddress) != "" && len(c.RPCEndpoints) > 0
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func envSeconds(key string) (time.Duration, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return time.Duration(n) * time.Second, true
}
