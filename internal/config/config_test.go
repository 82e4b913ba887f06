package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("listen addr %q", cfg.ListenAddr)
	}
	if cfg.VerifyRetries != 15 || cfg.VerifyBackoff != 3*time.Second {
		t.Fatalf("verify policy: %d %v", cfg.VerifyRetries, cfg.VerifyBackoff)
	}
	if cfg.DrawOfferTTL != 30*time.Second || cfg.ReconnectWindow != 60*time.Second {
		t.Fatalf("timers: %v %v", cfg.DrawOfferTTL, cfg.ReconnectWindow)
	}
	if cfg.VerificationEnabled() {
		t.Fatalf("verification enabled without escrow config")
	}
}

func TestLoad_FileAndEnvOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("listen_addr: \":9000\"\nchain_id: 137\nrpc_endpoints:\n  - https://rpc-a.example\n  - https://rpc-b.example\nescrow_address: \"0x1f9840a85d5af5bf1d1762f925bdaddc4201f984\"\nverify_retries: 5\n")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	// Environment wins over the file.
	t.Setenv("CHAIN_ID", "10")
	t.Setenv("RPC_URLS", "https://rpc-c.example, https://rpc-d.example/")
	t.Setenv("DRAW_OFFER_TTL_SEC", "45")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9000" {
		t.Fatalf("file value ignored: %q", cfg.ListenAddr)
	}
	if cfg.ChainID != 10 {
		t.Fatalf("env did not win: chain id %d", cfg.ChainID)
	}
	if len(cfg.RPCEndpoints) != 2 || cfg.RPCEndpoints[0] != "https://rpc-c.example" {
		t.Fatalf("rpc endpoints: %v", cfg.RPCEndpoints)
	}
	if cfg.VerifyRetries != 5 {
		t.Fatalf("verify retries %d", cfg.VerifyRetries)
	}
	if cfg.DrawOfferTTL != 45*time.Second {
		t.Fatalf("draw ttl %v", cfg.DrawOfferTTL)
	}
	if !cfg.VerificationEnabled() {
		t.Fatalf("verification should be enabled")
	}
}

func TestLoad_BadChainID(t *testing.T) {
	t.Setenv("CHAIN_ID", "not-a-number")
	if _, err := Load(); err == nil {
		t.Fatalf("bad CHAIN_ID accepted")
	}
}
