package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/celebiasallll/coffychess/internal/archive"
	"github.com/celebiasallll/coffychess/internal/config"
	"github.com/celebiasallll/coffychess/internal/coordinator"
	"github.com/celebiasallll/coffychess/internal/escrow"
	"github.com/celebiasallll/coffychess/internal/gateway"
	"github.com/celebiasallll/coffychess/internal/obslog"
	"github.com/celebiasallll/coffychess/internal/ratelimit"
	"github.com/celebiasallll/coffychess/internal/room"
	"github.com/celebiasallll/coffychess/internal/username"
	"github.com/celebiasallll/coffychess/internal/verdict"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Verdict signer. Without a key the coordinator still referees games but
	// emits unsigned results, which the escrow contract will not accept.
	var signer room.Signer
	var signerAddr string
	if strings.TrimSpace(cfg.SignerKeyHex) != "" {
		s, err := verdict.New(cfg.SignerKeyHex, cfg.ChainID, cfg.EscrowAddress)
		if err != nil {
			log.Fatalf("signer init error: %v", err)
		}
		signer = s
		signerAddr = s.Address()
		logger.Info("verdict_signer_ready",
			zap.String("address", signerAddr),
			zap.Uint64("chain_id", cfg.ChainID),
		)
	} else {
		logger.Warn("no_signer_key", zap.String("hint", "set SIGNER_PRIVATE_KEY to sign verdicts"))
	}

	// Escrow verifier. Optional: development runs admit stakes blindly.
	var verifier coordinator.StakeVerifier
	if cfg.VerificationEnabled() {
		rpc, err := escrow.NewClient(cfg.RPCEndpoints)
		if err != nil {
			log.Fatalf("rpc client init error: %v", err)
		}
		v, err := escrow.NewVerifier(rpc, cfg.EscrowAddress, cfg.VerifyRetries, cfg.VerifyBackoff)
		if err != nil {
			log.Fatalf("escrow verifier init error: %v", err)
		}
		verifier = v
		checkTrustedSigner(rootCtx, v, signerAddr, logger)
	} else {
		logger.Warn("stake_verification_disabled")
	}

	// Rate-limit store: Redis when configured, in-process otherwise.
	var store ratelimit.Store
	var storeClose func()
	if cfg.RedisURL != "" {
		rs, err := ratelimit.NewRedisStoreFromURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis init error: %v", err)
		}
		store = rs
		storeClose = func() { _ = rs.Close() }
		logger.Info("ratelimit_store", zap.String("kind", "redis"))
	} else {
		ms := ratelimit.NewMemoryStore(0)
		store = ms
		storeClose = ms.Close
		logger.Info("ratelimit_store", zap.String("kind", "memory"))
	}
	limiter := ratelimit.New(store, ratelimit.DefaultRules())

	users, err := username.Load(cfg.UsernamesFile)
	if err != nil {
		log.Fatalf("username registry error: %v", err)
	}
	logger.Info("usernames_loaded", zap.Int("count", users.Count()))

	// Game archive. Optional: without a database finished games are only
	// kept in logs.
	var archiver coordinator.Archiver
	var archiveClose func()
	if cfg.DatabaseURL != "" {
		repo, err := archive.NewRepository(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("archive init error: %v", err)
		}
		archiver = repo
		archiveClose = func() { _ = repo.Close() }
	}

	hub := gateway.NewHub()
	coord := coordinator.New(rootCtx, verifier, signer, archiver, hub, room.Config{
		DrawOfferTTL:    cfg.DrawOfferTTL,
		ReconnectWindow: cfg.ReconnectWindow,
		CleanupDelay:    cfg.CleanupDelay,
		VerdictMaxWait:  cfg.VerdictMaxWait,
	}, cfg.DefaultTimeBudget)

	srv := gateway.NewServer(cfg.ListenAddr, coord, hub, limiter, users)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting_down", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("server_failed", zap.Error(err))
	}

	rootCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	storeClose()
	if archiveClose != nil {
		archiveClose()
	}
}

// checkTrustedSigner compares the contract's trustedSigner against the local
// signing key. A mismatch means every verdict will be rejected on-chain, so
// it is worth a loud log line at startup, but the coordinator still runs:
// the contract may simply not be deployed yet on a dev chain.
func checkTrustedSigner(ctx context.Context, v *escrow.Verifier, localAddr string, logger *zap.Logger) {
	if localAddr == "" {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	onChain, err := v.TrustedSigner(cctx)
	if err != nil {
		logger.Warn("trusted_signer_check_failed", zap.Error(err))
		return
	}
	if !strings.EqualFold(onChain, localAddr) {
		logger.Error("trusted_signer_mismatch",
			zap.String("contract", onChain),
			zap.String("local", localAddr),
		)
		return
	}
	logger.Info("trusted_signer_verified", zap.String("address", localAddr))
}
