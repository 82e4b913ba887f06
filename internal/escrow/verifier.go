// Package escrow queries the on-chain escrow contract that holds both
// players' stakes. Admission is optimistic: the verifier runs in the
// background and tears the room down when a stake does not check out.
package escrow

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/celebiasallll/coffychess/internal/ethutil"
	"github.com/celebiasallll/coffychess/internal/obslog"
)

// On-chain game status codes. Anything >= StatusCompleted is terminal from
// the coordinator's perspective, including the contract's commit-reveal
// vestiges.
const (
	StatusPending   = 0
	StatusActive    = 1
	StatusCompleted = 2
	StatusCancelled = 3
)

// ErrDenied is returned when the escrow record conclusively rejects the
// wallet: the on-chain game is already settled or the wallet never staked.
var ErrDenied = errors.New("stake verification denied")

// GameInfo mirrors getGameInfo(uint256) from the escrow contract.
type GameInfo struct {
	Player1        string
	Player2        string
	StakePerPlayer *big.Int
	TotalStaked    *big.Int
	CreatedAt      uint64
	Status         uint8
	Winner         string
}

type Verifier struct {
	rpc      *Client
	contract string
	retries  int
	backoff  time.Duration
}

// NewVerifier wires the RPC client to the escrow contract address. retries
// and backoff follow the admission policy: linear backoff of attempt*backoff
// between tries.
func NewVerifier(rpc *Client, contract string, retries int, backoff time.Duration) (*Verifier, error) {
	norm, err := ethutil.NormalizeAddress(contract)
	if err != nil {
		return nil, fmt.Errorf("escrow contract: %w", err)
	}
	if retries <= 0 {
		retries = 15
	}
	if backoff <= 0 {
		backoff = 3 * time.Second
	}
	return &Verifier{rpc: rpc, contract: norm, retries: retries, backoff: backoff}, nil
}

// GetGameInfo fetches and decodes one escrow game record.
func (v *Verifier) GetGameInfo(ctx context.Context, gameID uint64) (*GameInfo, error) {
	data := append(selector("getGameInfo(uint256)"), ethutil.Uint256(gameID)...)
	raw, err := v.rpc.ethCall(ctx, v.contract, data)
	if err != nil {
		return nil, err
	}
	if len(raw) < 7*32 {
		return nil, fmt.Errorf("getGameInfo: short response (%d bytes)", len(raw))
	}
	return &GameInfo{
		Player1:        wordAddress(raw, 0),
		Player2:        wordAddress(raw, 1),
		StakePerPlayer: wordUint(raw, 2),
		TotalStaked:    wordUint(raw, 3),
		CreatedAt:      wordUint(raw, 4).Uint64(),
		Status:         uint8(wordUint(raw, 5).Uint64()),
		Winner:         wordAddress(raw, 6),
	}, nil
}

// TrustedSigner returns the signer address the escrow contract accepts.
// Used as a startup self-check against the local verdict key.
func (v *Verifier) TrustedSigner(ctx context.Context) (string, error) {
	raw, err := v.rpc.ethCall(ctx, v.contract, selector("trustedSigner()"))
	if err != nil {
		return "", err
	}
	if len(raw) < 32 {
		return "", errors.New("trustedSigner: short response")
	}
	return wordAddress(raw, 0), nil
}

// Verify confirms that wallet staked into gameID and the on-chain game is
// still open. RPC failures are retried with linear backoff; an explicit
// denial (settled game, foreign wallet) returns ErrDenied immediately once
// the record is readable.
func (v *Verifier) Verify(ctx context.Context, gameID uint64, wallet string) error {
	norm, err := ethutil.NormalizeAddress(wallet)
	if err != nil {
		return ErrDenied
	}

	var lastErr error
	for attempt := 1; attempt <= v.retries; attempt++ {
		info, err := v.GetGameInfo(ctx, gameID)
		switch {
		case err == nil:
			if info.Status >= StatusCompleted {
				obslog.L().Warn("stake_denied",
					zap.Uint64("game_id", gameID),
					zap.String("wallet", norm),
					zap.Uint8("status", info.Status),
				)
				return ErrDenied
			}
			if strings.EqualFold(info.Player1, norm) || strings.EqualFold(info.Player2, norm) {
				obslog.L().Info("stake_verified",
					zap.Uint64("game_id", gameID),
					zap.String("wallet", norm),
					zap.Int("attempt", attempt),
				)
				return nil
			}
			// Record exists but the wallet is not in it yet; chain state can
			// lag the client, so keep polling until attempts run out.
			lastErr = fmt.Errorf("wallet %s not in game %d", norm, gameID)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			lastErr = err
		}

		if attempt < v.retries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * v.backoff):
			}
		}
	}
	obslog.L().Warn("stake_verify_exhausted",
		zap.Uint64("game_id", gameID),
		zap.String("wallet", norm),
		zap.Error(lastErr),
	)
	return fmt.Errorf("%w: %v", ErrDenied, lastErr)
}
