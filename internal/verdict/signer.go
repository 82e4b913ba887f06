// Package verdict produces the signed messages players submit to the escrow
// contract to claim a win or a draw refund.
package verdict

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"go.uber.org/zap"

	"github.com/celebiasallll/coffychess/internal/ethutil"
	"github.com/celebiasallll/coffychess/internal/obslog"
)

const (
	prefixWin  = "GAME_WIN"
	prefixDraw = "GAME_DRAW"
)

// Signer holds the trusted-signer key. The key never leaves process memory;
// only signatures and the derived address are exposed.
type Signer struct {
	key      *secp256k1.PrivateKey
	chainID  uint64
	contract [20]byte
	address  string
}

// New builds a Signer from a hex private key, the chain id and the escrow
// contract address. chainID and contract are folded into every payload so
// signatures cannot be replayed across networks or deployments.
func New(privHex string, chainID uint64, contract string) (*Signer, error) {
	key, err := ethutil.ParsePrivateKey(privHex)
	if err != nil {
		return nil, fmt.Errorf("signer key: %w", err)
	}
	cb, err := ethutil.AddressBytes(contract)
	if err != nil {
		return nil, fmt.Errorf("escrow address: %w", err)
	}
	return &Signer{
		key:      key,
		chainID:  chainID,
		contract: cb,
		address:  ethutil.PubKeyAddress(key.PubKey()),
	}, nil
}

// Address returns the trusted signer address the escrow contract must have
// registered for the signatures to be accepted.
func (s *Signer) Address() string { return s.address }

// SignWin signs the GAME_WIN payload for the winner's address.
func (s *Signer) SignWin(gameID uint64, winner string) (string, error) {
	sig, err := s.sign(prefixWin, gameID, winner)
	if err != nil {
		return "", err
	}
	obslog.L().Info("verdict_signed",
		zap.Uint64("game_id", gameID),
		zap.String("kind", "win"),
		zap.String("claimant", winner),
	)
	return sig, nil
}

// SignDraw signs the GAME_DRAW payload once per player. The two signatures
// differ only in the embedded claimant address.
func (s *Signer) SignDraw(gameID uint64, white, black string) (sigWhite, sigBlack string, err error) {
	sigWhite, err = s.sign(prefixDraw, gameID, white)
	if err != nil {
		return "", "", err
	}
	sigBlack, err = s.sign(prefixDraw, gameID, black)
	if err != nil {
		return "", "", err
	}
	obslog.L().Info("verdict_signed",
		zap.Uint64("game_id", gameID),
		zap.String("kind", "draw"),
	)
	return sigWhite, sigBlack, nil
}

// sign hashes abi.encodePacked(prefix, uint256 gameID, address claimant,
// uint256 chainID, address contract), wraps it in the personal-message
// envelope and signs the result.
func (s *Signer) sign(prefix string, gameID uint64, claimant string) (string, error) {
	addr, err := ethutil.AddressBytes(claimant)
	if err != nil {
		return "", fmt.Errorf("claimant address: %w", err)
	}
	payload := ethutil.Keccak256(
		[]byte(prefix),
		ethutil.Uint256(gameID),
		addr[:],
		ethutil.Uint256(s.chainID),
		s.contract[:],
	)
	digest := ethutil.PersonalHash(payload)
	sig, err := ethutil.SignDigest(s.key, digest)
	if err != nil {
		return "", err
	}
	return ethutil.SigToHex(sig), nil
}
