package ethutil

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"
)

var (
	ErrBadAddress   = errors.New("malformed address")
	ErrBadSignature = errors.New("malformed signature")
)

const personalPrefix = "\x19Ethereum Signed Message:\n"

// Keccak256 hashes the concatenation of the inputs with legacy Keccak-256.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// NormalizeAddress lower-cases a 0x-prefixed 20-byte hex address. Lower-case
// form is the canonical equality key everywhere in the coordinator.
func NormalizeAddress(addr string) (string, error) {
	a := strings.TrimSpace(addr)
	if !strings.HasPrefix(a, "0x") && !strings.HasPrefix(a, "0X") {
		return "", ErrBadAddress
	}
	body := a[2:]
	if len(body) != 40 {
		return "", ErrBadAddress
	}
	if _, err := hex.DecodeString(body); err != nil {
		return "", ErrBadAddress
	}
	return "0x" + strings.ToLower(body), nil
}

// AddressBytes decodes an address into its raw 20 bytes.
func AddressBytes(addr string) ([20]byte, error) {
	var out [20]byte
	norm, err := NormalizeAddress(addr)
	if err != nil {
		return out, err
	}
	raw, _ := hex.DecodeString(norm[2:])
	copy(out[:], raw)
	return out, nil
}

// ChecksumAddress returns the EIP-55 mixed-case form used for signing and
// display. Input may be any casing.
func ChecksumAddress(addr string) (string, error) {
	norm, err := NormalizeAddress(addr)
	if err != nil {
		return "", err
	}
	body := norm[2:]
	sum := Keccak256([]byte(body))
	out := make([]byte, 40)
	for i := 0; i < 40; i++ {
		c := body[i]
		if c >= 'a' && c <= 'f' {
			nibble := sum[i/2]
			if i%2 == 0 {
				nibble >>= 4
			}
			if nibble&0x0f >= 8 {
				c = c - 'a' + 'A'
			}
		}
		out[i] = c
	}
	return "0x" + string(out), nil
}

// PersonalHash applies the personal-message envelope and hashes the result.
// For a 32-byte payload this yields keccak256("\x19Ethereum Signed
// Message:\n32" || payload), matching on-chain recovery.
func PersonalHash(payload []byte) []byte {
	prefix := personalPrefix + strconv.Itoa(len(payload))
	return Keccak256([]byte(prefix), payload)
}

// SignDigest produces a 65-byte r||s||v signature (v ∈ {27,28}) over a
// 32-byte digest.
func SignDigest(key *secp256k1.PrivateKey, digest []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, fmt.Errorf("digest must be 32 bytes, got %d", len(digest))
	}
	compact := secpecdsa.SignCompact(key, digest, false)
	// compact layout is v||r||s; clients and contracts expect r||s||v.
	sig := make([]byte, 65)
	copy(sig[0:64], compact[1:65])
	sig[64] = compact[0]
	return sig, nil
}

// RecoverAddress recovers the signer address from an r||s||v signature over
// the given digest. Accepts v in {0,1,27,28}.
func RecoverAddress(digest, sig []byte) (string, error) {
	if len(sig) != 65 {
		return "", ErrBadSignature
	}
	v := sig[64]
	if v < 27 {
		v += 27
	}
	if v != 27 && v != 28 {
		return "", ErrBadSignature
	}
	compact := make([]byte, 65)
	compact[0] = v
	copy(compact[1:65], sig[0:64])
	pub, _, err := secpecdsa.RecoverCompact(compact, digest)
	if err != nil {
		return "", ErrBadSignature
	}
	return PubKeyAddress(pub), nil
}

// PubKeyAddress derives the lower-case 0x address of a public key.
func PubKeyAddress(pub *secp256k1.PublicKey) string {
	raw := pub.SerializeUncompressed()
	sum := Keccak256(raw[1:])
	return "0x" + hex.EncodeToString(sum[12:])
}

// ParsePrivateKey decodes a hex-encoded secp256k1 private key. A 0x prefix
// is tolerated.
func ParsePrivateKey(hexKey string) (*secp256k1.PrivateKey, error) {
	s := strings.TrimSpace(hexKey)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 32 {
		return nil, errors.New("private key must be 32 hex-encoded bytes")
	}
	return secp256k1.PrivKeyFromBytes(raw), nil
}

// Uint256 encodes n as a 32-byte big-endian word, the packed-encoding form
// the escrow contract hashes.
func Uint256(n uint64) []byte {
	var out [32]byte
	out[24] = byte(n >> 56)
	out[25] = byte(n >> 48)
	out[26] = byte(n >> 40)
	out[27] = byte(n >> 32)
	out[28] = byte(n >> 24)
	out[29] = byte(n >> 16)
	out[30] = byte(n >> 8)
	out[31] = byte(n)
	return out[:]
}

// ShortAddress renders 0xabcd…ef12 for chat display.
func ShortAddress(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

// SigToHex renders a signature as 0x-prefixed hex.
func SigToHex(sig []byte) string { return "0x" + hex.EncodeToString(sig) }

// SigFromHex parses a 0x-prefixed (or bare) hex signature.
func SigFromHex(s string) ([]byte, error) {
	t := strings.TrimSpace(s)
	t = strings.TrimPrefix(strings.TrimPrefix(t, "0x"), "0X")
	raw, err := hex.DecodeString(t)
	if err != nil {
		return nil, ErrBadSignature
	}
	return raw, nil
}
