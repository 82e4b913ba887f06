package ethutil

import (
	"encoding/hex"
	"strings"
	"testing"
)

// Well-known test vector: the all-ones private key.
const testKeyHex = "0101010101010101010101010101010101010101010101010101010101010101"

func TestNormalizeAddress(t *testing.T) {
	got, err := NormalizeAddress("0xAB5801a7D398351b8bE11C439e05C5B3259aeC9B")
	if err != nil {
		t.Fatalf("NormalizeAddress: %v", err)
	}
	if got != "0xab5801a7d398351b8be11c439e05c5b3259aec9b" {
		t.Fatalf("unexpected normalization: %q", got)
	}

	for _, bad := range []string{"", "ab5801a7d398351b8be11c439e05c5b3259aec9b", "0x1234", "0xZZ5801a7d398351b8be11c439e05c5b3259aec9b"} {
		if _, err := NormalizeAddress(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestChecksumAddress(t *testing.T) {
	// EIP-55 reference vector.
	in := "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	want := "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	got, err := ChecksumAddress(in)
	if err != nil {
		t.Fatalf("ChecksumAddress: %v", err)
	}
	if got != want {
		t.Fatalf("checksum mismatch: got %q want %q", got, want)
	}
}

func TestSignRecoverRoundtrip(t *testing.T) {
	key, err := ParsePrivateKey(testKeyHex)
	if err != nil {
		t.Fatalf("ParsePrivateKey: %v", err)
	}
	self := PubKeyAddress(key.PubKey())

	digest := PersonalHash([]byte("Reconnecting to CoffeeChess"))
	sig, err := SignDigest(key, digest)
	if err != nil {
		t.Fatalf("SignDigest: %v", err)
	}
	if len(sig) != 65 {
		t.Fatalf("signature length %d", len(sig))
	}
	if v := sig[64]; v != 27 && v != 28 {
		t.Fatalf("unexpected recovery id %d", v)
	}

	recovered, err := RecoverAddress(digest, sig)
	if err != nil {
		t.Fatalf("RecoverAddress: %v", err)
	}
	if !strings.EqualFold(recovered, self) {
		t.Fatalf("recovered %q, want %q", recovered, self)
	}

	// v given as 0/1 instead of 27/28 must still recover.
	alt := make([]byte, 65)
	copy(alt, sig)
	alt[64] -= 27
	recovered2, err := RecoverAddress(digest, alt)
	if err != nil || recovered2 != recovered {
		t.Fatalf("normalized-v recovery failed: %q %v", recovered2, err)
	}

	// Tampered digest must not recover the same address.
	other := PersonalHash([]byte("something else"))
	if rec, err := RecoverAddress(other, sig); err == nil && strings.EqualFold(rec, self) {
		t.Fatalf("tampered digest recovered the signer")
	}
}

func TestPersonalHash(t *testing.T) {
	payload := []byte("hello")
	want := Keccak256([]byte("\x19Ethereum Signed Message:\n5"), payload)
	got := PersonalHash(payload)
	if hex.EncodeToString(got) != hex.EncodeToString(want) {
		t.Fatalf("personal hash mismatch")
	}
}

func TestUint256(t *testing.T) {
	w := Uint256(0x0102030405060708)
	if len(w) != 32 {
		t.Fatalf("length %d", len(w))
	}
	for i := 0; i < 24; i++ {
		if w[i] != 0 {
			t.Fatalf("leading byte %d not zero", i)
		}
	}
	if hex.EncodeToString(w[24:]) != "0102030405060708" {
		t.Fatalf("tail %x", w[24:])
	}
}

func TestShortAddress(t *testing.T) {
	if got := ShortAddress("0xab5801a7d398351b8be11c439e05c5b3259aec9b"); got != "0xab58…ec9b" {
		t.Fatalf("short form %q", got)
	}
	if got := ShortAddress("0x12"); got != "0x12" {
		t.Fatalf("tiny input should pass through, got %q", got)
	}
}
