//go:build blst

// Run with: go test -tags blst ./gateway/ -run Blst

package gateway

import (
	"bytes"
	"testing"
)

func blstTestKeypair(t *testing.T) (pubkey, secret []byte) {
	t.Helper()
	ikm := bytes.Repeat([]byte{0x42}, 32)
	pubkey, secret, err := BlstShareKeyGen(ikm)
	if err != nil {
		t.Fatal(err)
	}
	return pubkey, secret
}

func TestBlstShareRoundTrip(t *testing.T) {
	pubkey, secret := blstTestKeypair(t)
	digest := []byte("request-digest")

	share, err := BlstSignShare(secret, digest)
	if err != nil {
		t.Fatal(err)
	}
	if len(pubkey) != blstPubkeySize || len(share) != blstShareSize {
		t.Fatalf("sizes pk=%d share=%d, want %d/%d", len(pubkey), len(share), blstPubkeySize, blstShareSize)
	}

	v := BlstShareVerifier{}
	if !v.Verify(pubkey, digest, share) {
		t.Fatal("valid share must verify")
	}
	if v.Verify(pubkey, []byte("other-digest"), share) {
		t.Fatal("share must be bound to its digest")
	}

	otherPub, _, err := BlstShareKeyGen(bytes.Repeat([]byte{0x43}, 32))
	if err != nil {
		t.Fatal(err)
	}
	if v.Verify(otherPub, digest, share) {
		t.Fatal("share must be bound to its signer")
	}
}

func TestBlstShareVerifierRejectsMalformed(t *testing.T) {
	pubkey, secret := blstTestKeypair(t)
	digest := []byte("request-digest")
	share, err := BlstSignShare(secret, digest)
	if err != nil {
		t.Fatal(err)
	}

	v := BlstShareVerifier{}
	tests := []struct {
		name   string
		member []byte
		share  []byte
	}{
		{"truncated pubkey", pubkey[:blstPubkeySize-1], share},
		{"truncated share", pubkey, share[:blstShareSize-1]},
		{"garbage pubkey", bytes.Repeat([]byte{0xff}, blstPubkeySize), share},
		{"garbage share", pubkey, bytes.Repeat([]byte{0xff}, blstShareSize)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if v.Verify(tt.member, digest, tt.share) {
				t.Fatal("malformed input must not verify")
			}
		})
	}
}

func TestBlstIsDefaultVerifier(t *testing.T) {
	if got := defaultShareVerifier().Name(); got != "blst" {
		t.Fatalf("default verifier %q, want blst", got)
	}
}

func TestBlstKeyGenRejectsShortIKM(t *testing.T) {
	if _, _, err := BlstShareKeyGen([]byte("short")); err != ErrBlstInvalidIKM {
		t.Fatalf("got %v, want ErrBlstInvalidIKM", err)
	}
	if _, err := BlstSignShare([]byte("short"), []byte("digest")); err != ErrBlstInvalidSecretKey {
		t.Fatalf("got %v, want ErrBlstInvalidSecretKey", err)
	}
}
