package fhe

import (
	"errors"
	"testing"

	"github.com/sigstream/sigstream/core/types"
)

// stubRecoverer returns a fixed address for any well-formed signature.
type stubRecoverer struct {
	signer types.Address
	err    error
}

func (s stubRecoverer) RecoverSigner(types.Hash, []byte) (types.Address, error) {
	return s.signer, s.err
}

func TestGrantVerify(t *testing.T) {
	grantee := types.HexToAddress("0xaa")
	handle := types.HexToHash("0x01")
	grant := &DecryptionGrant{
		Grantee:   grantee,
		Handles:   []types.Hash{handle},
		IssuedAt:  100,
		ExpiresAt: 200,
		Signature: []byte{1},
	}

	tests := []struct {
		name    string
		now     uint64
		rec     SignatureRecoverer
		wantErr error
	}{
		{"valid", 150, stubRecoverer{signer: grantee}, nil},
		{"not yet valid", 99, stubRecoverer{signer: grantee}, ErrGrantNotYetValid},
		{"expired at boundary", 200, stubRecoverer{signer: grantee}, ErrGrantExpired},
		{"wrong signer", 150, stubRecoverer{signer: types.HexToAddress("0xbb")}, ErrGrantSignature},
		{"recovery failure", 150, stubRecoverer{err: errors.New("bad sig")}, ErrGrantSignature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := grant.Verify(tt.now, tt.rec)
			if !errors.Is(err, tt.wantErr) && !(tt.wantErr == nil && err == nil) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGrantCoversAndDigest(t *testing.T) {
	h1 := types.HexToHash("0x01")
	h2 := types.HexToHash("0x02")
	g := &DecryptionGrant{Grantee: types.HexToAddress("0xaa"), Handles: []types.Hash{h1}}
	if !g.Covers(h1) {
		t.Fatal("grant must cover listed handle")
	}
	if g.Covers(h2) {
		t.Fatal("grant must not cover unlisted handle")
	}

	d1 := g.Digest()
	g2 := &DecryptionGrant{Grantee: g.Grantee, Handles: []types.Hash{h1, h2}}
	if d1 == g2.Digest() {
		t.Fatal("digest must commit to the handle list")
	}
	g3 := &DecryptionGrant{Grantee: g.Grantee, Handles: []types.Hash{h1}, ExpiresAt: 9}
	if d1 == g3.Digest() {
		t.Fatal("digest must commit to the validity window")
	}
}
