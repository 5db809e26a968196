package fhe

import (
	"github.com/sigstream/sigstream/core/types"
	"github.com/sigstream/sigstream/crypto"
)

// grantDomainTag separates grant digests from every other signed payload.
var grantDomainTag = []byte("sigstream/decryption-grant/v1")

// SignatureRecoverer recovers the signing address from a digest and a
// 65-byte recoverable signature. The ethbridge package provides the
// secp256k1 implementation; fhe itself stays free of go-ethereum.
type SignatureRecoverer interface {
	RecoverSigner(digest types.Hash, sig []byte) (types.Address, error)
}

// DecryptionGrant is the time-boxed authorization a subscriber signs to
// request decryption of specific ciphertext handles. The gateway accepts a
// grant only when the signature recovers Grantee, the validity window
// covers "now", and every requested handle is listed.
type DecryptionGrant struct {
	Grantee   types.Address
	Handles   []types.Hash
	IssuedAt  uint64
	ExpiresAt uint64
	Signature []byte
}

// Digest returns the keccak digest the grantee signs: the domain tag, the
// grantee, the validity window and the covered handles in order.
func (g *DecryptionGrant) Digest() types.Hash {
	parts := make([][]byte, 0, 4+len(g.Handles))
	parts = append(parts, grantDomainTag, g.Grantee.Bytes(), u64be(g.IssuedAt), u64be(g.ExpiresAt))
	for _, h := range g.Handles {
		parts = append(parts, h.Bytes())
	}
	return crypto.Keccak256Hash(parts...)
}

// Covers reports whether the grant lists the given handle.
func (g *DecryptionGrant) Covers(h types.Hash) bool {
	for _, gh := range g.Handles {
		if gh == h {
			return true
		}
	}
	return false
}

// Verify checks the grant's validity window and signature at the given
// time.
func (g *DecryptionGrant) Verify(now uint64, rec SignatureRecoverer) error {
	if now < g.IssuedAt {
		return ErrGrantNotYetValid
	}
	if now >= g.ExpiresAt {
		return ErrGrantExpired
	}
	signer, err := rec.RecoverSigner(g.Digest(), g.Signature)
	if err != nil || signer != g.Grantee {
		return ErrGrantSignature
	}
	return nil
}

func u64be(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (56 - 8*i))
	}
	return b
}
