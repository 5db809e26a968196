package gateway

import (
	"bytes"

	"github.com/sigstream/sigstream/crypto"
)

// ShareVerifier checks a committee member's decryption share against the
// request digest. Implementations may use native BLS12-381 verification
// or a simulated scheme for development networks.
type ShareVerifier interface {
	// Verify reports whether share is member's valid contribution for
	// the given digest. member is the member's public key bytes.
	Verify(member, digest, share []byte) bool

	// Name returns a human-readable name for the verifier.
	Name() string
}

// SimShareVerifier is the development verifier: a share is valid when it
// equals the keccak digest of the member key and the request digest. It
// provides no security and exists so the share collection flow can run
// without a BLS committee.
type SimShareVerifier struct{}

func (SimShareVerifier) Name() string { return "sim" }

func (SimShareVerifier) Verify(member, digest, share []byte) bool {
	if len(member) == 0 || len(digest) == 0 || len(share) == 0 {
		return false
	}
	want := crypto.Keccak256(member, digest)
	return bytes.Equal(share, want)
}

// SimShare builds the share SimShareVerifier accepts for a member and
// digest. Test and devnet helper.
func SimShare(member, digest []byte) []byte {
	return crypto.Keccak256(member, digest)
}
