//go:build blst

// Native BLS12-381 share verifier using the supranational/blst library.
//
// Committee members sign the request digest with the "MinPk" scheme:
// public keys are 48-byte compressed G1 points, shares are 96-byte
// compressed G2 signatures.
//
// Build with: go build -tags blst

package gateway

import (
	"errors"

	blst "github.com/supranational/blst/bindings/go"
)

// blstDST is the domain separation tag for committee decryption shares.
var blstDST = []byte("SIGSTREAM_SHARE_BLS12381G2_XMD:SHA-256_SSWU_RO_")

const (
	blstPubkeySize = 48 // compressed G1
	blstShareSize  = 96 // compressed G2
	blstSecretSize = 32 // scalar field element
)

var (
	ErrBlstInvalidIKM       = errors.New("gateway: IKM must be at least 32 bytes")
	ErrBlstKeyGenFailed     = errors.New("gateway: blst key generation failed")
	ErrBlstInvalidSecretKey = errors.New("gateway: invalid blst secret key bytes")
	ErrBlstSignFailed       = errors.New("gateway: blst signing failed")
)

// defaultShareVerifier selects the verifier used when Config.Verifier is
// unset. Under the blst build tag committee shares are real BLS
// signatures.
func defaultShareVerifier() ShareVerifier {
	return BlstShareVerifier{}
}

// BlstShareVerifier implements ShareVerifier over real BLS signatures.
type BlstShareVerifier struct{}

func (BlstShareVerifier) Name() string { return "blst" }

func (BlstShareVerifier) Verify(member, digest, share []byte) bool {
	if len(member) != blstPubkeySize || len(share) != blstShareSize {
		return false
	}
	pk := new(blst.P1Affine).Uncompress(member)
	if pk == nil {
		return false
	}
	sig := new(blst.P2Affine).Uncompress(share)
	if sig == nil {
		return false
	}
	return sig.Verify(true, pk, true, digest, blstDST)
}

// BlstShareKeyGen derives a committee member keypair from input key
// material of at least 32 bytes. It returns the compressed public key
// registered in the committee and the serialized secret key the member
// signs shares with.
func BlstShareKeyGen(ikm []byte) (pubkey, secretKey []byte, err error) {
	if len(ikm) < 32 {
		return nil, nil, ErrBlstInvalidIKM
	}
	sk := blst.KeyGen(ikm)
	if sk == nil {
		return nil, nil, ErrBlstKeyGenFailed
	}
	pk := new(blst.P1Affine).From(sk)
	return pk.Compress(), sk.Serialize(), nil
}

// BlstSignShare produces a member's share over the request digest.
func BlstSignShare(secretKey, digest []byte) ([]byte, error) {
	if len(secretKey) != blstSecretSize {
		return nil, ErrBlstInvalidSecretKey
	}
	sk := new(blst.SecretKey).Deserialize(secretKey)
	if sk == nil {
		return nil, ErrBlstInvalidSecretKey
	}
	sig := new(blst.P2Affine).Sign(sk, digest, blstDST)
	if sig == nil {
		return nil, ErrBlstSignFailed
	}
	return sig.Compress(), nil
}
