// Package crypto provides the hashing helpers shared by the registry, the
// credential factory and the FHE handle scheme.
package crypto

import (
	"golang.org/x/crypto/sha3"

	"github.com/sigstream/sigstream/core/types"
)

// Keccak256 computes the Keccak-256 hash of the concatenation of data.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash computes Keccak-256 and returns it as a types.Hash.
func Keccak256Hash(data ...[]byte) types.Hash {
	return types.BytesToHash(Keccak256(data...))
}

// DeriveAddress derives a deterministic contract address from a deployer
// address and a nonce, the way CREATE does: the low 20 bytes of
// keccak256(deployer || nonce).
func DeriveAddress(deployer types.Address, nonce uint64) types.Address {
	var n [8]byte
	for i := 0; i < 8; i++ {
		n[i] = byte(nonce >> (56 - 8*i))
	}
	return types.BytesToAddress(Keccak256(deployer.Bytes(), n[:]))
}
