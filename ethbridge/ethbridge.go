// Package ethbridge is the adapter between sigstream's type system and
// go-ethereum. It is the only package that imports go-ethereum directly;
// everything else works with sigstream/core/types. The bridge provides
// address/hash conversion and secp256k1 signing and recovery for
// decryption grants.
package ethbridge

import (
	"errors"

	gethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/sigstream/sigstream/core/types"
)

var (
	ErrNilKey       = errors.New("ethbridge: nil private key")
	ErrBadSignature = errors.New("ethbridge: signature must be 65 bytes")
)

// ToGethAddress converts a sigstream Address to a go-ethereum Address.
// The layouts are identical.
func ToGethAddress(a types.Address) gethcommon.Address {
	return gethcommon.Address(a)
}

// FromGethAddress converts a go-ethereum Address to a sigstream Address.
func FromGethAddress(a gethcommon.Address) types.Address {
	return types.Address(a)
}

// ToGethHash converts a sigstream Hash to a go-ethereum Hash.
func ToGethHash(h types.Hash) gethcommon.Hash {
	return gethcommon.Hash(h)
}

// FromGethHash converts a go-ethereum Hash to a sigstream Hash.
func FromGethHash(h gethcommon.Hash) types.Hash {
	return types.Hash(h)
}
