// Package fhe models the encrypted value primitive the registry folds
// signals with: an opaque ciphertext handle plus the homomorphic algebra
// (addition, scalar multiplication, division by a running weight total)
// delegated to an Engine backend. Two backends are provided: SimEngine, a
// deterministic in-memory coprocessor for tests and mock-mode nodes, and
// PaillierEngine, a real additively-homomorphic backend. The registry never
// branches on plaintext; only a Decryptor with key material can open a
// handle, and only when the gateway has checked a decryption grant.
package fhe

import (
	"errors"

	"github.com/sigstream/sigstream/core/types"
)

var (
	ErrInvalidProof     = errors.New("fhe: input proof does not bind ciphertext to contract and user")
	ErrMalformedInput   = errors.New("fhe: malformed ciphertext")
	ErrUnknownHandle    = errors.New("fhe: unknown ciphertext handle")
	ErrDivisionByZero   = errors.New("fhe: scalar division by zero")
	ErrZeroScalar       = errors.New("fhe: scalar multiplication by zero weight")
	ErrDivisorMismatch  = errors.New("fhe: cannot add ciphertexts with different divisors")
	ErrNoPrivateKey     = errors.New("fhe: engine holds no decryption key")
	ErrGrantExpired     = errors.New("fhe: decryption grant expired")
	ErrGrantScope       = errors.New("fhe: handle not covered by decryption grant")
	ErrGrantSignature   = errors.New("fhe: decryption grant signature invalid")
	ErrGrantNotYetValid = errors.New("fhe: decryption grant not yet valid")
)

// Ciphertext is an opaque handle to an encrypted value held by an Engine.
type Ciphertext struct {
	Handle types.Hash
}

// IsZero reports whether the ciphertext is the uninitialized handle.
func (c Ciphertext) IsZero() bool { return c.Handle.IsZero() }

// EncryptedInput is a client-produced ciphertext plus the proof binding it
// to a (contract, user) pair. The registry forwards it untouched to the
// engine for verification.
type EncryptedInput struct {
	Ciphertext []byte
	Proof      []byte
}

// Domain is the advisory value range a topic declares. Real backends cannot
// inspect plaintext and enforce the range at client-side proof generation;
// the simulated backend clamps out-of-range inputs to Default at
// verification time, matching the application-layer convention.
type Domain struct {
	Min     uint8
	Max     uint8
	Default uint8
}

// Contains reports whether v falls within the domain.
func (d Domain) Contains(v uint64) bool {
	return v >= uint64(d.Min) && v <= uint64(d.Max)
}

// Engine is the homomorphic capability the registry computes with. All
// operations are total over handles previously issued by the same engine;
// unknown handles fail with ErrUnknownHandle.
type Engine interface {
	// TrivialEncrypt produces a ciphertext of a public value, used to
	// initialize running aggregates to Enc(0).
	TrivialEncrypt(v uint64) Ciphertext

	// VerifyInput checks the proof binds input to (contract, user) and
	// admits the ciphertext into the engine, returning its handle.
	VerifyInput(input EncryptedInput, contract, user types.Address, domain Domain) (Ciphertext, error)

	// Add returns Enc(a + b).
	Add(a, b Ciphertext) (Ciphertext, error)

	// ScalarMul returns Enc(a * w) for a plaintext weight w > 0.
	ScalarMul(a Ciphertext, w uint64) (Ciphertext, error)

	// ScalarDiv returns Enc(a / w) for a plaintext divisor w > 0.
	ScalarDiv(a Ciphertext, w uint64) (Ciphertext, error)
}

// Decryptor opens ciphertext handles. Only gateway-side components holding
// key material implement it; grant checking happens before any call.
type Decryptor interface {
	Decrypt(c Ciphertext) (uint64, error)
}
