package fhe

import (
	"encoding/binary"
	"sync"

	"github.com/sigstream/sigstream/core/types"
	"github.com/sigstream/sigstream/crypto"
)

// Domain separation tags for simulated handle derivation.
var (
	simTagTrivial = []byte("sim/trivial")
	simTagInput   = []byte("sim/input")
	simTagAdd     = []byte("sim/add")
	simTagMul     = []byte("sim/mul")
	simTagDiv     = []byte("sim/div")
)

// simCiphertextLen is salt (24 bytes) plus a big-endian uint64 value.
const simCiphertextLen = 32

// SimEngine is a deterministic in-memory coprocessor: every handle maps to
// a tracked plaintext and operations compute on those plaintexts directly.
// It exists for tests and mock-mode nodes; nothing outside the engine can
// read the tracked values except through Decrypt.
type SimEngine struct {
	mu    sync.RWMutex
	plain map[types.Hash]uint64
}

// NewSimEngine creates an empty simulated engine.
func NewSimEngine() *SimEngine {
	return &SimEngine{plain: make(map[types.Hash]uint64)}
}

// SimEncrypt is the client-side half of the simulated scheme: it packs the
// value with a salt and derives the binding proof the engine checks in
// VerifyInput. Real deployments replace this with the external FHE library.
func SimEncrypt(value uint64, salt [24]byte, contract, user types.Address) EncryptedInput {
	ct := make([]byte, simCiphertextLen)
	copy(ct[:24], salt[:])
	binary.BigEndian.PutUint64(ct[24:], value)
	return EncryptedInput{
		Ciphertext: ct,
		Proof:      crypto.Keccak256(ct, contract.Bytes(), user.Bytes()),
	}
}

// TrivialEncrypt implements Engine.
func (e *SimEngine) TrivialEncrypt(v uint64) Ciphertext {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	h := crypto.Keccak256Hash(simTagTrivial, buf[:])
	e.mu.Lock()
	e.plain[h] = v
	e.mu.Unlock()
	return Ciphertext{Handle: h}
}

// VerifyInput implements Engine. The proof must equal
// keccak256(ciphertext || contract || user). Values outside the domain are
// clamped to the domain default, resolving the out-of-range convention at
// the verification step.
func (e *SimEngine) VerifyInput(input EncryptedInput, contract, user types.Address, domain Domain) (Ciphertext, error) {
	if len(input.Ciphertext) != simCiphertextLen {
		return Ciphertext{}, ErrMalformedInput
	}
	want := crypto.Keccak256(input.Ciphertext, contract.Bytes(), user.Bytes())
	if len(input.Proof) != len(want) {
		return Ciphertext{}, ErrInvalidProof
	}
	for i := range want {
		if input.Proof[i] != want[i] {
			return Ciphertext{}, ErrInvalidProof
		}
	}
	v := binary.BigEndian.Uint64(input.Ciphertext[24:])
	if !domain.Contains(v) {
		v = uint64(domain.Default)
	}
	h := crypto.Keccak256Hash(simTagInput, input.Ciphertext)
	e.mu.Lock()
	e.plain[h] = v
	e.mu.Unlock()
	return Ciphertext{Handle: h}, nil
}

// Add implements Engine.
func (e *SimEngine) Add(a, b Ciphertext) (Ciphertext, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	va, ok := e.plain[a.Handle]
	if !ok {
		return Ciphertext{}, ErrUnknownHandle
	}
	vb, ok := e.plain[b.Handle]
	if !ok {
		return Ciphertext{}, ErrUnknownHandle
	}
	h := crypto.Keccak256Hash(simTagAdd, a.Handle.Bytes(), b.Handle.Bytes())
	e.plain[h] = va + vb
	return Ciphertext{Handle: h}, nil
}

// ScalarMul implements Engine.
func (e *SimEngine) ScalarMul(a Ciphertext, w uint64) (Ciphertext, error) {
	if w == 0 {
		return Ciphertext{}, ErrZeroScalar
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	va, ok := e.plain[a.Handle]
	if !ok {
		return Ciphertext{}, ErrUnknownHandle
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], w)
	h := crypto.Keccak256Hash(simTagMul, a.Handle.Bytes(), buf[:])
	e.plain[h] = va * w
	return Ciphertext{Handle: h}, nil
}

// ScalarDiv implements Engine. Division is integer division, matching the
// weighted-average fold where the divisor is the running weight total.
func (e *SimEngine) ScalarDiv(a Ciphertext, w uint64) (Ciphertext, error) {
	if w == 0 {
		return Ciphertext{}, ErrDivisionByZero
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	va, ok := e.plain[a.Handle]
	if !ok {
		return Ciphertext{}, ErrUnknownHandle
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], w)
	h := crypto.Keccak256Hash(simTagDiv, a.Handle.Bytes(), buf[:])
	e.plain[h] = va / w
	return Ciphertext{Handle: h}, nil
}

// Decrypt implements Decryptor.
func (e *SimEngine) Decrypt(c Ciphertext) (uint64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.plain[c.Handle]
	if !ok {
		return 0, ErrUnknownHandle
	}
	return v, nil
}
