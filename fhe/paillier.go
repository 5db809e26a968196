package fhe

import (
	"crypto/rand"
	"errors"
	"math/big"
	"sync"

	"github.com/sigstream/sigstream/core/types"
	"github.com/sigstream/sigstream/crypto"
)

// Paillier is additively homomorphic: Enc(a)*Enc(b) mod n² decrypts to a+b
// and Enc(a)^w decrypts to a*w. Division by the running weight total cannot
// be done in ciphertext space, so the engine carries a plaintext divisor
// alongside each handle and applies exact integer division after
// decryption, the standard encrypted-average construction.

var (
	ErrPaillierKeySize   = errors.New("fhe: paillier modulus must be at least 512 bits")
	ErrPlaintextTooLarge = errors.New("fhe: decrypted value exceeds 64 bits")
	ErrCiphertextUnsound = errors.New("fhe: ciphertext fails paillier sanity checks")
	ErrDecryptNoOperand  = errors.New("fhe: nil ciphertext operand")
)

// Handle domain separation tags.
var (
	paiTagTrivial = []byte("paillier/trivial")
	paiTagInput   = []byte("paillier/input")
	paiTagAdd     = []byte("paillier/add")
	paiTagMul     = []byte("paillier/mul")
	paiTagDiv     = []byte("paillier/div")
)

var bigOne = big.NewInt(1)

// PaillierPublicKey holds the public modulus material: n, n² and g = n+1.
type PaillierPublicKey struct {
	N  *big.Int
	N2 *big.Int
	G  *big.Int
}

// PaillierKey is a full keypair. Lambda and Mu are the decryption values
// lambda = lcm(p-1, q-1) and mu = L(g^lambda mod n²)^-1 mod n.
type PaillierKey struct {
	PaillierPublicKey
	Lambda *big.Int
	Mu     *big.Int
}

// GeneratePaillierKey creates a keypair with an n of the given bit size.
func GeneratePaillierKey(bits int) (*PaillierKey, error) {
	if bits < 512 {
		return nil, ErrPaillierKeySize
	}
	p, err := rand.Prime(rand.Reader, bits/2)
	if err != nil {
		return nil, err
	}
	q, err := rand.Prime(rand.Reader, bits/2)
	if err != nil {
		return nil, err
	}
	for p.Cmp(q) == 0 {
		if q, err = rand.Prime(rand.Reader, bits/2); err != nil {
			return nil, err
		}
	}
	n := new(big.Int).Mul(p, q)
	n2 := new(big.Int).Mul(n, n)
	g := new(big.Int).Add(n, bigOne)

	pm1 := new(big.Int).Sub(p, bigOne)
	qm1 := new(big.Int).Sub(q, bigOne)
	gcd := new(big.Int).GCD(nil, nil, pm1, qm1)
	lambda := new(big.Int).Div(new(big.Int).Mul(pm1, qm1), gcd)

	// mu = L(g^lambda mod n²)^-1 mod n
	u := new(big.Int).Exp(g, lambda, n2)
	mu := new(big.Int).ModInverse(lFunc(u, n), n)
	if mu == nil {
		return nil, ErrCiphertextUnsound
	}
	return &PaillierKey{
		PaillierPublicKey: PaillierPublicKey{N: n, N2: n2, G: g},
		Lambda:            lambda,
		Mu:                mu,
	}, nil
}

// Public returns the public half of the keypair.
func (k *PaillierKey) Public() *PaillierPublicKey {
	return &PaillierPublicKey{N: k.N, N2: k.N2, G: k.G}
}

// Encrypt produces a fresh randomized ciphertext of value:
// c = g^m * r^n mod n² with a random r coprime to n.
func (pk *PaillierPublicKey) Encrypt(value uint64) (*big.Int, error) {
	m := new(big.Int).SetUint64(value)
	r, err := randomUnit(pk.N)
	if err != nil {
		return nil, err
	}
	c := new(big.Int).Exp(pk.G, m, pk.N2)
	rn := new(big.Int).Exp(r, pk.N, pk.N2)
	c.Mul(c, rn)
	return c.Mod(c, pk.N2), nil
}

// EncryptInput is the client-side submission helper: it encrypts value and
// derives the binding proof VerifyInput checks. Range constraint of the
// topic domain is the client's responsibility under this scheme.
func (pk *PaillierPublicKey) EncryptInput(value uint64, contract, user types.Address) (EncryptedInput, error) {
	c, err := pk.Encrypt(value)
	if err != nil {
		return EncryptedInput{}, err
	}
	ct := c.Bytes()
	return EncryptedInput{
		Ciphertext: ct,
		Proof:      crypto.Keccak256(ct, contract.Bytes(), user.Bytes(), pk.N.Bytes()),
	}, nil
}

// Decrypt recovers the plaintext of a raw ciphertext: L(c^lambda mod n²) * mu mod n.
func (k *PaillierKey) Decrypt(c *big.Int) (*big.Int, error) {
	if c == nil {
		return nil, ErrDecryptNoOperand
	}
	u := new(big.Int).Exp(c, k.Lambda, k.N2)
	m := lFunc(u, k.N)
	m.Mul(m, k.Mu)
	return m.Mod(m, k.N), nil
}

// lFunc is Paillier's L(x) = (x - 1) / n.
func lFunc(x, n *big.Int) *big.Int {
	r := new(big.Int).Sub(x, bigOne)
	return r.Div(r, n)
}

// randomUnit picks r in (1, n) with gcd(r, n) = 1.
func randomUnit(n *big.Int) (*big.Int, error) {
	for {
		r, err := rand.Int(rand.Reader, n)
		if err != nil {
			return nil, err
		}
		if r.Cmp(bigOne) <= 0 {
			continue
		}
		if new(big.Int).GCD(nil, nil, r, n).Cmp(bigOne) == 0 {
			return r, nil
		}
	}
}

type paillierEntry struct {
	c       *big.Int // ciphertext mod n²
	divisor uint64   // pending plaintext divisor, applied after decryption
}

// PaillierEngine implements Engine over Paillier ciphertexts. With a full
// keypair it also implements Decryptor; a public-key-only engine verifies
// and folds but cannot open handles.
type PaillierEngine struct {
	mu      sync.RWMutex
	pk      *PaillierPublicKey
	key     *PaillierKey // nil for public-only engines
	entries map[types.Hash]*paillierEntry
}

// NewPaillierEngine creates a public-only engine.
func NewPaillierEngine(pk *PaillierPublicKey) *PaillierEngine {
	return &PaillierEngine{pk: pk, entries: make(map[types.Hash]*paillierEntry)}
}

// NewPaillierDecryptEngine creates an engine holding the full keypair.
func NewPaillierDecryptEngine(key *PaillierKey) *PaillierEngine {
	return &PaillierEngine{pk: key.Public(), key: key, entries: make(map[types.Hash]*paillierEntry)}
}

func (e *PaillierEngine) store(tag []byte, c *big.Int, divisor uint64, extra ...[]byte) Ciphertext {
	var d [8]byte
	for i := 0; i < 8; i++ {
		d[i] = byte(divisor >> (56 - 8*i))
	}
	parts := append([][]byte{tag, c.Bytes(), d[:]}, extra...)
	h := crypto.Keccak256Hash(parts...)
	e.entries[h] = &paillierEntry{c: c, divisor: divisor}
	return Ciphertext{Handle: h}
}

// TrivialEncrypt implements Engine using the deterministic r = 1 form.
func (e *PaillierEngine) TrivialEncrypt(v uint64) Ciphertext {
	c := new(big.Int).Exp(e.pk.G, new(big.Int).SetUint64(v), e.pk.N2)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store(paiTagTrivial, c, 1)
}

// VerifyInput implements Engine. The ciphertext must pass the standard
// Paillier sanity checks (1 < c < n², gcd(c, n²) = 1) and the proof must
// bind it to (contract, user) under this engine's modulus. The domain is
// not inspectable here; range enforcement happens at client-side proof
// generation.
func (e *PaillierEngine) VerifyInput(input EncryptedInput, contract, user types.Address, _ Domain) (Ciphertext, error) {
	if len(input.Ciphertext) == 0 {
		return Ciphertext{}, ErrMalformedInput
	}
	c := new(big.Int).SetBytes(input.Ciphertext)
	if c.Cmp(bigOne) <= 0 || c.Cmp(e.pk.N2) >= 0 {
		return Ciphertext{}, ErrCiphertextUnsound
	}
	if new(big.Int).GCD(nil, nil, c, e.pk.N2).Cmp(bigOne) != 0 {
		return Ciphertext{}, ErrCiphertextUnsound
	}
	want := crypto.Keccak256(input.Ciphertext, contract.Bytes(), user.Bytes(), e.pk.N.Bytes())
	if !bytesEqual(input.Proof, want) {
		return Ciphertext{}, ErrInvalidProof
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store(paiTagInput, c, 1), nil
}

// Add implements Engine: ciphertext multiplication mod n². Operands must
// carry the same pending divisor.
func (e *PaillierEngine) Add(a, b Ciphertext) (Ciphertext, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ea, ok := e.entries[a.Handle]
	if !ok {
		return Ciphertext{}, ErrUnknownHandle
	}
	eb, ok := e.entries[b.Handle]
	if !ok {
		return Ciphertext{}, ErrUnknownHandle
	}
	if ea.divisor != eb.divisor {
		return Ciphertext{}, ErrDivisorMismatch
	}
	c := new(big.Int).Mul(ea.c, eb.c)
	c.Mod(c, e.pk.N2)
	return e.store(paiTagAdd, c, ea.divisor), nil
}

// ScalarMul implements Engine: modular exponentiation by the weight.
func (e *PaillierEngine) ScalarMul(a Ciphertext, w uint64) (Ciphertext, error) {
	if w == 0 {
		return Ciphertext{}, ErrZeroScalar
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	ea, ok := e.entries[a.Handle]
	if !ok {
		return Ciphertext{}, ErrUnknownHandle
	}
	c := new(big.Int).Exp(ea.c, new(big.Int).SetUint64(w), e.pk.N2)
	return e.store(paiTagMul, c, ea.divisor), nil
}

// ScalarDiv implements Engine by accumulating the divisor; the quotient is
// realized on decryption.
func (e *PaillierEngine) ScalarDiv(a Ciphertext, w uint64) (Ciphertext, error) {
	if w == 0 {
		return Ciphertext{}, ErrDivisionByZero
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	ea, ok := e.entries[a.Handle]
	if !ok {
		return Ciphertext{}, ErrUnknownHandle
	}
	return e.store(paiTagDiv, ea.c, ea.divisor*w), nil
}

// Decrypt implements Decryptor: Paillier decryption followed by integer
// division by the handle's pending divisor.
func (e *PaillierEngine) Decrypt(ct Ciphertext) (uint64, error) {
	e.mu.RLock()
	entry, ok := e.entries[ct.Handle]
	e.mu.RUnlock()
	if !ok {
		return 0, ErrUnknownHandle
	}
	if e.key == nil {
		return 0, ErrNoPrivateKey
	}
	m, err := e.key.Decrypt(entry.c)
	if err != nil {
		return 0, err
	}
	q := new(big.Int).Div(m, new(big.Int).SetUint64(entry.divisor))
	if !q.IsUint64() {
		return 0, ErrPlaintextTooLarge
	}
	return q.Uint64(), nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
