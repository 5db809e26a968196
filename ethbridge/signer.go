package ethbridge

import (
	"crypto/ecdsa"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/sigstream/sigstream/core/types"
)

// Wallet wraps a secp256k1 private key for signing decryption-grant
// digests.
type Wallet struct {
	key *ecdsa.PrivateKey
}

// NewWallet generates a fresh keypair.
func NewWallet() (*Wallet, error) {
	key, err := gethcrypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &Wallet{key: key}, nil
}

// WalletFromKey wraps an existing private key.
func WalletFromKey(key *ecdsa.PrivateKey) (*Wallet, error) {
	if key == nil {
		return nil, ErrNilKey
	}
	return &Wallet{key: key}, nil
}

// Address returns the wallet's account address.
func (w *Wallet) Address() types.Address {
	return FromGethAddress(gethcrypto.PubkeyToAddress(w.key.PublicKey))
}

// Sign produces a 65-byte recoverable signature over the digest.
func (w *Wallet) Sign(digest types.Hash) ([]byte, error) {
	return gethcrypto.Sign(digest.Bytes(), w.key)
}

// Recoverer implements signature recovery over 65-byte recoverable
// signatures. It satisfies fhe.SignatureRecoverer.
type Recoverer struct{}

// RecoverSigner recovers the address that produced sig over digest.
func (Recoverer) RecoverSigner(digest types.Hash, sig []byte) (types.Address, error) {
	if len(sig) != 65 {
		return types.Address{}, ErrBadSignature
	}
	pub, err := gethcrypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return types.Address{}, err
	}
	return FromGethAddress(gethcrypto.PubkeyToAddress(*pub)), nil
}
