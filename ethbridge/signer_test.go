package ethbridge

import (
	"errors"
	"testing"

	"github.com/sigstream/sigstream/core/types"
	"github.com/sigstream/sigstream/crypto"
)

func TestSignAndRecover(t *testing.T) {
	w, err := NewWallet()
	if err != nil {
		t.Fatal(err)
	}
	digest := crypto.Keccak256Hash([]byte("payload"))
	sig, err := w.Sign(digest)
	if err != nil {
		t.Fatal(err)
	}
	if len(sig) != 65 {
		t.Fatalf("signature length %d, want 65", len(sig))
	}

	got, err := Recoverer{}.RecoverSigner(digest, sig)
	if err != nil {
		t.Fatal(err)
	}
	if got != w.Address() {
		t.Fatalf("recovered %s, want %s", got, w.Address())
	}

	// A different digest must not recover the same signer.
	other, err := Recoverer{}.RecoverSigner(crypto.Keccak256Hash([]byte("other")), sig)
	if err == nil && other == w.Address() {
		t.Fatal("signature must not verify against a different digest")
	}
}

func TestRecoverRejectsShortSignature(t *testing.T) {
	_, err := Recoverer{}.RecoverSigner(types.Hash{}, []byte{1, 2, 3})
	if !errors.Is(err, ErrBadSignature) {
		t.Fatalf("got %v, want ErrBadSignature", err)
	}
}

func TestAddressConversionRoundTrip(t *testing.T) {
	a := types.HexToAddress("0x00000000000000000000000000000000deadbeef")
	if FromGethAddress(ToGethAddress(a)) != a {
		t.Fatal("address round trip mismatch")
	}
	h := types.HexToHash("0x1234")
	if FromGethHash(ToGethHash(h)) != h {
		t.Fatal("hash round trip mismatch")
	}
}

func TestWalletFromKeyNil(t *testing.T) {
	if _, err := WalletFromKey(nil); !errors.Is(err, ErrNilKey) {
		t.Fatalf("got %v, want ErrNilKey", err)
	}
}
