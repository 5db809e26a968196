package credential

import (
	"errors"
	"sync"

	"github.com/sigstream/sigstream/core/types"
	"github.com/sigstream/sigstream/crypto"
)

var ErrAlreadyDeployed = errors.New("credential: contract already deployed for channel")

// Factory deploys one credential contract per channel and keeps the
// channel to contract mapping. Contract addresses are derived from the
// factory's own address and a deployment nonce, so every channel gets a
// distinct token-id space.
type Factory struct {
	mu       sync.RWMutex
	deployer types.Address
	nonce    uint64
	byChan   map[uint64]*Contract
	byAddr   map[types.Address]*Contract
}

// NewFactory creates a factory anchored at the deployer address.
func NewFactory(deployer types.Address) *Factory {
	return &Factory{
		deployer: deployer,
		byChan:   make(map[uint64]*Contract),
		byAddr:   make(map[types.Address]*Contract),
	}
}

// Deploy creates and registers the credential contract for channelID.
// A channel gets exactly one contract, ever.
func (f *Factory) Deploy(channelID uint64) (*Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byChan[channelID]; ok {
		return nil, ErrAlreadyDeployed
	}
	f.nonce++
	c := newContract(crypto.DeriveAddress(f.deployer, f.nonce), channelID)
	f.byChan[channelID] = c
	f.byAddr[c.Address()] = c
	return c, nil
}

// ByChannel returns the channel's contract, if deployed.
func (f *Factory) ByChannel(channelID uint64) (*Contract, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	c, ok := f.byChan[channelID]
	return c, ok
}

// ByAddress returns the contract deployed at addr, if any.
func (f *Factory) ByAddress(addr types.Address) (*Contract, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	c, ok := f.byAddr[addr]
	return c, ok
}

// Contracts returns every deployed contract, in no particular order.
func (f *Factory) Contracts() []*Contract {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*Contract, 0, len(f.byChan))
	for _, c := range f.byChan {
		out = append(out, c)
	}
	return out
}
