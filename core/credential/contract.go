// Package credential implements the per-channel subscription credential:
// a non-fungible, time-limited token contract minted on payment, plus the
// factory that deploys exactly one contract per channel. Tokens are
// transferable, but access validity stays time-based.
package credential

import (
	"errors"
	"sort"
	"sync"

	"github.com/sigstream/sigstream/core/types"
)

var (
	ErrTokenNotFound = errors.New("credential: token not found")
	ErrNotTokenOwner = errors.New("credential: caller does not own token")
	ErrZeroAddress   = errors.New("credential: zero address")
)

// Contract is one channel's credential token space. Token ids are
// sequential starting at 1 and tokens are never destroyed; they only
// expire.
type Contract struct {
	mu        sync.RWMutex
	addr      types.Address
	channelID uint64
	nextToken uint64
	tokens    map[uint64]*types.Subscription
	owners    map[uint64]types.Address
}

func newContract(addr types.Address, channelID uint64) *Contract {
	return &Contract{
		addr:      addr,
		channelID: channelID,
		tokens:    make(map[uint64]*types.Subscription),
		owners:    make(map[uint64]types.Address),
	}
}

// Address returns the contract's derived address.
func (c *Contract) Address() types.Address { return c.addr }

// ChannelID returns the owning channel.
func (c *Contract) ChannelID() uint64 { return c.channelID }

// Mint creates a new credential for to, valid for the tier's duration from
// now. Returns the new token id.
func (c *Contract) Mint(to types.Address, tier types.DurationClass, now uint64) (uint64, error) {
	if to.IsZero() {
		return 0, ErrZeroAddress
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextToken++
	id := c.nextToken
	c.tokens[id] = &types.Subscription{
		TokenID:    id,
		ChannelID:  c.channelID,
		ExpiresAt:  now + tier.Seconds(),
		Tier:       tier,
		Subscriber: to,
		MintedAt:   now,
	}
	c.owners[id] = to
	return id, nil
}

// OwnerOf returns the current owner of the token.
func (c *Contract) OwnerOf(tokenID uint64) (types.Address, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	owner, ok := c.owners[tokenID]
	if !ok {
		return types.Address{}, ErrTokenNotFound
	}
	return owner, nil
}

// TransferFrom moves a token between accounts. Standard non-fungible
// transfer semantics: the caller must be the current owner. Expiry is
// unaffected.
func (c *Contract) TransferFrom(caller, to types.Address, tokenID uint64) error {
	if to.IsZero() {
		return ErrZeroAddress
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	owner, ok := c.owners[tokenID]
	if !ok {
		return ErrTokenNotFound
	}
	if owner != caller {
		return ErrNotTokenOwner
	}
	c.owners[tokenID] = to
	return nil
}

// Get returns a copy of the token's subscription record.
func (c *Contract) Get(tokenID uint64) (types.Subscription, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sub, ok := c.tokens[tokenID]
	if !ok {
		return types.Subscription{}, ErrTokenNotFound
	}
	return *sub, nil
}

// IsValid reports whether the token exists and its validity window covers
// now.
func (c *Contract) IsValid(tokenID uint64, now uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sub, ok := c.tokens[tokenID]
	return ok && sub.Valid(now)
}

// TokensOf returns all token ids currently owned by owner, ascending.
func (c *Contract) TokensOf(owner types.Address) []uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var ids []uint64
	for id, o := range c.owners {
		if o == owner {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ValidTokensOf returns owner's tokens whose validity covers now,
// ascending.
func (c *Contract) ValidTokensOf(owner types.Address, now uint64) []uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var ids []uint64
	for id, o := range c.owners {
		if o == owner && c.tokens[id].Valid(now) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// TotalSupply returns the number of tokens ever minted.
func (c *Contract) TotalSupply() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nextToken
}
