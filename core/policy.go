package core

import "github.com/sigstream/sigstream/core/types"

// Capability tags the role a caller proved for an entry point. The same
// three checks gate every mutation, so they live here instead of being
// restated inline at each call site.
type Capability uint8

const (
	CapNone Capability = iota
	CapOwner
	CapSubmitter
	CapSubscriber
)

// Authorization is the tagged result of a policy check.
type Authorization struct {
	Capability Capability
	Weight     uint64 // set for CapSubmitter
	TokenID    uint64 // set for CapSubscriber
}

// authorizeOwner requires caller to own the channel. Lock held by caller.
func (r *Registry) authorizeOwner(ch *types.Channel, caller types.Address) (Authorization, error) {
	if ch.Owner != caller {
		return Authorization{}, ErrNotChannelOwner
	}
	return Authorization{Capability: CapOwner}, nil
}

// authorizeSubmitter requires caller to hold a weight-bearing allowlist
// entry on the channel. Lock held by caller.
func (r *Registry) authorizeSubmitter(channelID uint64, caller types.Address) (Authorization, error) {
	al, ok := r.allowlists[channelID]
	if !ok {
		return Authorization{}, ErrNotInAllowlist
	}
	entry, ok := al.entries[caller]
	if !ok || !entry.Exists || entry.Weight == 0 {
		return Authorization{}, ErrNotInAllowlist
	}
	return Authorization{Capability: CapSubmitter, Weight: entry.Weight}, nil
}

// authorizeSubscriber requires caller to own tokenID on the channel's
// credential contract with a validity window covering now. An expired or
// foreign credential is indistinguishable from non-ownership by design.
// Lock held by caller.
func (r *Registry) authorizeSubscriber(channelID uint64, caller types.Address, tokenID, now uint64) (Authorization, error) {
	contract, ok := r.factory.ByChannel(channelID)
	if !ok {
		return Authorization{}, ErrNotSubscriptionOwner
	}
	owner, err := contract.OwnerOf(tokenID)
	if err != nil || owner != caller {
		return Authorization{}, ErrNotSubscriptionOwner
	}
	if !contract.IsValid(tokenID, now) {
		return Authorization{}, ErrNotSubscriptionOwner
	}
	return Authorization{Capability: CapSubscriber, TokenID: tokenID}, nil
}
