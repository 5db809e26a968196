package core

import (
	"github.com/sigstream/sigstream/core/types"
	"github.com/sigstream/sigstream/metrics"
)

// Subscribe mints a subscription credential on the channel's NFT contract
// in exchange for the exact tier price. The payment moves to the channel
// owner before the mint; if the transfer fails nothing is minted and no
// counter moves.
func (r *Registry) Subscribe(tx TxContext, channelID uint64, class types.DurationClass) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, err := r.channelByID(channelID)
	if err != nil {
		return 0, err
	}
	tier, ok := ch.TierByClass(class)
	if !ok {
		return 0, ErrTierNotFound
	}
	if tx.Value == nil || !tx.Value.Eq(tier.Price) {
		return 0, ErrIncorrectPayment
	}

	contract, ok := r.factory.ByChannel(channelID)
	if !ok {
		// A channel always deploys its contract at creation.
		return 0, ErrChannelNotFound
	}

	if err := r.ledger.Transfer(tx.Caller, ch.Owner, tx.Value); err != nil {
		return 0, err
	}
	tokenID, err := contract.Mint(tx.Caller, class, tx.Time)
	if err != nil {
		// Undo the payment so the call stays all-or-nothing.
		_ = r.ledger.Transfer(ch.Owner, tx.Caller, tx.Value)
		return 0, err
	}
	tier.Subscribers++

	metrics.SubscriptionsMinted.Inc()
	r.logger.Info("subscription minted", "channel", channelID, "tier", class, "token", tokenID)
	r.emit(types.EventSubscribed, types.SubscribedEvent{
		ChannelID:  channelID,
		Subscriber: tx.Caller,
		Tier:       class,
		TokenID:    tokenID,
	})
	return tokenID, nil
}

// IsSubscriptionValid reports whether the token exists on the channel's
// credential contract and its validity window covers now.
func (r *Registry) IsSubscriptionValid(channelID, tokenID, now uint64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, err := r.channelByID(channelID); err != nil {
		return false, err
	}
	contract, ok := r.factory.ByChannel(channelID)
	if !ok {
		return false, ErrChannelNotFound
	}
	return contract.IsValid(tokenID, now), nil
}

// GetSubscription returns the token's subscription record.
func (r *Registry) GetSubscription(channelID, tokenID uint64) (types.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, err := r.channelByID(channelID); err != nil {
		return types.Subscription{}, err
	}
	contract, ok := r.factory.ByChannel(channelID)
	if !ok {
		return types.Subscription{}, ErrChannelNotFound
	}
	return contract.Get(tokenID)
}

// UserSubscription pairs a channel with one of the user's valid token ids.
type UserSubscription struct {
	ChannelID uint64
	TokenID   uint64
}

// GetUserValidSubscriptions enumerates, across all channels, the tokens
// owned by user whose validity covers now. Clients use it to find the
// credential proving entitlement to a channel.
func (r *Registry) GetUserValidSubscriptions(user types.Address, now uint64) []UserSubscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []UserSubscription
	for id := uint64(1); id <= r.nextChannel; id++ {
		contract, ok := r.factory.ByChannel(id)
		if !ok {
			continue
		}
		for _, tok := range contract.ValidTokensOf(user, now) {
			out = append(out, UserSubscription{ChannelID: id, TokenID: tok})
		}
	}
	return out
}
