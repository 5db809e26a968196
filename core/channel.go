package core

import (
	"github.com/holiman/uint256"

	"github.com/sigstream/sigstream/core/types"
	"github.com/sigstream/sigstream/metrics"
)

// TierSpec is the caller-facing tier description for CreateChannel.
type TierSpec struct {
	Class types.DurationClass
	Price *uint256.Int
}

// CreateChannel registers a new channel owned by the caller, deploys its
// credential contract and assigns the next sequential channel id. An empty
// tier list is permitted; such a channel cannot be subscribed to until it
// is recreated with tiers.
func (r *Registry) CreateChannel(tx TxContext, infoPointer string, tiers []TierSpec) (uint64, error) {
	for _, t := range tiers {
		if !t.Class.Valid() {
			return 0, ErrInvalidTier
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextChannel++
	id := r.nextChannel

	contract, err := r.factory.Deploy(id)
	if err != nil {
		// Ids are never reused, so a collision here means corrupted state.
		r.nextChannel--
		return 0, err
	}

	ch := &types.Channel{
		ID:          id,
		InfoPointer: infoPointer,
		Owner:       tx.Caller,
		Credential:  contract.Address(),
		CreatedAt:   tx.Time,
	}
	for _, t := range tiers {
		price := new(uint256.Int)
		if t.Price != nil {
			price.Set(t.Price)
		}
		ch.Tiers = append(ch.Tiers, types.Tier{Class: t.Class, Price: price})
	}
	r.channels[id] = ch
	r.allowlists[id] = newAllowlist()

	metrics.ChannelsCreated.Inc()
	r.logger.Info("channel created", "channel", id, "owner", tx.Caller, "tiers", len(tiers))
	r.emit(types.EventChannelCreated, types.ChannelCreatedEvent{
		ChannelID:   id,
		Owner:       tx.Caller,
		InfoPointer: infoPointer,
	})
	return id, nil
}

// GetChannel returns a snapshot of the channel.
func (r *Registry) GetChannel(id uint64) (types.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, err := r.channelByID(id)
	if err != nil {
		return types.Channel{}, err
	}
	return copyChannel(ch), nil
}

// ChannelCount returns the number of channels ever created.
func (r *Registry) ChannelCount() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nextChannel
}

// TierPrice returns the price of the first tier with the given class on
// the channel.
func (r *Registry) TierPrice(channelID uint64, class types.DurationClass) (*uint256.Int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, err := r.channelByID(channelID)
	if err != nil {
		return nil, err
	}
	tier, ok := ch.TierByClass(class)
	if !ok {
		return nil, ErrTierNotFound
	}
	return new(uint256.Int).Set(tier.Price), nil
}

// copyChannel deep-copies a channel so snapshots cannot alias registry
// state.
func copyChannel(ch *types.Channel) types.Channel {
	out := *ch
	out.Tiers = make([]types.Tier, len(ch.Tiers))
	for i, t := range ch.Tiers {
		out.Tiers[i] = types.Tier{Class: t.Class, Price: new(uint256.Int).Set(t.Price), Subscribers: t.Subscribers}
	}
	out.TopicIDs = append([]uint64(nil), ch.TopicIDs...)
	return out
}
