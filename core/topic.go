package core

import (
	"github.com/sigstream/sigstream/core/types"
	"github.com/sigstream/sigstream/fhe"
	"github.com/sigstream/sigstream/metrics"
)

// CreateTopic opens a new topic on the channel with a fixed value range
// and deadline. Any caller may create topics; the creator is recorded
// separately from the channel owner. The running aggregates start at
// Enc(0).
func (r *Registry) CreateTopic(tx TxContext, channelID uint64, infoPointer string, endDate uint64, minValue, maxValue, defaultValue uint8) (uint64, error) {
	if endDate <= tx.Time {
		return 0, ErrInvalidEndDate
	}
	if minValue > maxValue || defaultValue < minValue || defaultValue > maxValue {
		return 0, ErrInvalidValueRange
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ch, err := r.channelByID(channelID)
	if err != nil {
		return 0, err
	}

	zero := r.engine.TrivialEncrypt(0)

	r.nextTopic++
	id := r.nextTopic
	top := &types.Topic{
		ID:           id,
		ChannelID:    channelID,
		InfoPointer:  infoPointer,
		EndDate:      endDate,
		Creator:      tx.Caller,
		CreatedAt:    tx.Time,
		MinValue:     minValue,
		MaxValue:     maxValue,
		DefaultValue: defaultValue,
		EncSum:       zero.Handle,
		EncAverage:   zero.Handle,
	}
	r.topics[id] = top
	ch.TopicIDs = append(ch.TopicIDs, id)
	ch.LastPublished = tx.Time

	metrics.TopicsCreated.Inc()
	r.logger.Info("topic created", "topic", id, "channel", channelID, "endDate", endDate)
	r.emit(types.EventTopicCreated, types.TopicCreatedEvent{
		TopicID:   id,
		ChannelID: channelID,
		Creator:   tx.Caller,
		EndDate:   endDate,
	})
	return id, nil
}

// SubmitSignal folds an encrypted value into the topic's running weighted
// aggregate. The submitter must hold a live allowlist entry on the topic's
// channel, the topic must be live, and a submitter gets exactly one signal
// per topic, ever. The fold is
//
//	newSum = oldSum + value*weight
//	newAvg = newSum / newTotalWeight
//
// in ciphertext space; addition and scalar multiplication commute, so the
// final aggregate does not depend on submission order.
func (r *Registry) SubmitSignal(tx TxContext, topicID uint64, input fhe.EncryptedInput) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	top, err := r.topicByID(topicID)
	if err != nil {
		return 0, err
	}
	if top.Expired(tx.Time) {
		return 0, ErrTopicExpired
	}
	auth, err := r.authorizeSubmitter(top.ChannelID, tx.Caller)
	if err != nil {
		return 0, err
	}
	key := userKey{topic: topicID, user: tx.Caller}
	if r.submitted[key] {
		return 0, ErrAlreadySubmitted
	}

	// All engine work happens before the first registry write so a failing
	// operation reverts the call cleanly; handles minted for a failed fold
	// are unreachable and harmless.
	domain := fhe.Domain{Min: top.MinValue, Max: top.MaxValue, Default: top.DefaultValue}
	value, err := r.engine.VerifyInput(input, r.addr, tx.Caller, domain)
	if err != nil {
		return 0, err
	}
	weighted, err := r.engine.ScalarMul(value, auth.Weight)
	if err != nil {
		return 0, err
	}
	newSum, err := r.engine.Add(fhe.Ciphertext{Handle: top.EncSum}, weighted)
	if err != nil {
		return 0, err
	}
	newTotal := top.TotalWeight + auth.Weight
	newAvg, err := r.engine.ScalarDiv(newSum, newTotal)
	if err != nil {
		return 0, err
	}

	r.nextSignal++
	sig := &types.Signal{
		ID:          r.nextSignal,
		ChannelID:   top.ChannelID,
		TopicID:     topicID,
		Submitter:   tx.Caller,
		Value:       value.Handle,
		SubmittedAt: tx.Time,
	}
	r.signals[sig.ID] = sig
	r.submitted[key] = true
	top.EncSum = newSum.Handle
	top.EncAverage = newAvg.Handle
	top.TotalWeight = newTotal
	top.SubmissionCount++
	top.SignalIDs = append(top.SignalIDs, sig.ID)

	metrics.SignalsSubmitted.Inc()
	r.logger.Debug("signal submitted", "topic", topicID, "signal", sig.ID, "weight", auth.Weight)
	r.emit(types.EventSignalSubmitted, types.SignalSubmittedEvent{
		TopicID:   topicID,
		SignalID:  sig.ID,
		Submitter: tx.Caller,
	})
	r.emit(types.EventAverageUpdated, types.AverageUpdatedEvent{
		TopicID:  topicID,
		SignalID: sig.ID,
	})
	return sig.ID, nil
}

// GetTopic returns a snapshot of the topic.
func (r *Registry) GetTopic(id uint64) (types.Topic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	top, err := r.topicByID(id)
	if err != nil {
		return types.Topic{}, err
	}
	return copyTopic(top), nil
}

// GetChannelTopics returns the channel's topic ids in creation order.
func (r *Registry) GetChannelTopics(channelID uint64) ([]uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, err := r.channelByID(channelID)
	if err != nil {
		return nil, err
	}
	return append([]uint64(nil), ch.TopicIDs...), nil
}

// GetTopicsByIDs resolves a batch of topic ids; any unknown id fails the
// whole read.
func (r *Registry) GetTopicsByIDs(ids []uint64) ([]types.Topic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.Topic, 0, len(ids))
	for _, id := range ids {
		top, err := r.topicByID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, copyTopic(top))
	}
	return out, nil
}

// GetSignal returns a snapshot of one signal.
func (r *Registry) GetSignal(id uint64) (types.Signal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sig, ok := r.signals[id]
	if !ok {
		return types.Signal{}, ErrSignalNotFound
	}
	return *sig, nil
}

// GetTopicSignals returns the topic's signal ids in acceptance order.
func (r *Registry) GetTopicSignals(topicID uint64) ([]uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	top, err := r.topicByID(topicID)
	if err != nil {
		return nil, err
	}
	return append([]uint64(nil), top.SignalIDs...), nil
}

// GetTopicSignalCount returns the number of accepted signals.
func (r *Registry) GetTopicSignalCount(topicID uint64) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	top, err := r.topicByID(topicID)
	if err != nil {
		return 0, err
	}
	return top.SubmissionCount, nil
}

// HasSubmitted reports whether user already has a signal on the topic.
func (r *Registry) HasSubmitted(topicID uint64, user types.Address) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, err := r.topicByID(topicID); err != nil {
		return false, err
	}
	return r.submitted[userKey{topic: topicID, user: user}], nil
}

func copyTopic(top *types.Topic) types.Topic {
	out := *top
	out.SignalIDs = append([]uint64(nil), top.SignalIDs...)
	return out
}
