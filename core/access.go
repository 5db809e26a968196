package core

import "github.com/sigstream/sigstream/core/types"

// The access gate is a one-way flag per (topic, user): NoAccess to
// Accessed via AccessTopicResult, back to NoAccess only through the
// channel owner's ResetTopicAccess. The Accessed transition is the
// authorization event off-chain clients present to the decryption gateway;
// decryption covers the topic's aggregate only, never individual signals.

// AccessTopicResult authorizes the caller to request decryption of the
// topic's encrypted average. The caller must hold a valid credential on
// the topic's channel and may pass the gate once per reset cycle.
func (r *Registry) AccessTopicResult(tx TxContext, channelID, topicID, tokenID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.channelByID(channelID); err != nil {
		return err
	}
	top, err := r.topicByID(topicID)
	if err != nil {
		return err
	}
	if top.ChannelID != channelID {
		return ErrTopicChannelMismatch
	}
	if _, err := r.authorizeSubscriber(channelID, tx.Caller, tokenID, tx.Time); err != nil {
		return err
	}
	key := userKey{topic: topicID, user: tx.Caller}
	if r.accessed[key] {
		return ErrAlreadyAccessed
	}

	r.accessed[key] = true
	r.logger.Info("topic result accessed", "topic", topicID, "caller", tx.Caller, "token", tokenID)
	r.emit(types.EventTopicResultAccessed, types.TopicResultAccessedEvent{
		TopicID: topicID,
		Caller:  tx.Caller,
		TokenID: tokenID,
	})
	return nil
}

// ResetTopicAccess clears a user's access flag, re-arming the gate. Only
// the owner of the topic's channel may reset, e.g. after a credential
// renewal.
func (r *Registry) ResetTopicAccess(tx TxContext, topicID uint64, user types.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	top, err := r.topicByID(topicID)
	if err != nil {
		return err
	}
	ch, err := r.channelByID(top.ChannelID)
	if err != nil {
		return err
	}
	if _, err := r.authorizeOwner(ch, tx.Caller); err != nil {
		return err
	}

	delete(r.accessed, userKey{topic: topicID, user: user})
	r.logger.Debug("topic access reset", "topic", topicID, "user", user)
	r.emit(types.EventTopicAccessReset, types.TopicAccessResetEvent{
		TopicID: topicID,
		User:    user,
	})
	return nil
}

// HasAccessedTopic reports whether the user's access flag is set.
func (r *Registry) HasAccessedTopic(topicID uint64, user types.Address) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, err := r.topicByID(topicID); err != nil {
		return false, err
	}
	return r.accessed[userKey{topic: topicID, user: user}], nil
}
