package core

import "github.com/sigstream/sigstream/core/types"

// Allowlist mutations are owner-only and batched, capped at maxBatchSize
// entries per call. Removal clears the existence flag only: once a user's
// signal has been folded into a topic aggregate the contribution is
// permanent; aggregates are append-only and removal never unwinds them.

// BatchAddToAllowlist upserts (user, weight) pairs on the channel's
// allowlist. Existing entries get their weight overwritten in place; new
// entries are appended in call order. Emits one AllowlistUpdated event per
// processed entry.
func (r *Registry) BatchAddToAllowlist(tx TxContext, channelID uint64, users []types.Address, weights []uint64) error {
	if len(users) != len(weights) {
		return ErrArrayLengthMismatch
	}
	if len(users) == 0 {
		return ErrEmptyArray
	}
	if len(users) > maxBatchSize {
		return ErrArrayTooLarge
	}
	for _, w := range weights {
		if w == 0 {
			return ErrZeroWeight
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ch, err := r.channelByID(channelID)
	if err != nil {
		return err
	}
	if _, err := r.authorizeOwner(ch, tx.Caller); err != nil {
		return err
	}

	al := r.allowlists[channelID]
	for i, user := range users {
		entry, ok := al.entries[user]
		if !ok {
			entry = &types.AllowlistEntry{User: user}
			al.entries[user] = entry
			al.order = append(al.order, user)
		}
		if !entry.Exists {
			entry.Exists = true
		}
		entry.Weight = weights[i]
		r.emit(types.EventAllowlistUpdated, types.AllowlistUpdatedEvent{
			ChannelID: channelID,
			User:      user,
			Added:     true,
		})
	}
	r.logger.Debug("allowlist batch add", "channel", channelID, "entries", len(users))
	return nil
}

// BatchRemoveFromAllowlist clears the existence flag of each present
// entry. Absent users are skipped silently; the event is still emitted so
// indexers converge on the same final state.
func (r *Registry) BatchRemoveFromAllowlist(tx TxContext, channelID uint64, users []types.Address) error {
	if len(users) == 0 {
		return ErrEmptyArray
	}
	if len(users) > maxBatchSize {
		return ErrArrayTooLarge
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ch, err := r.channelByID(channelID)
	if err != nil {
		return err
	}
	if _, err := r.authorizeOwner(ch, tx.Caller); err != nil {
		return err
	}

	al := r.allowlists[channelID]
	for _, user := range users {
		if entry, ok := al.entries[user]; ok {
			entry.Exists = false
			entry.Weight = 0
		}
		r.emit(types.EventAllowlistUpdated, types.AllowlistUpdatedEvent{
			ChannelID: channelID,
			User:      user,
			Added:     false,
		})
	}
	r.logger.Debug("allowlist batch remove", "channel", channelID, "entries", len(users))
	return nil
}

// IsInAllowlist reports whether user holds a live allowlist entry.
func (r *Registry) IsInAllowlist(channelID uint64, user types.Address) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, err := r.channelByID(channelID); err != nil {
		return false, err
	}
	_, err := r.authorizeSubmitter(channelID, user)
	return err == nil, nil
}

// AllowlistWeight returns the live weight of user, zero if absent.
func (r *Registry) AllowlistWeight(channelID uint64, user types.Address) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, err := r.channelByID(channelID); err != nil {
		return 0, err
	}
	auth, err := r.authorizeSubmitter(channelID, user)
	if err != nil {
		return 0, nil
	}
	return auth.Weight, nil
}

// GetAllowlist returns every live entry in first-add order.
func (r *Registry) GetAllowlist(channelID uint64) ([]types.AllowlistEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, err := r.channelByID(channelID); err != nil {
		return nil, err
	}
	al := r.allowlists[channelID]
	out := make([]types.AllowlistEntry, 0, len(al.order))
	for _, user := range al.order {
		if entry := al.entries[user]; entry.Exists {
			out = append(out, *entry)
		}
	}
	return out, nil
}

// GetAllowlistPaginated returns a window of live entries plus the total
// live count. An offset beyond the end yields an empty slice, not an
// error.
func (r *Registry) GetAllowlistPaginated(channelID uint64, offset, limit uint64) ([]types.AllowlistEntry, uint64, error) {
	all, err := r.GetAllowlist(channelID)
	if err != nil {
		return nil, 0, err
	}
	total := uint64(len(all))
	if offset >= total {
		return []types.AllowlistEntry{}, total, nil
	}
	// limit can be anything the caller sends, so offset+limit must not be
	// computed directly: it overflows for large limits.
	end := total
	if limit < total-offset {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

// GetAllowlistCount returns the number of live entries.
func (r *Registry) GetAllowlistCount(channelID uint64) (uint64, error) {
	all, err := r.GetAllowlist(channelID)
	if err != nil {
		return 0, err
	}
	return uint64(len(all)), nil
}
