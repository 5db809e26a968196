package core

import "errors"

// Every entry-point failure is a distinct named error so callers (and the
// rpc layer) can branch on exact cause. The taxonomy follows the registry's
// precondition checks: not-found, authorization, temporal, state-conflict
// and input-validation. A failing precondition reverts the whole call; no
// partial state is ever committed.
var (
	// Not-found.
	ErrChannelNotFound = errors.New("core: channel not found")
	ErrTopicNotFound   = errors.New("core: topic not found")
	ErrSignalNotFound  = errors.New("core: signal not found")
	ErrTierNotFound    = errors.New("core: tier not found on channel")

	// Authorization.
	ErrNotChannelOwner      = errors.New("core: caller is not the channel owner")
	ErrNotInAllowlist       = errors.New("core: caller is not in the channel allowlist")
	ErrNotSubscriptionOwner = errors.New("core: caller does not hold a valid subscription token")

	// Temporal.
	ErrInvalidEndDate = errors.New("core: topic end date must be in the future")
	ErrTopicExpired   = errors.New("core: topic no longer accepts submissions")

	// State-conflict.
	ErrAlreadySubmitted = errors.New("core: signal already submitted for this topic")
	ErrAlreadyAccessed  = errors.New("core: topic result already accessed")

	// Input-validation.
	ErrArrayLengthMismatch  = errors.New("core: users and weights length mismatch")
	ErrEmptyArray           = errors.New("core: empty batch")
	ErrArrayTooLarge        = errors.New("core: batch exceeds maximum size")
	ErrZeroWeight           = errors.New("core: allowlist weight must be positive")
	ErrInvalidValueRange    = errors.New("core: topic value range is invalid")
	ErrInvalidTier          = errors.New("core: unknown duration class")
	ErrIncorrectPayment     = errors.New("core: payment does not match tier price")
	ErrTopicChannelMismatch = errors.New("core: topic does not belong to channel")
	ErrInsufficientFunds    = errors.New("core: insufficient balance for transfer")
)
