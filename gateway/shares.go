package gateway

import (
	"errors"
	"sync"
)

var (
	ErrThresholdInvalid  = errors.New("gateway: threshold must be >= 1 and <= committee size")
	ErrEmptyCommittee    = errors.New("gateway: committee must not be empty")
	ErrUnknownMember     = errors.New("gateway: share from unknown committee member")
	ErrShareAlreadyAdded = errors.New("gateway: share already added for this member")
	ErrInvalidShareData  = errors.New("gateway: share data is nil or empty")
	ErrShareRejected     = errors.New("gateway: share verification failed")
	ErrThresholdNotMet   = errors.New("gateway: insufficient shares")
)

// Share is one committee member's contribution toward releasing a
// decryption, bound to a request digest.
type Share struct {
	MemberIndex int
	ShareBytes  []byte
}

// ShareCollector gathers t-of-n committee shares for one request digest.
// Shares are verified on submission; a request is releasable once the
// threshold is reached.
type ShareCollector struct {
	mu        sync.RWMutex
	committee [][]byte // member index -> public key bytes
	threshold int
	digest    []byte
	verifier  ShareVerifier
	shares    map[int]Share
}

// NewShareCollector creates a collector for the given request digest over
// a fixed committee.
func NewShareCollector(committee [][]byte, threshold int, digest []byte, verifier ShareVerifier) (*ShareCollector, error) {
	if len(committee) == 0 {
		return nil, ErrEmptyCommittee
	}
	if threshold < 1 || threshold > len(committee) {
		return nil, ErrThresholdInvalid
	}
	return &ShareCollector{
		committee: committee,
		threshold: threshold,
		digest:    append([]byte{}, digest...),
		verifier:  verifier,
		shares:    make(map[int]Share),
	}, nil
}

// AddShare verifies and records a member's share. It returns true once
// the threshold is reached.
func (sc *ShareCollector) AddShare(share Share) (bool, error) {
	if len(share.ShareBytes) == 0 {
		return false, ErrInvalidShareData
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if share.MemberIndex < 0 || share.MemberIndex >= len(sc.committee) {
		return false, ErrUnknownMember
	}
	if _, exists := sc.shares[share.MemberIndex]; exists {
		return false, ErrShareAlreadyAdded
	}
	if !sc.verifier.Verify(sc.committee[share.MemberIndex], sc.digest, share.ShareBytes) {
		return false, ErrShareRejected
	}

	sc.shares[share.MemberIndex] = share
	return len(sc.shares) >= sc.threshold, nil
}

// Ready reports whether the threshold has been reached.
func (sc *ShareCollector) Ready() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.shares) >= sc.threshold
}

// Count returns the number of accepted shares.
func (sc *ShareCollector) Count() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.shares)
}
