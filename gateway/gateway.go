// Package gateway implements the decryption gateway: the off-chain
// service that releases plaintext topic aggregates to entitled
// subscribers. A release needs three things to line up: a registry access
// flag set by the topic result gate, a signed decryption grant from the
// requesting user, and a threshold of committee shares over the request
// digest. Individual signals are never decrypted.
package gateway

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/sigstream/sigstream/core/types"
	"github.com/sigstream/sigstream/crypto"
	"github.com/sigstream/sigstream/fhe"
	"github.com/sigstream/sigstream/log"
	"github.com/sigstream/sigstream/metrics"
)

var (
	ErrNotEntitled    = errors.New("gateway: caller has not passed the topic access gate")
	ErrHandleMismatch = errors.New("gateway: grant does not cover the topic aggregate")
	ErrUnknownRequest = errors.New("gateway: unknown request")
	ErrNoDecryptor    = errors.New("gateway: no decryptor configured")
)

var requestDomainTag = []byte("sigstream/decrypt-request/v1")

// RegistryReader is the view of the registry the gateway needs.
type RegistryReader interface {
	GetTopic(id uint64) (types.Topic, error)
	HasAccessedTopic(topicID uint64, user types.Address) (bool, error)
}

// Config carries the gateway's committee and crypto backends.
type Config struct {
	// Committee holds the decryption committee's public keys, indexed by
	// member position.
	Committee [][]byte

	// Threshold is the number of shares required to release a result.
	Threshold int

	// Verifier checks committee shares. Defaults to SimShareVerifier.
	Verifier ShareVerifier

	// Recoverer recovers grant signers. Required.
	Recoverer fhe.SignatureRecoverer
}

// Gateway tracks in-flight decryption requests and releases results once
// their share thresholds are met. It is safe for concurrent use.
type Gateway struct {
	cfg      Config
	registry RegistryReader
	dec      fhe.Decryptor
	logger   *log.Logger

	mu      sync.Mutex
	pending map[types.Hash]*request
}

type request struct {
	topicID   uint64
	grantee   types.Address
	handle    types.Hash
	collector *ShareCollector
}

// New creates a gateway over the registry view and decryptor.
func New(cfg Config, registry RegistryReader, dec fhe.Decryptor) (*Gateway, error) {
	if len(cfg.Committee) == 0 {
		return nil, ErrEmptyCommittee
	}
	if cfg.Threshold < 1 || cfg.Threshold > len(cfg.Committee) {
		return nil, ErrThresholdInvalid
	}
	if cfg.Verifier == nil {
		cfg.Verifier = defaultShareVerifier()
	}
	if dec == nil {
		return nil, ErrNoDecryptor
	}
	g := &Gateway{
		cfg:      cfg,
		registry: registry,
		dec:      dec,
		logger:   log.Module("gateway"),
		pending:  make(map[types.Hash]*request),
	}
	g.logger.Info("gateway ready", "committee", len(cfg.Committee), "threshold", cfg.Threshold, "verifier", cfg.Verifier.Name())
	return g, nil
}

// RequestDecryption opens a decryption request for the topic's encrypted
// average. The grant must be live at now, signed by its grantee, and
// cover the aggregate handle; the grantee must have passed the topic's
// access gate. It returns the request id shares are submitted against.
func (g *Gateway) RequestDecryption(now uint64, topicID uint64, grant fhe.DecryptionGrant) (types.Hash, error) {
	top, err := g.registry.GetTopic(topicID)
	if err != nil {
		return types.Hash{}, err
	}
	if err := grant.Verify(now, g.cfg.Recoverer); err != nil {
		return types.Hash{}, err
	}
	if !grant.Covers(top.EncAverage) {
		return types.Hash{}, ErrHandleMismatch
	}
	ok, err := g.registry.HasAccessedTopic(topicID, grant.Grantee)
	if err != nil {
		return types.Hash{}, err
	}
	if !ok {
		return types.Hash{}, ErrNotEntitled
	}

	id := requestID(topicID, grant)
	digest := id.Bytes()

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.pending[id]; !exists {
		collector, err := NewShareCollector(g.cfg.Committee, g.cfg.Threshold, digest, g.cfg.Verifier)
		if err != nil {
			return types.Hash{}, err
		}
		g.pending[id] = &request{
			topicID:   topicID,
			grantee:   grant.Grantee,
			handle:    top.EncAverage,
			collector: collector,
		}
		metrics.DecryptRequests.Inc()
		metrics.PendingRequests.Inc()
		g.logger.Info("decryption requested", "topic", topicID, "grantee", grant.Grantee, "request", id)
	}
	return id, nil
}

// SubmitShare records a committee member's share for the request. It
// returns true once the request is releasable.
func (g *Gateway) SubmitShare(id types.Hash, share Share) (bool, error) {
	g.mu.Lock()
	req, ok := g.pending[id]
	g.mu.Unlock()
	if !ok {
		return false, ErrUnknownRequest
	}

	ready, err := req.collector.AddShare(share)
	if err != nil {
		return false, err
	}
	metrics.SharesSubmitted.Inc()
	if ready {
		g.logger.Info("share threshold reached", "request", id, "shares", req.collector.Count())
	}
	return ready, nil
}

// Result releases the plaintext aggregate for a request whose threshold
// has been met, and retires the request. Exactly one caller wins a given
// request; the lookup, readiness check and retirement happen in a single
// critical section so concurrent calls cannot release twice.
func (g *Gateway) Result(id types.Hash) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	req, ok := g.pending[id]
	if !ok {
		return 0, ErrUnknownRequest
	}
	if !req.collector.Ready() {
		return 0, ErrThresholdNotMet
	}

	value, err := g.dec.Decrypt(fhe.Ciphertext{Handle: req.handle})
	if err != nil {
		return 0, err
	}
	delete(g.pending, id)

	metrics.ResultsReleased.Inc()
	metrics.PendingRequests.Dec()
	g.logger.Info("aggregate released", "topic", req.topicID, "grantee", req.grantee, "request", id)
	return value, nil
}

// PendingCount returns the number of in-flight requests.
func (g *Gateway) PendingCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

// requestID derives the digest committee members sign for one request.
func requestID(topicID uint64, grant fhe.DecryptionGrant) types.Hash {
	var tid [8]byte
	binary.BigEndian.PutUint64(tid[:], topicID)
	gd := grant.Digest()
	return crypto.Keccak256Hash(requestDomainTag, tid[:], gd.Bytes())
}
