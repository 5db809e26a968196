// Package core implements the sigstream orchestration manager: the state
// machine governing channels, tiers, allowlists, topics, encrypted signal
// aggregation, subscription credentials and the result access gate. Every
// state-changing entry point validates all preconditions before its first
// write, so a failing call leaves no trace, mirroring transaction revert
// semantics. Mutual exclusion is a single registry lock: entry points run
// one at a time, the way a chain serializes transactions.
package core

import (
	"sync"

	"github.com/holiman/uint256"

	"github.com/sigstream/sigstream/core/credential"
	"github.com/sigstream/sigstream/core/types"
	"github.com/sigstream/sigstream/fhe"
	"github.com/sigstream/sigstream/log"
)

// maxBatchSize caps allowlist batch operations.
const maxBatchSize = 100

// TxContext carries the execution-environment facts an entry point needs:
// who is calling, how much native currency is attached, and the current
// time. Reads never need one.
type TxContext struct {
	Caller types.Address
	Value  *uint256.Int
	Time   uint64
}

// EventSink receives registry events for off-chain indexing. The node
// wires its event bus here; a nil sink drops events.
type EventSink interface {
	Emit(typ types.EventType, payload any)
}

// userKey identifies a per-(topic, user) flag.
type userKey struct {
	topic uint64
	user  types.Address
}

// allowlist is one channel's weighted submitter set. Enumeration order is
// first-add order; re-adding overwrites weight in place.
type allowlist struct {
	entries map[types.Address]*types.AllowlistEntry
	order   []types.Address
}

func newAllowlist() *allowlist {
	return &allowlist{entries: make(map[types.Address]*types.AllowlistEntry)}
}

// Registry is the orchestration manager.
type Registry struct {
	mu sync.RWMutex

	addr    types.Address // input proofs are bound to this address
	engine  fhe.Engine
	ledger  *Ledger
	factory *credential.Factory
	sink    EventSink
	logger  *log.Logger

	channels    map[uint64]*types.Channel
	nextChannel uint64
	allowlists  map[uint64]*allowlist

	topics    map[uint64]*types.Topic
	nextTopic uint64

	signals    map[uint64]*types.Signal
	nextSignal uint64
	submitted  map[userKey]bool

	accessed map[userKey]bool
}

// NewRegistry creates an empty registry computing with the given engine.
// addr is the registry's own address; client input proofs must bind to it.
func NewRegistry(addr types.Address, engine fhe.Engine, ledger *Ledger) *Registry {
	return &Registry{
		addr:       addr,
		engine:     engine,
		ledger:     ledger,
		factory:    credential.NewFactory(addr),
		logger:     log.Module("core"),
		channels:   make(map[uint64]*types.Channel),
		allowlists: make(map[uint64]*allowlist),
		topics:     make(map[uint64]*types.Topic),
		signals:    make(map[uint64]*types.Signal),
		submitted:  make(map[userKey]bool),
		accessed:   make(map[userKey]bool),
	}
}

// SetEventSink attaches the event sink. Call before serving traffic.
func (r *Registry) SetEventSink(sink EventSink) { r.sink = sink }

// Address returns the registry's own address.
func (r *Registry) Address() types.Address { return r.addr }

// Ledger returns the native-currency ledger.
func (r *Registry) Ledger() *Ledger { return r.ledger }

// Credentials returns the credential factory, for NFT-contract-local
// queries.
func (r *Registry) Credentials() *credential.Factory { return r.factory }

func (r *Registry) emit(typ types.EventType, payload any) {
	if r.sink != nil {
		r.sink.Emit(typ, payload)
	}
}

// channelByID resolves a channel under the caller's lock.
func (r *Registry) channelByID(id uint64) (*types.Channel, error) {
	ch, ok := r.channels[id]
	if !ok {
		return nil, ErrChannelNotFound
	}
	return ch, nil
}

// topicByID resolves a topic under the caller's lock.
func (r *Registry) topicByID(id uint64) (*types.Topic, error) {
	top, ok := r.topics[id]
	if !ok {
		return nil, ErrTopicNotFound
	}
	return top, nil
}
