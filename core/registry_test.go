package core

import (
	"sync"
	"testing"

	"github.com/holiman/uint256"

	"github.com/sigstream/sigstream/core/types"
	"github.com/sigstream/sigstream/fhe"
)

var (
	registryAddr = types.HexToAddress("0x5150")
	owner        = types.HexToAddress("0x0001")
	userA        = types.HexToAddress("0x00aa")
	userB        = types.HexToAddress("0x00bb")
	userC        = types.HexToAddress("0x00cc")
)

const t0 = uint64(1_700_000_000)

// capturedEvents records emitted events for assertions.
type capturedEvents struct {
	mu     sync.Mutex
	events []struct {
		Type    types.EventType
		Payload any
	}
}

func (c *capturedEvents) Emit(typ types.EventType, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, struct {
		Type    types.EventType
		Payload any
	}{typ, payload})
}

func (c *capturedEvents) ofType(typ types.EventType) []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []any
	for _, e := range c.events {
		if e.Type == typ {
			out = append(out, e.Payload)
		}
	}
	return out
}

type testEnv struct {
	reg    *Registry
	engine *fhe.SimEngine
	events *capturedEvents
}

// newTestEnv builds a registry over the simulated engine with funded
// accounts.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	engine := fhe.NewSimEngine()
	ledger := NewLedger()
	for _, a := range []types.Address{owner, userA, userB, userC} {
		ledger.Deposit(a, uint256.NewInt(1_000_000))
	}
	reg := NewRegistry(registryAddr, engine, ledger)
	events := &capturedEvents{}
	reg.SetEventSink(events)
	return &testEnv{reg: reg, engine: engine, events: events}
}

func tx(caller types.Address, at uint64) TxContext {
	return TxContext{Caller: caller, Time: at}
}

func payTx(caller types.Address, at uint64, value uint64) TxContext {
	return TxContext{Caller: caller, Time: at, Value: uint256.NewInt(value)}
}

// monthChannel creates a channel owned by owner with a Month tier priced
// at 100.
func monthChannel(t *testing.T, env *testEnv) uint64 {
	t.Helper()
	id, err := env.reg.CreateChannel(tx(owner, t0), "cid-chan", []TierSpec{
		{Class: types.Month, Price: uint256.NewInt(100)},
	})
	if err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}
	return id
}

// liveTopic creates a topic on the channel with range [10, 90] default 50
// ending one day after t0.
func liveTopic(t *testing.T, env *testEnv, channelID uint64) uint64 {
	t.Helper()
	id, err := env.reg.CreateTopic(tx(owner, t0), channelID, "cid-topic", t0+86400, 10, 90, 50)
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	return id
}

// allow puts users on the channel allowlist with the given weights.
func allow(t *testing.T, env *testEnv, channelID uint64, users []types.Address, weights []uint64) {
	t.Helper()
	if err := env.reg.BatchAddToAllowlist(tx(owner, t0), channelID, users, weights); err != nil {
		t.Fatalf("BatchAddToAllowlist: %v", err)
	}
}

// submit encrypts value client-side and submits it as user at time at.
func submit(t *testing.T, env *testEnv, topicID uint64, user types.Address, value uint64, at uint64) (uint64, error) {
	t.Helper()
	var salt [24]byte
	salt[0] = byte(value)
	copy(salt[1:], user.Bytes())
	in := fhe.SimEncrypt(value, salt, registryAddr, user)
	return env.reg.SubmitSignal(tx(user, at), topicID, in)
}
