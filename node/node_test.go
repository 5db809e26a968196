package node

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/sigstream/sigstream/core"
	"github.com/sigstream/sigstream/core/types"
)

func devConfig() Config {
	cfg := DefaultConfig()
	cfg.RPCPort = 0 // pick a free port
	return cfg
}

func TestNodeLifecycle(t *testing.T) {
	n, err := New(devConfig())
	if err != nil {
		t.Fatal(err)
	}
	if n.Running() {
		t.Fatal("node must not run before Start")
	}

	if err := n.Start(); err != nil {
		t.Fatal(err)
	}
	if !n.Running() {
		t.Fatal("node must run after Start")
	}
	if err := n.Start(); err != ErrAlreadyRunning {
		t.Fatalf("second start: got %v", err)
	}
	if n.RPCAddr() == "" {
		t.Fatal("rpc address must be bound")
	}

	if err := n.Stop(); err != nil {
		t.Fatal(err)
	}
	if n.Running() {
		t.Fatal("node must not run after Stop")
	}
	if err := n.Stop(); err != nil {
		t.Fatalf("second stop: %v", err)
	}
	n.Wait()
}

// Registry events reach both the journal and the bus through the node's
// sink fan-out.
func TestNodeEventWiring(t *testing.T) {
	n, err := New(devConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if n.Running() {
			n.Stop()
		}
	}()

	sub := n.Bus().Subscribe(types.EventChannelCreated)

	owner := types.HexToAddress("0x0001")
	n.Registry().Ledger().Deposit(owner, uint256.NewInt(1000))
	id, err := n.Registry().CreateChannel(core.TxContext{Caller: owner, Time: 1_700_000_000}, "cid", []core.TierSpec{
		{Class: types.Month, Price: uint256.NewInt(100)},
	})
	if err != nil {
		t.Fatal(err)
	}

	ev := <-sub.Chan()
	if ev.Payload.(types.ChannelCreatedEvent).ChannelID != id {
		t.Fatalf("bus payload: %+v", ev.Payload)
	}

	recs, err := n.Journal().Events(0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Type != types.EventChannelCreated {
		t.Fatalf("journal records: %+v", recs)
	}
}

// Genesis balances from the config fund the ledger, so a configured node
// can serve paid subscriptions without out-of-band deposits.
func TestNodeGenesisBalances(t *testing.T) {
	owner := types.HexToAddress("0x0001")
	subscriber := types.HexToAddress("0x0002")

	cfg := devConfig()
	cfg.GenesisBalances = map[string]string{
		subscriber.Hex(): "0x64",
	}
	n, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	if bal := n.Registry().Ledger().BalanceOf(subscriber); !bal.Eq(uint256.NewInt(100)) {
		t.Fatalf("genesis balance %s, want 100", bal)
	}

	ch, err := n.Registry().CreateChannel(core.TxContext{Caller: owner, Time: 1_700_000_000}, "cid", []core.TierSpec{
		{Class: types.Month, Price: uint256.NewInt(100)},
	})
	if err != nil {
		t.Fatal(err)
	}
	token, err := n.Registry().Subscribe(core.TxContext{
		Caller: subscriber,
		Value:  uint256.NewInt(100),
		Time:   1_700_000_000,
	}, ch, types.Month)
	if err != nil {
		t.Fatalf("genesis-funded subscribe: %v", err)
	}
	if token != 1 {
		t.Fatalf("token %d, want 1", token)
	}
	if bal := n.Registry().Ledger().BalanceOf(owner); !bal.Eq(uint256.NewInt(100)) {
		t.Fatalf("owner balance %s, want 100", bal)
	}
}

func TestNodeGatewayFromConfig(t *testing.T) {
	cfg := devConfig()
	cfg.Committee = []string{"0x6d656d6265722d30", "0x6d656d6265722d31"}
	cfg.Threshold = 2

	n, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if n.Gateway() == nil {
		t.Fatal("committee config must enable the gateway")
	}

	bad := devConfig()
	bad.Committee = []string{"zz"}
	bad.Threshold = 1
	if _, err := New(bad); err == nil {
		t.Fatal("bad committee key must fail")
	}
}
