package node

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"github.com/sigstream/sigstream/core"
	"github.com/sigstream/sigstream/core/types"
	"github.com/sigstream/sigstream/fhe"
	"github.com/sigstream/sigstream/storage"
)

// The snapshotter persists the records touched by each event; Close
// drains pending writes.
func TestSnapshotterPersistsRecords(t *testing.T) {
	const t0 = uint64(1_700_000_000)
	var (
		owner     = types.HexToAddress("0x0001")
		submitter = types.HexToAddress("0x0002")
		regAddr   = types.HexToAddress(DefaultConfig().RegistryAddress)
	)

	db := storage.NewMemoryDB()
	engine := fhe.NewSimEngine()
	reg := core.NewRegistry(regAddr, engine, core.NewLedger())
	snap := NewSnapshotter(db, reg)
	reg.SetEventSink(snap)

	tx := core.TxContext{Caller: owner, Time: t0}
	ch, err := reg.CreateChannel(tx, "cid-chan", []core.TierSpec{
		{Class: types.Month, Price: uint256.NewInt(100)},
	})
	if err != nil {
		t.Fatal(err)
	}
	top, err := reg.CreateTopic(tx, ch, "cid-top", t0+86400, 0, 100, 50)
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.BatchAddToAllowlist(tx, ch, []types.Address{submitter}, []uint64{7}); err != nil {
		t.Fatal(err)
	}
	input := fhe.SimEncrypt(42, [24]byte{1}, regAddr, submitter)
	sigID, err := reg.SubmitSignal(core.TxContext{Caller: submitter, Time: t0 + 10}, top, input)
	if err != nil {
		t.Fatal(err)
	}

	snap.Close()

	gotCh, err := storage.ReadChannel(db, ch)
	if err != nil {
		t.Fatal(err)
	}
	if gotCh.Owner != owner || len(gotCh.TopicIDs) != 1 {
		t.Fatalf("channel snapshot: %+v", gotCh)
	}
	gotTop, err := storage.ReadTopic(db, top)
	if err != nil {
		t.Fatal(err)
	}
	if gotTop.SubmissionCount != 1 || gotTop.TotalWeight != 7 {
		t.Fatalf("topic snapshot: %+v", gotTop)
	}
	gotSig, err := storage.ReadSignal(db, sigID)
	if err != nil {
		t.Fatal(err)
	}
	if gotSig.Submitter != submitter || gotSig.TopicID != top {
		t.Fatalf("signal snapshot: %+v", gotSig)
	}

	// Emit after Close is a no-op, not a panic.
	snap.Emit(types.EventChannelCreated, types.ChannelCreatedEvent{ChannelID: ch})
	snap.Close()
}

// A DataDir node's channels, topics and signals survive a restart as
// on-disk snapshots next to the journal.
func TestNodeSnapshotSurvivesRestart(t *testing.T) {
	const t0 = uint64(1_700_000_000)
	owner := types.HexToAddress("0x0001")

	cfg := devConfig()
	cfg.DataDir = t.TempDir()

	n, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := n.Start(); err != nil {
		t.Fatal(err)
	}

	tx := core.TxContext{Caller: owner, Time: t0}
	ch, err := n.Registry().CreateChannel(tx, "cid", []core.TierSpec{
		{Class: types.Month, Price: uint256.NewInt(100)},
	})
	if err != nil {
		t.Fatal(err)
	}
	top, err := n.Registry().CreateTopic(tx, ch, "cid-top", t0+86400, 0, 100, 50)
	if err != nil {
		t.Fatal(err)
	}
	if err := n.Stop(); err != nil {
		t.Fatal(err)
	}

	db, err := storage.OpenLevelDB(cfg.ResolvePath("registrydb"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	gotCh, err := storage.ReadChannel(db, ch)
	if err != nil {
		t.Fatal(err)
	}
	if gotCh.Owner != owner {
		t.Fatalf("channel snapshot: %+v", gotCh)
	}
	gotTop, err := storage.ReadTopic(db, top)
	if err != nil {
		t.Fatal(err)
	}
	if gotTop.ChannelID != ch {
		t.Fatalf("topic snapshot: %+v", gotTop)
	}
	if _, err := storage.ReadSignal(db, 1); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("absent signal: got %v, want ErrNotFound", err)
	}

	journal, err := storage.NewJournal(db)
	if err != nil {
		t.Fatal(err)
	}
	if journal.Len() != 2 {
		t.Fatalf("journal length %d, want 2", journal.Len())
	}
}
