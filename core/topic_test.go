package core

import (
	"errors"
	"testing"

	"github.com/sigstream/sigstream/core/types"
	"github.com/sigstream/sigstream/fhe"
)

func TestCreateTopic(t *testing.T) {
	env := newTestEnv(t)
	ch := monthChannel(t, env)

	id, err := env.reg.CreateTopic(tx(userC, t0), ch, "cid-t", t0+3600, 10, 90, 50)
	if err != nil {
		t.Fatal(err)
	}
	if id != 1 {
		t.Fatalf("first topic id %d, want 1", id)
	}

	top, err := env.reg.GetTopic(id)
	if err != nil {
		t.Fatal(err)
	}
	// The creator need not be the channel owner; both are recorded.
	if top.Creator != userC || top.ChannelID != ch {
		t.Fatalf("unexpected topic: %+v", top)
	}
	if top.TotalWeight != 0 || top.SubmissionCount != 0 {
		t.Fatal("aggregates must start at zero")
	}
	if top.EncSum.IsZero() || top.EncAverage.IsZero() {
		t.Fatal("running aggregates must be initialized to Enc(0) handles")
	}
	if v, _ := env.engine.Decrypt(fhe.Ciphertext{Handle: top.EncSum}); v != 0 {
		t.Fatalf("initial sum decrypts to %d, want 0", v)
	}

	topics, _ := env.reg.GetChannelTopics(ch)
	if len(topics) != 1 || topics[0] != id {
		t.Fatalf("channel topic list %v", topics)
	}
}

func TestCreateTopicValidation(t *testing.T) {
	env := newTestEnv(t)
	ch := monthChannel(t, env)

	tests := []struct {
		name             string
		endDate          uint64
		min, max, defVal uint8
		wantErr          error
	}{
		{"end date in the past", t0 - 1, 0, 100, 50, ErrInvalidEndDate},
		{"end date equals now", t0, 0, 100, 50, ErrInvalidEndDate},
		{"min above max", t0 + 10, 90, 10, 50, ErrInvalidValueRange},
		{"default below min", t0 + 10, 10, 90, 5, ErrInvalidValueRange},
		{"default above max", t0 + 10, 10, 90, 95, ErrInvalidValueRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.reg.CreateTopic(tx(owner, t0), ch, "cid", tt.endDate, tt.min, tt.max, tt.defVal)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := env.reg.CreateTopic(tx(owner, t0), 99, "cid", t0+10, 0, 100, 50); !errors.Is(err, ErrChannelNotFound) {
		t.Fatalf("unknown channel: got %v, want ErrChannelNotFound", err)
	}
}

func TestSubmitSignalGating(t *testing.T) {
	env := newTestEnv(t)
	ch := monthChannel(t, env)
	top := liveTopic(t, env, ch)
	allow(t, env, ch, []types.Address{userA}, []uint64{100})

	t.Run("unknown topic", func(t *testing.T) {
		if _, err := submit(t, env, 99, userA, 50, t0+1); !errors.Is(err, ErrTopicNotFound) {
			t.Fatalf("got %v, want ErrTopicNotFound", err)
		}
	})
	t.Run("not in allowlist", func(t *testing.T) {
		if _, err := submit(t, env, top, userB, 50, t0+1); !errors.Is(err, ErrNotInAllowlist) {
			t.Fatalf("got %v, want ErrNotInAllowlist", err)
		}
	})
	t.Run("expired topic", func(t *testing.T) {
		if _, err := submit(t, env, top, userA, 50, t0+86400); !errors.Is(err, ErrTopicExpired) {
			t.Fatalf("got %v, want ErrTopicExpired", err)
		}
	})
	t.Run("first submission accepted", func(t *testing.T) {
		if _, err := submit(t, env, top, userA, 75, t0+1); err != nil {
			t.Fatal(err)
		}
	})
	t.Run("second submission rejected", func(t *testing.T) {
		if _, err := submit(t, env, top, userA, 30, t0+2); !errors.Is(err, ErrAlreadySubmitted) {
			t.Fatalf("got %v, want ErrAlreadySubmitted", err)
		}
	})
	t.Run("removed submitter rejected", func(t *testing.T) {
		allow(t, env, ch, []types.Address{userB}, []uint64{10})
		if err := env.reg.BatchRemoveFromAllowlist(tx(owner, t0), ch, []types.Address{userB}); err != nil {
			t.Fatal(err)
		}
		if _, err := submit(t, env, top, userB, 50, t0+1); !errors.Is(err, ErrNotInAllowlist) {
			t.Fatalf("got %v, want ErrNotInAllowlist", err)
		}
	})
	t.Run("tampered proof rejected with no state change", func(t *testing.T) {
		allow(t, env, ch, []types.Address{userC}, []uint64{10})
		var salt [24]byte
		in := fhe.SimEncrypt(50, salt, registryAddr, userA) // bound to userA, sent by userC
		if _, err := env.reg.SubmitSignal(tx(userC, t0+1), top, in); !errors.Is(err, fhe.ErrInvalidProof) {
			t.Fatalf("got %v, want fhe.ErrInvalidProof", err)
		}
		if ok, _ := env.reg.HasSubmitted(top, userC); ok {
			t.Fatal("failed submission must not mark the submitter")
		}
		snap, _ := env.reg.GetTopic(top)
		if snap.SubmissionCount != 1 {
			t.Fatalf("failed submission mutated the topic: %+v", snap)
		}
	})
}

func TestSubmitSignalFold(t *testing.T) {
	env := newTestEnv(t)
	ch := monthChannel(t, env)
	top := liveTopic(t, env, ch)
	allow(t, env, ch, []types.Address{userA, userB}, []uint64{100, 300})

	sigID, err := submit(t, env, top, userA, 75, t0+1)
	if err != nil {
		t.Fatal(err)
	}

	snap, _ := env.reg.GetTopic(top)
	if snap.SubmissionCount != 1 || snap.TotalWeight != 100 {
		t.Fatalf("after first signal: count %d weight %d, want 1/100", snap.SubmissionCount, snap.TotalWeight)
	}
	if v, _ := env.engine.Decrypt(fhe.Ciphertext{Handle: snap.EncAverage}); v != 75 {
		t.Fatalf("single-signal average %d, want 75", v)
	}

	if _, err := submit(t, env, top, userB, 25, t0+2); err != nil {
		t.Fatal(err)
	}
	snap, _ = env.reg.GetTopic(top)
	if snap.SubmissionCount != 2 || snap.TotalWeight != 400 {
		t.Fatalf("after second signal: count %d weight %d, want 2/400", snap.SubmissionCount, snap.TotalWeight)
	}
	// (75*100 + 25*300) / 400 = 37
	if v, _ := env.engine.Decrypt(fhe.Ciphertext{Handle: snap.EncSum}); v != 15000 {
		t.Fatalf("sum decrypts to %d, want 15000", v)
	}
	if v, _ := env.engine.Decrypt(fhe.Ciphertext{Handle: snap.EncAverage}); v != 37 {
		t.Fatalf("average decrypts to %d, want 37", v)
	}

	sig, err := env.reg.GetSignal(sigID)
	if err != nil {
		t.Fatal(err)
	}
	if sig.Submitter != userA || sig.TopicID != top || sig.ChannelID != ch {
		t.Fatalf("unexpected signal: %+v", sig)
	}
	if v, _ := env.engine.Decrypt(fhe.Ciphertext{Handle: sig.Value}); v != 75 {
		t.Fatalf("stored signal handle decrypts to %d, want 75", v)
	}

	ids, _ := env.reg.GetTopicSignals(top)
	if len(ids) != 2 {
		t.Fatalf("signal ids %v", ids)
	}
	if n, _ := env.reg.GetTopicSignalCount(top); n != 2 {
		t.Fatalf("signal count %d, want 2", n)
	}

	subEvs := env.events.ofType(types.EventSignalSubmitted)
	avgEvs := env.events.ofType(types.EventAverageUpdated)
	if len(subEvs) != 2 || len(avgEvs) != 2 {
		t.Fatalf("events: %d submitted, %d average; want 2/2", len(subEvs), len(avgEvs))
	}
}

// Submission order must not change the decrypted aggregate.
func TestSubmitSignalOrderIndependence(t *testing.T) {
	run := func(order []int) uint64 {
		env := newTestEnv(t)
		ch := monthChannel(t, env)
		top := liveTopic(t, env, ch)
		allow(t, env, ch, []types.Address{userA, userB}, []uint64{100, 300})

		users := []types.Address{userA, userB}
		values := []uint64{75, 25}
		for _, i := range order {
			if _, err := submit(t, env, top, users[i], values[i], t0+1); err != nil {
				t.Fatal(err)
			}
		}
		snap, _ := env.reg.GetTopic(top)
		v, err := env.engine.Decrypt(fhe.Ciphertext{Handle: snap.EncAverage})
		if err != nil {
			t.Fatal(err)
		}
		return v
	}

	forward := run([]int{0, 1})
	reverse := run([]int{1, 0})
	if forward != reverse {
		t.Fatalf("order changed the average: %d vs %d", forward, reverse)
	}
	if forward != 37 {
		t.Fatalf("average %d, want 37", forward)
	}
}

// Out-of-range values fold as the topic default under the simulated
// engine's verification-time clamping.
func TestSubmitSignalOutOfRangeClampsToDefault(t *testing.T) {
	env := newTestEnv(t)
	ch := monthChannel(t, env)
	top := liveTopic(t, env, ch) // range [10, 90], default 50
	allow(t, env, ch, []types.Address{userA}, []uint64{2})

	if _, err := submit(t, env, top, userA, 200, t0+1); err != nil {
		t.Fatal(err)
	}
	snap, _ := env.reg.GetTopic(top)
	if v, _ := env.engine.Decrypt(fhe.Ciphertext{Handle: snap.EncAverage}); v != 50 {
		t.Fatalf("clamped average %d, want default 50", v)
	}
}

func TestGetTopicsByIDs(t *testing.T) {
	env := newTestEnv(t)
	ch := monthChannel(t, env)
	t1 := liveTopic(t, env, ch)
	t2 := liveTopic(t, env, ch)

	tops, err := env.reg.GetTopicsByIDs([]uint64{t2, t1})
	if err != nil {
		t.Fatal(err)
	}
	if len(tops) != 2 || tops[0].ID != t2 || tops[1].ID != t1 {
		t.Fatalf("batch read order not preserved: %+v", tops)
	}
	if _, err := env.reg.GetTopicsByIDs([]uint64{t1, 99}); !errors.Is(err, ErrTopicNotFound) {
		t.Fatalf("got %v, want ErrTopicNotFound", err)
	}
}

func TestHasSubmittedUnknownTopic(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.reg.HasSubmitted(1, userA); !errors.Is(err, ErrTopicNotFound) {
		t.Fatalf("got %v, want ErrTopicNotFound", err)
	}
	if _, err := env.reg.GetSignal(1); !errors.Is(err, ErrSignalNotFound) {
		t.Fatalf("got %v, want ErrSignalNotFound", err)
	}
}
