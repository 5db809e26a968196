package node

import (
	"sync"

	"github.com/sigstream/sigstream/core"
	"github.com/sigstream/sigstream/core/types"
	"github.com/sigstream/sigstream/log"
	"github.com/sigstream/sigstream/storage"
)

// Snapshotter persists registry records into the node database as events
// commit, giving a DataDir node a durable read model of channels, topics
// and signals next to the event journal. It implements EventSink; the
// writes happen on a background goroutine so a slow disk never extends a
// registry transaction. Records are written last-state-wins, so a
// snapshot taken after a later mutation is correct, just fresher than the
// event that queued it.
type Snapshotter struct {
	db       storage.Database
	registry *core.Registry
	logger   *log.Logger

	queue chan snapshotJob
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

type snapshotJob struct {
	typ     types.EventType
	payload any
}

// NewSnapshotter starts a snapshotter persisting into db from the
// registry's current state.
func NewSnapshotter(db storage.Database, registry *core.Registry) *Snapshotter {
	s := &Snapshotter{
		db:       db,
		registry: registry,
		logger:   log.Module("snapshot"),
		queue:    make(chan snapshotJob, 256),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

// Emit queues the affected records for persistence. It never blocks; when
// the queue is full the write is skipped and logged. The registry state
// stays authoritative either way.
func (s *Snapshotter) Emit(typ types.EventType, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- snapshotJob{typ: typ, payload: payload}:
	default:
		s.logger.Warn("snapshot queue full, record write skipped", "type", typ)
	}
}

// Close drains the queue and stops the worker. Pending snapshots are
// written before Close returns.
func (s *Snapshotter) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	<-s.done
}

func (s *Snapshotter) run() {
	defer close(s.done)
	for job := range s.queue {
		if err := s.apply(job); err != nil {
			s.logger.Warn("snapshot write failed", "type", job.typ, "err", err)
		}
	}
}

func (s *Snapshotter) apply(job snapshotJob) error {
	switch job.typ {
	case types.EventChannelCreated:
		if ev, ok := job.payload.(types.ChannelCreatedEvent); ok {
			return s.writeChannel(ev.ChannelID)
		}
	case types.EventSubscribed:
		if ev, ok := job.payload.(types.SubscribedEvent); ok {
			return s.writeChannel(ev.ChannelID)
		}
	case types.EventTopicCreated:
		if ev, ok := job.payload.(types.TopicCreatedEvent); ok {
			if err := s.writeTopic(ev.TopicID); err != nil {
				return err
			}
			return s.writeChannel(ev.ChannelID)
		}
	case types.EventSignalSubmitted:
		if ev, ok := job.payload.(types.SignalSubmittedEvent); ok {
			if err := s.writeSignal(ev.SignalID); err != nil {
				return err
			}
			return s.writeTopic(ev.TopicID)
		}
	case types.EventAverageUpdated:
		if ev, ok := job.payload.(types.AverageUpdatedEvent); ok {
			return s.writeTopic(ev.TopicID)
		}
	}
	// Allowlist and access-gate events carry no snapshot record; the
	// journal keeps their full history.
	return nil
}

func (s *Snapshotter) writeChannel(id uint64) error {
	ch, err := s.registry.GetChannel(id)
	if err != nil {
		return err
	}
	return storage.WriteChannel(s.db, ch)
}

func (s *Snapshotter) writeTopic(id uint64) error {
	top, err := s.registry.GetTopic(id)
	if err != nil {
		return err
	}
	return storage.WriteTopic(s.db, top)
}

func (s *Snapshotter) writeSignal(id uint64) error {
	sig, err := s.registry.GetSignal(id)
	if err != nil {
		return err
	}
	return storage.WriteSignal(s.db, sig)
}
