package storage

import (
	"encoding/binary"
	"encoding/json"
	"sync"

	"github.com/sigstream/sigstream/core/types"
	"github.com/sigstream/sigstream/log"
)

// EventRecord is one journaled registry event. Payload keeps the emitted
// event struct as raw JSON so readers can decode it by Type.
type EventRecord struct {
	Seq     uint64          `json:"seq"`
	Type    types.EventType `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Decode unmarshals the record's payload into the event struct matching
// its Type.
func (r *EventRecord) Decode(v any) error {
	return json.Unmarshal(r.Payload, v)
}

// Journal persists registry events to a backing store in emission order.
// It satisfies the registry's event sink interface and is the feed the
// decryption gateway and external indexers replay.
type Journal struct {
	mu     sync.Mutex
	db     Database
	next   uint64
	logger *log.Logger
}

// NewJournal opens an event journal over the store, resuming the sequence
// counter left by a previous run.
func NewJournal(db Database) (*Journal, error) {
	j := &Journal{db: db, logger: log.Module("storage")}
	raw, err := db.Get(eventSeqKey)
	switch err {
	case nil:
		if len(raw) == 8 {
			j.next = binary.BigEndian.Uint64(raw)
		}
	case ErrNotFound:
	default:
		return nil, err
	}
	return j, nil
}

// Emit appends the event to the journal. Marshal or write failures are
// logged and swallowed: persistence must never fail a registry
// transaction that already committed.
func (j *Journal) Emit(typ types.EventType, payload any) {
	j.mu.Lock()
	defer j.mu.Unlock()

	body, err := json.Marshal(payload)
	if err != nil {
		j.logger.Error("journal: marshal event", "type", typ, "err", err)
		return
	}
	rec := EventRecord{Seq: j.next, Type: typ, Payload: body}
	data, err := json.Marshal(rec)
	if err != nil {
		j.logger.Error("journal: marshal record", "type", typ, "err", err)
		return
	}
	if err := j.db.Put(eventKey(j.next), data); err != nil {
		j.logger.Error("journal: write record", "type", typ, "err", err)
		return
	}
	j.next++
	seq := make([]byte, 8)
	binary.BigEndian.PutUint64(seq, j.next)
	if err := j.db.Put(eventSeqKey, seq); err != nil {
		j.logger.Error("journal: write sequence", "err", err)
	}
}

// Len returns the number of journaled events.
func (j *Journal) Len() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.next
}

// Events returns up to limit records starting at the given sequence
// number, in order.
func (j *Journal) Events(from uint64, limit int) ([]EventRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	it := j.db.NewIterator(eventPrefix)
	defer it.Release()

	var out []EventRecord
	for it.Next() {
		key := it.Key()
		if len(key) != 9 {
			continue
		}
		if binary.BigEndian.Uint64(key[1:]) < from {
			continue
		}
		var rec EventRecord
		if err := json.Unmarshal(it.Value(), &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// EventsOfType returns up to limit records of one type starting at the
// given sequence number.
func (j *Journal) EventsOfType(typ types.EventType, from uint64, limit int) ([]EventRecord, error) {
	recs, err := j.Events(from, int(j.Len()))
	if err != nil {
		return nil, err
	}
	var out []EventRecord
	for _, rec := range recs {
		if rec.Type != typ {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
