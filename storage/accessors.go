package storage

import (
	"encoding/json"

	"github.com/sigstream/sigstream/core/types"
)

// WriteChannel stores a channel snapshot keyed by its id.
func WriteChannel(db KeyValueWriter, ch types.Channel) error {
	data, err := json.Marshal(ch)
	if err != nil {
		return err
	}
	return db.Put(channelKey(ch.ID), data)
}

// ReadChannel loads the channel snapshot with the given id.
func ReadChannel(db KeyValueReader, id uint64) (types.Channel, error) {
	data, err := db.Get(channelKey(id))
	if err != nil {
		return types.Channel{}, err
	}
	var ch types.Channel
	if err := json.Unmarshal(data, &ch); err != nil {
		return types.Channel{}, err
	}
	return ch, nil
}

// WriteTopic stores a topic snapshot keyed by its id.
func WriteTopic(db KeyValueWriter, top types.Topic) error {
	data, err := json.Marshal(top)
	if err != nil {
		return err
	}
	return db.Put(topicKey(top.ID), data)
}

// ReadTopic loads the topic snapshot with the given id.
func ReadTopic(db KeyValueReader, id uint64) (types.Topic, error) {
	data, err := db.Get(topicKey(id))
	if err != nil {
		return types.Topic{}, err
	}
	var top types.Topic
	if err := json.Unmarshal(data, &top); err != nil {
		return types.Topic{}, err
	}
	return top, nil
}

// WriteSignal stores a signal record keyed by its id. The encrypted value
// is persisted as an opaque handle only.
func WriteSignal(db KeyValueWriter, sig types.Signal) error {
	data, err := json.Marshal(sig)
	if err != nil {
		return err
	}
	return db.Put(signalKey(sig.ID), data)
}

// ReadSignal loads the signal record with the given id.
func ReadSignal(db KeyValueReader, id uint64) (types.Signal, error) {
	data, err := db.Get(signalKey(id))
	if err != nil {
		return types.Signal{}, err
	}
	var sig types.Signal
	if err := json.Unmarshal(data, &sig); err != nil {
		return types.Signal{}, err
	}
	return sig, nil
}
