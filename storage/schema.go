package storage

import "encoding/binary"

// Key prefixes for the store schema. Each record type gets a distinct
// single-byte prefix.
var (
	channelPrefix = []byte("c") // c + id (8 bytes BE) -> channel JSON
	topicPrefix   = []byte("t") // t + id (8 bytes BE) -> topic JSON
	signalPrefix  = []byte("s") // s + id (8 bytes BE) -> signal JSON
	eventPrefix   = []byte("e") // e + seq (8 bytes BE) -> event record JSON

	eventSeqKey = []byte("en") // -> next event sequence (8 bytes BE)
)

func encodeID(id uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, id)
	return enc
}

func channelKey(id uint64) []byte {
	return append(append([]byte{}, channelPrefix...), encodeID(id)...)
}

func topicKey(id uint64) []byte {
	return append(append([]byte{}, topicPrefix...), encodeID(id)...)
}

func signalKey(id uint64) []byte {
	return append(append([]byte{}, signalPrefix...), encodeID(id)...)
}

func eventKey(seq uint64) []byte {
	return append(append([]byte{}, eventPrefix...), encodeID(seq)...)
}
