package types

// EventType identifies an event emitted by the registry for off-chain
// indexing.
type EventType string

const (
	EventChannelCreated      EventType = "registry.channelCreated"
	EventAllowlistUpdated    EventType = "registry.allowlistUpdated"
	EventTopicCreated        EventType = "registry.topicCreated"
	EventSignalSubmitted     EventType = "registry.signalSubmitted"
	EventAverageUpdated      EventType = "registry.averageUpdated"
	EventSubscribed          EventType = "registry.subscribed"
	EventTopicResultAccessed EventType = "registry.topicResultAccessed"
	EventTopicAccessReset    EventType = "registry.topicAccessReset"
)

// ChannelCreatedEvent is emitted once per createChannel.
type ChannelCreatedEvent struct {
	ChannelID   uint64
	Owner       Address
	InfoPointer string
}

// AllowlistUpdatedEvent is emitted once per processed allowlist entry;
// Added is false for removals.
type AllowlistUpdatedEvent struct {
	ChannelID uint64
	User      Address
	Added     bool
}

// TopicCreatedEvent is emitted once per createTopic.
type TopicCreatedEvent struct {
	TopicID   uint64
	ChannelID uint64
	Creator   Address
	EndDate   uint64
}

// SignalSubmittedEvent is emitted for every accepted signal.
type SignalSubmittedEvent struct {
	TopicID   uint64
	SignalID  uint64
	Submitter Address
}

// AverageUpdatedEvent is emitted after the encrypted aggregate has been
// refolded for a new signal.
type AverageUpdatedEvent struct {
	TopicID  uint64
	SignalID uint64
}

// SubscribedEvent is emitted once per minted credential.
type SubscribedEvent struct {
	ChannelID  uint64
	Subscriber Address
	Tier       DurationClass
	TokenID    uint64
}

// TopicResultAccessedEvent is the authorization event an off-chain client
// presents to the decryption gateway.
type TopicResultAccessedEvent struct {
	TopicID uint64
	Caller  Address
	TokenID uint64
}

// TopicAccessResetEvent is emitted when a channel owner clears a user's
// access flag.
type TopicAccessResetEvent struct {
	TopicID uint64
	User    Address
}
