package types

// Topic is a question posed on a channel: a value range, a submission
// deadline and the running encrypted aggregate. EncSum and EncAverage are
// opaque ciphertext handles owned by the FHE engine; the registry never
// inspects plaintext. MinValue/MaxValue/DefaultValue and EndDate are fixed
// at creation.
type Topic struct {
	ID          uint64
	ChannelID   uint64
	InfoPointer string
	EndDate     uint64 // unix seconds; submissions stop at this instant
	Creator     Address
	CreatedAt   uint64

	MinValue     uint8
	MaxValue     uint8
	DefaultValue uint8

	EncSum     Hash // handle of the encrypted weighted sum
	EncAverage Hash // handle of the encrypted weighted average

	TotalWeight     uint64 // plaintext, monotonically non-decreasing
	SubmissionCount uint64 // plaintext, monotonically non-decreasing
	SignalIDs       []uint64
}

// Expired reports whether the topic no longer accepts submissions at the
// given time.
func (t *Topic) Expired(now uint64) bool { return now >= t.EndDate }

// Signal is one accepted submission: at most one ever exists per
// (topic, submitter) pair.
type Signal struct {
	ID          uint64
	ChannelID   uint64
	TopicID     uint64
	Submitter   Address
	Value       Hash // handle of the submitter's encrypted value
	SubmittedAt uint64
}

// Subscription describes a minted credential token. Validity is time-based:
// the token stays transferable after expiry but no longer grants access.
type Subscription struct {
	TokenID    uint64
	ChannelID  uint64
	ExpiresAt  uint64
	Tier       DurationClass
	Subscriber Address
	MintedAt   uint64
}

// Valid reports whether the subscription window covers the given time.
func (s *Subscription) Valid(now uint64) bool { return now < s.ExpiresAt }
