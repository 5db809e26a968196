package types

import "github.com/holiman/uint256"

// DurationClass enumerates the subscription length classes a channel can
// offer. Each class maps to a fixed duration in seconds.
type DurationClass uint8

const (
	OneDay DurationClass = iota
	Month
	Quarter
	HalfYear
	Year
)

// Duration-class lengths in seconds. Month is 30 days; Quarter, HalfYear
// and Year are exact multiples of it so that tier upgrades stay additive.
const (
	daySeconds   = 24 * 60 * 60
	monthSeconds = 30 * daySeconds
)

// Seconds returns the validity window granted by a subscription of this
// class. Unknown classes return 0.
func (d DurationClass) Seconds() uint64 {
	switch d {
	case OneDay:
		return daySeconds
	case Month:
		return monthSeconds
	case Quarter:
		return 3 * monthSeconds
	case HalfYear:
		return 6 * monthSeconds
	case Year:
		return 12 * monthSeconds
	default:
		return 0
	}
}

// Valid reports whether d is one of the defined duration classes.
func (d DurationClass) Valid() bool { return d <= Year }

// String implements fmt.Stringer.
func (d DurationClass) String() string {
	switch d {
	case OneDay:
		return "oneday"
	case Month:
		return "month"
	case Quarter:
		return "quarter"
	case HalfYear:
		return "halfyear"
	case Year:
		return "year"
	default:
		return "unknown"
	}
}

// Tier is one subscription offering on a channel: a duration class, its
// price in native currency, and a running subscriber counter. Duration
// classes are not required to be unique within a channel; lookups return
// the first match.
type Tier struct {
	Class       DurationClass
	Price       *uint256.Int
	Subscribers uint64
}

// Channel is the root entity of the registry. Owner and the credential
// contract address are fixed at creation and never change.
type Channel struct {
	ID            uint64
	InfoPointer   string // content identifier of the off-chain metadata blob
	Owner         Address
	Tiers         []Tier
	Credential    Address // per-channel NFT credential contract
	CreatedAt     uint64
	LastPublished uint64
	TopicIDs      []uint64
}

// TierByClass returns the first tier with the given duration class, or
// false if the channel offers none.
func (c *Channel) TierByClass(class DurationClass) (*Tier, bool) {
	for i := range c.Tiers {
		if c.Tiers[i].Class == class {
			return &c.Tiers[i], true
		}
	}
	return nil, false
}

// AllowlistEntry records one weighted submitter on a channel. The Exists
// flag tracks membership so removals do not resurrect through stale weight
// values.
type AllowlistEntry struct {
	User   Address
	Weight uint64
	Exists bool
}
