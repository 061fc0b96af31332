package domain

import (
	"time"
)

type Auction struct {
	ID          string
	StartTime   time.Time
	EndTime     time.Time
	StartingBid float64
	Status      AuctionStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type AuctionStatus int

const (
	AuctionPending AuctionStatus = iota
	AuctionActive
	AuctionEnded
	AuctionCancelled
)

func (s AuctionStatus) String() string {
	switch s {
	case AuctionPending:
		return "pending"
	case AuctionActive:
		return "active"
	case AuctionEnded:
		return "ended"
	case AuctionCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Bid is the authoritative highest bid of a room. The zero value means
// "no bid yet" (Sequence 0 is never assigned to an accepted bid).
type Bid struct {
	Amount    float64   `json:"amount"`
	BidderID  string    `json:"bidder_id"`
	Sequence  uint64    `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
}

// BidSubmission is transient input to arbitration; it is not retained.
// ConnectionID is set when the bid arrived over a live connection so
// rejections can be sent back on that connection only.
type BidSubmission struct {
	AuctionID    string
	BidderID     string
	Amount       float64
	ClientTime   time.Time // advisory only, never used for ordering
	ConnectionID string
}

// Snapshot is what a joining or rejoining participant receives instead of
// replayed history. Sequence lets the client detect missed updates.
type Snapshot struct {
	AuctionID  string `json:"auction_id"`
	CurrentBid Bid    `json:"current_bid"`
	Sequence   uint64 `json:"sequence"`
	Closed     bool   `json:"closed"`
}

// SubmitResult is returned to the caller of SubmitBid.
type SubmitResult struct {
	Accepted bool
	Sequence uint64
	Reason   RejectReason
}

type ScheduledJob struct {
	ID        string
	AuctionID string
	JobType   JobType
	RunAt     time.Time
	Status    JobStatus
	CreatedAt time.Time
}

type JobType string

const (
	JobStartAuction JobType = "start_auction"
	JobEndAuction   JobType = "end_auction"
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobExecuted  JobStatus = "executed"
	JobCancelled JobStatus = "cancelled"
)

type BidValidationRules struct {
	Rules map[string]float64 `json:"rules"`
}
