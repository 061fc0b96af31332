package domain

import (
	"time"
)

type EventType string

const (
	EventSnapshot      EventType = "snapshot"
	EventBidAccepted   EventType = "bid_accepted"
	EventBidRejected   EventType = "bid_rejected"
	EventAuctionClosed EventType = "auction_closed"
)

// BidAcceptedEvent is broadcast to every room member, in sequence order,
// each time arbitration accepts a bid. It carries the full authoritative
// bid so clients never have to merge partial updates.
type BidAcceptedEvent struct {
	Type      EventType `json:"type"`
	AuctionID string    `json:"auction_id"`
	Amount    float64   `json:"amount"`
	BidderID  string    `json:"bidder_id"`
	Sequence  uint64    `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
}

// BidRejectedEvent is unicast to the submitting connection only.
type BidRejectedEvent struct {
	Type       EventType    `json:"type"`
	AuctionID  string       `json:"auction_id"`
	Reason     RejectReason `json:"reason"`
	CurrentBid float64      `json:"current_bid"`
	MinimumBid float64      `json:"minimum_bid"`
}

// AuctionClosedEvent is the terminal broadcast of a room.
type AuctionClosedEvent struct {
	Type          EventType `json:"type"`
	AuctionID     string    `json:"auction_id"`
	FinalAmount   float64   `json:"final_amount"`
	FinalBidderID string    `json:"final_bidder_id"`
	Sequence      uint64    `json:"sequence"`
}

// SnapshotEvent wraps a Snapshot for delivery to a single joining member.
type SnapshotEvent struct {
	Type EventType `json:"type"`
	Snapshot
}

// BidEvent is the durable/pub-sub record of a state change, written to the
// bid log and published for downstream consumers (analytics, other nodes).
type BidEvent struct {
	Type      EventType `json:"type"`
	AuctionID string    `json:"auction_id"`
	UserID    string    `json:"user_id"`
	Amount    float64   `json:"amount"`
	Sequence  uint64    `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
}
