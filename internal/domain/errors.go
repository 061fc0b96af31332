package domain

import (
	"errors"
)

// RejectReason is surfaced to the submitting participant; it is a
// validation outcome, not an error in the room itself.
type RejectReason string

const (
	ReasonBidTooLow     RejectReason = "bid_too_low"
	ReasonAuctionClosed RejectReason = "auction_closed"
)

var (
	// ErrAuctionNotFound: the auction is unknown to persistent storage.
	// Nothing is created or mutated.
	ErrAuctionNotFound = errors.New("auction not found")

	// ErrRoomBroken: the room detected an internal invariant violation
	// (duplicate or non-increasing sequence) and refuses all further
	// operations rather than serve inconsistent state.
	ErrRoomBroken = errors.New("room is unusable after invariant violation")

	// ErrSlowConsumer: a connection's outbound queue is full or closed.
	// Treated as a transient delivery failure; the connection is dropped.
	ErrSlowConsumer = errors.New("connection cannot accept outbound events")
)
