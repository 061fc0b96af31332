package live

import (
	"online-auction/internal/domain"
)

// Decision is the outcome of arbitrating one submission against the
// room's current authoritative state.
type Decision struct {
	Accepted bool
	Reason   domain.RejectReason
	Amount   float64
}

// Decide applies the arbitration rules in order: a closed auction rejects
// everything, then the submission must reach minAcceptable (the reserve
// price for the first bid, current amount plus the increment rule after
// that) and exceed the current amount. On accept the new authoritative
// amount is the submitted amount as-is.
//
// Decide is invoked strictly serially per room. Two equal amounts can
// therefore never be evaluated against the same current bid: the second
// evaluation sees the first's result and loses as not-higher.
func Decide(closed bool, current domain.Bid, minAcceptable float64, sub domain.BidSubmission) Decision {
	if closed {
		return Decision{Reason: domain.ReasonAuctionClosed}
	}
	if sub.Amount < minAcceptable || sub.Amount <= current.Amount {
		return Decision{Reason: domain.ReasonBidTooLow}
	}
	return Decision{Accepted: true, Amount: sub.Amount}
}
