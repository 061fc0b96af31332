package live

import (
	"context"
	"fmt"
	"time"

	"online-auction/internal/domain"
	"online-auction/pkg/logger"
)

// EventSink receives a copy of every committed state change (accepted
// bids, auction close) off the room's serialized path. Implementations
// persist or publish it; failures there never reach the bidders.
type EventSink func(ctx context.Context, event *domain.BidEvent)

type member struct {
	conn     domain.Conn
	joinedAt time.Time
}

// Room owns one auction's live state: the authoritative current bid, the
// per-room sequence counter and the set of connected participants. Every
// mutation (Join, Leave, SubmitBid, Close) runs under a capacity-1
// semaphore, so at most one arbitration is in flight per auction while
// distinct rooms proceed fully in parallel.
type Room struct {
	auctionID  string
	reserve    float64
	rules      domain.BidRules
	dispatcher *Dispatcher
	sink       EventSink
	log        logger.Logger

	sem chan struct{} // capacity 1, guards everything below

	current      domain.Bid
	seq          uint64
	closed       bool
	broken       bool
	members      map[string]*member
	lastActivity time.Time
}

func NewRoom(auctionID string, reserve float64, closed bool, rules domain.BidRules,
	dispatcher *Dispatcher, sink EventSink, log logger.Logger) *Room {
	return &Room{
		auctionID:    auctionID,
		reserve:      reserve,
		rules:        rules,
		dispatcher:   dispatcher,
		sink:         sink,
		log:          log,
		sem:          make(chan struct{}, 1),
		closed:       closed,
		members:      make(map[string]*member),
		lastActivity: time.Now(),
	}
}

// acquire takes the room's serialization slot, giving up when ctx runs
// out so a join or bid stuck behind a busy room fails with a transient
// error instead of hanging.
func (r *Room) acquire(ctx context.Context) error {
	select {
	case r.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("room %s busy: %w", r.auctionID, ctx.Err())
	}
}

func (r *Room) release() {
	<-r.sem
}

// Join adds the connection to membership and returns a snapshot of the
// authoritative state. Joining twice with the same connection ID only
// refreshes the membership timestamp; it never duplicates delivery.
func (r *Room) Join(ctx context.Context, conn domain.Conn) (domain.Snapshot, error) {
	if err := r.acquire(ctx); err != nil {
		return domain.Snapshot{}, err
	}
	defer r.release()

	if r.broken {
		return domain.Snapshot{}, domain.ErrRoomBroken
	}

	id := conn.ConnectionID()
	if m, ok := r.members[id]; ok {
		m.joinedAt = time.Now()
		m.conn = conn
	} else {
		r.members[id] = &member{conn: conn, joinedAt: time.Now()}
	}
	r.lastActivity = time.Now()

	return r.snapshotLocked(), nil
}

// Leave removes the membership. Absent connection IDs are a no-op so
// late or duplicate disconnect notifications are harmless.
func (r *Room) Leave(connectionID string) {
	r.sem <- struct{}{}
	defer r.release()

	if _, ok := r.members[connectionID]; !ok {
		return
	}
	delete(r.members, connectionID)
	r.lastActivity = time.Now()
}

// SubmitBid serializes the submission through arbitration. On accept the
// room assigns the next sequence number, replaces the authoritative bid
// and broadcasts the update to every member before releasing its slot,
// which is what keeps broadcasts in commit order. On reject only the
// submitting connection hears about it.
func (r *Room) SubmitBid(ctx context.Context, sub domain.BidSubmission) (domain.SubmitResult, error) {
	if err := r.acquire(ctx); err != nil {
		return domain.SubmitResult{}, err
	}
	defer r.release()

	if r.broken {
		return domain.SubmitResult{}, domain.ErrRoomBroken
	}

	minAcceptable := r.reserve
	if r.seq > 0 {
		minAcceptable = r.rules.MinimumBid(r.current.Amount)
	}

	dec := Decide(r.closed, r.current, minAcceptable, sub)
	if !dec.Accepted {
		r.rejectLocked(sub, dec.Reason, minAcceptable)
		return domain.SubmitResult{Reason: dec.Reason}, nil
	}

	next := r.seq + 1
	if next <= r.seq || next <= r.current.Sequence {
		// Programmer/integration fault. The room must not keep serving
		// state it can no longer vouch for.
		r.broken = true
		r.log.Error("Sequence invariant violated, marking room unusable",
			"auction_id", r.auctionID, "seq", r.seq, "next", next)
		return domain.SubmitResult{}, domain.ErrRoomBroken
	}

	r.seq = next
	r.current = domain.Bid{
		Amount:    dec.Amount,
		BidderID:  sub.BidderID,
		Sequence:  next,
		Timestamp: time.Now(),
	}
	r.lastActivity = r.current.Timestamp

	r.dispatcher.Broadcast(r.connsLocked(), &domain.BidAcceptedEvent{
		Type:      domain.EventBidAccepted,
		AuctionID: r.auctionID,
		Amount:    r.current.Amount,
		BidderID:  r.current.BidderID,
		Sequence:  r.current.Sequence,
		Timestamp: r.current.Timestamp,
	})
	r.emit(&domain.BidEvent{
		Type:      domain.EventBidAccepted,
		AuctionID: r.auctionID,
		UserID:    sub.BidderID,
		Amount:    r.current.Amount,
		Sequence:  r.current.Sequence,
		Timestamp: r.current.Timestamp,
	})

	return domain.SubmitResult{Accepted: true, Sequence: next}, nil
}

// Close marks the room closed and broadcasts the terminal event with the
// final bid. Idempotent; bids after Close are rejected with
// auction_closed and never mutate the final state.
func (r *Room) Close(ctx context.Context) error {
	if err := r.acquire(ctx); err != nil {
		return err
	}
	defer r.release()

	if r.closed {
		return nil
	}
	r.closed = true
	r.lastActivity = time.Now()

	r.dispatcher.Broadcast(r.connsLocked(), &domain.AuctionClosedEvent{
		Type:          domain.EventAuctionClosed,
		AuctionID:     r.auctionID,
		FinalAmount:   r.current.Amount,
		FinalBidderID: r.current.BidderID,
		Sequence:      r.seq,
	})
	r.emit(&domain.BidEvent{
		Type:      domain.EventAuctionClosed,
		AuctionID: r.auctionID,
		UserID:    r.current.BidderID,
		Amount:    r.current.Amount,
		Sequence:  r.seq,
		Timestamp: r.lastActivity,
	})
	return nil
}

// State returns a snapshot without joining. Used by the HTTP read path.
func (r *Room) State(ctx context.Context) (domain.Snapshot, error) {
	if err := r.acquire(ctx); err != nil {
		return domain.Snapshot{}, err
	}
	defer r.release()
	return r.snapshotLocked(), nil
}

func (r *Room) MemberCount() int {
	r.sem <- struct{}{}
	defer r.release()
	return len(r.members)
}

// canRetire reports whether the registry may remove this room: closed,
// empty and idle past grace. A busy room is by definition not idle, so a
// contended slot answers no without waiting.
func (r *Room) canRetire(grace time.Duration) (bool, string) {
	select {
	case r.sem <- struct{}{}:
	default:
		return false, "busy"
	}
	defer r.release()

	switch {
	case !r.closed:
		return false, "still open"
	case len(r.members) > 0:
		return false, "has members"
	case time.Since(r.lastActivity) < grace:
		return false, "within grace period"
	}
	return true, ""
}

func (r *Room) rejectLocked(sub domain.BidSubmission, reason domain.RejectReason, minAcceptable float64) {
	m, ok := r.members[sub.ConnectionID]
	if !ok {
		// Submitter has no live connection in this room (REST bid or
		// already gone); the caller gets the result value instead.
		return
	}
	r.dispatcher.SendTo(m.conn, &domain.BidRejectedEvent{
		Type:       domain.EventBidRejected,
		AuctionID:  r.auctionID,
		Reason:     reason,
		CurrentBid: r.current.Amount,
		MinimumBid: minAcceptable,
	})
}

func (r *Room) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		AuctionID:  r.auctionID,
		CurrentBid: r.current,
		Sequence:   r.seq,
		Closed:     r.closed,
	}
}

func (r *Room) connsLocked() []domain.Conn {
	conns := make([]domain.Conn, 0, len(r.members))
	for _, m := range r.members {
		conns = append(conns, m.conn)
	}
	return conns
}

func (r *Room) emit(event *domain.BidEvent) {
	if r.sink == nil {
		return
	}
	// Persisting and publishing happen off the serialized path; a slow
	// sink must never stall arbitration.
	go r.sink(context.Background(), event)
}
