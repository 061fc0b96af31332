package live

import (
	"context"
	"sync"
	"time"

	"online-auction/internal/domain"
	"online-auction/pkg/logger"
)

// fakeConn records everything sent to it and can be told to fail.
type fakeConn struct {
	id   string
	user string

	mu       sync.Mutex
	events   []interface{}
	failSend bool
	closed   bool
}

func newFakeConn(id, user string) *fakeConn {
	return &fakeConn{id: id, user: user}
}

func (c *fakeConn) ConnectionID() string { return c.id }
func (c *fakeConn) UserID() string       { return c.user }

func (c *fakeConn) Send(event interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSend || c.closed {
		return domain.ErrSlowConsumer
	}
	c.events = append(c.events, event)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) sent() []interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]interface{}, len(c.events))
	copy(out, c.events)
	return out
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) eventsOfType(t domain.EventType) int {
	n := 0
	for _, ev := range c.sent() {
		switch e := ev.(type) {
		case *domain.BidAcceptedEvent:
			if e.Type == t {
				n++
			}
		case *domain.BidRejectedEvent:
			if e.Type == t {
				n++
			}
		case *domain.AuctionClosedEvent:
			if e.Type == t {
				n++
			}
		case *domain.SnapshotEvent:
			if e.Type == t {
				n++
			}
		}
	}
	return n
}

// fixedRules is a deterministic increment policy for tests.
type fixedRules struct {
	increment float64
}

func (r fixedRules) LoadRules(context.Context) error { return nil }

func (r fixedRules) MinimumBid(current float64) float64 { return current + r.increment }

func (r fixedRules) IncrementRule(amount float64) float64 { return r.increment }

// fakeAuctionRepo serves auction records from memory and counts lookups.
type fakeAuctionRepo struct {
	mu       sync.Mutex
	auctions map[string]*domain.Auction
	lookups  int
}

func newFakeAuctionRepo(auctions ...*domain.Auction) *fakeAuctionRepo {
	repo := &fakeAuctionRepo{auctions: make(map[string]*domain.Auction)}
	for _, a := range auctions {
		repo.auctions[a.ID] = a
	}
	return repo
}

func (r *fakeAuctionRepo) CreateAuction(_ context.Context, auction *domain.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auctions[auction.ID] = auction
	return nil
}

func (r *fakeAuctionRepo) GetAuction(_ context.Context, auctionID string) (*domain.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	auction, ok := r.auctions[auctionID]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	return auction, nil
}

func (r *fakeAuctionRepo) UpdateAuctionStatus(_ context.Context, auctionID string, status domain.AuctionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if auction, ok := r.auctions[auctionID]; ok {
		auction.Status = status
	}
	return nil
}

func (r *fakeAuctionRepo) GetActiveAuctions(context.Context) ([]*domain.Auction, error) {
	return nil, nil
}

func (r *fakeAuctionRepo) lookupCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookups
}

func openAuction(id string, reserve float64) *domain.Auction {
	now := time.Now()
	return &domain.Auction{
		ID:          id,
		StartTime:   now.Add(-time.Hour),
		EndTime:     now.Add(time.Hour),
		StartingBid: reserve,
		Status:      domain.AuctionActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func noplog() logger.Logger { return logger.Nop{} }

func newTestRoom(reserve float64) (*Room, *Dispatcher) {
	dispatcher := NewDispatcher(logger.Nop{})
	room := NewRoom("auction-1", reserve, false, fixedRules{increment: 10},
		dispatcher, nil, logger.Nop{})
	return room, dispatcher
}

func newTestRegistry(repo domain.AuctionRepository, idleGrace time.Duration) *Registry {
	dispatcher := NewDispatcher(logger.Nop{})
	return NewRegistry(repo, fixedRules{increment: 10}, dispatcher, nil,
		idleGrace, time.Hour, logger.Nop{})
}
