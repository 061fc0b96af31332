package live

import (
	"context"

	"online-auction/internal/domain"
	"online-auction/pkg/logger"
)

// Coordinator is the core's inbound contract for the surrounding API and
// scheduler layers. Callers are assumed authenticated and authorized
// before any of these are invoked.
type Coordinator struct {
	registry  *Registry
	lifecycle *LifecycleManager
	log       logger.Logger
}

func NewCoordinator(registry *Registry, lifecycle *LifecycleManager, log logger.Logger) *Coordinator {
	return &Coordinator{
		registry:  registry,
		lifecycle: lifecycle,
		log:       log,
	}
}

// SubmitBid routes a validated submission through the auction's room.
// The result says whether the bid became the new authoritative bid (and
// at which sequence number) or why it was rejected. Retrying a rejected
// bid is the caller's business, never the core's.
func (c *Coordinator) SubmitBid(ctx context.Context, sub domain.BidSubmission) (domain.SubmitResult, error) {
	room, err := c.registry.GetOrCreateRoom(ctx, sub.AuctionID)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	return room.SubmitBid(ctx, sub)
}

// Connect registers a fresh transport connection. It belongs to no room
// until it explicitly joins one.
func (c *Coordinator) Connect(conn domain.Conn) {
	c.lifecycle.Connect(conn)
}

// JoinRoom adds the connection to the auction's room and returns (and
// delivers) the authoritative snapshot.
func (c *Coordinator) JoinRoom(ctx context.Context, auctionID string, conn domain.Conn) (domain.Snapshot, error) {
	return c.lifecycle.JoinAuction(ctx, auctionID, conn)
}

// LeaveRoom removes one membership.
func (c *Coordinator) LeaveRoom(connectionID, auctionID string) {
	c.lifecycle.LeaveAuction(connectionID, auctionID)
}

// Disconnect is the implicit leave-from-everything on transport loss.
func (c *Coordinator) Disconnect(connectionID string) {
	c.lifecycle.Disconnect(connectionID)
}

// CloseAuction seals the live room when the auction's end time is
// reached. No live room means nobody is watching; persistent status is
// the scheduler's job and there is nothing to broadcast.
func (c *Coordinator) CloseAuction(ctx context.Context, auctionID string) error {
	room, ok := c.registry.Lookup(auctionID)
	if !ok {
		return nil
	}
	return room.Close(ctx)
}

// AuctionState exposes the room snapshot for the HTTP read path.
func (c *Coordinator) AuctionState(ctx context.Context, auctionID string) (domain.Snapshot, error) {
	room, err := c.registry.GetOrCreateRoom(ctx, auctionID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return room.State(ctx)
}
