package live

import (
	"context"
	"sync"

	"online-auction/internal/domain"
	"online-auction/pkg/logger"
)

type trackedConn struct {
	conn  domain.Conn
	rooms map[string]*Room // auctionID -> room membership
}

// LifecycleManager is the single translation point between raw transport
// notifications (connect, join/leave messages, disconnect) and core room
// operations. A transport connection starts with no memberships; it must
// explicitly ask to join an auction. A reconnecting client is a brand
// new connection and re-joins for a fresh snapshot.
type LifecycleManager struct {
	registry   *Registry
	dispatcher *Dispatcher
	log        logger.Logger

	mu    sync.Mutex
	conns map[string]*trackedConn
}

func NewLifecycleManager(registry *Registry, dispatcher *Dispatcher, log logger.Logger) *LifecycleManager {
	lm := &LifecycleManager{
		registry:   registry,
		dispatcher: dispatcher,
		log:        log,
		conns:      make(map[string]*trackedConn),
	}
	dispatcher.SetDropHandler(lm.Drop)
	return lm
}

// Connect registers a transport connection with no room memberships.
func (lm *LifecycleManager) Connect(conn domain.Conn) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if _, ok := lm.conns[conn.ConnectionID()]; !ok {
		lm.conns[conn.ConnectionID()] = &trackedConn{conn: conn, rooms: make(map[string]*Room)}
	}
	lm.log.Info("Connection registered", "connection_id", conn.ConnectionID(), "user_id", conn.UserID())
}

// JoinAuction resolves the room, joins the connection and sends the
// snapshot back over the same connection.
func (lm *LifecycleManager) JoinAuction(ctx context.Context, auctionID string, conn domain.Conn) (domain.Snapshot, error) {
	room, err := lm.registry.GetOrCreateRoom(ctx, auctionID)
	if err != nil {
		return domain.Snapshot{}, err
	}

	snap, err := room.Join(ctx, conn)
	if err != nil {
		return domain.Snapshot{}, err
	}

	lm.mu.Lock()
	tracked, ok := lm.conns[conn.ConnectionID()]
	if !ok {
		tracked = &trackedConn{conn: conn, rooms: make(map[string]*Room)}
		lm.conns[conn.ConnectionID()] = tracked
	}
	tracked.rooms[auctionID] = room
	lm.mu.Unlock()

	lm.dispatcher.SendTo(conn, &domain.SnapshotEvent{Type: domain.EventSnapshot, Snapshot: snap})
	lm.log.Info("Joined auction", "connection_id", conn.ConnectionID(),
		"user_id", conn.UserID(), "auction_id", auctionID, "sequence", snap.Sequence)
	return snap, nil
}

// LeaveAuction removes one membership. Unknown connections or auctions
// are a no-op, tolerating duplicate leave notifications.
func (lm *LifecycleManager) LeaveAuction(connectionID, auctionID string) {
	lm.mu.Lock()
	tracked, ok := lm.conns[connectionID]
	var room *Room
	if ok {
		room = tracked.rooms[auctionID]
		delete(tracked.rooms, auctionID)
	}
	lm.mu.Unlock()

	if room != nil {
		room.Leave(connectionID)
	}
}

// Disconnect treats a transport-level disconnect as an implicit leave
// from every room the connection was a member of. Not an error.
func (lm *LifecycleManager) Disconnect(connectionID string) {
	lm.mu.Lock()
	tracked, ok := lm.conns[connectionID]
	if ok {
		delete(lm.conns, connectionID)
	}
	lm.mu.Unlock()
	if !ok {
		return
	}

	for auctionID, room := range tracked.rooms {
		room.Leave(connectionID)
		lm.log.Info("Implicit leave on disconnect",
			"connection_id", connectionID, "auction_id", auctionID)
	}
}

// Drop is the dispatcher's cleanup path for connections whose delivery
// failed: leave everything and close the transport.
func (lm *LifecycleManager) Drop(connectionID string) {
	lm.mu.Lock()
	tracked, ok := lm.conns[connectionID]
	lm.mu.Unlock()

	lm.Disconnect(connectionID)
	if ok {
		if err := tracked.conn.Close(); err != nil {
			lm.log.Debug("Closing dropped connection", "connection_id", connectionID, "error", err)
		}
	}
}
