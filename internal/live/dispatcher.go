package live

import (
	"online-auction/internal/domain"
	"online-auction/pkg/logger"
)

// Dispatcher fans outbound events out to room members. Delivery to one
// member never blocks or aborts delivery to another: Conn.Send is a
// bounded enqueue that fails fast, and a failed enqueue schedules that
// connection for lifecycle cleanup instead of propagating anywhere.
type Dispatcher struct {
	log  logger.Logger
	drop func(connectionID string)
}

func NewDispatcher(log logger.Logger) *Dispatcher {
	return &Dispatcher{log: log}
}

// SetDropHandler installs the lifecycle callback invoked for connections
// whose delivery failed. Called once during wiring, before any traffic.
func (d *Dispatcher) SetDropHandler(fn func(connectionID string)) {
	d.drop = fn
}

// Broadcast delivers event to every member. The caller (the room) holds
// its serialization slot while broadcasting, so events reach each
// member's outbound queue in commit order.
func (d *Dispatcher) Broadcast(members []domain.Conn, event interface{}) {
	for _, conn := range members {
		d.deliver(conn, event)
	}
}

// SendTo is the unicast path, used for join snapshots and bid rejections.
func (d *Dispatcher) SendTo(conn domain.Conn, event interface{}) {
	d.deliver(conn, event)
}

func (d *Dispatcher) deliver(conn domain.Conn, event interface{}) {
	err := conn.Send(event)
	if err == nil {
		return
	}
	d.log.Warn("Dropping member after failed delivery",
		"connection_id", conn.ConnectionID(), "user_id", conn.UserID(), "error", err)
	if d.drop != nil {
		// Cleanup re-enters the room's serialized mutation path, so it
		// must not run inline under the room's slot.
		go d.drop(conn.ConnectionID())
	}
}
