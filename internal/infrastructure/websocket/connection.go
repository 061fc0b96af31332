package websocket

import (
	"fmt"
	"sync"
	"time"

	"online-auction/internal/domain"
	"online-auction/pkg/logger"

	"github.com/gorilla/websocket"
)

const pingPeriod = 30 * time.Second

// Connection adapts one gorilla websocket to the core's Conn contract.
// All writes funnel through a bounded send queue drained by a single
// write pump, so Send never blocks the room that called it and events
// reach the wire in the order they were enqueued.
type Connection struct {
	id           string
	userID       string
	conn         *websocket.Conn
	send         chan interface{}
	writeTimeout time.Duration
	log          logger.Logger

	closeOnce sync.Once
	done      chan struct{}
}

func NewConnection(id, userID string, conn *websocket.Conn,
	sendBuffer int, writeTimeout time.Duration, log logger.Logger) *Connection {
	return &Connection{
		id:           id,
		userID:       userID,
		conn:         conn,
		send:         make(chan interface{}, sendBuffer),
		writeTimeout: writeTimeout,
		log:          log,
		done:         make(chan struct{}),
	}
}

func (c *Connection) ConnectionID() string {
	return c.id
}

func (c *Connection) UserID() string {
	return c.userID
}

// Send enqueues without blocking. A full queue means the client is not
// keeping up; the dispatcher treats the failure as an implicit leave.
func (c *Connection) Send(event interface{}) error {
	select {
	case <-c.done:
		return domain.ErrSlowConsumer
	default:
	}

	select {
	case c.send <- event:
		return nil
	default:
		return fmt.Errorf("%w: send buffer full", domain.ErrSlowConsumer)
	}
}

func (c *Connection) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

// WritePump is the connection's single writer. Run it in its own
// goroutine; it owns the underlying socket's write side and closes the
// socket on exit, which also unblocks the read loop.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteJSON(event); err != nil {
				c.log.Debug("Write failed", "connection_id", c.id, "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
