package websocket

import (
	"context"
	"errors"
	"net/http"
	"time"

	"online-auction/internal/domain"
	"online-auction/internal/live"
	"online-auction/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

type inboundMessage struct {
	Type      string  `json:"type"`
	AuctionID string  `json:"auction_id"`
	Amount    float64 `json:"amount"`
}

// Handler upgrades HTTP requests to websocket connections and translates
// the client message protocol (join_auction, leave_auction, place_bid,
// ping) into coordinator calls. Authentication happened upstream; the
// caller identity arrives as a query parameter here.
type Handler struct {
	coordinator  *live.Coordinator
	joinTimeout  time.Duration
	sendBuffer   int
	writeTimeout time.Duration
	log          logger.Logger
}

func NewHandler(coordinator *live.Coordinator, joinTimeout time.Duration,
	sendBuffer int, writeTimeout time.Duration, log logger.Logger) *Handler {
	return &Handler{
		coordinator:  coordinator,
		joinTimeout:  joinTimeout,
		sendBuffer:   sendBuffer,
		writeTimeout: writeTimeout,
		log:          log,
	}
}

func (h *Handler) HandleConnection(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "user_id required"})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return nil
	}

	conn := NewConnection(uuid.NewString(), userID, ws, h.sendBuffer, h.writeTimeout, h.log)
	h.coordinator.Connect(conn)

	go conn.WritePump()
	h.readLoop(ws, conn)
	return nil
}

func (h *Handler) readLoop(ws *websocket.Conn, conn *Connection) {
	defer func() {
		h.coordinator.Disconnect(conn.ConnectionID())
		conn.Close()
	}()

	for {
		var msg inboundMessage
		if err := ws.ReadJSON(&msg); err != nil {
			h.log.Debug("Read loop ended", "connection_id", conn.ConnectionID(), "error", err)
			return
		}

		switch msg.Type {
		case "join_auction":
			h.handleJoin(conn, msg)
		case "leave_auction":
			h.coordinator.LeaveRoom(conn.ConnectionID(), msg.AuctionID)
		case "place_bid":
			h.handleBid(conn, msg)
		case "ping":
			conn.Send(map[string]string{"type": "pong"})
		}
	}
}

func (h *Handler) handleJoin(conn *Connection, msg inboundMessage) {
	if msg.AuctionID == "" {
		conn.Send(map[string]string{"type": "error", "message": "auction_id required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.joinTimeout)
	defer cancel()

	// The snapshot itself is delivered by the lifecycle manager over
	// this same connection.
	if _, err := h.coordinator.JoinRoom(ctx, msg.AuctionID, conn); err != nil {
		h.log.Warn("Join failed", "connection_id", conn.ConnectionID(),
			"auction_id", msg.AuctionID, "error", err)
		conn.Send(map[string]string{"type": "error", "message": joinErrorMessage(err)})
	}
}

func (h *Handler) handleBid(conn *Connection, msg inboundMessage) {
	if msg.AuctionID == "" || msg.Amount <= 0 {
		conn.Send(map[string]string{"type": "error", "message": "auction_id and positive amount required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.joinTimeout)
	defer cancel()

	_, err := h.coordinator.SubmitBid(ctx, domain.BidSubmission{
		AuctionID:    msg.AuctionID,
		BidderID:     conn.UserID(),
		Amount:       msg.Amount,
		ClientTime:   time.Now(),
		ConnectionID: conn.ConnectionID(),
	})
	if err != nil {
		h.log.Error("Failed to place bid", "connection_id", conn.ConnectionID(),
			"auction_id", msg.AuctionID, "error", err)
		conn.Send(map[string]string{"type": "error", "message": "failed to place bid"})
	}
	// Acceptance arrives as the room broadcast; rejection as a unicast
	// bid_rejected. Nothing more to send here.
}

func joinErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, domain.ErrAuctionNotFound) {
		return "auction not found"
	}
	return "join failed"
}
