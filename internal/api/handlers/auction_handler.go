package handlers

import (
	"errors"
	"net/http"
	"time"

	"online-auction/internal/domain"
	"online-auction/internal/live"
	"online-auction/internal/services"
	"online-auction/pkg/logger"

	"github.com/labstack/echo/v4"
)

type AuctionHandler struct {
	auctionManager *services.AuctionManager
	coordinator    *live.Coordinator
	log            logger.Logger
}

type CreateAuctionRequest struct {
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	StartingBid float64   `json:"starting_bid"`
}

type CreateAuctionResponse struct {
	AuctionID   string    `json:"auction_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	StartingBid float64   `json:"starting_bid"`
	Status      string    `json:"status"`
}

type PlaceBidRequest struct {
	BidderID string  `json:"bidder_id"`
	Amount   float64 `json:"amount"`
}

type PlaceBidResponse struct {
	Accepted bool   `json:"accepted"`
	Sequence uint64 `json:"sequence,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func NewAuctionHandler(auctionManager *services.AuctionManager, coordinator *live.Coordinator,
	log logger.Logger) *AuctionHandler {
	return &AuctionHandler{
		auctionManager: auctionManager,
		coordinator:    coordinator,
		log:            log,
	}
}

func (h *AuctionHandler) CreateAuction(c echo.Context) error {
	var req CreateAuctionRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	if req.EndTime.Before(req.StartTime) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "End time must be after start time"})
	}
	if req.StartingBid <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Starting bid must be positive"})
	}

	auction, err := h.auctionManager.CreateAuction(c.Request().Context(), req.StartTime, req.EndTime, req.StartingBid)
	if err != nil {
		h.log.Error("Failed to create auction", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create auction"})
	}

	return c.JSON(http.StatusCreated, CreateAuctionResponse{
		AuctionID:   auction.ID,
		StartTime:   auction.StartTime,
		EndTime:     auction.EndTime,
		StartingBid: auction.StartingBid,
		Status:      auction.Status.String(),
	})
}

func (h *AuctionHandler) GetAuction(c echo.Context) error {
	auctionID := c.Param("id")

	auction, err := h.auctionManager.GetAuction(c.Request().Context(), auctionID)
	if err != nil {
		if errors.Is(err, domain.ErrAuctionNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Auction not found"})
		}
		h.log.Error("Failed to get auction", "auction_id", auctionID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to get auction"})
	}

	snap, err := h.coordinator.AuctionState(c.Request().Context(), auctionID)
	if err != nil {
		h.log.Error("Failed to get live state", "auction_id", auctionID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to get auction state"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"auction_id":   auction.ID,
		"start_time":   auction.StartTime,
		"end_time":     auction.EndTime,
		"starting_bid": auction.StartingBid,
		"status":       auction.Status.String(),
		"current_bid":  snap.CurrentBid,
		"sequence":     snap.Sequence,
		"closed":       snap.Closed,
	})
}

// PlaceBid is the REST bid path. The websocket path carries the same
// submission with a connection ID attached; this one reports the
// outcome in the response body instead.
func (h *AuctionHandler) PlaceBid(c echo.Context) error {
	auctionID := c.Param("id")

	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if req.BidderID == "" || req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bidder_id and positive amount required"})
	}

	result, err := h.coordinator.SubmitBid(c.Request().Context(), domain.BidSubmission{
		AuctionID:  auctionID,
		BidderID:   req.BidderID,
		Amount:     req.Amount,
		ClientTime: time.Now(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrAuctionNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Auction not found"})
		}
		h.log.Error("Failed to submit bid", "auction_id", auctionID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to submit bid"})
	}

	if !result.Accepted {
		return c.JSON(http.StatusConflict, PlaceBidResponse{Reason: string(result.Reason)})
	}
	return c.JSON(http.StatusOK, PlaceBidResponse{Accepted: true, Sequence: result.Sequence})
}

func (h *AuctionHandler) GetBidHistory(c echo.Context) error {
	auctionID := c.Param("id")

	events, err := h.auctionManager.BidHistory(c.Request().Context(), auctionID)
	if err != nil {
		h.log.Error("Failed to get bid history", "auction_id", auctionID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to get bid history"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"auction_id": auctionID,
		"bids":       events,
	})
}
