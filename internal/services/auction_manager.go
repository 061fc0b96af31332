package services

import (
	"context"
	"time"

	"online-auction/internal/domain"
	"online-auction/internal/live"
	"online-auction/pkg/logger"
	"online-auction/pkg/utils"
)

// AuctionManager is the CRUD-side orchestration around the live core:
// it persists auction records, schedules their start and end, and drives
// the coordinator when an auction's lifecycle changes.
type AuctionManager struct {
	auctionRepo domain.AuctionRepository
	bidRepo     domain.BidEventRepository
	scheduler   domain.AuctionScheduler
	coordinator *live.Coordinator
	log         logger.Logger
}

func NewAuctionManager(
	auctionRepo domain.AuctionRepository,
	bidRepo domain.BidEventRepository,
	coordinator *live.Coordinator,
	log logger.Logger,
) *AuctionManager {
	return &AuctionManager{
		auctionRepo: auctionRepo,
		bidRepo:     bidRepo,
		coordinator: coordinator,
		log:         log,
	}
}

// SetScheduler breaks the constructor cycle between manager and
// scheduler; call it during wiring before Start.
func (am *AuctionManager) SetScheduler(scheduler domain.AuctionScheduler) {
	am.scheduler = scheduler
}

func (am *AuctionManager) CreateAuction(ctx context.Context, startTime, endTime time.Time, startingBid float64) (*domain.Auction, error) {
	auction := &domain.Auction{
		ID:          utils.GenerateID("auction"),
		StartTime:   startTime,
		EndTime:     endTime,
		StartingBid: startingBid,
		Status:      domain.AuctionPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if !startTime.After(time.Now()) {
		auction.Status = domain.AuctionActive
	}

	if err := am.auctionRepo.CreateAuction(ctx, auction); err != nil {
		return nil, err
	}

	if auction.Status == domain.AuctionPending {
		if err := am.scheduler.ScheduleAuctionStart(ctx, auction.ID, startTime); err != nil {
			return nil, err
		}
	}
	if err := am.scheduler.ScheduleAuctionEnd(ctx, auction.ID, endTime); err != nil {
		return nil, err
	}

	am.log.Info("Auction created", "auction_id", auction.ID,
		"starting_bid", startingBid, "end_time", endTime)
	return auction, nil
}

func (am *AuctionManager) GetAuction(ctx context.Context, auctionID string) (*domain.Auction, error) {
	return am.auctionRepo.GetAuction(ctx, auctionID)
}

func (am *AuctionManager) BidHistory(ctx context.Context, auctionID string) ([]*domain.BidEvent, error) {
	return am.bidRepo.GetBidHistory(ctx, auctionID)
}

func (am *AuctionManager) StartAuction(ctx context.Context, auctionID string) error {
	am.log.Info("Starting auction", "auction_id", auctionID)
	return am.auctionRepo.UpdateAuctionStatus(ctx, auctionID, domain.AuctionActive)
}

// EndAuction flips the persistent status and seals the live room so
// every connected participant receives the terminal broadcast.
func (am *AuctionManager) EndAuction(ctx context.Context, auctionID string) error {
	am.log.Info("Ending auction", "auction_id", auctionID)

	auction, err := am.auctionRepo.GetAuction(ctx, auctionID)
	if err != nil {
		return err
	}
	if auction.Status == domain.AuctionEnded || auction.Status == domain.AuctionCancelled {
		return nil
	}

	if err := am.auctionRepo.UpdateAuctionStatus(ctx, auctionID, domain.AuctionEnded); err != nil {
		return err
	}
	return am.coordinator.CloseAuction(ctx, auctionID)
}
