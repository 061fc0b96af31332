package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"online-auction/internal/domain"
	"online-auction/internal/live"
	"online-auction/pkg/logger"
)

type memAuctionRepo struct {
	mu       sync.Mutex
	auctions map[string]*domain.Auction
}

func newMemAuctionRepo() *memAuctionRepo {
	return &memAuctionRepo{auctions: make(map[string]*domain.Auction)}
}

func (r *memAuctionRepo) CreateAuction(_ context.Context, auction *domain.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auctions[auction.ID] = auction
	return nil
}

func (r *memAuctionRepo) GetAuction(_ context.Context, auctionID string) (*domain.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	auction, ok := r.auctions[auctionID]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	return auction, nil
}

func (r *memAuctionRepo) UpdateAuctionStatus(_ context.Context, auctionID string, status domain.AuctionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if auction, ok := r.auctions[auctionID]; ok {
		auction.Status = status
	}
	return nil
}

func (r *memAuctionRepo) GetActiveAuctions(context.Context) ([]*domain.Auction, error) {
	return nil, nil
}

type memBidRepo struct{}

func (memBidRepo) SaveBidEvent(context.Context, *domain.BidEvent) error { return nil }
func (memBidRepo) GetBidHistory(context.Context, string) ([]*domain.BidEvent, error) {
	return nil, nil
}

type recordingScheduler struct {
	mu     sync.Mutex
	starts []string
	ends   []string
}

func (s *recordingScheduler) ScheduleAuctionStart(_ context.Context, auctionID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts = append(s.starts, auctionID)
	return nil
}

func (s *recordingScheduler) ScheduleAuctionEnd(_ context.Context, auctionID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ends = append(s.ends, auctionID)
	return nil
}

func (s *recordingScheduler) CancelSchedule(context.Context, string) error { return nil }

func (s *recordingScheduler) Start(context.Context) error { return nil }

func (s *recordingScheduler) Stop() error { return nil }

type flatRules struct{}

func (flatRules) LoadRules(context.Context) error { return nil }

func (flatRules) MinimumBid(current float64) float64 { return current + 5 }

func (flatRules) IncrementRule(float64) float64 { return 5 }

func newManagerUnderTest(repo *memAuctionRepo) (*AuctionManager, *live.Coordinator, *recordingScheduler) {
	log := logger.Nop{}
	dispatcher := live.NewDispatcher(log)
	registry := live.NewRegistry(repo, flatRules{}, dispatcher, nil, time.Minute, time.Hour, log)
	lifecycle := live.NewLifecycleManager(registry, dispatcher, log)
	coordinator := live.NewCoordinator(registry, lifecycle, log)

	manager := NewAuctionManager(repo, memBidRepo{}, coordinator, log)
	scheduler := &recordingScheduler{}
	manager.SetScheduler(scheduler)
	return manager, coordinator, scheduler
}

func TestCreateAuctionSchedulesJobs(t *testing.T) {
	repo := newMemAuctionRepo()
	manager, _, scheduler := newManagerUnderTest(repo)
	ctx := context.Background()

	start := time.Now().Add(time.Hour)
	end := start.Add(time.Hour)
	auction, err := manager.CreateAuction(ctx, start, end, 100)
	require.NoError(t, err)
	assert.Equal(t, domain.AuctionPending, auction.Status)
	assert.Equal(t, []string{auction.ID}, scheduler.starts)
	assert.Equal(t, []string{auction.ID}, scheduler.ends)

	stored, err := repo.GetAuction(ctx, auction.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, stored.StartingBid)
}

func TestCreateAuctionAlreadyStartedIsActive(t *testing.T) {
	repo := newMemAuctionRepo()
	manager, _, scheduler := newManagerUnderTest(repo)

	start := time.Now().Add(-time.Minute)
	auction, err := manager.CreateAuction(context.Background(), start, start.Add(time.Hour), 100)
	require.NoError(t, err)
	assert.Equal(t, domain.AuctionActive, auction.Status)
	assert.Empty(t, scheduler.starts, "no start job for an already-started auction")
	assert.Equal(t, []string{auction.ID}, scheduler.ends)
}

func TestEndAuctionClosesLiveRoom(t *testing.T) {
	repo := newMemAuctionRepo()
	manager, coordinator, _ := newManagerUnderTest(repo)
	ctx := context.Background()

	auction, err := manager.CreateAuction(ctx, time.Now().Add(-time.Minute), time.Now().Add(time.Hour), 100)
	require.NoError(t, err)

	res, err := coordinator.SubmitBid(ctx, domain.BidSubmission{
		AuctionID: auction.ID, BidderID: "alice", Amount: 150,
	})
	require.NoError(t, err)
	require.True(t, res.Accepted)

	require.NoError(t, manager.EndAuction(ctx, auction.ID))
	require.NoError(t, manager.EndAuction(ctx, auction.ID)) // idempotent

	stored, err := repo.GetAuction(ctx, auction.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AuctionEnded, stored.Status)

	res, err = coordinator.SubmitBid(ctx, domain.BidSubmission{
		AuctionID: auction.ID, BidderID: "bob", Amount: 500,
	})
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, domain.ReasonAuctionClosed, res.Reason)

	snap, err := coordinator.AuctionState(ctx, auction.ID)
	require.NoError(t, err)
	assert.True(t, snap.Closed)
	assert.Equal(t, 150.0, snap.CurrentBid.Amount)
}
