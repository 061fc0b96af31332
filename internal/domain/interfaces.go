package domain

import (
	"context"
	"time"
)

// Repository interfaces
type AuctionRepository interface {
	CreateAuction(ctx context.Context, auction *Auction) error
	GetAuction(ctx context.Context, auctionID string) (*Auction, error)
	UpdateAuctionStatus(ctx context.Context, auctionID string, status AuctionStatus) error
	GetActiveAuctions(ctx context.Context) ([]*Auction, error)
}

type BidEventRepository interface {
	SaveBidEvent(ctx context.Context, event *BidEvent) error
	GetBidHistory(ctx context.Context, auctionID string) ([]*BidEvent, error)
}

type SchedulerRepository interface {
	CreateJob(ctx context.Context, job *ScheduledJob) error
	GetPendingJobs(ctx context.Context, before time.Time) ([]*ScheduledJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus) error
	CancelJobsForAuction(ctx context.Context, auctionID string) error
}

// Event interfaces
type EventPublisher interface {
	PublishBidEvent(ctx context.Context, event *BidEvent) error
}

// BidRules supplies the minimum-increment policy. Thresholds are external
// configuration owned by the CRUD layer, not hardcoded in arbitration.
type BidRules interface {
	LoadRules(ctx context.Context) error
	MinimumBid(currentAmount float64) float64
	IncrementRule(amount float64) float64
}

// Scheduler interface
type AuctionScheduler interface {
	ScheduleAuctionStart(ctx context.Context, auctionID string, startTime time.Time) error
	ScheduleAuctionEnd(ctx context.Context, auctionID string, endTime time.Time) error
	CancelSchedule(ctx context.Context, auctionID string) error
	Start(ctx context.Context) error
	Stop() error
}

// Conn is the core's view of one participant's duplex transport channel.
// Send must not block the caller: implementations enqueue into a bounded
// outbound buffer and fail fast when the buffer is full or the connection
// is gone. A failed Send marks the connection for lifecycle cleanup.
type Conn interface {
	ConnectionID() string
	UserID() string
	Send(event interface{}) error
	Close() error
}
