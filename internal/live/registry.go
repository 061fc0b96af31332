package live

import (
	"context"
	"fmt"
	"sync"
	"time"

	"online-auction/internal/domain"
	"online-auction/pkg/logger"
)

// Registry maps auction IDs to live rooms. Creation is create-on-first-
// use: the first caller seeds the room from the auction record, everyone
// else gets the same instance. Lookup and insert go through a sync.Map
// so unrelated rooms never contend on a global lock.
type Registry struct {
	auctions   domain.AuctionRepository
	rules      domain.BidRules
	dispatcher *Dispatcher
	sink       EventSink
	log        logger.Logger

	idleGrace       time.Duration
	janitorInterval time.Duration

	rooms    sync.Map // auctionID -> *roomEntry
	stopOnce sync.Once
	stop     chan struct{}
}

// roomEntry defers seeding behind a sync.Once so concurrent
// GetOrCreateRoom callers for the same auction wait for a single seed
// instead of racing two room instances into existence.
type roomEntry struct {
	once sync.Once
	room *Room
	err  error
}

func NewRegistry(auctions domain.AuctionRepository, rules domain.BidRules,
	dispatcher *Dispatcher, sink EventSink,
	idleGrace, janitorInterval time.Duration, log logger.Logger) *Registry {
	return &Registry{
		auctions:        auctions,
		rules:           rules,
		dispatcher:      dispatcher,
		sink:            sink,
		log:             log,
		idleGrace:       idleGrace,
		janitorInterval: janitorInterval,
		stop:            make(chan struct{}),
	}
}

// GetOrCreateRoom returns the live room for auctionID, creating it from
// the stored auction record on first use. It never hands two distinct
// room instances for the same auction to concurrent callers. An unknown
// auction creates nothing and returns ErrAuctionNotFound.
func (reg *Registry) GetOrCreateRoom(ctx context.Context, auctionID string) (*Room, error) {
	v, _ := reg.rooms.LoadOrStore(auctionID, &roomEntry{})
	entry := v.(*roomEntry)

	entry.once.Do(func() {
		entry.room, entry.err = reg.seedRoom(ctx, auctionID)
	})
	if entry.err != nil {
		// Drop the failed entry so a later caller can retry the seed.
		reg.rooms.CompareAndDelete(auctionID, v)
		return nil, entry.err
	}
	return entry.room, nil
}

// Lookup returns the room only if it already exists and is seeded.
func (reg *Registry) Lookup(auctionID string) (*Room, bool) {
	v, ok := reg.rooms.Load(auctionID)
	if !ok {
		return nil, false
	}
	entry := v.(*roomEntry)
	if entry.room == nil {
		return nil, false
	}
	return entry.room, true
}

// RetireRoom removes a closed, empty room that has been idle past the
// grace period. Retiring a room that still has members points at a logic
// error upstream; it is logged and skipped, never fatal.
func (reg *Registry) RetireRoom(auctionID string) {
	room, ok := reg.Lookup(auctionID)
	if !ok {
		return
	}
	ok, reason := room.canRetire(reg.idleGrace)
	if !ok {
		reg.log.Warn("Refusing to retire room", "auction_id", auctionID, "reason", reason)
		return
	}
	reg.rooms.Delete(auctionID)
	reg.log.Info("Room retired", "auction_id", auctionID)
}

// Start launches the janitor that sweeps retirable rooms.
func (reg *Registry) Start() {
	go func() {
		ticker := time.NewTicker(reg.janitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				reg.sweep()
			case <-reg.stop:
				return
			}
		}
	}()
}

func (reg *Registry) Stop() {
	reg.stopOnce.Do(func() { close(reg.stop) })
}

func (reg *Registry) sweep() {
	reg.rooms.Range(func(key, value interface{}) bool {
		entry := value.(*roomEntry)
		if entry.room == nil {
			return true
		}
		if ok, _ := entry.room.canRetire(reg.idleGrace); ok {
			reg.rooms.Delete(key)
			reg.log.Info("Room retired", "auction_id", key)
		}
		return true
	})
}

func (reg *Registry) seedRoom(ctx context.Context, auctionID string) (*Room, error) {
	auction, err := reg.auctions.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("seeding room %s: %w", auctionID, err)
	}

	closed := auction.Status == domain.AuctionEnded ||
		auction.Status == domain.AuctionCancelled ||
		time.Now().After(auction.EndTime)

	reg.log.Info("Room created", "auction_id", auctionID,
		"reserve", auction.StartingBid, "closed", closed)
	return NewRoom(auctionID, auction.StartingBid, closed,
		reg.rules, reg.dispatcher, reg.sink, reg.log), nil
}
