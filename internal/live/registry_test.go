package live

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"online-auction/internal/domain"
)

func TestGetOrCreateRoomReturnsSingleInstance(t *testing.T) {
	defer leaktest.Check(t)()

	repo := newFakeAuctionRepo(openAuction("auction-1", 50))
	reg := newTestRegistry(repo, time.Minute)
	ctx := context.Background()

	const callers = 20
	rooms := make([]*Room, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rooms[i], errs[i] = reg.GetOrCreateRoom(ctx, "auction-1")
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, rooms[0], rooms[i])
	}
	// One seed lookup for all concurrent creators.
	assert.Equal(t, 1, repo.lookupCount())
}

func TestGetOrCreateRoomUnknownAuction(t *testing.T) {
	repo := newFakeAuctionRepo()
	reg := newTestRegistry(repo, time.Minute)
	ctx := context.Background()

	_, err := reg.GetOrCreateRoom(ctx, "nope")
	require.ErrorIs(t, err, domain.ErrAuctionNotFound)

	_, ok := reg.Lookup("nope")
	assert.False(t, ok)

	// The failed entry is gone, so a retry hits storage again.
	_, err = reg.GetOrCreateRoom(ctx, "nope")
	require.ErrorIs(t, err, domain.ErrAuctionNotFound)
	assert.Equal(t, 2, repo.lookupCount())
}

func TestSeedsClosedRoomForEndedAuction(t *testing.T) {
	ended := openAuction("auction-1", 50)
	ended.Status = domain.AuctionEnded
	repo := newFakeAuctionRepo(ended)
	reg := newTestRegistry(repo, time.Minute)
	ctx := context.Background()

	room, err := reg.GetOrCreateRoom(ctx, "auction-1")
	require.NoError(t, err)

	res, err := room.SubmitBid(ctx, domain.BidSubmission{BidderID: "alice", Amount: 500})
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, domain.ReasonAuctionClosed, res.Reason)
}

func TestRetireRoomWithMembersIsNoop(t *testing.T) {
	repo := newFakeAuctionRepo(openAuction("auction-1", 50))
	reg := newTestRegistry(repo, 0)
	ctx := context.Background()

	room, err := reg.GetOrCreateRoom(ctx, "auction-1")
	require.NoError(t, err)
	_, err = room.Join(ctx, newFakeConn("conn-1", "alice"))
	require.NoError(t, err)
	require.NoError(t, room.Close(ctx))

	reg.RetireRoom("auction-1")
	_, ok := reg.Lookup("auction-1")
	assert.True(t, ok, "room with members must not be retired")
}

func TestRetireClosedEmptyRoom(t *testing.T) {
	repo := newFakeAuctionRepo(openAuction("auction-1", 50))
	reg := newTestRegistry(repo, 0)
	ctx := context.Background()

	room, err := reg.GetOrCreateRoom(ctx, "auction-1")
	require.NoError(t, err)

	// An open room never retires, regardless of idleness.
	reg.RetireRoom("auction-1")
	_, ok := reg.Lookup("auction-1")
	require.True(t, ok)

	require.NoError(t, room.Close(ctx))
	reg.RetireRoom("auction-1")
	_, ok = reg.Lookup("auction-1")
	assert.False(t, ok)

	// A fresh join recreates the room from storage.
	_, err = reg.GetOrCreateRoom(ctx, "auction-1")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.lookupCount())
}

func TestJanitorSweepsRetirableRooms(t *testing.T) {
	repo := newFakeAuctionRepo(openAuction("auction-1", 50), openAuction("auction-2", 50))
	reg := newTestRegistry(repo, 0)
	ctx := context.Background()

	closedRoom, err := reg.GetOrCreateRoom(ctx, "auction-1")
	require.NoError(t, err)
	require.NoError(t, closedRoom.Close(ctx))

	_, err = reg.GetOrCreateRoom(ctx, "auction-2")
	require.NoError(t, err)

	reg.sweep()

	_, ok := reg.Lookup("auction-1")
	assert.False(t, ok)
	_, ok = reg.Lookup("auction-2")
	assert.True(t, ok)
}
