package infra_memory_room

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/humanbelnik/movieleague/internal/model"
	storage_room "github.com/humanbelnik/movieleague/internal/storage/room"
	usecase_session "github.com/humanbelnik/movieleague/internal/usecase/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initialRoom(code model.RoomCode) model.Room {
	return model.Room{
		Code:         code,
		CurrentRound: 1,
		Status:       model.StatusSubmitting,
		Players:      map[model.PlayerID]model.Player{},
		Submissions:  map[int]map[model.PlayerID]string{},
		Votes:        map[int]map[model.PlayerID]model.PlayerID{},
	}
}

func TestLoadAbsentRoom(t *testing.T) {
	t.Parallel()

	d := New()

	_, err := d.Load(context.Background(), "ABC123")

	assert.ErrorIs(t, err, usecase_session.ErrRoomNotFound)
}

func TestCreateIfAbsent(t *testing.T) {
	t.Parallel()

	d := New()
	ctx := context.Background()

	created, err := d.CreateIfAbsent(ctx, "ABC123", initialRoom("ABC123"))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = d.CreateIfAbsent(ctx, "ABC123", initialRoom("ABC123"))
	require.NoError(t, err)
	assert.False(t, created)
}

// Concurrent first-joins to one fresh code: exactly one creation wins.
func TestCreateIfAbsentRace(t *testing.T) {
	t.Parallel()

	d := New()
	ctx := context.Background()

	const callers = 16
	results := make(chan bool, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := d.CreateIfAbsent(ctx, "ABC123", initialRoom("ABC123"))
			assert.NoError(t, err)
			results <- created
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for created := range results {
		if created {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
}

func TestApplyAndSubscribe(t *testing.T) {
	t.Parallel()

	d := New()
	ctx := context.Background()

	_, err := d.CreateIfAbsent(ctx, "ABC123", initialRoom("ABC123"))
	require.NoError(t, err)

	events, cancel, err := d.Subscribe(ctx, "ABC123")
	require.NoError(t, err)
	defer cancel()

	err = d.Apply(ctx, "ABC123", storage_room.Patch{
		storage_room.PlayerField("p1", model.Player{Nickname: "alice"}),
	})
	require.NoError(t, err)

	select {
	case room := <-events:
		assert.Equal(t, "alice", room.Players["p1"].Nickname)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}

	room, err := d.Load(ctx, "ABC123")
	require.NoError(t, err)
	assert.Len(t, room.Players, 1)
}

func TestApplyIf(t *testing.T) {
	t.Parallel()

	d := New()
	ctx := context.Background()

	_, err := d.CreateIfAbsent(ctx, "ABC123", initialRoom("ABC123"))
	require.NoError(t, err)

	advance := storage_room.Patch{storage_room.StatusField(model.StatusVoting)}
	cond := storage_room.Cond{Status: model.StatusSubmitting, CurrentRound: 1}

	require.NoError(t, d.ApplyIf(ctx, "ABC123", advance, cond))

	// Second writer acted on the same observed snapshot; the phase
	// already moved, so its advance is rejected, not replayed.
	err = d.ApplyIf(ctx, "ABC123", advance, cond)
	assert.ErrorIs(t, err, usecase_session.ErrConflict)

	room, err := d.Load(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, model.StatusVoting, room.Status)
}

func TestCancelStopsDelivery(t *testing.T) {
	t.Parallel()

	d := New()
	ctx := context.Background()

	_, err := d.CreateIfAbsent(ctx, "ABC123", initialRoom("ABC123"))
	require.NoError(t, err)

	events, cancel, err := d.Subscribe(ctx, "ABC123")
	require.NoError(t, err)
	cancel()

	_, open := <-events
	assert.False(t, open)
}

// A deep copy must cross the store boundary, or callers could mutate
// shared state behind the lock.
func TestLoadReturnsCopy(t *testing.T) {
	t.Parallel()

	d := New()
	ctx := context.Background()

	_, err := d.CreateIfAbsent(ctx, "ABC123", initialRoom("ABC123"))
	require.NoError(t, err)

	room, err := d.Load(ctx, "ABC123")
	require.NoError(t, err)
	room.Players["intruder"] = model.Player{Nickname: "intruder"}

	reloaded, err := d.Load(ctx, "ABC123")
	require.NoError(t, err)
	assert.Empty(t, reloaded.Players)
}
