package usecase_session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/humanbelnik/movieleague/internal/model"
	storage_room "github.com/humanbelnik/movieleague/internal/storage/room"
	usecase_game "github.com/humanbelnik/movieleague/internal/usecase/game"
)

var (
	ErrInternal         = errors.New("internal error")
	ErrRoomNotFound     = errors.New("no such room")
	ErrRoomsUnavailable = errors.New("no available rooms")
	ErrConflict         = errors.New("room changed underneath the write")
	ErrAlreadyStarted   = errors.New("session already started")
	ErrNotStarted       = errors.New("session not started")
	ErrNoVoteSelection  = errors.New("no vote selected")
)

//go:generate mockery --name=RoomStore --output=./mocks/session/store --filename=store.go
type RoomStore interface {
	Load(ctx context.Context, code model.RoomCode) (model.Room, error)
	CreateIfAbsent(ctx context.Context, code model.RoomCode, initial model.Room) (bool, error)
	Apply(ctx context.Context, code model.RoomCode, patch storage_room.Patch) error
	ApplyIf(ctx context.Context, code model.RoomCode, patch storage_room.Patch, cond storage_room.Cond) error
	Subscribe(ctx context.Context, code model.RoomCode) (<-chan model.Room, func(), error)
}

// Coordinator drives one player's session against the shared room
// document. There is no privileged process: every session re-evaluates
// phase completion on every snapshot and issues the advance itself,
// guarded by the machine's Cond.
type Coordinator struct {
	store   RoomStore
	machine *usecase_game.Machine
	logger  *slog.Logger

	mu       sync.RWMutex
	code     model.RoomCode
	playerID model.PlayerID
	snapshot model.Room
	started  bool

	updates   chan struct{}
	cancelSub func()
}

func NewCoordinator(store RoomStore, machine *usecase_game.Machine) *Coordinator {
	return &Coordinator{
		store:   store,
		machine: machine,
		logger:  slog.Default(),
		updates: make(chan struct{}, 1),
	}
}

// Start joins a room (creating it when the code is empty or unknown) and
// opens the change subscription. Empty code means "make me a fresh room".
func (c *Coordinator) Start(ctx context.Context, rawCode string, nickname string) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.mu.Unlock()

	code := model.NormalizeRoomCode(rawCode)
	var err error
	if code == model.EmptyRoomCode {
		code, err = bookFreshRoom(ctx, c.store, c.machine)
		if err != nil {
			return err
		}
	} else {
		if _, err = c.store.CreateIfAbsent(ctx, code, c.machine.NewRoom(code)); err != nil {
			return errors.Join(ErrInternal, err)
		}
	}

	room, err := c.store.Load(ctx, code)
	if err != nil {
		return errors.Join(ErrInternal, err)
	}

	next, patch, playerID, err := c.machine.Join(room, nickname)
	if err != nil {
		return err
	}
	if err := c.store.Apply(ctx, code, patch); err != nil {
		return errors.Join(ErrInternal, err)
	}

	events, cancel, err := c.store.Subscribe(ctx, code)
	if err != nil {
		return errors.Join(ErrInternal, err)
	}

	c.mu.Lock()
	c.code = code
	c.playerID = playerID
	c.snapshot = next
	c.started = true
	c.cancelSub = cancel
	c.mu.Unlock()

	go c.run(events)
	c.signal()
	return nil
}

// bookFreshRoom assumes generated codes can conflict and retries.
func bookFreshRoom(ctx context.Context, store RoomStore, machine *usecase_game.Machine) (model.RoomCode, error) {
	var retries = 3
	for retries > 0 {
		code := machine.BuildRoomCode()
		created, err := store.CreateIfAbsent(ctx, code, machine.NewRoom(code))
		if err != nil {
			return model.EmptyRoomCode, errors.Join(ErrInternal, err)
		}
		if created {
			return code, nil
		}
		retries--
	}
	return model.EmptyRoomCode, ErrRoomsUnavailable
}

func (c *Coordinator) SubmitIntent(ctx context.Context, title string) error {
	c.mu.RLock()
	if !c.started {
		c.mu.RUnlock()
		return ErrNotStarted
	}
	code, playerID, snapshot := c.code, c.playerID, c.snapshot
	c.mu.RUnlock()

	next, patch, err := c.machine.Submit(snapshot, playerID, title)
	if err != nil {
		return err
	}
	if len(patch) == 0 {
		return nil
	}
	if err := c.store.Apply(ctx, code, patch); err != nil {
		return errors.Join(ErrInternal, err)
	}

	c.setSnapshot(next)
	return nil
}

func (c *Coordinator) VoteIntent(ctx context.Context, target model.PlayerID) error {
	if target == model.EmptyPlayerID {
		return ErrNoVoteSelection
	}

	c.mu.RLock()
	if !c.started {
		c.mu.RUnlock()
		return ErrNotStarted
	}
	code, playerID, snapshot := c.code, c.playerID, c.snapshot
	c.mu.RUnlock()

	next, patch, err := c.machine.Vote(snapshot, playerID, target)
	if err != nil {
		return err
	}
	if err := c.store.Apply(ctx, code, patch); err != nil {
		return errors.Join(ErrInternal, err)
	}

	c.setSnapshot(next)
	return nil
}

// run consumes the store subscription. Completion depends on what the
// other players wrote, so every delivered snapshot gets re-checked.
func (c *Coordinator) run(events <-chan model.Room) {
	for room := range events {
		c.setSnapshot(room)

		_, patch, cond, changed := c.machine.TryAdvance(room)
		if !changed {
			continue
		}
		err := c.store.ApplyIf(context.Background(), c.Code(), patch, cond)
		switch {
		case err == nil:
		case errors.Is(err, ErrConflict):
			// Another session advanced first; its write wins.
		default:
			c.logger.Error("failed to advance room",
				"room", c.Code(), "error", err)
		}
	}
}

func (c *Coordinator) setSnapshot(room model.Room) {
	c.mu.Lock()
	c.snapshot = room
	c.mu.Unlock()
	c.signal()
}

func (c *Coordinator) signal() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}

// Updates coalesces change notifications; consumers re-read View.
func (c *Coordinator) Updates() <-chan struct{} {
	return c.updates
}

func (c *Coordinator) Close() {
	c.mu.Lock()
	cancel := c.cancelSub
	c.cancelSub = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (c *Coordinator) Code() model.RoomCode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.code
}

func (c *Coordinator) PlayerID() model.PlayerID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

func (c *Coordinator) Snapshot() model.Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// View derives the presentation model for this player from the cached
// snapshot. The presentation layer never reads raw room fields.
func (c *Coordinator) View() model.View {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := c.snapshot
	me, present := snap.Players[c.playerID]
	if !c.started || !present {
		return model.View{Kind: model.ViewJoining}
	}

	switch snap.Status {
	case model.StatusSubmitting:
		if me.HasSubmitted {
			return model.View{
				Kind:      model.ViewWaitingForSubmissions,
				RoomCode:  snap.Code,
				Round:     snap.CurrentRound,
				Standings: model.Ranked(snap),
			}
		}
		if len(snap.Players) < 2 {
			return model.View{
				Kind:     model.ViewLobby,
				RoomCode: snap.Code,
				Round:    snap.CurrentRound,
				Players:  nicknamesInJoinOrder(snap),
			}
		}
		return model.View{
			Kind:     model.ViewSubmitForm,
			RoomCode: snap.Code,
			Round:    snap.CurrentRound,
		}

	case model.StatusVoting:
		if me.HasVoted {
			return model.View{
				Kind:      model.ViewWaitingForVotes,
				RoomCode:  snap.Code,
				Round:     snap.CurrentRound,
				Standings: model.Ranked(snap),
			}
		}
		return model.View{
			Kind:     model.ViewVoteForm,
			RoomCode: snap.Code,
			Round:    snap.CurrentRound,
			Options:  c.voteOptions(snap),
		}

	case model.StatusFinished:
		return model.View{
			Kind:      model.ViewLeaderboard,
			RoomCode:  snap.Code,
			Round:     snap.CurrentRound,
			Standings: model.Ranked(snap),
		}
	}

	return model.View{Kind: model.ViewJoining}
}

// voteOptions lists this round's submissions except the player's own,
// ordered the way players joined.
func (c *Coordinator) voteOptions(snap model.Room) []model.VoteOption {
	byPlayer := snap.SubmissionsFor(snap.CurrentRound)

	options := make([]model.VoteOption, 0, len(byPlayer))
	for id, title := range byPlayer {
		if id == c.playerID {
			continue
		}
		options = append(options, model.VoteOption{PlayerID: id, Title: title})
	}
	sort.Slice(options, func(i, j int) bool {
		return snap.Players[options[i].PlayerID].Order < snap.Players[options[j].PlayerID].Order
	})
	return options
}

func nicknamesInJoinOrder(snap model.Room) []string {
	ids := make([]model.PlayerID, 0, len(snap.Players))
	for id := range snap.Players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return snap.Players[ids[i]].Order < snap.Players[ids[j]].Order
	})

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, snap.Players[id].Nickname)
	}
	return names
}
