package usecase_session

import (
	"context"
	"errors"

	"github.com/humanbelnik/movieleague/internal/model"
	usecase_game "github.com/humanbelnik/movieleague/internal/usecase/game"
)

// Rooms carries the session-less room operations the REST surface needs:
// booking a fresh room ahead of joining it, and peeking at room state for
// reconnect UX.
type Rooms struct {
	store   RoomStore
	machine *usecase_game.Machine
}

func NewRooms(store RoomStore, machine *usecase_game.Machine) *Rooms {
	return &Rooms{
		store:   store,
		machine: machine,
	}
}

func (r *Rooms) Book(ctx context.Context) (model.RoomCode, error) {
	return bookFreshRoom(ctx, r.store, r.machine)
}

type RoomInfo struct {
	Status       model.Status
	CurrentRound int
	PlayerCount  int
}

func (r *Rooms) Info(ctx context.Context, rawCode string) (RoomInfo, error) {
	code := model.NormalizeRoomCode(rawCode)

	room, err := r.store.Load(ctx, code)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return RoomInfo{}, ErrRoomNotFound
		}
		return RoomInfo{}, errors.Join(ErrInternal, err)
	}

	return RoomInfo{
		Status:       room.Status,
		CurrentRound: room.CurrentRound,
		PlayerCount:  len(room.Players),
	}, nil
}
