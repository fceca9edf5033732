package infra_memory_room

import (
	"context"
	"sync"

	"github.com/humanbelnik/movieleague/internal/model"
	storage_room "github.com/humanbelnik/movieleague/internal/storage/room"
	usecase_session "github.com/humanbelnik/movieleague/internal/usecase/session"
)

const subscriberBuffer = 16

// Driver is the in-process room store: the test substitute for the
// networked backends and the single-node dev backend. Same contract,
// same patch semantics.
type Driver struct {
	mu      sync.Mutex
	rooms   map[model.RoomCode]model.Room
	subs    map[model.RoomCode]map[int]chan model.Room
	nextSub int
}

func New() *Driver {
	return &Driver{
		rooms: make(map[model.RoomCode]model.Room),
		subs:  make(map[model.RoomCode]map[int]chan model.Room),
	}
}

func (d *Driver) Load(_ context.Context, code model.RoomCode) (model.Room, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[code]
	if !ok {
		return model.Room{}, usecase_session.ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (d *Driver) CreateIfAbsent(_ context.Context, code model.RoomCode, initial model.Room) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.rooms[code]; ok {
		return false, nil
	}
	d.rooms[code] = initial.Clone()
	d.notifyLocked(code)
	return true, nil
}

func (d *Driver) Apply(_ context.Context, code model.RoomCode, patch storage_room.Patch) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.applyLocked(code, patch)
}

func (d *Driver) ApplyIf(_ context.Context, code model.RoomCode, patch storage_room.Patch, cond storage_room.Cond) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[code]
	if !ok {
		return usecase_session.ErrRoomNotFound
	}
	if !cond.Holds(room) {
		return usecase_session.ErrConflict
	}
	return d.applyLocked(code, patch)
}

func (d *Driver) applyLocked(code model.RoomCode, patch storage_room.Patch) error {
	room, ok := d.rooms[code]
	if !ok {
		return usecase_session.ErrRoomNotFound
	}

	next, err := storage_room.Apply(room, patch)
	if err != nil {
		return err
	}
	d.rooms[code] = next
	d.notifyLocked(code)
	return nil
}

func (d *Driver) Subscribe(_ context.Context, code model.RoomCode) (<-chan model.Room, func(), error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.subs[code]; !ok {
		d.subs[code] = make(map[int]chan model.Room)
	}
	id := d.nextSub
	d.nextSub++

	ch := make(chan model.Room, subscriberBuffer)
	d.subs[code][id] = ch

	cancel := func() {
		d.mu.Lock()
		defer d.mu.Unlock()

		if sub, ok := d.subs[code][id]; ok {
			delete(d.subs[code], id)
			close(sub)
			if len(d.subs[code]) == 0 {
				delete(d.subs, code)
			}
		}
	}
	return ch, cancel, nil
}

// notifyLocked delivers the full current document to every subscriber.
// A slow subscriber loses intermediate snapshots, never the latest one.
func (d *Driver) notifyLocked(code model.RoomCode) {
	room, ok := d.rooms[code]
	if !ok {
		return
	}
	for _, ch := range d.subs[code] {
		select {
		case ch <- room.Clone():
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- room.Clone():
			default:
			}
		}
	}
}
