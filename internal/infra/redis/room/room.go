package infra_redis_room

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/go-redis/redis"
	"github.com/humanbelnik/movieleague/internal/model"
	storage_room "github.com/humanbelnik/movieleague/internal/storage/room"
	usecase_session "github.com/humanbelnik/movieleague/internal/usecase/session"
)

const (
	keyPrefix     = "room:"
	channelPrefix = "room-changed:"

	// Optimistic transaction retries before giving up on a contended key.
	txRetries = 5
)

// Driver keeps each room as one JSON document under a TTL'd key and
// fans out change notifications over pub/sub. Partial updates run as
// WATCH/MULTI read-modify-write transactions over the shared patch
// grammar. Idle rooms expire on their own; that is the whole GC story.
type Driver struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func New(client *redis.Client, ttl time.Duration) *Driver {
	return &Driver{
		client: client,
		ttl:    ttl,
		logger: slog.Default(),
	}
}

func (d *Driver) Load(_ context.Context, code model.RoomCode) (model.Room, error) {
	data, err := d.client.Get(keyPrefix + string(code)).Bytes()
	if err == redis.Nil {
		return model.Room{}, usecase_session.ErrRoomNotFound
	}
	if err != nil {
		return model.Room{}, err
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return model.Room{}, err
	}
	return room, nil
}

func (d *Driver) CreateIfAbsent(_ context.Context, code model.RoomCode, initial model.Room) (bool, error) {
	data, err := json.Marshal(initial)
	if err != nil {
		return false, err
	}

	created, err := d.client.SetNX(keyPrefix+string(code), data, d.ttl).Result()
	if err != nil {
		return false, err
	}
	if created {
		d.publish(code)
	}
	return created, nil
}

func (d *Driver) Apply(_ context.Context, code model.RoomCode, patch storage_room.Patch) error {
	return d.transact(code, patch, nil)
}

func (d *Driver) ApplyIf(_ context.Context, code model.RoomCode, patch storage_room.Patch, cond storage_room.Cond) error {
	return d.transact(code, patch, &cond)
}

func (d *Driver) transact(code model.RoomCode, patch storage_room.Patch, cond *storage_room.Cond) error {
	key := keyPrefix + string(code)

	apply := func(tx *redis.Tx) error {
		data, err := tx.Get(key).Bytes()
		if err == redis.Nil {
			return usecase_session.ErrRoomNotFound
		}
		if err != nil {
			return err
		}

		var room model.Room
		if err := json.Unmarshal(data, &room); err != nil {
			return err
		}
		if cond != nil && !cond.Holds(room) {
			return usecase_session.ErrConflict
		}

		next, err := storage_room.Apply(room, patch)
		if err != nil {
			return err
		}
		out, err := json.Marshal(next)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(func(pipe redis.Pipeliner) error {
			pipe.Set(key, out, d.ttl)
			return nil
		})
		return err
	}

	for retries := txRetries; retries > 0; retries-- {
		err := d.client.Watch(apply, key)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return err
		}
		d.publish(code)
		return nil
	}
	return usecase_session.ErrConflict
}

func (d *Driver) publish(code model.RoomCode) {
	if err := d.client.Publish(channelPrefix+string(code), string(code)).Err(); err != nil {
		d.logger.Error("failed to publish room change", "room", code, "error", err)
	}
}

func (d *Driver) Subscribe(ctx context.Context, code model.RoomCode) (<-chan model.Room, func(), error) {
	pubsub := d.client.Subscribe(channelPrefix + string(code))
	if _, err := pubsub.Receive(); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	out := make(chan model.Room, 1)
	go func() {
		defer close(out)
		for range pubsub.Channel() {
			room, err := d.Load(ctx, code)
			if err != nil {
				if errors.Is(err, usecase_session.ErrRoomNotFound) {
					return
				}
				d.logger.Error("failed to load room on change", "room", code, "error", err)
				continue
			}
			select {
			case out <- room:
			default:
				select {
				case <-out:
				default:
				}
				select {
				case out <- room:
				default:
				}
			}
		}
	}()

	cancel := func() {
		_ = pubsub.Close()
	}
	return out, cancel, nil
}
