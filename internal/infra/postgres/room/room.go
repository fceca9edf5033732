package infra_postgres_room

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/humanbelnik/movieleague/internal/model"
	storage_room "github.com/humanbelnik/movieleague/internal/storage/room"
	usecase_session "github.com/humanbelnik/movieleague/internal/usecase/session"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const notifyChannel = "room_changed"

// Driver keeps each room as one jsonb document row. Patches run inside
// a row-locking transaction and every write raises a NOTIFY carrying
// the room code, which feeds the Subscribe side through pq.Listener.
type Driver struct {
	db     *sqlx.DB
	dsn    string
	logger *slog.Logger
}

func New(db *sqlx.DB, dsn string) *Driver {
	return &Driver{
		db:     db,
		dsn:    dsn,
		logger: slog.Default(),
	}
}

func (d *Driver) EnsureSchema(ctx context.Context) error {
	const q = `
		CREATE TABLE IF NOT EXISTS rooms (
			code       text PRIMARY KEY,
			doc        jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)
	`
	_, err := d.db.ExecContext(ctx, q)
	return err
}

func (d *Driver) Load(ctx context.Context, code model.RoomCode) (model.Room, error) {
	var doc []byte

	const q = `SELECT doc FROM rooms WHERE code = $1`

	err := d.db.GetContext(ctx, &doc, q, string(code))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Room{}, usecase_session.ErrRoomNotFound
		}
		return model.Room{}, err
	}

	var room model.Room
	if err := json.Unmarshal(doc, &room); err != nil {
		return model.Room{}, err
	}
	return room, nil
}

func (d *Driver) CreateIfAbsent(ctx context.Context, code model.RoomCode, initial model.Room) (bool, error) {
	doc, err := json.Marshal(initial)
	if err != nil {
		return false, err
	}

	const q = `
		INSERT INTO rooms (code, doc)
		VALUES ($1, $2)
		ON CONFLICT (code) DO NOTHING
	`

	result, err := d.db.ExecContext(ctx, q, string(code), doc)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rowsAffected == 0 {
		return false, nil
	}

	d.notify(ctx, code)
	return true, nil
}

func (d *Driver) Apply(ctx context.Context, code model.RoomCode, patch storage_room.Patch) error {
	return d.transact(ctx, code, patch, nil)
}

func (d *Driver) ApplyIf(ctx context.Context, code model.RoomCode, patch storage_room.Patch, cond storage_room.Cond) error {
	return d.transact(ctx, code, patch, &cond)
}

func (d *Driver) transact(ctx context.Context, code model.RoomCode, patch storage_room.Patch, cond *storage_room.Cond) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var doc []byte
	const selectQ = `SELECT doc FROM rooms WHERE code = $1 FOR UPDATE`

	if err := tx.GetContext(ctx, &doc, selectQ, string(code)); err != nil {
		if err == sql.ErrNoRows {
			return usecase_session.ErrRoomNotFound
		}
		return err
	}

	var room model.Room
	if err := json.Unmarshal(doc, &room); err != nil {
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

	const updateQ = `UPDATE rooms SET doc = $1, updated_at = now() WHERE code = $2`

	if _, err := tx.ExecContext(ctx, updateQ, out, string(code)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, string(code)); err != nil {
		return err
	}

	return tx.Commit()
}

func (d *Driver) notify(ctx context.Context, code model.RoomCode) {
	if _, err := d.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, string(code)); err != nil {
		d.logger.Error("failed to notify room change", "room", code, "error", err)
	}
}

func (d *Driver) Subscribe(ctx context.Context, code model.RoomCode) (<-chan model.Room, func(), error) {
	listener := pq.NewListener(d.dsn, 10*time.Second, time.Minute, nil)
	if err := listener.Listen(notifyChannel); err != nil {
		_ = listener.Close()
		return nil, nil, err
	}

	out := make(chan model.Room, 1)
	go func() {
		defer close(out)
		for n := range listener.Notify {
			// nil notifications mark reconnects; re-read to catch up.
			if n != nil && n.Extra != string(code) {
				continue
			}
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
		_ = listener.Close()
	}
	return out, cancel, nil
}

// CleanupIdle drops rooms nobody touched for olderThan. Abandoned games
// have no explicit deletion path, so the wiring runs this on a ticker.
func (d *Driver) CleanupIdle(ctx context.Context, olderThan time.Duration) (int64, error) {
	const q = `DELETE FROM rooms WHERE updated_at < now() - $1 * interval '1 second'`

	result, err := d.db.ExecContext(ctx, q, olderThan.Seconds())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
