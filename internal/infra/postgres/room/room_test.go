package infra_postgres_room

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/humanbelnik/movieleague/internal/model"
	storage_room "github.com/humanbelnik/movieleague/internal/storage/room"
	usecase_session "github.com/humanbelnik/movieleague/internal/usecase/session"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resources struct {
	mock   sqlmock.Sqlmock
	driver *Driver
	ctx    context.Context
}

func initResources(t *testing.T) *resources {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &resources{
		mock:   mock,
		driver: New(sqlx.NewDb(db, "sqlmock"), "postgres://sqlmock"),
		ctx:    context.Background(),
	}
}

func docFixture(t *testing.T, status model.Status) []byte {
	t.Helper()
	doc, err := json.Marshal(model.Room{
		Code:         "ABC123",
		CurrentRound: 1,
		Status:       status,
		Players: map[model.PlayerID]model.Player{
			"p1": {Nickname: "alice"},
		},
	})
	require.NoError(t, err)
	return doc
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("Should load and decode document", func(t *testing.T) {
		t.Parallel()
		r := initResources(t)
		r.mock.ExpectQuery("SELECT doc FROM rooms WHERE code = \\$1").
			WithArgs("ABC123").
			WillReturnRows(sqlmock.NewRows([]string{"doc"}).AddRow(docFixture(t, model.StatusSubmitting)))

		room, err := r.driver.Load(r.ctx, "ABC123")

		require.NoError(t, err)
		assert.Equal(t, model.RoomCode("ABC123"), room.Code)
		assert.Equal(t, "alice", room.Players["p1"].Nickname)
		assert.NoError(t, r.mock.ExpectationsWereMet())
	})

	t.Run("Should map missing row to not found", func(t *testing.T) {
		t.Parallel()
		r := initResources(t)
		r.mock.ExpectQuery("SELECT doc FROM rooms WHERE code = \\$1").
			WithArgs("MISSIN").
			WillReturnRows(sqlmock.NewRows([]string{"doc"}))

		_, err := r.driver.Load(r.ctx, "MISSIN")

		assert.ErrorIs(t, err, usecase_session.ErrRoomNotFound)
		assert.NoError(t, r.mock.ExpectationsWereMet())
	})
}

func TestCreateIfAbsent(t *testing.T) {
	t.Parallel()

	t.Run("Should insert and notify on fresh code", func(t *testing.T) {
		t.Parallel()
		r := initResources(t)
		r.mock.ExpectExec("INSERT INTO rooms").
			WillReturnResult(sqlmock.NewResult(0, 1))
		r.mock.ExpectExec("SELECT pg_notify").
			WithArgs(notifyChannel, "ABC123").
			WillReturnResult(sqlmock.NewResult(0, 0))

		created, err := r.driver.CreateIfAbsent(r.ctx, "ABC123", model.Room{Code: "ABC123"})

		require.NoError(t, err)
		assert.True(t, created)
		assert.NoError(t, r.mock.ExpectationsWereMet())
	})

	t.Run("Should report existing code without notifying", func(t *testing.T) {
		t.Parallel()
		r := initResources(t)
		r.mock.ExpectExec("INSERT INTO rooms").
			WillReturnResult(sqlmock.NewResult(0, 0))

		created, err := r.driver.CreateIfAbsent(r.ctx, "ABC123", model.Room{Code: "ABC123"})

		require.NoError(t, err)
		assert.False(t, created)
		assert.NoError(t, r.mock.ExpectationsWereMet())
	})
}

func TestApply(t *testing.T) {
	t.Parallel()

	r := initResources(t)
	r.mock.ExpectBegin()
	r.mock.ExpectQuery("SELECT doc FROM rooms WHERE code = \\$1 FOR UPDATE").
		WithArgs("ABC123").
		WillReturnRows(sqlmock.NewRows([]string{"doc"}).AddRow(docFixture(t, model.StatusSubmitting)))
	r.mock.ExpectExec("UPDATE rooms SET doc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	r.mock.ExpectExec("SELECT pg_notify").
		WithArgs(notifyChannel, "ABC123").
		WillReturnResult(sqlmock.NewResult(0, 0))
	r.mock.ExpectCommit()

	err := r.driver.Apply(r.ctx, "ABC123", storage_room.Patch{
		storage_room.PlayerHasSubmittedField("p1", true),
	})

	require.NoError(t, err)
	assert.NoError(t, r.mock.ExpectationsWereMet())
}

func TestApplyIfConflict(t *testing.T) {
	t.Parallel()

	r := initResources(t)
	r.mock.ExpectBegin()
	r.mock.ExpectQuery("SELECT doc FROM rooms WHERE code = \\$1 FOR UPDATE").
		WithArgs("ABC123").
		WillReturnRows(sqlmock.NewRows([]string{"doc"}).AddRow(docFixture(t, model.StatusVoting)))
	r.mock.ExpectRollback()

	err := r.driver.ApplyIf(r.ctx, "ABC123",
		storage_room.Patch{storage_room.StatusField(model.StatusVoting)},
		storage_room.Cond{Status: model.StatusSubmitting, CurrentRound: 1},
	)

	assert.ErrorIs(t, err, usecase_session.ErrConflict)
	assert.NoError(t, r.mock.ExpectationsWereMet())
}

func TestCleanupIdle(t *testing.T) {
	t.Parallel()

	r := initResources(t)
	r.mock.ExpectExec("DELETE FROM rooms WHERE updated_at").
		WillReturnResult(sqlmock.NewResult(0, 2))

	removed, err := r.driver.CleanupIdle(r.ctx, 2*time.Hour)

	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.NoError(t, r.mock.ExpectationsWereMet())
}
