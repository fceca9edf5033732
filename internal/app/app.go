package app

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/humanbelnik/movieleague/internal/config"
	http_init "github.com/humanbelnik/movieleague/internal/delivery/http/init"
	http_room "github.com/humanbelnik/movieleague/internal/delivery/http/room"
	ws_room "github.com/humanbelnik/movieleague/internal/delivery/ws/room"
	infra_memory_room "github.com/humanbelnik/movieleague/internal/infra/memory/room"
	infra_pg_init "github.com/humanbelnik/movieleague/internal/infra/postgres/init"
	infra_postgres_room "github.com/humanbelnik/movieleague/internal/infra/postgres/room"
	infra_redis_init "github.com/humanbelnik/movieleague/internal/infra/redis/init"
	infra_redis_room "github.com/humanbelnik/movieleague/internal/infra/redis/room"
	usecase_game "github.com/humanbelnik/movieleague/internal/usecase/game"
	usecase_session "github.com/humanbelnik/movieleague/internal/usecase/session"
)

func Go(cfg *config.Config) {
	machine := usecase_game.New(usecase_game.Rules{
		Capacity:    cfg.Game.Capacity,
		TotalRounds: cfg.Game.TotalRounds,
		CodeLength:  cfg.Game.CodeLength,
	})

	store := buildStore(cfg)
	rooms := usecase_session.NewRooms(store, machine)
	hub := ws_room.NewHub()

	controllerPool := http_init.NewControllerPool()
	controllerPool.Add(http_room.New(rooms, hub))
	controllerPool.Add(ws_room.NewController(hub, store, machine))

	controllerPool.Register()
	controllerPool.RunAll(cfg.HTTP.Port)
}

func buildStore(cfg *config.Config) usecase_session.RoomStore {
	switch cfg.Store.Backend {
	case config.BackendRedis:
		redisConn := infra_redis_init.MustEstablishConn(cfg.Redis)
		return infra_redis_room.New(redisConn, cfg.Store.RoomTTL)

	case config.BackendPostgres:
		pgConn := infra_pg_init.MustEstablishConn(cfg.Postgres)
		store := infra_postgres_room.New(pgConn, infra_pg_init.DSN(cfg.Postgres))
		if err := store.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("failed to ensure rooms schema: %v", err)
		}
		go cleanupLoop(store, cfg.Store.CleanupInterval, cfg.Store.RoomTTL)
		return store

	case config.BackendMemory:
		return infra_memory_room.New()

	default:
		log.Fatalf("unknown store backend: %s", cfg.Store.Backend)
		return nil
	}
}

// Rooms have no explicit deletion; abandoned ones get swept here.
// The redis backend relies on key TTLs instead.
func cleanupLoop(store *infra_postgres_room.Driver, interval, ttl time.Duration) {
	for range time.Tick(interval) {
		removed, err := store.CleanupIdle(context.Background(), ttl)
		if err != nil {
			slog.Error("idle room cleanup failed", "error", err)
			continue
		}
		if removed > 0 {
			slog.Info("idle rooms removed", "count", removed)
		}
	}
}
