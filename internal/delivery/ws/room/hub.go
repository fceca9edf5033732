package ws_room

import (
	"log/slog"
	"sync"

	"github.com/humanbelnik/movieleague/internal/model"
)

// Hub tracks live connections per room for lifecycle and occupancy.
// Game state fan-out does not go through it; every session hears about
// changes from its own store subscription.
type Hub struct {
	mu sync.RWMutex

	rooms map[model.RoomCode]map[*Client]bool

	logger *slog.Logger
}

func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[model.RoomCode]map[*Client]bool),
		logger: slog.Default(),
	}
}

func (h *Hub) RegisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[client.roomCode]; !ok {
		h.rooms[client.roomCode] = make(map[*Client]bool)
	}
	h.rooms[client.roomCode][client] = true

	h.logger.Info("client registered",
		"room", client.roomCode,
		"player_id", client.playerID)
}

func (h *Hub) RemoveClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[client.roomCode]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, client.roomCode)
		}
	}

	h.logger.Info("client unregistered",
		"room", client.roomCode,
		"player_id", client.playerID)
}

func (h *Hub) CountInRoom(code model.RoomCode) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[code])
}
