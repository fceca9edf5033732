package ws_room

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/humanbelnik/movieleague/internal/model"
	usecase_game "github.com/humanbelnik/movieleague/internal/usecase/game"
	usecase_session "github.com/humanbelnik/movieleague/internal/usecase/session"
)

const (
	IntentJoin   = "join"
	IntentSubmit = "submit"
	IntentVote   = "vote"

	EventJoined = "joined"
	EventView   = "view"
	EventError  = "error"
)

type Intent struct {
	Type     string `json:"type"`
	Nickname string `json:"nickname,omitempty"`
	RoomCode string `json:"room_code,omitempty"`
	Title    string `json:"title,omitempty"`
	TargetID string `json:"target_id,omitempty"`
}

type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type Client struct {
	conn        *websocket.Conn
	send        chan Event
	coordinator *usecase_session.Coordinator
	roomCode    model.RoomCode
	playerID    model.PlayerID
}

// Controller owns the websocket surface. Each accepted connection is
// one player session: the first frame joins, later frames are submit
// and vote intents, and the server pushes the view model on every
// coordinator update.
type Controller struct {
	hub      *Hub
	store    usecase_session.RoomStore
	machine  *usecase_game.Machine
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewController(hub *Hub, store usecase_session.RoomStore, machine *usecase_game.Machine) *Controller {
	return &Controller{
		hub:     hub,
		store:   store,
		machine: machine,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ws/rooms", c.serve)
}

func (c *Controller) serve(ctx *gin.Context) {
	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.logger.Error("failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	var intent Intent
	if err := conn.ReadJSON(&intent); err != nil || intent.Type != IntentJoin {
		_ = conn.WriteJSON(Event{Type: EventError, Payload: "expected join intent"})
		return
	}

	coordinator := usecase_session.NewCoordinator(c.store, c.machine)
	if err := coordinator.Start(ctx, intent.RoomCode, intent.Nickname); err != nil {
		_ = conn.WriteJSON(Event{Type: EventError, Payload: userMessage(err)})
		return
	}
	defer coordinator.Close()

	client := &Client{
		conn:        conn,
		send:        make(chan Event, 8),
		coordinator: coordinator,
		roomCode:    coordinator.Code(),
		playerID:    coordinator.PlayerID(),
	}

	c.hub.RegisterClient(client)
	defer c.hub.RemoveClient(client)

	client.send <- Event{Type: EventJoined, Payload: map[string]interface{}{
		"room_code": client.roomCode,
		"player_id": client.playerID,
	}}

	go c.writePump(client)
	c.readPump(ctx, client)
}

func (c *Controller) readPump(ctx *gin.Context, client *Client) {
	defer close(client.send)

	for {
		var intent Intent
		if err := client.conn.ReadJSON(&intent); err != nil {
			return
		}

		var err error
		switch intent.Type {
		case IntentSubmit:
			err = client.coordinator.SubmitIntent(ctx, intent.Title)
		case IntentVote:
			err = client.coordinator.VoteIntent(ctx, model.PlayerID(intent.TargetID))
		default:
			err = errors.New("unknown intent type")
		}
		if err != nil {
			c.logger.Info("intent rejected",
				"room", client.roomCode,
				"player_id", client.playerID,
				"intent", intent.Type,
				"error", err)
			select {
			case client.send <- Event{Type: EventError, Payload: userMessage(err)}:
			default:
			}
		}
	}
}

func (c *Controller) writePump(client *Client) {
	for {
		select {
		case event, ok := <-client.send:
			if !ok {
				return
			}
			if err := client.conn.WriteJSON(event); err != nil {
				return
			}
		case <-client.coordinator.Updates():
			view := client.coordinator.View()
			if err := client.conn.WriteJSON(Event{Type: EventView, Payload: view}); err != nil {
				return
			}
		}
	}
}

// userMessage keeps store internals out of the frames players see.
func userMessage(err error) string {
	switch {
	case errors.Is(err, usecase_game.ErrEmptyNickname),
		errors.Is(err, usecase_game.ErrEmptyTitle),
		errors.Is(err, usecase_game.ErrRoomFull),
		errors.Is(err, usecase_game.ErrWrongPhase),
		errors.Is(err, usecase_game.ErrAlreadySubmitted),
		errors.Is(err, usecase_game.ErrAlreadyVoted),
		errors.Is(err, usecase_game.ErrSelfVote),
		errors.Is(err, usecase_game.ErrNoSubmission),
		errors.Is(err, usecase_session.ErrNoVoteSelection),
		errors.Is(err, usecase_session.ErrRoomsUnavailable):
		return err.Error()
	default:
		return "internal error, try again"
	}
}
