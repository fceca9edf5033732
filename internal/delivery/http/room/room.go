package http_room

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	http_common "github.com/humanbelnik/movieleague/internal/delivery/http/common"
	"github.com/humanbelnik/movieleague/internal/model"
	usecase_session "github.com/humanbelnik/movieleague/internal/usecase/session"
)

type Occupancy interface {
	CountInRoom(code model.RoomCode) int
}

type Controller struct {
	rooms     *usecase_session.Rooms
	occupancy Occupancy
	logger    *slog.Logger
}

func New(rooms *usecase_session.Rooms, occupancy Occupancy) *Controller {
	return &Controller{
		rooms:     rooms,
		occupancy: occupancy,
		logger:    slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	rooms := router.Group("/rooms")
	{
		rooms.POST("", c.book)
		rooms.GET("/:room_code/status", c.status)
	}
}

type BookResponseDTO struct {
	RoomCode string `json:"room_code"`
}

// book creates a fresh empty room; the caller joins it over the
// websocket session afterwards.
func (c *Controller) book(ctx *gin.Context) {
	code, err := c.rooms.Book(ctx)
	if err != nil {
		c.logger.Error("failed to book room", slog.String("error", err.Error()))
		if errors.Is(err, usecase_session.ErrRoomsUnavailable) {
			ctx.JSON(http.StatusServiceUnavailable, http_common.ErrorResponse{
				Message: "unavailable",
			})
			return
		}
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}

	ctx.JSON(http.StatusCreated, BookResponseDTO{
		RoomCode: string(code),
	})
}

type StatusResponseDTO struct {
	Status           string `json:"status"`
	CurrentRound     int    `json:"current_round"`
	PlayerCount      int    `json:"player_count"`
	ConnectedClients int    `json:"connected_clients"`
}

func (c *Controller) status(ctx *gin.Context) {
	code := ctx.Param("room_code")

	info, err := c.rooms.Info(ctx, code)
	if err != nil {
		c.logger.Error("failed to get room info", slog.String("error", err.Error()))
		if errors.Is(err, usecase_session.ErrRoomNotFound) {
			ctx.JSON(http.StatusNotFound, http_common.ErrorResponse{
				Message: "not found",
			})
			return
		}
		ctx.JSON(http.StatusInternalServerError, http_common.ErrorResponse{
			Message: "internal error",
		})
		return
	}

	ctx.JSON(http.StatusOK, StatusResponseDTO{
		Status:           string(info.Status),
		CurrentRound:     info.CurrentRound,
		PlayerCount:      info.PlayerCount,
		ConnectedClients: c.occupancy.CountInRoom(model.NormalizeRoomCode(code)),
	})
}
