package realtime

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"reservations/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/reservations/ws", h.Subscribe)
}

// Subscribe upgrades the request to a websocket. room_id may be repeated or
// comma separated; without it the client receives events for every room.
func (h *Handler) Subscribe(c *gin.Context) {
	rooms, ok := parseRooms(c.QueryArray("room_id"))
	if !ok {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid room id",
			gin.H{"field": "room_id", "kind": "invalid_field"})
		return
	}

	conn, err := h.hub.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws_upgrade_failed err=%v", err)
		return
	}
	h.hub.Serve(conn, rooms)
}

func parseRooms(values []string) ([]int64, bool) {
	var rooms []int64
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return nil, false
			}
			rooms = append(rooms, id)
		}
	}
	return rooms, true
}
