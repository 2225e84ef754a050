package reservation

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"reservations/internal/domain"
	"reservations/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reservations", h.CreateReservation)
	rg.GET("/reservations", h.ListReservations)
	rg.GET("/reservations/room/:roomId", h.ListRoomReservations)
	rg.GET("/reservations/:id", h.GetReservation)
	rg.DELETE("/reservations/:id", h.DeleteReservation)
}

func (h *Handler) CreateReservation(c *gin.Context) {
	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	r, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, toResponse(*r))
}

func (h *Handler) ListReservations(c *gin.Context) {
	rs, err := h.service.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toResponses(rs))
}

func (h *Handler) ListRoomReservations(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("roomId"), 10, 64)
	if err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid room id",
			gin.H{"field": "room_id", "kind": KindInvalidField})
		return
	}

	rs, err := h.service.ListByRoom(c.Request.Context(), roomID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toResponses(rs))
}

func (h *Handler) GetReservation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	r, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toResponse(*r))
}

func (h *Handler) DeleteReservation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Reservation deleted"})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid reservation id",
			gin.H{"field": "id", "kind": KindInvalidField})
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var (
		validationErr *ValidationError
		conflictErr   *ConflictError
		notFoundErr   *NotFoundError
		storeErr      *domain.StoreError
	)

	switch {
	case errors.As(err, &validationErr):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", validationErr.Error(),
			gin.H{"field": validationErr.Field, "kind": validationErr.Kind})

	case errors.As(err, &conflictErr):
		response.ErrorWithDetails(c, http.StatusConflict, "BOOKING_CONFLICT", "Room already reserved for this time period",
			gin.H{
				"room_id":     conflictErr.RoomID,
				"start_time":  conflictErr.Conflicting.Start,
				"end_time":    conflictErr.Conflicting.End,
				"existing_id": conflictErr.ExistingID,
			})

	case errors.As(err, &notFoundErr):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Reservation not found")

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		_ = c.Error(err)
		response.Error(c, http.StatusServiceUnavailable, "REQUEST_TIMEOUT", "Request timed out")

	case errors.As(err, &storeErr):
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "STORE_ERROR", "Storage failure, retry later")

	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
