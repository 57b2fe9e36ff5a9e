package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campushub/scheduling-api/internal/dto"
	"github.com/campushub/scheduling-api/internal/models"
	"github.com/campushub/scheduling-api/internal/service"
	appErrors "github.com/campushub/scheduling-api/pkg/errors"
	"github.com/campushub/scheduling-api/pkg/response"
)

// RoomHandler exposes room inventory endpoints.
type RoomHandler struct {
	service *service.RoomService
}

// NewRoomHandler constructs a room handler.
func NewRoomHandler(svc *service.RoomService) *RoomHandler {
	return &RoomHandler{service: svc}
}

// List returns rooms with pagination.
func (h *RoomHandler) List(c *gin.Context) {
	var filter models.RoomFilter
	filter.Building = c.Query("building")
	filter.Type = models.RoomType(c.Query("type"))
	if capacity, err := strconv.Atoi(c.DefaultQuery("minCapacity", "0")); err == nil {
		filter.MinCapacity = capacity
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	rooms, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, pagination)
}

// Get returns one room.
func (h *RoomHandler) Get(c *gin.Context) {
	room, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// Create registers a room.
func (h *RoomHandler) Create(c *gin.Context) {
	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	room, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, room)
}

// Delete removes a room.
func (h *RoomHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
