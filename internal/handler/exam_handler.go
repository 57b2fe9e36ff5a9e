package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/scheduling-api/internal/dto"
	"github.com/campushub/scheduling-api/internal/service"
	appErrors "github.com/campushub/scheduling-api/pkg/errors"
	"github.com/campushub/scheduling-api/pkg/response"
)

// ExamHandler exposes exam scheduling and seating endpoints.
type ExamHandler struct {
	service *service.ExamService
}

// NewExamHandler constructs an exam handler.
func NewExamHandler(svc *service.ExamService) *ExamHandler {
	return &ExamHandler{service: svc}
}

// Schedule regenerates the exam schedule.
func (h *ExamHandler) Schedule(c *gin.Context) {
	var req dto.ScheduleExamsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.Schedule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List returns the current exam schedule.
func (h *ExamHandler) List(c *gin.Context) {
	exams, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exams, nil)
}

// AllocateSeating lays out and persists the seat grid for one exam.
func (h *ExamHandler) AllocateSeating(c *gin.Context) {
	var req dto.AllocateSeatingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	result, err := h.service.AllocateSeating(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Seating returns the persisted seat grid for one exam.
func (h *ExamHandler) Seating(c *gin.Context) {
	seats, err := h.service.Seating(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, seats, nil)
}

// ClearSchedule discards the whole exam schedule.
func (h *ExamHandler) ClearSchedule(c *gin.Context) {
	if err := h.service.ClearSchedule(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ClearSeating discards one exam's seat grid.
func (h *ExamHandler) ClearSeating(c *gin.Context) {
	if err := h.service.ClearSeating(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Duties returns every invigilation duty of the current schedule.
func (h *ExamHandler) Duties(c *gin.Context) {
	duties, err := h.service.Duties(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, duties, nil)
}
