package http

import (
	"net/http"

	"github.com/cetiassist/asesoria_backend/internal/model"
	"github.com/cetiassist/asesoria_backend/internal/service"
	"github.com/gin-gonic/gin"
)

type publishRequest struct {
	Subject   string `json:"subject" binding:"required"`
	Modality  string `json:"modality" binding:"required"`
	Room      string `json:"room"`
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"startTime" binding:"required"`
	EndTime   string `json:"endTime" binding:"required"`
}

// POST /api/availabilities (professor only)
func (h *Handlers) PublishAvailability(c *gin.Context) {
	var req publishRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	availability, err := h.availabilities.Publish(c.Request.Context(), currentUser(c), service.PublishInput{
		Subject:   req.Subject,
		Modality:  model.Modality(req.Modality),
		Room:      req.Room,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, availability)
}

// GET /api/availabilities?professorId=&subject=
func (h *Handlers) ListAvailabilities(c *gin.Context) {
	availabilities, err := h.availabilities.ListOpen(
		c.Request.Context(),
		c.Query("professorId"),
		c.Query("subject"),
	)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, availabilities)
}

// GET /api/sessions/available returns every future slot, open or
// reserved, and triggers the opportunistic purge sweep.
func (h *Handlers) AvailableSessions(c *gin.Context) {
	sessions, err := h.availabilities.AvailableSessions(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessions)
}
