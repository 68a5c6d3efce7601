package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// POST /api/availabilities/:id/reserve (student only)
func (h *Handlers) Reserve(c *gin.Context) {
	reservation, err := h.bookings.Reserve(c.Request.Context(), c.Param("id"), currentUser(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, reservation)
}

// POST /api/availabilities/:id/cancel, allowed for the reserving
// student or the owning professor.
func (h *Handlers) Cancel(c *gin.Context) {
	if err := h.bookings.Cancel(c.Request.Context(), c.Param("id"), currentUser(c)); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

type validateRequest struct {
	AvailabilityID string `json:"availabilityId" binding:"required"`
}

// POST /api/reservations/validate runs the authoritative pre-booking
// check the clients also duplicate locally for responsiveness.
func (h *Handlers) ValidateReservation(c *gin.Context) {
	var req validateRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	valid, message, err := h.bookings.Validate(c.Request.Context(), currentUser(c).ID, req.AvailabilityID)
	if err != nil {
		writeError(c, err)
		return
	}

	if !valid {
		c.JSON(http.StatusPreconditionFailed, gin.H{"valid": false, "message": message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// GET /api/reservations (student only)
func (h *Handlers) MyReservations(c *gin.Context) {
	reservations, err := h.bookings.StudentReservations(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, reservations)
}
