package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"laundry-booking-backend/internal/model"
)

type bookingResponse struct {
	model.Booking
	WindowLabel string `json:"windowLabel"`
}

func (h *Handler) toResponse(b model.Booking) bookingResponse {
	resp := bookingResponse{Booking: b}
	if w, ok := h.engine.Calendar().Window(b.Window); ok {
		resp.WindowLabel = w.Label
	}
	return resp
}

func (h *Handler) toResponses(bookings []model.Booking) []bookingResponse {
	out := make([]bookingResponse, len(bookings))
	for i, b := range bookings {
		out[i] = h.toResponse(b)
	}
	return out
}

type createBookingRequest struct {
	MachineID string `json:"machine_id" binding:"required"`
	Date      string `json:"date" binding:"required"`
	Window    *int   `json:"window" binding:"required"`
}

// CreateBooking reserves a slot for the caller.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	b, err := h.engine.Ledger.Create(c.Request.Context(), actor(c).UserID, req.MachineID, req.Date, *req.Window)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.toResponse(*b))
}

// ListMyBookings returns every booking of the caller.
func (h *Handler) ListMyBookings(c *gin.Context) {
	bookings, err := h.engine.Ledger.ListUserBookings(c.Request.Context(), actor(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toResponses(bookings))
}

// ListMyActiveBookings returns the caller's bookings that are still active.
func (h *Handler) ListMyActiveBookings(c *gin.Context) {
	bookings, err := h.engine.Resolver.ListUserActiveBookings(c.Request.Context(), actor(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toResponses(bookings))
}

// GetBooking returns one booking owned by the caller.
func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.engine.Ledger.Get(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toResponse(*b))
}

// CancelBooking cancels one of the caller's bookings.
func (h *Handler) CancelBooking(c *gin.Context) {
	b, err := h.engine.Ledger.Cancel(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toResponse(*b))
}

type rescheduleRequest struct {
	Date   string `json:"date" binding:"required"`
	Window *int   `json:"window" binding:"required"`
}

// RescheduleBooking moves a booking to another date and window.
func (h *Handler) RescheduleBooking(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	b, err := h.engine.Ledger.Reschedule(c.Request.Context(), actor(c), c.Param("id"), req.Date, *req.Window)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toResponse(*b))
}
