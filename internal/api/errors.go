package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"laundry-booking-backend/internal/booking"
)

type errorKind struct {
	target  error
	status  int
	code    string
	message string
}

// Order matters: machine-not-found also matches not-found.
var errorKinds = []errorKind{
	{booking.ErrMachineNotFound, http.StatusNotFound, "machine_not_found", "machine not found"},
	{booking.ErrNotFound, http.StatusNotFound, "not_found", "not found"},
	{booking.ErrForbidden, http.StatusForbidden, "forbidden", "you are not allowed to do this"},
	{booking.ErrSlotUnavailable, http.StatusConflict, "slot_unavailable", "this slot is no longer available, please pick another slot"},
	{booking.ErrAlreadyTerminal, http.StatusConflict, "already_terminal", "booking is already canceled or completed"},
	{booking.ErrMachineInUse, http.StatusConflict, "machine_in_use", "machine still has upcoming bookings"},
	{booking.ErrLimitReached, http.StatusConflict, "limit_reached", "you already hold the maximum number of active bookings"},
	{booking.ErrInvalidInput, http.StatusBadRequest, "invalid_input", ""},
	{booking.ErrTransient, http.StatusServiceUnavailable, "transient", "temporarily unavailable, please retry"},
}

// respondError writes the status, stable code and message for err.
func respondError(c *gin.Context, err error) {
	for _, k := range errorKinds {
		if !errors.Is(err, k.target) {
			continue
		}
		msg := k.message
		if msg == "" {
			msg = err.Error()
		}
		if k.target == booking.ErrTransient {
			log.Printf("Transient failure on %s %s: %v", c.Request.Method, c.FullPath(), err)
			c.Header("Retry-After", "1")
		}
		c.JSON(k.status, gin.H{"error": msg, "code": k.code})
		return
	}

	log.Printf("Unhandled error on %s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "internal"})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_input"})
}
