package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetWindows lists the daily time windows.
func (h *Handler) GetWindows(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Calendar().Windows())
}

// GetMachines lists all machines and their status.
func (h *Handler) GetMachines(c *gin.Context) {
	machines, err := h.engine.Registry.ListMachines(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, machines)
}

// GetFreeSlots lists bookable (window, machine) pairs for a date.
// GET /api/slots?date=YYYY-MM-DD&machine_id=...
func (h *Handler) GetFreeSlots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date is required", "code": "invalid_input"})
		return
	}

	slots, err := h.engine.Resolver.ListFreeSlots(c.Request.Context(), date, c.Query("machine_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "slots": slots})
}
