package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"laundry-booking-backend/internal/booking"
	"laundry-booking-backend/internal/model"
)

type createMachineRequest struct {
	ID   string `json:"id"`
	Name string `json:"name" binding:"required"`
}

// CreateMachine provisions a machine.
func (h *Handler) CreateMachine(c *gin.Context) {
	var req createMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	m, err := h.engine.Admin.CreateMachine(c.Request.Context(), actor(c), req.ID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// DeleteMachine removes a machine without upcoming bookings.
func (h *Handler) DeleteMachine(c *gin.Context) {
	if err := h.engine.Admin.DeleteMachine(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type machineStatusRequest struct {
	Status model.MachineStatus `json:"status" binding:"required"`
}

// SetMachineStatus blocks or unblocks a machine.
func (h *Handler) SetMachineStatus(c *gin.Context) {
	var req machineStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	m, err := h.engine.Admin.SetMachineStatus(c.Request.Context(), actor(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

type blockSlotRequest struct {
	Date      string `json:"date" binding:"required"`
	Window    *int   `json:"window" binding:"required"`
	MachineID string `json:"machine_id" binding:"required"`
	Reason    string `json:"reason"`
}

// BlockSlot removes one slot from availability.
func (h *Handler) BlockSlot(c *gin.Context) {
	var req blockSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	o, err := h.engine.Admin.BlockSlot(c.Request.Context(), actor(c), req.Date, *req.Window, req.MachineID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type blockDateRequest struct {
	Date       string   `json:"date" binding:"required"`
	MachineIDs []string `json:"machine_ids"`
	Reason     string   `json:"reason"`
}

// BlockDate blocks every window of a date for the given machines, or all machines.
func (h *Handler) BlockDate(c *gin.Context) {
	var req blockDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.engine.Admin.BlockDate(c.Request.Context(), actor(c), req.Date, req.MachineIDs, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// UnblockSlot removes one override.
func (h *Handler) UnblockSlot(c *gin.Context) {
	n, err := h.engine.Admin.UnblockSlot(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": n})
}

// UnblockDate removes every override on a date.
func (h *Handler) UnblockDate(c *gin.Context) {
	n, err := h.engine.Admin.UnblockDate(c.Request.Context(), actor(c), c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": n})
}

// ListOverrides lists overrides, optionally for one date.
func (h *Handler) ListOverrides(c *gin.Context) {
	overrides, err := h.engine.Admin.ListOverrides(c.Request.Context(), actor(c), c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overrides)
}

// ListAllBookings is the admin view of the ledger.
// GET /api/admin/bookings?date=&machine_id=&user_id=&state=active,completed
func (h *Handler) ListAllBookings(c *gin.Context) {
	filter := booking.AllBookingsFilter{
		Date:      c.Query("date"),
		MachineID: c.Query("machine_id"),
		UserID:    c.Query("user_id"),
	}
	if raw := c.Query("state"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			filter.States = append(filter.States, model.BookingState(strings.TrimSpace(s)))
		}
	}

	bookings, err := h.engine.Admin.ListAllBookings(c.Request.Context(), actor(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toResponses(bookings))
}

// ForceCancel cancels any booking and notifies its owner.
func (h *Handler) ForceCancel(c *gin.Context) {
	b, err := h.engine.Admin.ForceCancel(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toResponse(*b))
}

type blockUserRequest struct {
	Reason string `json:"reason"`
}

// BlockUser bars a user from new bookings. The body is optional.
func (h *Handler) BlockUser(c *gin.Context) {
	var req blockUserRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	b, err := h.engine.Admin.BlockUser(c.Request.Context(), actor(c), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// UnblockUser lifts a user block.
func (h *Handler) UnblockUser(c *gin.Context) {
	n, err := h.engine.Admin.UnblockUser(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": n})
}

func (h *Handler) ListBlockedUsers(c *gin.Context) {
	blocks, err := h.engine.Admin.ListBlockedUsers(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, blocks)
}
