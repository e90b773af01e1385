package api

import (
	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"laundry-booking-backend/internal/booking"
	"laundry-booking-backend/internal/mw"
	"laundry-booking-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	engine  *booking.Engine
	store   store.Store
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(engine *booking.Engine, s store.Store, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		engine:  engine,
		store:   s,
		webpush: webpushOptions,
	}
}

// actor is the authenticated caller as set by mw.Auth.
func actor(c *gin.Context) booking.Actor {
	return booking.Actor{
		UserID: c.GetString(mw.ContextUserID),
		Role:   booking.Role(c.GetString(mw.ContextRole)),
	}
}
