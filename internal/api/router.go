package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"laundry-booking-backend/config"
	"laundry-booking-backend/internal/booking"
	"laundry-booking-backend/internal/metrics"
	"laundry-booking-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router. m may be nil.
func NewRouter(h *Handler, cfg *config.Config, m *metrics.Metrics) *gin.Engine {
	r := gin.Default()

	if m != nil && cfg.Metrics.Enabled {
		r.Use(m.Middleware())
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	limit := rate.Limit(cfg.Server.RateLimitPerSec)
	burst := cfg.Server.RateLimitBurst

	// Free-slot cache, flushed by every successful write.
	ttl := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)

	public := r.Group("/api")
	public.Use(mw.RateLimiter(limit, burst))
	{
		public.GET("/windows", h.GetWindows)
		public.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	api := r.Group("/api")
	api.Use(mw.Auth(cfg.Auth.JWTSecret), mw.RateLimiter(limit, burst), mw.Invalidate(cacheStore))
	{
		api.GET("/machines", h.GetMachines)
		api.GET("/slots", caching, h.GetFreeSlots)

		api.POST("/bookings", h.CreateBooking)
		api.GET("/bookings", h.ListMyBookings)
		api.GET("/bookings/active", h.ListMyActiveBookings)
		api.GET("/bookings/:id", h.GetBooking)
		api.POST("/bookings/:id/cancel", h.CancelBooking)
		api.POST("/bookings/:id/reschedule", h.RescheduleBooking)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
	}

	admin := api.Group("/admin")
	admin.Use(mw.RequireRole(string(booking.RoleAdmin)))
	{
		admin.POST("/machines", h.CreateMachine)
		admin.DELETE("/machines/:id", h.DeleteMachine)
		admin.PUT("/machines/:id/status", h.SetMachineStatus)

		admin.POST("/slots/block", h.BlockSlot)
		admin.POST("/dates/block", h.BlockDate)
		admin.DELETE("/overrides/:id", h.UnblockSlot)
		admin.DELETE("/dates/:date/overrides", h.UnblockDate)
		admin.GET("/overrides", h.ListOverrides)

		admin.GET("/bookings", h.ListAllBookings)
		admin.POST("/bookings/:id/cancel", h.ForceCancel)

		admin.GET("/users/blocked", h.ListBlockedUsers)
		admin.PUT("/users/:id/block", h.BlockUser)
		admin.DELETE("/users/:id/block", h.UnblockUser)
	}

	return r
}
