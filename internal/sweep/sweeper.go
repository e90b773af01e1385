// Package sweep persists lazy booking completion in the background.
package sweep

import (
	"context"
	"log"
	"time"

	"laundry-booking-backend/internal/model"
	"laundry-booking-backend/internal/slot"
	"laundry-booking-backend/internal/store"
)

// Recorder receives the number of bookings completed per sweep.
type Recorder interface {
	BookingsCompleted(n int64)
}

// Service marks active bookings whose window has ended as completed. Reads
// already report them as completed, so a sweep never changes observable state.
type Service struct {
	store    store.Store
	cal      *slot.Calendar
	interval time.Duration
	timeout  time.Duration
	recorder Recorder

	Now func() time.Time
}

// NewService creates a sweeper. A non-positive interval disables Run.
func NewService(st store.Store, cal *slot.Calendar, interval, timeout time.Duration, recorder Recorder) *Service {
	return &Service{
		store:    st,
		cal:      cal,
		interval: interval,
		timeout:  timeout,
		recorder: recorder,
		Now:      time.Now,
	}
}

// Run sweeps immediately and then every interval until ctx is done.
func (s *Service) Run(ctx context.Context) {
	if s.interval <= 0 {
		log.Println("Sweeper is disabled. Not starting.")
		return
	}
	log.Printf("Starting sweeper, interval %s", s.interval)

	s.sweepAndLog(ctx)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Sweeper shutting down.")
			return
		case <-timer.C:
			s.sweepAndLog(ctx)
			timer.Reset(s.interval)
		}
	}
}

func (s *Service) sweepAndLog(ctx context.Context) {
	n, err := s.SweepOnce(ctx)
	if err != nil {
		log.Printf("Sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Sweep completed %d bookings", n)
	}
}

// SweepOnce completes every elapsed active booking and returns how many changed.
func (s *Service) SweepOnce(ctx context.Context) (int64, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	now := s.Now()
	candidates, err := s.store.ListBookings(ctx, store.BookingFilter{
		ToDate: s.cal.Today(now),
		States: []model.BookingState{model.BookingActive},
	})
	if err != nil {
		return 0, err
	}

	var ids []string
	for _, b := range candidates {
		if s.cal.Elapsed(b.Date, b.Window, now) {
			ids = append(ids, b.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	n, err := s.store.CompleteBookings(ctx, ids)
	if err != nil {
		return 0, err
	}
	if s.recorder != nil {
		s.recorder.BookingsCompleted(n)
	}
	return n, nil
}
