package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"laundry-booking-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	ListMachines(ctx context.Context) ([]model.Machine, error)
	GetMachine(ctx context.Context, id string) (*model.Machine, error)
	CreateMachine(ctx context.Context, m *model.Machine) error
	SeedMachines(ctx context.Context, machines []model.Machine) (int64, error)
	UpdateMachineStatus(ctx context.Context, id string, status model.MachineStatus) (*model.Machine, error)
	DeleteMachine(ctx context.Context, id string) error

	FindOverride(ctx context.Context, date string, window int, machineID string) (*model.SlotOverride, error)
	GetOverride(ctx context.Context, id string) (*model.SlotOverride, error)
	CreateOverride(ctx context.Context, o *model.SlotOverride) (*model.SlotOverride, error)
	ListOverrides(ctx context.Context, date string) ([]model.SlotOverride, error)
	DeleteOverride(ctx context.Context, id string) (int64, error)

	CreateBooking(ctx context.Context, b *model.Booking) error
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	FindActiveBooking(ctx context.Context, machineID, date string, window int) (*model.Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]model.Booking, error)
	UpdateBookingState(ctx context.Context, id string, from, to model.BookingState) error
	MoveBooking(ctx context.Context, id, date string, window int) error
	CompleteBookings(ctx context.Context, ids []string) (int64, error)

	BlockUser(ctx context.Context, b *model.UserBlock) (*model.UserBlock, error)
	GetUserBlock(ctx context.Context, userID string) (*model.UserBlock, error)
	ListUserBlocks(ctx context.Context) ([]model.UserBlock, error)
	UnblockUser(ctx context.Context, userID string) (int64, error)

	UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	ListSubscriptionsByUser(ctx context.Context, userID string) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint, userID string) (int64, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// translate maps gorm sentinel errors onto the store's own.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return err
	}
}

// --- Machines ---

func (s *gormStore) ListMachines(ctx context.Context) ([]model.Machine, error) {
	var machines []model.Machine
	if err := s.db.WithContext(ctx).Order("id").Find(&machines).Error; err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	return machines, nil
}

func (s *gormStore) GetMachine(ctx context.Context, id string) (*model.Machine, error) {
	var m model.Machine
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (s *gormStore) CreateMachine(ctx context.Context, m *model.Machine) error {
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return translate(err)
	}
	return nil
}

// SeedMachines inserts machines that do not exist yet and leaves existing rows untouched.
func (s *gormStore) SeedMachines(ctx context.Context, machines []model.Machine) (int64, error) {
	if len(machines) == 0 {
		return 0, nil
	}
	log.Printf("Seeding %d machines...", len(machines))
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&machines)
	if res.Error != nil {
		return 0, fmt.Errorf("batch seed machines failed: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *gormStore) UpdateMachineStatus(ctx context.Context, id string, status model.MachineStatus) (*model.Machine, error) {
	var m model.Machine
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			return err
		}
		if m.Status == status {
			return nil
		}
		m.Status = status
		return tx.Model(&m).Update("status", status).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// DeleteMachine removes a machine together with its slot overrides.
// Booking history referencing the machine is kept.
func (s *gormStore) DeleteMachine(ctx context.Context, id string) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("machine_id = ?", id).Delete(&model.SlotOverride{}).Error; err != nil {
			return fmt.Errorf("failed to delete overrides for machine %s: %w", id, err)
		}
		res := tx.Where("id = ?", id).Delete(&model.Machine{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete machine %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}))
}

// --- Slot overrides ---

func (s *gormStore) FindOverride(ctx context.Context, date string, window int, machineID string) (*model.SlotOverride, error) {
	var o model.SlotOverride
	err := s.db.WithContext(ctx).
		Where("slot_date = ? AND time_window = ? AND machine_id = ?", date, window, machineID).
		First(&o).Error
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (s *gormStore) GetOverride(ctx context.Context, id string) (*model.SlotOverride, error) {
	var o model.SlotOverride
	if err := s.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

// CreateOverride inserts o unless an override with the same key exists, and
// returns whichever row is stored.
func (s *gormStore) CreateOverride(ctx context.Context, o *model.SlotOverride) (*model.SlotOverride, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(o)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 1 {
		return o, nil
	}
	return s.FindOverride(ctx, o.Date, o.Window, o.MachineID)
}

// ListOverrides returns overrides on date, or all overrides when date is empty.
func (s *gormStore) ListOverrides(ctx context.Context, date string) ([]model.SlotOverride, error) {
	q := s.db.WithContext(ctx).Order("slot_date, machine_id, time_window")
	if date != "" {
		q = q.Where("slot_date = ?", date)
	}
	var overrides []model.SlotOverride
	if err := q.Find(&overrides).Error; err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	return overrides, nil
}

func (s *gormStore) DeleteOverride(ctx context.Context, id string) (int64, error) {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.SlotOverride{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete override %s: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

// --- Bookings ---

func (s *gormStore) CreateBooking(ctx context.Context, b *model.Booking) error {
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (s *gormStore) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	var b model.Booking
	if err := s.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (s *gormStore) FindActiveBooking(ctx context.Context, machineID, date string, window int) (*model.Booking, error) {
	var b model.Booking
	err := s.db.WithContext(ctx).
		Where("machine_id = ? AND slot_date = ? AND time_window = ? AND state = ?", machineID, date, window, model.BookingActive).
		First(&b).Error
	if err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

// ListBookings returns bookings matching filter ordered by date, window, machine.
func (s *gormStore) ListBookings(ctx context.Context, filter BookingFilter) ([]model.Booking, error) {
	q := s.db.WithContext(ctx).Model(&model.Booking{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.MachineID != "" {
		q = q.Where("machine_id = ?", filter.MachineID)
	}
	if filter.Date != "" {
		q = q.Where("slot_date = ?", filter.Date)
	}
	if filter.FromDate != "" {
		q = q.Where("slot_date >= ?", filter.FromDate)
	}
	if filter.ToDate != "" {
		q = q.Where("slot_date <= ?", filter.ToDate)
	}
	if len(filter.States) > 0 {
		q = q.Where("state IN ?", filter.States)
	}

	var bookings []model.Booking
	if err := q.Order("slot_date, time_window, machine_id, created_at").Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// UpdateBookingState moves a booking from one state to another. It returns
// ErrNotFound when no booking with that id is in the from state.
func (s *gormStore) UpdateBookingState(ctx context.Context, id string, from, to model.BookingState) error {
	res := s.db.WithContext(ctx).Model(&model.Booking{}).
		Where("id = ? AND state = ?", id, from).
		Update("state", to)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MoveBooking re-points an active booking at a new date and window in a single statement.
func (s *gormStore) MoveBooking(ctx context.Context, id, date string, window int) error {
	res := s.db.WithContext(ctx).Model(&model.Booking{}).
		Where("id = ? AND state = ?", id, model.BookingActive).
		Updates(map[string]any{"slot_date": date, "time_window": window})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// completeBatchSize bounds the ids bound into one UPDATE.
const completeBatchSize = 500

// CompleteBookings marks the given still-active bookings completed, in batches
// inside one transaction.
func (s *gormStore) CompleteBookings(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var total int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(ids); start += completeBatchSize {
			end := min(start+completeBatchSize, len(ids))
			res := tx.Model(&model.Booking{}).
				Where("id IN ? AND state = ?", ids[start:end], model.BookingActive).
				Update("state", model.BookingCompleted)
			if res.Error != nil {
				return fmt.Errorf("failed to complete bookings: %w", res.Error)
			}
			total += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// --- User blocks ---

// BlockUser records b unless the user is already blocked, and returns whichever
// row is stored.
func (s *gormStore) BlockUser(ctx context.Context, b *model.UserBlock) (*model.UserBlock, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(b)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 1 {
		return b, nil
	}
	return s.GetUserBlock(ctx, b.UserID)
}

func (s *gormStore) GetUserBlock(ctx context.Context, userID string) (*model.UserBlock, error) {
	var b model.UserBlock
	if err := s.db.WithContext(ctx).First(&b, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (s *gormStore) ListUserBlocks(ctx context.Context) ([]model.UserBlock, error) {
	var blocks []model.UserBlock
	if err := s.db.WithContext(ctx).Order("user_id").Find(&blocks).Error; err != nil {
		return nil, fmt.Errorf("failed to list user blocks: %w", err)
	}
	return blocks, nil
}

func (s *gormStore) UnblockUser(ctx context.Context, userID string) (int64, error) {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.UserBlock{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to unblock user %s: %w", userID, res.Error)
	}
	return res.RowsAffected, nil
}

// --- Push subscriptions ---

func (s *gormStore) UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth"}),
	}).Create(sub).Error
}

func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	if err := s.db.WithContext(ctx).First(&sub, "endpoint = ?", endpoint).Error; err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (s *gormStore) ListSubscriptionsByUser(ctx context.Context, userID string) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions for user %s: %w", userID, err)
	}
	return subs, nil
}

// DeleteSubscription removes a subscription. An empty userID deletes regardless of owner.
func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint, userID string) (int64, error) {
	q := s.db.WithContext(ctx).Where("endpoint = ?", endpoint)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	res := q.Delete(&model.PushSubscription{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete subscription %s: %w", endpoint, res.Error)
	}
	return res.RowsAffected, nil
}
