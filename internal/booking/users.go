package booking

import (
	"context"
	"errors"
	"strings"

	"laundry-booking-backend/internal/lock"
	"laundry-booking-backend/internal/model"
	"laundry-booking-backend/internal/store"
)

// userBlocked reports whether an admin has barred userID from booking.
func (c *core) userBlocked(ctx context.Context, userID string) (bool, error) {
	_, err := c.store.GetUserBlock(ctx, userID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, transient("get user block", err)
	}
}

// BlockUser bars a user from creating bookings. Their existing bookings stand.
// Blocking an already blocked user returns the existing block.
func (a *Admin) BlockUser(ctx context.Context, actor Actor, userID, reason string) (*model.UserBlock, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, invalid("user id is required")
	}
	if userID == actor.UserID {
		return nil, invalid("admins cannot block themselves")
	}

	release := a.locks.Acquire(lock.User(userID))
	defer release()

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	b, err := a.store.BlockUser(ctx, &model.UserBlock{
		UserID:    userID,
		Reason:    strings.TrimSpace(reason),
		BlockedBy: actor.UserID,
	})
	if err != nil {
		return nil, transient("block user", err)
	}
	return b, nil
}

// UnblockUser lifts a block and returns how many were removed (0 or 1).
func (a *Admin) UnblockUser(ctx context.Context, actor Actor, userID string) (int64, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}

	release := a.locks.Acquire(lock.User(userID))
	defer release()

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	n, err := a.store.UnblockUser(ctx, userID)
	if err != nil {
		return 0, transient("unblock user", err)
	}
	return n, nil
}

func (a *Admin) ListBlockedUsers(ctx context.Context, actor Actor) ([]model.UserBlock, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	blocks, err := a.store.ListUserBlocks(ctx)
	if err != nil {
		return nil, transient("list user blocks", err)
	}
	return blocks, nil
}
