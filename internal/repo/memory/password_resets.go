package memory

import (
	"context"
	"time"

	"github.com/geocoder89/todolist/internal/domain/user"
)

type PasswordResetsRepo struct {
	db *DB
}

func NewPasswordResetsRepo(db *DB) *PasswordResetsRepo {
	return &PasswordResetsRepo{db: db}
}

func (r *PasswordResetsRepo) Create(_ context.Context, row user.PasswordReset) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[row.UserID]; !ok {
		return user.ErrNotFound
	}
	r.db.resets[row.TokenHash] = row
	return nil
}

// Consume marks a live token used and stores passwordHash on its user in
// one step.
func (r *PasswordResetsRepo) Consume(_ context.Context, userID, tokenHash, passwordHash string, now time.Time) (user.PasswordReset, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	row, ok := r.db.resets[tokenHash]
	if !ok || row.UserID != userID || row.UsedAt != nil || !now.Before(row.ExpiresAt) {
		return user.PasswordReset{}, user.ErrResetTokenInvalid
	}

	u, ok := r.db.users[userID]
	if !ok {
		return user.PasswordReset{}, user.ErrResetTokenInvalid
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = now.UTC()
	r.db.users[userID] = u

	usedAt := now
	row.UsedAt = &usedAt
	r.db.resets[tokenHash] = row

	return row, nil
}

// PurgeStale drops rows that were used or expired before cutoff.
func (r *PasswordResetsRepo) PurgeStale(_ context.Context, cutoff time.Time) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	n := 0
	for k, row := range r.db.resets {
		if row.ExpiresAt.Before(cutoff) || (row.UsedAt != nil && row.UsedAt.Before(cutoff)) {
			delete(r.db.resets, k)
			n++
		}
	}
	return n, nil
}
