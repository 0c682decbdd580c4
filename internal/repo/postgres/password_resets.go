package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/todolist/internal/domain/user"
	"github.com/geocoder89/todolist/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PasswordResetsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewPasswordResetsRepo(pool *pgxpool.Pool, prom *observability.Prom) *PasswordResetsRepo {
	return &PasswordResetsRepo{pool: pool, prom: prom}
}

func (r *PasswordResetsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *PasswordResetsRepo) Create(ctx context.Context, row user.PasswordReset) error {
	return r.observe("password_resets.create", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO password_resets (id, user_id, token_hash, expires_at, used_at, created_at)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, row.ID, row.UserID, row.TokenHash, row.ExpiresAt, row.UsedAt, row.CreatedAt)
		return err
	})
}

// Consume marks a live token used and stores passwordHash on its user in the
// same transaction. The row is locked so two concurrent resets cannot both
// succeed with the same token.
func (r *PasswordResetsRepo) Consume(ctx context.Context, userID, tokenHash, passwordHash string, now time.Time) (user.PasswordReset, error) {
	var row user.PasswordReset

	err := r.observe("password_resets.consume", func() error {
		tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		err = tx.QueryRow(ctx, `
			SELECT id, user_id, token_hash, expires_at, used_at, created_at
			FROM password_resets
			WHERE user_id = $1 AND token_hash = $2
			FOR UPDATE
		`, userID, tokenHash).Scan(
			&row.ID,
			&row.UserID,
			&row.TokenHash,
			&row.ExpiresAt,
			&row.UsedAt,
			&row.CreatedAt,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return user.ErrResetTokenInvalid
			}
			return err
		}

		if row.UsedAt != nil || !now.Before(row.ExpiresAt) {
			return user.ErrResetTokenInvalid
		}

		tag, err := tx.Exec(ctx,
			`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, row.UserID, passwordHash)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return user.ErrResetTokenInvalid
		}

		if _, err := tx.Exec(ctx, `UPDATE password_resets SET used_at = $2 WHERE id = $1`, row.ID, now); err != nil {
			return err
		}
		usedAt := now
		row.UsedAt = &usedAt

		return tx.Commit(ctx)
	})

	if err != nil {
		return user.PasswordReset{}, err
	}
	return row, nil
}

// PurgeStale deletes rows that were used or expired before cutoff.
func (r *PasswordResetsRepo) PurgeStale(ctx context.Context, cutoff time.Time) (int, error) {
	var n int64

	err := r.observe("password_resets.purge", func() error {
		tag, err := r.pool.Exec(ctx, `
			DELETE FROM password_resets
			WHERE expires_at < $1 OR used_at < $1
		`, cutoff)
		if err != nil {
			return err
		}
		n = tag.RowsAffected()
		return nil
	})

	return int(n), err
}
