package postgres

import (
	"context"

	"github.com/geocoder89/todolist/internal/domain/user"
	"github.com/geocoder89/todolist/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RolesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewRolesRepo(pool *pgxpool.Pool, prom *observability.Prom) *RolesRepo {
	return &RolesRepo{pool: pool, prom: prom}
}

func (r *RolesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// EnsureRole is idempotent.
func (r *RolesRepo) EnsureRole(ctx context.Context, name string) error {
	return r.observe("roles.ensure", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO roles (id, name) VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING
		`, uuid.NewString(), name)
		return err
	})
}

func (r *RolesRepo) AddToRole(ctx context.Context, userID, role string) error {
	var tag pgconn.CommandTag

	err := r.observe("roles.add_user", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `
			INSERT INTO user_roles (user_id, role_id)
			SELECT u.id, rl.id FROM users u, roles rl
			WHERE u.id = $1 AND rl.name = $2
			ON CONFLICT DO NOTHING
		`, userID, role)
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		// either already a member or one side is missing
		var exists bool
		err = r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return user.ErrNotFound
		}
	}

	return nil
}
