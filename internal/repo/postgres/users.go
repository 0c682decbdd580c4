package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/todolist/internal/domain/user"
	"github.com/geocoder89/todolist/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// roles are aggregated inline so every read returns a complete user
const userColumns = `u.id, u.user_name, u.email, u.first_name, u.last_name, u.password_hash,
	u.email_confirmed, u.created_at, u.updated_at,
	COALESCE(ARRAY(
		SELECT r.name FROM user_roles ur JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = u.id ORDER BY r.name
	), '{}') AS roles`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.UserName,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.PasswordHash,
		&u.EmailConfirmed,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.Roles,
	)

	return u, err
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	err := r.observe("users.create", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO users (id, user_name, email, normalized_email, first_name, last_name,
				password_hash, email_confirmed, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`, u.ID, u.UserName, u.Email, user.NormalizeEmail(u.Email), u.FirstName, u.LastName,
			u.PasswordHash, u.EmailConfirmed, u.CreatedAt, u.UpdatedAt)
		return err
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	u.Roles = []string{}
	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users u WHERE u.normalized_email = $1`,
			user.NormalizeEmail(email),
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	return r.list(ctx, "users.list",
		`SELECT `+userColumns+` FROM users u ORDER BY u.created_at, u.id`)
}

// ListByRole returns the members of role in registration order.
func (r *UsersRepo) ListByRole(ctx context.Context, role string) ([]user.User, error) {
	return r.list(ctx, "users.list_by_role", `
		SELECT `+userColumns+`
		FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		JOIN roles rl ON rl.id = ur.role_id
		WHERE rl.name = $1
		ORDER BY u.created_at, u.id`, role)
}

func (r *UsersRepo) list(ctx context.Context, op, sql string, args ...any) ([]user.User, error) {
	out := make([]user.User, 0)

	err := r.observe(op, func() error {
		rows, err := r.pool.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			out = append(out, u)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProfile writes names and email; user_name tracks the email.
func (r *UsersRepo) UpdateProfile(ctx context.Context, id, firstName, lastName, email string) (user.User, error) {
	var tag pgconn.CommandTag

	err := r.observe("users.update_profile", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `
			UPDATE users
			SET first_name = $2, last_name = $3, email = $4, user_name = $4,
				normalized_email = $5, updated_at = NOW()
			WHERE id = $1
		`, id, firstName, lastName, email, user.NormalizeEmail(email))
		return err
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	if tag.RowsAffected() == 0 {
		return user.User{}, user.ErrNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *UsersRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	var tag pgconn.CommandTag

	err := r.observe("users.update_password", func() error {
		var err error
		tag, err = r.pool.Exec(ctx,
			`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
		return err
	})

	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// Delete removes the user; roles, tasks and reset tokens cascade.
func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	var tag pgconn.CommandTag

	err := r.observe("users.delete", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		return err
	})

	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
