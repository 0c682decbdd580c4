package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/todolist/internal/domain/task"
	"github.com/geocoder89/todolist/internal/observability"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TasksRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTasksRepo(pool *pgxpool.Pool, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{pool: pool, prom: prom}
}

func (r *TasksRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *TasksRepo) Create(ctx context.Context, t task.Task) (task.Task, error) {
	err := r.observe("tasks.create", func() error {
		return r.pool.QueryRow(ctx, `
			INSERT INTO task_items (title, description, due_date, is_active, user_id)
			VALUES ($1,$2,$3,$4,$5)
			RETURNING id
		`, t.Title, t.Description, t.DueDate, t.IsActive, t.UserID).Scan(&t.ID)
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return task.Task{}, task.ErrOwnerNotFound
		}
		return task.Task{}, err
	}

	return t, nil
}

func (r *TasksRepo) ListByUser(ctx context.Context, userID string) ([]task.Task, error) {
	out := make([]task.Task, 0)

	err := r.observe("tasks.list_by_user", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT id, title, description, due_date, is_active, user_id
			FROM task_items
			WHERE user_id = $1
			ORDER BY id
		`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t task.Task
			if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.DueDate, &t.IsActive, &t.UserID); err != nil {
				return err
			}
			out = append(out, t)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetForUser treats another user's task the same as a missing one.
func (r *TasksRepo) GetForUser(ctx context.Context, userID string, id int64) (task.Task, error) {
	var t task.Task

	err := r.observe("tasks.get_for_user", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT id, title, description, due_date, is_active, user_id
			FROM task_items
			WHERE id = $1 AND user_id = $2
		`, id, userID).Scan(&t.ID, &t.Title, &t.Description, &t.DueDate, &t.IsActive, &t.UserID)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, err
	}
	return t, nil
}

func (r *TasksRepo) Update(ctx context.Context, t task.Task) (task.Task, error) {
	var tag pgconn.CommandTag

	err := r.observe("tasks.update", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `
			UPDATE task_items
			SET title = $3, description = $4, due_date = $5, is_active = $6
			WHERE id = $1 AND user_id = $2
		`, t.ID, t.UserID, t.Title, t.Description, t.DueDate, t.IsActive)
		return err
	})

	if err != nil {
		return task.Task{}, err
	}
	if tag.RowsAffected() == 0 {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

// Delete reports whether a row owned by userID was removed.
func (r *TasksRepo) Delete(ctx context.Context, userID string, id int64) (bool, error) {
	var tag pgconn.CommandTag

	err := r.observe("tasks.delete", func() error {
		var err error
		tag, err = r.pool.Exec(ctx,
			`DELETE FROM task_items WHERE id = $1 AND user_id = $2`, id, userID)
		return err
	})

	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteMany ignores ids that do not belong to userID.
func (r *TasksRepo) DeleteMany(ctx context.Context, userID string, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var tag pgconn.CommandTag

	err := r.observe("tasks.delete_many", func() error {
		var err error
		tag, err = r.pool.Exec(ctx,
			`DELETE FROM task_items WHERE user_id = $1 AND id = ANY($2)`, userID, ids)
		return err
	})

	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *TasksRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int

	err := r.observe("tasks.count_by_user", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM task_items WHERE user_id = $1`, userID).Scan(&n)
	})

	return n, err
}
