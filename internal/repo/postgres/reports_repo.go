package postgres

import (
	"context"

	"github.com/geocoder89/todolist/internal/domain/report"
	"github.com/geocoder89/todolist/internal/domain/user"
	"github.com/geocoder89/todolist/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReportsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewReportsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ReportsRepo {
	return &ReportsRepo{pool: pool, prom: prom}
}

func (r *ReportsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// UserTaskSummaries covers every member of the User role, zero-task users included.
func (r *ReportsRepo) UserTaskSummaries(ctx context.Context) ([]report.UserTaskSummary, error) {
	out := make([]report.UserTaskSummary, 0)

	err := r.observe("reports.user_task_summaries", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT u.id, u.user_name, u.email, u.first_name, u.last_name,
				(SELECT COUNT(*) FROM task_items t WHERE t.user_id = u.id) AS task_count
			FROM users u
			JOIN user_roles ur ON ur.user_id = u.id
			JOIN roles rl ON rl.id = ur.role_id
			WHERE rl.name = $1
			ORDER BY u.created_at, u.id
		`, user.RoleUser)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var s report.UserTaskSummary
			if err := rows.Scan(&s.UserID, &s.UserName, &s.Email, &s.FirstName, &s.LastName, &s.TaskCount); err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ReportsRepo) TasksWithOwners(ctx context.Context) ([]report.TaskWithOwner, error) {
	out := make([]report.TaskWithOwner, 0)

	err := r.observe("reports.tasks_with_owners", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT t.id, t.title, t.description, t.due_date, t.is_active,
				TRIM(u.first_name || ' ' || u.last_name), u.email
			FROM task_items t
			JOIN users u ON u.id = t.user_id
			ORDER BY t.id
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var tw report.TaskWithOwner
			if err := rows.Scan(&tw.TaskID, &tw.Title, &tw.Description, &tw.DueDate.Time, &tw.IsActive, &tw.OwnerFullName, &tw.OwnerEmail); err != nil {
				return err
			}
			out = append(out, tw)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}
