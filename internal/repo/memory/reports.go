package memory

import (
	"context"
	"sort"

	"github.com/geocoder89/todolist/internal/domain/report"
	"github.com/geocoder89/todolist/internal/domain/task"
	"github.com/geocoder89/todolist/internal/domain/user"
)

type ReportsRepo struct {
	db *DB
}

func NewReportsRepo(db *DB) *ReportsRepo {
	return &ReportsRepo{db: db}
}

func (r *ReportsRepo) UserTaskSummaries(_ context.Context) ([]report.UserTaskSummary, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	counts := make(map[string]int)
	for _, t := range r.db.tasks {
		counts[t.UserID]++
	}

	out := make([]report.UserTaskSummary, 0)
	for _, id := range r.db.userOrder {
		if !r.db.userRoles[id][user.RoleUser] {
			continue
		}
		u := r.db.users[id]
		out = append(out, report.UserTaskSummary{
			UserID:    u.ID,
			UserName:  u.UserName,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			TaskCount: counts[id],
		})
	}
	return out, nil
}

func (r *ReportsRepo) TasksWithOwners(_ context.Context) ([]report.TaskWithOwner, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	tasks := make([]task.Task, 0, len(r.db.tasks))
	for _, t := range r.db.tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })

	out := make([]report.TaskWithOwner, 0, len(tasks))
	for _, t := range tasks {
		owner, ok := r.db.users[t.UserID]
		if !ok {
			continue
		}
		out = append(out, report.TaskWithOwner{
			TaskID:        t.ID,
			Title:         t.Title,
			Description:   t.Description,
			DueDate:       report.Date{Time: t.DueDate},
			IsActive:      t.IsActive,
			OwnerFullName: owner.FullName(),
			OwnerEmail:    owner.Email,
		})
	}
	return out, nil
}
