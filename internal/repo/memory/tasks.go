package memory

import (
	"context"
	"sort"

	"github.com/geocoder89/todolist/internal/domain/task"
)

type TasksRepo struct {
	db *DB
}

func NewTasksRepo(db *DB) *TasksRepo {
	return &TasksRepo{db: db}
}

func (r *TasksRepo) Create(_ context.Context, t task.Task) (task.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[t.UserID]; !ok {
		return task.Task{}, task.ErrOwnerNotFound
	}

	r.db.nextTaskID++
	t.ID = r.db.nextTaskID
	r.db.tasks[t.ID] = t

	return t, nil
}

func (r *TasksRepo) ListByUser(_ context.Context, userID string) ([]task.Task, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]task.Task, 0)
	for _, t := range r.db.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *TasksRepo) GetForUser(_ context.Context, userID string, id int64) (task.Task, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	t, ok := r.db.tasks[id]
	if !ok || t.UserID != userID {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

func (r *TasksRepo) Update(_ context.Context, t task.Task) (task.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	cur, ok := r.db.tasks[t.ID]
	if !ok || cur.UserID != t.UserID {
		return task.Task{}, task.ErrNotFound
	}
	r.db.tasks[t.ID] = t
	return t, nil
}

func (r *TasksRepo) Delete(_ context.Context, userID string, id int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, ok := r.db.tasks[id]
	if !ok || t.UserID != userID {
		return false, nil
	}
	delete(r.db.tasks, id)
	return true, nil
}

func (r *TasksRepo) DeleteMany(_ context.Context, userID string, ids []int64) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for _, id := range ids {
		t, ok := r.db.tasks[id]
		if !ok || t.UserID != userID {
			continue
		}
		delete(r.db.tasks, id)
		n++
	}
	return n, nil
}

func (r *TasksRepo) CountByUser(_ context.Context, userID string) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	n := 0
	for _, t := range r.db.tasks {
		if t.UserID == userID {
			n++
		}
	}
	return n, nil
}
