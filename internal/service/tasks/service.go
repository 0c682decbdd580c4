package tasks

import (
	"context"

	"github.com/geocoder89/todolist/internal/domain/task"
)

// Store is owner-scoped: every single-task operation filters on userID.
type Store interface {
	Create(ctx context.Context, t task.Task) (task.Task, error)
	ListByUser(ctx context.Context, userID string) ([]task.Task, error)
	GetForUser(ctx context.Context, userID string, id int64) (task.Task, error)
	Update(ctx context.Context, t task.Task) (task.Task, error)
	Delete(ctx context.Context, userID string, id int64) (bool, error)
	CountByUser(ctx context.Context, userID string) (int, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]task.Task, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *Service) GetForUser(ctx context.Context, userID string, id int64) (task.Task, error) {
	return s.store.GetForUser(ctx, userID, id)
}

func (s *Service) Create(ctx context.Context, userID string, req task.CreateTaskRequest) (task.Task, error) {
	return s.store.Create(ctx, task.NewFromCreateRequest(userID, req))
}

// Update overwrites every editable field of a task the user owns.
func (s *Service) Update(ctx context.Context, userID string, id int64, req task.UpdateTaskRequest) (task.Task, error) {
	cur, err := s.store.GetForUser(ctx, userID, id)
	if err != nil {
		return task.Task{}, err
	}

	return s.store.Update(ctx, cur.ApplyUpdate(req))
}

// Delete returns false when no task with id belongs to userID.
func (s *Service) Delete(ctx context.Context, userID string, id int64) (bool, error) {
	return s.store.Delete(ctx, userID, id)
}

func (s *Service) CountForUser(ctx context.Context, userID string) (int, error) {
	return s.store.CountByUser(ctx, userID)
}
