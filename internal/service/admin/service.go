// Package admin holds the cross-user views and exports behind the admin area.
package admin

import (
	"context"
	"fmt"
	"io"

	"github.com/geocoder89/todolist/internal/domain/report"
	"github.com/geocoder89/todolist/internal/domain/task"
	"github.com/geocoder89/todolist/internal/domain/user"
	"github.com/geocoder89/todolist/internal/observability"
	csvreport "github.com/geocoder89/todolist/internal/report"
)

type UserReader interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	ListByRole(ctx context.Context, role string) ([]user.User, error)
}

type TaskStore interface {
	ListByUser(ctx context.Context, userID string) ([]task.Task, error)
	DeleteMany(ctx context.Context, userID string, ids []int64) (int64, error)
}

type ReportStore interface {
	UserTaskSummaries(ctx context.Context) ([]report.UserTaskSummary, error)
	TasksWithOwners(ctx context.Context) ([]report.TaskWithOwner, error)
}

type UserDetails struct {
	User  user.User   `json:"user"`
	Tasks []task.Task `json:"tasks"`
}

type Service struct {
	users   UserReader
	tasks   TaskStore
	reports ReportStore
	prom    *observability.Prom
}

func NewService(users UserReader, tasks TaskStore, reports ReportStore, prom *observability.Prom) *Service {
	return &Service{users: users, tasks: tasks, reports: reports, prom: prom}
}

// ListUsers returns the regular (User role) accounts.
func (s *Service) ListUsers(ctx context.Context) ([]user.User, error) {
	return s.users.ListByRole(ctx, user.RoleUser)
}

func (s *Service) UserTasks(ctx context.Context, userID string) ([]task.Task, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.tasks.ListByUser(ctx, userID)
}

func (s *Service) UserDetails(ctx context.Context, userID string) (UserDetails, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return UserDetails{}, err
	}

	ts, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return UserDetails{}, fmt.Errorf("list tasks: %w", err)
	}

	return UserDetails{User: u, Tasks: ts}, nil
}

// DeleteTasks removes the listed tasks owned by userID. Ids owned by
// someone else are ignored, never deleted.
func (s *Service) DeleteTasks(ctx context.Context, userID string, ids []int64) (int64, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return 0, err
	}
	return s.tasks.DeleteMany(ctx, userID, ids)
}

func (s *Service) UserTasksSummary(ctx context.Context) ([]report.UserTaskSummary, error) {
	return s.reports.UserTaskSummaries(ctx)
}

func (s *Service) TasksWithOwners(ctx context.Context) ([]report.TaskWithOwner, error) {
	return s.reports.TasksWithOwners(ctx)
}

// WriteUserTasksSummaryCSV returns the number of CSV lines written.
func (s *Service) WriteUserTasksSummaryCSV(ctx context.Context, w io.Writer) (int, error) {
	rows, err := s.UserTasksSummary(ctx)
	if err != nil {
		return 0, fmt.Errorf("load user summary: %w", err)
	}

	n, err := csvreport.WriteCSV(w, rows)
	s.prom.ObserveReport("user_tasks_summary", n)
	return n, err
}

func (s *Service) WriteTasksWithOwnersCSV(ctx context.Context, w io.Writer) (int, error) {
	rows, err := s.TasksWithOwners(ctx)
	if err != nil {
		return 0, fmt.Errorf("load task report: %w", err)
	}

	n, err := csvreport.WriteCSV(w, rows)
	s.prom.ObserveReport("tasks_with_owners", n)
	return n, err
}
