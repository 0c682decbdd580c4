package admin_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/todolist/internal/domain/task"
	"github.com/geocoder89/todolist/internal/domain/user"
	"github.com/geocoder89/todolist/internal/observability"
	"github.com/geocoder89/todolist/internal/repo/memory"
	"github.com/geocoder89/todolist/internal/service/admin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc   *admin.Service
	users *memory.UsersRepo
	roles *memory.RolesRepo
	tasks *memory.TasksRepo
	prom  *observability.Prom
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := memory.NewDB()
	f := fixture{
		users: memory.NewUsersRepo(db),
		roles: memory.NewRolesRepo(db),
		tasks: memory.NewTasksRepo(db),
		prom:  observability.NewProm(prometheus.NewRegistry()),
	}
	f.svc = admin.NewService(f.users, f.tasks, memory.NewReportsRepo(db), f.prom)

	for _, r := range user.Roles {
		require.NoError(t, f.roles.EnsureRole(context.Background(), r))
	}
	return f
}

func (f fixture) user(t *testing.T, email, first, last, role string) user.User {
	t.Helper()
	ctx := context.Background()
	u, err := f.users.Create(ctx, user.User{Email: email, UserName: email, FirstName: first, LastName: last})
	require.NoError(t, err)
	require.NoError(t, f.roles.AddToRole(ctx, u.ID, role))
	return u
}

func (f fixture) task(t *testing.T, userID, title string) task.Task {
	t.Helper()
	tk, err := f.tasks.Create(context.Background(), task.Task{
		Title:    title,
		DueDate:  time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC),
		IsActive: true,
		UserID:   userID,
	})
	require.NoError(t, err)
	return tk
}

func TestListUsers_OnlyUserRole(t *testing.T) {
	f := newFixture(t)
	f.user(t, "admin@abc.com", "Admin", "User", user.RoleAdmin)
	a := f.user(t, "a@example.com", "Ada", "Lovelace", user.RoleUser)

	got, err := f.svc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)
}

func TestDeleteTasks_OnlyTargetUsersTasks(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "a@example.com", "Ada", "Lovelace", user.RoleUser)
	b := f.user(t, "b@example.com", "Alan", "Turing", user.RoleUser)
	ctx := context.Background()

	ta := f.task(t, a.ID, "a1")
	tb := f.task(t, b.ID, "b1")

	n, err := f.svc.DeleteTasks(ctx, a.ID, []int64{ta.ID, tb.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	left, err := f.svc.UserTasks(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, tb.ID, left[0].ID)

	_, err = f.svc.DeleteTasks(ctx, "ghost", []int64{tb.ID})
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUserDetails(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "a@example.com", "Ada", "Lovelace", user.RoleUser)
	f.task(t, a.ID, "a1")
	f.task(t, a.ID, "a2")

	d, err := f.svc.UserDetails(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Email, d.User.Email)
	assert.Len(t, d.Tasks, 2)

	_, err = f.svc.UserDetails(context.Background(), "ghost")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestWriteUserTasksSummaryCSV(t *testing.T) {
	f := newFixture(t)
	f.user(t, "admin@abc.com", "Admin", "User", user.RoleAdmin)
	a := f.user(t, "a@example.com", "Ada", "Lovelace", user.RoleUser)
	f.user(t, "b@example.com", "Alan", "Turing", user.RoleUser)
	f.task(t, a.ID, "a1")

	var buf bytes.Buffer
	n, err := f.svc.WriteUserTasksSummaryCSV(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "UserId,UserName,Email,FirstName,LastName,TaskCount", lines[0])
	assert.Equal(t, a.ID+",a@example.com,a@example.com,Ada,Lovelace,1", lines[1])
	assert.True(t, strings.HasSuffix(lines[2], ",Alan,Turing,0"))

	assert.Equal(t, 3.0, testutil.ToFloat64(f.prom.ReportRowsTotal.WithLabelValues("user_tasks_summary")))
}

func TestWriteTasksWithOwnersCSV(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "a@example.com", "Ada", "Lovelace", user.RoleUser)
	tk := f.task(t, a.ID, "Buy milk")

	var buf bytes.Buffer
	n, err := f.svc.WriteTasksWithOwnersCSV(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	want := "TaskId,Title,Description,DueDate,IsActive,Owner_FullName,OwnerEmail\n" +
		"1,Buy milk,,2026-10-17,true,Ada Lovelace,a@example.com\n"
	assert.Equal(t, want, buf.String())
	assert.EqualValues(t, 1, tk.ID)
}
