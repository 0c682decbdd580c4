package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/todolist/internal/domain/user"
	"github.com/geocoder89/todolist/internal/http/handlers"
	"github.com/geocoder89/todolist/internal/service/accounts"
	"github.com/geocoder89/todolist/internal/service/admin"
	"github.com/gin-gonic/gin"
)

type fakeAccounts struct {
	registerFn  func(ctx context.Context, req user.RegisterRequest) (user.User, error)
	authFn      func(ctx context.Context, email, password string) (user.User, error)
	adminAuthFn func(ctx context.Context, email, password string) (user.User, error)
	logoutFn    func(ctx context.Context, jti string, expiresAt time.Time) error
	profileFn   func(ctx context.Context, userID string) (user.Profile, error)
}

func (f *fakeAccounts) Register(ctx context.Context, req user.RegisterRequest) (user.User, error) {
	if f.registerFn != nil {
		return f.registerFn(ctx, req)
	}
	return user.User{}, nil
}

func (f *fakeAccounts) Authenticate(ctx context.Context, email, password string) (user.User, error) {
	if f.authFn != nil {
		return f.authFn(ctx, email, password)
	}
	return user.User{}, accounts.ErrInvalidCredentials
}

func (f *fakeAccounts) AuthenticateAdmin(ctx context.Context, email, password string) (user.User, error) {
	if f.adminAuthFn != nil {
		return f.adminAuthFn(ctx, email, password)
	}
	return user.User{}, accounts.ErrInvalidCredentials
}

func (f *fakeAccounts) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if f.logoutFn != nil {
		return f.logoutFn(ctx, jti, expiresAt)
	}
	return nil
}

func (f *fakeAccounts) Profile(ctx context.Context, userID string) (user.Profile, error) {
	if f.profileFn != nil {
		return f.profileFn(ctx, userID)
	}
	return user.Profile{}, nil
}

type fakeIssuer struct{}

func (fakeIssuer) IssueToken(u user.User) (string, time.Time, error) {
	return "token-for-" + u.ID, time.Now().Add(time.Hour), nil
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newAuthRouter(f *fakeAccounts) *gin.Engine {
	h := handlers.NewAuthHandler(f, fakeIssuer{})

	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/admin/login", h.AdminLogin)
	r.POST("/logout", asUser("u-1"), h.Logout)
	r.GET("/profile", asUser("u-1"), h.Profile)
	return r
}

func TestRegister_Responses(t *testing.T) {
	f := &fakeAccounts{}
	r := newAuthRouter(f)
	body := `{"email":"ada@example.com","password":"Passw0rd!","firstName":"Ada","lastName":"Lovelace"}`

	f.registerFn = func(context.Context, user.RegisterRequest) (user.User, error) { return user.User{ID: "u-1"}, nil }
	if w := postJSON(r, "/register", body); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "User registered successfully") {
		t.Fatalf("ok: got %d %s", w.Code, w.Body.String())
	}

	f.registerFn = func(context.Context, user.RegisterRequest) (user.User, error) { return user.User{}, user.ErrEmailTaken }
	if w := postJSON(r, "/register", body); w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "email_taken") {
		t.Fatalf("duplicate: got %d %s", w.Code, w.Body.String())
	}

	f.registerFn = func(context.Context, user.RegisterRequest) (user.User, error) {
		return user.User{}, &accounts.PasswordPolicyError{Problems: []string{"Passwords must have at least one digit ('0'-'9')."}}
	}
	w := postJSON(r, "/register", body)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "at least one digit") {
		t.Fatalf("policy: got %d %s", w.Code, w.Body.String())
	}

	if w := postJSON(r, "/register", `{"email":"nope"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("validation: got %d", w.Code)
	}
}

func TestLogin_IssuesToken(t *testing.T) {
	f := &fakeAccounts{
		authFn: func(_ context.Context, email, password string) (user.User, error) {
			if email == "ada@example.com" && password == "Passw0rd!" {
				return user.User{ID: "u-1"}, nil
			}
			return user.User{}, accounts.ErrInvalidCredentials
		},
	}
	r := newAuthRouter(f)

	w := postJSON(r, "/login", `{"email":"ada@example.com","password":"Passw0rd!"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Token != "token-for-u-1" {
		t.Fatalf("unexpected body %s (%v)", w.Body.String(), err)
	}

	if w := postJSON(r, "/login", `{"email":"ada@example.com","password":"nope"}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: status = %d", w.Code)
	}
}

func TestAdminLogin_RejectsNonAdmins(t *testing.T) {
	f := &fakeAccounts{
		adminAuthFn: func(context.Context, string, string) (user.User, error) {
			return user.User{}, accounts.ErrNotAdmin
		},
	}
	r := newAuthRouter(f)

	w := postJSON(r, "/admin/login", `{"email":"ada@example.com","password":"Passw0rd!"}`)
	if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "not_admin") {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}

func TestLogout_RevokesCallerToken(t *testing.T) {
	var gotJTI string
	f := &fakeAccounts{
		logoutFn: func(_ context.Context, jti string, _ time.Time) error {
			gotJTI = jti
			return nil
		},
	}
	r := newAuthRouter(f)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/logout", nil))

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if gotJTI != "jti-u-1" {
		t.Fatalf("revoked %q", gotJTI)
	}
}

func TestProfile(t *testing.T) {
	f := &fakeAccounts{
		profileFn: func(_ context.Context, userID string) (user.Profile, error) {
			return user.Profile{ID: userID, UserName: "ada@example.com", TaskCount: 2}, nil
		},
	}
	r := newAuthRouter(f)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/profile", nil))

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"username":"ada@example.com"`) {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}

type fakeDirectory struct {
	users map[string]user.User
	err   error
}

func (f *fakeDirectory) List(context.Context) ([]user.User, error) {
	out := make([]user.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, f.err
}

func (f *fakeDirectory) GetByID(_ context.Context, id string) (user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeDirectory) SetPassword(_ context.Context, id, password string) error {
	if _, ok := f.users[id]; !ok {
		return user.ErrNotFound
	}
	if len(password) < 6 {
		return &accounts.PasswordPolicyError{Problems: []string{"Passwords must be at least 6 characters."}}
	}
	return nil
}

func (f *fakeDirectory) DeleteUser(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return user.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeAdmin struct {
	deleted map[string][]int64
}

func (f *fakeAdmin) UserDetails(_ context.Context, userID string) (admin.UserDetails, error) {
	if userID != "u-1" {
		return admin.UserDetails{}, user.ErrNotFound
	}
	return admin.UserDetails{User: user.User{ID: userID}}, nil
}

func (f *fakeAdmin) DeleteTasks(_ context.Context, userID string, ids []int64) (int64, error) {
	if userID != "u-1" {
		return 0, user.ErrNotFound
	}
	// ids above 100 belong to nobody
	var owned []int64
	for _, id := range ids {
		if id <= 100 {
			owned = append(owned, id)
		}
	}
	f.deleted[userID] = owned
	return int64(len(owned)), nil
}

func (f *fakeAdmin) WriteUserTasksSummaryCSV(_ context.Context, w io.Writer) (int, error) {
	_, err := io.WriteString(w, "UserId,UserName,Email,FirstName,LastName,TaskCount\n")
	return 1, err
}

func (f *fakeAdmin) WriteTasksWithOwnersCSV(context.Context, io.Writer) (int, error) {
	return 0, errors.New("db down")
}

func newUsersAdminRouter() (*gin.Engine, *fakeAdmin) {
	dir := &fakeDirectory{users: map[string]user.User{
		"u-1": {ID: "u-1", Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace", PasswordHash: "secret-hash"},
	}}
	adm := &fakeAdmin{deleted: map[string][]int64{}}
	h := handlers.NewUsersAdminHandler(dir, adm)

	r := gin.New()
	g := r.Group("/api/AccountApi", asUser("a-1", "Admin"))
	g.GET("/AspNetUsers", h.ListUsers)
	g.GET("/AspNetUsers/:userId", h.GetUser)
	g.GET("/AspNetUsers/:userId/details", h.UserDetails)
	g.POST("/AspNetUsers/:userId/deleteTasks", h.DeleteTasks)
	g.PUT("/AspNetUsers/:userId/updatePassword", h.UpdatePassword)
	g.DELETE("/AspNetUsers/:userId", h.DeleteUser)
	g.GET("/Reports/UserSummary", h.UserSummaryReport)
	g.GET("/Reports/TaskReport", h.TaskReport)
	return r, adm
}

func TestUsersAdmin_ListNeverLeaksHash(t *testing.T) {
	r, _ := newUsersAdminRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/AccountApi/AspNetUsers", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "secret-hash") {
		t.Fatalf("password hash leaked: %s", w.Body.String())
	}
}

func TestUsersAdmin_GetUser(t *testing.T) {
	r, _ := newUsersAdminRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/AccountApi/AspNetUsers/u-1", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"firstName":"Ada"`) {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/AccountApi/AspNetUsers/ghost", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestUsersAdmin_DeleteTasks(t *testing.T) {
	r, adm := newUsersAdminRouter()

	w := postJSON(r, "/api/AccountApi/AspNetUsers/u-1/deleteTasks", `[1,2,3]`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"deleted":3`) {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
	if len(adm.deleted["u-1"]) != 3 {
		t.Fatalf("ids not forwarded: %v", adm.deleted)
	}

	if w := postJSON(r, "/api/AccountApi/AspNetUsers/ghost/deleteTasks", `[1]`); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestUsersAdmin_DeleteTasks_NoneOwnedIsNotFound(t *testing.T) {
	r, _ := newUsersAdminRouter()

	w := postJSON(r, "/api/AccountApi/AspNetUsers/u-1/deleteTasks", `[999]`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "No tasks found to delete.") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestUsersAdmin_UpdatePassword(t *testing.T) {
	r, _ := newUsersAdminRouter()

	put := func(path, body string) int {
		req := httptest.NewRequest(http.MethodPut, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if got := put("/api/AccountApi/AspNetUsers/u-1/updatePassword", `{"password":"Fresh#123"}`); got != http.StatusOK {
		t.Fatalf("ok: %d", got)
	}
	if got := put("/api/AccountApi/AspNetUsers/u-1/updatePassword", `{"password":"x"}`); got != http.StatusBadRequest {
		t.Fatalf("policy: %d", got)
	}
	if got := put("/api/AccountApi/AspNetUsers/ghost/updatePassword", `{"password":"Fresh#123"}`); got != http.StatusNotFound {
		t.Fatalf("missing: %d", got)
	}
}

func TestUsersAdmin_DeleteUser(t *testing.T) {
	r, _ := newUsersAdminRouter()

	for _, want := range []int{http.StatusOK, http.StatusNotFound} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/AccountApi/AspNetUsers/u-1", nil))
		if w.Code != want {
			t.Fatalf("status = %d, want %d", w.Code, want)
		}
	}
}

func TestReports_CSVAttachment(t *testing.T) {
	r, _ := newUsersAdminRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/AccountApi/Reports/UserSummary", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("Content-Type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, handlers.UserTasksSummaryFile) {
		t.Fatalf("Content-Disposition = %q", cd)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/AccountApi/Reports/TaskReport", nil))
	if w.Code != http.StatusInternalServerError || w.Header().Get("Content-Disposition") != "" {
		t.Fatalf("failed report should be a clean 500, got %d %q", w.Code, w.Header().Get("Content-Disposition"))
	}
}

func TestHealth(t *testing.T) {
	r := gin.New()
	up := handlers.NewHealthHandler(func(context.Context) error { return nil })
	down := handlers.NewHealthHandler(func(context.Context) error { return errors.New("db down") })
	r.GET("/healthz", up.Healthz)
	r.GET("/readyz", up.Readyz)
	r.GET("/readyz-down", down.Readyz)

	for path, want := range map[string]int{"/healthz": 200, "/readyz": 200, "/readyz-down": 503} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != want {
			t.Fatalf("%s: status = %d, want %d", path, w.Code, want)
		}
	}
}
