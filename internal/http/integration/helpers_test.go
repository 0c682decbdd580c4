package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/todolist/internal/app"
	"github.com/geocoder89/todolist/internal/config"
	"github.com/geocoder89/todolist/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	adminEmail    = "admin@abc.com"
	adminPassword = "Admin@123"
)

func testConfig() config.Config {
	return config.Config{
		Env:               "test",
		Store:             config.StoreMemory,
		JWTKey:            "test-secret-key",
		JWTIssuer:         "todolist",
		JWTAudience:       "todolist-clients",
		AdminUserName:     "Admin",
		AdminEmail:        adminEmail,
		AdminPassword:     adminPassword,
		AdminFirstName:    "Admin",
		AdminLastName:     "User",
		ResetTokenTTL:     time.Hour,
		PublicBaseURL:     "http://localhost:8080",
		AuthRatePerMinute: 6000,
		AuthRateBurst:     1000,
		MaxBodyBytes:      1 << 20,
	}
}

// setupRouter builds the full application on cfg, seeds the identity data
// and returns the router.
func setupRouter(t *testing.T, cfg config.Config) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	a, err := app.Build(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("build app: %v", err)
	}
	t.Cleanup(a.Close)

	if err := a.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if cfg.Store == config.StorePostgres {
		resetPostgres(t, cfg.DBURL)
	}
	if err := a.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	router, err := a.Router()
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return router
}

// postgresConfig skips the test unless TEST_DB_DSN points at a scratch
// database; setupRouter empties it before each run.
func postgresConfig(t *testing.T) config.Config {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	cfg := testConfig()
	cfg.Store = config.StorePostgres
	cfg.DBURL = dsn
	cfg.DBMaxConns = 4

	return cfg
}

func resetPostgres(t *testing.T, dsn string) {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("failed to create pgx pool: %v", err)
	}
	defer pool.Close()

	_, err = pool.Exec(context.Background(), `
		TRUNCATE password_resets, task_items, user_roles, users, roles
		RESTART IDENTITY CASCADE
	`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

func doRequest(router http.Handler, method, path, body string, header http.Header, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))

	if body != "" && (method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch) {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}}
}

func postForm(router http.Handler, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, want, w.Body.String())
	}
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range w.Result().Cookies() {
		if c.Name == middlewares.SessionCookie && c.Value != "" {
			return c
		}
	}

	t.Fatalf("%s cookie not found in response", middlewares.SessionCookie)
	return nil
}

func register(t *testing.T, router http.Handler, email, first, last string) {
	t.Helper()

	body := `{"email":"` + email + `","password":"Passw0rd!","firstName":"` + first + `","lastName":"` + last + `"}`
	w := doRequest(router, http.MethodPost, "/api/AccountApi/register", body, nil)
	expectStatus(t, w, http.StatusOK)
}

func login(t *testing.T, router http.Handler, path, email, password string) string {
	t.Helper()

	w := doRequest(router, http.MethodPost, path, `{"email":"`+email+`","password":"`+password+`"}`, nil)
	expectStatus(t, w, http.StatusOK)

	var resp struct {
		Token string `json:"token"`
	}
	mustReadJSON(t, w, &resp)

	if strings.TrimSpace(resp.Token) == "" {
		t.Fatalf("login expected token, got empty")
	}
	return resp.Token
}

func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format(time.RFC3339)
}
