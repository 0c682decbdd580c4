package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/todolist/internal/auth"
	"github.com/geocoder89/todolist/internal/config"
	"github.com/geocoder89/todolist/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() config.Config {
	return config.Config{
		Env:            "test",
		Store:          config.StoreMemory,
		JWTKey:         "test-secret-key",
		JWTIssuer:      "todolist",
		JWTAudience:    "todolist-clients",
		AdminUserName:  "Admin",
		AdminEmail:     "admin@abc.com",
		AdminPassword:  "Admin@123",
		AdminFirstName: "Admin",
		AdminLastName:  "User",
		ResetTokenTTL:  time.Hour,
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuild_MemoryStore(t *testing.T) {
	a, err := Build(context.Background(), memoryConfig(), discard())
	require.NoError(t, err)
	defer a.Close()

	assert.NoError(t, a.Migrate())
	assert.NoError(t, a.Ping(context.Background()))

	_, ok := a.revoker.(*auth.CacheRevoker)
	assert.True(t, ok, "without REDIS_ADDR revocations stay in process")
}

func TestSeed_IsIdempotent(t *testing.T) {
	ctx := context.Background()

	a, err := Build(ctx, memoryConfig(), discard())
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Seed(ctx))
	require.NoError(t, a.Seed(ctx))

	users, err := a.users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "admin@abc.com", users[0].Email)

	u, err := a.Accounts.AuthenticateAdmin(ctx, "admin@abc.com", "Admin@123")
	require.NoError(t, err)
	assert.Equal(t, "admin@abc.com", u.Email)
}

func TestBuild_UnreachableRedisFails(t *testing.T) {
	cfg := memoryConfig()
	cfg.RedisAddr = "127.0.0.1:1"

	_, err := Build(context.Background(), cfg, discard())
	assert.ErrorContains(t, err, "connect redis")
}

func TestMetricsHandler(t *testing.T) {
	a, err := Build(context.Background(), memoryConfig(), discard())
	require.NoError(t, err)
	defer a.Close()

	w := httptest.NewRecorder()
	a.MetricsHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRouter(t *testing.T) {
	a, err := Build(context.Background(), memoryConfig(), discard())
	require.NoError(t, err)
	defer a.Close()

	r, err := a.Router()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSweeper_PurgesUsedResetTokens(t *testing.T) {
	ctx := context.Background()

	a, err := Build(ctx, memoryConfig(), discard())
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Seed(ctx))

	token, err := a.Accounts.ForgotPassword(ctx, "admin@abc.com")
	require.NoError(t, err)
	require.NoError(t, a.Accounts.ResetPassword(ctx, user.ResetPasswordRequest{
		Email:           "admin@abc.com",
		NewPassword:     "N3w-Secret",
		ConfirmPassword: "N3w-Secret",
		Token:           token,
	}))

	// used_at is strictly before the sweeper's clock
	time.Sleep(5 * time.Millisecond)

	n, err := a.Sweeper().RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
