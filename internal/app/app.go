// Package app is the composition root shared by the API server and todoctl.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/todolist/internal/auth"
	"github.com/geocoder89/todolist/internal/config"
	"github.com/geocoder89/todolist/internal/db"
	httpx "github.com/geocoder89/todolist/internal/http"
	"github.com/geocoder89/todolist/internal/notifications"
	"github.com/geocoder89/todolist/internal/observability"
	"github.com/geocoder89/todolist/internal/redisclient"
	"github.com/geocoder89/todolist/internal/repo/memory"
	"github.com/geocoder89/todolist/internal/repo/postgres"
	"github.com/geocoder89/todolist/internal/service/accounts"
	"github.com/geocoder89/todolist/internal/service/admin"
	"github.com/geocoder89/todolist/internal/service/tasks"
	"github.com/geocoder89/todolist/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type userStore interface {
	accounts.UserStore
	admin.UserReader
	Ping(ctx context.Context) error
}

type taskStore interface {
	tasks.Store
	admin.TaskStore
}

type resetStore interface {
	accounts.ResetStore
	PurgeStale(ctx context.Context, cutoff time.Time) (int, error)
}

type revocationStore interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type App struct {
	Config config.Config
	Log    *slog.Logger
	Prom   *observability.Prom

	Tokens   *auth.Manager
	Accounts *accounts.Service
	Tasks    *tasks.Service
	Admin    *admin.Service

	registry *prometheus.Registry
	users    userStore
	resets   resetStore
	revoker  revocationStore
	redis    *redisclient.Client
	closers  []func()
}

// Build opens the configured store and revocation list and wires the
// services on top. It does not migrate or seed; see Migrate and Seed.
func Build(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &App{
		Config:   cfg,
		Log:      log,
		Prom:     observability.NewProm(reg),
		Tokens:   auth.NewManager(cfg.JWTKey, cfg.JWTIssuer, cfg.JWTAudience),
		registry: reg,
	}

	var (
		roles   accounts.RoleStore
		taskDB  taskStore
		reports admin.ReportStore
	)

	switch cfg.Store {
	case config.StoreMemory:
		mem := memory.NewDB()
		a.users = memory.NewUsersRepo(mem)
		roles = memory.NewRolesRepo(mem)
		a.resets = memory.NewPasswordResetsRepo(mem)
		taskDB = memory.NewTasksRepo(mem)
		reports = memory.NewReportsRepo(mem)

		log.Warn("using in-memory store; data is lost on restart")

	default:
		pool, err := db.NewPool(ctx, cfg.DBURL, cfg.DBMaxConns)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)

		a.users = postgres.NewUsersRepo(pool, a.Prom)
		roles = postgres.NewRolesRepo(pool, a.Prom)
		a.resets = postgres.NewPasswordResetsRepo(pool, a.Prom)
		taskDB = postgres.NewTasksRepo(pool, a.Prom)
		reports = postgres.NewReportsRepo(pool, a.Prom)
	}

	if cfg.RedisAddr != "" {
		rc := redisclient.New(redisclient.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})

		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rc.Ping(pctx)
		cancel()

		if err != nil {
			_ = rc.Close()
			a.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}

		a.redis = rc
		a.revoker = rc
		a.closers = append(a.closers, func() { _ = rc.Close() })
	} else {
		a.revoker = auth.NewCacheRevoker()
	}

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(log),
		notifications.ProtectedNotifierConfig{Timeout: 3 * time.Second},
	)

	a.Accounts = accounts.NewService(accounts.Deps{
		Users:         a.users,
		Roles:         roles,
		Resets:        a.resets,
		Tasks:         taskDB,
		Revoker:       a.revoker,
		Notifier:      notifier,
		Log:           log,
		Prom:          a.Prom,
		TokenSecret:   a.Tokens.Secret(),
		ResetTokenTTL: cfg.ResetTokenTTL,
		PublicBaseURL: cfg.PublicBaseURL,
	})
	a.Tasks = tasks.NewService(taskDB)
	a.Admin = admin.NewService(a.users, taskDB, reports, a.Prom)

	return a, nil
}

// Migrate applies pending schema migrations; the memory store has none.
func (a *App) Migrate() error {
	if a.Config.Store == config.StoreMemory {
		return nil
	}
	return db.MigrateUp(a.Config.DBURL)
}

// Seed ensures the roles and the configured admin account.
func (a *App) Seed(ctx context.Context) error {
	return a.Accounts.SeedIdentity(ctx, accounts.AdminSeed{
		UserName:  a.Config.AdminUserName,
		Email:     a.Config.AdminEmail,
		Password:  a.Config.AdminPassword,
		FirstName: a.Config.AdminFirstName,
		LastName:  a.Config.AdminLastName,
	})
}

// Sweeper returns the housekeeping worker: it drops password reset
// tokens that are used or expired.
func (a *App) Sweeper() *worker.Worker {
	return worker.New(
		worker.Config{PollInterval: a.Config.SweepInterval},
		a.Log.With("component", "worker"),
		a.Prom,
		worker.Task{Name: "password_resets", Run: a.resets.PurgeStale},
	)
}

// Ping reports whether the store (and redis, when configured) answer.
func (a *App) Ping(ctx context.Context) error {
	if err := a.users.Ping(ctx); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if a.redis != nil {
		if err := a.redis.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (a *App) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})
}

func (a *App) Router() (*gin.Engine, error) {
	return httpx.NewRouter(httpx.Deps{
		Config:   a.Config,
		Log:      a.Log,
		Prom:     a.Prom,
		Metrics:  a.MetricsHandler(),
		Ping:     a.Ping,
		Tokens:   a.Tokens,
		Revoked:  a.revoker,
		Accounts: a.Accounts,
		Tasks:    a.Tasks,
		Admin:    a.Admin,
	})
}

// Close releases connections in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
