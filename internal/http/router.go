package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/geocoder89/todolist/internal/auth"
	"github.com/geocoder89/todolist/internal/config"
	"github.com/geocoder89/todolist/internal/domain/user"
	"github.com/geocoder89/todolist/internal/http/handlers"
	"github.com/geocoder89/todolist/internal/http/middlewares"
	"github.com/geocoder89/todolist/internal/http/web"
	"github.com/geocoder89/todolist/internal/observability"
	"github.com/geocoder89/todolist/internal/service/accounts"
	"github.com/geocoder89/todolist/internal/service/admin"
	"github.com/geocoder89/todolist/internal/service/tasks"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps is everything the router wires into handlers.
type Deps struct {
	Config config.Config
	Log    *slog.Logger
	Prom   *observability.Prom
	// Metrics serves /metrics; nil leaves the route unmounted.
	Metrics http.Handler
	// Ping backs /readyz.
	Ping func(ctx context.Context) error

	Tokens   *auth.Manager
	Revoked  middlewares.RevocationChecker
	Accounts *accounts.Service
	Tasks    *tasks.Service
	Admin    *admin.Service
}

func NewRouter(d Deps) (*gin.Engine, error) {
	cfg := d.Config

	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.HTMLRender = renderer

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(observability.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders())
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins()))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))

	authMW := middlewares.NewAuthMiddleware(d.Tokens, d.Revoked)
	limiter := middlewares.NewRateLimiter(cfg.AuthRatePerMinute, cfg.AuthRateBurst)
	limited := limiter.Middleware(middlewares.KeyByIP)

	// operational

	health := handlers.NewHealthHandler(d.Ping)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}
	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	// HTML front end

	opts := web.Options{
		Log:              d.Log,
		SecureCookies:    cfg.IsProd(),
		ExposeResetLinks: !cfg.IsProd(),
	}

	home := web.NewHomePages(opts)
	account := web.NewAccountPages(d.Accounts, d.Tokens, opts)
	taskPages := web.NewTaskPages(d.Tasks, opts)
	adminPages := web.NewAdminPages(d.Admin, d.Accounts, opts)

	r.NoRoute(home.NotFound)

	optional := r.Group("", authMW.OptionalCookie())
	{
		optional.GET("/", home.Index)
		optional.GET("/Home/Index", home.Index)
		optional.GET("/Home/Privacy", home.Privacy)
		optional.GET("/Home/Error", home.Error)

		optional.GET("/Account/Register", account.RegisterForm)
		optional.POST("/Account/Register", limited, account.Register)
		optional.GET("/Account/Login", account.LoginForm)
		optional.POST("/Account/Login", limited, account.Login)
		optional.GET("/Account/Logout", account.Logout)
		optional.POST("/Account/Logout", account.Logout)
		optional.GET("/Account/ForgotPassword", account.ForgotPasswordForm)
		optional.POST("/Account/ForgotPassword", limited, account.ForgotPassword)
		optional.GET("/Account/ResetPassword", account.ResetPasswordForm)
		optional.POST("/Account/ResetPassword", limited, account.ResetPassword)
	}

	pages := r.Group("", authMW.RequireCookie())
	{
		pages.GET("/Account/Profile", account.Profile)
		pages.POST("/Account/Profile", account.UpdateProfile)

		pages.GET("/Tasks", taskPages.Index)
		pages.GET("/Tasks/Index", taskPages.Index)
		pages.GET("/Tasks/Create", taskPages.CreateForm)
		pages.POST("/Tasks/Create", taskPages.Create)
		pages.GET("/Tasks/Edit/:id", taskPages.EditForm)
		pages.POST("/Tasks/Edit/:id", taskPages.Edit)
		pages.POST("/Tasks/Delete/:id", taskPages.Delete)
		pages.GET("/Tasks/Details/:id", taskPages.Details)
	}

	adminGroup := pages.Group("/Admin", authMW.RequirePageRole(user.RoleAdmin))
	{
		adminGroup.GET("", adminPages.UserList)
		adminGroup.GET("/UserList", adminPages.UserList)
		adminGroup.GET("/UserTasks", adminPages.UserTasks)
		adminGroup.POST("/DeleteSelectedTasks", adminPages.DeleteSelectedTasks)
		adminGroup.GET("/AddUser", adminPages.AddUserForm)
		adminGroup.POST("/AddUser", adminPages.AddUser)
		adminGroup.POST("/DeleteUsers", adminPages.DeleteUsers)
		adminGroup.GET("/DownloadUserTasksSummary", adminPages.DownloadUserTasksSummary)
		adminGroup.GET("/DownloadAllTasksWithOwners", adminPages.DownloadAllTasksWithOwners)
	}

	// JSON API

	api := r.Group("/api", middlewares.RequireJSON())

	authHandler := handlers.NewAuthHandler(d.Accounts, d.Tokens)
	usersAdmin := handlers.NewUsersAdminHandler(d.Accounts, d.Admin)
	tasksHandler := handlers.NewTasksHandler(d.Tasks)

	accountAPI := api.Group("/AccountApi")
	{
		accountAPI.POST("/register", limited, authHandler.Register)
		accountAPI.POST("/login", limited, authHandler.Login)
		accountAPI.POST("/admin/login", limited, authHandler.AdminLogin)
		accountAPI.POST("/logout", authMW.RequireBearer(), authHandler.Logout)
		accountAPI.GET("/profile", authMW.RequireBearer(), authHandler.Profile)
	}

	adminAPI := accountAPI.Group("", authMW.RequireBearer(), authMW.RequireRole(user.RoleAdmin))
	{
		adminAPI.GET("/AspNetUsers", usersAdmin.ListUsers)
		adminAPI.GET("/AspNetUsers/:userId", usersAdmin.GetUser)
		adminAPI.GET("/AspNetUsers/:userId/details", usersAdmin.UserDetails)
		adminAPI.POST("/AspNetUsers/:userId/deleteTasks", usersAdmin.DeleteTasks)
		adminAPI.PUT("/AspNetUsers/:userId/updatePassword", usersAdmin.UpdatePassword)
		adminAPI.DELETE("/AspNetUsers/:userId", usersAdmin.DeleteUser)
		adminAPI.GET("/Reports/UserSummary", usersAdmin.UserSummaryReport)
		adminAPI.GET("/Reports/TaskReport", usersAdmin.TaskReport)
	}

	taskAPI := api.Group("/TaskItem", authMW.RequireBearer())
	{
		taskAPI.GET("/List", tasksHandler.List)
		taskAPI.GET("/:id", tasksHandler.Get)
		taskAPI.POST("/create", tasksHandler.Create)
		taskAPI.PUT("/edit/:id", tasksHandler.Update)
		taskAPI.DELETE("/delete/:id", tasksHandler.Delete)
	}

	return r, nil
}
