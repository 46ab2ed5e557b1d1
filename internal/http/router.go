package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/hrhub/internal/auth"
	"github.com/geocoder89/hrhub/internal/cache"
	"github.com/geocoder89/hrhub/internal/config"
	"github.com/geocoder89/hrhub/internal/http/handlers"
	"github.com/geocoder89/hrhub/internal/http/middlewares"
	"github.com/geocoder89/hrhub/internal/observability"
	"github.com/geocoder89/hrhub/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	adminRole     = "Admin"
	hrOfficerRole = "HR Officer"
)

func NewRouter(cfg config.Config, log *slog.Logger, pool *pgxpool.Pool, prom *observability.Prom, registry *prometheus.Registry) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware([]string{
		"http://localhost:5173", // Vite dev server
		"http://localhost:3000",
	}))
	r.Use(middlewares.MaxBodyBytes(1 << 20))
	r.Use(otelgin.Middleware("hrhub"))

	if prom != nil {
		r.Use(prom.GinHandleMiddleware())
	}

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	employeesRepo := postgres.NewEmployeesRepo(pool, prom)

	// auth plumbing
	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	authMW := middlewares.NewAuthMiddleware(jwtManager)

	// wire up handlers
	authHandler := handlers.NewAuthHandler(usersRepo, jwtManager)
	usersHandler := handlers.NewUsersHandler(usersRepo)
	employeesHandler := handlers.NewEmployeesHandler(employeesRepo, cache.New(5*time.Second))

	// login is rate limited by client IP
	loginLimiter := middlewares.NewRateLimiter(10, time.Minute)
	r.POST("/auth/login", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)

	api := r.Group("/api", middlewares.RequireJSON())

	// user management is Admin-only
	users := api.Group("/users", authMW.RequireAuth(), authMW.RequireRole(adminRole))
	users.GET("", usersHandler.ListUsers)
	users.POST("", usersHandler.CreateUser)
	users.PUT("/:id/roles", usersHandler.SetUserRoles)

	// employee listing stays open to the dashboard pages; mutations
	// require an HR Officer or Admin token
	api.GET("/employees", employeesHandler.ListEmployees)

	staff := api.Group("/employees", authMW.RequireAuth(), authMW.RequireAnyRole(adminRole, hrOfficerRole))
	staff.POST("", employeesHandler.CreateEmployee)
	staff.PUT("/:id/status", employeesHandler.SetEmployeeStatus)
	staff.PUT("/:id/resignation_date", employeesHandler.ResignEmployee)

	return r
}
