package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/citegraph/internal/audit"
	"github.com/OFFIS-RIT/citegraph/internal/queue"
	mid "github.com/OFFIS-RIT/citegraph/internal/server/middleware"
	"github.com/OFFIS-RIT/citegraph/internal/setup"
	"github.com/OFFIS-RIT/citegraph/internal/util"
	"github.com/OFFIS-RIT/citegraph/pkg/leaselock"
	"github.com/OFFIS-RIT/citegraph/pkg/logger"
	pgstore "github.com/OFFIS-RIT/citegraph/pkg/store/pgx"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// New builds the echo instance for app.
func New(app *mid.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	RegisterRoutes(e)
	return e
}

// Init wires the API from the environment and serves until SIGINT/SIGTERM.
// Postgres, RabbitMQ and JWKS are optional; the routes that need a missing
// backend answer 503.
func Init() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &mid.App{MasterAPIKey: util.GetEnv("MASTER_API_KEY")}

	if authURL := util.GetEnv("AUTH_URL"); authURL != "" {
		k, err := keyfunc.NewDefault([]string{authURL + "/jwks"})
		if err != nil {
			logger.Fatal("Failed to load jwks keys", "err", err)
		}
		app.Keyfunc = k.Keyfunc
	}

	auditor, err := setup.NewAuditor(ctx)
	if err != nil {
		logger.Fatal("Failed to create auditor", "err", err)
	}
	params := audit.NewServiceParams{
		Auditor: auditor,
		BaseURL: setup.SourceBaseURL(auditor.Classifier()),
	}
	if aiClient, err := setup.NewAIClient(); err != nil {
		logger.Warn("AI advisor disabled", "err", err)
	} else {
		params.Advisor, err = setup.NewAdvisor(aiClient, auditor.Classifier())
		if err != nil {
			logger.Fatal("Failed to create advisor", "err", err)
		}
	}

	if dbURL := util.GetEnv("DATABASE_URL"); dbURL != "" {
		if err := pgstore.Migrate(dbURL, util.GetEnv("MIGRATIONS_PATH")); err != nil {
			logger.Fatal("Failed to migrate database", "err", err)
		}
		conn, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("Failed to connect to database", "err", err)
		}
		defer conn.Close()
		app.Store = pgstore.NewAuditDBStore(conn)
		params.Store = app.Store
		params.Locker = leaselock.New(conn)
	}

	app.Service, err = audit.NewService(params)
	if err != nil {
		logger.Fatal("Failed to create audit service", "err", err)
	}

	if util.GetEnv("RABBITMQ_HOST") != "" {
		que, err := queue.Init(ctx)
		if err != nil {
			logger.Fatal("Failed to connect to queue", "err", err)
		}
		defer que.Close()
		ch, err := que.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		defer ch.Close()
		if err := queue.SetupQueues(ch, []string{queue.AuditQueue}); err != nil {
			logger.Fatal("Failed to set up queues", "err", err)
		}
		app.Queue = ch
	}

	e := New(app)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port, "auth", app.AuthEnabled())
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
