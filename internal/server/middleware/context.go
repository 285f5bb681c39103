package middleware

import (
	"github.com/OFFIS-RIT/citegraph/internal/audit"
	"github.com/OFFIS-RIT/citegraph/pkg/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"
)

type AppUser struct {
	Subject string
	Role    string
	Master  bool
}

// QueuePublisher is the part of an AMQP channel the API needs.
type QueuePublisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// App carries the shared dependencies of every request. Store and Queue may
// be nil when the server runs without Postgres or RabbitMQ.
type App struct {
	Service      *audit.Service
	Store        store.AuditStore
	Queue        QueuePublisher
	Keyfunc      jwt.Keyfunc
	MasterAPIKey string
}

// AuthEnabled reports whether /api requires a bearer token.
func (a *App) AuthEnabled() bool {
	return a.Keyfunc != nil || a.MasterAPIKey != ""
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
