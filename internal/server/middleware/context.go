package middleware

import (
	"github.com/MicahParks/keyfunc/v3"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/trellis-kg/trellis/pkg/annotate"
	"github.com/trellis-kg/trellis/pkg/graph"
	"github.com/trellis-kg/trellis/pkg/query"
	"github.com/trellis-kg/trellis/pkg/store"
)

// AppUser is the authenticated caller. UserID doubles as the owner scope for
// every store operation issued on the caller's behalf.
type AppUser struct {
	UserID string
	Role   string
}

// App bundles the shared service handles one request needs.
type App struct {
	Store          store.GraphStore
	Queue          *amqp091.Channel
	Key            *keyfunc.Keyfunc
	Annotator      annotate.Annotator
	Graph          *graph.GraphClient
	Query          *query.Engine
	MasterAPIKey   string
	MasterUserID   string
	MasterUserRole string
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
