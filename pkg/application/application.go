package application

import (
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/accessinsight/accessinsight/pkg/eventbus"
)

// Controller is a mountable group of HTTP routes.
type Controller interface {
	Key() string
	Register(r *mux.Router)
}

type Application interface {
	Controllers() []Controller
	Middleware() []mux.MiddlewareFunc
	EventPublisher() eventbus.EventBus
	Logger() *logrus.Logger
	Pool() *pgxpool.Pool

	RegisterControllers(controllers ...Controller)
	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
}

type ApplicationOptions struct {
	Pool     *pgxpool.Pool
	EventBus eventbus.EventBus
	Logger   *logrus.Logger
}

func New(opts *ApplicationOptions) Application {
	return &application{
		pool:        opts.Pool,
		eventBus:    opts.EventBus,
		logger:      opts.Logger,
		controllers: map[string]Controller{},
	}
}

type application struct {
	pool        *pgxpool.Pool
	eventBus    eventbus.EventBus
	logger      *logrus.Logger
	controllers map[string]Controller
	keys        []string
	middleware  []mux.MiddlewareFunc
}

func (a *application) Controllers() []Controller {
	controllers := make([]Controller, 0, len(a.keys))
	for _, key := range a.keys {
		controllers = append(controllers, a.controllers[key])
	}
	return controllers
}

func (a *application) Middleware() []mux.MiddlewareFunc {
	return a.middleware
}

func (a *application) EventPublisher() eventbus.EventBus {
	return a.eventBus
}

func (a *application) Logger() *logrus.Logger {
	return a.logger
}

func (a *application) Pool() *pgxpool.Pool {
	return a.pool
}

// RegisterControllers keeps registration order; re-registering a key replaces
// the previous controller in place.
func (a *application) RegisterControllers(controllers ...Controller) {
	for _, c := range controllers {
		if _, ok := a.controllers[c.Key()]; !ok {
			a.keys = append(a.keys, c.Key())
		}
		a.controllers[c.Key()] = c
	}
}

func (a *application) RegisterMiddleware(middleware ...mux.MiddlewareFunc) {
	a.middleware = append(a.middleware, middleware...)
}
