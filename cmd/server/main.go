package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/accessinsight/accessinsight/modules/governance/domain/identity"
	"github.com/accessinsight/accessinsight/modules/governance/domain/snapshot"
	"github.com/accessinsight/accessinsight/modules/governance/infrastructure/persistence"
	"github.com/accessinsight/accessinsight/modules/governance/presentation/controllers"
	"github.com/accessinsight/accessinsight/modules/governance/services"
	"github.com/accessinsight/accessinsight/pkg/application"
	"github.com/accessinsight/accessinsight/pkg/configuration"
	"github.com/accessinsight/accessinsight/pkg/eventbus"
	"github.com/accessinsight/accessinsight/pkg/httpapi"
	"github.com/accessinsight/accessinsight/pkg/metrics"
	"github.com/accessinsight/accessinsight/pkg/middleware"
	"github.com/accessinsight/accessinsight/pkg/server"
)

func buildRepository(
	ctx context.Context,
	conf *configuration.Configuration,
	logger *logrus.Logger,
) (snapshot.Repository, *pgxpool.Pool, error) {
	switch conf.Workspace.Backend {
	case "pg":
		pool, err := pgxpool.New(ctx, conf.Database.Opts)
		if err != nil {
			return nil, nil, err
		}
		repo := persistence.NewPgSnapshotRepository(pool, conf.Workspace.ID)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, pool, nil
	case "http":
		remote := persistence.NewHTTPSnapshotRepository(conf.Workspace.RemoteURL, nil)
		mirror := persistence.NewFileSnapshotRepository(conf.Workspace.MirrorPath)
		return persistence.NewMirroredSnapshotRepository(remote, mirror, logger), nil, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: conf.RedisURL})
		return persistence.NewRedisSnapshotRepository(client, conf.Workspace.ID, conf.Workspace.CacheTTL), nil, nil
	default:
		return persistence.NewFileSnapshotRepository(conf.Workspace.FilePath), nil, nil
	}
}

func main() {
	conf := configuration.Use()
	defer conf.Unload()
	logger := conf.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, pool, err := buildRepository(ctx, conf, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize workspace store")
	}
	if pool != nil {
		defer pool.Close()
	}

	bus := eventbus.NewEventPublisher(logger)
	bus.Subscribe(func(e services.ImportedEvent) {
		logger.WithFields(logrus.Fields{
			"rows":      e.Rows,
			"new-users": e.NewUsers,
			"systems":   len(e.Systems),
		}).Info("import merged")
	})
	bus.Subscribe(func(e services.ClearedEvent) {
		logger.Info("workspace cleared")
	})

	state := services.NewStateService(services.StateServiceOptions{
		Repository:   repo,
		EventBus:     bus,
		Logger:       logger,
		Policy:       identity.DefaultPolicy(),
		SaveDebounce: conf.Workspace.SaveDebounce,
	})
	if err := state.Load(ctx); err != nil {
		logger.WithError(err).Fatal("failed to load workspace")
	}
	state.StartPolling(ctx, conf.Workspace.PollInterval)

	insights := services.NewInsightService(services.InsightServiceOptions{
		APIKey:   conf.OpenAIKey,
		BaseURL:  conf.Insights.BaseURL,
		Model:    conf.Insights.Model,
		MaxUsers: conf.Insights.MaxUsers,
	})
	export := services.NewExportService(identity.DefaultPolicy())

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: bus,
		Logger:   logger,
	})
	app.RegisterMiddleware(
		middleware.Cors(conf.Origin),
		middleware.WithLogger(logger),
	)
	app.RegisterControllers(
		controllers.NewWorkspaceController(state, export, conf.MaxUploadSize),
		controllers.NewInsightsController(state, insights),
		controllers.NewHealthController(),
	)
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
	})
	notAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	// flush the debounced save before going down
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		if err := state.SaveNow(context.Background()); err != nil {
			logger.WithError(err).Error("final workspace save failed")
		}
		cancel()
		conf.Unload()
		os.Exit(0)
	}()

	srv := server.NewHTTPServer(app, notFound, notAllowed)
	logger.Infof("listening on %s", conf.SocketAddress)
	if err := srv.Start(conf.SocketAddress); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}
