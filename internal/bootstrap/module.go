package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"taskproxy/internal/bootstrap/config"
	"taskproxy/internal/bootstrap/database"
	"taskproxy/internal/bootstrap/logging"
	cacheinfra "taskproxy/internal/infrastructure/cache"
	sqliterepo "taskproxy/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "taskproxy/internal/infrastructure/persistence/sqlite/uow"
	"taskproxy/internal/infrastructure/upstream"
	"taskproxy/internal/ports"
	"taskproxy/internal/usecase/tasks"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(provideProfile),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewTaskRepository,
			fx.As(new(ports.TaskRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteCache,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(
		fx.Annotate(
			provideUpstreamClient,
			fx.As(new(ports.UpstreamClient)),
		),
	),
	fx.Provide(tasks.NewService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

func provideProfile(cfg config.Config) (tasks.Profile, error) {
	return tasks.LoadProfile(cfg.Policy.File)
}

func provideUpstreamClient(cfg config.Config) *upstream.Client {
	return upstream.NewClient(cfg.Upstream)
}
