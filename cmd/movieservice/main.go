// movie-service/cmd/movieservice/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/jmoiron/sqlx"

	"movie-service/internal/cache"
	"movie-service/internal/config"
	"movie-service/internal/logging"
	"movie-service/internal/store"
)

const serviceName = "movie-service"

// CLI команды сервиса. Без команды выполняется serve.
type CLI struct {
	Config string `help:"Path to YAML config file." type:"path" short:"c"`

	Serve        ServeCmd        `cmd:"" default:"1" help:"Run HTTP and gRPC servers."`
	Migrate      MigrateCmd      `cmd:"" help:"Create database schema and rating stars."`
	SeedStars    SeedStarsCmd    `cmd:"" name:"seed-stars" help:"Insert missing rating star values."`
	Publish      PublishCmd      `cmd:"" help:"Publish or unpublish a movie."`
	HashPassword HashPasswordCmd `cmd:"" name:"hash-password" help:"Print bcrypt hash for auth.admin_password_hash."`
	Lookup       LookupCmd       `cmd:"" help:"Query movie info over the internal gRPC API."`
}

// app общие зависимости команд.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("movieservice"),
		kong.Description("Movie catalog and review service."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging, serviceName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, logger: logger}
	kctx.BindTo(ctx, (*context.Context)(nil))
	if err := kctx.Run(a); err != nil {
		logger.Error("Command failed", slog.String("command", kctx.Command()), slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}

// openDB подключение к SQL-базе из конфигурации.
func (a *app) openDB(ctx context.Context) (*sqlx.DB, error) {
	dbCfg := a.cfg.Database
	if dbCfg.Driver == "memory" {
		return nil, errors.New("command requires a SQL database; database.driver is memory")
	}
	db, err := store.Open(ctx, dbCfg.Driver, dbCfg.DSN)
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to connect to database", slog.String("driver", dbCfg.Driver), slog.String("error", err.Error()))
		return nil, err
	}
	if dbCfg.Driver == store.DriverPostgres && dbCfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(dbCfg.MaxOpenConns)
	}
	a.logger.InfoContext(ctx, "Connected to database", slog.String("driver", dbCfg.Driver))
	return db, nil
}

// openStore хранилище для serve. Драйвер memory даёт пустой каталог в памяти
// процесса со справочником звёзд.
func (a *app) openStore(ctx context.Context) (store.Store, func(), error) {
	if a.cfg.Database.Driver == "memory" {
		s := store.NewMockStore()
		if err := s.EnsureStars(ctx, store.DefaultStars()); err != nil {
			return nil, nil, err
		}
		a.logger.WarnContext(ctx, "Using in-memory store; data is not persisted")
		return s, func() {}, nil
	}

	db, err := a.openDB(ctx)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			a.logger.Error("Failed to close database connection", slog.String("error", err.Error()))
		}
	}
	if a.cfg.Database.AutoMigrate {
		if err := migrate(ctx, db); err != nil {
			closeDB()
			return nil, nil, err
		}
	}
	s, err := store.NewSQLStore(db, a.logger)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	return s, closeDB, nil
}

// openSharedCache кэш, общий с запущенными серверами. Без Redis кэш живёт в
// памяти каждого процесса и недоступен из CLI, тогда возвращается nil.
func (a *app) openSharedCache() (cache.Cache, error) {
	if a.cfg.Cache.RedisURL == "" {
		return nil, nil
	}
	return cache.NewRedisCacheFromURL(a.cfg.Cache.RedisURL, "")
}

func migrate(ctx context.Context, db *sqlx.DB) error {
	if err := store.Migrate(ctx, db); err != nil {
		return err
	}
	s, err := store.NewSQLStore(db, nil)
	if err != nil {
		return err
	}
	return s.EnsureStars(ctx, store.DefaultStars())
}
