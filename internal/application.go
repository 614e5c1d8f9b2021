package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-engine/internal/config"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-engine/internal/service"
	"github.com/rocketscienceinc/tictactoe-engine/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-engine/transport/console"
)

var (
	ErrAddrNotFound      = errors.New("redis address string is empty")
	ErrUnknownStorage    = errors.New("unknown storage driver")
	ErrSQLitePathMissing = errors.New("sqlite path is empty")
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	settings, err := conf.Game.Settings()
	if err != nil {
		return fmt.Errorf("could not build game settings: %w", err)
	}

	gameRepo, closer, err := openGameRepository(ctx, conf.Storage)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := closer.Close(); closeErr != nil {
			log.Error("could not close storage", "error", closeErr)
		}
	}()

	gameService := service.NewGameService(gameRepo)

	session, err := usecase.NewSession(logger, settings, gameService)
	if err != nil {
		return fmt.Errorf("could not create session: %w", err)
	}

	log.Info("Starting console", "size", settings.BoardSize, "mode", settings.Mode, "storage", conf.Storage.Driver)

	consoleServer := console.New(logger, session, gameService)
	if err = consoleServer.Start(ctx, os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("console error: %w", err)
	}

	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openGameRepository(ctx context.Context, conf config.Storage) (repository.GameRepository, io.Closer, error) {
	switch conf.Driver {
	case config.MemoryDriver:
		return repository.NewMemoryGameRepository(), nopCloser{}, nil

	case config.RedisDriver:
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return nil, nil, ErrAddrNotFound
		}

		redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return repository.NewRedisGameRepository(redisStorage.Connection), redisStorage, nil

	case config.SQLiteDriver:
		if conf.SQLitePath == "" {
			return nil, nil, ErrSQLitePathMissing
		}

		sqliteStorage, err := storage.NewSQLiteStorage(conf.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open sqlite storage: %w", err)
		}

		if err = sqliteStorage.Init(ctx); err != nil {
			_ = sqliteStorage.Close()
			return nil, nil, fmt.Errorf("could not init sqlite storage: %w", err)
		}

		return repository.NewSQLiteGameRepository(sqliteStorage.Connection), sqliteStorage, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownStorage, conf.Driver)
	}
}
