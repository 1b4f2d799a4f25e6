package main

import (
	"context"
	"fmt"

	"github.com/Vovarama1992/go-utils/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Vovarama1992/voicecheck/internal/config"
	"github.com/Vovarama1992/voicecheck/internal/infra"
	"github.com/Vovarama1992/voicecheck/internal/infra/sqlite"
	"github.com/Vovarama1992/voicecheck/internal/infra/storage"
	"github.com/Vovarama1992/voicecheck/internal/ports"
)

func newLogger(level string) (*zap.Logger, *logger.ZapLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcore, err := zcfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return zcore, logger.NewZapLogger(zcore.Sugar()), nil
}

type repositories struct {
	users    ports.UserRepository
	analyses ports.AnalysisRepository
	migrator ports.Migrator
	close    func()
}

func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	switch cfg.Database.Driver {
	case "postgres":
		pool, err := infra.NewPgxPool(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		return &repositories{
			users:    infra.NewPostgresUserRepo(pool),
			analyses: infra.NewPostgresAnalysisRepo(pool),
			migrator: infra.NewPostgresMigrator(pool),
			close:    pool.Close,
		}, nil
	case "sqlite":
		store, err := sqlite.Open(cfg.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &repositories{
			users:    sqlite.NewUserRepo(store),
			analyses: sqlite.NewAnalysisRepo(store),
			migrator: store,
			close:    func() { _ = store.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func openFileStore(cfg *config.Config) (ports.FileStore, error) {
	switch cfg.Storage.Backend {
	case "local":
		return storage.NewLocal(cfg.Upload.Folder)
	case "s3":
		s3cfg := cfg.Storage.S3
		return storage.NewS3(storage.NewS3Client(s3cfg), s3cfg.Bucket, s3cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
