package main

import (
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/librepod/librepod/pkg/cache"
	"github.com/librepod/librepod/pkg/config"
	"github.com/librepod/librepod/pkg/storage"
)

func openCache(cfg *config.Cache) (cache.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return cache.NewMemory(), nil
	case config.BackendRedis:
		redis, err := cache.NewRedis(cfg.RedisURL, cfg.TTL.Duration)
		if err != nil {
			return nil, err
		}
		return redis, nil
	case config.BackendBadger:
		opts := cache.BadgerOptions{TTL: cfg.TTL.Duration}
		if cfg.Badger != nil {
			opts.Truncate = cfg.Badger.Truncate
			opts.FileIO = cfg.Badger.FileIO
		}
		badger, err := cache.NewBadger(cfg.Dir, opts)
		if err != nil {
			return nil, err
		}
		return badger, nil
	default:
		return nil, errors.Errorf("unsupported cache backend %q", cfg.Backend)
	}
}

func openStorage(cfg *config.Database) (storage.Storage, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := storage.NewSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.DriverPostgres:
		db, err := storage.NewPostgres(cfg.URL, true)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, errors.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func logOutput(cfg *config.Log) io.Writer {
	return &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
}

func closeAll(closers ...interface{}) {
	for _, c := range closers {
		closer, ok := c.(io.Closer)
		if !ok {
			continue
		}

		if err := closer.Close(); err != nil {
			log.WithError(err).Error("failed to close")
		}
	}
}
