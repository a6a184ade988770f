// Package backend opens the storage.Store selected by configuration.
package backend

import (
	"fmt"

	"github.com/signalnine/studyscope/internal/config"
	"github.com/signalnine/studyscope/internal/storage"
	"github.com/signalnine/studyscope/internal/storage/file"
	"github.com/signalnine/studyscope/internal/storage/memory"
	"github.com/signalnine/studyscope/internal/storage/redis"
	"github.com/signalnine/studyscope/internal/storage/sqlite"
)

func Open(cfg config.Storage) (storage.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.NewStore(), nil
	case config.BackendSQLite:
		return sqlite.Open(cfg.Path)
	case config.BackendFile:
		return file.New(cfg.Path)
	case config.BackendRedis:
		var opts []redis.Option
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		return redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}
