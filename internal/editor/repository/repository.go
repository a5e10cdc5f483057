package repository

import (
	"context"
	"errors"
	"fmt"

	"floorplan-studio/internal/common/config"
)

// ============================================================
// Key-value backend
// ============================================================

// ErrNotFound возвращается, если ключ отсутствует.
var ErrNotFound = errors.New("repository: key not found")

// Backend хранит сериализованное состояние проекта под одним ключом.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Open выбирает реализацию по конфигурации.
func Open(ctx context.Context, cfg config.StoreConfig) (Backend, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemory(), nil
	case "sqlite":
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		repo := NewSQLite(db)
		if err := repo.Init(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return repo, nil
	case "redis":
		return DialRedis(ctx, cfg.RedisAddr)
	case "postgres":
		return ConnectPostgres(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
