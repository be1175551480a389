package data

import (
	"context"
	"fmt"

	"github.com/pr-poehali-dev/telegram-auth-portal/internal/biz"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/conf"
)

// Open returns the local storage selected by cfg.Driver.
func Open(ctx context.Context, cfg conf.Storage) (biz.LocalStorage, error) {
	switch cfg.Driver {
	case conf.DriverSQLite:
		return NewSQLiteStorage(cfg.SQLitePath)
	case conf.DriverRedis:
		client, err := DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return NewRedisStorage(client), nil
	case conf.DriverMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
