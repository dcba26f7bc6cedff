package history

import (
	"context"
	"fmt"
	"io"

	"github.com/iwvelando/mortgage-calculator/internal/config"
	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"go.uber.org/zap"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the store selected by conf. The returned closer releases any
// connection the store holds.
func Open(ctx context.Context, logger *zap.Logger, conf config.HistoryConfig) (Store, io.Closer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch conf.Backend {
	case constants.HistoryBackendRedis:
		store := NewRedisStore(conf.RedisAddress, conf.RedisPassword, conf.RedisDB, conf.Key)
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", conf.RedisAddress, err)
		}
		logger.Info(fmt.Sprintf("using redis history store at %s", conf.RedisAddress),
			zap.String("op", "history.Open"),
		)
		return store, store, nil

	case constants.HistoryBackendPostgres:
		store, err := OpenPostgresStore(ctx, conf.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		logger.Info("using postgres history store",
			zap.String("op", "history.Open"),
		)
		return store, store, nil

	default:
		if conf.Backend != constants.HistoryBackendMemory {
			logger.Warn(fmt.Sprintf("unknown history backend %q, using memory", conf.Backend),
				zap.String("op", "history.Open"),
			)
		}
		return NewMemoryStore(), nopCloser{}, nil
	}
}
