package source

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/pcdogyu/tradesession/internal/config"
	"github.com/pcdogyu/tradesession/internal/loader"
)

// Redis reads a hash of product -> session column.
type Redis struct {
	client *redis.Client
	key    string
}

func NewRedis(cfg config.RedisConfig) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		key: cfg.Key,
	}
}

func (r *Redis) Records(ctx context.Context) ([]loader.Record, error) {
	m, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "redis hgetall %s", r.key)
	}
	return loader.RecordsFromJSONMap(m), nil
}

// Publish writes records into the hash, overwriting existing products.
func (r *Redis) Publish(ctx context.Context, recs []loader.Record) error {
	if len(recs) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(recs))
	for _, rec := range recs {
		values[rec.Product] = rec.Sessions
	}
	if err := r.client.HSet(ctx, r.key, values).Err(); err != nil {
		return errors.Wrapf(err, "redis hset %s", r.key)
	}
	return nil
}

func (r *Redis) Name() string { return config.SourceRedis }
func (r *Redis) Close() error { return r.client.Close() }
