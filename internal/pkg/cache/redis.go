// Package cache wraps go-redis behind a small interface. The store uses it to
// remember which order an idempotent checkout produced.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Get returns "" and no error when the key does not exist.
	Get(ctx context.Context, key string) (string, error)
	GenerateKey(operation, key string) string
}

type Options struct {
	Addr        string
	Password    string
	DB          int
	ServiceName string
}

type RedisCache struct {
	client      *redis.Client
	serviceName string
}

var _ Cache = (*RedisCache)(nil)

func NewRedisCache(opts Options) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
		serviceName: opts.ServiceName,
	}
}

func (r *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}

	if err != nil {
		return "", err
	}

	return val, nil
}

// GenerateKey namespaces keys as "<service>:<operation>:<key>".
func (r *RedisCache) GenerateKey(operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", r.serviceName, operation, key)
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
