package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/pkg/metrics"
	"storefront/store-service/internal/app/store/entity"

	"github.com/redis/go-redis/v9"
)

const (
	serviceName        = "store-service"
	categoriesCacheKey = "categories:all"
	categoriesPrefix   = "categories"
)

type RedisClient struct {
	client *redis.Client
}

// NewRedisClient подключается к Redis и проверяет соединение через PING
func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

// NewRedisClientFrom оборачивает уже созданный клиент (используется rate limiter'ом и тестами)
func NewRedisClientFrom(client *redis.Client) *RedisClient {
	return &RedisClient{client: client}
}

// Raw возвращает нижележащий клиент go-redis
func (r *RedisClient) Raw() *redis.Client {
	return r.client
}

func (r *RedisClient) SetCategories(ctx context.Context, categories []entity.Category, ttl time.Duration) error {
	data, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}

	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	if err := r.client.Set(ctx, categoriesCacheKey, data, ttl).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to set categories in cache: %w", err)
	}

	return nil
}

// GetCategories возвращает nil без ошибки, если кеш пуст
func (r *RedisClient) GetCategories(ctx context.Context) ([]entity.Category, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	data, err := r.client.Get(ctx, categoriesCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(serviceName, categoriesPrefix)
			return nil, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, fmt.Errorf("failed to get categories from cache: %w", err)
	}

	var categories []entity.Category
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal categories: %w", err)
	}

	metrics.RecordCacheHit(serviceName, categoriesPrefix)
	return categories, nil
}

func (r *RedisClient) DeleteCategories(ctx context.Context) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
	defer timer.ObserveDuration()

	if err := r.client.Del(ctx, categoriesCacheKey).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to delete categories from cache: %w", err)
	}
	return nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
