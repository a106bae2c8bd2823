package util

import (
	"context"
	"time"

	"storefront/store-service/internal/app/store/entity"
)

// RedisCache интерфейс для работы с Redis кешем категорий
// Используется для dependency injection и упрощения тестирования
type RedisCache interface {
	SetCategories(ctx context.Context, categories []entity.Category, ttl time.Duration) error
	GetCategories(ctx context.Context) ([]entity.Category, error)
	DeleteCategories(ctx context.Context) error
	Close() error
}

// MessagePublisher интерфейс для отправки событий в очередь (Kafka)
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}
