package repository

import (
	"context"
	"errors"
	"time"

	"storefront/store-service/internal/app/store/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrMerchantNotFound  = errors.New("merchant not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrForeignKey        = errors.New("foreign key violation")
	ErrOutOfRange        = errors.New("numeric value out of range")
)

type ProductRepository interface {
	// CreateWithMedia вставляет товар, его изображения и видео в одной транзакции
	CreateWithMedia(ctx context.Context, product *entity.Product, images []entity.Image, videos []entity.ProductVideo) error
	// UpdateWithMedia применяет изменения полей и медиа в одной транзакции под блокировкой строки товара
	UpdateWithMedia(ctx context.Context, id uuid.UUID, changes entity.ProductChanges, media entity.MediaUpdate) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Product, error)
	List(ctx context.Context, filter entity.ProductFilter) ([]entity.Product, error)
	Search(ctx context.Context, query string) ([]entity.Product, error)
	HasOrderReferences(ctx context.Context, id uuid.UUID) (bool, error)
	GetPrices(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ReferencedFiles возвращает имена всех медиафайлов, на которые есть ссылки в БД
	ReferencedFiles(ctx context.Context) (map[string]struct{}, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Category, error)
	GetAll(ctx context.Context) ([]entity.Category, error)
	Update(ctx context.Context, category *entity.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type MerchantRepository interface {
	Create(ctx context.Context, merchant *entity.Merchant) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Merchant, error)
	GetAll(ctx context.Context) ([]entity.Merchant, error)
	Update(ctx context.Context, id uuid.UUID, columns map[string]interface{}) error
	CountProducts(ctx context.Context, id uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *entity.CustomerOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.CustomerOrder, error)
	GetAll(ctx context.Context) ([]entity.CustomerOrder, error)
	Count(ctx context.Context) (int64, error)
	SumTotal(ctx context.Context) (int64, error)
	// TotalsSince возвращает дату и сумму каждого заказа начиная с from
	TotalsSince(ctx context.Context, from time.Time) ([]entity.CustomerOrder, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Count(ctx context.Context) (int64, error)
}

type WalletRepository interface {
	// GetOrCreate возвращает кошелёк пользователя, создавая пустой при первом обращении
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error)
	// ApplyTransaction записывает транзакцию и меняет баланс в одной транзакции БД
	ApplyTransaction(ctx context.Context, userID uuid.UUID, txn *entity.WalletTransaction) (*entity.Wallet, error)
	ListTransactions(ctx context.Context, walletID uuid.UUID, query entity.WalletTransactionQuery) ([]entity.WalletTransaction, int64, error)
	Count(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
	SumBalance(ctx context.Context) (int64, error)
	RecentTransactions(ctx context.Context, limit int) ([]entity.WalletTransaction, error)
	TransactionStats(ctx context.Context) ([]entity.TransactionStat, error)
}

// classifyPgError переводит коды ошибок PostgreSQL в ошибки репозитория
func classifyPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return ErrDuplicateKey
		case "23503": // foreign_key_violation
			return ErrForeignKey
		case "22003": // numeric_value_out_of_range
			return ErrOutOfRange
		}
	}
	return err
}
