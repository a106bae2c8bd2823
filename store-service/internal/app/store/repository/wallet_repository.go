package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/store-service/internal/app/store/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type walletRepository struct {
	db *gorm.DB
}

// NewWalletRepository создает новый репозиторий кошельков
func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

// ensureWallet создает пустой кошелёк, если его нет, и возвращает текущую строку.
// ON CONFLICT DO NOTHING защищает от параллельного первого обращения
func ensureWallet(tx *gorm.DB, userID uuid.UUID) (*entity.Wallet, error) {
	var wallet entity.Wallet
	err := tx.Preload("User").First(&wallet, "user_id = ?", userID).Error
	if err == nil {
		return &wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	created := entity.Wallet{
		ID:       uuid.New(),
		UserID:   userID,
		Balance:  0,
		Currency: entity.DefaultWalletCurrency,
		IsActive: true,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Omit("User").Create(&created).Error; err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", classifyPgError(err))
	}

	if err := tx.Preload("User").First(&wallet, "user_id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *walletRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error) {
	return ensureWallet(r.db.WithContext(ctx), userID)
}

func (r *walletRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*entity.Wallet, error) {
	var wallet entity.Wallet
	result := r.db.WithContext(ctx).First(&wallet, "user_id = ?", userID)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", result.Error)
	}

	return &wallet, nil
}

// ApplyTransaction: запись в журнал со статусом PENDING, условное изменение баланса
// и перевод в COMPLETED выполняются одной транзакцией.
// Списание проходит только при balance >= amount, иначе всё откатывается с ErrInsufficientFunds
func (r *walletRepository) ApplyTransaction(ctx context.Context, userID uuid.UUID, txn *entity.WalletTransaction) (*entity.Wallet, error) {
	var updated entity.Wallet

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wallet, err := ensureWallet(tx, userID)
		if err != nil {
			return err
		}

		txn.WalletID = wallet.ID
		txn.Status = entity.TransactionStatusPending
		if err := tx.Omit("Wallet").Create(txn).Error; err != nil {
			return fmt.Errorf("failed to insert wallet transaction: %w", classifyPgError(err))
		}

		var result *gorm.DB
		switch txn.Type {
		case entity.TransactionTypeCredit:
			result = tx.Model(&entity.Wallet{}).
				Where("id = ?", wallet.ID).
				Update("balance", gorm.Expr("balance + ?", txn.Amount))
		case entity.TransactionTypeDebit:
			result = tx.Model(&entity.Wallet{}).
				Where("id = ? AND balance >= ?", wallet.ID, txn.Amount).
				Update("balance", gorm.Expr("balance - ?", txn.Amount))
		default:
			return fmt.Errorf("unknown transaction type %q", txn.Type)
		}

		if result.Error != nil {
			return fmt.Errorf("failed to update wallet balance: %w", classifyPgError(result.Error))
		}
		if result.RowsAffected == 0 {
			return ErrInsufficientFunds
		}

		if err := tx.Model(&entity.WalletTransaction{}).
			Where("id = ?", txn.ID).
			Update("status", entity.TransactionStatusCompleted).Error; err != nil {
			return fmt.Errorf("failed to complete wallet transaction: %w", err)
		}
		txn.Status = entity.TransactionStatusCompleted

		if err := tx.Preload("User").First(&updated, "id = ?", wallet.ID).Error; err != nil {
			return fmt.Errorf("failed to reload wallet: %w", err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListTransactions возвращает страницу журнала кошелька и общее число записей
func (r *walletRepository) ListTransactions(ctx context.Context, walletID uuid.UUID, query entity.WalletTransactionQuery) ([]entity.WalletTransaction, int64, error) {
	base := r.db.WithContext(ctx).Model(&entity.WalletTransaction{}).Where("wallet_id = ?", walletID)
	if query.Type != "" {
		base = base.Where("type = ?", query.Type)
	}
	if query.Status != "" {
		base = base.Where("status = ?", query.Status)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count wallet transactions: %w", err)
	}

	var transactions []entity.WalletTransaction
	err := base.Session(&gorm.Session{}).
		Order("created_at DESC").
		Offset((query.Page - 1) * query.Limit).
		Limit(query.Limit).
		Find(&transactions).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list wallet transactions: %w", err)
	}

	return transactions, total, nil
}

func (r *walletRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Wallet{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count wallets: %w", err)
	}
	return count, nil
}

func (r *walletRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Wallet{}).Where("is_active = ?", true).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count active wallets: %w", err)
	}
	return count, nil
}

func (r *walletRepository) SumBalance(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&entity.Wallet{}).Select("COALESCE(SUM(balance), 0)").Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to sum wallet balances: %w", err)
	}
	return total, nil
}

// RecentTransactions возвращает последние транзакции вместе с владельцем кошелька
func (r *walletRepository) RecentTransactions(ctx context.Context, limit int) ([]entity.WalletTransaction, error) {
	var transactions []entity.WalletTransaction
	result := r.db.WithContext(ctx).
		Preload("Wallet.User").
		Order("created_at DESC").
		Limit(limit).
		Find(&transactions)

	if result.Error != nil {
		return nil, fmt.Errorf("failed to get recent transactions: %w", result.Error)
	}

	return transactions, nil
}

// TransactionStats группирует журнал по (type, status)
func (r *walletRepository) TransactionStats(ctx context.Context) ([]entity.TransactionStat, error) {
	var stats []entity.TransactionStat
	result := r.db.WithContext(ctx).
		Model(&entity.WalletTransaction{}).
		Select("type, status, COUNT(id) AS count, COALESCE(SUM(amount), 0) AS amount").
		Group("type, status").
		Order("type, status").
		Scan(&stats)

	if result.Error != nil {
		return nil, fmt.Errorf("failed to get transaction stats: %w", result.Error)
	}

	return stats, nil
}
