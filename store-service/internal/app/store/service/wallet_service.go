package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/pkg/logger"
	"storefront/pkg/metrics"
	"storefront/store-service/internal/app/store/entity"
	"storefront/store-service/internal/app/store/repository"
	"storefront/store-service/internal/app/store/util"

	"github.com/google/uuid"
)

const (
	defaultTransactionsLimit = 10
	maxTransactionsLimit     = 100
	maxTransactionsPage      = 1_000_000
	recentTransactionsLimit  = 5

	EventWalletTransactionCompleted = "WALLET_TRANSACTION_COMPLETED"
)

// WalletService ведёт кошельки пользователей и журнал транзакций
type WalletService struct {
	walletRepo repository.WalletRepository
	userRepo   repository.UserRepository
	publisher  util.MessagePublisher
}

func NewWalletService(
	walletRepo repository.WalletRepository,
	userRepo repository.UserRepository,
	publisher util.MessagePublisher,
) *WalletService {
	return &WalletService{
		walletRepo: walletRepo,
		userRepo:   userRepo,
		publisher:  publisher,
	}
}

// GetBalance возвращает кошелёк пользователя, создавая пустой при первом обращении
func (s *WalletService) GetBalance(ctx context.Context, userID uuid.UUID) (*entity.WalletBalanceResponse, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	wallet, err := s.walletRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return toBalanceResponse(wallet), nil
}

// GetTransactions возвращает страницу журнала. Кошелька нет - пустая страница
func (s *WalletService) GetTransactions(ctx context.Context, userID uuid.UUID, query entity.WalletTransactionQuery) (*entity.WalletTransactionsPage, error) {
	query = normalizeTransactionQuery(query)

	page := &entity.WalletTransactionsPage{
		Transactions: []entity.WalletTransaction{},
		Page:         query.Page,
		Limit:        query.Limit,
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			return page, nil
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	transactions, total, err := s.walletRepo.ListTransactions(ctx, wallet.ID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	if transactions != nil {
		page.Transactions = transactions
	}
	page.Total = total
	page.TotalPages = totalPages(total, query.Limit)
	return page, nil
}

// CreateTransaction проводит CREDIT или DEBIT. Списание сверх баланса откатывается целиком
func (s *WalletService) CreateTransaction(ctx context.Context, req *entity.CreateWalletTransactionRequest) (*entity.WalletTransaction, *entity.Wallet, error) {
	if req.Amount <= 0 || req.Amount > entity.MaxTransactionAmount {
		return nil, nil, invalidField("amount")
	}
	if req.Type != entity.TransactionTypeCredit && req.Type != entity.TransactionTypeDebit {
		return nil, nil, invalidField("type")
	}
	if err := s.ensureUser(ctx, req.UserID); err != nil {
		return nil, nil, err
	}

	txn := &entity.WalletTransaction{
		ID:          uuid.New(),
		Amount:      req.Amount,
		Type:        req.Type,
		Description: req.Description,
		Reference:   req.Reference,
		Metadata:    req.Metadata,
	}

	wallet, err := s.walletRepo.ApplyTransaction(ctx, req.UserID, txn)
	if err != nil {
		metrics.WalletTransactions.WithLabelValues(string(req.Type), "failed").Inc()
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return nil, nil, ErrInsufficientFunds
		}
		// Зачисление вывело бы баланс за пределы bigint
		if errors.Is(err, repository.ErrOutOfRange) {
			return nil, nil, invalidField("amount")
		}
		return nil, nil, fmt.Errorf("failed to apply wallet transaction: %w", err)
	}
	metrics.WalletTransactions.WithLabelValues(string(txn.Type), string(txn.Status)).Inc()

	s.publishWalletEvent(ctx, txn, wallet)
	return txn, wallet, nil
}

// GetStats собирает агрегаты кошельков для админки
func (s *WalletService) GetStats(ctx context.Context) (*entity.WalletStats, error) {
	totalWallets, err := s.walletRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalBalance, err := s.walletRepo.SumBalance(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := recentTransactions(ctx, s.walletRepo)
	if err != nil {
		return nil, err
	}
	stats, err := transactionStats(ctx, s.walletRepo)
	if err != nil {
		return nil, err
	}

	return &entity.WalletStats{
		TotalWallets:       totalWallets,
		TotalBalance:       totalBalance,
		RecentTransactions: recent,
		TransactionStats:   stats,
	}, nil
}

// recentTransactions - последние транзакции с email владельца кошелька
func recentTransactions(ctx context.Context, walletRepo repository.WalletRepository) ([]entity.RecentTransaction, error) {
	transactions, err := walletRepo.RecentTransactions(ctx, recentTransactionsLimit)
	if err != nil {
		return nil, err
	}

	recent := make([]entity.RecentTransaction, 0, len(transactions))
	for _, t := range transactions {
		item := entity.RecentTransaction{
			ID:        t.ID,
			Amount:    t.Amount,
			Type:      t.Type,
			Status:    t.Status,
			CreatedAt: t.CreatedAt,
		}
		if t.Wallet != nil && t.Wallet.User != nil {
			item.UserEmail = t.Wallet.User.Email
		}
		recent = append(recent, item)
	}
	return recent, nil
}

func transactionStats(ctx context.Context, walletRepo repository.WalletRepository) ([]entity.TransactionStat, error) {
	stats, err := walletRepo.TransactionStats(ctx)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = []entity.TransactionStat{}
	}
	return stats, nil
}

func (s *WalletService) ensureUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	return nil
}

func (s *WalletService) publishWalletEvent(ctx context.Context, txn *entity.WalletTransaction, wallet *entity.Wallet) {
	event := entity.WalletEvent{
		EventType:     EventWalletTransactionCompleted,
		TransactionID: txn.ID,
		WalletID:      wallet.ID,
		UserID:        wallet.UserID,
		Type:          txn.Type,
		Amount:        txn.Amount,
		Balance:       wallet.Balance,
		Timestamp:     time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshal wallet event")
		return
	}

	if err := s.publisher.PublishMessage(ctx, wallet.ID.String(), data); err != nil {
		logger.Warn().
			Err(err).
			Str("transaction_id", txn.ID.String()).
			Msg("failed to publish wallet event")
	}
}

func toBalanceResponse(wallet *entity.Wallet) *entity.WalletBalanceResponse {
	resp := &entity.WalletBalanceResponse{
		ID:       wallet.ID,
		Balance:  wallet.Balance,
		Currency: wallet.Currency,
		IsActive: wallet.IsActive,
	}
	if wallet.User != nil {
		resp.User = entity.WalletUserInfo{Email: wallet.User.Email, Role: wallet.User.Role}
	}
	return resp
}

func normalizeTransactionQuery(q entity.WalletTransactionQuery) entity.WalletTransactionQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > maxTransactionsPage {
		q.Page = maxTransactionsPage
	}
	if q.Limit < 1 {
		q.Limit = defaultTransactionsLimit
	}
	if q.Limit > maxTransactionsLimit {
		q.Limit = maxTransactionsLimit
	}
	return q
}

func totalPages(total int64, limit int) int {
	if total == 0 || limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
