package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"storefront/store-service/internal/app/store/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// WalletRepositoryTestSuite проверяет атомарность проведения транзакций кошелька
type WalletRepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	mock  sqlmock.Sqlmock
	repo  WalletRepository
	sqlDB *sql.DB
}

func TestWalletRepositorySuite(t *testing.T) {
	suite.Run(t, new(WalletRepositoryTestSuite))
}

func (s *WalletRepositoryTestSuite) SetupTest() {
	var err error
	s.sqlDB, s.mock, err = sqlmock.New()
	require.NoError(s.T(), err)

	s.db, err = gorm.Open(postgres.New(postgres.Config{
		Conn:       s.sqlDB,
		DriverName: "postgres",
	}), &gorm.Config{})
	require.NoError(s.T(), err)

	s.repo = NewWalletRepository(s.db)
}

func (s *WalletRepositoryTestSuite) TearDownTest() {
	s.sqlDB.Close()
}

var walletColumns = []string{"id", "user_id", "balance", "currency", "is_active", "created_at", "updated_at"}
var userColumns = []string{"id", "email", "password", "role", "created_at"}

// expectWalletWithUser ожидает SELECT кошелька и preload пользователя
func (s *WalletRepositoryTestSuite) expectWalletWithUser(walletID, userID uuid.UUID, balance int64) {
	now := time.Now()
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "wallets"`)).
		WillReturnRows(sqlmock.NewRows(walletColumns).
			AddRow(walletID, userID, balance, entity.DefaultWalletCurrency, true, now, now))
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(userID, "buyer@example.com", "hash", "user", now))
}

func (s *WalletRepositoryTestSuite) TestApplyTransaction_DebitInsufficientFundsRollsBack() {
	ctx := context.Background()
	walletID, userID := uuid.New(), uuid.New()
	txn := &entity.WalletTransaction{ID: uuid.New(), Amount: 500, Type: entity.TransactionTypeDebit}

	s.mock.ExpectBegin()
	s.expectWalletWithUser(walletID, userID, 100)
	s.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "wallet_transactions"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "wallets" SET "balance"=balance - $1`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectRollback()

	// Act
	wallet, err := s.repo.ApplyTransaction(ctx, userID, txn)

	// Assert - журнал и баланс откатываются вместе
	s.ErrorIs(err, ErrInsufficientFunds)
	s.Nil(wallet)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *WalletRepositoryTestSuite) TestApplyTransaction_CreditCompletes() {
	ctx := context.Background()
	walletID, userID := uuid.New(), uuid.New()
	txn := &entity.WalletTransaction{ID: uuid.New(), Amount: 250, Type: entity.TransactionTypeCredit}

	s.mock.ExpectBegin()
	s.expectWalletWithUser(walletID, userID, 100)
	s.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "wallet_transactions"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "wallets" SET "balance"=balance + $1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "wallet_transactions" SET "status"=$1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.expectWalletWithUser(walletID, userID, 350)
	s.mock.ExpectCommit()

	// Act
	wallet, err := s.repo.ApplyTransaction(ctx, userID, txn)

	// Assert
	s.NoError(err)
	s.Equal(int64(350), wallet.Balance)
	s.Equal(walletID, txn.WalletID)
	s.Equal(entity.TransactionStatusCompleted, txn.Status)
	s.Require().NotNil(wallet.User)
	s.Equal("buyer@example.com", wallet.User.Email)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *WalletRepositoryTestSuite) TestApplyTransaction_CreditOverflowRollsBack() {
	ctx := context.Background()
	walletID, userID := uuid.New(), uuid.New()
	txn := &entity.WalletTransaction{ID: uuid.New(), Amount: entity.MaxTransactionAmount, Type: entity.TransactionTypeCredit}

	s.mock.ExpectBegin()
	s.expectWalletWithUser(walletID, userID, 9_223_372_036_854_775_000)
	s.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "wallet_transactions"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "wallets" SET "balance"=balance + $1`)).
		WillReturnError(&pgconn.PgError{Code: "22003", Message: "bigint out of range"})
	s.mock.ExpectRollback()

	wallet, err := s.repo.ApplyTransaction(ctx, userID, txn)

	s.ErrorIs(err, ErrOutOfRange)
	s.Nil(wallet)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *WalletRepositoryTestSuite) TestGetByUserID_NotFound() {
	ctx := context.Background()
	userID := uuid.New()

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "wallets" WHERE user_id = $1`)).
		WithArgs(userID, 1).
		WillReturnRows(sqlmock.NewRows(walletColumns))

	wallet, err := s.repo.GetByUserID(ctx, userID)

	s.ErrorIs(err, ErrWalletNotFound)
	s.Nil(wallet)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *WalletRepositoryTestSuite) TestListTransactions_CountsAndPages() {
	ctx := context.Background()
	walletID := uuid.New()
	query := entity.WalletTransactionQuery{Page: 2, Limit: 10, Type: "CREDIT"}

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "wallet_transactions" WHERE wallet_id = $1 AND type = $2`)).
		WithArgs(walletID, "CREDIT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "wallet_transactions" WHERE wallet_id = $1 AND type = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`)).
		WithArgs(walletID, "CREDIT", 10, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "wallet_id", "amount", "type", "status"}).
			AddRow(uuid.New(), walletID, 100, "CREDIT", "COMPLETED").
			AddRow(uuid.New(), walletID, 200, "CREDIT", "COMPLETED"))

	transactions, total, err := s.repo.ListTransactions(ctx, walletID, query)

	s.NoError(err)
	s.Equal(int64(12), total)
	s.Len(transactions, 2)
	s.NoError(s.mock.ExpectationsWereMet())
}
