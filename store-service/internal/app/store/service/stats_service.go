package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"storefront/store-service/internal/app/store/entity"
	"storefront/store-service/internal/app/store/repository"
)

// StatsService считает агрегаты для панели администратора
type StatsService struct {
	userRepo      repository.UserRepository
	orderRepo     repository.OrderRepository
	walletRepo    repository.WalletRepository
	monthlyTarget int64
	now           func() time.Time
}

func NewStatsService(
	userRepo repository.UserRepository,
	orderRepo repository.OrderRepository,
	walletRepo repository.WalletRepository,
	monthlyTarget int64,
) *StatsService {
	return &StatsService{
		userRepo:      userRepo,
		orderRepo:     orderRepo,
		walletRepo:    walletRepo,
		monthlyTarget: monthlyTarget,
		now:           time.Now,
	}
}

// GetDashboardStats возвращает счётчики, выручку, продажи по месяцам текущего года
// и сводку по кошелькам
func (s *StatsService) GetDashboardStats(ctx context.Context) (*entity.DashboardStats, error) {
	customers, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}
	orders, err := s.orderRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.orderRepo.SumTotal(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	startOfYear := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	yearOrders, err := s.orderRepo.TotalsSince(ctx, startOfYear)
	if err != nil {
		return nil, err
	}
	monthly := bucketMonthlySales(yearOrders, now.Year())

	walletBalance, err := s.walletRepo.SumBalance(ctx)
	if err != nil {
		return nil, err
	}
	activeWallets, err := s.walletRepo.CountActive(ctx)
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

	return &entity.DashboardStats{
		Customers:          customers,
		Orders:             orders,
		Revenue:            revenue,
		MonthlySales:       monthly,
		TargetPercent:      targetPercent(monthly[now.Month()-1], s.monthlyTarget),
		WalletBalance:      walletBalance,
		ActiveWallets:      activeWallets,
		RecentTransactions: recent,
		TransactionStats:   stats,
	}, nil
}

// bucketMonthlySales раскладывает суммы заказов года по месяцам (UTC).
// Месяцы без заказов остаются нулевыми
func bucketMonthlySales(orders []entity.CustomerOrder, year int) [12]int64 {
	var months [12]int64
	for _, o := range orders {
		t := o.DateTime.UTC()
		if t.IsZero() || t.Year() != year {
			continue
		}
		months[t.Month()-1] += o.Total
	}
	return months
}

// targetPercent - доля выручки месяца от цели в процентах, не больше 100, два знака
func targetPercent(current, target int64) float64 {
	if target <= 0 {
		return 0
	}
	percent := math.Min(float64(current)/float64(target)*100, 100)
	return math.Round(percent*100) / 100
}
