package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"marketplace/internal/apperrors"
	"marketplace/internal/models"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// Create adds a new order, enforcing order-number uniqueness.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.orders {
		if existing.OrderNumber == order.OrderNumber {
			return fmt.Errorf("order number %s: %w", order.OrderNumber, apperrors.ErrDuplicate)
		}
	}
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	order.Total = order.Subtotal + order.Tax + order.Shipping
	r.orders[order.ID] = *order
	return nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s: %w", id, apperrors.ErrNotFound)
	}
	return &order, nil
}

// Find lists matching orders newest first.
func (r *MockOrderRepository) Find(filter OrderFilter) ([]models.Order, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.Order
	for _, order := range r.orders {
		if filter.UserID != "" && order.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		matched = append(matched, order)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}
	start := (page - 1) * limit
	if start >= len(matched) {
		return []models.Order{}, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// Save overwrites the stored order.
func (r *MockOrderRepository) Save(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.ID]; !ok {
		return fmt.Errorf("order with ID %s: %w", order.ID, apperrors.ErrNotFound)
	}
	order.UpdatedAt = time.Now()
	order.Total = order.Subtotal + order.Tax + order.Shipping
	r.orders[order.ID] = *order
	return nil
}

// Stats aggregates over the in-memory orders.
func (r *MockOrderRepository) Stats() (*OrderStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &OrderStats{}
	byStatus := make(map[string]int64)
	type monthKey struct{ year, month int }
	byMonth := make(map[monthKey]*MonthlyStat)

	for _, order := range r.orders {
		stats.TotalOrders++
		stats.TotalRevenue += order.Total
		byStatus[order.Status]++

		key := monthKey{order.CreatedAt.Year(), int(order.CreatedAt.Month())}
		if byMonth[key] == nil {
			byMonth[key] = &MonthlyStat{Year: key.year, Month: key.month}
		}
		byMonth[key].Count++
		byMonth[key].Revenue += order.Total
	}
	if stats.TotalOrders > 0 {
		stats.AverageOrderValue = stats.TotalRevenue / float64(stats.TotalOrders)
	}
	for status, count := range byStatus {
		stats.StatusBreakdown = append(stats.StatusBreakdown, StatusCount{Status: status, Count: count})
	}
	sort.Slice(stats.StatusBreakdown, func(i, j int) bool {
		return stats.StatusBreakdown[i].Status < stats.StatusBreakdown[j].Status
	})
	for _, m := range byMonth {
		stats.MonthlyTrends = append(stats.MonthlyTrends, *m)
	}
	sort.Slice(stats.MonthlyTrends, func(i, j int) bool {
		if stats.MonthlyTrends[i].Year != stats.MonthlyTrends[j].Year {
			return stats.MonthlyTrends[i].Year > stats.MonthlyTrends[j].Year
		}
		return stats.MonthlyTrends[i].Month > stats.MonthlyTrends[j].Month
	})
	if len(stats.MonthlyTrends) > 12 {
		stats.MonthlyTrends = stats.MonthlyTrends[:12]
	}
	return stats, nil
}
