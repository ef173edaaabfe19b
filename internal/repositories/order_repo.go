package repositories

import "marketplace/internal/models"

// OrderFilter describes an order listing query. Empty fields mean "no
// constraint".
type OrderFilter struct {
	UserID string
	Status string
	Page   int
	Limit  int
}

// StatusCount is one row of the admin status breakdown.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// MonthlyStat is one month of the admin order trend.
type MonthlyStat struct {
	Year    int     `json:"year"`
	Month   int     `json:"month"`
	Count   int64   `json:"count"`
	Revenue float64 `json:"revenue"`
}

// OrderStats aggregates the figures behind the admin dashboard.
type OrderStats struct {
	TotalOrders       int64         `json:"totalOrders"`
	TotalRevenue      float64       `json:"totalRevenue"`
	AverageOrderValue float64       `json:"averageOrderValue"`
	StatusBreakdown   []StatusCount `json:"statusBreakdown"`
	MonthlyTrends     []MonthlyStat `json:"monthlyTrends"`
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// Create persists a new order with its line items, failing with
	// apperrors.ErrDuplicate on an order-number collision.
	Create(order *models.Order) error
	GetByID(id string) (*models.Order, error)
	Find(filter OrderFilter) ([]models.Order, int64, error)
	// Save persists changes to the mutable order fields (status,
	// tracking, notes, delivery timestamps).
	Save(order *models.Order) error
	Stats() (*OrderStats, error)
}
