package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"marketplace/internal/apperrors"
	"marketplace/internal/models"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// Create persists a new order together with its line items.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
	}
	if err := r.db.Create(order).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("order number %s: %w", order.OrderNumber, apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves a single order with line items resolved.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// Find lists orders newest first, with the total match count for
// pagination.
func (r *GORMOrderRepository) Find(filter OrderFilter) ([]models.Order, int64, error) {
	q := r.db.Model(&models.Order{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	var orders []models.Order
	err := q.Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find orders: %w", err)
	}
	return orders, total, nil
}

// Save persists the order's mutable fields.
func (r *GORMOrderRepository) Save(order *models.Order) error {
	res := r.db.Omit("Items").Save(order)
	if res.Error != nil {
		return fmt.Errorf("failed to save order %s: %w", order.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s: %w", order.ID, apperrors.ErrNotFound)
	}
	return nil
}

// Stats aggregates order totals, the per-status breakdown and a
// twelve-month revenue trend.
func (r *GORMOrderRepository) Stats() (*OrderStats, error) {
	stats := &OrderStats{}

	var overview struct {
		TotalOrders       int64
		TotalRevenue      float64
		AverageOrderValue float64
	}
	err := r.db.Model(&models.Order{}).
		Select("COUNT(*) AS total_orders, COALESCE(SUM(total), 0) AS total_revenue, COALESCE(AVG(total), 0) AS average_order_value").
		Scan(&overview).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate order overview: %w", err)
	}
	stats.TotalOrders = overview.TotalOrders
	stats.TotalRevenue = overview.TotalRevenue
	stats.AverageOrderValue = overview.AverageOrderValue

	err = r.db.Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&stats.StatusBreakdown).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate status breakdown: %w", err)
	}

	// Date-part extraction differs between postgres and the sqlite used
	// in tests.
	yearExpr := "CAST(EXTRACT(YEAR FROM created_at) AS INTEGER)"
	monthExpr := "CAST(EXTRACT(MONTH FROM created_at) AS INTEGER)"
	if r.db.Dialector.Name() == "sqlite" {
		yearExpr = "CAST(strftime('%Y', created_at) AS INTEGER)"
		monthExpr = "CAST(strftime('%m', created_at) AS INTEGER)"
	}
	err = r.db.Model(&models.Order{}).
		Select(yearExpr + " AS year, " + monthExpr + " AS month, COUNT(*) AS count, COALESCE(SUM(total), 0) AS revenue").
		Group("year, month").
		Order("year DESC, month DESC").
		Limit(12).
		Scan(&stats.MonthlyTrends).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate monthly trends: %w", err)
	}

	return stats, nil
}
