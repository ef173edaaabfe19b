package repositories

import "marketplace/internal/models"

// ProductFilter describes a catalog query. Zero values mean "no
// constraint"; sort fields outside the allow-list fall back to creation
// time.
type ProductFilter struct {
	Category        string
	MinPrice        *float64
	MaxPrice        *float64
	Search          string
	FeaturedOnly    bool
	IncludeInactive bool // admin callers only
	Sort            string
	Order           string // "asc" or "desc"
	Page            int
	Limit           int
}

// ProductSortFields is the allow-list of sortable columns.
var ProductSortFields = map[string]string{
	"createdAt": "created_at",
	"price":     "price",
	"name":      "name",
	"rating":    "rating_average",
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	Find(filter ProductFilter) ([]models.Product, int64, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
	Categories() ([]string, error)
	Featured(limit int) ([]models.Product, error)

	// DecrementStock atomically takes qty units, failing with
	// apperrors.ErrInsufficientStock when fewer than qty remain.
	DecrementStock(id string, qty int) error
	// IncrementStock returns qty units, used by order cancellation and
	// placement compensation.
	IncrementStock(id string, qty int) error

	CreateReview(review *models.Review) error
	UpdateRating(productID string, average float64, count int) error
}
