package repositories

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"marketplace/internal/apperrors"
	"marketplace/internal/models"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
type MockProductRepository struct {
	products map[string]models.Product
	reviews  map[string][]models.Review // keyed by product ID
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.Product),
		reviews:  make(map[string][]models.Review),
	}
}

func matchesFilter(p models.Product, filter ProductFilter) bool {
	if !filter.IncludeInactive && !p.IsActive {
		return false
	}
	if filter.Category != "" && filter.Category != "All" && p.Category != filter.Category {
		return false
	}
	if filter.MinPrice != nil && p.Price < *filter.MinPrice {
		return false
	}
	if filter.MaxPrice != nil && p.Price > *filter.MaxPrice {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			return false
		}
	}
	if filter.FeaturedOnly && !p.IsFeatured {
		return false
	}
	return true
}

// Find returns a page of matching products and the total match count.
func (r *MockProductRepository) Find(filter ProductFilter) ([]models.Product, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.Product
	for _, p := range r.products {
		if matchesFilter(p, filter) {
			matched = append(matched, p)
		}
	}

	asc := strings.EqualFold(filter.Order, "asc")
	sort.Slice(matched, func(i, j int) bool {
		var less bool
		switch filter.Sort {
		case "price":
			less = matched[i].Price < matched[j].Price
		case "name":
			less = matched[i].Name < matched[j].Name
		case "rating":
			less = matched[i].RatingAverage < matched[j].RatingAverage
		default:
			less = matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		if asc {
			return less
		}
		return !less
	})

	total := int64(len(matched))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 12
	}
	start := (page - 1) * limit
	if start >= len(matched) {
		return []models.Product{}, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// GetByID returns a product by its ID with reviews attached.
func (r *MockProductRepository) GetByID(id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, apperrors.ErrNotFound)
	}
	product.Reviews = append([]models.Review(nil), r.reviews[id]...)
	return &product, nil
}

// Create adds a new product.
func (r *MockProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	r.products[product.ID] = *product
	return nil
}

// Update modifies an existing product.
func (r *MockProductRepository) Update(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return fmt.Errorf("product with ID %s: %w", product.ID, apperrors.ErrNotFound)
	}
	r.products[product.ID] = *product
	return nil
}

// Delete removes a product by its ID.
func (r *MockProductRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("product with ID %s: %w", id, apperrors.ErrNotFound)
	}
	delete(r.products, id)
	return nil
}

// Categories returns the distinct categories of active products.
func (r *MockProductRepository) Categories() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var categories []string
	for _, p := range r.products {
		if p.IsActive && !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

// Featured returns up to limit featured active products.
func (r *MockProductRepository) Featured(limit int) ([]models.Product, error) {
	products, _, err := r.Find(ProductFilter{FeaturedOnly: true, Limit: limit})
	return products, err
}

// DecrementStock takes qty units, failing when fewer remain. The mutex
// stands in for the conditional update the GORM repository issues.
func (r *MockProductRepository) DecrementStock(id string, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok || product.Stock < qty {
		return fmt.Errorf("product %s: %w", id, apperrors.ErrInsufficientStock)
	}
	product.Stock -= qty
	r.products[id] = product
	return nil
}

// IncrementStock returns qty units to the product.
func (r *MockProductRepository) IncrementStock(id string, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return fmt.Errorf("product with ID %s: %w", id, apperrors.ErrNotFound)
	}
	product.Stock += qty
	r.products[id] = product
	return nil
}

// CreateReview appends a review, enforcing one review per user per product.
func (r *MockProductRepository) CreateReview(review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.reviews[review.ProductID] {
		if existing.UserID == review.UserID {
			return fmt.Errorf("review by user %s for product %s: %w", review.UserID, review.ProductID, apperrors.ErrDuplicateReview)
		}
	}
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	r.reviews[review.ProductID] = append(r.reviews[review.ProductID], *review)
	return nil
}

// UpdateRating stores the recomputed aggregate rating.
func (r *MockProductRepository) UpdateRating(productID string, average float64, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[productID]
	if !ok {
		return fmt.Errorf("product with ID %s: %w", productID, apperrors.ErrNotFound)
	}
	product.RatingAverage = average
	product.RatingCount = count
	r.products[productID] = product
	return nil
}
