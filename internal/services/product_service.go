package services

import (
	"fmt"
	"time"

	"marketplace/internal/apperrors"
	"marketplace/internal/models"
	"marketplace/internal/repositories"
)

// ProductService handles business logic related to the catalog.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// ListProducts retrieves a filtered, sorted and paginated catalog page.
// Non-admin callers only ever see active products; the repo enforces the
// IncludeInactive flag set by the handler.
func (s *ProductService) ListProducts(filter repositories.ProductFilter) ([]models.Product, int64, error) {
	return s.repo.Find(filter)
}

// SearchProducts runs a free-text search over active products.
func (s *ProductService) SearchProducts(query string, page, limit int) ([]models.Product, int64, error) {
	return s.repo.Find(repositories.ProductFilter{
		Search: query,
		Page:   page,
		Limit:  limit,
	})
}

// FeaturedProducts returns the newest featured products.
func (s *ProductService) FeaturedProducts() ([]models.Product, error) {
	return s.repo.Featured(8)
}

// Categories returns the distinct categories of active products.
func (s *ProductService) Categories() ([]string, error) {
	return s.repo.Categories()
}

// GetProductByID retrieves a single product with reviews.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct creates a new catalog entry on behalf of an administrator.
func (s *ProductService) CreateProduct(product *models.Product, createdByID string) error {
	product.CreatedByID = createdByID
	product.IsActive = true
	return s.repo.Create(product)
}

// UpdateProduct updates an existing product.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	return s.repo.Update(product)
}

// DeleteProduct deletes a product by its ID. Existing orders keep their
// denormalized snapshot of the product.
func (s *ProductService) DeleteProduct(id string) error {
	return s.repo.Delete(id)
}

// AddReview appends a review for the user and recomputes the product's
// aggregate rating as the mean of all review ratings. A user may review a
// product at most once.
func (s *ProductService) AddReview(productID, userID string, rating int, comment string) (*models.Product, error) {
	product, err := s.repo.GetByID(productID)
	if err != nil {
		return nil, err
	}

	for _, existing := range product.Reviews {
		if existing.UserID == userID {
			return nil, fmt.Errorf("product %s: %w", productID, apperrors.ErrDuplicateReview)
		}
	}

	review := &models.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateReview(review); err != nil {
		return nil, err
	}

	sum := rating
	for _, existing := range product.Reviews {
		sum += existing.Rating
	}
	count := len(product.Reviews) + 1
	average := float64(sum) / float64(count)

	if err := s.repo.UpdateRating(productID, average, count); err != nil {
		return nil, fmt.Errorf("failed to update aggregate rating: %w", err)
	}

	return s.repo.GetByID(productID)
}
