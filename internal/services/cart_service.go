package services

import (
	"fmt"
	"time"

	"marketplace/internal/apperrors"
	"marketplace/internal/models"
	"marketplace/internal/repositories"
)

// CartService handles business logic for the per-user shopping cart.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetCart returns the user's cart with items and product details resolved.
func (s *CartService) GetCart(userID string) (*models.Cart, error) {
	return s.cartRepo.GetOrCreate(userID)
}

// CountItems returns the cart's total item quantity.
func (s *CartService) CountItems(userID string) (int, error) {
	cart, err := s.cartRepo.GetOrCreate(userID)
	if err != nil {
		return 0, err
	}
	return cart.TotalItems(), nil
}

// AddItem adds quantity units of a product to the user's cart. Adding a
// product already in the cart accumulates its quantity. The resulting
// quantity must stay within bounds and may not exceed current stock.
func (s *CartService) AddItem(userID, productID string, quantity int) (*models.Cart, error) {
	if quantity < models.MinCartQuantity || quantity > models.MaxCartQuantity {
		return nil, fmt.Errorf("quantity %d: %w", quantity, apperrors.ErrInvalidQuantity)
	}

	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, fmt.Errorf("product %q: %w", product.Name, apperrors.ErrProductUnavailable)
	}

	cart, err := s.cartRepo.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}

	newQuantity := quantity
	var existing *models.CartItem
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			existing = &cart.Items[i]
			newQuantity += existing.Quantity
			break
		}
	}
	if newQuantity > models.MaxCartQuantity {
		return nil, fmt.Errorf("quantity %d: %w", newQuantity, apperrors.ErrInvalidQuantity)
	}
	if newQuantity > product.Stock {
		return nil, fmt.Errorf("product %q (requested: %d, available: %d): %w",
			product.Name, newQuantity, product.Stock, apperrors.ErrInsufficientStock)
	}

	if existing != nil {
		err = s.cartRepo.UpdateItemQuantity(cart.ID, productID, newQuantity)
	} else {
		err = s.cartRepo.AddItem(&models.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  quantity,
			AddedAt:   time.Now(),
		})
	}
	if err != nil {
		return nil, err
	}
	return s.cartRepo.GetOrCreate(userID)
}

// UpdateItem sets the quantity of a product already in the cart. A
// quantity of zero or less removes the item.
func (s *CartService) UpdateItem(userID, productID string, quantity int) (*models.Cart, error) {
	cart, err := s.cartRepo.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}

	if quantity <= 0 {
		if err := s.cartRepo.RemoveItem(cart.ID, productID); err != nil {
			return nil, err
		}
		return s.cartRepo.GetOrCreate(userID)
	}

	if quantity > models.MaxCartQuantity {
		return nil, fmt.Errorf("quantity %d: %w", quantity, apperrors.ErrInvalidQuantity)
	}

	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if quantity > product.Stock {
		return nil, fmt.Errorf("product %q (requested: %d, available: %d): %w",
			product.Name, quantity, product.Stock, apperrors.ErrInsufficientStock)
	}

	if err := s.cartRepo.UpdateItemQuantity(cart.ID, productID, quantity); err != nil {
		return nil, err
	}
	return s.cartRepo.GetOrCreate(userID)
}

// RemoveItem deletes a product from the cart.
func (s *CartService) RemoveItem(userID, productID string) (*models.Cart, error) {
	cart, err := s.cartRepo.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.RemoveItem(cart.ID, productID); err != nil {
		return nil, err
	}
	return s.cartRepo.GetOrCreate(userID)
}

// ClearCart empties the cart wholesale.
func (s *CartService) ClearCart(userID string) (*models.Cart, error) {
	cart, err := s.cartRepo.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.Clear(cart.ID); err != nil {
		return nil, err
	}
	return s.cartRepo.GetOrCreate(userID)
}
