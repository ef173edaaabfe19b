package repositories

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"marketplace/internal/apperrors"
	"marketplace/internal/models"
)

// MockCartRepository is an in-memory implementation of CartRepository.
// When wired with a MockProductRepository it resolves item products from
// it, mirroring the GORM preload.
type MockCartRepository struct {
	carts    map[string]*models.Cart // keyed by user ID
	products *MockProductRepository  // optional, for product resolution
	mu       sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
// products may be nil when product resolution is not needed.
func NewMockCartRepository(products *MockProductRepository) *MockCartRepository {
	return &MockCartRepository{
		carts:    make(map[string]*models.Cart),
		products: products,
	}
}

// GetOrCreate returns the user's cart, creating it lazily.
func (r *MockCartRepository) GetOrCreate(userID string) (*models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.carts[userID]
	if !ok {
		cart = &models.Cart{ID: uuid.New().String(), UserID: userID, Items: []models.CartItem{}}
		r.carts[userID] = cart
	}

	// Return a copy with products resolved.
	out := *cart
	out.Items = make([]models.CartItem, len(cart.Items))
	copy(out.Items, cart.Items)
	if r.products != nil {
		for i := range out.Items {
			if product, err := r.products.GetByID(out.Items[i].ProductID); err == nil {
				out.Items[i].Product = product
			}
		}
	}
	return &out, nil
}

func (r *MockCartRepository) findByCartID(cartID string) (*models.Cart, error) {
	for _, cart := range r.carts {
		if cart.ID == cartID {
			return cart, nil
		}
	}
	return nil, fmt.Errorf("cart with ID %s: %w", cartID, apperrors.ErrNotFound)
}

// AddItem inserts a new cart line.
func (r *MockCartRepository) AddItem(item *models.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, err := r.findByCartID(item.CartID)
	if err != nil {
		return err
	}
	for _, existing := range cart.Items {
		if existing.ProductID == item.ProductID {
			return fmt.Errorf("cart %s already holds product %s: %w", item.CartID, item.ProductID, apperrors.ErrDuplicate)
		}
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	stored := *item
	stored.Product = nil
	cart.Items = append(cart.Items, stored)
	return nil
}

// UpdateItemQuantity sets the quantity of an existing cart line.
func (r *MockCartRepository) UpdateItemQuantity(cartID, productID string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, err := r.findByCartID(cartID)
	if err != nil {
		return err
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity = quantity
			return nil
		}
	}
	return fmt.Errorf("product %s in cart %s: %w", productID, cartID, apperrors.ErrNotFound)
}

// RemoveItem deletes one cart line.
func (r *MockCartRepository) RemoveItem(cartID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, err := r.findByCartID(cartID)
	if err != nil {
		return err
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("product %s in cart %s: %w", productID, cartID, apperrors.ErrNotFound)
}

// Clear empties the cart wholesale.
func (r *MockCartRepository) Clear(cartID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, err := r.findByCartID(cartID)
	if err != nil {
		return err
	}
	cart.Items = []models.CartItem{}
	return nil
}
