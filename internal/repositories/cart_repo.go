package repositories

import "marketplace/internal/models"

// CartRepository defines the interface for cart data access. Every method
// returning a cart resolves its items with product details.
type CartRepository interface {
	// GetOrCreate returns the user's cart, creating an empty one on first
	// use (exactly one cart exists per user).
	GetOrCreate(userID string) (*models.Cart, error)
	AddItem(item *models.CartItem) error
	UpdateItemQuantity(cartID, productID string, quantity int) error
	RemoveItem(cartID, productID string) error
	Clear(cartID string) error
}
