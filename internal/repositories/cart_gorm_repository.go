package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"marketplace/internal/apperrors"
	"marketplace/internal/models"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// GetOrCreate returns the user's cart with items and products resolved,
// creating an empty cart on first use. The unique index on user_id keeps
// the cart singular even if two first requests race.
func (r *GORMCartRepository) GetOrCreate(userID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.Preload("Items.Product").First(&cart, "user_id = ?", userID).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get cart for user %s: %w", userID, err)
	}

	cart = models.Cart{ID: uuid.New().String(), UserID: userID}
	if createErr := r.db.Create(&cart).Error; createErr != nil {
		if errors.Is(createErr, gorm.ErrDuplicatedKey) {
			// Lost the race; the other request's cart wins.
			if err := r.db.Preload("Items.Product").First(&cart, "user_id = ?", userID).Error; err != nil {
				return nil, fmt.Errorf("failed to get cart for user %s: %w", userID, err)
			}
			return &cart, nil
		}
		return nil, fmt.Errorf("failed to create cart for user %s: %w", userID, createErr)
	}
	cart.Items = []models.CartItem{}
	return &cart, nil
}

// AddItem inserts a new cart line.
func (r *GORMCartRepository) AddItem(item *models.CartItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if err := r.db.Create(item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("cart %s already holds product %s: %w", item.CartID, item.ProductID, apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

// UpdateItemQuantity sets the quantity of an existing cart line.
func (r *GORMCartRepository) UpdateItemQuantity(cartID, productID string, quantity int) error {
	res := r.db.Model(&models.CartItem{}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Update("quantity", quantity)
	if res.Error != nil {
		return fmt.Errorf("failed to update cart item quantity: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s in cart %s: %w", productID, cartID, apperrors.ErrNotFound)
	}
	return nil
}

// RemoveItem deletes one cart line.
func (r *GORMCartRepository) RemoveItem(cartID, productID string) error {
	res := r.db.Delete(&models.CartItem{}, "cart_id = ? AND product_id = ?", cartID, productID)
	if res.Error != nil {
		return fmt.Errorf("failed to remove cart item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s in cart %s: %w", productID, cartID, apperrors.ErrNotFound)
	}
	return nil
}

// Clear empties the cart wholesale.
func (r *GORMCartRepository) Clear(cartID string) error {
	if err := r.db.Delete(&models.CartItem{}, "cart_id = ?", cartID).Error; err != nil {
		return fmt.Errorf("failed to clear cart %s: %w", cartID, err)
	}
	return nil
}
