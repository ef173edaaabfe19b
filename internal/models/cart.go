package models

import (
	"time"

	"gorm.io/gorm"
)

// Cart item quantity bounds.
const (
	MinCartQuantity = 1
	MaxCartQuantity = 99
)

// CartItem is one (product, quantity) entry in a cart. A product appears
// at most once per cart; adding it again accumulates the quantity.
type CartItem struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CartID    string    `json:"-" gorm:"type:varchar(36);uniqueIndex:idx_cart_product;not null"`
	ProductID string    `json:"productId" gorm:"type:varchar(36);uniqueIndex:idx_cart_product;not null"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=99"`
	AddedAt   time.Time `json:"addedAt"`
	Product   *Product  `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// Cart holds a user's pending product selections. Exactly one cart exists
// per user, created lazily on first add.
type Cart struct {
	ID         string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string     `json:"userId" gorm:"type:varchar(36);uniqueIndex;not null"`
	Items      []CartItem `json:"items" gorm:"foreignKey:CartID"`
	gorm.Model            // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// TotalItems is the sum of all item quantities.
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// TotalPrice sums item quantities against current product prices. Items
// whose product is not resolved contribute nothing.
func (c *Cart) TotalPrice() float64 {
	total := 0.0
	for _, item := range c.Items {
		if item.Product != nil {
			total += item.Product.Price * float64(item.Quantity)
		}
	}
	return total
}
