package models

import (
	"time"

	"gorm.io/gorm"
)

// Categories is the fixed set of product categories.
var Categories = []string{
	"Electronics",
	"Clothing",
	"Home & Garden",
	"Accessories",
	"Sports",
	"Books",
	"Health & Beauty",
}

// Review is a single user review attached to a product. A user may review
// a product at most once.
type Review struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string    `json:"productId" gorm:"type:varchar(36);uniqueIndex:idx_review_product_user;not null"`
	UserID    string    `json:"userId" gorm:"type:varchar(36);uniqueIndex:idx_review_product_user;not null"`
	Rating    int       `json:"rating" validate:"required,min=1,max=5"`
	Comment   string    `json:"comment" gorm:"type:varchar(500)" validate:"omitempty,max=500"`
	CreatedAt time.Time `json:"createdAt"`
}

// Product represents a catalog entry.
type Product struct {
	ID            string   `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name          string   `json:"name" gorm:"type:varchar(100)" validate:"required,min=1,max=100"`
	Description   string   `json:"description" gorm:"type:varchar(1000)" validate:"required,min=10,max=1000"`
	Price         float64  `json:"price" validate:"gte=0"`
	Category      string   `json:"category" validate:"required,oneof=Electronics Clothing 'Home & Garden' Accessories Sports Books 'Health & Beauty'"`
	Stock         int      `json:"stock" validate:"gte=0"`
	Images        []string `json:"images" gorm:"serializer:json" validate:"required,min=1,dive,url"`
	// No column default: GORM drops zero values for defaulted columns on
	// insert, which would store an inactive product as active.
	IsActive      bool     `json:"isActive"`
	IsFeatured    bool     `json:"isFeatured"`
	RatingAverage float64  `json:"ratingAverage"`
	RatingCount   int      `json:"ratingCount"`
	Reviews       []Review `json:"reviews,omitempty" gorm:"foreignKey:ProductID"`
	CreatedByID   string   `json:"createdBy" gorm:"type:varchar(36)"`
	gorm.Model             // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// PrimaryImage returns the first image URL, used for order line-item snapshots.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
