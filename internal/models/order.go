package models

import (
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"
)

// Order statuses. Pending through delivered is the normal progression;
// cancelled and refunded are alternate terminal states.
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

// OrderStatuses lists every valid order status.
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

// Payment statuses.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// OrderItem is an immutable snapshot of one cart line at order time.
// Name, Price and Image are copied from the product so the order stays
// valid after later product edits or deletion.
type OrderItem struct {
	ID        string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string  `json:"-" gorm:"type:varchar(36);index;not null"`
	ProductID string  `json:"productId" gorm:"type:varchar(36);not null"`
	Quantity  int     `json:"quantity" validate:"required,min=1"`
	Price     float64 `json:"price"` // Unit price at the time of order
	Name      string  `json:"name" gorm:"type:varchar(100)"`
	Image     string  `json:"image" gorm:"type:varchar(500)"`
}

// ShippingAddress is the structured delivery address embedded in an order.
type ShippingAddress struct {
	FirstName string `json:"firstName" gorm:"type:varchar(50)" validate:"required,max=50"`
	LastName  string `json:"lastName" gorm:"type:varchar(50)" validate:"required,max=50"`
	Street    string `json:"street" gorm:"type:varchar(200)" validate:"required,max=200"`
	City      string `json:"city" gorm:"type:varchar(100)" validate:"required,max=100"`
	State     string `json:"state" gorm:"type:varchar(100)" validate:"required,max=100"`
	ZipCode   string `json:"zipCode" gorm:"type:varchar(20)" validate:"required,max=20"`
	Country   string `json:"country" gorm:"type:varchar(100);default:'United States'" validate:"omitempty,max=100"`
	Phone     string `json:"phone" gorm:"type:varchar(20)" validate:"required,max=20"`
}

// PaymentInfo is stored but never verified against an external processor.
type PaymentInfo struct {
	Method        string     `json:"method" gorm:"type:varchar(20)" validate:"required,oneof=credit_card debit_card paypal stripe"`
	Status        string     `json:"status" gorm:"type:varchar(20);default:pending" validate:"omitempty,oneof=pending completed failed refunded"`
	TransactionID string     `json:"transactionId,omitempty" gorm:"type:varchar(100)"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
}

// Order represents a completed purchase intent. Immutable after creation
// except for status, tracking, notes and the delivered timestamp.
type Order struct {
	ID                string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber       string          `json:"orderNumber" gorm:"uniqueIndex;type:varchar(20);not null"`
	UserID            string          `json:"userId" gorm:"type:varchar(36);index;not null"`
	Items             []OrderItem     `json:"items" gorm:"foreignKey:OrderID"`
	ShippingAddress   ShippingAddress `json:"shippingAddress" gorm:"embedded;embeddedPrefix:shipping_"`
	PaymentInfo       PaymentInfo     `json:"paymentInfo" gorm:"embedded;embeddedPrefix:payment_"`
	Status            string          `json:"status" gorm:"type:varchar(20);default:pending"`
	Subtotal          float64         `json:"subtotal"`
	Tax               float64         `json:"tax"`
	Shipping          float64         `json:"shipping"`
	Total             float64         `json:"total"`
	TrackingNumber    string          `json:"trackingNumber,omitempty" gorm:"type:varchar(100)"`
	Notes             string          `json:"notes,omitempty" gorm:"type:varchar(500)" validate:"omitempty,max=500"`
	EstimatedDelivery *time.Time      `json:"estimatedDelivery,omitempty"`
	DeliveredAt       *time.Time      `json:"deliveredAt,omitempty"`
	gorm.Model                        // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// BeforeSave recomputes the total so a direct write to Total can never
// disagree with its components.
func (o *Order) BeforeSave(tx *gorm.DB) error {
	o.Total = o.Subtotal + o.Tax + o.Shipping
	return nil
}

// CanBeCancelled reports whether the owning user may still cancel.
func (o *Order) CanBeCancelled() bool {
	switch o.Status {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing:
		return true
	}
	return false
}

const orderNumberCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewOrderNumber builds a human-readable order number from the current
// timestamp and a short random suffix. Uniqueness is enforced by the
// database index; callers retry with a fresh suffix on conflict.
func NewOrderNumber() string {
	timestamp := fmt.Sprintf("%d", time.Now().UnixMilli())
	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = orderNumberCharset[rand.Intn(len(orderNumberCharset))]
	}
	return fmt.Sprintf("ORD-%s-%s", timestamp[len(timestamp)-6:], suffix)
}

// IsValidOrderStatus reports whether s is one of the known statuses.
func IsValidOrderStatus(s string) bool {
	for _, status := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}
