package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"marketplace/internal/apperrors"
	"marketplace/internal/models"
	"marketplace/internal/repositories"
	"marketplace/pkg/logger"
)

// Pricing rules applied at checkout: flat 8% tax, free shipping on
// subtotals of 50.00 or more, 9.99 flat otherwise.
const (
	TaxRate               = 0.08
	FreeShippingThreshold = 50.00
	FlatShippingCost      = 9.99
)

// How many fresh order-number suffixes to try before giving up on a
// uniqueness collision.
const orderNumberRetries = 3

// EventPublisher publishes order lifecycle events under a routing key.
// Satisfied by rabbitmq.Client; nil disables publishing.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	cartRepo    repositories.CartRepository
	events      EventPublisher
}

// NewOrderService creates a new OrderService. events may be nil when no
// broker is configured.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, cartRepo repositories.CartRepository, events EventPublisher) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		events:      events,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// PlaceOrder turns the user's cart into a persisted order: it validates
// every line item up front, snapshots prices and product details, takes
// stock with conditional atomic decrements, and empties the cart. A
// failure partway through stock-taking or persistence re-increments
// whatever was already taken, so no partial decrement survives.
func (s *OrderService) PlaceOrder(userID string, shipping models.ShippingAddress, payment models.PaymentInfo) (*models.Order, error) {
	cart, err := s.cartRepo.GetOrCreate(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, apperrors.ErrEmptyCart
	}

	// Validate everything before touching stock. The first failing item
	// aborts the whole placement.
	var subtotal float64
	orderItems := make([]models.OrderItem, 0, len(cart.Items))
	for _, cartItem := range cart.Items {
		product := cartItem.Product
		if product == nil {
			var err error
			product, err = s.productRepo.GetByID(cartItem.ProductID)
			if err != nil {
				return nil, fmt.Errorf("product %s: %w", cartItem.ProductID, err)
			}
		}
		if !product.IsActive {
			return nil, fmt.Errorf("product %q: %w", product.Name, apperrors.ErrProductUnavailable)
		}
		if product.Stock < cartItem.Quantity {
			return nil, fmt.Errorf("product %q (requested: %d, available: %d): %w",
				product.Name, cartItem.Quantity, product.Stock, apperrors.ErrInsufficientStock)
		}

		// Snapshot at current price, not anything cached in the cart.
		orderItems = append(orderItems, models.OrderItem{
			ProductID: product.ID,
			Quantity:  cartItem.Quantity,
			Price:     product.Price,
			Name:      product.Name,
			Image:     product.PrimaryImage(),
		})
		subtotal += product.Price * float64(cartItem.Quantity)
	}

	tax := round2(subtotal * TaxRate)
	shippingCost := FlatShippingCost
	if subtotal >= FreeShippingThreshold {
		shippingCost = 0
	}

	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}
	if shipping.Country == "" {
		shipping.Country = "United States"
	}

	order := &models.Order{
		OrderNumber:     models.NewOrderNumber(),
		UserID:          userID,
		Items:           orderItems,
		ShippingAddress: shipping,
		PaymentInfo:     payment,
		Status:          models.OrderStatusPending,
		Subtotal:        subtotal,
		Tax:             tax,
		Shipping:        shippingCost,
		Total:           subtotal + tax + shippingCost,
	}

	// Take stock with per-item conditional decrements; compensate on a
	// partial failure so validation races never leave stock missing.
	taken := make([]models.OrderItem, 0, len(orderItems))
	for _, item := range orderItems {
		if err := s.productRepo.DecrementStock(item.ProductID, item.Quantity); err != nil {
			s.restoreStock(taken)
			return nil, err
		}
		taken = append(taken, item)
	}

	if err := s.createWithRetry(order); err != nil {
		s.restoreStock(taken)
		return nil, err
	}

	if err := s.cartRepo.Clear(cart.ID); err != nil {
		// The order exists and stock is taken; losing the cart clear is
		// recoverable by the user, so log and continue.
		logger.Log.Warn("failed to clear cart after order placement",
			zap.String("order_id", order.ID), zap.Error(err))
	}

	s.publish(rabbitKeyCreated, order)
	return order, nil
}

// createWithRetry retries order-number collisions with fresh suffixes.
func (s *OrderService) createWithRetry(order *models.Order) error {
	var err error
	for attempt := 0; attempt < orderNumberRetries; attempt++ {
		err = s.orderRepo.Create(order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperrors.ErrDuplicate) {
			return fmt.Errorf("failed to create order: %w", err)
		}
		order.OrderNumber = models.NewOrderNumber()
	}
	return fmt.Errorf("failed to create order after %d attempts: %w", orderNumberRetries, err)
}

func (s *OrderService) restoreStock(items []models.OrderItem) {
	for _, item := range items {
		if err := s.productRepo.IncrementStock(item.ProductID, item.Quantity); err != nil {
			logger.Log.Error("failed to restore stock",
				zap.String("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
		}
	}
}

// GetOrder retrieves an order, enforcing that only the owner or an admin
// may read it.
func (s *OrderService) GetOrder(orderID, requesterID string, requesterIsAdmin bool) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != requesterID && !requesterIsAdmin {
		return nil, apperrors.ErrForbidden
	}
	return order, nil
}

// ListUserOrders lists the user's own orders.
func (s *OrderService) ListUserOrders(userID, status string, page, limit int) ([]models.Order, int64, error) {
	return s.orderRepo.Find(repositories.OrderFilter{
		UserID: userID,
		Status: status,
		Page:   page,
		Limit:  limit,
	})
}

// ListAllOrders lists orders across users for administrators.
func (s *OrderService) ListAllOrders(status, userID string, page, limit int) ([]models.Order, int64, error) {
	return s.orderRepo.Find(repositories.OrderFilter{
		UserID: userID,
		Status: status,
		Page:   page,
		Limit:  limit,
	})
}

// CancelOrder transitions an order to cancelled on behalf of its owner
// and restores every line item's quantity to product stock. Only orders
// still in pending, confirmed or processing may be cancelled.
func (s *OrderService) CancelOrder(orderID, userID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperrors.ErrForbidden
	}
	if !order.CanBeCancelled() {
		return nil, fmt.Errorf("order %s in status %s: %w", order.OrderNumber, order.Status, apperrors.ErrInvalidTransition)
	}

	order.Status = models.OrderStatusCancelled
	if err := s.orderRepo.Save(order); err != nil {
		return nil, fmt.Errorf("failed to cancel order %s: %w", orderID, err)
	}

	// Stock comes back only once the cancellation is durable.
	for _, item := range order.Items {
		if err := s.productRepo.IncrementStock(item.ProductID, item.Quantity); err != nil {
			logger.Log.Error("failed to restore stock during cancellation",
				zap.String("order_id", order.ID),
				zap.String("product_id", item.ProductID),
				zap.Error(err))
		}
	}

	s.publish(rabbitKeyCancelled, order)
	return order, nil
}

// StatusUpdate carries an administrative status change.
type StatusUpdate struct {
	Status         string `json:"status" validate:"required"`
	TrackingNumber string `json:"trackingNumber" validate:"omitempty,max=100"`
	Notes          string `json:"notes" validate:"omitempty,max=500"`
}

// UpdateOrderStatus sets any status on behalf of an administrator.
// Administrators are trusted, so no transition ordering is enforced;
// moving to delivered stamps the delivery timestamp.
func (s *OrderService) UpdateOrderStatus(orderID string, update StatusUpdate) (*models.Order, error) {
	if !models.IsValidOrderStatus(update.Status) {
		return nil, fmt.Errorf("%q: %w", update.Status, apperrors.ErrInvalidStatus)
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	order.Status = update.Status
	if update.TrackingNumber != "" {
		order.TrackingNumber = update.TrackingNumber
	}
	if update.Notes != "" {
		order.Notes = update.Notes
	}
	if update.Status == models.OrderStatusDelivered {
		now := time.Now()
		order.DeliveredAt = &now
	}

	if err := s.orderRepo.Save(order); err != nil {
		return nil, fmt.Errorf("failed to update order status for order %s: %w", orderID, err)
	}

	s.publish(rabbitKeyStatusUpdated, order)
	return order, nil
}

// OrderStats aggregates the admin dashboard figures.
func (s *OrderService) OrderStats() (*repositories.OrderStats, error) {
	return s.orderRepo.Stats()
}

// Routing keys mirror pkg/rabbitmq; kept local so the service does not
// import the transport package for three strings.
const (
	rabbitKeyCreated       = "order.created"
	rabbitKeyCancelled     = "order.cancelled"
	rabbitKeyStatusUpdated = "order.status_updated"
)

func (s *OrderService) publish(key string, order *models.Order) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(map[string]interface{}{
		"orderID":     order.ID,
		"orderNumber": order.OrderNumber,
		"userID":      order.UserID,
		"status":      order.Status,
		"total":       order.Total,
	})
	if err != nil {
		logger.Log.Error("failed to marshal order event", zap.Error(err))
		return
	}
	if err := s.events.Publish(key, body); err != nil {
		logger.Log.Warn("failed to publish order event",
			zap.String("key", key),
			zap.String("order_id", order.ID),
			zap.Error(err))
		return
	}
	logger.Log.Info("published order event",
		zap.String("key", key),
		zap.String("order_number", order.OrderNumber))
}
