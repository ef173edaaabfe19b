package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"marketplace/internal/middleware"
	"marketplace/internal/models"
	"marketplace/internal/services"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service     *services.OrderService
	authService *services.AuthService
	validate    *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, authService *services.AuthService) *OrderHandler {
	return &OrderHandler{
		service:     service,
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orders := router.Group("/orders", middleware.AuthRequired(h.authService))

	orders.Post("/", h.HandlePlaceOrder)
	orders.Get("/my-orders", h.HandleMyOrders)

	// Admin routes are registered before /:id so the path segments do not
	// collide.
	admin := orders.Group("/admin", middleware.AdminRequired())
	admin.Get("/all", h.HandleAllOrders)
	admin.Put("/:id/status", h.HandleUpdateStatus)
	admin.Get("/stats", h.HandleStats)

	orders.Get("/:id", h.HandleGetOrder)
	orders.Put("/:id/cancel", h.HandleCancelOrder)
}

// PlaceOrderRequest represents the checkout request body. Line items come
// from the cart, never from the request.
type PlaceOrderRequest struct {
	ShippingAddress models.ShippingAddress `json:"shippingAddress" validate:"required"`
	PaymentInfo     models.PaymentInfo     `json:"paymentInfo" validate:"required"`
}

// HandlePlaceOrder runs the order placement workflow against the caller's
// cart.
func (h *OrderHandler) HandlePlaceOrder(c *fiber.Ctx) error {
	var req PlaceOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return respondValidationError(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	order, err := h.service.PlaceOrder(middleware.UserID(c), req.ShippingAddress, req.PaymentInfo)
	if err != nil {
		return respondError(c, err, "Could not create order")
	}
	return respondMessage(c, fiber.StatusCreated, "Order created successfully", fiber.Map{"order": order})
}

// HandleMyOrders lists the caller's orders newest first.
func (h *OrderHandler) HandleMyOrders(c *fiber.Ctx) error {
	page, limit := parsePage(c, 10)
	orders, total, err := h.service.ListUserOrders(middleware.UserID(c), c.Query("status"), page, limit)
	if err != nil {
		return respondError(c, err, "Could not retrieve orders")
	}
	return respondData(c, fiber.StatusOK, fiber.Map{
		"orders":     orders,
		"pagination": NewPagination(page, limit, total),
	})
}

// HandleGetOrder returns one order; only the owner or an admin may read it.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	order, err := h.service.GetOrder(c.Params("id"), middleware.UserID(c), middleware.IsAdmin(c))
	if err != nil {
		return respondError(c, err, "Could not retrieve order")
	}
	return respondData(c, fiber.StatusOK, fiber.Map{"order": order})
}

// HandleCancelOrder cancels the caller's own order while it is still
// cancellable, restoring stock.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	order, err := h.service.CancelOrder(c.Params("id"), middleware.UserID(c))
	if err != nil {
		return respondError(c, err, "Could not cancel order")
	}
	return respondMessage(c, fiber.StatusOK, "Order cancelled successfully", fiber.Map{"order": order})
}

// HandleAllOrders lists orders across all users (admin only).
func (h *OrderHandler) HandleAllOrders(c *fiber.Ctx) error {
	page, limit := parsePage(c, 20)
	orders, total, err := h.service.ListAllOrders(c.Query("status"), c.Query("userId"), page, limit)
	if err != nil {
		return respondError(c, err, "Could not retrieve orders")
	}
	return respondData(c, fiber.StatusOK, fiber.Map{
		"orders":     orders,
		"pagination": NewPagination(page, limit, total),
	})
}

// HandleUpdateStatus sets any order status (admin only), with optional
// tracking number and notes.
func (h *OrderHandler) HandleUpdateStatus(c *fiber.Ctx) error {
	var req services.StatusUpdate
	if err := c.BodyParser(&req); err != nil {
		return respondValidationError(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	order, err := h.service.UpdateOrderStatus(c.Params("id"), req)
	if err != nil {
		return respondError(c, err, "Could not update order status")
	}
	return respondMessage(c, fiber.StatusOK, "Order status updated successfully", fiber.Map{"order": order})
}

// HandleStats returns the admin order statistics dashboard payload.
func (h *OrderHandler) HandleStats(c *fiber.Ctx) error {
	stats, err := h.service.OrderStats()
	if err != nil {
		return respondError(c, err, "Could not retrieve order statistics")
	}
	return respondData(c, fiber.StatusOK, fiber.Map{"stats": stats})
}
