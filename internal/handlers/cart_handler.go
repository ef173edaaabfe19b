package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"marketplace/internal/middleware"
	"marketplace/internal/models"
	"marketplace/internal/services"
)

// CartHandler handles HTTP requests for the shopping cart. Every route
// requires authentication; carts are only ever visible to their owner.
type CartHandler struct {
	service     *services.CartService
	authService *services.AuthService
	validate    *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService, authService *services.AuthService) *CartHandler {
	return &CartHandler{
		service:     service,
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cart := router.Group("/cart", middleware.AuthRequired(h.authService))
	cart.Get("/", h.HandleGetCart)
	cart.Get("/count", h.HandleCartCount)
	cart.Post("/add", h.HandleAddItem)
	cart.Put("/item/:productId", h.HandleUpdateItem)
	cart.Delete("/item/:productId", h.HandleRemoveItem)
	cart.Delete("/clear", h.HandleClearCart)
}

func cartPayload(cart *models.Cart) fiber.Map {
	return fiber.Map{
		"cart":       cart,
		"totalItems": cart.TotalItems(),
		"totalPrice": cart.TotalPrice(),
	}
}

// HandleGetCart returns the cart with items and product details resolved.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	cart, err := h.service.GetCart(middleware.UserID(c))
	if err != nil {
		return respondError(c, err, "Could not retrieve cart")
	}
	return respondData(c, fiber.StatusOK, cartPayload(cart))
}

// HandleCartCount returns the total item quantity, used by the UI badge.
func (h *CartHandler) HandleCartCount(c *fiber.Ctx) error {
	count, err := h.service.CountItems(middleware.UserID(c))
	if err != nil {
		return respondError(c, err, "Could not retrieve cart count")
	}
	return respondData(c, fiber.StatusOK, fiber.Map{"count": count})
}

// AddItemRequest represents the request body for adding to the cart.
type AddItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=99"`
}

// HandleAddItem adds a product to the cart, accumulating quantity when it
// is already present.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		return respondValidationError(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	cart, err := h.service.AddItem(middleware.UserID(c), req.ProductID, req.Quantity)
	if err != nil {
		return respondError(c, err, "Could not add item to cart")
	}
	return respondMessage(c, fiber.StatusOK, "Item added to cart", cartPayload(cart))
}

// UpdateItemRequest represents the request body for a quantity change.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"max=99"`
}

// HandleUpdateItem sets an item's quantity; zero or less removes it.
func (h *CartHandler) HandleUpdateItem(c *fiber.Ctx) error {
	var req UpdateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return respondValidationError(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	cart, err := h.service.UpdateItem(middleware.UserID(c), c.Params("productId"), req.Quantity)
	if err != nil {
		return respondError(c, err, "Could not update cart item")
	}
	return respondMessage(c, fiber.StatusOK, "Cart updated", cartPayload(cart))
}

// HandleRemoveItem deletes a product from the cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	cart, err := h.service.RemoveItem(middleware.UserID(c), c.Params("productId"))
	if err != nil {
		return respondError(c, err, "Could not remove cart item")
	}
	return respondMessage(c, fiber.StatusOK, "Item removed from cart", cartPayload(cart))
}

// HandleClearCart empties the cart wholesale.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	cart, err := h.service.ClearCart(middleware.UserID(c))
	if err != nil {
		return respondError(c, err, "Could not clear cart")
	}
	return respondMessage(c, fiber.StatusOK, "Cart cleared", cartPayload(cart))
}
