package handlers

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"marketplace/internal/middleware"
	"marketplace/internal/models"
	"marketplace/internal/repositories"
	"marketplace/internal/services"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service     *services.ProductService
	authService *services.AuthService
	validate    *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, authService *services.AuthService) *ProductHandler {
	return &ProductHandler{
		service:     service,
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	products := router.Group("/products")

	// Public routes; a valid token lets admins see inactive products.
	products.Get("/", middleware.OptionalAuth(h.authService), h.HandleListProducts)
	products.Get("/search", h.HandleSearchProducts)
	products.Get("/featured", h.HandleFeaturedProducts)
	products.Get("/categories", h.HandleCategories)
	products.Get("/:id", middleware.OptionalAuth(h.authService), h.HandleGetProduct)

	// Authenticated routes
	products.Post("/:id/reviews", middleware.AuthRequired(h.authService), h.HandleAddReview)

	// Admin routes
	admin := products.Group("", middleware.AuthRequired(h.authService), middleware.AdminRequired())
	admin.Post("/", h.HandleCreateProduct)
	admin.Put("/:id", h.HandleUpdateProduct)
	admin.Delete("/:id", h.HandleDeleteProduct)
}

func parsePage(c *fiber.Ctx, defaultLimit int) (int, int) {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultLimit)))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = defaultLimit
	}
	return page, limit
}

// HandleListProducts returns a filtered, sorted and paginated catalog page.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	page, limit := parsePage(c, 12)
	filter := repositories.ProductFilter{
		Category:        c.Query("category"),
		Search:          c.Query("search"),
		FeaturedOnly:    c.Query("featured") == "true",
		IncludeInactive: middleware.IsAdmin(c),
		Sort:            c.Query("sort", "createdAt"),
		Order:           c.Query("order", "desc"),
		Page:            page,
		Limit:           limit,
	}
	if raw := c.Query("minPrice"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MinPrice = &v
		}
	}
	if raw := c.Query("maxPrice"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MaxPrice = &v
		}
	}

	products, total, err := h.service.ListProducts(filter)
	if err != nil {
		return respondError(c, err, "Could not retrieve products")
	}
	return respondData(c, fiber.StatusOK, fiber.Map{
		"products":   products,
		"pagination": NewPagination(page, limit, total),
	})
}

// HandleSearchProducts runs a free-text catalog search.
func (h *ProductHandler) HandleSearchProducts(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(Response{
			Success: false,
			Message: "Search query is required",
		})
	}

	page, limit := parsePage(c, 12)
	products, total, err := h.service.SearchProducts(query, page, limit)
	if err != nil {
		return respondError(c, err, "Could not search products")
	}
	return respondData(c, fiber.StatusOK, fiber.Map{
		"products":   products,
		"pagination": NewPagination(page, limit, total),
	})
}

// HandleFeaturedProducts returns the newest featured products.
func (h *ProductHandler) HandleFeaturedProducts(c *fiber.Ctx) error {
	products, err := h.service.FeaturedProducts()
	if err != nil {
		return respondError(c, err, "Could not retrieve featured products")
	}
	return respondData(c, fiber.StatusOK, fiber.Map{"products": products})
}

// HandleCategories returns the distinct categories of active products.
func (h *ProductHandler) HandleCategories(c *fiber.Ctx) error {
	categories, err := h.service.Categories()
	if err != nil {
		return respondError(c, err, "Could not retrieve categories")
	}
	return respondData(c, fiber.StatusOK, fiber.Map{"categories": categories})
}

// HandleGetProduct returns one product with its reviews.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not retrieve product")
	}
	if !product.IsActive && !middleware.IsAdmin(c) {
		return c.Status(fiber.StatusNotFound).JSON(Response{
			Success: false,
			Message: "Product not found",
		})
	}
	return respondData(c, fiber.StatusOK, fiber.Map{"product": product})
}

// HandleCreateProduct creates a catalog entry (admin only).
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return respondValidationError(c, err)
	}
	if err := h.validate.Struct(product); err != nil {
		return respondValidationError(c, err)
	}

	if err := h.service.CreateProduct(&product, middleware.UserID(c)); err != nil {
		return respondError(c, err, "Could not create product")
	}
	return respondMessage(c, fiber.StatusCreated, "Product created successfully", fiber.Map{"product": product})
}

// HandleUpdateProduct updates a catalog entry (admin only). The body is
// decoded over the stored product, so omitted fields keep their values.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not retrieve product")
	}

	id := product.ID
	createdByID := product.CreatedByID
	ratingAverage := product.RatingAverage
	ratingCount := product.RatingCount
	createdAt := product.CreatedAt

	if err := c.BodyParser(product); err != nil {
		return respondValidationError(c, err)
	}
	// Identity and aggregate-rating fields are never client-writable.
	product.ID = id
	product.CreatedByID = createdByID
	product.RatingAverage = ratingAverage
	product.RatingCount = ratingCount
	product.CreatedAt = createdAt
	if err := h.validate.Struct(product); err != nil {
		return respondValidationError(c, err)
	}

	if err := h.service.UpdateProduct(product); err != nil {
		return respondError(c, err, "Could not update product")
	}
	return respondMessage(c, fiber.StatusOK, "Product updated successfully", fiber.Map{"product": product})
}

// HandleDeleteProduct deletes a catalog entry (admin only).
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.Params("id")); err != nil {
		return respondError(c, err, "Could not delete product")
	}
	return respondMessage(c, fiber.StatusOK, "Product deleted successfully", nil)
}

// ReviewRequest represents the request body for a product review.
type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=500"`
}

// HandleAddReview appends a review and returns the product with its
// recomputed aggregate rating.
func (h *ProductHandler) HandleAddReview(c *fiber.Ctx) error {
	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return respondValidationError(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationError(c, err)
	}

	product, err := h.service.AddReview(c.Params("id"), middleware.UserID(c), req.Rating, req.Comment)
	if err != nil {
		return respondError(c, err, "Could not add review")
	}
	return respondMessage(c, fiber.StatusCreated, "Review added successfully", fiber.Map{"product": product})
}
