package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"marketplace/internal/handlers"
	"marketplace/internal/models"
	"marketplace/internal/repositories"
	"marketplace/internal/services"
)

const testJWTSecret = "test_jwt_secret"

// setupApp assembles the Fiber app against an in-memory SQLite database,
// the same way main wires it against postgres.
func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Review{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	))

	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	authService := services.NewAuthService(userRepo, testJWTSecret)
	productService := services.NewProductService(productRepo)
	cartService := services.NewCartService(cartRepo, productRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, cartRepo, nil)

	app := fiber.New()
	app.Use(recover.New())

	api := app.Group("/api")
	handlers.NewAuthHandler(authService).RegisterRoutes(api)
	handlers.NewProductHandler(productService, authService).RegisterRoutes(api)
	handlers.NewCartHandler(cartService, authService).RegisterRoutes(api)
	handlers.NewOrderHandler(orderService, authService).RegisterRoutes(api)

	return app, db
}

// envelope mirrors the Response type with raw data fields so each test can
// decode just the parts it cares about.
type envelope struct {
	Success bool                       `json:"success"`
	Message string                     `json:"message"`
	Error   string                     `json:"error"`
	Errors  map[string]string          `json:"errors"`
	Data    map[string]json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)

	var env envelope
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	resp.Body.Close()
	return resp, env
}

func unmarshalField(t *testing.T, env envelope, field string, dst interface{}) {
	t.Helper()
	raw, ok := env.Data[field]
	assert.Truef(t, ok, "response data has no %q field", field)
	assert.NoError(t, json.Unmarshal(raw, dst))
}

// registerAndLogin creates an account and returns its JWT.
func registerAndLogin(t *testing.T, app *fiber.App, username, email, password string) string {
	t.Helper()

	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, env := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var token string
	unmarshalField(t, env, "token", &token)
	assert.NotEmpty(t, token)
	return token
}

// promoteToAdmin flips a user's role directly in the database. There is no
// HTTP route for promotion, matching the production setup where the first
// admin is created out of band.
func promoteToAdmin(t *testing.T, db *gorm.DB, email string) {
	t.Helper()
	res := db.Model(&models.User{}).Where("email = ?", email).Update("role", models.RoleAdmin)
	assert.NoError(t, res.Error)
	assert.EqualValues(t, 1, res.RowsAffected)
}

func seedProduct(t *testing.T, db *gorm.DB, product *models.Product) {
	t.Helper()
	assert.NoError(t, repositories.NewGORMProductRepository(db).Create(product))
}

func TestAuthEndpoints(t *testing.T) {
	app, _ := setupApp(t)

	resp, env := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "shopper",
		"email":    "shopper@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, env.Success)

	var user models.User
	unmarshalField(t, env, "user", &user)
	assert.Equal(t, "shopper", user.Username)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Empty(t, user.Password)

	// Same username again conflicts.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "shopper",
		"email":    "other@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Invalid payload reports per-field errors.
	resp, env = doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "ab",
		"email":    "not-an-email",
		"password": "123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, env.Errors, "Username")
	assert.Contains(t, env.Errors, "Email")
	assert.Contains(t, env.Errors, "Password")

	// Login with the wrong password is rejected without detail.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "shopper@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, env = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "shopper@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var token string
	unmarshalField(t, env, "token", &token)

	// The token unlocks the profile route.
	resp, env = doJSON(t, app, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	unmarshalField(t, env, "user", &user)
	assert.Equal(t, "shopper@example.com", user.Email)
	assert.Empty(t, user.Password)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProfileUpdateAndPasswordChange(t *testing.T) {
	app, _ := setupApp(t)
	token := registerAndLogin(t, app, "profileuser", "profile@example.com", "password123")

	resp, env := doJSON(t, app, http.MethodPut, "/api/auth/profile", token, map[string]string{
		"firstName": "Jane",
		"lastName":  "Doe",
		"phone":     "555-0100",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var user models.User
	unmarshalField(t, env, "user", &user)
	assert.Equal(t, "Jane", user.FirstName)
	assert.Equal(t, "profileuser", user.Username)

	resp, _ = doJSON(t, app, http.MethodPut, "/api/auth/change-password", token, map[string]string{
		"currentPassword": "wrong",
		"newPassword":     "newpassword1",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPut, "/api/auth/change-password", token, map[string]string{
		"currentPassword": "password123",
		"newPassword":     "newpassword1",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The old password no longer works.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "profile@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "profile@example.com",
		"password": "newpassword1",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProductAdminCRUD(t *testing.T) {
	app, db := setupApp(t)
	registerAndLogin(t, app, "catalogadmin", "admin@example.com", "password123")
	promoteToAdmin(t, db, "admin@example.com")
	adminToken := loginOnly(t, app, "admin@example.com", "password123")
	userToken := registerAndLogin(t, app, "plainuser", "plain@example.com", "password123")

	payload := map[string]interface{}{
		"name":        "Wireless Headphones",
		"description": "Noise cancelling over-ear headphones",
		"price":       89.99,
		"category":    "Electronics",
		"stock":       10,
		"images":      []string{"https://example.com/headphones.jpg"},
	}

	// Plain users may not manage the catalog.
	resp, _ := doJSON(t, app, http.MethodPost, "/api/products/", userToken, payload)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodPost, "/api/products/", "", payload)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, env := doJSON(t, app, http.MethodPost, "/api/products/", adminToken, payload)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var product models.Product
	unmarshalField(t, env, "product", &product)
	assert.NotEmpty(t, product.ID)
	assert.True(t, product.IsActive)

	// Unknown categories are rejected.
	bad := map[string]interface{}{
		"name": "Oddity", "description": "Does not fit anywhere",
		"price": 1.00, "category": "Cryptids", "stock": 1,
	}
	resp, env = doJSON(t, app, http.MethodPost, "/api/products/", adminToken, bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, env.Errors, "Category")

	// Anyone can read the catalog.
	resp, env = doJSON(t, app, http.MethodGet, "/api/products/"+product.ID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	unmarshalField(t, env, "product", &product)
	assert.Equal(t, "Wireless Headphones", product.Name)

	payload["price"] = 79.99
	payload["isFeatured"] = true
	resp, env = doJSON(t, app, http.MethodPut, "/api/products/"+product.ID, adminToken, payload)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	unmarshalField(t, env, "product", &product)
	assert.InDelta(t, 79.99, product.Price, 1e-9)
	assert.True(t, product.IsFeatured)

	// A partial edit touches only the provided fields.
	resp, env = doJSON(t, app, http.MethodPut, "/api/products/"+product.ID, adminToken, map[string]interface{}{
		"price": 69.99,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	unmarshalField(t, env, "product", &product)
	assert.InDelta(t, 69.99, product.Price, 1e-9)
	assert.Equal(t, "Wireless Headphones", product.Name)
	assert.Equal(t, 10, product.Stock)
	assert.True(t, product.IsActive)
	assert.True(t, product.IsFeatured)

	// It stays publicly visible.
	resp, _ = doJSON(t, app, http.MethodGet, "/api/products/"+product.ID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/products/"+product.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodGet, "/api/products/"+product.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCatalogBrowsing(t *testing.T) {
	app, db := setupApp(t)

	seedProduct(t, db, &models.Product{Name: "Wireless Headphones", Description: "Noise cancelling", Price: 89.99, Category: "Electronics", Stock: 10, IsActive: true, IsFeatured: true})
	seedProduct(t, db, &models.Product{Name: "Running Shoes", Description: "Trail shoes", Price: 59.99, Category: "Sports", Stock: 25, IsActive: true})
	seedProduct(t, db, &models.Product{Name: "Hidden Gadget", Description: "Retired", Price: 5.00, Category: "Electronics", Stock: 1, IsActive: false})

	// Listing hides inactive products from anonymous callers.
	resp, env := doJSON(t, app, http.MethodGet, "/api/products/", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var products []models.Product
	unmarshalField(t, env, "products", &products)
	assert.Len(t, products, 2)
	var pagination handlers.Pagination
	unmarshalField(t, env, "pagination", &pagination)
	assert.EqualValues(t, 2, pagination.Total)
	assert.Equal(t, 1, pagination.CurrentPage)
	assert.False(t, pagination.HasNext)

	// Admins see the full catalog.
	registerAndLogin(t, app, "catadmin", "catadmin@example.com", "password123")
	promoteToAdmin(t, db, "catadmin@example.com")
	adminToken := loginOnly(t, app, "catadmin@example.com", "password123")
	resp, env = doJSON(t, app, http.MethodGet, "/api/products/", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	unmarshalField(t, env, "products", &products)
	assert.Len(t, products, 3)

	// Category filter
	resp, env = doJSON(t, app, http.MethodGet, "/api/products/?category=Sports", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	unmarshalField(t, env, "products", &products)
	assert.Len(t, products, 1)
	assert.Equal(t, "Running Shoes", products[0].Name)

	// Search
	resp, env = doJSON(t, app, http.MethodGet, "/api/products/search?q=noise", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	unmarshalField(t, env, "products", &products)
	assert.Len(t, products, 1)
	assert.Equal(t, "Wireless Headphones", products[0].Name)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/products/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Featured
	resp, env = doJSON(t, app, http.MethodGet, "/api/products/featured", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	unmarshalField(t, env, "products", &products)
	assert.Len(t, products, 1)
	assert.True(t, products[0].IsFeatured)

	// Categories
	resp, env = doJSON(t, app, http.MethodGet, "/api/products/categories", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var categories []string
	unmarshalField(t, env, "categories", &categories)
	assert.Equal(t, []string{"Electronics", "Sports"}, categories)
}

func TestReviewEndpoint(t *testing.T) {
	app, db := setupApp(t)
	product := &models.Product{Name: "Desk Lamp", Description: "Adjustable LED lamp", Price: 24.50, Category: "Home & Garden", Stock: 5, IsActive: true}
	seedProduct(t, db, product)

	token := registerAndLogin(t, app, "reviewer", "reviewer@example.com", "password123")

	resp, _ := doJSON(t, app, http.MethodPost, "/api/products/"+product.ID+"/reviews", "", map[string]interface{}{"rating": 4})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, env := doJSON(t, app, http.MethodPost, "/api/products/"+product.ID+"/reviews", token, map[string]interface{}{
		"rating":  4,
		"comment": "Bright and sturdy",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var reviewed models.Product
	unmarshalField(t, env, "product", &reviewed)
	assert.InDelta(t, 4.0, reviewed.RatingAverage, 1e-9)
	assert.Equal(t, 1, reviewed.RatingCount)
	assert.Len(t, reviewed.Reviews, 1)

	// One review per user per product.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/products/"+product.ID+"/reviews", token, map[string]interface{}{"rating": 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Rating bounds
	resp, _ = doJSON(t, app, http.MethodPost, "/api/products/"+product.ID+"/reviews", token, map[string]interface{}{"rating": 6})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCartEndpoints(t *testing.T) {
	app, db := setupApp(t)
	headphones := &models.Product{Name: "Wireless Headphones", Description: "Noise cancelling", Price: 89.99, Category: "Electronics", Stock: 10, IsActive: true}
	shoes := &models.Product{Name: "Running Shoes", Description: "Trail shoes", Price: 59.99, Category: "Sports", Stock: 2, IsActive: true}
	seedProduct(t, db, headphones)
	seedProduct(t, db, shoes)

	token := registerAndLogin(t, app, "cartuser", "cart@example.com", "password123")

	resp, _ := doJSON(t, app, http.MethodGet, "/api/cart/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// A first read lazily creates an empty cart.
	resp, env := doJSON(t, app, http.MethodGet, "/api/cart/", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var totalItems int
	unmarshalField(t, env, "totalItems", &totalItems)
	assert.Equal(t, 0, totalItems)

	resp, env = doJSON(t, app, http.MethodPost, "/api/cart/add", token, map[string]interface{}{
		"productId": headphones.ID,
		"quantity":  2,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var totalPrice float64
	unmarshalField(t, env, "totalItems", &totalItems)
	unmarshalField(t, env, "totalPrice", &totalPrice)
	assert.Equal(t, 2, totalItems)
	assert.InDelta(t, 179.98, totalPrice, 1e-9)

	// Adding the same product accumulates.
	resp, env = doJSON(t, app, http.MethodPost, "/api/cart/add", token, map[string]interface{}{
		"productId": headphones.ID,
		"quantity":  1,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	unmarshalField(t, env, "totalItems", &totalItems)
	assert.Equal(t, 3, totalItems)

	// Stock bounds the cart quantity.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/cart/add", token, map[string]interface{}{
		"productId": shoes.ID,
		"quantity":  3,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/cart/add", token, map[string]interface{}{
		"productId": "missing",
		"quantity":  1,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, env = doJSON(t, app, http.MethodGet, "/api/cart/count", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var count int
	unmarshalField(t, env, "count", &count)
	assert.Equal(t, 3, count)

	resp, env = doJSON(t, app, http.MethodPut, "/api/cart/item/"+headphones.ID, token, map[string]interface{}{"quantity": 1})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	unmarshalField(t, env, "totalItems", &totalItems)
	assert.Equal(t, 1, totalItems)

	resp, env = doJSON(t, app, http.MethodDelete, "/api/cart/item/"+headphones.ID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	unmarshalField(t, env, "totalItems", &totalItems)
	assert.Equal(t, 0, totalItems)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/cart/add", token, map[string]interface{}{
		"productId": shoes.ID,
		"quantity":  1,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, env = doJSON(t, app, http.MethodDelete, "/api/cart/clear", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	unmarshalField(t, env, "totalItems", &totalItems)
	assert.Equal(t, 0, totalItems)
}

func shippingPayload() map[string]interface{} {
	return map[string]interface{}{
		"shippingAddress": map[string]string{
			"firstName": "Jane",
			"lastName":  "Doe",
			"street":    "1 Main St",
			"city":      "Springfield",
			"state":     "IL",
			"zipCode":   "62701",
			"phone":     "555-0100",
		},
		"paymentInfo": map[string]string{
			"method": "credit_card",
		},
	}
}

func TestOrderPlacementFlow(t *testing.T) {
	app, db := setupApp(t)
	productRepo := repositories.NewGORMProductRepository(db)
	headphones := &models.Product{Name: "Wireless Headphones", Description: "Noise cancelling", Price: 25.00, Category: "Electronics", Stock: 10, IsActive: true}
	seedProduct(t, db, headphones)

	token := registerAndLogin(t, app, "buyer", "buyer@example.com", "password123")

	// Checkout with an empty cart fails.
	resp, _ := doJSON(t, app, http.MethodPost, "/api/orders/", token, shippingPayload())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/cart/add", token, map[string]interface{}{
		"productId": headphones.ID,
		"quantity":  2,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env := doJSON(t, app, http.MethodPost, "/api/orders/", token, shippingPayload())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	unmarshalField(t, env, "order", &order)
	assert.Regexp(t, `^ORD-\d{6}-[A-Z0-9]{4}$`, order.OrderNumber)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	// 2 x 25.00 = 50.00, which qualifies for free shipping.
	assert.InDelta(t, 50.00, order.Subtotal, 1e-9)
	assert.InDelta(t, 4.00, order.Tax, 1e-9)
	assert.InDelta(t, 0.00, order.Shipping, 1e-9)
	assert.InDelta(t, 54.00, order.Total, 1e-9)
	assert.Len(t, order.Items, 1)
	assert.Equal(t, "Wireless Headphones", order.Items[0].Name)

	// Stock was taken and the cart emptied.
	product, err := productRepo.GetByID(headphones.ID)
	assert.NoError(t, err)
	assert.Equal(t, 8, product.Stock)
	resp, env = doJSON(t, app, http.MethodGet, "/api/cart/count", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var count int
	unmarshalField(t, env, "count", &count)
	assert.Equal(t, 0, count)

	// The order appears in the buyer's history.
	resp, env = doJSON(t, app, http.MethodGet, "/api/orders/my-orders", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var orders []models.Order
	unmarshalField(t, env, "orders", &orders)
	assert.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)

	// Another user can neither read nor cancel it.
	otherToken := registerAndLogin(t, app, "stranger", "stranger@example.com", "password123")
	resp, _ = doJSON(t, app, http.MethodGet, "/api/orders/"+order.ID, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodPut, "/api/orders/"+order.ID+"/cancel", otherToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The owner cancels and stock comes back.
	resp, env = doJSON(t, app, http.MethodPut, "/api/orders/"+order.ID+"/cancel", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	unmarshalField(t, env, "order", &order)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)
	product, err = productRepo.GetByID(headphones.ID)
	assert.NoError(t, err)
	assert.Equal(t, 10, product.Stock)

	// A cancelled order cannot be cancelled again.
	resp, _ = doJSON(t, app, http.MethodPut, "/api/orders/"+order.ID+"/cancel", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOrderShippingCost(t *testing.T) {
	app, db := setupApp(t)
	lamp := &models.Product{Name: "Desk Lamp", Description: "Adjustable LED lamp", Price: 10.00, Category: "Home & Garden", Stock: 5, IsActive: true}
	seedProduct(t, db, lamp)

	token := registerAndLogin(t, app, "smallbuyer", "small@example.com", "password123")
	resp, _ := doJSON(t, app, http.MethodPost, "/api/cart/add", token, map[string]interface{}{
		"productId": lamp.ID,
		"quantity":  1,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env := doJSON(t, app, http.MethodPost, "/api/orders/", token, shippingPayload())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	unmarshalField(t, env, "order", &order)
	// Below the free shipping threshold the flat rate applies.
	assert.InDelta(t, 10.00, order.Subtotal, 1e-9)
	assert.InDelta(t, 0.80, order.Tax, 1e-9)
	assert.InDelta(t, 9.99, order.Shipping, 1e-9)
	assert.InDelta(t, 20.79, order.Total, 1e-9)
}

func TestAdminOrderEndpoints(t *testing.T) {
	app, db := setupApp(t)
	gadget := &models.Product{Name: "Gadget", Description: "A fine gadget", Price: 30.00, Category: "Electronics", Stock: 10, IsActive: true}
	seedProduct(t, db, gadget)

	buyerToken := registerAndLogin(t, app, "orderbuyer", "orderbuyer@example.com", "password123")
	adminToken := registerAndLogin(t, app, "orderadmin", "orderadmin@example.com", "password123")
	promoteToAdmin(t, db, "orderadmin@example.com")
	adminToken = loginOnly(t, app, "orderadmin@example.com", "password123")

	resp, _ := doJSON(t, app, http.MethodPost, "/api/cart/add", buyerToken, map[string]interface{}{
		"productId": gadget.ID,
		"quantity":  2,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, env := doJSON(t, app, http.MethodPost, "/api/orders/", buyerToken, shippingPayload())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	unmarshalField(t, env, "order", &order)

	// Plain users cannot reach the admin surface.
	resp, _ = doJSON(t, app, http.MethodGet, "/api/orders/admin/all", buyerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodGet, "/api/orders/admin/stats", buyerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, env = doJSON(t, app, http.MethodGet, "/api/orders/admin/all", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var orders []models.Order
	unmarshalField(t, env, "orders", &orders)
	assert.Len(t, orders, 1)

	// Admins can read any order.
	resp, _ = doJSON(t, app, http.MethodGet, "/api/orders/"+order.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = doJSON(t, app, http.MethodPut, "/api/orders/admin/"+order.ID+"/status", adminToken, map[string]string{
		"status":         models.OrderStatusShipped,
		"trackingNumber": "TRK-98765",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	unmarshalField(t, env, "order", &order)
	assert.Equal(t, models.OrderStatusShipped, order.Status)
	assert.Equal(t, "TRK-98765", order.TrackingNumber)

	resp, _ = doJSON(t, app, http.MethodPut, "/api/orders/admin/"+order.ID+"/status", adminToken, map[string]string{
		"status": "teleported",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Once shipped the buyer can no longer cancel.
	resp, _ = doJSON(t, app, http.MethodPut, "/api/orders/"+order.ID+"/cancel", buyerToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, env = doJSON(t, app, http.MethodGet, "/api/orders/admin/stats", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var stats repositories.OrderStats
	unmarshalField(t, env, "stats", &stats)
	assert.EqualValues(t, 1, stats.TotalOrders)
	assert.InDelta(t, 64.80, stats.TotalRevenue, 1e-9)
}

// loginOnly fetches a fresh token for an existing account, used after a
// role change so the new claims take effect.
func loginOnly(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	resp, env := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var token string
	unmarshalField(t, env, "token", &token)
	return token
}
