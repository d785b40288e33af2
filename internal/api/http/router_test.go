package http

import (
	"bytes"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/inventory-service/internal/api/http/handlers"
	"github.com/spec-kit/inventory-service/internal/auth"
	"github.com/spec-kit/inventory-service/internal/config"
	"github.com/spec-kit/inventory-service/internal/events"
	"github.com/spec-kit/inventory-service/internal/observability"
	"github.com/spec-kit/inventory-service/internal/persistence"
	"github.com/spec-kit/inventory-service/internal/repository"
	"github.com/spec-kit/inventory-service/internal/service"
)

type testServer struct {
	app     *fiber.App
	metrics *observability.Metrics
}

func newTestServer(t *testing.T, authLimit int) *testServer {
	t.Helper()
	logger := zap.NewNop()
	users := repository.NewMemoryUserRepository()
	products := repository.NewMemoryProductRepository()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(config.AuthConfig{JWTSecret: "test-secret", BcryptCost: auth.MinBcryptCost}, users, logger)
	productService := service.NewProductService(service.ProductDependencies{
		ProductRepo: products,
		Dispatcher:  events.NewInMemoryDispatcher(logger),
		Logger:      logger,
	})
	cookies := auth.NewCookieJar(config.CookieConfig{Name: "token", Secure: config.CookieSecureNever})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger, metrics)})
	RegisterMiddlewares(app, logger, metrics, 5*time.Second, config.CORSConfig{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowCredentials: true,
	})
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("inventory-service", "test", &persistence.Postgres{}, &persistence.Redis{}, metrics),
		Users:          handlers.NewUsersHandler(authService, cookies),
		Products:       handlers.NewProductsHandler(productService),
		AuthMiddleware: auth.NewSessionMiddleware(authService.TokenManager(), users, cookies),
		AuthLimiter:    NewAuthRateLimiter(nil, authLimit, time.Minute, logger),
	})
	return &testServer{app: app, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) (*nethttp.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.AddCookie(&nethttp.Cookie{Name: "token", Value: token})
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func sessionCookie(resp *nethttp.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			return c.Value
		}
	}
	return ""
}

func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()
	resp, _ := s.do(t, fiber.MethodPost, "/api/users/register", map[string]any{
		"name":     "Test User",
		"email":    email,
		"password": "secret12",
		"phone":    "5551234567",
	}, "")
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	token := sessionCookie(resp)
	require.NotEmpty(t, token)
	return token
}

func sampleProduct(sku string, quantity int) map[string]any {
	return map[string]any{
		"name":        "Desk Lamp",
		"description": "LED lamp",
		"category":    "Home & Garden",
		"sku":         sku,
		"price":       30,
		"cost":        12,
		"quantity":    quantity,
		"minQuantity": 5,
		"supplier":    "Lumen Co",
		"location":    "B2",
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	s := newTestServer(t, 0)

	paths := []struct{ method, path string }{
		{fiber.MethodGet, "/api/users/profile"},
		{fiber.MethodPut, "/api/users/update"},
		{fiber.MethodGet, "/api/products"},
		{fiber.MethodGet, "/api/products/low-stock"},
		{fiber.MethodPatch, "/api/products/abc/stock"},
	}
	for _, p := range paths {
		resp, body := s.do(t, p.method, p.path, nil, "")
		assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode, p.path)
		assert.Equal(t, auth.NotAuthorizedMessage, body["message"])
	}

	resp, body := s.do(t, fiber.MethodGet, "/api/products", nil, "forged.token.value")
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, auth.NotAuthorizedMessage, body["message"])
}

func TestRegisterSetsCookieAndHidesSecrets(t *testing.T) {
	s := newTestServer(t, 0)

	resp, body := s.do(t, fiber.MethodPost, "/api/users/register", map[string]any{
		"name":     "Ada",
		"email":    "ada@example.com",
		"password": "secret12",
		"phone":    "5551234567",
	}, "")
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)

	token := sessionCookie(resp)
	assert.NotEmpty(t, token)
	user := body["user"].(map[string]any)
	assert.Equal(t, "ada@example.com", user["email"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, body, "token")

	resp, body = s.do(t, fiber.MethodGet, "/api/users/profile", nil, token)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ada", body["user"].(map[string]any)["name"])
}

func TestRegisterErrors(t *testing.T) {
	s := newTestServer(t, 0)
	s.register(t, "dup@example.com")

	resp, body := s.do(t, fiber.MethodPost, "/api/users/register", map[string]any{
		"name": "Dup", "email": "dup@example.com", "password": "secret12", "phone": "5551234567",
	}, "")
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "CONFLICT", body["code"])

	resp, body = s.do(t, fiber.MethodPost, "/api/users/register", map[string]any{
		"name": "Short", "email": "short@example.com", "password": "secret12", "phone": "12345",
	}, "")
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", body["code"])
	assert.Contains(t, body["details"], "phone")
}

func TestLoginLogoutAndLoggedIn(t *testing.T) {
	s := newTestServer(t, 0)
	s.register(t, "bob@example.com")

	_, wrongPass := s.do(t, fiber.MethodPost, "/api/users/login", map[string]any{"email": "bob@example.com", "password": "nope123"}, "")
	resp, unknown := s.do(t, fiber.MethodPost, "/api/users/login", map[string]any{"email": "who@example.com", "password": "secret12"}, "")
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, wrongPass["message"], unknown["message"])
	assert.Equal(t, "Invalid credentials", unknown["message"])

	resp, _ = s.do(t, fiber.MethodPost, "/api/users/login", map[string]any{"email": "bob@example.com", "password": "secret12"}, "")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	token := sessionCookie(resp)
	require.NotEmpty(t, token)

	resp, body := s.do(t, fiber.MethodGet, "/api/users/loggedin", nil, token)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["loggedIn"])

	resp, body = s.do(t, fiber.MethodGet, "/api/users/loggedin", nil, "")
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["loggedIn"])

	resp, _ = s.do(t, fiber.MethodGet, "/api/users/logout", nil, token)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			assert.Empty(t, c.Value)
			assert.True(t, c.Expires.Before(time.Now()))
		}
	}
}

func TestChangePasswordEndpoint(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.register(t, "carol@example.com")

	resp, _ := s.do(t, fiber.MethodPut, "/api/users/changepassword", map[string]any{"oldPassword": "wrong12", "newPassword": "fresh123"}, token)
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, fiber.MethodPut, "/api/users/changepassword", map[string]any{"oldPassword": "secret12", "newPassword": "fresh123"}, token)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

	resp, _ = s.do(t, fiber.MethodPost, "/api/users/login", map[string]any{"email": "carol@example.com", "password": "fresh123"}, "")
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
}

func TestProductFlow(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.register(t, "owner@example.com")
	other := s.register(t, "other@example.com")

	resp, body := s.do(t, fiber.MethodPost, "/api/products", sampleProduct("LAMP-1", 12), token)
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	product := body["product"].(map[string]any)
	id := product["id"].(string)
	assert.Equal(t, "In Stock", product["status"])

	resp, body = s.do(t, fiber.MethodPost, "/api/products", sampleProduct("LAMP-1", 1), token)
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "CONFLICT", body["code"])

	resp, body = s.do(t, fiber.MethodPost, "/api/products", sampleProduct("LAMP-2", 2), token)
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Low Stock", body["product"].(map[string]any)["status"])

	resp, body = s.do(t, fiber.MethodGet, "/api/products", nil, token)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Len(t, body["products"], 2)

	resp, body = s.do(t, fiber.MethodGet, "/api/products/low-stock", nil, token)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Len(t, body["products"], 1)

	resp, _ = s.do(t, fiber.MethodGet, "/api/products/"+id, nil, other)
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
	resp, body = s.do(t, fiber.MethodGet, "/api/products", nil, other)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Empty(t, body["products"])

	resp, body = s.do(t, fiber.MethodPatch, "/api/products/"+id+"/stock", map[string]any{"quantity": 0}, token)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "Out of Stock", body["product"].(map[string]any)["status"])

	resp, _ = s.do(t, fiber.MethodPatch, "/api/products/"+id+"/stock", map[string]any{"quantity": -4}, token)
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)

	resp, body = s.do(t, fiber.MethodPut, "/api/products/"+id, map[string]any{"status": "Discontinued"}, token)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "Discontinued", body["product"].(map[string]any)["status"])

	resp, body = s.do(t, fiber.MethodPut, "/api/products/"+id, map[string]any{"quantity": 50}, token)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "Discontinued", body["product"].(map[string]any)["status"])

	resp, _ = s.do(t, fiber.MethodDelete, "/api/products/"+id, nil, other)
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
	resp, _ = s.do(t, fiber.MethodDelete, "/api/products/"+id, nil, token)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	resp, body = s.do(t, fiber.MethodDelete, "/api/products/"+id, nil, token)
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Product not found", body["message"])
}

func TestProductClientFieldNames(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.register(t, "client@example.com")

	in := sampleProduct("LAMP-9", 3_000_000_000)
	in["price"] = 9.999
	in["image"] = "https://img.example/lamp.png"
	resp, body := s.do(t, fiber.MethodPost, "/api/products", in, token)
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	product := body["product"].(map[string]any)
	id := product["id"].(string)
	assert.Equal(t, id, product["_id"])
	assert.Equal(t, "https://img.example/lamp.png", product["image"])
	assert.Equal(t, "https://img.example/lamp.png", product["imageUrl"])
	assert.Equal(t, 9.999, product["price"])
	assert.Equal(t, float64(3_000_000_000), product["quantity"])

	resp, body = s.do(t, fiber.MethodPut, "/api/products/"+id, map[string]any{"image": "https://img.example/lamp-2.png"}, token)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://img.example/lamp-2.png", body["product"].(map[string]any)["imageUrl"])

	resp, body = s.do(t, fiber.MethodGet, "/api/products/"+id, nil, token)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://img.example/lamp-2.png", body["product"].(map[string]any)["image"])
}

func TestUnknownRouteUsesErrorShape(t *testing.T) {
	s := newTestServer(t, 0)
	resp, body := s.do(t, fiber.MethodGet, "/api/nowhere", nil, "")
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])
	assert.NotEmpty(t, body["message"])
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, 0)

	resp, body := s.do(t, fiber.MethodGet, "/health/live", nil, "")
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "alive", body["status"])

	resp, body = s.do(t, fiber.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, "skipped", deps["postgres"])
	assert.Equal(t, "skipped", deps["redis"])
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	s := newTestServer(t, 2)
	creds := map[string]any{"email": "nobody@example.com", "password": "secret12"}

	for i := 0; i < 2; i++ {
		resp, _ := s.do(t, fiber.MethodPost, "/api/users/login", creds, "")
		assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	}
	resp, body := s.do(t, fiber.MethodPost, "/api/users/login", creds, "")
	assert.Equal(t, nethttp.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, TooManyRequestsMessage, body["message"])

	resp, _ = s.do(t, fiber.MethodGet, "/api/users/loggedin", nil, "")
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
}
