package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inventory-service/internal/api/http/handlers"
	"github.com/spec-kit/inventory-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Products       *handlers.ProductsHandler
	AuthMiddleware *auth.SessionMiddleware
	AuthLimiter    *AuthRateLimiter
}

// RegisterRoutes wires HTTP routes under /api.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	api := app.Group("/api")

	users := api.Group("/users")
	limited := []fiber.Handler{}
	if cfg.AuthLimiter != nil {
		limited = append(limited, cfg.AuthLimiter.Handle)
	}
	users.Post("/register", append(limited, cfg.Users.Register)...)
	users.Post("/login", append(limited, cfg.Users.Login)...)
	users.Get("/logout", cfg.Users.Logout)
	users.Get("/loggedin", cfg.Users.LoggedIn)

	users.Get("/profile", cfg.AuthMiddleware.Handle, cfg.Users.Profile)
	users.Put("/update", cfg.AuthMiddleware.Handle, cfg.Users.Update)
	users.Put("/changepassword", cfg.AuthMiddleware.Handle, cfg.Users.ChangePassword)

	products := api.Group("/products", cfg.AuthMiddleware.Handle)
	products.Post("/", cfg.Products.Create)
	products.Get("/", cfg.Products.List)
	// registered before /:id so it is not captured as an id
	products.Get("/low-stock", cfg.Products.LowStock)
	products.Get("/:id", cfg.Products.Get)
	products.Put("/:id", cfg.Products.Update)
	products.Delete("/:id", cfg.Products.Delete)
	products.Patch("/:id/stock", cfg.Products.AdjustStock)
}
