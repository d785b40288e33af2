package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inventory-service/internal/api/dto"
	"github.com/spec-kit/inventory-service/internal/auth"
	"github.com/spec-kit/inventory-service/internal/service"
	apperrors "github.com/spec-kit/inventory-service/pkg/util/errorutil"
)

// ProductsHandler manages owner-scoped product endpoints.
type ProductsHandler struct {
	service *service.ProductService
}

// NewProductsHandler constructs handler.
func NewProductsHandler(productService *service.ProductService) *ProductsHandler {
	return &ProductsHandler{service: productService}
}

// Create POST /products.
func (h *ProductsHandler) Create(c *fiber.Ctx) error {
	ownerID, err := ownerFrom(c)
	if err != nil {
		return err
	}
	var input service.ProductInput
	if err := c.BodyParser(&input); err != nil {
		return invalidPayload()
	}
	product, err := h.service.Create(c.UserContext(), ownerID, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "Product created successfully",
		"product": dto.NewProductResponse(product),
	})
}

// List GET /products.
func (h *ProductsHandler) List(c *fiber.Ctx) error {
	ownerID, err := ownerFrom(c)
	if err != nil {
		return err
	}
	products, err := h.service.List(c.UserContext(), ownerID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"products": dto.NewProductList(products)})
}

// LowStock GET /products/low-stock.
func (h *ProductsHandler) LowStock(c *fiber.Ctx) error {
	ownerID, err := ownerFrom(c)
	if err != nil {
		return err
	}
	products, err := h.service.ListLowStock(c.UserContext(), ownerID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"products": dto.NewProductList(products)})
}

// Get GET /products/:id.
func (h *ProductsHandler) Get(c *fiber.Ctx) error {
	ownerID, err := ownerFrom(c)
	if err != nil {
		return err
	}
	product, err := h.service.GetByID(c.UserContext(), ownerID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"product": dto.NewProductResponse(product)})
}

// Update PUT /products/:id.
func (h *ProductsHandler) Update(c *fiber.Ctx) error {
	ownerID, err := ownerFrom(c)
	if err != nil {
		return err
	}
	var update service.ProductUpdate
	if err := c.BodyParser(&update); err != nil {
		return invalidPayload()
	}
	product, err := h.service.Update(c.UserContext(), ownerID, c.Params("id"), update)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Product updated successfully",
		"product": dto.NewProductResponse(product),
	})
}

// Delete DELETE /products/:id.
func (h *ProductsHandler) Delete(c *fiber.Ctx) error {
	ownerID, err := ownerFrom(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), ownerID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Product deleted successfully"})
}

// AdjustStock PATCH /products/:id/stock.
func (h *ProductsHandler) AdjustStock(c *fiber.Ctx) error {
	ownerID, err := ownerFrom(c)
	if err != nil {
		return err
	}
	var adj service.StockAdjustment
	if err := c.BodyParser(&adj); err != nil {
		return invalidPayload()
	}
	product, err := h.service.AdjustStock(c.UserContext(), ownerID, c.Params("id"), adj)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Stock updated successfully",
		"product": dto.NewProductResponse(product),
	})
}

func ownerFrom(c *fiber.Ctx) (string, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return "", apperrors.NewUnauthorized(auth.NotAuthorizedMessage)
	}
	return principal.User.ID, nil
}
