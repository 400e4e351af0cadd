package handlers

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/alaaeddinekamel/gym-management/internal/applog"
	"github.com/alaaeddinekamel/gym-management/internal/models"
	"github.com/alaaeddinekamel/gym-management/internal/services"
	"github.com/gofiber/fiber/v2"
)

const maxProductImageSizeBytes = 5 * 1024 * 1024

type ProductHandler struct {
	service productApplicationService
}

type productApplicationService interface {
	ListProducts(ctx context.Context, query services.ProductQuery) ([]models.Product, int, error)
	GetProduct(ctx context.Context, productID int64) (*models.Product, error)
	CreateProduct(ctx context.Context, input services.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, productID int64, input services.UpdateProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, productID int64) error
	UploadProductImage(ctx context.Context, productID int64, content io.Reader) (*models.Product, error)
}

func NewProductHandler(service *services.CatalogService) *ProductHandler {
	return &ProductHandler{service: service}
}

type createProductRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	Category    string  `json:"category" validate:"required,max=100"`
	Stock       int     `json:"stock" validate:"gte=0"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
}

type updateProductRequest struct {
	Name        *string  `json:"name" validate:"omitempty,max=200"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Category    *string  `json:"category" validate:"omitempty,max=100"`
	Stock       *int     `json:"stock" validate:"omitempty,gte=0"`
	ImageURL    *string  `json:"image_url" validate:"omitempty,url"`
}

func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	page := parsePositiveInt(c.Query("page"), 1)
	if page > maxPage {
		page = maxPage
	}
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	products, total, err := h.service.ListProducts(c.Context(), services.ProductQuery{
		Category: strings.TrimSpace(c.Query("category")),
		Search:   strings.TrimSpace(c.Query("q")),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return mapServiceError(c, "product.list", err)
	}

	return c.JSON(fiber.Map{
		"products":   products,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	productID, ok := parseIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product id"})
	}

	product, err := h.service.GetProduct(c.Context(), productID)
	if err != nil {
		return mapServiceError(c, "product.get", err)
	}
	return c.JSON(fiber.Map{"product": product})
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req createProductRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	product, err := h.service.CreateProduct(c.Context(), services.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return mapServiceError(c, "product.create", err)
	}

	c.Status(fiber.StatusCreated)
	applog.Audit(c, "product.created", map[string]any{"product_id": product.ID})
	return c.JSON(fiber.Map{"product": product})
}

func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	productID, ok := parseIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product id"})
	}

	var req updateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	product, err := h.service.UpdateProduct(c.Context(), productID, services.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return mapServiceError(c, "product.update", err)
	}
	return c.JSON(fiber.Map{"product": product})
}

func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	productID, ok := parseIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product id"})
	}

	if err := h.service.DeleteProduct(c.Context(), productID); err != nil {
		return mapServiceError(c, "product.delete", err)
	}

	applog.Audit(c, "product.deleted", map[string]any{"product_id": productID})
	return c.JSON(fiber.Map{"message": "Product deleted"})
}

func (h *ProductHandler) UploadImage(c *fiber.Ctx) error {
	productID, ok := parseIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product id"})
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "image file is required"})
	}
	if fileHeader.Size <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "image file is empty"})
	}
	if fileHeader.Size > maxProductImageSizeBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "image file exceeds 5MB limit"})
	}

	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".jpg", ".jpeg", ".png", ".gif":
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "image must be a jpg, jpeg, png, or gif file"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to open image file"})
	}
	defer file.Close()

	product, err := h.service.UploadProductImage(c.Context(), productID, file)
	if err != nil {
		return mapServiceError(c, "product.image", err)
	}
	return c.JSON(fiber.Map{"product": product})
}
