package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alaaeddinekamel/gym-management/internal/metrics"
	"github.com/alaaeddinekamel/gym-management/internal/models"
	"github.com/alaaeddinekamel/gym-management/internal/repository"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	productImageMaxSide = 1024
	productImageQuality = 85
)

var ErrStorageUnavailable = errors.New("image storage is not configured")

type CatalogService struct {
	productRepo *repository.ProductRepository
	storage     StorageService
	metrics     *metrics.AppMetrics
}

func NewCatalogService(
	productRepo *repository.ProductRepository,
	storage StorageService,
	appMetrics *metrics.AppMetrics,
) *CatalogService {
	return &CatalogService{productRepo: productRepo, storage: storage, metrics: appMetrics}
}

type ProductQuery struct {
	Category string
	Search   string
	Page     int
	Limit    int
}

type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Category    string
	Stock       int
	ImageURL    *string
}

type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *float64
	Category    *string
	Stock       *int
	ImageURL    *string
}

func (s *CatalogService) ListProducts(ctx context.Context, query ProductQuery) ([]models.Product, int, error) {
	products, total, err := s.productRepo.List(ctx, repository.ProductListFilter{
		Category: query.Category,
		Search:   query.Search,
		Limit:    query.Limit,
		Offset:   (query.Page - 1) * query.Limit,
	})
	if err != nil {
		return nil, 0, storageError("list products", err)
	}
	return products, total, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundError("product not found")
		}
		return nil, storageError("load product", err)
	}
	return product, nil
}

func validateProductFields(name, category *string, price *float64, stock *int) error {
	if name != nil && strings.TrimSpace(*name) == "" {
		return validationError("name must not be empty")
	}
	if category != nil && strings.TrimSpace(*category) == "" {
		return validationError("category must not be empty")
	}
	if price != nil && *price < 0 {
		return validationError("price must not be negative")
	}
	if stock != nil && *stock < 0 {
		return validationError("stock must not be negative")
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	category := strings.TrimSpace(input.Category)
	if err := validateProductFields(&name, &category, &input.Price, &input.Stock); err != nil {
		return nil, err
	}

	product, err := s.productRepo.Create(ctx, repository.CreateProductInput{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Category:    category,
		Stock:       input.Stock,
		ImageURL:    input.ImageURL,
	})
	if err != nil {
		return nil, storageError("create product", err)
	}
	s.metrics.RecordInventoryLevel(ctx, product.ID, product.Stock)
	return product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, productID int64, input UpdateProductInput) (*models.Product, error) {
	if err := validateProductFields(input.Name, input.Category, input.Price, input.Stock); err != nil {
		return nil, err
	}

	product, err := s.productRepo.UpdatePartial(ctx, productID, repository.UpdateProductInput{
		Name:        trimmed(input.Name),
		Description: input.Description,
		Price:       input.Price,
		Category:    trimmed(input.Category),
		Stock:       input.Stock,
		ImageURL:    input.ImageURL,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundError("product not found")
		}
		return nil, storageError("update product", err)
	}
	if input.Stock != nil {
		s.metrics.RecordInventoryLevel(ctx, product.ID, product.Stock)
	}
	return product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, productID int64) error {
	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, productID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFoundError("product not found")
		}
		return storageError("delete product", err)
	}
	if product.ImageURL != nil && s.storage != nil {
		_ = s.storage.Remove(ctx, *product.ImageURL)
	}
	return nil
}

// UploadProductImage normalizes the image to a bounded JPEG, stores it under
// a fresh name and points the product at it. The previous image is removed.
func (s *CatalogService) UploadProductImage(ctx context.Context, productID int64, content io.Reader) (*models.Product, error) {
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}

	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	encoded, err := PrepareProductImage(content)
	if err != nil {
		return nil, err
	}

	objectPath := fmt.Sprintf("products/%d/%s.jpg", product.ID, uuid.NewString())
	imageURL, err := s.storage.Put(ctx, objectPath, encoded, "image/jpeg")
	if err != nil {
		return nil, storageError("upload product image", err)
	}

	updated, err := s.productRepo.UpdatePartial(ctx, product.ID, repository.UpdateProductInput{ImageURL: &imageURL})
	if err != nil {
		_ = s.storage.Remove(ctx, imageURL)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundError("product not found")
		}
		return nil, storageError("update product image", err)
	}

	if product.ImageURL != nil && *product.ImageURL != imageURL {
		_ = s.storage.Remove(ctx, *product.ImageURL)
	}
	return updated, nil
}

// PrepareProductImage decodes any supported image, applies EXIF orientation,
// shrinks it to fit productImageMaxSide and re-encodes it as JPEG.
func PrepareProductImage(content io.Reader) ([]byte, error) {
	img, err := imaging.Decode(content, imaging.AutoOrientation(true))
	if err != nil {
		return nil, validationError("unsupported image: %v", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > productImageMaxSide || bounds.Dy() > productImageMaxSide {
		img = imaging.Fit(img, productImageMaxSide, productImageMaxSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(productImageQuality)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	out := strings.TrimSpace(*value)
	return &out
}
