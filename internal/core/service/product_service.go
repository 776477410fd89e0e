package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/avelarde/storefront/internal/core/domain"
	"github.com/avelarde/storefront/internal/port"
	"github.com/avelarde/storefront/internal/telemetry"
)

// ProductService is plain catalog CRUD over the product store, plus the
// realtime notifications the storefront listens on.
type ProductService struct {
	products port.ProductRepository
	bus      port.Broadcaster
	log      *telemetry.Logger
}

func NewProductService(products port.ProductRepository, bus port.Broadcaster, log *telemetry.Logger) *ProductService {
	return &ProductService{products: products, bus: bus, log: log}
}

// ProductInput carries the writable fields of a product. Pointer fields
// distinguish "not sent" from zero values on update.
type ProductInput struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Code        *string   `json:"code"`
	Price       *float64  `json:"price"`
	Status      *bool     `json:"status"`
	Stock       *int      `json:"stock"`
	Category    *string   `json:"category"`
	Thumbnails  *[]string `json:"thumbnails"`
}

func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	return s.products.List(ctx)
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	for name, v := range map[string]*string{"title": in.Title, "description": in.Description, "code": in.Code, "category": in.Category} {
		if v == nil || strings.TrimSpace(*v) == "" {
			return nil, fmt.Errorf("%w: missing %s", domain.ErrInvalidProduct, name)
		}
	}
	if in.Price == nil || *in.Price < 0 {
		return nil, fmt.Errorf("%w: price must be non-negative", domain.ErrInvalidProduct)
	}
	if in.Stock == nil || *in.Stock < 0 {
		return nil, fmt.Errorf("%w: stock must be non-negative", domain.ErrInvalidProduct)
	}

	product := &domain.Product{
		ID:          uuid.NewString(),
		Title:       *in.Title,
		Description: *in.Description,
		Code:        *in.Code,
		Price:       *in.Price,
		Status:      true,
		Stock:       *in.Stock,
		Category:    strings.ToLower(*in.Category),
	}
	if in.Status != nil {
		product.Status = *in.Status
	}
	if in.Thumbnails != nil {
		product.Thumbnails = *in.Thumbnails
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, port.CatalogEvent{Type: port.EventProductAdded, ProductID: product.ID, Product: product})
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, id string, in ProductInput) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		product.Title = *in.Title
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Code != nil {
		product.Code = *in.Code
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return nil, fmt.Errorf("%w: price must be non-negative", domain.ErrInvalidProduct)
		}
		product.Price = *in.Price
	}
	if in.Status != nil {
		product.Status = *in.Status
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, fmt.Errorf("%w: stock must be non-negative", domain.ErrInvalidProduct)
		}
		product.Stock = *in.Stock
	}
	if in.Category != nil {
		product.Category = strings.ToLower(*in.Category)
	}
	if in.Thumbnails != nil {
		product.Thumbnails = *in.Thumbnails
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, port.CatalogEvent{Type: port.EventProductUpdated, ProductID: product.ID, Product: product})
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, port.CatalogEvent{Type: port.EventProductDeleted, ProductID: id})
	return nil
}

func (s *ProductService) publish(ctx context.Context, event port.CatalogEvent) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.log.Warn("broadcast failed", "event", event.Type, "product_id", event.ProductID, "error", err)
	}
}
