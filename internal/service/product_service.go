package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"scalepos/internal/dto"
	"scalepos/internal/model"
	"scalepos/internal/repository"
)

// ProductService is the thin catalog surface the engine reads from.
type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	GetByBarcode(ctx context.Context, barcode string) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	ListLowStock(ctx context.Context) ([]dto.ProductResponse, error)
}

type productService struct {
	repo  repository.ProductRepository
	stock StockService
}

func NewProductService(repo repository.ProductRepository, stock StockService) ProductService {
	return &productService{repo: repo, stock: stock}
}

func (s *productService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if _, err := s.repo.FindByBarcode(ctx, req.Barcode); err == nil {
		return nil, errors.New("a product with this barcode already exists")
	}
	p := &model.Product{
		Barcode:       req.Barcode,
		Name:          req.Name,
		UnitType:      req.UnitType,
		StockQuantity: req.Stock,
		MinStock:      req.MinStock,
		DefaultPrice:  req.DefaultPrice,
		CostPrice:     req.CostPrice,
		Active:        true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, p), nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("product %s not found", id)
	}
	return s.toResponse(ctx, p), nil
}

func (s *productService) GetByBarcode(ctx context.Context, barcode string) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, fmt.Errorf("no active product with barcode %s", barcode)
	}
	return s.toResponse(ctx, p), nil
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.ProductListResponse{
		Data:  make([]dto.ProductResponse, 0, len(products)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range products {
		resp.Data = append(resp.Data, *productToResponse(&products[i]))
	}
	return resp, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("product %s not found", id)
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.DefaultPrice != nil {
		p.DefaultPrice = *req.DefaultPrice
	}
	if req.CostPrice != nil {
		p.CostPrice = req.CostPrice
	}
	if req.MinStock != nil {
		p.MinStock = *req.MinStock
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, p), nil
}

func (s *productService) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

func (s *productService) ListLowStock(ctx context.Context) ([]dto.ProductResponse, error) {
	products, err := s.repo.ListBelowMinStock(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, *productToResponse(&products[i]))
	}
	return out, nil
}

// toResponse enriches a single-product response with the advisory remaining
// view; list responses skip it to avoid a draft scan per row.
func (s *productService) toResponse(ctx context.Context, p *model.Product) *dto.ProductResponse {
	resp := productToResponse(p)
	if rem, err := s.stock.Remaining(ctx, p.ID, uuid.Nil); err == nil {
		resp.Remaining = &rem.Remaining
	}
	return resp
}

func productToResponse(p *model.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:           p.ID.String(),
		Barcode:      p.Barcode,
		Name:         p.Name,
		UnitType:     p.UnitType,
		Stock:        p.StockQuantity,
		MinStock:     p.MinStock,
		DefaultPrice: p.DefaultPrice,
		CostPrice:    p.CostPrice,
		Active:       p.Active,
	}
}
