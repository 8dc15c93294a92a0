package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/opname-api/internal/application/dto"
	"github.com/jhoicas/opname-api/internal/domain"
	"github.com/jhoicas/opname-api/internal/domain/entity"
	"github.com/jhoicas/opname-api/internal/domain/repository"
)

// StockInitializer siembra líneas base de stock por outlet para un producto nuevo.
type StockInitializer interface {
	InitializeProductStock(ctx context.Context, productID string) (int, error)
}

// ProductUseCase casos de uso del catálogo de productos. El stock agregado solo cambia vía opname
// o flujos externos de venta/compra.
type ProductUseCase struct {
	repo        repository.ProductRepository
	initializer StockInitializer
	log         zerolog.Logger
}

// NewProductUseCase construye el caso de uso. initializer puede ser nil.
func NewProductUseCase(repo repository.ProductRepository, initializer StockInitializer, log zerolog.Logger) *ProductUseCase {
	return &ProductUseCase{repo: repo, initializer: initializer, log: log}
}

// Create crea un producto y, si hay initializer, siembra stock 0 en todos los outlets activos.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	name := strings.TrimSpace(in.Name)
	barcode := strings.TrimSpace(in.Barcode)
	if name == "" || barcode == "" || in.StockQuantity < 0 || in.MinStock < 0 || in.Cost.IsNegative() ||
		in.StockQuantity > entity.MaxQuantity || in.MinStock > entity.MaxQuantity {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.repo.GetByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := time.Now()
	product := &entity.Product{
		ID:            uuid.New().String(),
		Name:          name,
		Barcode:       barcode,
		StockQuantity: in.StockQuantity,
		MinStock:      in.MinStock,
		Cost:          in.Cost,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	if uc.initializer != nil {
		// El producto ya existe; una falla aquí se puede reintentar vía initialize-stock.
		if _, err := uc.initializer.InitializeProductStock(ctx, product.ID); err != nil {
			uc.log.Error().Err(err).Str("product_id", product.ID).Msg("no se pudo inicializar stock por outlet")
		}
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return toProductResponse(product), nil
}

// GetByBarcode resuelve un código de barras a su producto.
func (uc *ProductUseCase) GetByBarcode(ctx context.Context, barcode string) (*dto.ProductResponse, error) {
	if strings.TrimSpace(barcode) == "" {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.repo.GetByBarcode(ctx, strings.TrimSpace(barcode))
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return toProductResponse(product), nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Barcode:       p.Barcode,
		StockQuantity: p.StockQuantity,
		MinStock:      p.MinStock,
		BelowMinimum:  p.BelowMinimum(),
		Cost:          p.Cost,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
