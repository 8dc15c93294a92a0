package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/opname-api/internal/application/dto"
	"github.com/jhoicas/opname-api/internal/application/stock"
	"github.com/jhoicas/opname-api/internal/domain"
)

// StockHandler expone el ledger de stock por outlet (protegido).
type StockHandler struct {
	uc *stock.LedgerUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *stock.LedgerUseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// GetOutletStock godoc
// @Summary      Stock de un producto en un outlet
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        outletId   path      string  true  "ID de outlet"
// @Param        productId  path      string  true  "ID de producto"
// @Success      200  {object}  dto.OutletStockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/outlets/{outletId}/stock/{productId} [get]
func (h *StockHandler) GetOutletStock(c *fiber.Ctx) error {
	outletID, productID := c.Params("outletId"), c.Params("productId")
	qty, err := h.uc.Get(c.Context(), outletID, productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.OutletStockResponse{OutletID: outletID, ProductID: productID, Quantity: qty})
}

// SetOutletStock godoc
// @Summary      Escribir cantidad absoluta
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        outletId   path  string               true  "ID de outlet"
// @Param        productId  path  string               true  "ID de producto"
// @Param        body       body  dto.SetStockRequest  true  "quantity >= 0"
// @Success      200  {object}  dto.OutletStockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/outlets/{outletId}/stock/{productId} [put]
func (h *StockHandler) SetOutletStock(c *fiber.Ctx) error {
	var in dto.SetStockRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.Quantity == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "quantity es requerido"})
	}
	outletID, productID := c.Params("outletId"), c.Params("productId")
	if err := h.uc.Set(c.Context(), outletID, productID, *in.Quantity); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.OutletStockResponse{OutletID: outletID, ProductID: productID, Quantity: *in.Quantity})
}

// AdjustOutletStock godoc
// @Summary      Ajustar stock por delta
// @Description  Rechaza con success=false (409) si el resultado sería negativo; el stock queda intacto.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        outletId   path  string                  true  "ID de outlet"
// @Param        productId  path  string                  true  "ID de producto"
// @Param        body       body  dto.AdjustStockRequest  true  "delta"
// @Success      200  {object}  dto.AdjustStockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.AdjustStockResponse
// @Router       /api/outlets/{outletId}/stock/{productId}/adjust [post]
func (h *StockHandler) AdjustOutletStock(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.Delta == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "delta es requerido"})
	}
	outletID, productID := c.Params("outletId"), c.Params("productId")
	res, err := h.uc.Adjust(c.Context(), outletID, productID, *in.Delta)
	if err != nil {
		var insufficient *domain.InsufficientStockError
		if errors.As(err, &insufficient) {
			return c.Status(fiber.StatusConflict).JSON(dto.AdjustStockResponse{
				Success:          false,
				OutletID:         outletID,
				ProductID:        productID,
				PreviousQuantity: insufficient.Current,
				NewQuantity:      insufficient.Current,
				Code:             "INSUFFICIENT_STOCK",
				Message:          err.Error(),
			})
		}
		return writeError(c, err)
	}
	return c.JSON(dto.AdjustStockResponse{
		Success:          true,
		OutletID:         res.OutletID,
		ProductID:        res.ProductID,
		PreviousQuantity: res.PreviousQuantity,
		NewQuantity:      res.NewQuantity,
	})
}

// InitializeProductStock godoc
// @Summary      Sembrar stock 0 en outlets activos
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de producto"
// @Success      200  {object}  dto.InitializeStockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/initialize-stock [post]
func (h *StockHandler) InitializeProductStock(c *fiber.Ctx) error {
	productID := c.Params("id")
	created, err := h.uc.InitializeProductStock(c.Context(), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.InitializeStockResponse{ProductID: productID, Created: created})
}

// ListProductStock godoc
// @Summary      Stock del producto por outlet
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de producto"
// @Success      200  {object}  dto.ProductStockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/stock [get]
func (h *StockHandler) ListProductStock(c *fiber.Ctx) error {
	productID := c.Params("id")
	list, err := h.uc.ListProductStock(c.Context(), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ProductStockResponse{ProductID: productID, Outlets: toOutletStockResponses(list)})
}
