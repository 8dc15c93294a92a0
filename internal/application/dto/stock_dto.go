package dto

import "time"

// OutletStockResponse cantidad de un producto en un outlet.
type OutletStockResponse struct {
	OutletID  string     `json:"outlet_id"`
	ProductID string     `json:"product_id"`
	Quantity  int        `json:"quantity"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// SetStockRequest body para escribir una cantidad absoluta.
type SetStockRequest struct {
	Quantity *int `json:"quantity"`
}

// AdjustStockRequest body para POST /api/outlets/{outletId}/stock/{productId}/adjust.
type AdjustStockRequest struct {
	Delta *int `json:"delta"`
}

// AdjustStockResponse resultado explícito del ajuste: success=false cuando se rechaza por stock insuficiente.
type AdjustStockResponse struct {
	Success          bool   `json:"success"`
	OutletID         string `json:"outlet_id"`
	ProductID        string `json:"product_id"`
	PreviousQuantity int    `json:"previous_quantity"`
	NewQuantity      int    `json:"new_quantity"`
	Code             string `json:"code,omitempty"`
	Message          string `json:"message,omitempty"`
}

// InitializeStockResponse resultado de sembrar líneas base en 0.
type InitializeStockResponse struct {
	ProductID string `json:"product_id"`
	Created   int    `json:"created"`
}

// ProductStockResponse stock del producto por outlet.
type ProductStockResponse struct {
	ProductID string                `json:"product_id"`
	Outlets   []OutletStockResponse `json:"outlets"`
}
