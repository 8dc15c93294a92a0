package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateSessionRequest body para POST /api/opname/sessions.
type CreateSessionRequest struct {
	OutletID string `json:"outlet_id,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// RecordCountRequest body para POST /api/opname/sessions/{id}/counts. Se acepta product_id o barcode.
type RecordCountRequest struct {
	ProductID   string `json:"product_id,omitempty"`
	Barcode     string `json:"barcode,omitempty"`
	ActualStock *int   `json:"actual_stock"`
}

// SessionResponse salida de una sesión de opname.
type SessionResponse struct {
	ID          string     `json:"id"`
	Number      string     `json:"number"`
	OutletID    *string    `json:"outlet_id"`
	Status      string     `json:"status"`
	Notes       string     `json:"notes,omitempty"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// CountItemResponse salida de un ítem contado.
type CountItemResponse struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	SystemStock int       `json:"system_stock"`
	ActualStock int       `json:"actual_stock"`
	Discrepancy int       `json:"discrepancy"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SummaryResponse resumen de discrepancias de la sesión.
type SummaryResponse struct {
	ItemsCounted   int `json:"items_counted"`
	Matched        int `json:"matched"`
	Gains          int `json:"gains"`
	Losses         int `json:"losses"`
	GainUnits      int `json:"gain_units"`
	LossUnits      int `json:"loss_units"`
	NetDiscrepancy int `json:"net_discrepancy"`
}

// SessionDetailResponse sesión con ítems y resumen.
type SessionDetailResponse struct {
	Session SessionResponse     `json:"session"`
	Items   []CountItemResponse `json:"items"`
	Summary SummaryResponse     `json:"summary"`
}

// SessionListResponse lista paginada de sesiones.
type SessionListResponse struct {
	Items []SessionResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// AdjustmentResponse entrada del log de ajustes.
type AdjustmentResponse struct {
	ID            string          `json:"id"`
	SessionID     string          `json:"session_id"`
	ProductID     string          `json:"product_id"`
	OutletID      *string         `json:"outlet_id"`
	PreviousStock int             `json:"previous_stock"`
	NewStock      int             `json:"new_stock"`
	Adjustment    int             `json:"adjustment"`
	ObservedStock int             `json:"observed_stock"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	ValueImpact   decimal.Decimal `json:"value_impact"`
	Reason        string          `json:"reason"`
	CreatedBy     string          `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

// DriftResponse producto cuyo stock cambió durante el conteo.
type DriftResponse struct {
	ProductID string `json:"product_id"`
	Baseline  int    `json:"baseline"`
	Observed  int    `json:"observed"`
}

// CompleteSessionResponse resultado del cierre.
type CompleteSessionResponse struct {
	Session     SessionResponse      `json:"session"`
	Adjustments []AdjustmentResponse `json:"adjustments"`
	Drifts      []DriftResponse      `json:"drifts"`
}
