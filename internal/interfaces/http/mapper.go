package http

import (
	"github.com/jhoicas/opname-api/internal/application/dto"
	"github.com/jhoicas/opname-api/internal/application/opname"
	"github.com/jhoicas/opname-api/internal/domain/entity"
	domainopname "github.com/jhoicas/opname-api/internal/domain/opname"
)

func toSessionResponse(s *entity.OpnameSession) dto.SessionResponse {
	return dto.SessionResponse{
		ID:          s.ID,
		Number:      s.Number,
		OutletID:    s.OutletID,
		Status:      string(s.Status),
		Notes:       s.Notes,
		CreatedBy:   s.CreatedBy,
		CreatedAt:   s.CreatedAt,
		CompletedAt: s.CompletedAt,
		CancelledAt: s.CancelledAt,
	}
}

func toCountItemResponse(it *entity.CountItem) dto.CountItemResponse {
	return dto.CountItemResponse{
		ID:          it.ID,
		ProductID:   it.ProductID,
		SystemStock: it.SystemStock,
		ActualStock: it.ActualStock,
		Discrepancy: it.Discrepancy(),
		UpdatedAt:   it.UpdatedAt,
	}
}

func toSummaryResponse(s domainopname.Summary) dto.SummaryResponse {
	return dto.SummaryResponse{
		ItemsCounted:   s.ItemsCounted,
		Matched:        s.Matched,
		Gains:          s.Gains,
		Losses:         s.Losses,
		GainUnits:      s.GainUnits,
		LossUnits:      s.LossUnits,
		NetDiscrepancy: s.NetDiscrepancy,
	}
}

func toAdjustmentResponses(adjs []*entity.StockAdjustment) []dto.AdjustmentResponse {
	out := make([]dto.AdjustmentResponse, 0, len(adjs))
	for _, a := range adjs {
		out = append(out, dto.AdjustmentResponse{
			ID:            a.ID,
			SessionID:     a.SessionID,
			ProductID:     a.ProductID,
			OutletID:      a.OutletID,
			PreviousStock: a.PreviousStock,
			NewStock:      a.NewStock,
			Adjustment:    a.Adjustment,
			ObservedStock: a.ObservedStock,
			UnitCost:      a.UnitCost,
			ValueImpact:   a.ValueImpact(),
			Reason:        a.Reason,
			CreatedBy:     a.CreatedBy,
			CreatedAt:     a.CreatedAt,
		})
	}
	return out
}

func toCompleteResponse(r *opname.CompletionResult) dto.CompleteSessionResponse {
	drifts := make([]dto.DriftResponse, 0, len(r.Drifts))
	for _, d := range r.Drifts {
		drifts = append(drifts, dto.DriftResponse{ProductID: d.ProductID, Baseline: d.Baseline, Observed: d.Observed})
	}
	return dto.CompleteSessionResponse{
		Session:     toSessionResponse(r.Session),
		Adjustments: toAdjustmentResponses(r.Adjustments),
		Drifts:      drifts,
	}
}

func toOutletStockResponses(list []*entity.OutletStock) []dto.OutletStockResponse {
	out := make([]dto.OutletStockResponse, 0, len(list))
	for _, s := range list {
		updated := s.UpdatedAt
		out = append(out, dto.OutletStockResponse{
			OutletID:  s.OutletID,
			ProductID: s.ProductID,
			Quantity:  s.Quantity,
			UpdatedAt: &updated,
		})
	}
	return out
}
