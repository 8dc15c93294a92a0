package opname

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/opname-api/internal/domain/entity"
	domainopname "github.com/jhoicas/opname-api/internal/domain/opname"
)

// ErrReportUnavailable indica que no hay generador de actas configurado.
var ErrReportUnavailable = errors.New("generador de acta de opname no configurado")

// ReportLine fila del acta: un ítem contado con el nombre del producto resuelto.
type ReportLine struct {
	ProductID   string
	ProductName string
	Barcode     string
	SystemStock int
	ActualStock int
	Discrepancy int
}

// ReportData datos necesarios para renderizar el acta de una sesión.
type ReportData struct {
	Session     *entity.OpnameSession
	Outlet      *entity.Outlet // nil si la sesión no tiene outlet
	Lines       []ReportLine
	Summary     domainopname.Summary
	Adjustments []*entity.StockAdjustment
}

// ReportGenerator puerto para generar el acta de opname (PDF).
type ReportGenerator interface {
	GenerateOpnameReport(ctx context.Context, data ReportData) ([]byte, error)
}

// Report arma los datos de la sesión y delega el render al generador. Disponible en cualquier estado.
func (uc *UseCase) Report(ctx context.Context, sessionID string) ([]byte, error) {
	if uc.report == nil {
		return nil, ErrReportUnavailable
	}
	detail, err := uc.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	data := ReportData{Session: detail.Session, Summary: detail.Summary}
	if detail.Session.OutletScoped() {
		o, err := uc.outlets.GetByID(ctx, *detail.Session.OutletID)
		if err != nil {
			return nil, err
		}
		data.Outlet = o
	}
	for _, it := range detail.Items {
		line := ReportLine{
			ProductID:   it.ProductID,
			SystemStock: it.SystemStock,
			ActualStock: it.ActualStock,
			Discrepancy: it.Discrepancy(),
		}
		p, err := uc.reads.Products.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if p != nil {
			line.ProductName = p.Name
			line.Barcode = p.Barcode
		}
		data.Lines = append(data.Lines, line)
	}
	if detail.Session.Status == entity.SessionCompleted {
		data.Adjustments, err = uc.reads.Adjustments.ListBySession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
	}
	doc, err := uc.report.GenerateOpnameReport(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("acta de opname %s: %w", detail.Session.Number, err)
	}
	return doc, nil
}
