// Package pdf genera el acta de opname (conteo físico) en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: ACTA DE OPNAME + N° sesión │ Estado + Fechas         │
//	│  OUTLET / NOTAS                                               │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Producto | Código | Sistema | Físico | Diferencia     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: ítems, coinciden, sobrantes, faltantes, neto        │
//	│  AJUSTES APLICADOS (solo si la sesión está completada)        │
//	│  FOOTER: QR con el número de sesión                           │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	appopname "github.com/jhoicas/opname-api/internal/application/opname"
	"github.com/jhoicas/opname-api/internal/domain/entity"
	domainopname "github.com/jhoicas/opname-api/internal/domain/opname"
)

var _ appopname.ReportGenerator = (*MarotoReportGenerator)(nil)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorLoss    = &props.Color{Red: 170, Green: 20, Blue: 20}
	colorGain    = &props.Color{Red: 20, Green: 120, Blue: 40}
)

// MarotoReportGenerator implementa opname.ReportGenerator usando Maroto v2.
type MarotoReportGenerator struct {
	company string
}

// NewMarotoReportGenerator construye el generador. company aparece como autor y en la cabecera.
func NewMarotoReportGenerator(company string) *MarotoReportGenerator {
	return &MarotoReportGenerator{company: company}
}

// GenerateOpnameReport genera el PDF y devuelve sus bytes.
func (g *MarotoReportGenerator) GenerateOpnameReport(_ context.Context, data appopname.ReportData) ([]byte, error) {
	if data.Session == nil {
		return nil, fmt.Errorf("pdf: sesión requerida")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Acta de opname "+data.Session.Number, true).
		WithAuthor(g.company, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(g.company, data.Session))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(scopeRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableRows(data.Lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(summaryRow(data.Summary))

	if len(data.Adjustments) > 0 {
		m.AddRows(adjustmentRows(data.Adjustments)...)
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(footerRow(data.Session))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(company string, s *entity.OpnameSession) core.Row {
	fechas := "Creada: " + s.CreatedAt.Format("02/01/2006 15:04")
	switch {
	case s.CompletedAt != nil:
		fechas += "   |   Completada: " + s.CompletedAt.Format("02/01/2006 15:04")
	case s.CancelledAt != nil:
		fechas += "   |   Cancelada: " + s.CancelledAt.Format("02/01/2006 15:04")
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(company, "Inventario"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("ACTA DE OPNAME (CONTEO FÍSICO)", props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(s.Number, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 1,
			}),
			text.New("Estado: "+statusLabel(s.Status), props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorPrimary,
			}),
			text.New(fechas, props.Text{
				Size: 7, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

func scopeRow(data appopname.ReportData) core.Row {
	outlet := "Todas las tiendas (stock agregado)"
	if data.Outlet != nil {
		outlet = fmt.Sprintf("%s - %s", data.Outlet.Code, data.Outlet.Name)
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("OUTLET", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(outlet, props.Text{Style: fontstyle.Bold, Size: 10, Top: 5}),
			text.New(fmt.Sprintf("Responsable: %s   |   Notas: %s",
				nonEmpty(data.Session.CreatedBy, "-"), nonEmpty(data.Session.Notes, "-"),
			), props.Text{Size: 8, Top: 10, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Producto", 5, align.Left),
		h("Código", 2, align.Left),
		h("Sistema", 1, align.Right),
		h("Físico", 2, align.Right),
		h("Diferencia", 2, align.Right),
	)
}

func tableRows(lines []appopname.ReportLine) []core.Row {
	if len(lines) == 0 {
		return []core.Row{row.New(7).Add(col.New(12).Add(
			text.New("Sin productos contados", props.Text{Size: 8, Align: align.Center, Top: 1, Color: colorGray}),
		))}
	}
	out := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		diffProps := props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1}
		switch {
		case l.Discrepancy < 0:
			diffProps.Color = colorLoss
			diffProps.Style = fontstyle.Bold
		case l.Discrepancy > 0:
			diffProps.Color = colorGain
			diffProps.Style = fontstyle.Bold
		}
		out = append(out, row.New(7).Add(
			col.New(5).Add(text.New(nonEmpty(l.ProductName, l.ProductID), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(nonEmpty(l.Barcode, "-"), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(1).Add(text.New(fmt.Sprintf("%d", l.SystemStock), props.Text{Size: 8, Align: align.Right, Top: 1})),
			col.New(2).Add(text.New(fmt.Sprintf("%d", l.ActualStock), props.Text{Size: 8, Align: align.Right, Top: 1})),
			col.New(2).Add(text.New(signed(l.Discrepancy), diffProps)),
		))
	}
	return out
}

func summaryRow(s domainopname.Summary) core.Row {
	label := func(v string) core.Component {
		return text.New(v, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(v string) core.Component {
		return text.New(v, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	return row.New(26).Add(
		col.New(6),
		col.New(3).Add(
			label("Ítems contados:"),
			label("Coinciden:"),
			label("Sobrantes:"),
			label("Faltantes:"),
			label("Diferencia neta:"),
		),
		col.New(3).Add(
			value(fmt.Sprintf("%d", s.ItemsCounted)),
			value(fmt.Sprintf("%d", s.Matched)),
			value(fmt.Sprintf("%d (+%d u.)", s.Gains, s.GainUnits)),
			value(fmt.Sprintf("%d (-%d u.)", s.Losses, s.LossUnits)),
			value(signed(s.NetDiscrepancy)),
		),
	)
}

func adjustmentRows(adjs []*entity.StockAdjustment) []core.Row {
	rows := []core.Row{
		row.New(8).Add(col.New(12).Add(text.New("AJUSTES APLICADOS", props.Text{
			Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 3,
		}))),
	}
	for _, a := range adjs {
		rows = append(rows, row.New(5).Add(
			col.New(6).Add(text.New(a.ProductID, props.Text{Size: 7, Top: 0.5, Color: colorGray})),
			col.New(3).Add(text.New(fmt.Sprintf("%d -> %d (%s)", a.PreviousStock, a.NewStock, signed(a.Adjustment)),
				props.Text{Size: 7, Align: align.Right, Top: 0.5})),
			col.New(3).Add(text.New(a.ValueImpact().StringFixed(2),
				props.Text{Size: 7, Align: align.Right, Top: 0.5})),
		))
	}
	rows = append(rows, row.New(6).Add(col.New(12).Add(text.New(
		"Impacto valorizado total: "+domainopname.ValueImpact(adjs).StringFixed(2),
		props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 1},
	))))
	return rows
}

func footerRow(s *entity.OpnameSession) core.Row {
	return row.New(30).Add(
		col.New(3).Add(code.NewQr(s.Number, props.Rect{Percent: 90, Center: true})),
		col.New(9).Add(
			text.New("Documento de respaldo del conteo físico.", props.Text{
				Size: 8, Top: 4, Left: 3, Color: colorGray,
			}),
			text.New("Sesión "+s.ID, props.Text{Size: 7, Top: 10, Left: 3, Color: colorGray}),
		),
	)
}

func statusLabel(s entity.SessionStatus) string {
	switch s {
	case entity.SessionInProgress:
		return "EN CURSO"
	case entity.SessionCompleted:
		return "COMPLETADA"
	case entity.SessionCancelled:
		return "CANCELADA"
	}
	return string(s)
}

func signed(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
