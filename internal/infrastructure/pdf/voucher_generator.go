// Package pdf genera el comprobante de retiro de una reserva.
//
// Layout de la página A5:
//
//	┌───────────────────────────────────────┐
//	│  RescueBox            Reserva N° / Fecha │
//	│  ───────────────────────────────────  │
//	│  Caja + precio con descuento            │
//	│  Tienda: nombre / dirección / horario   │
//	│  Cliente + franja horaria               │
//	│  ───────────────────────────────────  │
//	│  QR con el token de retiro + token      │
//	└───────────────────────────────────────┘
package pdf

import (
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

	"github.com/jhoicas/rescuebox-api/internal/application/reservation"
	"github.com/jhoicas/rescuebox-api/internal/domain/repository"
)

var _ reservation.VoucherRenderer = (*VoucherGenerator)(nil)

var (
	colorPrimary = &props.Color{Red: 34, Green: 120, Blue: 70}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// VoucherGenerator implementa reservation.VoucherRenderer usando Maroto v2.
type VoucherGenerator struct {
	appName string
}

// NewVoucherGenerator construye el generador. appName aparece en el encabezado.
func NewVoucherGenerator(appName string) *VoucherGenerator {
	if appName == "" {
		appName = "RescueBox"
	}
	return &VoucherGenerator{appName: appName}
}

// Render genera el PDF y devuelve sus bytes.
func (g *VoucherGenerator) Render(v repository.ReservationVoucher) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A5).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Comprobante de retiro", true).
		WithAuthor(g.appName, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(g.headerRow(v))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(boxRow(v), storeRow(v), customerRow(v))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(qrRows(v)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar comprobante: %w", err)
	}
	return doc.GetBytes(), nil
}

func (g *VoucherGenerator) headerRow(v repository.ReservationVoucher) core.Row {
	return row.New(16).Add(
		col.New(6).Add(
			text.New(g.appName, props.Text{Style: fontstyle.Bold, Size: 14, Color: colorPrimary, Top: 1}),
		),
		col.New(6).Add(
			text.New(fmt.Sprintf("Reserva N° %d", v.Reservation.ID), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 1,
			}),
			text.New("Fecha: "+v.Reservation.CreatedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

func boxRow(v repository.ReservationVoucher) core.Row {
	return row.New(14).Add(col.New(12).Add(
		text.New("CAJA", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
		text.New(fmt.Sprintf("%s   $%s", v.BoxName, formatMoney(v.DiscountPrice.StringFixed(0))), props.Text{
			Style: fontstyle.Bold, Size: 11, Top: 6,
		}),
	))
}

func storeRow(v repository.ReservationVoucher) core.Row {
	horario := "-"
	if v.StoreOpensAt != "" || v.StoreClosesAt != "" {
		horario = nonEmpty(v.StoreOpensAt, "?") + " - " + nonEmpty(v.StoreClosesAt, "?")
	}
	return row.New(16).Add(col.New(12).Add(
		text.New("TIENDA", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
		text.New(nonEmpty(v.StoreName, "-"), props.Text{Size: 10, Top: 6}),
		text.New(fmt.Sprintf("Dirección: %s   |   Horario: %s", nonEmpty(v.StoreAddress, "-"), horario), props.Text{
			Size: 8, Top: 11, Color: colorGray,
		}),
	))
}

func customerRow(v repository.ReservationVoucher) core.Row {
	return row.New(14).Add(col.New(12).Add(
		text.New("CLIENTE", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
		text.New(fmt.Sprintf("%s   |   Franja: %s   |   Estado: %s",
			nonEmpty(v.UserName, "-"), nonEmpty(v.Reservation.TimeSlot, "-"), v.Reservation.Status,
		), props.Text{Size: 9, Top: 6}),
	))
}

func qrRows(v repository.ReservationVoucher) []core.Row {
	return []core.Row{
		row.New(3),
		row.New(50).Add(
			col.New(5).Add(code.NewQr(v.Reservation.QRCode, props.Rect{Percent: 95, Center: true})),
			col.New(7).Add(
				text.New("Presenta este código en la tienda\npara retirar tu caja.", props.Text{
					Size: 9, Top: 6, Left: 3, Color: colorGray,
				}),
				text.New(v.Reservation.QRCode, props.Text{
					Style: fontstyle.Bold, Size: 7, Top: 24, Left: 3,
				}),
			),
		),
	}
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "-1500" → "-1.500"
func formatMoney(s string) string {
	sign := ""
	if len(s) > 0 && s[0] == '-' {
		sign, s = "-", s[1:]
	}
	n := len(s)
	if n <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf)
}
