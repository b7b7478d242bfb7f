// Package pricing contiene las reglas puras de precio y vigencia de las cajas.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/rescuebox-api/internal/domain/entity"
)

// FlashDuration vigencia de una caja flash desde su publicación.
const FlashDuration = 4 * time.Hour

// NormalPrice suma precio unitario × cantidad de cada línea.
// Una cantidad no positiva cuenta como 1.
func NormalPrice(lines []entity.BoxLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		qty := l.Quantity
		if qty <= 0 {
			qty = 1
		}
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(qty))))
	}
	return total
}

// PickupWindow calcula la ventana de retiro de una caja nueva.
// El fin es: now+FlashDuration si es flash; si no, la fecha de vencimiento;
// si no, la fecha de consumo más próxima de sus productos; si no, sin fin.
func PickupWindow(now time.Time, isFlash bool, expiresAt *time.Time, consumeDates []time.Time) (start time.Time, end *time.Time) {
	start = now
	switch {
	case isFlash:
		e := now.Add(FlashDuration)
		end = &e
	case expiresAt != nil:
		e := *expiresAt
		end = &e
	case len(consumeDates) > 0:
		e := consumeDates[0]
		for _, d := range consumeDates[1:] {
			if d.Before(e) {
				e = d
			}
		}
		end = &e
	}
	return start, end
}
