package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/rescuebox-api/internal/domain"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseOptionalDate acepta fecha o fecha-hora (formulario HTML, ISO). "" = sin fecha.
// Sin zona explícita se interpreta en UTC.
func parseOptionalDate(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s con formato de fecha inválido", domain.ErrInvalidInput, field)
}
