// Package storage guarda las fotos de productos en disco local.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/rescuebox-api/internal/application/usecase"
)

var _ usecase.PhotoStorage = (*LocalStorage)(nil)

// PublicPrefix ruta pública bajo la que se sirven los archivos.
const PublicPrefix = "/uploads/"

// LocalStorage escribe archivos en un directorio y devuelve "/uploads/<nombre>".
type LocalStorage struct {
	dir string
	now func() time.Time
}

// NewLocalStorage crea el directorio si no existe.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: crear directorio %s: %w", dir, err)
	}
	return &LocalStorage{dir: dir, now: time.Now}, nil
}

// Dir directorio raíz de los archivos.
func (s *LocalStorage) Dir() string { return s.dir }

// Save escribe el contenido con un nombre único "<unix ms>-<8 hex>-<nombre saneado>".
func (s *LocalStorage) Save(ctx context.Context, filename string, content io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%d-%s-%s", s.now().UnixMilli(), uuid.NewString()[:8], SanitizeFilename(filename))
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("storage: crear archivo: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("storage: escribir archivo: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("storage: cerrar archivo: %w", err)
	}
	return PublicPrefix + name, nil
}

// SanitizeFilename quita directorios y tildes y deja solo [a-z0-9._-].
// "../Foto Niño.JPG" -> "foto-nino.jpg"
func SanitizeFilename(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, base)
	if err != nil {
		plain = base
	}

	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(plain) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
			lastDash = false
		case !lastDash && b.Len() > 0:
			b.WriteByte('-')
			lastDash = true
		}
	}
	out := strings.Trim(b.String(), "-.")
	if out == "" {
		return "archivo"
	}
	return out
}
