package recipe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	apperrors "recipecatalog/internal/errors"
)

// ImportResult describes a completed bulk import.
type ImportResult struct {
	Imported int    `json:"imported"`
	Source   string `json:"source"`
}

// Importer loads a bulk JSON document, normalizes its records and writes
// them in one transaction.
type Importer struct {
	store Store
	path  string
}

// NewImporter creates an Importer that reads from path by default.
func NewImporter(store Store, path string) *Importer {
	return &Importer{store: store, path: path}
}

// Source returns the configured input file.
func (im *Importer) Source() string {
	return im.path
}

// ImportFile imports the configured source file.
func (im *Importer) ImportFile(ctx context.Context) (*ImportResult, error) {
	source := filepath.Base(im.path)
	records, err := LoadFile(im.path)
	if err != nil {
		if errors.Is(err, ErrMalformedInput) {
			return nil, apperrors.WrapWithContext(apperrors.ErrCodeInvalidRequest, "malformed import source", err,
				map[string]any{"source": source})
		}
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeInternal, "failed to open import source", err,
			map[string]any{"source": im.path})
	}
	return im.write(ctx, records, source)
}

// Import imports the document read from r. Malformed documents yield an
// ErrCodeInvalidRequest error and leave the table untouched; storage failures
// yield ErrCodeInternal.
func (im *Importer) Import(ctx context.Context, r io.Reader, source string) (*ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to read import source", err)
	}

	records, err := ParseRecords(data)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeInvalidRequest, "malformed import source", err,
			map[string]any{"source": source})
	}
	return im.write(ctx, records, source)
}

func (im *Importer) write(ctx context.Context, records []RawRecord, source string) (*ImportResult, error) {
	n, err := im.store.Import(ctx, NormalizeAll(records))
	if err != nil {
		code := apperrors.ErrCodeInternal
		if errors.Is(err, context.DeadlineExceeded) {
			code = apperrors.ErrCodeTimeout
		}
		return nil, apperrors.WrapWithContext(code, "import failed", err,
			map[string]any{"source": source, "records": len(records)})
	}

	slog.Info("recipes imported", "source", source, "count", n)
	return &ImportResult{Imported: n, Source: source}, nil
}

// String implements fmt.Stringer for log lines.
func (r ImportResult) String() string {
	return fmt.Sprintf("%d recipes from %s", r.Imported, r.Source)
}
