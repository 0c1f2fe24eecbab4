package receipt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
)

// Format selects the archived representation.
type Format string

const (
	FormatText     Format = "txt"
	FormatHTML     Format = "html"
	FormatMetadata Format = "metadata"
)

// Archive persists receipts to a directory. Writes are atomic so a
// crash never leaves a truncated receipt on disk.
type Archive struct {
	dir string
}

// NewArchive ensures the directory exists and returns the archive.
func NewArchive(dir string) (*Archive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create receipt dir %s: %w", dir, err)
	}
	return &Archive{dir: dir}, nil
}

// Store writes the receipt under a name derived from the invoice and
// timestamp, and returns the full path.
func (a *Archive) Store(invoiceID string, r *Receipt, format Format) (string, error) {
	var content string
	switch format {
	case FormatHTML:
		content = r.HTML
	case FormatMetadata:
		content = r.ExportForDisplay(true)
	default:
		format = FormatText
		content = r.PlainText
	}

	ts := r.GeneratedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	name := fmt.Sprintf("%s-%s.%s", sanitize(invoiceID), ts.Format("20060102150405"), format)
	path := filepath.Join(a.dir, name)

	if err := renameio.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("archive receipt %s: %w", path, err)
	}
	return path, nil
}

func sanitize(s string) string {
	if s == "" {
		return "receipt"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
