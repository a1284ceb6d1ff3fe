package pdftext

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/ParadoxTwo/energy-bill-reader/internal/core/domain"
)

// Extractor pulls plain text out of stored PDF bills, page by page.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// ExtractText concatenates the text of every page with a newline
// separator. A page that cannot be read contributes an empty string;
// one bad page must never sink the whole document. A missing file is
// fatal.
func (e *Extractor) ExtractText(_ context.Context, path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", domain.WrapError(domain.ErrInvalidInput, "open pdf", fmt.Errorf("no file at %s", path))
		}
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	parts := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		parts = append(parts, pageText(reader, i))
	}
	return strings.Join(parts, "\n"), nil
}

func pageText(reader *pdf.Reader, number int) (text string) {
	// The pdf library panics on some malformed page content streams.
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	page := reader.Page(number)
	if page.V.IsNull() {
		return ""
	}
	content, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return content
}
