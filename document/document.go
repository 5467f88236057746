// Package document extracts plain text from uploaded tender documents.
package document

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hupe1980/tendermesh/core"
	"github.com/hupe1980/tendermesh/logging"
	"github.com/ledongthuc/pdf"
)

var _ core.TextExtractor = (*Extractor)(nil)

var pdfMagic = []byte("%PDF-")

// Options configures an Extractor.
type Options struct {
	Logger logging.Logger
	// MaxPages bounds the number of PDF pages read; 0 reads all pages.
	MaxPages int
}

// Extractor reads PDF documents and passes plain UTF-8 text through.
// Anything else yields an empty string.
type Extractor struct {
	opts Options
}

// NewExtractor creates an Extractor.
func NewExtractor(optFns ...func(o *Options)) *Extractor {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Extractor{opts: opts}
}

// ExtractText implements core.TextExtractor.
func (e *Extractor) ExtractText(ctx context.Context, data []byte) string {
	if len(data) == 0 || ctx.Err() != nil {
		return ""
	}
	if bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), pdfMagic) {
		text, err := e.extractPDF(ctx, data)
		if err != nil {
			e.opts.Logger.Warn("PDF text extraction failed", "bytes", len(data), "error", err)
			return ""
		}
		return text
	}
	if utf8.Valid(data) && !bytes.ContainsRune(data, 0) {
		return strings.TrimSpace(string(data))
	}
	e.opts.Logger.Warn("Unsupported document format", "bytes", len(data))
	return ""
}

func (e *Extractor) extractPDF(ctx context.Context, data []byte) (text string, err error) {
	// The PDF library panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	pages := r.NumPage()
	if e.opts.MaxPages > 0 && pages > e.opts.MaxPages {
		pages = e.opts.MaxPages
	}

	var b strings.Builder
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageText, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		if s := strings.TrimSpace(pageText); s != "" {
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(s)
		}
	}
	e.opts.Logger.Debug("PDF text extracted", "pages", pages, "chars", b.Len())
	return b.String(), nil
}
