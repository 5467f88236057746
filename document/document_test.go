package document

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// buildPDF writes a minimal PDF with one Helvetica text line per page.
func buildPDF(pages ...string) []byte {
	var objs []string
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objs = append(objs,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
	for i, text := range pages {
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, obj := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%EOF\n", len(objs)+1, xref)
	return b.Bytes()
}

func TestExtractor_PlainText(t *testing.T) {
	e := NewExtractor()
	assert.Equal(t, "Tender for cloud hosting", e.ExtractText(context.Background(), []byte("  Tender for cloud hosting\n")))
}

func TestExtractor_EmptyAndBinary(t *testing.T) {
	e := NewExtractor()
	assert.Empty(t, e.ExtractText(context.Background(), nil))
	assert.Empty(t, e.ExtractText(context.Background(), []byte{0xff, 0xfe, 0x00, 0x01}))
	assert.Empty(t, e.ExtractText(context.Background(), []byte("   ")))
}

func TestExtractor_PDF(t *testing.T) {
	e := NewExtractor()
	assert.Equal(t, "Cloud hosting required", e.ExtractText(context.Background(), buildPDF("Cloud hosting required")))
}

func TestExtractor_MultiPagePDF(t *testing.T) {
	doc := buildPDF("Scope of work", "Evaluation criteria")

	assert.Equal(t, "Scope of work\n\nEvaluation criteria", NewExtractor().ExtractText(context.Background(), doc))

	limited := NewExtractor(func(o *Options) { o.MaxPages = 1 })
	assert.Equal(t, "Scope of work", limited.ExtractText(context.Background(), doc))
}

func TestExtractor_MalformedPDF(t *testing.T) {
	e := NewExtractor()
	assert.Empty(t, e.ExtractText(context.Background(), []byte("%PDF-1.4\nthis is not really a pdf")))
}

func TestExtractor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, NewExtractor().ExtractText(ctx, []byte("text")))
}
