package brandguidelines

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalPDF renders a structurally valid document of empty pages, padded
// with a comment so tests can push it over a chunk threshold.
func minimalPDF(pages, padding int) []byte {
	var buf bytes.Buffer
	offsets := make([]int, 0, pages+2)
	buf.WriteString("%PDF-1.4\n")
	if padding > 0 {
		buf.WriteString("%" + strings.Repeat("x", padding) + "\n")
	}

	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>", strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		obj("<< /Type /Page /Parent 2 0 R /Resources << >> >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func TestSplitPDFKeepsSmallDocumentsWhole(t *testing.T) {
	t.Parallel()

	doc := minimalPDF(3, 0)
	parts, err := splitPDF(doc, int64(len(doc)))
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, doc, parts[0])
}

func TestSplitPDFCutsLargeDocumentsByPageRange(t *testing.T) {
	t.Parallel()

	doc := minimalPDF(4, 2000)
	parts, err := splitPDF(doc, int64(len(doc)/2+1))
	require.NoError(t, err)
	require.Len(t, parts, 2)

	total := 0
	for _, p := range parts {
		n, err := pageCount(p)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		total += n
	}
	assert.Equal(t, 4, total)
}

func TestSplitPDFRejectsNonPDF(t *testing.T) {
	t.Parallel()

	_, err := splitPDF([]byte("%PDF-1.4 but not really"), 10)
	require.Error(t, err)
}
