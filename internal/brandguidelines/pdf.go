package brandguidelines

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pageCount parses data as a PDF and returns its page count.
func pageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("read pdf: %w", err)
	}
	return n, nil
}

// splitPDF cuts data into page ranges so that each part is roughly at most
// chunkBytes. A document already under the limit comes back whole.
func splitPDF(data []byte, chunkBytes int64) ([][]byte, error) {
	pages, err := pageCount(data)
	if err != nil {
		return nil, err
	}
	size := int64(len(data))
	if chunkBytes <= 0 || size <= chunkBytes || pages <= 1 {
		return [][]byte{data}, nil
	}

	chunks := int((size + chunkBytes - 1) / chunkBytes)
	span := (pages + chunks - 1) / chunks

	spans, err := api.SplitRaw(bytes.NewReader(data), span, model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("split pdf: %w", err)
	}
	out := make([][]byte, 0, len(spans))
	for _, s := range spans {
		part, err := io.ReadAll(s.Reader)
		if err != nil {
			return nil, fmt.Errorf("read pages %d-%d: %w", s.From, s.Thru, err)
		}
		out = append(out, part)
	}
	return out, nil
}
