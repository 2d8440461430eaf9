package validators

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/docker/go-units"

	pkgerrors "github.com/angelmondragon/genmedia-backend/pkg/errors"
)

// multipartOverhead leaves room for form fields next to the file part.
const multipartOverhead = 1 << 20

// UploadedFile is a fully read multipart file part.
type UploadedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ParseMultipartUpload reads the named file field, refusing bodies larger
// than maxBytes. Form values stay available through r.FormValue.
func ParseMultipartUpload(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (*UploadedFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, tooLargeError(maxBytes)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body")
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required").
			WithDetails(map[string]string{field: "is required"})
	}
	defer file.Close()

	if header.Size > maxBytes {
		return nil, tooLargeError(maxBytes)
	}
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	if int64(len(data)) > maxBytes {
		return nil, tooLargeError(maxBytes)
	}

	return &UploadedFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// FormString returns a trimmed form value, or nil when absent.
func FormString(r *http.Request, key string) *string {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return nil
	}
	return &v
}

func tooLargeError(maxBytes int64) error {
	return pkgerrors.New(pkgerrors.CodeTooLarge, fmt.Sprintf("file exceeds %s", units.HumanSize(float64(maxBytes))))
}
