package enums

import "strings"

// MimeType is the declared content type of a generated or uploaded media object.
type MimeType string

const (
	MimeTypePNG  MimeType = "image/png"
	MimeTypeJPEG MimeType = "image/jpeg"
	MimeTypeMP4  MimeType = "video/mp4"
)

var validMimeTypes = []MimeType{
	MimeTypePNG,
	MimeTypeJPEG,
	MimeTypeMP4,
}

func (m MimeType) String() string {
	return string(m)
}

func (m MimeType) IsValid() bool {
	return contains(validMimeTypes, m)
}

func (m MimeType) IsImage() bool {
	return strings.HasPrefix(string(m), "image/")
}

func (m MimeType) IsVideo() bool {
	return strings.HasPrefix(string(m), "video/")
}

// Extension returns the file extension used for stored objects of this type.
func (m MimeType) Extension() string {
	switch m {
	case MimeTypePNG:
		return ".png"
	case MimeTypeJPEG:
		return ".jpg"
	case MimeTypeMP4:
		return ".mp4"
	default:
		return ""
	}
}

// ParseMimeType converts raw input into a MimeType.
func ParseMimeType(value string) (MimeType, error) {
	return parse(validMimeTypes, value, "mime type")
}
