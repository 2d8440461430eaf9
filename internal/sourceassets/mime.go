package sourceassets

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"mime"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/webp"

	"github.com/angelmondragon/genmedia-backend/pkg/enums"
)

type mimeGroup string

const (
	mimeGroupImages mimeGroup = "images"
	mimeGroupVideos mimeGroup = "videos"
)

var mimeGroupTypes = map[mimeGroup][]string{
	mimeGroupImages: {"image/png", "image/jpeg", "image/webp", "image/gif"},
	mimeGroupVideos: {"video/mp4", "video/webm", "video/quicktime"},
}

var extensionsByMime = map[string]string{
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/webp":      ".webp",
	"image/gif":       ".gif",
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
	"video/quicktime": ".mov",
}

func allowedGroups(assetType enums.AssetType) []mimeGroup {
	if assetType == enums.AssetTypeGenericVideo {
		return []mimeGroup{mimeGroupVideos}
	}
	return []mimeGroup{mimeGroupImages}
}

func allowedMimeTypes(assetType enums.AssetType) []string {
	var list []string
	for _, group := range allowedGroups(assetType) {
		list = append(list, mimeGroupTypes[group]...)
	}
	sort.Strings(list)
	return list
}

func allowedMimeDescription(assetType enums.AssetType) string {
	groups := allowedGroups(assetType)
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, string(g))
	}
	return strings.Join(names, " or ")
}

// detectMimeType prefers the sniffed content type and falls back to the
// declared header when sniffing is inconclusive.
func detectMimeType(data []byte, declared string) (string, error) {
	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	if sniffed != "" && sniffed != "application/octet-stream" && sniffed != "text/plain" {
		return strings.ToLower(sniffed), nil
	}
	clean := strings.TrimSpace(declared)
	if clean == "" {
		return "", fmt.Errorf("mime type required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", fmt.Errorf("mime type invalid: %w", err)
	}
	return strings.ToLower(mediaType), nil
}

func mimeAllowed(assetType enums.AssetType, mimeType string) bool {
	for _, candidate := range allowedMimeTypes(assetType) {
		if candidate == mimeType {
			return true
		}
	}
	return false
}

func extensionFor(mimeType, filename string) string {
	if ext, ok := extensionsByMime[mimeType]; ok {
		return ext
	}
	return strings.ToLower(filepath.Ext(filename))
}

var knownAspectRatios = []struct {
	label string
	value float64
}{
	{"1:1", 1},
	{"16:9", 16.0 / 9},
	{"9:16", 9.0 / 16},
	{"4:3", 4.0 / 3},
	{"3:4", 3.0 / 4},
}

const aspectRatioTolerance = 0.03

// aspectRatio returns the nearest supported ratio label for an image, or nil
// when the bytes are not a decodable image or no ratio is close enough.
func aspectRatio(data []byte) *string {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		return nil
	}
	actual := float64(cfg.Width) / float64(cfg.Height)
	for _, r := range knownAspectRatios {
		if math.Abs(actual-r.value)/r.value <= aspectRatioTolerance {
			label := r.label
			return &label
		}
	}
	return nil
}
