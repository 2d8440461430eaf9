// Package thumbnail renders preview PNGs for generated images and videos.
package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/draw"

	"github.com/angelmondragon/genmedia-backend/pkg/config"
)

const (
	defaultWidth   = 480
	ffmpegTimeout  = 2 * time.Minute
	frameFileName  = "frame.png"
	videoFileName  = "source"
	tempDirPattern = "genmedia-thumb-*"
)

// ErrUnsupported is returned for media types without a thumbnail strategy.
var ErrUnsupported = errors.New("unsupported media type for thumbnail")

// Generator is safe for concurrent use; every video gets its own temp dir.
type Generator struct {
	ffmpegPath string
	tempDir    string
	width      int
	timeout    time.Duration
}

func New(cfg config.MediaConfig) *Generator {
	width := cfg.ThumbnailWidth
	if width <= 0 {
		width = defaultWidth
	}
	ffmpeg := cfg.FFmpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	return &Generator{
		ffmpegPath: ffmpeg,
		tempDir:    cfg.TempDir,
		width:      width,
		timeout:    ffmpegTimeout,
	}
}

// Generate returns a PNG thumbnail for data of the given mime type.
func (g *Generator) Generate(ctx context.Context, data []byte, mimeType string) ([]byte, error) {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return g.FromImage(data)
	case strings.HasPrefix(mimeType, "video/"):
		return g.FromVideo(ctx, data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, mimeType)
	}
}

// FromImage downscales a PNG or JPEG to the configured width.
func (g *Generator) FromImage(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return encodePNG(scaleToWidth(src, g.width))
}

// FromVideo extracts the first frame with ffmpeg and downscales it.
func (g *Generator) FromVideo(ctx context.Context, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("video is empty")
	}
	dir, err := os.MkdirTemp(g.tempDir, tempDirPattern)
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	in := filepath.Join(dir, videoFileName)
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, fmt.Errorf("write video: %w", err)
	}
	out := filepath.Join(dir, frameFileName)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, g.ffmpegPath, "-y", "-loglevel", "error", "-i", in, "-frames:v", "1", out)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg first frame failed: %w; out=%s", err, strings.TrimSpace(string(output)))
	}

	frame, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("frame output missing: %w", err)
	}
	return g.FromImage(frame)
}

func scaleToWidth(src image.Image, width int) image.Image {
	b := src.Bounds()
	if b.Dx() <= width {
		return src
	}
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
