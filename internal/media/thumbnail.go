package media

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif" // GIF decoder
	"image/jpeg"
	_ "image/png" // PNG decoder
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decoder
)

// Thumbnail edge bounds in pixels.
const (
	MinThumbSize     = 32
	MaxThumbSize     = 1920
	DefaultThumbSize = 300
)

// ThumbnailGenerator creates JPEG thumbnails and caches them on disk.
type ThumbnailGenerator struct {
	cacheDir string
	mu       sync.Mutex // Serializes generation so one source is decoded once
}

// NewThumbnailGenerator creates a generator caching under cacheDir/thumbs.
func NewThumbnailGenerator(cacheDir string) *ThumbnailGenerator {
	return &ThumbnailGenerator{cacheDir: cacheDir}
}

// ClampSize bounds size to [MinThumbSize, MaxThumbSize]; zero means DefaultThumbSize.
func ClampSize(size int) int {
	switch {
	case size == 0:
		return DefaultThumbSize
	case size < MinThumbSize:
		return MinThumbSize
	case size > MaxThumbSize:
		return MaxThumbSize
	}
	return size
}

// Generate returns the cached thumbnail path for source, creating it if the
// cache is missing or older than source.
func (g *ThumbnailGenerator) Generate(source string, size int) (string, error) {
	size = ClampSize(size)

	info, err := os.Stat(source)
	if err != nil {
		return "", fmt.Errorf("failed to stat source image: %w", err)
	}

	thumbDir := filepath.Join(g.cacheDir, "thumbs")
	sum := sha1.Sum([]byte(source))
	thumbPath := filepath.Join(thumbDir, fmt.Sprintf("%s_%d.jpg", hex.EncodeToString(sum[:]), size))

	g.mu.Lock()
	defer g.mu.Unlock()

	if cached, err := os.Stat(thumbPath); err == nil && !cached.ModTime().Before(info.ModTime()) {
		return thumbPath, nil
	}

	if err := os.MkdirAll(thumbDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create thumbnail directory: %w", err)
	}

	src, err := os.Open(source)
	if err != nil {
		return "", fmt.Errorf("failed to open source image: %w", err)
	}
	defer src.Close()

	img, format, err := image.Decode(src)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	log.Debug().
		Str("source", source).
		Str("format", format).
		Int("size", size).
		Msg("Generating thumbnail")

	thumb := resize(img, size)

	tmp := thumbPath + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to create thumbnail file: %w", err)
	}
	if err := jpeg.Encode(out, thumb, &jpeg.Options{Quality: 85}); err != nil {
		out.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write thumbnail: %w", err)
	}
	if err := os.Rename(tmp, thumbPath); err != nil {
		return "", fmt.Errorf("failed to store thumbnail: %w", err)
	}
	return thumbPath, nil
}

// resize scales src to fit within maxSize, keeping the aspect ratio.
// Images already small enough are copied unscaled.
func resize(src image.Image, maxSize int) image.Image {
	bounds := src.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	newW, newH := srcW, srcH
	if srcW > maxSize || srcH > maxSize {
		if srcW > srcH {
			newW = maxSize
			newH = int(float64(srcH) * float64(maxSize) / float64(srcW))
		} else {
			newH = maxSize
			newW = int(float64(srcW) * float64(maxSize) / float64(srcH))
		}
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
