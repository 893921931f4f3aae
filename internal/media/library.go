// Package media serves slide media stored on the display box and scales
// gallery images into cached thumbnails.
package media

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// ImageExtensions are the image types served and thumbnailed.
var ImageExtensions = []string{
	".jpg",
	".jpeg",
	".png",
	".gif",
	".webp",
}

// VideoExtensions are the video types served as-is.
var VideoExtensions = []string{
	".mp4",
	".webm",
	".mov",
}

var (
	// ErrNotFound is returned for paths that do not name a media file.
	ErrNotFound = errors.New("media not found")
	// ErrOutsideRoot is returned for paths escaping the media directory.
	ErrOutsideRoot = errors.New("media path outside media directory")
	// ErrUnsupported is returned for files with an unknown extension.
	ErrUnsupported = errors.New("unsupported media type")
)

// Library resolves file_path media sources against a local directory.
type Library struct {
	root   string
	thumbs *ThumbnailGenerator
}

// NewLibrary creates a library rooted at dir. Thumbnails are cached in cacheDir.
func NewLibrary(dir, cacheDir string) *Library {
	return &Library{
		root:   dir,
		thumbs: NewThumbnailGenerator(cacheDir),
	}
}

// Root returns the media directory.
func (l *Library) Root() string {
	return l.root
}

// Resolve returns the absolute path of the media file named by rel.
func (l *Library) Resolve(rel string) (string, error) {
	rel = strings.TrimLeft(filepath.ToSlash(rel), "/")
	if rel == "" || strings.HasPrefix(filepath.Base(rel), "._") {
		return "", ErrNotFound
	}

	rootAbs, err := filepath.Abs(l.root)
	if err != nil {
		return "", err
	}
	full, err := filepath.Abs(filepath.Join(rootAbs, filepath.FromSlash(rel)))
	if err != nil {
		return "", err
	}
	if full != rootAbs && !strings.HasPrefix(full, rootAbs+string(filepath.Separator)) {
		log.Debug().Str("path", rel).Str("root", rootAbs).Msg("Rejected media path outside root")
		return "", ErrOutsideRoot
	}

	if !IsImage(full) && !IsVideo(full) {
		return "", ErrUnsupported
	}
	if !fileExists(full) {
		return "", ErrNotFound
	}
	return full, nil
}

// Thumbnail returns the path of a cached thumbnail of rel no larger than size.
func (l *Library) Thumbnail(rel string, size int) (string, error) {
	full, err := l.Resolve(rel)
	if err != nil {
		return "", err
	}
	if !IsImage(full) {
		return "", ErrUnsupported
	}
	return l.thumbs.Generate(full, size)
}

// IsImage reports whether path has an image extension.
func IsImage(path string) bool {
	return hasExt(path, ImageExtensions)
}

// IsVideo reports whether path has a video extension.
func IsVideo(path string) bool {
	return hasExt(path, VideoExtensions)
}

func hasExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
