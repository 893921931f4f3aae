package slideshow

import "strings"

// SourceKind names one of the fields an image can be loaded from.
type SourceKind string

const (
	// SourceInline is inline image data (the "base64" field).
	SourceInline SourceKind = "base64"
	// SourceURL is a remote URL (the "url" field).
	SourceURL SourceKind = "url"
	// SourceStoragePath is a path relative to the storage bucket (the "file_path" field).
	SourceStoragePath SourceKind = "file_path"
	// SourceFallbackImage is the named fallback field (the "image_url" field).
	SourceFallbackImage SourceKind = "image_url"
)

// ImageSourcePrecedence is the order in which image fields are tried.
// The first non-empty field wins.
var ImageSourcePrecedence = []SourceKind{
	SourceInline,
	SourceURL,
	SourceStoragePath,
	SourceFallbackImage,
}

// VideoSourcePrecedence is the order in which video fields are tried.
var VideoSourcePrecedence = []SourceKind{
	SourceURL,
	SourceStoragePath,
}

// MediaSources holds every candidate location of one image.
type MediaSources struct {
	Base64   string `json:"base64,omitempty"`
	URL      string `json:"url,omitempty"`
	FilePath string `json:"file_path,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// Source is a resolved media location.
type Source struct {
	Kind  SourceKind `json:"kind"`
	Value string     `json:"value"`
}

// Field returns the value stored for kind.
func (m MediaSources) Field(kind SourceKind) string {
	switch kind {
	case SourceInline:
		return m.Base64
	case SourceURL:
		return m.URL
	case SourceStoragePath:
		return m.FilePath
	case SourceFallbackImage:
		return m.ImageURL
	}
	return ""
}

// Empty reports whether no field is set.
func (m MediaSources) Empty() bool {
	_, ok := m.Resolve(ImageSourcePrecedence)
	return !ok
}

// Resolve returns the first non-blank field in the given order.
func (m MediaSources) Resolve(order []SourceKind) (Source, bool) {
	for _, kind := range order {
		v := strings.TrimSpace(m.Field(kind))
		if v == "" {
			continue
		}
		if kind == SourceInline && !strings.HasPrefix(v, "data:") {
			v = "data:image/*;base64," + v
		}
		return Source{Kind: kind, Value: v}, true
	}
	return Source{}, false
}

// ResolveImage resolves the image using ImageSourcePrecedence.
func (c ImageContent) ResolveImage() (Source, bool) {
	return c.Sources.Resolve(ImageSourcePrecedence)
}

// ResolveVideo resolves the video using VideoSourcePrecedence.
func (c VideoContent) ResolveVideo() (Source, bool) {
	m := MediaSources{URL: c.URL, FilePath: c.FilePath}
	return m.Resolve(VideoSourcePrecedence)
}
