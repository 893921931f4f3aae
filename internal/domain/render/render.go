// Package render turns normalized slides into view descriptors for the display.
//
// Render never fails: a slide that lacks the minimum payload for its type is
// rendered as a diagnostic view carrying the raw payload, so one bad slide
// never stops the presentation loop.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-signage/internal/domain/slideshow"
)

// Kind identifies how the display draws a view.
type Kind string

const (
	KindText            Kind = "text"
	KindImage           Kind = "image"
	KindVideo           Kind = "video"
	KindPropertyListing Kind = "property-listing"
	KindDiagnostic      Kind = "diagnostic"
)

// SourcePlaceholder marks a media source swapped for the neutral placeholder.
const SourcePlaceholder slideshow.SourceKind = "placeholder"

// PlaceholderImage is served in place of media that failed to load.
const PlaceholderImage = "/assets/placeholder.svg"

// View is the render output for one slide.
type View struct {
	SlideID  string            `json:"slideId"`
	Kind     Kind              `json:"kind"`
	Title    string            `json:"title,omitempty"`
	Subtitle string            `json:"subtitle,omitempty"`
	Styling  slideshow.Styling `json:"styling"`

	Text       *TextView     `json:"text,omitempty"`
	Image      *ImageView    `json:"image,omitempty"`
	Video      *VideoView    `json:"video,omitempty"`
	Property   *PropertyView `json:"property,omitempty"`
	Diagnostic *Diagnostic   `json:"diagnostic,omitempty"`

	// GalleryIndex is the image currently shown by the slide's cycler.
	GalleryIndex int `json:"galleryIndex"`
	// MediaFailed is set once the display reported a load error.
	MediaFailed bool `json:"mediaFailed,omitempty"`
}

// TextView is a text slide body.
type TextView struct {
	Body  string `json:"body"`
	Align string `json:"align,omitempty"`
}

// ImageView is a single image with its resolved source.
type ImageView struct {
	Source  slideshow.Source `json:"source"`
	Caption string           `json:"caption,omitempty"`
	Fit     string           `json:"fit,omitempty"`
}

// VideoView is a video with its resolved source.
type VideoView struct {
	Source slideshow.Source `json:"source"`
	Poster string           `json:"poster,omitempty"`
	Muted  bool             `json:"muted"`
	Loop   bool             `json:"loop"`
}

// PropertyView is a property listing card.
type PropertyView struct {
	slideshow.Property
}

// Diagnostic is shown instead of a slide that cannot be rendered.
type Diagnostic struct {
	Message   string          `json:"message"`
	SlideType string          `json:"slideType"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// GalleryLen returns the number of images the slide cycles through.
func (v View) GalleryLen() int {
	if v.Property == nil {
		return 0
	}
	return len(v.Property.Images)
}

// Render builds the view for a slide.
func Render(slide slideshow.Slide) (v View) {
	base := View{
		SlideID:  slide.ID,
		Title:    slide.Title,
		Subtitle: slide.Subtitle,
		Styling:  slide.Styling,
	}

	defer func() {
		if r := recover(); r != nil {
			v = diagnostic(base, slide, fmt.Sprintf("render failed: %v", r))
		}
	}()

	content := slide.Content
	if content == nil {
		return diagnostic(base, slide, "slide has no content")
	}
	if err := content.ParseError(); err != nil {
		return diagnostic(base, slide, err.Error())
	}

	switch c := content.(type) {
	case slideshow.TextContent:
		if strings.TrimSpace(c.Body) == "" && strings.TrimSpace(slide.Title) == "" {
			return diagnostic(base, slide, "text slide has neither a title nor a body")
		}
		base.Kind = KindText
		base.Text = &TextView{Body: c.Body, Align: c.Align}
		return base

	case slideshow.ImageContent:
		src, ok := c.ResolveImage()
		if !ok {
			return diagnostic(base, slide, "image slide has no usable source (tried "+joinKinds(slideshow.ImageSourcePrecedence)+")")
		}
		base.Kind = KindImage
		base.Image = &ImageView{Source: src, Caption: c.Caption, Fit: c.Fit}
		return base

	case slideshow.VideoContent:
		src, ok := c.ResolveVideo()
		if !ok {
			return diagnostic(base, slide, "video slide has no usable source (tried "+joinKinds(slideshow.VideoSourcePrecedence)+")")
		}
		base.Kind = KindVideo
		base.Video = &VideoView{Source: src, Poster: c.Poster, Muted: c.Muted, Loop: c.Loop}
		return base

	case slideshow.PropertyListingContent:
		if c.Property == nil {
			return diagnostic(base, slide, "Property data not found")
		}
		base.Kind = KindPropertyListing
		base.Property = &PropertyView{Property: *c.Property}
		base.Property.Images = append([]string(nil), c.Property.Images...)
		return base
	}

	return diagnostic(base, slide, fmt.Sprintf("unsupported slide type %q", content.Type()))
}

// WithPlaceholder returns v with every media source swapped for the neutral
// placeholder. Views without media are returned unchanged.
func WithPlaceholder(v View) View {
	placeholder := slideshow.Source{Kind: SourcePlaceholder, Value: PlaceholderImage}

	switch {
	case v.Image != nil:
		img := *v.Image
		img.Source = placeholder
		v.Image = &img
	case v.Video != nil:
		vid := *v.Video
		vid.Source = placeholder
		v.Video = &vid
	case v.Property != nil:
		p := *v.Property
		p.Images = []string{PlaceholderImage}
		v.Property = &p
		v.GalleryIndex = 0
	default:
		return v
	}
	v.MediaFailed = true
	return v
}

func diagnostic(base View, slide slideshow.Slide, msg string) View {
	log.Warn().
		Str("slideId", slide.ID).
		Str("type", string(slide.Type)).
		Str("reason", msg).
		Msg("Rendering diagnostic view")

	var raw json.RawMessage
	if slide.Content != nil {
		raw = slide.Content.Raw()
	}
	base.Kind = KindDiagnostic
	base.Diagnostic = &Diagnostic{
		Message:   msg,
		SlideType: string(slide.Type),
		Payload:   raw,
	}
	return base
}

func joinKinds(kinds []slideshow.SourceKind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}
