// Package slideshow provides the normalized slide content model consumed by the player.
package slideshow

import (
	"encoding/json"
	"time"
)

// DefaultSlideDuration is used when a slide declares no positive duration.
const DefaultSlideDuration = 5000 * time.Millisecond

// MaxSlideDuration caps a declared slide duration.
const MaxSlideDuration = 24 * time.Hour

// NoMusic is the sentinel track reference meaning "no background audio".
const NoMusic = "none"

// Default playback settings.
const (
	DefaultMusicVolume = 50
	DefaultMusicLoop   = true
	DefaultAutoPlay    = true
)

// SlideType identifies the kind of content a slide carries.
// The set is open: unknown types are kept and rendered by the fallback renderer.
type SlideType string

const (
	// TypeText is a text-only slide.
	TypeText SlideType = "text"
	// TypeImage is a single image slide.
	TypeImage SlideType = "image"
	// TypeVideo is a video slide.
	TypeVideo SlideType = "video"
	// TypePropertyListing is a real-estate listing with its own photo gallery.
	TypePropertyListing SlideType = "property-listing"
	// TypeMalformed marks a slide entry that is not a JSON object.
	TypeMalformed SlideType = "malformed"
)

// Known reports whether the type has a dedicated renderer.
func (t SlideType) Known() bool {
	switch t {
	case TypeText, TypeImage, TypeVideo, TypePropertyListing:
		return true
	}
	return false
}

// Slideshow is a parsed, validated slideshow ready for playback.
type Slideshow struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Slides   []Slide          `json:"slides"` // Array order is playback order
	Settings PlaybackSettings `json:"settings"`
	IsActive bool             `json:"isActive"`
}

// Len returns the number of slides.
func (s *Slideshow) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Slides)
}

// Empty reports whether there is nothing to play.
func (s *Slideshow) Empty() bool {
	return s.Len() == 0
}

// PlaybackSettings controls background audio and initial play state.
type PlaybackSettings struct {
	BackgroundMusic string `json:"backgroundMusic"` // URL/identifier or NoMusic
	MusicVolume     int    `json:"musicVolume"`     // 0-100
	MusicLoop       bool   `json:"musicLoop"`
	AutoPlay        bool   `json:"autoPlay"`
}

// HasMusic reports whether a background track is configured.
func (p PlaybackSettings) HasMusic() bool {
	return p.BackgroundMusic != "" && p.BackgroundMusic != NoMusic
}

// Styling holds per-slide visual settings.
type Styling struct {
	BackgroundColor string `json:"backgroundColor,omitempty"`
	TextColor       string `json:"textColor,omitempty"`
	FontSize        string `json:"fontSize,omitempty"`
	Animation       string `json:"animation,omitempty"` // Transition profile name
}

// Slide is one normalized slide.
type Slide struct {
	ID         string        `json:"id"`
	Type       SlideType     `json:"type"`
	Title      string        `json:"title,omitempty"`
	Subtitle   string        `json:"subtitle,omitempty"`
	Content    Content       `json:"-"`
	Styling    Styling       `json:"styling"`
	Duration   time.Duration `json:"-"` // Always positive after Parse
	OrderIndex int           `json:"orderIndex"`

	// Notes lists normalizations applied while parsing (defaulted duration, etc.).
	Notes []string `json:"notes,omitempty"`
}

// DurationMs returns the effective duration in milliseconds.
func (s Slide) DurationMs() int64 {
	return s.Duration.Milliseconds()
}

// Content is the type-specific payload of a slide. Exactly one variant exists
// per SlideType; unknown types carry UnknownContent.
type Content interface {
	// Type returns the slide type this payload belongs to.
	Type() SlideType
	// Raw returns the payload exactly as received, for diagnostics.
	Raw() json.RawMessage
	// ParseError returns the decode error if the payload was malformed.
	ParseError() error
}

type payload struct {
	raw json.RawMessage
	err error
}

func (p payload) Raw() json.RawMessage { return p.raw }
func (p payload) ParseError() error    { return p.err }

// TextContent is the payload of a text slide.
type TextContent struct {
	payload
	Body  string
	Align string
}

func (TextContent) Type() SlideType { return TypeText }

// ImageContent is the payload of an image slide.
type ImageContent struct {
	payload
	Sources MediaSources
	Caption string
	Fit     string
}

func (ImageContent) Type() SlideType { return TypeImage }

// VideoContent is the payload of a video slide.
type VideoContent struct {
	payload
	URL      string
	FilePath string
	Poster   string
	Muted    bool
	Loop     bool
}

func (VideoContent) Type() SlideType { return TypeVideo }

// PropertyListingContent is the payload of a property-listing slide.
// Property is nil when the record carried no content.property.
type PropertyListingContent struct {
	payload
	Property *Property
}

func (PropertyListingContent) Type() SlideType { return TypePropertyListing }

// Gallery returns the listing's photo URLs, or nil when there is no property.
func (c PropertyListingContent) Gallery() []string {
	if c.Property == nil {
		return nil
	}
	return c.Property.Images
}

// Property describes a listed property.
type Property struct {
	Address     string   `json:"address"`
	City        string   `json:"city,omitempty"`
	Price       string   `json:"price,omitempty"`
	Bedrooms    string   `json:"bedrooms,omitempty"`
	Bathrooms   string   `json:"bathrooms,omitempty"`
	SquareFeet  string   `json:"squareFeet,omitempty"`
	Status      string   `json:"status,omitempty"`
	Description string   `json:"description,omitempty"`
	Features    []string `json:"features,omitempty"`
	Images      []string `json:"images,omitempty"`
	AgentName   string   `json:"agentName,omitempty"`
	AgentPhone  string   `json:"agentPhone,omitempty"`
}

// UnknownContent is the payload of a slide whose type has no renderer.
type UnknownContent struct {
	payload
	Declared SlideType
}

func (c UnknownContent) Type() SlideType { return c.Declared }
