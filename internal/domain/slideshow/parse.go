package slideshow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Parse validates a record once and returns the normalized slideshow.
// It never fails because of slide content: bad payloads are kept so the
// fallback renderer can show them.
func Parse(rec *Record) *Slideshow {
	if rec == nil {
		return &Slideshow{Settings: defaultSettings(), IsActive: true}
	}

	show := &Slideshow{
		ID:       rec.ID,
		Name:     rec.Name,
		Settings: parseSettings(rec.Settings),
		IsActive: rec.Active(),
		Slides:   make([]Slide, 0, len(rec.Images)),
	}

	for _, problem := range rec.Problems() {
		log.Warn().Str("slideshow", rec.ID).Str("problem", problem).Msg("Record field dropped")
	}

	for i, rs := range rec.Images {
		show.Slides = append(show.Slides, parseSlide(i, rs))
	}

	log.Debug().
		Str("slideshow", show.ID).
		Int("slides", len(show.Slides)).
		Bool("music", show.Settings.HasMusic()).
		Msg("Slideshow parsed")

	return show
}

// ParseJSON decodes and parses a record in one step.
func ParseJSON(data []byte) (*Slideshow, error) {
	rec, err := DecodeRecord(data)
	if err != nil {
		return nil, err
	}
	return Parse(rec), nil
}

func defaultSettings() PlaybackSettings {
	return PlaybackSettings{
		BackgroundMusic: NoMusic,
		MusicVolume:     DefaultMusicVolume,
		MusicLoop:       DefaultMusicLoop,
		AutoPlay:        DefaultAutoPlay,
	}
}

func parseSettings(rs *RecordSettings) PlaybackSettings {
	s := defaultSettings()
	if rs == nil {
		return s
	}
	if rs.BackgroundMusic != nil {
		if track := strings.TrimSpace(*rs.BackgroundMusic); track != "" {
			s.BackgroundMusic = track
		}
	}
	if rs.MusicVolume != nil {
		s.MusicVolume = ClampVolume(int(math.Round(*rs.MusicVolume)))
	}
	if rs.MusicLoop != nil {
		s.MusicLoop = *rs.MusicLoop
	}
	if rs.AutoPlay != nil {
		s.AutoPlay = *rs.AutoPlay
	}
	return s
}

// ClampVolume bounds a volume to 0-100.
func ClampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// NormalizeDuration returns the effective slide duration for a declared
// millisecond value. Absent, non-positive or non-finite values become
// DefaultSlideDuration and values above MaxSlideDuration are capped; ok is
// false in both cases.
func NormalizeDuration(ms *float64) (d time.Duration, ok bool) {
	if ms == nil || math.IsNaN(*ms) || math.IsInf(*ms, 0) || *ms < 1 {
		return DefaultSlideDuration, false
	}
	if *ms > float64(MaxSlideDuration.Milliseconds()) {
		return MaxSlideDuration, false
	}
	return time.Duration(int64(*ms)) * time.Millisecond, true
}

func parseSlide(pos int, rs RecordSlide) Slide {
	if rs.decodeErr != nil {
		return Slide{
			ID:         fmt.Sprintf("slide-%d", pos),
			Type:       TypeMalformed,
			Duration:   DefaultSlideDuration,
			OrderIndex: pos,
			Content:    UnknownContent{payload: payload{raw: rs.raw, err: rs.decodeErr}, Declared: TypeMalformed},
			Notes:      []string{"slide entry could not be decoded"},
		}
	}

	slide := Slide{
		ID:         rs.ID,
		Type:       SlideType(strings.ToLower(strings.TrimSpace(rs.Type))),
		Title:      rs.Title,
		Subtitle:   rs.Subtitle,
		OrderIndex: pos,
		Notes:      append([]string(nil), rs.problems...),
	}
	if slide.ID == "" {
		slide.ID = fmt.Sprintf("slide-%d", pos)
		slide.Notes = append(slide.Notes, "missing id, generated from position")
	}
	if slide.Type == "" {
		// The sequence field is named "images"; untyped entries are images.
		slide.Type = TypeImage
		slide.Notes = append(slide.Notes, "missing type, treated as image")
	}
	if rs.OrderIndex != nil {
		slide.OrderIndex = *rs.OrderIndex
		if *rs.OrderIndex != pos {
			slide.Notes = append(slide.Notes, fmt.Sprintf("orderIndex %d ignored, array position %d used", *rs.OrderIndex, pos))
		}
	}
	if rs.Styling != nil {
		slide.Styling = *rs.Styling
	}

	var ok bool
	slide.Duration, ok = NormalizeDuration(rs.Duration)
	if !ok {
		slide.Notes = append(slide.Notes, fmt.Sprintf("duration set to %dms", slide.Duration.Milliseconds()))
	}

	slide.Content = parseContent(slide.Type, rs.Content)
	return slide
}

type textWire struct {
	Text  string `json:"text"`
	Body  string `json:"body"`
	Align string `json:"align"`
}

type imageWire struct {
	MediaSources
	Caption string `json:"caption"`
	Fit     string `json:"fit"`
}

type videoWire struct {
	URL      string `json:"url"`
	FilePath string `json:"file_path"`
	Poster   string `json:"poster"`
	Muted    *bool  `json:"muted"`
	Loop     bool   `json:"loop"`
}

type propertyWire struct {
	Property *struct {
		Address     flexString   `json:"address"`
		City        flexString   `json:"city"`
		Price       flexString   `json:"price"`
		Bedrooms    flexString   `json:"bedrooms"`
		Bathrooms   flexString   `json:"bathrooms"`
		SquareFeet  flexString   `json:"square_feet"`
		Status      flexString   `json:"status"`
		Description flexString   `json:"description"`
		Features    []flexString `json:"features"`
		Images      []string     `json:"images"`
		AgentName   flexString   `json:"agent_name"`
		AgentPhone  flexString   `json:"agent_phone"`
	} `json:"property"`
}

func parseContent(t SlideType, raw json.RawMessage) Content {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = nil
	}
	decode := func(v any) error {
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, v); err != nil {
			return fmt.Errorf("malformed %s content: %w", t, err)
		}
		return nil
	}

	switch t {
	case TypeText:
		var w textWire
		err := decode(&w)
		body := w.Text
		if body == "" {
			body = w.Body
		}
		return TextContent{payload: payload{raw: raw, err: err}, Body: body, Align: w.Align}

	case TypeImage:
		var w imageWire
		err := decode(&w)
		return ImageContent{payload: payload{raw: raw, err: err}, Sources: w.MediaSources, Caption: w.Caption, Fit: w.Fit}

	case TypeVideo:
		var w videoWire
		err := decode(&w)
		muted := true // Background music owns the audio channel by default
		if w.Muted != nil {
			muted = *w.Muted
		}
		return VideoContent{
			payload:  payload{raw: raw, err: err},
			URL:      w.URL,
			FilePath: w.FilePath,
			Poster:   w.Poster,
			Muted:    muted,
			Loop:     w.Loop,
		}

	case TypePropertyListing:
		var w propertyWire
		err := decode(&w)
		c := PropertyListingContent{payload: payload{raw: raw, err: err}}
		if err == nil && w.Property != nil {
			p := w.Property
			c.Property = &Property{
				Address:     string(p.Address),
				City:        string(p.City),
				Price:       string(p.Price),
				Bedrooms:    string(p.Bedrooms),
				Bathrooms:   string(p.Bathrooms),
				SquareFeet:  string(p.SquareFeet),
				Status:      string(p.Status),
				Description: string(p.Description),
				Images:      compactStrings(p.Images),
				AgentName:   string(p.AgentName),
				AgentPhone:  string(p.AgentPhone),
			}
			for _, f := range p.Features {
				if s := strings.TrimSpace(string(f)); s != "" {
					c.Property.Features = append(c.Property.Features, s)
				}
			}
		}
		return c
	}

	return UnknownContent{payload: payload{raw: raw}, Declared: t}
}

func compactStrings(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
