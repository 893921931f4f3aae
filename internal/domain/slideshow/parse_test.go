package slideshow_test

import (
	"errors"
	"testing"
	"time"

	"github.com/edumarques81/stellar-signage/internal/domain/slideshow"
)

const sampleRecord = `{
	"id": "show-1",
	"name": "Lobby",
	"images": [
		{"id": "a", "type": "image", "duration": 2000, "content": {"url": "https://cdn.example.com/a.jpg"}, "styling": {"animation": "zoom"}},
		{"id": "b", "type": "text", "title": "Welcome", "content": {"text": "Hello"}},
		{"id": "c", "type": "property-listing", "duration": -5, "content": {}},
		{"id": "d", "type": "property-listing", "content": {"property": {"address": "1 Main St", "price": 450000, "bedrooms": 3, "images": ["p1.jpg", " ", "p2.jpg"]}}},
		{"id": "e", "type": "carousel", "content": {"foo": 1}},
		{"id": "f", "type": "video", "content": "not an object"}
	],
	"settings": {"backgroundMusic": "https://cdn.example.com/loop.mp3", "musicVolume": 140}
}`

func TestParseJSON(t *testing.T) {
	show, err := slideshow.ParseJSON([]byte(sampleRecord))
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}

	if show.ID != "show-1" || show.Name != "Lobby" {
		t.Errorf("unexpected identity %q/%q", show.ID, show.Name)
	}
	if show.Len() != 6 {
		t.Fatalf("expected 6 slides, got %d", show.Len())
	}
	if !show.IsActive {
		t.Error("expected record without isActive to be active")
	}

	if show.Settings.MusicVolume != 100 {
		t.Errorf("expected volume clamped to 100, got %d", show.Settings.MusicVolume)
	}
	if !show.Settings.MusicLoop {
		t.Error("expected musicLoop to default to true")
	}
	if !show.Settings.AutoPlay {
		t.Error("expected autoPlay to default to true")
	}
	if !show.Settings.HasMusic() {
		t.Error("expected music to be configured")
	}
}

func TestParseDurations(t *testing.T) {
	show, err := slideshow.ParseJSON([]byte(sampleRecord))
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}

	tests := []struct {
		index    int
		expected time.Duration
	}{
		{0, 2000 * time.Millisecond},
		{1, slideshow.DefaultSlideDuration},
		{2, slideshow.DefaultSlideDuration},
	}
	for _, tt := range tests {
		if got := show.Slides[tt.index].Duration; got != tt.expected {
			t.Errorf("slide %d: expected %v, got %v", tt.index, tt.expected, got)
		}
	}
}

func TestNormalizeDuration(t *testing.T) {
	ms := func(v float64) *float64 { return &v }

	tests := []struct {
		name     string
		in       *float64
		expected time.Duration
		declared bool
	}{
		{"absent", nil, 5000 * time.Millisecond, false},
		{"zero", ms(0), 5000 * time.Millisecond, false},
		{"negative", ms(-100), 5000 * time.Millisecond, false},
		{"fraction below one", ms(0.4), 5000 * time.Millisecond, false},
		{"positive", ms(3000), 3000 * time.Millisecond, true},
		{"fractional", ms(1500.9), 1500 * time.Millisecond, true},
		{"exactly max", ms(86400000), 24 * time.Hour, true},
		{"above int64 nanoseconds", ms(1e13), slideshow.MaxSlideDuration, false},
		{"above int64 milliseconds", ms(1e19), slideshow.MaxSlideDuration, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, declared := slideshow.NormalizeDuration(tt.in)
			if got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
			if declared != tt.declared {
				t.Errorf("expected declared=%v, got %v", tt.declared, declared)
			}
		})
	}
}

func TestParseContentVariants(t *testing.T) {
	show, err := slideshow.ParseJSON([]byte(sampleRecord))
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}

	img, ok := show.Slides[0].Content.(slideshow.ImageContent)
	if !ok {
		t.Fatalf("expected ImageContent, got %T", show.Slides[0].Content)
	}
	if img.Sources.URL != "https://cdn.example.com/a.jpg" {
		t.Errorf("unexpected image url %q", img.Sources.URL)
	}

	text, ok := show.Slides[1].Content.(slideshow.TextContent)
	if !ok || text.Body != "Hello" {
		t.Errorf("expected text body Hello, got %#v", show.Slides[1].Content)
	}

	missing, ok := show.Slides[2].Content.(slideshow.PropertyListingContent)
	if !ok {
		t.Fatalf("expected PropertyListingContent, got %T", show.Slides[2].Content)
	}
	if missing.Property != nil {
		t.Error("expected nil property when content.property is absent")
	}

	listing := show.Slides[3].Content.(slideshow.PropertyListingContent)
	if listing.Property == nil {
		t.Fatal("expected property to be parsed")
	}
	if listing.Property.Price != "450000" || listing.Property.Bedrooms != "3" {
		t.Errorf("expected numeric fields as strings, got price=%q bedrooms=%q", listing.Property.Price, listing.Property.Bedrooms)
	}
	if got := listing.Gallery(); len(got) != 2 {
		t.Errorf("expected blank gallery entries dropped, got %v", got)
	}

	unknown, ok := show.Slides[4].Content.(slideshow.UnknownContent)
	if !ok {
		t.Fatalf("expected UnknownContent, got %T", show.Slides[4].Content)
	}
	if unknown.Type() != "carousel" {
		t.Errorf("expected declared type carousel, got %q", unknown.Type())
	}

	video := show.Slides[5].Content.(slideshow.VideoContent)
	if video.ParseError() == nil {
		t.Error("expected malformed video payload to carry a parse error")
	}
}

func TestParseMistypedFields(t *testing.T) {
	show, err := slideshow.ParseJSON([]byte(`{"id":"x",
		"settings":{"musicVolume":"70","musicLoop":"false","autoPlay":{}},
		"images":[
			{"id":"styled","type":"text","styling":{"fontSize":24,"textColor":["red"]},"content":{"text":"hi"}},
			{"id":"good","type":"image","duration":"3000","orderIndex":"1","content":{"url":"b.jpg"}},
			{"id":"bad-duration","type":"text","duration":{"ms":1},"content":{"text":"x"}}
		]}`))
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}
	if len(show.Slides) != 3 {
		t.Fatalf("expected 3 slides, got %d", len(show.Slides))
	}

	if show.Settings.MusicVolume != 70 {
		t.Errorf("expected volume 70, got %d", show.Settings.MusicVolume)
	}
	if show.Settings.MusicLoop {
		t.Error("expected string \"false\" to disable looping")
	}
	if show.Settings.AutoPlay != slideshow.DefaultAutoPlay {
		t.Error("expected undecodable autoPlay to keep the default")
	}

	styled := show.Slides[0]
	if styled.Styling.FontSize != "24" {
		t.Errorf("expected numeric fontSize kept as 24, got %q", styled.Styling.FontSize)
	}
	if styled.Styling.TextColor != "" {
		t.Errorf("expected array textColor dropped, got %q", styled.Styling.TextColor)
	}
	if len(styled.Notes) == 0 {
		t.Error("expected a note about the dropped styling field")
	}
	if _, ok := styled.Content.(slideshow.TextContent); !ok {
		t.Errorf("expected text content, got %T", styled.Content)
	}

	good := show.Slides[1]
	if good.Duration != 3000*time.Millisecond {
		t.Errorf("expected string duration to be used, got %v", good.Duration)
	}
	if good.OrderIndex != 1 {
		t.Errorf("expected orderIndex 1, got %d", good.OrderIndex)
	}
	if img, ok := good.Content.(slideshow.ImageContent); !ok || img.ParseError() != nil {
		t.Errorf("expected clean image content, got %#v", good.Content)
	}

	if show.Slides[2].Duration != slideshow.DefaultSlideDuration {
		t.Errorf("expected object duration to default, got %v", show.Slides[2].Duration)
	}
}

func TestParseNonObjectSlide(t *testing.T) {
	show, err := slideshow.ParseJSON([]byte(`{"id":"x","images":[42,{"id":"ok","type":"text","content":{"text":"hi"}}]}`))
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}
	if len(show.Slides) != 2 {
		t.Fatalf("expected 2 slides, got %d", len(show.Slides))
	}

	bad := show.Slides[0]
	if bad.Type != slideshow.TypeMalformed {
		t.Errorf("expected malformed type, got %q", bad.Type)
	}
	if bad.Content == nil || bad.Content.ParseError() == nil {
		t.Fatal("expected malformed slide to carry a parse error")
	}
	if string(bad.Content.Raw()) != "42" {
		t.Errorf("expected raw payload 42, got %s", bad.Content.Raw())
	}
	if bad.Duration != slideshow.DefaultSlideDuration {
		t.Errorf("expected default duration, got %v", bad.Duration)
	}
	if show.Slides[1].ID != "ok" {
		t.Errorf("expected following slide to survive, got %q", show.Slides[1].ID)
	}
}

func TestRecordEncodeKeepsMalformedSlide(t *testing.T) {
	rec, err := slideshow.DecodeRecord([]byte(`{"id":"x","images":["junk",{"id":"a","duration":"2000"}]}`))
	if err != nil {
		t.Fatalf("DecodeRecord failed: %v", err)
	}
	data, err := rec.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	again, err := slideshow.DecodeRecord(data)
	if err != nil {
		t.Fatalf("DecodeRecord of encoded record failed: %v", err)
	}
	show := slideshow.Parse(again)
	if show.Slides[0].Type != slideshow.TypeMalformed {
		t.Errorf("expected malformed slide to survive encoding, got %q", show.Slides[0].Type)
	}
	if show.Slides[1].Duration != 2000*time.Millisecond {
		t.Errorf("expected coerced duration to survive encoding, got %v", show.Slides[1].Duration)
	}
}

func TestParseArrayOrderWins(t *testing.T) {
	show, err := slideshow.ParseJSON([]byte(`{"id":"x","images":[
		{"id":"second","type":"text","orderIndex":1},
		{"id":"first","type":"text","orderIndex":0}
	]}`))
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}
	if show.Slides[0].ID != "second" || show.Slides[1].ID != "first" {
		t.Errorf("expected array order to be kept, got %s,%s", show.Slides[0].ID, show.Slides[1].ID)
	}
	if len(show.Slides[0].Notes) == 0 {
		t.Error("expected a note about the ignored orderIndex")
	}
}

func TestParseUntypedSlideIsImage(t *testing.T) {
	show, err := slideshow.ParseJSON([]byte(`{"id":"x","images":[{"content":{"url":"a.jpg"}}]}`))
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}
	if show.Slides[0].Type != slideshow.TypeImage {
		t.Errorf("expected untyped slide to be image, got %q", show.Slides[0].Type)
	}
	if show.Slides[0].ID == "" {
		t.Error("expected generated id")
	}
}

func TestParseEmptyRecord(t *testing.T) {
	show, err := slideshow.ParseJSON([]byte(`{"id":"empty"}`))
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}
	if !show.Empty() {
		t.Error("expected empty slideshow")
	}
	if show.Settings.BackgroundMusic != slideshow.NoMusic {
		t.Errorf("expected default music %q, got %q", slideshow.NoMusic, show.Settings.BackgroundMusic)
	}
	if show.Settings.MusicVolume != slideshow.DefaultMusicVolume {
		t.Errorf("expected default volume, got %d", show.Settings.MusicVolume)
	}
}

func TestParseInactive(t *testing.T) {
	show, err := slideshow.ParseJSON([]byte(`{"id":"x","isActive":false}`))
	if err != nil {
		t.Fatalf("ParseJSON failed: %v", err)
	}
	if show.IsActive {
		t.Error("expected inactive slideshow")
	}
}

func TestParseJSONInvalid(t *testing.T) {
	_, err := slideshow.ParseJSON([]byte(`{"id": `))
	if err == nil {
		t.Fatal("expected error for truncated JSON")
	}
	if !errors.Is(err, slideshow.ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestParseJSONNotObject(t *testing.T) {
	_, err := slideshow.ParseJSON([]byte(`[1,2]`))
	if !errors.Is(err, slideshow.ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestParseNilRecord(t *testing.T) {
	show := slideshow.Parse(nil)
	if !show.Empty() {
		t.Error("expected nil record to parse as empty slideshow")
	}
}
