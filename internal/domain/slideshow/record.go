package slideshow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is a slideshow as delivered by the persistence collaborator.
// Every field may be missing; Parse normalizes it into a Slideshow.
//
// Decoding is lenient below the top level: a field with the wrong JSON
// type is coerced when possible and dropped otherwise, and a slide entry
// that is not an object is kept so it can be shown as a diagnostic.
type Record struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Images   []RecordSlide   `json:"images"` // The slide sequence, despite the name
	Settings *RecordSettings `json:"settings,omitempty"`
	IsActive *bool           `json:"isActive,omitempty"`

	problems []string
}

// Active reports the record's activation flag. Records without the flag are active.
func (r *Record) Active() bool {
	return r.IsActive == nil || *r.IsActive
}

// Problems lists the fields that were dropped while decoding the record
// and its settings block.
func (r *Record) Problems() []string {
	out := append([]string(nil), r.problems...)
	if r.Settings != nil {
		out = append(out, r.Settings.problems...)
	}
	return out
}

func (r *Record) UnmarshalJSON(data []byte) error {
	d, err := newFieldDecoder(data)
	if err != nil {
		return err
	}
	*r = Record{
		ID:       d.str("id"),
		Name:     d.str("name"),
		IsActive: d.boolean("isActive"),
	}
	if raw, ok := d.raw("images"); ok {
		if err := json.Unmarshal(raw, &r.Images); err != nil {
			d.drop("images", err)
		}
	}
	if raw, ok := d.raw("settings"); ok {
		var rs RecordSettings
		if err := json.Unmarshal(raw, &rs); err != nil {
			d.drop("settings", err)
		} else {
			r.Settings = &rs
		}
	}
	r.problems = d.problems
	return nil
}

// RecordSettings is the optional settings block of a Record.
type RecordSettings struct {
	BackgroundMusic *string  `json:"backgroundMusic,omitempty"`
	MusicVolume     *float64 `json:"musicVolume,omitempty"`
	MusicLoop       *bool    `json:"musicLoop,omitempty"`
	AutoPlay        *bool    `json:"autoPlay,omitempty"`

	problems []string
}

func (s *RecordSettings) UnmarshalJSON(data []byte) error {
	d, err := newFieldDecoder(data)
	if err != nil {
		return err
	}
	*s = RecordSettings{
		BackgroundMusic: d.optStr("backgroundMusic"),
		MusicVolume:     d.num("musicVolume"),
		MusicLoop:       d.boolean("musicLoop"),
		AutoPlay:        d.boolean("autoPlay"),
	}
	s.problems = d.problems
	return nil
}

// RecordSlide is one slide as stored.
type RecordSlide struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Title      string          `json:"title,omitempty"`
	Subtitle   string          `json:"subtitle,omitempty"`
	Content    json.RawMessage `json:"content,omitempty"`
	Styling    *Styling        `json:"styling,omitempty"`
	Duration   *float64        `json:"duration,omitempty"` // Milliseconds
	OrderIndex *int            `json:"orderIndex,omitempty"`

	// Set when the entry is not a JSON object at all.
	raw       json.RawMessage
	decodeErr error
	problems  []string
}

func (s *RecordSlide) UnmarshalJSON(data []byte) error {
	d, err := newFieldDecoder(data)
	if err != nil {
		*s = RecordSlide{raw: append(json.RawMessage(nil), data...), decodeErr: err}
		return nil
	}
	*s = RecordSlide{
		ID:         d.str("id"),
		Type:       d.str("type"),
		Title:      d.str("title"),
		Subtitle:   d.str("subtitle"),
		Styling:    d.styling("styling"),
		Duration:   d.num("duration"),
		OrderIndex: d.integer("orderIndex"),
	}
	if raw, ok := d.raw("content"); ok {
		s.Content = append(json.RawMessage(nil), raw...)
	}
	s.problems = d.problems
	return nil
}

func (s RecordSlide) MarshalJSON() ([]byte, error) {
	if s.decodeErr != nil {
		return s.raw, nil
	}
	type plain RecordSlide
	return json.Marshal(plain(s))
}

// DecodeRecord decodes a JSON record. Only input that is not a JSON
// object is rejected.
func DecodeRecord(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &InvalidRecordError{Err: err}
	}
	return &rec, nil
}

// Encode returns the JSON form of the record.
func (r *Record) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// fieldDecoder reads an object one field at a time, collecting a problem
// for every field it has to drop.
type fieldDecoder struct {
	fields   map[string]json.RawMessage
	problems []string
}

func newFieldDecoder(data []byte) (*fieldDecoder, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("expected a JSON object, got %s", preview(trimmed))
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, err
	}
	return &fieldDecoder{fields: fields}, nil
}

func (d *fieldDecoder) raw(key string) (json.RawMessage, bool) {
	v, ok := d.fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil, false
	}
	return v, true
}

func (d *fieldDecoder) drop(key string, err error) {
	d.problems = append(d.problems, fmt.Sprintf("field %s ignored: %v", key, err))
}

func (d *fieldDecoder) optStr(key string) *string {
	raw, ok := d.raw(key)
	if !ok {
		return nil
	}
	var f flexString
	if err := json.Unmarshal(raw, &f); err != nil {
		d.drop(key, fmt.Errorf("expected a string, got %s", preview(raw)))
		return nil
	}
	s := string(f)
	return &s
}

func (d *fieldDecoder) str(key string) string {
	if s := d.optStr(key); s != nil {
		return *s
	}
	return ""
}

func (d *fieldDecoder) num(key string) *float64 {
	raw, ok := d.raw(key)
	if !ok {
		return nil
	}
	v, err := parseFlexNumber(raw)
	if err != nil {
		d.drop(key, err)
		return nil
	}
	return &v
}

func (d *fieldDecoder) integer(key string) *int {
	v := d.num(key)
	if v == nil {
		return nil
	}
	if math.Abs(*v) > math.MaxInt32 {
		d.drop(key, fmt.Errorf("%v is out of range", *v))
		return nil
	}
	n := int(math.Round(*v))
	return &n
}

func (d *fieldDecoder) boolean(key string) *bool {
	raw, ok := d.raw(key)
	if !ok {
		return nil
	}
	var f flexString
	if err := json.Unmarshal(raw, &f); err != nil {
		d.drop(key, fmt.Errorf("expected a boolean, got %s", preview(raw)))
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(string(f)))
	if err != nil {
		d.drop(key, fmt.Errorf("expected a boolean, got %s", preview(raw)))
		return nil
	}
	return &b
}

func (d *fieldDecoder) styling(key string) *Styling {
	raw, ok := d.raw(key)
	if !ok {
		return nil
	}
	sd, err := newFieldDecoder(raw)
	if err != nil {
		d.drop(key, err)
		return nil
	}
	st := &Styling{
		BackgroundColor: sd.str("backgroundColor"),
		TextColor:       sd.str("textColor"),
		FontSize:        sd.str("fontSize"),
		Animation:       sd.str("animation"),
	}
	for _, p := range sd.problems {
		d.problems = append(d.problems, key+": "+p)
	}
	return st
}

// parseFlexNumber accepts JSON numbers and strings holding a number.
func parseFlexNumber(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	var v float64
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("expected a number, got %s", preview(raw))
		}
		v = f
	} else if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("expected a number, got %s", preview(raw))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("expected a finite number, got %s", preview(raw))
	}
	return v, nil
}

func preview(raw []byte) string {
	const limit = 40
	if len(raw) > limit {
		return string(raw[:limit]) + "..."
	}
	return string(raw)
}

// flexString accepts JSON strings, numbers and booleans.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	*f = flexString(strconv.FormatBool(b))
	return nil
}
