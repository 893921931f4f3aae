// Package store persists slideshow records.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edumarques81/stellar-signage/internal/domain/slideshow"
)

// Supported drivers.
const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("slideshow not found")
	// ErrMissingID is returned when storing a record without an id.
	ErrMissingID = errors.New("slideshow record has no id")
	// ErrClosed is returned by every method after Close.
	ErrClosed = errors.New("store is closed")
)

// Summary is the listing view of a stored record.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	Slides    int       `json:"slides"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store is the persistence collaborator supplying slideshow records.
type Store interface {
	GetSlideshow(ctx context.Context, id string) (*slideshow.Record, error)
	PutSlideshow(ctx context.Context, rec *slideshow.Record) error
	ListSlideshows(ctx context.Context) ([]Summary, error)
	SetActive(ctx context.Context, id string, active bool) error
	Close() error
}

// Open opens the store implementation named by driver at path.
func Open(driver, path string) (Store, error) {
	switch strings.ToLower(driver) {
	case DriverSQLite, "":
		db := NewSQLite(path)
		if err := db.Open(); err != nil {
			return nil, err
		}
		return db, nil
	case DriverBolt:
		return OpenBolt(path)
	}
	return nil, fmt.Errorf("unknown store driver %q", driver)
}

func summarize(rec *slideshow.Record, updated time.Time) Summary {
	return Summary{
		ID:        rec.ID,
		Name:      rec.Name,
		IsActive:  rec.Active(),
		Slides:    len(rec.Images),
		UpdatedAt: updated,
	}
}
