package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	bolt "go.etcd.io/bbolt"

	"github.com/edumarques81/stellar-signage/internal/domain/slideshow"
)

// SlideshowsBucket holds one entry per record, keyed by id.
const SlideshowsBucket = "Slideshows"

// Bolt is a Store backed by a bbolt file.
type Bolt struct {
	db *bolt.DB
}

type boltEntry struct {
	Record    json.RawMessage `json:"record"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// OpenBolt opens or creates the bbolt file at path.
func OpenBolt(path string) (*Bolt, error) {
	if path == "" {
		path = "data/slideshows.bolt"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open slideshow database %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(SlideshowsBucket)); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", SlideshowsBucket, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Str("path", path).Msg("Slideshow database opened")
	return &Bolt{db: db}, nil
}

// Close closes the database.
func (b *Bolt) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

// GetSlideshow returns the record with the given id.
func (b *Bolt) GetSlideshow(_ context.Context, id string) (*slideshow.Record, error) {
	if b.db == nil {
		return nil, ErrClosed
	}

	var rec *slideshow.Record
	err := b.db.View(func(tx *bolt.Tx) error {
		entry, err := readEntry(tx.Bucket([]byte(SlideshowsBucket)).Get([]byte(id)))
		if err != nil {
			return err
		}
		if entry == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		rec, err = slideshow.DecodeRecord(entry.Record)
		return err
	})
	return rec, err
}

// PutSlideshow inserts or replaces a record.
func (b *Bolt) PutSlideshow(_ context.Context, rec *slideshow.Record) error {
	if rec == nil || rec.ID == "" {
		return ErrMissingID
	}
	if b.db == nil {
		return ErrClosed
	}

	data, err := rec.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode slideshow %s: %w", rec.ID, err)
	}
	value, err := json.Marshal(boltEntry{Record: data, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(SlideshowsBucket)).Put([]byte(rec.ID), value); err != nil {
			return fmt.Errorf("failed to store slideshow %s: %w", rec.ID, err)
		}
		return nil
	})
}

// ListSlideshows returns a summary of every record, ordered by id.
func (b *Bolt) ListSlideshows(_ context.Context) ([]Summary, error) {
	if b.db == nil {
		return nil, ErrClosed
	}

	var out []Summary
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(SlideshowsBucket)).ForEach(func(k, v []byte) error {
			entry, err := readEntry(v)
			if err != nil {
				log.Warn().Err(err).Str("id", string(k)).Msg("Skipping unreadable slideshow entry")
				return nil
			}
			rec, err := slideshow.DecodeRecord(entry.Record)
			if err != nil {
				log.Warn().Err(err).Str("id", string(k)).Msg("Skipping unreadable slideshow entry")
				return nil
			}
			out = append(out, summarize(rec, entry.UpdatedAt))
			return nil
		})
	})
	return out, err
}

// SetActive updates the activation flag of a record.
func (b *Bolt) SetActive(ctx context.Context, id string, active bool) error {
	rec, err := b.GetSlideshow(ctx, id)
	if err != nil {
		return err
	}
	rec.IsActive = &active
	return b.PutSlideshow(ctx, rec)
}

func readEntry(v []byte) (*boltEntry, error) {
	if v == nil {
		return nil, nil
	}
	var entry boltEntry
	if err := json.Unmarshal(v, &entry); err != nil {
		return nil, fmt.Errorf("corrupt slideshow entry: %w", err)
	}
	return &entry, nil
}
