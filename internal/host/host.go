// Package host mounts slideshows from the store onto the display and keeps
// the mounted player in step with its record.
package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-signage/internal/audio"
	"github.com/edumarques81/stellar-signage/internal/clock"
	"github.com/edumarques81/stellar-signage/internal/domain/player"
	"github.com/edumarques81/stellar-signage/internal/domain/slideshow"
	"github.com/edumarques81/stellar-signage/internal/infra/store"
	"github.com/edumarques81/stellar-signage/internal/share"
)

// DefaultPollInterval is how often Watch re-reads the mounted record.
const DefaultPollInterval = 10 * time.Second

// ErrInactive is returned when mounting a deactivated slideshow.
var ErrInactive = errors.New("slideshow is not active")

// Option configures a Host.
type Option func(*Host)

// WithClock sets the clock shared by the host and its players.
func WithClock(c clock.Clock) Option {
	return func(h *Host) {
		h.clock = c
	}
}

// WithAudioFactory sets the background music backend given to each player.
func WithAudioFactory(f audio.Factory) Option {
	return func(h *Host) {
		h.audioFactory = f
	}
}

// WithPollInterval sets the Watch interval.
func WithPollInterval(d time.Duration) Option {
	return func(h *Host) {
		if d > 0 {
			h.pollInterval = d
		}
	}
}

// WithShareBaseURL sets the base of public display links.
func WithShareBaseURL(base string) Option {
	return func(h *Host) {
		h.shareBase = base
	}
}

// WithTransitionDuration sets the initial transition duration of each player.
func WithTransitionDuration(ms int) Option {
	return func(h *Host) {
		h.transitionMs = ms
	}
}

// Host owns at most one mounted player.
type Host struct {
	mu           sync.Mutex
	store        store.Store
	clock        clock.Clock
	audioFactory audio.Factory
	pollInterval time.Duration
	shareBase    string
	transitionMs int

	current     *player.Service
	currentID   string
	fingerprint []byte
	listeners   []func(*player.Snapshot)
}

// New creates a host reading records from st.
func New(st store.Store, opts ...Option) *Host {
	h := &Host{
		store:        st,
		clock:        clock.New(),
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// OnChange registers a listener for snapshots of the mounted player.
// A nil snapshot means nothing is mounted.
func (h *Host) OnChange(fn func(*player.Snapshot)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Player returns the mounted player, or nil.
func (h *Host) Player() *player.Service {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Snapshot returns the mounted player's snapshot, or nil.
func (h *Host) Snapshot() *player.Snapshot {
	p := h.Player()
	if p == nil {
		return nil
	}
	snap := p.Snapshot()
	return &snap
}

// MountedID returns the id of the mounted slideshow, or "".
func (h *Host) MountedID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currentID
}

// Mount loads the record id and replaces the mounted player with a fresh one.
// Inactive records are refused with ErrInactive and leave the host unchanged.
func (h *Host) Mount(ctx context.Context, id string) error {
	rec, err := h.store.GetSlideshow(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load slideshow %s: %w", id, err)
	}
	if !rec.Active() {
		log.Info().Str("slideshow", id).Msg("Refusing to mount inactive slideshow")
		return fmt.Errorf("%w: %s", ErrInactive, id)
	}
	fp, err := rec.Encode()
	if err != nil {
		return fmt.Errorf("failed to fingerprint slideshow %s: %w", id, err)
	}

	h.mount(id, rec, fp)
	return nil
}

func (h *Host) mount(id string, rec *slideshow.Record, fp []byte) {
	show := slideshow.Parse(rec)
	if show.ID == "" {
		show.ID = id
	}

	p := player.NewService(show,
		player.WithClock(h.clock),
		player.WithAudioFactory(h.audioFactory),
		player.WithSessionID(xid.New().String()),
		player.WithShareURL(share.Link(h.shareBase, id)),
		player.WithTransitionDuration(h.transitionMs),
	)

	h.mu.Lock()
	old := h.current
	h.current = p
	h.currentID = id
	h.fingerprint = fp
	h.mu.Unlock()

	if old != nil {
		old.Close()
	}

	p.OnChange(func(snap player.Snapshot) {
		if h.Player() != p {
			return
		}
		h.emit(&snap)
	})

	log.Info().
		Str("slideshow", id).
		Str("session", p.SessionID()).
		Int("slides", show.Len()).
		Msg("Slideshow mounted")
	p.Start()
}

// Unmount closes the mounted player, if any.
func (h *Host) Unmount() {
	h.mu.Lock()
	p := h.current
	id := h.currentID
	h.current = nil
	h.currentID = ""
	h.fingerprint = nil
	h.mu.Unlock()

	if p == nil {
		return
	}
	p.Close()
	log.Info().Str("slideshow", id).Msg("Slideshow unmounted")
	h.emit(nil)
}

// Close unmounts the player.
func (h *Host) Close() {
	h.Unmount()
}

// Poll re-reads the mounted record once. A record that turned inactive or
// disappeared is unmounted; a changed record is remounted from scratch.
func (h *Host) Poll(ctx context.Context) {
	h.mu.Lock()
	id := h.currentID
	fp := h.fingerprint
	h.mu.Unlock()

	if id == "" {
		return
	}

	rec, err := h.store.GetSlideshow(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		log.Warn().Str("slideshow", id).Msg("Mounted slideshow was deleted")
		h.Unmount()
		return
	case err != nil:
		log.Warn().Err(err).Str("slideshow", id).Msg("Failed to refresh mounted slideshow")
		return
	}

	if !rec.Active() {
		log.Info().Str("slideshow", id).Msg("Mounted slideshow was deactivated")
		h.Unmount()
		return
	}

	next, err := rec.Encode()
	if err != nil {
		log.Warn().Err(err).Str("slideshow", id).Msg("Failed to fingerprint slideshow")
		return
	}
	if bytes.Equal(next, fp) {
		return
	}

	h.mu.Lock()
	stillMounted := h.currentID == id
	h.mu.Unlock()
	if !stillMounted {
		return
	}

	log.Info().Str("slideshow", id).Msg("Mounted slideshow changed, remounting")
	h.mount(id, rec, next)
}

// Watch polls the mounted record until ctx is done.
func (h *Host) Watch(ctx context.Context) error {
	log.Debug().Dur("interval", h.pollInterval).Msg("Watching mounted slideshow")
	timer := h.clock.Every(h.pollInterval, func() {
		h.Poll(ctx)
	})
	defer timer.Stop()

	<-ctx.Done()
	return nil
}

func (h *Host) emit(snap *player.Snapshot) {
	h.mu.Lock()
	listeners := append([]func(*player.Snapshot){}, h.listeners...)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}
