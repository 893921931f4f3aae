// Package httpapi serves the REST API, share QR codes and the display SPA.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-signage/internal/domain/device"
	"github.com/edumarques81/stellar-signage/internal/domain/player"
	"github.com/edumarques81/stellar-signage/internal/domain/slideshow"
	"github.com/edumarques81/stellar-signage/internal/host"
	"github.com/edumarques81/stellar-signage/internal/infra/store"
	"github.com/edumarques81/stellar-signage/internal/media"
	"github.com/edumarques81/stellar-signage/internal/share"
	"github.com/edumarques81/stellar-signage/internal/version"
)

const maxRecordBytes = 4 << 20

// Host is the session the API controls.
type Host interface {
	Player() *player.Service
	Snapshot() *player.Snapshot
	MountedID() string
	Mount(ctx context.Context, id string) error
}

// Config holds the handler's collaborators. Device, Media, Socket and
// StaticDir are optional.
type Config struct {
	Host         Host
	Store        store.Store
	Device       *device.Service
	Media        *media.Library
	Socket       http.Handler
	StaticDir    string
	ShareBaseURL string
	QRSize       int
}

type api struct {
	cfg Config
}

// NewHandler returns the full HTTP handler wrapped in CORS.
func NewHandler(cfg Config) http.Handler {
	a := &api{cfg: cfg}

	r := mux.NewRouter()
	if cfg.Socket != nil {
		r.PathPrefix("/socket.io/").Handler(cfg.Socket)
	}

	r.HandleFunc("/health", a.health).Methods(http.MethodGet)
	r.HandleFunc("/share/{id}.png", a.shareQR).Methods(http.MethodGet)
	if cfg.Media != nil {
		r.HandleFunc("/media/{path:.+}", a.serveMedia).Methods(http.MethodGet, http.MethodHead)
	}

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/version", a.version).Methods(http.MethodGet)
	v1.HandleFunc("/device", a.device).Methods(http.MethodGet)
	v1.HandleFunc("/player/state", a.playerState).Methods(http.MethodGet)
	v1.HandleFunc("/player/mount/{id}", a.mount).Methods(http.MethodPost)
	v1.HandleFunc("/player/{action}", a.playerAction).Methods(http.MethodPost)
	v1.HandleFunc("/slideshows", a.listSlideshows).Methods(http.MethodGet)
	v1.HandleFunc("/slideshows/{id}", a.getSlideshow).Methods(http.MethodGet)
	v1.HandleFunc("/slideshows/{id}", a.putSlideshow).Methods(http.MethodPut)

	if cfg.StaticDir != "" {
		log.Info().Str("dir", cfg.StaticDir).Msg("Serving static files")
		r.PathPrefix("/").Handler(spaHandler(cfg.StaticDir))
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	})
	return c.Handler(r)
}

func respondWithJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

func respondWithError(w http.ResponseWriter, statusCode int, reason string) {
	respondWithJSON(w, statusCode, map[string]interface{}{
		"ok":     false,
		"reason": reason,
	})
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"mounted": a.cfg.Host.MountedID(),
	})
}

func (a *api) version(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, version.GetInfo())
}

func (a *api) device(w http.ResponseWriter, r *http.Request) {
	if a.cfg.Device == nil {
		respondWithError(w, http.StatusNotFound, "device identity not configured")
		return
	}
	respondWithJSON(w, http.StatusOK, a.cfg.Device.Handshake(a.cfg.Host.MountedID()))
}

func (a *api) playerState(w http.ResponseWriter, r *http.Request) {
	snap := a.cfg.Host.Snapshot()
	if snap == nil {
		respondWithJSON(w, http.StatusOK, map[string]string{"message": player.EmptyMessage})
		return
	}
	respondWithJSON(w, http.StatusOK, snap)
}

func (a *api) playerAction(w http.ResponseWriter, r *http.Request) {
	action := mux.Vars(r)["action"]

	p := a.cfg.Host.Player()
	if p == nil {
		respondWithError(w, http.StatusConflict, "no slideshow mounted")
		return
	}
	if err := p.Do(action); err != nil {
		if errors.Is(err, player.ErrUnknownAction) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, p.Snapshot())
}

func (a *api) mount(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := a.cfg.Host.Mount(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			respondWithError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, host.ErrInactive):
			respondWithError(w, http.StatusConflict, err.Error())
		default:
			log.Error().Err(err).Str("slideshow", id).Msg("Mount failed")
			respondWithError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	a.playerState(w, r)
}

func (a *api) listSlideshows(w http.ResponseWriter, r *http.Request) {
	list, err := a.cfg.Store.ListSlideshows(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list slideshows")
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []store.Summary{}
	}
	respondWithJSON(w, http.StatusOK, list)
}

func (a *api) getSlideshow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rec, err := a.cfg.Store.GetSlideshow(r.Context(), id)
	if err != nil {
		a.storeError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, rec)
}

func (a *api) putSlideshow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRecordBytes))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := slideshow.DecodeRecord(body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if rec.ID == "" {
		rec.ID = id
	}
	if rec.ID != id {
		respondWithError(w, http.StatusBadRequest, "record id does not match path")
		return
	}

	if err := a.cfg.Store.PutSlideshow(r.Context(), rec); err != nil {
		a.storeError(w, err)
		return
	}
	log.Info().Str("slideshow", id).Int("slides", len(rec.Images)).Msg("Slideshow stored")
	respondWithJSON(w, http.StatusOK, rec)
}

func (a *api) shareQR(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, err := a.cfg.Store.GetSlideshow(r.Context(), id); err != nil {
		a.storeError(w, err)
		return
	}
	png, err := share.QRCode(share.Link(a.cfg.ShareBaseURL, id), a.cfg.QRSize)
	if err != nil {
		if errors.Is(err, share.ErrNoBaseURL) {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(png)
}

// serveMedia serves a file_path source. A size query returns a JPEG thumbnail.
func (a *api) serveMedia(w http.ResponseWriter, r *http.Request) {
	rel := mux.Vars(r)["path"]

	var (
		path string
		err  error
	)
	if q := r.URL.Query().Get("size"); q != "" {
		size, convErr := strconv.Atoi(q)
		if convErr != nil {
			respondWithError(w, http.StatusBadRequest, "size must be an integer")
			return
		}
		path, err = a.cfg.Media.Thumbnail(rel, size)
	} else {
		path, err = a.cfg.Media.Resolve(rel)
	}

	if err != nil {
		switch {
		case errors.Is(err, media.ErrNotFound), errors.Is(err, media.ErrOutsideRoot):
			respondWithError(w, http.StatusNotFound, "media not found")
		case errors.Is(err, media.ErrUnsupported):
			respondWithError(w, http.StatusUnsupportedMediaType, err.Error())
		default:
			log.Warn().Err(err).Str("path", rel).Msg("Failed to serve media")
			respondWithError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}

func (a *api) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrMissingID):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("Store request failed")
		respondWithError(w, http.StatusInternalServerError, err.Error())
	}
}

// spaHandler serves files from dir, falling back to index.html for client routes.
func spaHandler(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		fs.ServeHTTP(w, r)
	})
}
