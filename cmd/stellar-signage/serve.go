package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/edumarques81/stellar-signage/internal/audio"
	"github.com/edumarques81/stellar-signage/internal/config"
	"github.com/edumarques81/stellar-signage/internal/domain/device"
	"github.com/edumarques81/stellar-signage/internal/host"
	"github.com/edumarques81/stellar-signage/internal/infra/mpd"
	"github.com/edumarques81/stellar-signage/internal/infra/store"
	"github.com/edumarques81/stellar-signage/internal/media"
	"github.com/edumarques81/stellar-signage/internal/transport/httpapi"
	"github.com/edumarques81/stellar-signage/internal/transport/socketio"
	"github.com/edumarques81/stellar-signage/internal/version"
)

const shutdownTimeout = 5 * time.Second

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the display server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := a.cfg
	versionInfo := version.GetInfo()
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().Msgf("  %s", versionInfo.String())
	log.Info().Msg("  Slideshow Display Server")
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().
		Int("port", cfg.Server.Port).
		Str("store", cfg.Store.Driver).
		Str("store_path", cfg.Store.Path).
		Str("audio", cfg.Audio.Backend).
		Int("max_remote_controls", cfg.Server.MaxRemoteControls).
		Dur("poll_interval", cfg.Player.ActivationPollInterval).
		Msg("Configuration")

	st, err := store.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	dev, err := device.NewService(cfg.Device.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load device identity: %w", err)
	}
	log.Info().Str("uuid", dev.UUID()).Str("name", dev.Info().Name).Msg("Device identity loaded")

	factory, closeAudio := newAudioFactory(cfg.Audio)
	defer closeAudio()

	h := host.New(st,
		host.WithAudioFactory(factory),
		host.WithPollInterval(cfg.Player.ActivationPollInterval),
		host.WithShareBaseURL(cfg.Share.BaseURL),
		host.WithTransitionDuration(cfg.Player.TransitionDurationMs),
	)
	defer h.Close()

	socketServer, err := socketio.NewServer(h,
		socketio.WithMaxRemoteControls(cfg.Server.MaxRemoteControls),
		socketio.WithDevice(dev),
	)
	if err != nil {
		return fmt.Errorf("failed to create Socket.io server: %w", err)
	}
	defer socketServer.Close()

	if id := cfg.Player.MountOnStart; id != "" {
		if err := h.Mount(ctx, id); err != nil {
			log.Warn().Err(err).Str("slideshow", id).Msg("Failed to mount slideshow on start")
		}
	}

	var library *media.Library
	if cfg.Media.Dir != "" {
		library = media.NewLibrary(cfg.Media.Dir, cfg.Media.CacheDir)
		log.Info().Str("dir", cfg.Media.Dir).Msg("Serving slide media")
	}

	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: httpapi.NewHandler(httpapi.Config{
			Host:         h,
			Store:        st,
			Device:       dev,
			Media:        library,
			Socket:       socketServer,
			StaticDir:    cfg.Server.StaticDir,
			ShareBaseURL: cfg.Share.BaseURL,
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return h.Watch(gctx)
	})
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
		return nil
	})

	err = g.Wait()
	log.Info().Msg("Server stopped")
	return err
}

// newAudioFactory returns the background audio factory for the configured
// backend and a function releasing its resources.
func newAudioFactory(cfg config.AudioConfig) (audio.Factory, func()) {
	if cfg.Backend != config.AudioMPD {
		return audio.NewRemoteFactory(), func() {}
	}

	client := mpd.NewClient(cfg.MPD.Host, cfg.MPD.Port, cfg.MPD.Password)
	if err := client.Connect(); err != nil {
		// The client reconnects on first use; playback failures surface in audio status.
		log.Warn().Err(err).Str("addr", client.Addr()).Msg("MPD not reachable, will retry on demand")
	} else {
		log.Info().Str("addr", client.Addr()).Msg("MPD connection verified")
	}
	return mpd.NewSink(client), func() { client.Close() }
}
