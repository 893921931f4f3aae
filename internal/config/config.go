// Package config loads the display server configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/edumarques81/stellar-signage/internal/domain/transition"
	"github.com/edumarques81/stellar-signage/internal/infra/store"
)

// Audio backends.
const (
	AudioNone = "none" // The display's browser plays the track
	AudioMPD  = "mpd"
)

// Config is the full server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Player PlayerConfig `yaml:"player"`
	Audio  AudioConfig  `yaml:"audio"`
	Device DeviceConfig `yaml:"device"`
	Share  ShareConfig  `yaml:"share"`
	Media  MediaConfig  `yaml:"media"`
	Debug  bool         `yaml:"debug"`
}

type ServerConfig struct {
	Port              int    `yaml:"port"`
	StaticDir         string `yaml:"staticDir"`
	MaxRemoteControls int    `yaml:"maxRemoteControls"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type PlayerConfig struct {
	TransitionDurationMs   int           `yaml:"transitionDurationMs"`
	ActivationPollInterval time.Duration `yaml:"activationPollInterval"`
	// MountOnStart is the slideshow mounted when the server starts.
	MountOnStart string `yaml:"mountOnStart"`
}

type AudioConfig struct {
	Backend string    `yaml:"backend"`
	MPD     MPDConfig `yaml:"mpd"`
}

type MPDConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
}

type DeviceConfig struct {
	ConfigPath string `yaml:"configPath"`
}

type ShareConfig struct {
	BaseURL string `yaml:"baseURL"`
}

// MediaConfig locates file_path slide media. An empty Dir disables /media.
type MediaConfig struct {
	Dir      string `yaml:"dir"`
	CacheDir string `yaml:"cacheDir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:              3002,
			MaxRemoteControls: 2,
		},
		Store: StoreConfig{
			Driver: store.DriverSQLite,
			Path:   store.DefaultDBPath,
		},
		Player: PlayerConfig{
			TransitionDurationMs:   int(transition.DefaultDuration.Milliseconds()),
			ActivationPollInterval: 10 * time.Second,
		},
		Audio: AudioConfig{
			Backend: AudioNone,
			MPD:     MPDConfig{Host: "localhost", Port: 6600},
		},
		Device: DeviceConfig{ConfigPath: "data/device.json"},
		Media:  MediaConfig{CacheDir: "data/cache"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate normalizes bounded values and rejects unusable settings.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxRemoteControls < 0 {
		c.Server.MaxRemoteControls = 0
	}

	c.Store.Driver = strings.ToLower(c.Store.Driver)
	switch c.Store.Driver {
	case store.DriverSQLite, store.DriverBolt:
	default:
		errs = append(errs, fmt.Errorf("store.driver %q is not one of sqlite, bolt", c.Store.Driver))
	}

	d := transition.ClampDuration(time.Duration(c.Player.TransitionDurationMs) * time.Millisecond)
	c.Player.TransitionDurationMs = int(d.Milliseconds())
	if c.Player.ActivationPollInterval <= 0 {
		c.Player.ActivationPollInterval = Default().Player.ActivationPollInterval
	}

	c.Audio.Backend = strings.ToLower(c.Audio.Backend)
	switch c.Audio.Backend {
	case "", AudioNone:
		c.Audio.Backend = AudioNone
	case AudioMPD:
		if c.Audio.MPD.Host == "" || c.Audio.MPD.Port <= 0 {
			errs = append(errs, errors.New("audio.mpd.host and audio.mpd.port are required for the mpd backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("audio.backend %q is not one of none, mpd", c.Audio.Backend))
	}

	return errors.Join(errs...)
}
