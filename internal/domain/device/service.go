// Package device manages the persistent identity of this display box.
package device

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// TypeDisplay is the device type reported to controllers.
const TypeDisplay = "display"

// ErrEmptyName is returned when renaming to a blank name.
var ErrEmptyName = errors.New("device name must not be empty")

// Info is the identity of the display.
type Info struct {
	UUID     string `json:"uuid"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Location string `json:"location,omitempty"`
}

// Service loads, generates and persists the display identity.
type Service struct {
	mu         sync.RWMutex
	configPath string
	info       Info
}

type persistedConfig struct {
	UUID     string `json:"uuid"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

// NewService loads the identity stored at configPath, generating and
// saving a new one if none exists or the stored one is unusable.
func NewService(configPath string) (*Service, error) {
	svc := &Service{
		configPath: configPath,
		info:       Info{Type: TypeDisplay},
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := svc.load(); err != nil {
		log.Debug().Err(err).Msg("No usable display identity, generating a new one")
		svc.info.UUID = uuid.New().String()
		svc.info.Name = defaultName()
		if err := svc.save(); err != nil {
			return nil, fmt.Errorf("failed to save device config: %w", err)
		}
	}

	log.Info().
		Str("uuid", svc.info.UUID).
		Str("name", svc.info.Name).
		Msg("Display identity initialized")

	return svc, nil
}

func (s *Service) load() error {
	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return err
	}

	var cfg persistedConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("invalid config format: %w", err)
	}
	if _, err := uuid.Parse(cfg.UUID); err != nil {
		return fmt.Errorf("invalid uuid %q: %w", cfg.UUID, err)
	}

	s.info.UUID = cfg.UUID
	s.info.Name = cfg.Name
	s.info.Location = cfg.Location
	if strings.TrimSpace(s.info.Name) == "" {
		s.info.Name = defaultName()
	}
	return nil
}

func (s *Service) save() error {
	data, err := json.MarshalIndent(persistedConfig{
		UUID:     s.info.UUID,
		Name:     s.info.Name,
		Location: s.info.Location,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.configPath, data, 0644)
}

// Info returns the current identity.
func (s *Service) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// UUID returns the display UUID.
func (s *Service) UUID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info.UUID
}

// Rename sets the display name and location and persists them.
func (s *Service) Rename(name, location string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.info.Name = name
	s.info.Location = strings.TrimSpace(location)
	if err := s.save(); err != nil {
		return fmt.Errorf("failed to save device config: %w", err)
	}
	log.Info().Str("name", name).Str("location", s.info.Location).Msg("Display renamed")
	return nil
}

// Handshake returns the identity payload sent to a newly connected client,
// including the slideshow currently mounted, if any.
func (s *Service) Handshake(slideshowID string) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"id":        s.info.UUID,
		"name":      s.info.Name,
		"type":      s.info.Type,
		"location":  s.info.Location,
		"slideshow": slideshowID,
		"mounted":   slideshowID != "",
	}
}

func defaultName() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "Stellar Display"
	}
	return hostname
}
