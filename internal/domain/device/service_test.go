package device

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewService_GeneratesUUID(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "device.json")

	svc, err := NewService(configPath)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	info := svc.Info()
	if len(info.UUID) != 36 {
		t.Errorf("UUID should be 36 characters, got %d: %s", len(info.UUID), info.UUID)
	}
	if info.Name == "" {
		t.Error("Name should not be empty")
	}
	if info.Type != TypeDisplay {
		t.Errorf("Type should be %q, got %q", TypeDisplay, info.Type)
	}
	if _, err := os.Stat(configPath); err != nil {
		t.Errorf("Config file should have been created: %v", err)
	}
}

func TestNewService_PersistsUUID(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "device.json")

	svc1, err := NewService(configPath)
	if err != nil {
		t.Fatalf("NewService (1) failed: %v", err)
	}
	svc2, err := NewService(configPath)
	if err != nil {
		t.Fatalf("NewService (2) failed: %v", err)
	}

	if svc1.UUID() != svc2.UUID() {
		t.Errorf("UUID should persist across restarts: %s != %s", svc1.UUID(), svc2.UUID())
	}
}

func TestNewService_LoadsExistingIdentity(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "device.json")

	knownUUID := "550e8400-e29b-41d4-a716-446655440000"
	content := `{"uuid":"` + knownUUID + `","name":"Lobby Screen","location":"Front desk"}`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	svc, err := NewService(configPath)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	info := svc.Info()
	if info.UUID != knownUUID {
		t.Errorf("Should load existing UUID: got %s, want %s", info.UUID, knownUUID)
	}
	if info.Name != "Lobby Screen" || info.Location != "Front desk" {
		t.Errorf("Should load name and location, got %+v", info)
	}
}

func TestNewService_ReplacesInvalidUUID(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "device.json")
	if err := os.WriteFile(configPath, []byte(`{"uuid":"not-a-uuid","name":"x"}`), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	svc, err := NewService(configPath)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	if svc.UUID() == "not-a-uuid" {
		t.Error("Invalid UUID should be replaced")
	}
}

func TestRename(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "device.json")

	svc, err := NewService(configPath)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	if err := svc.Rename("  ", ""); !errors.Is(err, ErrEmptyName) {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}
	if err := svc.Rename("Window Display", " Main St "); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	svc2, err := NewService(configPath)
	if err != nil {
		t.Fatalf("NewService (2) failed: %v", err)
	}
	info := svc2.Info()
	if info.Name != "Window Display" || info.Location != "Main St" {
		t.Errorf("Rename should persist, got %+v", info)
	}
}

func TestHandshake(t *testing.T) {
	svc, err := NewService(filepath.Join(t.TempDir(), "device.json"))
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	idle := svc.Handshake("")
	if idle["mounted"] != false {
		t.Error("expected mounted=false with no slideshow")
	}

	hs := svc.Handshake("show-1")
	if hs["id"] != svc.UUID() || hs["slideshow"] != "show-1" || hs["mounted"] != true {
		t.Errorf("unexpected handshake %v", hs)
	}
}
