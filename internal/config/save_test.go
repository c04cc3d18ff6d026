package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestSaveToRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Graphics.Width = 1600
	cfg.Scene.Models = append(cfg.Scene.Models, ModelConfig{Path: "a.gltf", Scale: 2})

	// Parent directory does not exist yet; SaveTo must create it.
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reloading saved config: %v", err)
	}
	if loaded.Graphics.Width != 1600 {
		t.Errorf("width after round trip: got %d, want 1600", loaded.Graphics.Width)
	}
	if len(loaded.Scene.Models) != 1 || loaded.Scene.Models[0].Path != "a.gltf" {
		t.Errorf("models after round trip: got %+v", loaded.Scene.Models)
	}
	if loaded.Scene.Models[0].Scale != 2 {
		t.Errorf("model scale after round trip: got %f, want 2", loaded.Scene.Models[0].Scale)
	}
}

func TestSaveWritesToConfigDir(t *testing.T) {
	switch runtime.GOOS {
	case "darwin", "windows":
		t.Skip("config dir is fixed on this platform")
	}

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg := Default()
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "sceneview", "config.yaml")); err != nil {
		t.Errorf("expected config.yaml under the config dir: %v", err)
	}
}
