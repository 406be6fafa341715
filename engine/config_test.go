package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/ember/engine/renderer/metadata"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Application.Name != "Ember" {
		t.Errorf("got name %q", cfg.Application.Name)
	}
	if cfg.Application.StartWidth != 1280 || cfg.Application.StartHeight != 720 {
		t.Errorf("got %dx%d", cfg.Application.StartWidth, cfg.Application.StartHeight)
	}
	cs, err := cfg.Textures.ColorSpaceValue()
	if err != nil || cs != metadata.ColorSpaceSRGB {
		t.Errorf("default color space: %v, %v", cs, err)
	}
	f, err := cfg.Textures.FilterValue()
	if err != nil || f != metadata.TextureFilterTrilinear {
		t.Errorf("default filter: %v, %v", f, err)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	content := `
[application]
name = "Demo"
start_width = 800

[textures]
color_space = "linear"
filter = "anisotropic8x"
workers = 4

[logging]
level = "debug"
`
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Application.Name != "Demo" {
		t.Errorf("got name %q", cfg.Application.Name)
	}
	if cfg.Application.StartWidth != 800 {
		t.Errorf("got width %d", cfg.Application.StartWidth)
	}
	// Untouched keys keep their defaults.
	if cfg.Application.StartHeight != 720 {
		t.Errorf("got height %d, want the default 720", cfg.Application.StartHeight)
	}
	if cfg.Textures.Workers != 4 {
		t.Errorf("got workers %d", cfg.Textures.Workers)
	}
	cs, err := cfg.Textures.ColorSpaceValue()
	if err != nil || cs != metadata.ColorSpaceLinear {
		t.Errorf("color space: %v, %v", cs, err)
	}
	f, err := cfg.Textures.FilterValue()
	if err != nil || f != metadata.TextureFilterAnisotropic8x {
		t.Errorf("filter: %v, %v", f, err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("a missing config file must fail")
	}
}

func TestTexturesConfigInvalidValues(t *testing.T) {
	c := TexturesConfig{ColorSpace: "cmyk"}
	if _, err := c.ColorSpaceValue(); err == nil {
		t.Error("unknown color space must fail")
	}
	c = TexturesConfig{Filter: "blurry"}
	if _, err := c.FilterValue(); err == nil {
		t.Error("unknown filter must fail")
	}
}
