package engine

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/ember/engine/renderer/metadata"
)

// Config is the engine's TOML configuration.
type Config struct {
	Application ApplicationConfig `toml:"application"`
	Assets      AssetsConfig      `toml:"assets"`
	Textures    TexturesConfig    `toml:"textures"`
	Logging     LoggingConfig     `toml:"logging"`
}

type ApplicationConfig struct {
	Name        string `toml:"name"`
	StartPosX   uint32 `toml:"start_pos_x"`
	StartPosY   uint32 `toml:"start_pos_y"`
	StartWidth  uint32 `toml:"start_width"`
	StartHeight uint32 `toml:"start_height"`
}

type AssetsConfig struct {
	Dir string `toml:"dir"`
}

type TexturesConfig struct {
	// ColorSpace selects how colour textures upload: "srgb" or "linear".
	ColorSpace string `toml:"color_space"`
	// Filter is the sampling tier: "nearest", "bilinear", "trilinear",
	// "anisotropic4x", "anisotropic8x" or "anisotropic16x".
	Filter string `toml:"filter"`
	// Workers caps the decode pool; zero uses the hardware parallelism.
	Workers int `toml:"workers"`
	// MaxRegistered is the texture registry capacity.
	MaxRegistered uint32 `toml:"max_registered"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Application: ApplicationConfig{
			Name:        "Ember",
			StartPosX:   100,
			StartPosY:   100,
			StartWidth:  1280,
			StartHeight: 720,
		},
		Assets: AssetsConfig{Dir: "assets"},
		Textures: TexturesConfig{
			ColorSpace:    "srgb",
			Filter:        "trilinear",
			MaxRegistered: 1024,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// LoadConfig reads a TOML configuration file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config '%s': %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config '%s': %w", path, err)
	}
	return cfg, nil
}

// ColorSpace resolves the configured texture colour space.
func (c *TexturesConfig) ColorSpaceValue() (metadata.ColorSpace, error) {
	switch strings.ToLower(c.ColorSpace) {
	case "", "srgb":
		return metadata.ColorSpaceSRGB, nil
	case "linear":
		return metadata.ColorSpaceLinear, nil
	}
	return 0, fmt.Errorf("unknown color space '%s'", c.ColorSpace)
}

// FilterValue resolves the configured texture filter tier.
func (c *TexturesConfig) FilterValue() (metadata.TextureFilter, error) {
	switch strings.ToLower(c.Filter) {
	case "nearest":
		return metadata.TextureFilterNearest, nil
	case "bilinear":
		return metadata.TextureFilterBilinear, nil
	case "", "trilinear":
		return metadata.TextureFilterTrilinear, nil
	case "anisotropic4x":
		return metadata.TextureFilterAnisotropic4x, nil
	case "anisotropic8x":
		return metadata.TextureFilterAnisotropic8x, nil
	case "anisotropic16x":
		return metadata.TextureFilterAnisotropic16x, nil
	}
	return 0, fmt.Errorf("unknown texture filter '%s'", c.Filter)
}
