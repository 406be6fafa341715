package systems

import (
	"fmt"

	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/renderer"
	"github.com/spaghettifunk/ember/engine/renderer/metadata"
)

type TextureSystemConfig struct {
	/** @brief The maximum number of textures that can be registered at once. */
	MaxTextureCount uint32
}

// textureReference tracks the lifetime of one registered texture.
type textureReference struct {
	index       uint32
	refCount    uint32
	autoRelease bool
}

// TextureSystem owns the default fallback textures and a reference-counted
// registry of named textures handed over by scene imports. All calls must
// come from the goroutine owning the rendering context.
type TextureSystem struct {
	config          *TextureSystemConfig
	defaultTextures *metadata.DefaultTextures

	registered []*metadata.Texture
	table      map[string]*textureReference

	backend renderer.Backend
}

func NewTextureSystem(config *TextureSystemConfig, backend renderer.Backend) (*TextureSystem, error) {
	if config.MaxTextureCount == 0 {
		err := fmt.Errorf("func NewTextureSystem - config.MaxTextureCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}

	ts := &TextureSystem{
		config:          config,
		registered:      make([]*metadata.Texture, config.MaxTextureCount),
		table:           make(map[string]*textureReference),
		defaultTextures: metadata.NewDefaultTextures(),
		backend:         backend,
	}
	return ts, nil
}

// Initialize uploads the default textures. Requires the backend to be up.
func (ts *TextureSystem) Initialize() error {
	dt := ts.defaultTextures
	opts := metadata.TextureUploadOptions{
		Filter:  metadata.TextureFilterBilinear,
		RepeatU: metadata.TextureRepeatRepeat,
		RepeatV: metadata.TextureRepeatRepeat,
	}
	uploads := []struct {
		pixels  []uint8
		texture *metadata.Texture
	}{
		{dt.AlbedoPixels, dt.Albedo},
		{dt.EmissionPixels, dt.Emission},
		{dt.ORMPixels, dt.ORM},
		{dt.NormalPixels, dt.Normal},
	}
	for _, u := range uploads {
		if err := ts.backend.TextureCreate(u.pixels, u.texture, opts); err != nil {
			return fmt.Errorf("uploading default texture '%s': %w", u.texture.Name, err)
		}
	}
	return nil
}

func (ts *TextureSystem) Shutdown() error {
	for _, t := range ts.registered {
		if t != nil {
			if err := ts.backend.TextureDestroy(t); err != nil {
				return err
			}
		}
	}
	dt := ts.defaultTextures
	for _, t := range []*metadata.Texture{dt.Albedo, dt.Emission, dt.ORM, dt.Normal} {
		if err := ts.backend.TextureDestroy(t); err != nil {
			return err
		}
	}
	return nil
}

// DefaultForSlot returns the fallback texture for a material map slot.
func (ts *TextureSystem) DefaultForSlot(slot metadata.TextureMapSlot) *metadata.Texture {
	return ts.defaultTextures.ForSlot(slot)
}

// Register hands an already uploaded texture to the system under its name.
// The registry takes over destruction. Registering a name twice increments
// the reference count of the existing entry instead.
func (ts *TextureSystem) Register(texture *metadata.Texture, autoRelease bool) error {
	if texture == nil || texture.Name == "" {
		return fmt.Errorf("cannot register a nil or unnamed texture")
	}
	if ref, ok := ts.table[texture.Name]; ok {
		ref.refCount++
		return nil
	}

	for i := uint32(0); i < ts.config.MaxTextureCount; i++ {
		if ts.registered[i] == nil {
			ts.registered[i] = texture
			ts.table[texture.Name] = &textureReference{
				index:       i,
				refCount:    1,
				autoRelease: autoRelease,
			}
			return nil
		}
	}
	return fmt.Errorf("texture registry full (%d entries)", ts.config.MaxTextureCount)
}

// Acquire returns the named texture and increments its reference count, or
// nil when the name is unknown. Callers fall back to DefaultForSlot.
func (ts *TextureSystem) Acquire(name string) *metadata.Texture {
	ref, ok := ts.table[name]
	if !ok {
		return nil
	}
	ref.refCount++
	return ts.registered[ref.index]
}

// Release decrements the named texture's reference count. Auto-release
// textures are destroyed when the count reaches zero.
func (ts *TextureSystem) Release(name string) {
	ref, ok := ts.table[name]
	if !ok {
		core.LogWarn("released unknown texture '%s'", name)
		return
	}
	if ref.refCount == 0 {
		core.LogWarn("released texture '%s' more times than acquired", name)
		return
	}
	ref.refCount--
	if ref.refCount == 0 && ref.autoRelease {
		t := ts.registered[ref.index]
		if err := ts.backend.TextureDestroy(t); err != nil {
			core.LogWarn("failed to destroy texture '%s': %v", name, err)
		}
		ts.registered[ref.index] = nil
		delete(ts.table, name)
	}
}

// TextureCount returns the number of registered textures.
func (ts *TextureSystem) TextureCount() int {
	return len(ts.table)
}
