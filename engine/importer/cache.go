package importer

import (
	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/renderer"
	"github.com/spaghettifunk/ember/engine/renderer/metadata"
)

// textureSlot holds one unique uploaded texture. used is set the first time
// any (material, slot) pair claims it, across all materials sharing it.
type textureSlot struct {
	texture *metadata.Texture
	srgb    bool
	used    bool
}

// TextureCache maps (material index, map slot) pairs onto the deduplicated
// uploaded textures of one imported scene. Shared sources back a single GPU
// texture; the cache tracks which of those the caller actually claimed so
// Destroy can release the rest.
//
// Not safe for concurrent use. Destroy must run on the goroutine owning the
// rendering context.
type TextureCache struct {
	backend       renderer.Backend
	slots         []textureSlot
	table         []int // materialCount × MapSlotCount projection, -1 = absent
	materialCount int
	destroyed     bool
}

// MaterialCount is the number of materials the cache was built for.
func (c *TextureCache) MaterialCount() int { return c.materialCount }

// TextureCount is the number of unique textures the cache holds.
func (c *TextureCache) TextureCount() int {
	n := 0
	for i := range c.slots {
		if c.slots[i].texture != nil {
			n++
		}
	}
	return n
}

// Get returns the texture for the material's map slot and marks it claimed.
// Returns nil when the material has no source for the slot, the index is out
// of range, or the texture failed to upload; callers substitute the default
// texture for the slot.
func (c *TextureCache) Get(material int, slot metadata.TextureMapSlot) *metadata.Texture {
	if c.destroyed || material < 0 || material >= c.materialCount {
		return nil
	}
	index := c.table[material*metadata.MapSlotCount+int(slot)]
	if index < 0 {
		return nil
	}
	ts := &c.slots[index]
	if ts.texture == nil {
		return nil
	}
	ts.used = true
	return ts.texture
}

// IsSRGB reports whether the texture behind the material's map slot was
// uploaded with sRGB decoding. False for absent slots.
func (c *TextureCache) IsSRGB(material int, slot metadata.TextureMapSlot) bool {
	if c.destroyed || material < 0 || material >= c.materialCount {
		return false
	}
	index := c.table[material*metadata.MapSlotCount+int(slot)]
	if index < 0 {
		return false
	}
	return c.slots[index].srgb
}

// Destroy releases the cache's GPU textures. With unloadAll set every texture
// goes; otherwise only the textures no Get call ever claimed, leaving claimed
// ones to their new owners. Idempotent.
func (c *TextureCache) Destroy(unloadAll bool) {
	if c == nil || c.destroyed {
		return
	}
	c.destroyed = true

	released := 0
	for i := range c.slots {
		ts := &c.slots[i]
		if ts.texture == nil {
			continue
		}
		if unloadAll || !ts.used {
			if err := c.backend.TextureDestroy(ts.texture); err != nil {
				core.LogWarn("failed to destroy texture '%s': %v", ts.texture.Name, err)
			}
			released++
		}
		ts.texture = nil
	}

	if released > 0 {
		core.LogDebug("texture cache destroyed, %d textures released", released)
	}
}
