package renderer

import "github.com/spaghettifunk/ember/engine/renderer/metadata"

// Backend is the surface the engine needs from a rendering API. Texture
// calls are not free-threaded: they must all come from the goroutine that
// owns the rendering context unless IsMultithreaded reports otherwise.
type Backend interface {
	Initialize(appName string, appWidth, appHeight uint32) error
	Shutdown() error
	Resized(width, height uint16) error
	BeginFrame(deltaTime float64) error
	EndFrame(deltaTime float64) error
	// TextureCreate uploads the pixel buffer and fills texture.ID,
	// texture.MipLevels and texture.InternalData.
	TextureCreate(pixels []uint8, texture *metadata.Texture, opts metadata.TextureUploadOptions) error
	TextureDestroy(texture *metadata.Texture) error
	IsMultithreaded() bool
}
