package importer

import (
	"errors"

	"github.com/spaghettifunk/ember/engine/renderer"
	"github.com/spaghettifunk/ember/engine/renderer/metadata"
)

var (
	ErrNilScene   = errors.New("importer: nil scene")
	ErrNilBackend = errors.New("importer: nil renderer backend")
	ErrNilDecoder = errors.New("importer: nil image decoder")
)

// WrapMode is the wrap mode a scene source reports for a texture reference.
type WrapMode int

const (
	WrapRepeat WrapMode = iota
	WrapMirroredRepeat
	WrapClamp
	WrapDecal
)

// Repeat converts a source wrap mode to the backend sampler mode. Decal has
// no sampler equivalent and clamps.
func (w WrapMode) Repeat() metadata.TextureRepeat {
	switch w {
	case WrapRepeat:
		return metadata.TextureRepeatRepeat
	case WrapMirroredRepeat:
		return metadata.TextureRepeatMirroredRepeat
	default:
		return metadata.TextureRepeatClampToEdge
	}
}

// TextureChannel is a semantic texture source on an imported material, prior
// to any fallback resolution.
type TextureChannel int

const (
	ChannelBaseColor TextureChannel = iota
	ChannelDiffuse
	ChannelEmissive
	ChannelNormals
	ChannelAmbientOcclusion
	ChannelLightmap
	ChannelRoughness
	ChannelShininess
	ChannelMetalness
	// ChannelMetallicRoughness is the glTF packed texture: roughness in the
	// green channel, metalness in the blue channel of one image.
	ChannelMetallicRoughness
)

// TextureRef points at the bytes behind one material texture: either an
// external file path (relative to the scene) or an index into the scene's
// embedded textures.
type TextureRef struct {
	Path     string
	Embedded int32 // -1 when the reference is an external file
	WrapU    WrapMode
	WrapV    WrapMode
}

// NewFileRef returns a reference to an external texture file.
func NewFileRef(path string, wrapU, wrapV WrapMode) TextureRef {
	return TextureRef{Path: path, Embedded: -1, WrapU: wrapU, WrapV: wrapV}
}

// NewEmbeddedRef returns a reference to a texture embedded in the scene.
func NewEmbeddedRef(index int32, wrapU, wrapV WrapMode) TextureRef {
	return TextureRef{Embedded: index, WrapU: wrapU, WrapV: wrapV}
}

// Material is one imported material record.
type Material interface {
	Name() string
	// Texture returns the reference bound to the given semantic channel, or
	// false when the material has none.
	Texture(channel TextureChannel) (TextureRef, bool)
	Properties() metadata.MaterialProperties
}

// EmbeddedTexture is a texture stored inside the scene file. A zero Height
// marks compressed bytes that still need decoding; otherwise Data is a
// pre-decoded Width×Height RGBA8 blob owned by the scene.
type EmbeddedTexture struct {
	Data   []byte
	Width  int
	Height int
}

// Compressed reports whether Data must run through an image decoder.
func (t *EmbeddedTexture) Compressed() bool {
	return t.Height == 0
}

// Scene is the scene-import collaborator: whatever parsed the model file.
type Scene interface {
	// BaseDir is the directory external texture paths are resolved against.
	BaseDir() string
	MaterialCount() int
	Material(index int) Material
	// EmbeddedTexture returns the embedded texture at index, or nil.
	EmbeddedTexture(index int) *EmbeddedTexture
}

// ImageDecoder is the codec collaborator used by the worker pool.
type ImageDecoder interface {
	DecodeFile(path string) (*metadata.Image, error)
	DecodeMemory(data []byte) (*metadata.Image, error)
}

// Importer loads material textures for imported scenes. The backend must be
// the one owning the rendering context of the goroutine LoadTextureCache is
// called from.
type Importer struct {
	backend renderer.Backend
	decoder ImageDecoder
}

func New(backend renderer.Backend, decoder ImageDecoder) (*Importer, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	if decoder == nil {
		return nil, ErrNilDecoder
	}
	return &Importer{backend: backend, decoder: decoder}, nil
}
