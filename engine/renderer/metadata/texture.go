package metadata

const InvalidID uint32 = 0xFFFFFFFF

const (
	/** @brief The default albedo texture name. */
	DEFAULT_ALBEDO_TEXTURE_NAME string = "default_ALB"
	/** @brief The default emission texture name. */
	DEFAULT_EMISSION_TEXTURE_NAME string = "default_EMI"
	/** @brief The default occlusion/roughness/metalness texture name. */
	DEFAULT_ORM_TEXTURE_NAME string = "default_ORM"
	/** @brief The default normal texture name. */
	DEFAULT_NORMAL_TEXTURE_NAME string = "default_NORM"
)

/** @brief Represents supported texture filtering modes. */
type TextureFilter int

const (
	/** @brief Nearest-neighbor filtering. */
	TextureFilterNearest TextureFilter = iota
	/** @brief Linear (i.e. bilinear) filtering. */
	TextureFilterBilinear
	/** @brief Linear filtering across mip levels. */
	TextureFilterTrilinear
	TextureFilterAnisotropic4x
	TextureFilterAnisotropic8x
	TextureFilterAnisotropic16x
)

// NeedsMipmaps reports whether the filter tier samples across mip levels.
func (f TextureFilter) NeedsMipmaps() bool {
	return f >= TextureFilterTrilinear
}

// Anisotropy returns the sample count for anisotropic tiers, 0 otherwise.
func (f TextureFilter) Anisotropy() float32 {
	switch f {
	case TextureFilterAnisotropic4x:
		return 4
	case TextureFilterAnisotropic8x:
		return 8
	case TextureFilterAnisotropic16x:
		return 16
	}
	return 0
}

type TextureRepeat int

const (
	TextureRepeatRepeat TextureRepeat = iota
	TextureRepeatMirroredRepeat
	TextureRepeatClampToEdge
	TextureRepeatClampToBorder
)

// ColorSpace states how stored texel values are interpreted at sampling time.
type ColorSpace int

const (
	ColorSpaceLinear ColorSpace = iota
	ColorSpaceSRGB
)

// TextureMapSlot identifies which of a material's texture maps a texture
// occupies.
type TextureMapSlot int

const (
	MapAlbedo TextureMapSlot = iota
	MapEmission
	MapORM
	MapNormal

	MapSlotCount = 4
)

func (s TextureMapSlot) String() string {
	switch s {
	case MapAlbedo:
		return "albedo"
	case MapEmission:
		return "emission"
	case MapORM:
		return "orm"
	case MapNormal:
		return "normal"
	}
	return "unknown"
}

/**
 * @brief Represents a texture owned by the renderer backend.
 */
type Texture struct {
	/** @brief The unique texture identifier, assigned by the backend. */
	ID uint32
	/** @brief The texture Width. */
	Width uint32
	/** @brief The texture Height. */
	Height uint32
	/** @brief The number of channels in the texture. */
	ChannelCount uint8
	/** @brief Number of mip levels the backend allocated. */
	MipLevels uint8
	/** @brief The texture Generation. Incremented every time the data is reloaded. */
	Generation uint32
	/** @brief The texture Name. */
	Name string
	/** @brief A pointer to render API specific data. */
	InternalData interface{}
}

// TextureUploadOptions carries the upload-time policy for a texture: the
// colour space it is decoded with, the sampler filter and wrap modes, and
// whether a mip chain is generated.
type TextureUploadOptions struct {
	SRGB            bool
	Filter          TextureFilter
	RepeatU         TextureRepeat
	RepeatV         TextureRepeat
	GenerateMipmaps bool
}

type DefaultTextures struct {
	Albedo   *Texture
	Emission *Texture
	ORM      *Texture
	Normal   *Texture

	AlbedoPixels   []uint8
	EmissionPixels []uint8
	ORMPixels      []uint8
	NormalPixels   []uint8
}

const defaultTextureDimension = 16

// NewDefaultTextures builds the pixel data for the built-in fallback maps in
// code, so a model with missing textures renders without asset dependencies:
// white albedo, black emission, white ORM (occlusion=1, roughness=1,
// metalness=0) and a flat +Z normal map. The backend upload happens later,
// when a rendering context exists.
func NewDefaultTextures() *DefaultTextures {
	dt := &DefaultTextures{
		Albedo:   &Texture{Name: DEFAULT_ALBEDO_TEXTURE_NAME, Generation: InvalidID},
		Emission: &Texture{Name: DEFAULT_EMISSION_TEXTURE_NAME, Generation: InvalidID},
		ORM:      &Texture{Name: DEFAULT_ORM_TEXTURE_NAME, Generation: InvalidID},
		Normal:   &Texture{Name: DEFAULT_NORMAL_TEXTURE_NAME, Generation: InvalidID},
	}

	dim := uint32(defaultTextureDimension)
	channels := uint32(4)
	pixelCount := dim * dim

	albedo := make([]uint8, pixelCount*channels)
	for i := range albedo {
		albedo[i] = 255
	}

	// Default emission map is all black, alpha opaque.
	emission := make([]uint8, pixelCount*channels)
	for i := uint32(0); i < pixelCount; i++ {
		emission[i*channels+3] = 255
	}

	orm := make([]uint8, pixelCount*channels)
	for i := uint32(0); i < pixelCount; i++ {
		orm[i*channels+0] = 255
		orm[i*channels+1] = 255
		orm[i*channels+2] = 0
		orm[i*channels+3] = 255
	}

	normal := make([]uint8, pixelCount*channels)
	for i := uint32(0); i < pixelCount; i++ {
		normal[i*channels+0] = 128
		normal[i*channels+1] = 128
		normal[i*channels+2] = 255
		normal[i*channels+3] = 255
	}

	for _, t := range []*Texture{dt.Albedo, dt.Emission, dt.ORM, dt.Normal} {
		t.Width = dim
		t.Height = dim
		t.ChannelCount = 4
	}

	dt.AlbedoPixels = albedo
	dt.EmissionPixels = emission
	dt.ORMPixels = orm
	dt.NormalPixels = normal

	return dt
}

// ForSlot returns the fallback texture for a material map slot.
func (dt *DefaultTextures) ForSlot(slot TextureMapSlot) *Texture {
	switch slot {
	case MapAlbedo:
		return dt.Albedo
	case MapEmission:
		return dt.Emission
	case MapORM:
		return dt.ORM
	case MapNormal:
		return dt.Normal
	}
	return nil
}
