package metadata

import "github.com/spaghettifunk/ember/engine/math"

/** @brief The name of the default material. */
const DefaultMaterialName string = "default"

/**
 * @brief Scalar and colour factors of a PBR material, multiplied with the
 * corresponding texture maps at shading time.
 */
type MaterialProperties struct {
	AlbedoColor    math.Vec4
	EmissionColor  math.Vec3
	EmissionEnergy float32
	Occlusion      float32
	Roughness      float32
	Metalness      float32
	NormalScale    float32
}

// NewMaterialProperties returns neutral factors: white albedo, no emission,
// full occlusion and roughness, no metalness.
func NewMaterialProperties() MaterialProperties {
	return MaterialProperties{
		AlbedoColor:    math.NewVec4One(),
		EmissionEnergy: 1,
		Occlusion:      1,
		Roughness:      1,
		Metalness:      0,
		NormalScale:    1,
	}
}

/**
 * @brief A material, which represents various properties of a surface in the
 * world such as colour, roughness, metalness and the texture maps describing
 * them.
 */
type Material struct {
	/** @brief The material id. */
	ID uint32
	/** @brief The material Generation. Incremented every time the material is changed. */
	Generation uint32
	/** @brief The material name. */
	Name string
	/** @brief The scalar/colour factors. */
	Properties MaterialProperties
	/** @brief The texture maps, indexed by TextureMapSlot. Nil entries fall
	back to the engine default textures. */
	Textures [MapSlotCount]*Texture
}
