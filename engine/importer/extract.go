package importer

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spaghettifunk/ember/engine/renderer/metadata"
)

type jobKind uint8

const (
	jobSimple jobKind = iota
	jobORMComposite
)

// Indices into the ORM source triple.
const (
	ormOcclusion = 0
	ormRoughness = 1
	ormMetalness = 2
)

// textureSource is the identity of one texture input: an external path or an
// embedded index, never both.
type textureSource struct {
	path     string
	embedded int32
}

func sourceOf(ref TextureRef) textureSource {
	if ref.Embedded >= 0 {
		return textureSource{embedded: ref.Embedded}
	}
	return textureSource{path: ref.Path, embedded: -1}
}

// JobDescriptor identifies what one unique texture job must decode, not the
// decoded data. Immutable once created; safe to share across workers.
type JobDescriptor struct {
	kind  jobKind
	wrapU WrapMode
	wrapV WrapMode
	// srgb marks jobs whose texels are colour data (albedo, emission) and are
	// uploaded with sRGB decode when the policy asks for it. Part of the job
	// identity: the same file used as albedo and as a normal map needs two
	// GPU textures.
	srgb bool

	// Simple jobs.
	source textureSource

	// ORM composite jobs.
	ormSources [3]textureSource
	ormPresent [3]bool
	// The roughness source is a shininess map and must be inverted.
	invertRoughness bool
	// Roughness and metalness read from one packed metallic-roughness image.
	combinedMR bool
}

// InvertRoughness reports whether the job's roughness source is a shininess
// map whose samples get inverted before composition.
func (d *JobDescriptor) InvertRoughness() bool { return d.invertRoughness }

// CombinedMetallicRoughness reports whether roughness and metalness decode
// from a single packed source.
func (d *JobDescriptor) CombinedMetallicRoughness() bool { return d.combinedMR }

// textureName derives a stable-ish name for the uploaded texture. File-backed
// jobs use the file name, embedded ones the embedded index; composed ORM
// images have no single source and get a generated name.
func (d *JobDescriptor) textureName() string {
	if d.kind == jobSimple {
		if d.source.embedded >= 0 {
			return fmt.Sprintf("embedded_%d", d.source.embedded)
		}
		return filepath.Base(d.source.path)
	}
	return fmt.Sprintf("orm_%s", uuid.New().String())
}

func lookupTexture(mat Material, channels ...TextureChannel) (TextureRef, bool) {
	for _, ch := range channels {
		if ref, ok := mat.Texture(ch); ok {
			return ref, true
		}
	}
	return TextureRef{}, false
}

func extractSimple(mat Material, srgb bool, channels ...TextureChannel) (JobDescriptor, bool) {
	ref, ok := lookupTexture(mat, channels...)
	if !ok {
		return JobDescriptor{}, false
	}
	return JobDescriptor{
		kind:   jobSimple,
		wrapU:  ref.WrapU,
		wrapV:  ref.WrapV,
		srgb:   srgb,
		source: sourceOf(ref),
	}, true
}

func extractORM(mat Material) (JobDescriptor, bool) {
	occRef, occOK := lookupTexture(mat, ChannelAmbientOcclusion, ChannelLightmap)

	roughRef, roughOK := lookupTexture(mat, ChannelRoughness)
	invert := false
	if !roughOK {
		roughRef, roughOK = lookupTexture(mat, ChannelShininess)
		// Shininess is the inverse of roughness.
		invert = roughOK
	}

	metalRef, metalOK := lookupTexture(mat, ChannelMetalness)
	combined := false
	if !metalOK && !roughOK {
		if mrRef, ok := lookupTexture(mat, ChannelMetallicRoughness); ok {
			roughRef, metalRef = mrRef, mrRef
			roughOK, metalOK = true, true
			combined = true
		}
	}

	if !occOK && !roughOK && !metalOK {
		return JobDescriptor{}, false
	}

	desc := JobDescriptor{
		kind:            jobORMComposite,
		invertRoughness: invert,
		combinedMR:      combined,
	}
	if occOK {
		desc.ormSources[ormOcclusion] = sourceOf(occRef)
		desc.ormPresent[ormOcclusion] = true
	}
	if roughOK {
		desc.ormSources[ormRoughness] = sourceOf(roughRef)
		desc.ormPresent[ormRoughness] = true
	}
	if metalOK {
		desc.ormSources[ormMetalness] = sourceOf(metalRef)
		desc.ormPresent[ormMetalness] = true
	}

	// Wrap mode from the first available source, metalness first.
	switch {
	case metalOK:
		desc.wrapU, desc.wrapV = metalRef.WrapU, metalRef.WrapV
	case roughOK:
		desc.wrapU, desc.wrapV = roughRef.WrapU, roughRef.WrapV
	case occOK:
		desc.wrapU, desc.wrapV = occRef.WrapU, occRef.WrapV
	}

	return desc, true
}

// ExtractJob inspects one material and builds the job descriptor for a map
// slot, applying the per-slot source fallback order. It performs no I/O.
func ExtractJob(mat Material, slot metadata.TextureMapSlot) (JobDescriptor, bool) {
	switch slot {
	case metadata.MapAlbedo:
		return extractSimple(mat, true, ChannelBaseColor, ChannelDiffuse)
	case metadata.MapEmission:
		return extractSimple(mat, true, ChannelEmissive)
	case metadata.MapORM:
		return extractORM(mat)
	case metadata.MapNormal:
		return extractSimple(mat, false, ChannelNormals)
	}
	return JobDescriptor{}, false
}
