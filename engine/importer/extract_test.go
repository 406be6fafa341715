package importer

import (
	"testing"

	"github.com/spaghettifunk/ember/engine/renderer/metadata"
)

// fakeMaterial binds texture references to semantic channels directly.
type fakeMaterial struct {
	name     string
	textures map[TextureChannel]TextureRef
	props    metadata.MaterialProperties
}

func (m *fakeMaterial) Name() string { return m.name }

func (m *fakeMaterial) Texture(channel TextureChannel) (TextureRef, bool) {
	ref, ok := m.textures[channel]
	return ref, ok
}

func (m *fakeMaterial) Properties() metadata.MaterialProperties { return m.props }

func newFakeMaterial(name string) *fakeMaterial {
	return &fakeMaterial{
		name:     name,
		textures: make(map[TextureChannel]TextureRef),
		props:    metadata.NewMaterialProperties(),
	}
}

func (m *fakeMaterial) with(channel TextureChannel, ref TextureRef) *fakeMaterial {
	m.textures[channel] = ref
	return m
}

// fakeScene exposes fake materials and embedded blobs to the pipeline.
type fakeScene struct {
	baseDir   string
	materials []*fakeMaterial
	embedded  []EmbeddedTexture
}

func (s *fakeScene) BaseDir() string    { return s.baseDir }
func (s *fakeScene) MaterialCount() int { return len(s.materials) }

func (s *fakeScene) Material(index int) Material {
	if s.materials[index] == nil {
		return nil
	}
	return s.materials[index]
}

func (s *fakeScene) EmbeddedTexture(index int) *EmbeddedTexture {
	if index < 0 || index >= len(s.embedded) {
		return nil
	}
	return &s.embedded[index]
}

func TestExtractAlbedoPrefersBaseColor(t *testing.T) {
	mat := newFakeMaterial("m").
		with(ChannelBaseColor, NewFileRef("base.png", WrapRepeat, WrapRepeat)).
		with(ChannelDiffuse, NewFileRef("diffuse.png", WrapRepeat, WrapRepeat))

	desc, ok := ExtractJob(mat, metadata.MapAlbedo)
	if !ok {
		t.Fatal("expected an albedo job")
	}
	if desc.source.path != "base.png" {
		t.Errorf("got source %q, want base.png", desc.source.path)
	}
	if !desc.srgb {
		t.Error("albedo job must be marked srgb")
	}
}

func TestExtractAlbedoFallsBackToDiffuse(t *testing.T) {
	mat := newFakeMaterial("m").
		with(ChannelDiffuse, NewFileRef("diffuse.png", WrapClamp, WrapRepeat))

	desc, ok := ExtractJob(mat, metadata.MapAlbedo)
	if !ok {
		t.Fatal("expected an albedo job")
	}
	if desc.source.path != "diffuse.png" {
		t.Errorf("got source %q, want diffuse.png", desc.source.path)
	}
	if desc.wrapU != WrapClamp || desc.wrapV != WrapRepeat {
		t.Errorf("wrap modes not taken from the reference: %v/%v", desc.wrapU, desc.wrapV)
	}
}

func TestExtractEmission(t *testing.T) {
	mat := newFakeMaterial("m").
		with(ChannelEmissive, NewFileRef("glow.png", WrapRepeat, WrapRepeat))

	desc, ok := ExtractJob(mat, metadata.MapEmission)
	if !ok {
		t.Fatal("expected an emission job")
	}
	if !desc.srgb {
		t.Error("emission job must be marked srgb")
	}
	if desc.source.path != "glow.png" {
		t.Errorf("got source %q, want glow.png", desc.source.path)
	}
}

func TestExtractNormalIsLinear(t *testing.T) {
	mat := newFakeMaterial("m").
		with(ChannelNormals, NewFileRef("normal.png", WrapRepeat, WrapRepeat))

	desc, ok := ExtractJob(mat, metadata.MapNormal)
	if !ok {
		t.Fatal("expected a normal job")
	}
	if desc.srgb {
		t.Error("normal maps are linear data, srgb must be false")
	}
}

func TestExtractMissingSlot(t *testing.T) {
	mat := newFakeMaterial("m")
	for _, slot := range []metadata.TextureMapSlot{metadata.MapAlbedo, metadata.MapEmission, metadata.MapORM, metadata.MapNormal} {
		if _, ok := ExtractJob(mat, slot); ok {
			t.Errorf("slot %s: expected no job for an empty material", slot)
		}
	}
}

func TestExtractORMOcclusionFallsBackToLightmap(t *testing.T) {
	mat := newFakeMaterial("m").
		with(ChannelLightmap, NewFileRef("light.png", WrapRepeat, WrapRepeat))

	desc, ok := ExtractJob(mat, metadata.MapORM)
	if !ok {
		t.Fatal("expected an ORM job")
	}
	if !desc.ormPresent[ormOcclusion] {
		t.Error("lightmap must fill the occlusion source")
	}
	if desc.ormSources[ormOcclusion].path != "light.png" {
		t.Errorf("got occlusion source %q, want light.png", desc.ormSources[ormOcclusion].path)
	}
	if desc.ormPresent[ormRoughness] || desc.ormPresent[ormMetalness] {
		t.Error("roughness and metalness must stay absent")
	}
}

func TestExtractORMShininessInverts(t *testing.T) {
	mat := newFakeMaterial("m").
		with(ChannelShininess, NewFileRef("shiny.png", WrapRepeat, WrapRepeat))

	desc, ok := ExtractJob(mat, metadata.MapORM)
	if !ok {
		t.Fatal("expected an ORM job")
	}
	if !desc.InvertRoughness() {
		t.Error("shininess-backed roughness must be marked for inversion")
	}
	if !desc.ormPresent[ormRoughness] {
		t.Error("shininess must fill the roughness source")
	}
}

func TestExtractORMRoughnessBeatsShininess(t *testing.T) {
	mat := newFakeMaterial("m").
		with(ChannelRoughness, NewFileRef("rough.png", WrapRepeat, WrapRepeat)).
		with(ChannelShininess, NewFileRef("shiny.png", WrapRepeat, WrapRepeat))

	desc, _ := ExtractJob(mat, metadata.MapORM)
	if desc.InvertRoughness() {
		t.Error("a real roughness source must not be inverted")
	}
	if desc.ormSources[ormRoughness].path != "rough.png" {
		t.Errorf("got roughness source %q, want rough.png", desc.ormSources[ormRoughness].path)
	}
}

func TestExtractORMCombinedMetallicRoughness(t *testing.T) {
	mat := newFakeMaterial("m").
		with(ChannelMetallicRoughness, NewFileRef("mr.png", WrapRepeat, WrapRepeat))

	desc, ok := ExtractJob(mat, metadata.MapORM)
	if !ok {
		t.Fatal("expected an ORM job")
	}
	if !desc.CombinedMetallicRoughness() {
		t.Error("packed metallic-roughness must set the combined flag")
	}
	if !desc.ormPresent[ormRoughness] || !desc.ormPresent[ormMetalness] {
		t.Error("both roughness and metalness must point at the packed source")
	}
	if desc.ormSources[ormRoughness] != desc.ormSources[ormMetalness] {
		t.Error("roughness and metalness must share the packed source identity")
	}
}

func TestExtractORMCombinedIgnoredWhenSeparateSourcesExist(t *testing.T) {
	mat := newFakeMaterial("m").
		with(ChannelRoughness, NewFileRef("rough.png", WrapRepeat, WrapRepeat)).
		with(ChannelMetallicRoughness, NewFileRef("mr.png", WrapRepeat, WrapRepeat))

	desc, _ := ExtractJob(mat, metadata.MapORM)
	if desc.CombinedMetallicRoughness() {
		t.Error("a separate roughness source must disable the packed fallback")
	}
	if desc.ormPresent[ormMetalness] {
		t.Error("metalness must stay absent")
	}
}

func TestExtractORMWrapPriority(t *testing.T) {
	occ := NewFileRef("occ.png", WrapClamp, WrapClamp)
	rough := NewFileRef("rough.png", WrapMirroredRepeat, WrapMirroredRepeat)
	metal := NewFileRef("metal.png", WrapRepeat, WrapRepeat)

	// Metalness wins over roughness and occlusion.
	mat := newFakeMaterial("m").
		with(ChannelAmbientOcclusion, occ).
		with(ChannelRoughness, rough).
		with(ChannelMetalness, metal)
	desc, _ := ExtractJob(mat, metadata.MapORM)
	if desc.wrapU != WrapRepeat {
		t.Errorf("metalness wrap must win, got %v", desc.wrapU)
	}

	// Without metalness, roughness wins.
	mat = newFakeMaterial("m").
		with(ChannelAmbientOcclusion, occ).
		with(ChannelRoughness, rough)
	desc, _ = ExtractJob(mat, metadata.MapORM)
	if desc.wrapU != WrapMirroredRepeat {
		t.Errorf("roughness wrap must win without metalness, got %v", desc.wrapU)
	}

	// Occlusion only.
	mat = newFakeMaterial("m").with(ChannelAmbientOcclusion, occ)
	desc, _ = ExtractJob(mat, metadata.MapORM)
	if desc.wrapU != WrapClamp {
		t.Errorf("occlusion wrap expected, got %v", desc.wrapU)
	}
}

func TestWrapModeRepeat(t *testing.T) {
	cases := []struct {
		in   WrapMode
		want metadata.TextureRepeat
	}{
		{WrapRepeat, metadata.TextureRepeatRepeat},
		{WrapMirroredRepeat, metadata.TextureRepeatMirroredRepeat},
		{WrapClamp, metadata.TextureRepeatClampToEdge},
		{WrapDecal, metadata.TextureRepeatClampToEdge},
	}
	for _, c := range cases {
		if got := c.in.Repeat(); got != c.want {
			t.Errorf("WrapMode %v: got %v, want %v", c.in, got, c.want)
		}
	}
}
