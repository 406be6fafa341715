package importer

import (
	"testing"

	"github.com/spaghettifunk/ember/engine/renderer/metadata"
)

func TestDiscoverJobsDeduplicatesAcrossMaterials(t *testing.T) {
	shared := NewFileRef("shared.png", WrapRepeat, WrapRepeat)
	scene := &fakeScene{
		materials: []*fakeMaterial{
			newFakeMaterial("a").with(ChannelBaseColor, shared),
			newFakeMaterial("b").with(ChannelBaseColor, shared),
			newFakeMaterial("c").with(ChannelBaseColor, NewFileRef("other.png", WrapRepeat, WrapRepeat)),
		},
	}

	set := discoverJobs(scene)
	if len(set.jobs) != 2 {
		t.Fatalf("got %d unique jobs, want 2", len(set.jobs))
	}
	if set.slot(0, metadata.MapAlbedo) != set.slot(1, metadata.MapAlbedo) {
		t.Error("materials sharing one source must share the job index")
	}
	if set.slot(0, metadata.MapAlbedo) == set.slot(2, metadata.MapAlbedo) {
		t.Error("distinct sources must not collapse")
	}
}

func TestDiscoverJobsFirstOccurrenceOrder(t *testing.T) {
	scene := &fakeScene{
		materials: []*fakeMaterial{
			newFakeMaterial("a").
				with(ChannelBaseColor, NewFileRef("first.png", WrapRepeat, WrapRepeat)).
				with(ChannelNormals, NewFileRef("second.png", WrapRepeat, WrapRepeat)),
			newFakeMaterial("b").
				with(ChannelBaseColor, NewFileRef("third.png", WrapRepeat, WrapRepeat)),
		},
	}

	set := discoverJobs(scene)
	want := []string{"first.png", "second.png", "third.png"}
	if len(set.jobs) != len(want) {
		t.Fatalf("got %d jobs, want %d", len(set.jobs), len(want))
	}
	for i, path := range want {
		if set.jobs[i].source.path != path {
			t.Errorf("job %d: got %q, want %q", i, set.jobs[i].source.path, path)
		}
	}
}

func TestDiscoverJobsColorSpaceSplitsIdentity(t *testing.T) {
	// The same file as albedo on one material and as a normal map on another
	// differs in colour class, so it needs two GPU textures.
	scene := &fakeScene{
		materials: []*fakeMaterial{
			newFakeMaterial("a").with(ChannelBaseColor, NewFileRef("tex.png", WrapRepeat, WrapRepeat)),
			newFakeMaterial("b").with(ChannelNormals, NewFileRef("tex.png", WrapRepeat, WrapRepeat)),
		},
	}

	set := discoverJobs(scene)
	if len(set.jobs) != 2 {
		t.Fatalf("got %d unique jobs, want 2 (srgb is part of the identity)", len(set.jobs))
	}
	if set.slot(0, metadata.MapAlbedo) == set.slot(1, metadata.MapNormal) {
		t.Error("albedo and normal use of the same file must not share a job")
	}
}

func TestDiscoverJobsWrapModesSplitIdentity(t *testing.T) {
	scene := &fakeScene{
		materials: []*fakeMaterial{
			newFakeMaterial("a").with(ChannelBaseColor, NewFileRef("tex.png", WrapRepeat, WrapRepeat)),
			newFakeMaterial("b").with(ChannelBaseColor, NewFileRef("tex.png", WrapClamp, WrapClamp)),
		},
	}

	set := discoverJobs(scene)
	if len(set.jobs) != 2 {
		t.Fatalf("got %d unique jobs, want 2 (wrap modes are part of the identity)", len(set.jobs))
	}
}

func TestDiscoverJobsAbsentSlots(t *testing.T) {
	scene := &fakeScene{
		materials: []*fakeMaterial{
			newFakeMaterial("a").with(ChannelBaseColor, NewFileRef("tex.png", WrapRepeat, WrapRepeat)),
		},
	}

	set := discoverJobs(scene)
	for _, slot := range []metadata.TextureMapSlot{metadata.MapEmission, metadata.MapORM, metadata.MapNormal} {
		if got := set.slot(0, slot); got != -1 {
			t.Errorf("slot %s: got index %d, want -1", slot, got)
		}
	}
}

func TestDiscoverJobsNilMaterial(t *testing.T) {
	scene := &fakeScene{materials: []*fakeMaterial{nil}}
	set := discoverJobs(scene)
	if len(set.jobs) != 0 {
		t.Errorf("nil material produced %d jobs", len(set.jobs))
	}
	for s := 0; s < metadata.MapSlotCount; s++ {
		if set.slots[s] != -1 {
			t.Errorf("slot %d: got %d, want -1", s, set.slots[s])
		}
	}
}

func TestDiscoverJobsEmbeddedVersusFile(t *testing.T) {
	scene := &fakeScene{
		materials: []*fakeMaterial{
			newFakeMaterial("a").with(ChannelBaseColor, NewEmbeddedRef(0, WrapRepeat, WrapRepeat)),
			newFakeMaterial("b").with(ChannelBaseColor, NewEmbeddedRef(0, WrapRepeat, WrapRepeat)),
			newFakeMaterial("c").with(ChannelBaseColor, NewEmbeddedRef(1, WrapRepeat, WrapRepeat)),
		},
	}

	set := discoverJobs(scene)
	if len(set.jobs) != 2 {
		t.Fatalf("got %d unique jobs, want 2", len(set.jobs))
	}
	if set.slot(0, metadata.MapAlbedo) != set.slot(1, metadata.MapAlbedo) {
		t.Error("the same embedded index must dedup")
	}
}

func TestDiscoverJobsORMChannelIdentity(t *testing.T) {
	// Same occlusion source, but one material adds a roughness source; the
	// composites differ.
	occ := NewFileRef("occ.png", WrapRepeat, WrapRepeat)
	scene := &fakeScene{
		materials: []*fakeMaterial{
			newFakeMaterial("a").with(ChannelAmbientOcclusion, occ),
			newFakeMaterial("b").
				with(ChannelAmbientOcclusion, occ).
				with(ChannelRoughness, NewFileRef("rough.png", WrapRepeat, WrapRepeat)),
			newFakeMaterial("c").with(ChannelAmbientOcclusion, occ),
		},
	}

	set := discoverJobs(scene)
	if len(set.jobs) != 2 {
		t.Fatalf("got %d unique jobs, want 2", len(set.jobs))
	}
	if set.slot(0, metadata.MapORM) != set.slot(2, metadata.MapORM) {
		t.Error("identical composites must share a job")
	}
	if set.slot(0, metadata.MapORM) == set.slot(1, metadata.MapORM) {
		t.Error("composites with different channel sets must not share a job")
	}
}
