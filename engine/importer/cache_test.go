package importer

import (
	"testing"

	"github.com/spaghettifunk/ember/engine/renderer/metadata"
)

func buildTestCache(t *testing.T) (*TextureCache, *fakeBackend) {
	t.Helper()
	scene := &fakeScene{
		materials: []*fakeMaterial{
			newFakeMaterial("a").
				with(ChannelBaseColor, NewFileRef("alb.png", WrapRepeat, WrapRepeat)).
				with(ChannelNormals, NewFileRef("n.png", WrapRepeat, WrapRepeat)),
			newFakeMaterial("b").
				with(ChannelBaseColor, NewFileRef("alb.png", WrapRepeat, WrapRepeat)),
		},
	}
	decoder := newFakeDecoder()
	decoder.addFile("alb.png", rgbaImage(1, 1, 1, 1, 1, 255))
	decoder.addFile("n.png", rgbaImage(1, 1, 128, 128, 255, 255))

	backend := &fakeBackend{}
	imp := newTestImporter(t, backend, decoder)
	cache, err := imp.LoadTextureCache(scene, Options{})
	if err != nil {
		t.Fatal(err)
	}
	return cache, backend
}

func TestCacheCounts(t *testing.T) {
	cache, _ := buildTestCache(t)
	if cache.MaterialCount() != 2 {
		t.Errorf("got %d materials, want 2", cache.MaterialCount())
	}
	if cache.TextureCount() != 2 {
		t.Errorf("got %d textures, want 2", cache.TextureCount())
	}
}

func TestCacheGetOutOfRange(t *testing.T) {
	cache, _ := buildTestCache(t)
	if cache.Get(-1, metadata.MapAlbedo) != nil {
		t.Error("negative material index must return nil")
	}
	if cache.Get(2, metadata.MapAlbedo) != nil {
		t.Error("material index past the end must return nil")
	}
}

func TestCacheDestroyAll(t *testing.T) {
	cache, backend := buildTestCache(t)
	cache.Get(0, metadata.MapAlbedo)

	cache.Destroy(true)
	if len(backend.destroyed) != 2 {
		t.Errorf("destroyed %d textures, want all 2", len(backend.destroyed))
	}
	if cache.Get(0, metadata.MapAlbedo) != nil {
		t.Error("a destroyed cache must not hand out textures")
	}
}

func TestCacheDestroyUnclaimedOnly(t *testing.T) {
	cache, backend := buildTestCache(t)

	// Claiming through any material marks the shared texture used.
	claimed := cache.Get(1, metadata.MapAlbedo)
	if claimed == nil {
		t.Fatal("expected the shared albedo texture")
	}

	cache.Destroy(false)
	if len(backend.destroyed) != 1 {
		t.Fatalf("destroyed %d textures, want only the unclaimed normal map", len(backend.destroyed))
	}
	if backend.destroyed[0] == claimed.Name {
		t.Error("the claimed texture must survive")
	}
}

func TestCacheDestroyIdempotent(t *testing.T) {
	cache, backend := buildTestCache(t)
	cache.Destroy(true)
	cache.Destroy(true)
	cache.Destroy(false)
	if len(backend.destroyed) != 2 {
		t.Errorf("repeated Destroy released %d textures, want 2", len(backend.destroyed))
	}
}

func TestCacheDestroyNil(t *testing.T) {
	var cache *TextureCache
	cache.Destroy(true)
}
