package importer

import (
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/math"
	"github.com/spaghettifunk/ember/engine/renderer/metadata"
)

// Options control one LoadTextureCache run.
type Options struct {
	ColorSpace metadata.ColorSpace
	Filter     metadata.TextureFilter
	// Workers caps the decode pool. Zero means the available hardware
	// parallelism. The pool never exceeds the unique job count.
	Workers int
}

// loaderContext is the state shared between the decode workers and the
// uploading goroutine. jobs is read-only during the worker phase; images is
// partitioned by job index, each entry written by exactly one worker and
// read by exactly one upload step, so the completion channel is the only
// synchronized structure.
type loaderContext struct {
	scene   Scene
	baseDir string
	decoder ImageDecoder

	jobs   []JobDescriptor
	images []metadata.Image

	nextJob   atomic.Int32
	completed chan int
}

// LoadTextureCache decodes and uploads every texture the scene's materials
// reference. Discovery (extraction + deduplication) runs synchronously on
// the calling goroutine; decoding fans out to a worker pool; the calling
// goroutine then drains completions and performs all GPU uploads, since it
// is the one holding the rendering context.
//
// Per-source decode failures degrade that texture (or ORM channel) and are
// logged; they never abort the import. The returned cache owns every
// uploaded texture until its Destroy.
func (imp *Importer) LoadTextureCache(scene Scene, opts Options) (*TextureCache, error) {
	if scene == nil {
		return nil, ErrNilScene
	}

	materialCount := scene.MaterialCount()
	set := discoverJobs(scene)
	totalJobs := len(set.jobs)

	cache := &TextureCache{
		backend:       imp.backend,
		slots:         make([]textureSlot, totalJobs),
		table:         set.slots,
		materialCount: materialCount,
	}
	if totalJobs == 0 {
		return cache, nil
	}

	ctx := &loaderContext{
		scene:     scene,
		baseDir:   scene.BaseDir(),
		decoder:   imp.decoder,
		jobs:      set.jobs,
		images:    make([]metadata.Image, totalJobs),
		completed: make(chan int, totalJobs),
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = math.Clamp(workers, 1, totalJobs)

	core.LogInfo("importing %d unique textures for %d materials with %d workers", totalJobs, materialCount, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx.runWorker()
		}()
	}

	// Progressive upload: textures reach the GPU as soon as their job
	// decodes, in whatever order workers finish. Each slot is written once,
	// so the final cache does not depend on arrival order.
	for uploaded := 0; uploaded < totalJobs; uploaded++ {
		index := <-ctx.completed
		img := &ctx.images[index]
		if !img.Valid() {
			// Total decode failure; the slot stays absent and consumers fall
			// back to the default textures.
			continue
		}

		job := &ctx.jobs[index]
		srgb := job.srgb && opts.ColorSpace == metadata.ColorSpaceSRGB

		texture := &metadata.Texture{
			Name:         job.textureName(),
			Width:        uint32(img.Width),
			Height:       uint32(img.Height),
			ChannelCount: uint8(img.ChannelCount),
		}
		uploadOpts := metadata.TextureUploadOptions{
			SRGB:            srgb,
			Filter:          opts.Filter,
			RepeatU:         job.wrapU.Repeat(),
			RepeatV:         job.wrapV.Repeat(),
			GenerateMipmaps: opts.Filter.NeedsMipmaps(),
		}
		if err := imp.backend.TextureCreate(img.Pixels, texture, uploadOpts); err != nil {
			core.LogWarn("failed to upload texture '%s': %v", texture.Name, err)
		} else {
			cache.slots[index] = textureSlot{texture: texture, srgb: srgb}
		}

		img.Release()
	}

	wg.Wait()
	core.LogInfo("scene texture import complete: %d textures uploaded", cache.TextureCount())

	return cache, nil
}

// runWorker claims job indices off the shared counter until the table is
// exhausted, decoding each claimed job and publishing its index. Workers
// never touch the GPU.
func (ctx *loaderContext) runWorker() {
	total := int32(len(ctx.jobs))
	for {
		index := ctx.nextJob.Add(1) - 1
		if index >= total {
			return
		}
		ctx.images[index] = ctx.decodeJob(&ctx.jobs[index])
		ctx.completed <- int(index)
	}
}

func (ctx *loaderContext) decodeJob(job *JobDescriptor) metadata.Image {
	switch job.kind {
	case jobSimple:
		return ctx.loadSource(job.source)
	case jobORMComposite:
		return ctx.composeORM(job)
	}
	return metadata.Image{}
}

// loadSource resolves one texture source to pixels. Embedded pre-decoded
// blobs alias the scene's memory and are marked not owned; everything else
// decodes into a fresh, owned buffer.
func (ctx *loaderContext) loadSource(src textureSource) metadata.Image {
	if src.embedded >= 0 {
		tex := ctx.scene.EmbeddedTexture(int(src.embedded))
		if tex == nil {
			core.LogWarn("embedded texture %d not present in scene", src.embedded)
			return metadata.Image{}
		}
		if tex.Compressed() {
			img, err := ctx.decoder.DecodeMemory(tex.Data)
			if err != nil {
				core.LogWarn("failed to decode embedded texture %d: %v", src.embedded, err)
				return metadata.Image{}
			}
			img.Owned = true
			return *img
		}
		return metadata.Image{
			Width:        tex.Width,
			Height:       tex.Height,
			ChannelCount: 4,
			Pixels:       tex.Data,
			Owned:        false,
		}
	}

	path := src.path
	if !filepath.IsAbs(path) {
		path = filepath.Join(ctx.baseDir, path)
	}
	img, err := ctx.decoder.DecodeFile(path)
	if err != nil {
		core.LogWarn("failed to decode texture '%s': %v", path, err)
		return metadata.Image{}
	}
	img.Owned = true
	return *img
}

// composeORM loads the up-to-three channel sources, inverts shininess-based
// roughness, and packs them into one owned RGB image. Missing or failed
// channels degrade to occlusion=1, roughness=1, metalness=0 instead of
// failing the job.
func (ctx *loaderContext) composeORM(job *JobDescriptor) metadata.Image {
	var loaded [3]metadata.Image
	var sources [3]*metadata.Image

	for i := 0; i < 3; i++ {
		if !job.ormPresent[i] {
			continue
		}
		if i == ormMetalness && job.combinedMR {
			// One packed metallic-roughness image: decoded once, read for
			// both channels.
			sources[ormMetalness] = sources[ormRoughness]
			continue
		}
		loaded[i] = ctx.loadSource(job.ormSources[i])
		if loaded[i].Valid() {
			sources[i] = &loaded[i]
		}
	}

	if job.invertRoughness && sources[ormRoughness] != nil {
		if !sources[ormRoughness].Owned {
			// Never invert memory the scene owns.
			sources[ormRoughness] = sources[ormRoughness].Clone()
		}
		sources[ormRoughness].ColorInvert()
	}

	composed := metadata.ComposeRGB(sources, ormDefaultFill)

	for i := 0; i < 3; i++ {
		if sources[i] == nil || !sources[i].Owned {
			continue
		}
		if i == ormMetalness && sources[ormMetalness] == sources[ormRoughness] {
			continue
		}
		sources[i].Release()
	}

	if composed == nil {
		return metadata.Image{}
	}
	return *composed
}

// ormDefaultFill is the neutral ORM texel: full occlusion, full roughness,
// no metalness.
var ormDefaultFill = [3]uint8{255, 255, 0}
