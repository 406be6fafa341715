package engine

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spaghettifunk/ember/engine/assets"
	"github.com/spaghettifunk/ember/engine/assets/loaders"
	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/importer"
	"github.com/spaghettifunk/ember/engine/platform"
	"github.com/spaghettifunk/ember/engine/renderer/metadata"
	"github.com/spaghettifunk/ember/engine/renderer/vulkan"
	"github.com/spaghettifunk/ember/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// Engine wires the platform window, the rendering backend, the asset
// watcher and the import pipeline together. ImportScene and Run must be
// called from the main goroutine; the backend binds to it.
type Engine struct {
	currentStage Stage
	config       *Config
	isRunning    bool
	isSuspended  bool

	platform     *platform.Platform
	backend      *vulkan.VulkanRenderer
	assetManager *assets.AssetManager

	jobSystem     *systems.JobSystem
	textureSystem *systems.TextureSystem
	importer      *importer.Importer

	// Scenes imported so far, keyed by path. Each owns its texture cache
	// until Shutdown. The mutex covers lookups from the asset watcher
	// goroutine; cache contents are still main-goroutine only.
	scenesMu sync.RWMutex
	scenes   map[string]*importer.TextureCache

	// Reimport requests from the asset watcher, drained by the run loop so
	// the GPU uploads stay on the main goroutine.
	reimports chan string

	width  uint32
	height uint32

	clock    *core.Clock
	lastTime float64
}

func New(cfg *Config) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	core.SetLogLevel(parseLogLevel(cfg.Logging.Level))

	p, err := platform.New()
	if err != nil {
		return nil, err
	}

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		config:       cfg,
		clock:        core.NewClock(),
		platform:     p,
		backend:      vulkan.New(p),
		assetManager: am,
		scenes:       make(map[string]*importer.TextureCache),
		reimports:    make(chan string, 8),
		isRunning:    true,
		width:        cfg.Application.StartWidth,
		height:       cfg.Application.StartHeight,
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageBooting

	if !core.EventSystemInitialize() {
		return fmt.Errorf("failed to initialize the event system")
	}

	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e.onEvent)
	core.EventRegister(core.EVENT_CODE_RESIZED, e.onResized)
	core.EventRegister(core.EVENT_CODE_ASSET_MODIFIED, e.onAssetModified)

	if err := e.platform.Startup(e.config.Application.Name,
		e.config.Application.StartPosX,
		e.config.Application.StartPosY,
		e.config.Application.StartWidth,
		e.config.Application.StartHeight); err != nil {
		return err
	}

	if err := e.backend.Initialize(e.config.Application.Name, e.width, e.height); err != nil {
		return err
	}

	if err := e.assetManager.Initialize(e.config.Assets.Dir); err != nil {
		// A missing asset directory disables hot reload, nothing else.
		core.LogWarn("asset watching disabled: %s", err.Error())
	}

	js, err := systems.NewJobSystem(2, 16)
	if err != nil {
		return err
	}
	e.jobSystem = js

	ts, err := systems.NewTextureSystem(&systems.TextureSystemConfig{
		MaxTextureCount: e.config.Textures.MaxRegistered,
	}, e.backend)
	if err != nil {
		return err
	}
	if err := ts.Initialize(); err != nil {
		return err
	}
	e.textureSystem = ts

	imp, err := importer.New(e.backend, loaders.NewImageCodec())
	if err != nil {
		return err
	}
	e.importer = imp

	e.currentStage = EngineStageInitialized
	return nil
}

// ImportScene loads a glTF scene file and runs the texture import pipeline
// over its materials. The resulting cache stays owned by the engine and is
// released on Shutdown.
func (e *Engine) ImportScene(path string) (*importer.TextureCache, error) {
	scene, err := importer.LoadGLTF(path)
	if err != nil {
		return nil, err
	}

	colorSpace, err := e.config.Textures.ColorSpaceValue()
	if err != nil {
		return nil, err
	}
	filter, err := e.config.Textures.FilterValue()
	if err != nil {
		return nil, err
	}

	cache, err := e.importer.LoadTextureCache(scene, importer.Options{
		ColorSpace: colorSpace,
		Filter:     filter,
		Workers:    e.config.Textures.Workers,
	})
	if err != nil {
		return nil, err
	}

	e.scenesMu.Lock()
	old := e.scenes[path]
	e.scenes[path] = cache
	e.scenesMu.Unlock()
	if old != nil {
		old.Destroy(true)
	}

	core.EventFire(core.EventContext{
		Type: core.EVENT_CODE_SCENE_IMPORTED,
		Data: &core.SceneImportedEvent{
			Path:          path,
			MaterialCount: cache.MaterialCount(),
			TextureCount:  cache.TextureCount(),
		},
	})
	return cache, nil
}

// TextureFor returns the texture bound to a material map slot of an imported
// scene, falling back to the built-in default for the slot.
func (e *Engine) TextureFor(scenePath string, material int, slot metadata.TextureMapSlot) *metadata.Texture {
	e.scenesMu.RLock()
	cache := e.scenes[scenePath]
	e.scenesMu.RUnlock()
	if cache != nil {
		if t := cache.Get(material, slot); t != nil {
			return t
		}
	}
	return e.textureSystem.DefaultForSlot(slot)
}

func (e *Engine) Run() error {
	e.currentStage = EngineStageRunning
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning {
		if !e.platform.PumpMessages() {
			e.isRunning = false
		}

		e.drainReimports()

		if !e.isSuspended {
			e.clock.Update()
			currentTime := e.clock.Elapsed()
			delta := currentTime - e.lastTime

			if err := e.backend.BeginFrame(delta); err != nil {
				core.LogError("begin frame failed: %s", err.Error())
				e.isRunning = false
				break
			}
			if err := e.backend.EndFrame(delta); err != nil {
				core.LogError("end frame failed: %s", err.Error())
				e.isRunning = false
				break
			}

			e.lastTime = currentTime
		}
	}

	return nil
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	e.isRunning = false

	e.scenesMu.Lock()
	for path, cache := range e.scenes {
		cache.Destroy(true)
		delete(e.scenes, path)
	}
	e.scenesMu.Unlock()

	if e.jobSystem != nil {
		if err := e.jobSystem.Shutdown(); err != nil {
			return err
		}
	}
	if e.textureSystem != nil {
		if err := e.textureSystem.Shutdown(); err != nil {
			return err
		}
	}
	if err := e.assetManager.Shutdown(); err != nil {
		core.LogWarn(err.Error())
	}
	if err := e.backend.Shutdown(); err != nil {
		return err
	}
	if err := core.EventSystemShutdown(); err != nil {
		return err
	}
	return e.platform.Shutdown()
}

// GetFramebufferSize returns the width and height (in this order) of the
// application framebuffer.
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) onEvent(context core.EventContext) {
	if context.Type == core.EVENT_CODE_APPLICATION_QUIT {
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning = false
	}
}

func (e *Engine) onResized(context core.EventContext) {
	se, ok := context.Data.(*core.SystemEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return
	}

	width := se.WindowWidth
	height := se.WindowHeight
	if width == e.width && height == e.height {
		return
	}
	e.width = width
	e.height = height

	core.LogDebug("Window resize: %d, %d", width, height)

	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if err := e.backend.Resized(uint16(width), uint16(height)); err != nil {
		core.LogError(err.Error())
	}
}

// onAssetModified schedules a reimport for changed files belonging to a
// scene the engine has already imported. The file is re-parsed on the job
// system first, so a half-written save never reaches the run loop; the GPU
// upload itself happens when drainReimports picks the path up on the main
// goroutine.
func (e *Engine) onAssetModified(context core.EventContext) {
	ae, ok := context.Data.(*core.AssetEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return
	}

	e.scenesMu.RLock()
	scenePath := ae.Path
	if _, imported := e.scenes[scenePath]; !imported {
		// A texture changed; reimport the scene whose directory holds it.
		scenePath = ""
		for path := range e.scenes {
			if strings.HasPrefix(ae.Path, filepath.Dir(path)+string(filepath.Separator)) {
				scenePath = path
				break
			}
		}
	}
	e.scenesMu.RUnlock()
	if scenePath == "" {
		return
	}

	e.jobSystem.SubmitNonBlocking(systems.JobTask{
		Name: "reimport " + scenePath,
		OnStart: func() (interface{}, error) {
			if _, err := importer.LoadGLTF(scenePath); err != nil {
				return nil, err
			}
			return scenePath, nil
		},
		OnComplete: func(result interface{}) {
			select {
			case e.reimports <- result.(string):
			default:
				core.LogWarn("reimport queue full, dropping '%s'", result.(string))
			}
		},
		OnFailure: func(err error) {
			core.LogWarn("reimport of '%s' skipped: %v", scenePath, err)
		},
	})
}

// drainReimports runs pending scene reimports on the main goroutine.
func (e *Engine) drainReimports() {
	for {
		select {
		case path := <-e.reimports:
			core.LogInfo("reimporting '%s'", path)
			if _, err := e.ImportScene(path); err != nil {
				core.LogError("reimport of '%s' failed: %s", path, err.Error())
			}
		default:
			return
		}
	}
}

func parseLogLevel(level string) core.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return core.DebugLevel
	case "warn":
		return core.WarnLevel
	case "error":
		return core.ErrorLevel
	default:
		return core.InfoLevel
	}
}
