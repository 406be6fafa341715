package assets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/ember/engine/core"
)

// AssetInfo is one indexed file under the watched asset root.
type AssetInfo struct {
	Path     string
	Type     AssetType
	Modified time.Time
}

// AssetManager indexes the asset directory and watches it for changes.
// Create and write events on known asset types are published as
// EVENT_CODE_ASSET_MODIFIED so running systems can hot-reload.
type AssetManager struct {
	assets map[string]AssetInfo

	mutex sync.RWMutex

	watcher  *fsnotify.Watcher
	done     chan struct{}
	isClosed bool
}

func NewAssetManager() (*AssetManager, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &AssetManager{
		assets:  make(map[string]AssetInfo),
		watcher: watcher,
		done:    make(chan struct{}),
	}, nil
}

// Initialize indexes assetsDir recursively and starts the watch loop.
func (am *AssetManager) Initialize(assetsDir string) error {
	if err := am.watchRecursive(assetsDir); err != nil {
		return err
	}
	go am.run()
	return nil
}

// Lookup returns the index entry for a path, if the manager knows it.
func (am *AssetManager) Lookup(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[path]
	return info, ok
}

// AssetCount returns the number of indexed assets.
func (am *AssetManager) AssetCount() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

func (am *AssetManager) Shutdown() error {
	if am.isClosed {
		return errors.New("asset manager already closed")
	}
	am.isClosed = true
	close(am.done)
	return nil
}

func (am *AssetManager) run() {
	for {
		select {
		case e, ok := <-am.watcher.Events:
			if !ok {
				return
			}
			if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					am.watchRecursive(e.Name)
				}
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.indexFile(e.Name, true)
			}
			if e.Op&fsnotify.Remove != 0 {
				am.removeAsset(e.Name)
				am.watcher.Remove(e.Name)
			}

		case err, ok := <-am.watcher.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err.Error())

		case <-am.done:
			am.watcher.Close()
			return
		}
	}
}

// watchRecursive adds every directory under path to the watch list and
// indexes the files found along the way.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return am.watcher.Add(walkPath)
		}
		am.indexFile(walkPath, false)
		return nil
	})
}

// indexFile records a file in the index; notify additionally publishes the
// modification to the event system.
func (am *AssetManager) indexFile(path string, notify bool) {
	assetType := determineAssetType(path)
	if assetType == AssetTypeNone {
		return
	}

	am.mutex.Lock()
	am.assets[path] = AssetInfo{
		Path:     path,
		Type:     assetType,
		Modified: time.Now(),
	}
	am.mutex.Unlock()

	if notify {
		core.EventFire(core.EventContext{
			Type: core.EVENT_CODE_ASSET_MODIFIED,
			Data: &core.AssetEvent{Path: path},
		})
	}
}

func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	delete(am.assets, path)
}

func determineAssetType(path string) AssetType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".bmp", ".tiff":
		return AssetTypeImage
	case ".gltf", ".glb":
		return AssetTypeScene
	default:
		return AssetTypeNone
	}
}
