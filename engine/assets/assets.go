package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/meshsync/engine/assets/loaders"
	"github.com/spaghettifunk/meshsync/engine/core"
)

var ErrWatcherClosed = errors.New("asset watcher already closed")

type AssetInfo struct {
	Path string
	Type loaders.AssetType
	// ModTime is the modification time of the file when it was last loaded.
	ModTime    time.Time
	LastLoaded time.Time
}

// Loaded reports whether the asset was loaded at least once.
func (a AssetInfo) Loaded() bool {
	return !a.LastLoaded.IsZero()
}

// ChangeFunc is called from the watch goroutine when a loaded asset is
// written or removed on disk.
type ChangeFunc func(info AssetInfo, removed bool)

// Watcher loads procedural assets and watches the directories they live in.
// Loaded assets that change on disk are reported through the ChangeFunc.
type Watcher struct {
	assets  map[string]AssetInfo
	loaders map[loaders.AssetType]Loader

	mutex sync.RWMutex

	onChange ChangeFunc
	started  bool
	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
}

func NewWatcher(onChange ChangeFunc) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[loaders.AssetType]Loader),
		onChange: onChange,
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	w.registerLoader(loaders.AssetTypePart, &loaders.PartLoader{})
	return w, nil
}

// Watch starts watching the given directories and all their sub-directories.
func (w *Watcher) Watch(dirs ...string) error {
	w.mutex.Lock()
	if w.isClosed {
		w.mutex.Unlock()
		return ErrWatcherClosed
	}
	if !w.started {
		w.started = true
		go w.start()
	}
	w.mutex.Unlock()

	for _, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		if err := w.watchRecursive(abs, false); err != nil {
			return err
		}
		core.LogInfo("watching %s for asset changes", abs)
	}
	return nil
}

// Unwatch stops watching the named directory and all sub-directories.
func (w *Watcher) Unwatch(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	return w.watchRecursive(abs, true)
}

func (w *Watcher) registerLoader(assetType loaders.AssetType, loader Loader) {
	w.loaders[assetType] = loader
}

// Load reads the asset at path with the loader registered for its type.
func (w *Watcher) Load(path string, params loaders.LoadParams) (*loaders.Asset, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	assetType := determineAssetType(abs)
	if assetType == loaders.AssetTypeNone {
		return nil, fmt.Errorf("unknown asset type: %s", path)
	}
	loader, ok := w.loaders[assetType]
	if !ok {
		return nil, fmt.Errorf("no loader registered for asset type: %s", assetType)
	}

	asset, err := loader.Load(abs, params)
	if err != nil {
		return nil, err
	}

	w.mutex.Lock()
	w.assets[abs] = AssetInfo{
		Path:       abs,
		Type:       assetType,
		ModTime:    asset.ModTime,
		LastLoaded: time.Now(),
	}
	w.mutex.Unlock()
	return asset, nil
}

func (w *Watcher) Unload(asset *loaders.Asset) error {
	loader, ok := w.loaders[asset.Type]
	if !ok {
		return fmt.Errorf("no loader registered for asset type: %s", asset.Type)
	}
	return loader.Unload(asset)
}

// CheckReusable reports whether the asset at path was loaded before and the
// file has not been modified since.
func (w *Watcher) CheckReusable(path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return false, err
	}

	w.mutex.RLock()
	info, ok := w.assets[abs]
	w.mutex.RUnlock()
	return ok && info.Loaded() && info.ModTime.Equal(fi.ModTime()), nil
}

// Asset returns what is known about the asset at path.
func (w *Watcher) Asset(path string) (AssetInfo, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return AssetInfo{}, false
	}
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	info, ok := w.assets[abs]
	return info, ok
}

// Close stops the watch goroutine and releases the inotify handles.
func (w *Watcher) Close() error {
	w.mutex.Lock()
	if w.isClosed {
		w.mutex.Unlock()
		return nil
	}
	w.isClosed = true
	started := w.started
	w.mutex.Unlock()

	if !started {
		return w.fsnotify.Close()
	}
	close(w.done)
	<-w.stopped
	return nil
}

func (w *Watcher) start() {
	defer close(w.stopped)
	for {
		select {

		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := w.watchRecursive(e.Name, false); err != nil {
						core.LogWarn("failed to watch %s: %s", e.Name, err.Error())
					}
				}
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.handleFileEvent(e.Name)
			}
			// A removed directory cannot be stat'ed, so every removal is
			// also dropped from the watch list.
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				w.removeAsset(e.Name)
				_ = w.fsnotify.Remove(e.Name)
			}

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("%s", err)

		case <-w.done:
			if err := w.fsnotify.Close(); err != nil {
				core.LogError("%s", err)
			}
			return
		}
	}
}

func (w *Watcher) watchRecursive(path string, unWatch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if unWatch {
				return w.fsnotify.Remove(walkPath)
			}
			return w.fsnotify.Add(walkPath)
		}
		if !unWatch {
			w.discover(walkPath)
		}
		return nil
	})
}

// discover records a file without loading it.
func (w *Watcher) discover(path string) {
	assetType := determineAssetType(path)
	if assetType == loaders.AssetTypeNone {
		return
	}
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if _, ok := w.assets[path]; !ok {
		w.assets[path] = AssetInfo{Path: path, Type: assetType}
	}
}

// Handle the creation or modification of a file
func (w *Watcher) handleFileEvent(path string) {
	assetType := determineAssetType(path)
	if assetType == loaders.AssetTypeNone {
		return
	}

	w.mutex.Lock()
	info, ok := w.assets[path]
	if !ok {
		info = AssetInfo{Path: path, Type: assetType}
		w.assets[path] = info
	}
	w.mutex.Unlock()

	if info.Loaded() && w.onChange != nil {
		core.LogDebug("asset %s changed on disk", path)
		w.onChange(info, false)
	}
}

// Remove the asset from the index if it was deleted
func (w *Watcher) removeAsset(path string) {
	w.mutex.Lock()
	info, ok := w.assets[path]
	delete(w.assets, path)
	w.mutex.Unlock()

	if ok && info.Loaded() && w.onChange != nil {
		w.onChange(info, true)
	}
}

func determineAssetType(path string) loaders.AssetType {
	switch {
	case strings.HasSuffix(path, loaders.PartSuffix):
		return loaders.AssetTypePart
	default:
		return loaders.AssetTypeNone
	}
}
