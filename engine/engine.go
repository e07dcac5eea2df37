package engine

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/meshsync/engine/assets"
	"github.com/spaghettifunk/meshsync/engine/assets/loaders"
	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/delegate"
	"github.com/spaghettifunk/meshsync/engine/ingest"
	"github.com/spaghettifunk/meshsync/engine/renderer"
	"github.com/spaghettifunk/meshsync/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running frames
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

func (s Stage) String() string {
	switch s {
	case EngineStageInitializing:
		return "initializing"
	case EngineStageInitialized:
		return "initialized"
	case EngineStageRunning:
		return "running"
	case EngineStageShuttingDown:
		return "shutting-down"
	}
	return "uninitialized"
}

// Engine wires a scene delegate, the render index syncing it and the render
// scene it commits to, and steps them one frame at a time.
type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       *ApplicationConfig
	isRunning    atomic.Bool
	clock        *core.Clock
	frameTime    time.Duration

	renderer *renderer.Renderer
	delegate *delegate.MemoryDelegate
	index    *systems.RenderIndex
	watcher  *assets.Watcher
	scope    *core.ErrorScope

	mu sync.Mutex
	// asset path -> prims built from it
	sources map[string][]string
	// asset path -> removed, applied at the start of the next frame
	pending map[string]bool
}

func New(g *Game) (*Engine, error) {
	cfg := g.ApplicationConfig
	if cfg == nil {
		cfg = DefaultConfig()
		g.ApplicationConfig = cfg
	}
	if err := cfg.Validate(); err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	if err := core.SetLogLevel(cfg.Log.Level); err != nil {
		return nil, err
	}

	r, err := renderer.New(renderer.MemorySceneType, renderer.SceneOptions{
		Defaults:         cfg.Motion.Defaults(),
		NestedInstancing: cfg.Sync.NestedInstancing,
	})
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}

	d := delegate.NewMemoryDelegate()
	scope := core.NewErrorScope(cfg.Name)
	index, err := systems.NewRenderIndex(d, r.Scene(), cfg.Sync, cfg.Motion, scope)
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}

	e := &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       cfg,
		clock:        core.NewClock(),
		frameTime:    time.Duration(float64(time.Second) / float64(cfg.Motion.FPS)),
		renderer:     r,
		delegate:     d,
		index:        index,
		scope:        scope,
		sources:      make(map[string][]string),
		pending:      make(map[string]bool),
	}

	w, err := assets.NewWatcher(e.onAssetChanged)
	if err != nil {
		core.LogError("%s", err)
		_ = index.Shutdown()
		return nil, err
	}
	e.watcher = w
	return e, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	if e.config.Watch.Enabled {
		if err := e.watcher.Watch(e.config.Watch.Paths...); err != nil {
			return err
		}
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	core.LogInfo("%s initialized with %d prims", e.config.Name, len(e.index.PrimIDs()))
	return nil
}

// Run steps frames until Stop is called. A non zero frames limits the run
// to that many frames, back to back. Otherwise frames are paced at the
// configured fps so watched assets keep flowing in.
func (e *Engine) Run(frames uint64) error {
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)
	e.clock.Start()
	defer e.clock.Stop()

	var ticker *time.Ticker
	if frames == 0 {
		ticker = time.NewTicker(e.frameTime)
		defer ticker.Stop()
	}

	for n := uint64(0); e.isRunning.Load() && (frames == 0 || n < frames); n++ {
		if err := e.Frame(); err != nil {
			core.LogError("frame failed, shutting down: %s", err.Error())
			e.isRunning.Store(false)
			return err
		}
		if ticker != nil {
			<-ticker.C
		}
	}
	e.isRunning.Store(false)
	return nil
}

// Frame runs a single frame: pending asset reloads, the game update, a
// sync of every dirty prim, then the game render callback with the events
// the frame committed. Prims failing to sync are logged and retried on the
// next frame.
func (e *Engine) Frame() error {
	frame := e.renderer.BeginFrame()
	start := e.clock.Elapsed()

	e.applyAssetChanges()

	if e.gameInstance.FnUpdate != nil {
		if err := e.gameInstance.FnUpdate(frame); err != nil {
			return err
		}
	}

	if err := e.index.SyncAll(); err != nil {
		core.LogWarn("frame %d: %s", frame, err.Error())
	}
	journal := e.renderer.EndFrame()

	e.clock.Update()
	core.LogDebug("frame %d: %d events in %s", frame, len(journal), e.clock.Elapsed()-start)

	if e.gameInstance.FnRender != nil {
		if err := e.gameInstance.FnRender(frame, journal); err != nil {
			return err
		}
	}
	return nil
}

// Stop makes Run return after the current frame.
func (e *Engine) Stop() {
	e.isRunning.Store(false)
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	e.Stop()

	var errs []error
	errs = append(errs, e.index.Shutdown())
	errs = append(errs, e.watcher.Close())
	errs = append(errs, e.renderer.Shutdown())
	if e.gameInstance.FnShutdown != nil {
		errs = append(errs, e.gameInstance.FnShutdown())
	}
	return errors.Join(errs...)
}

func (e *Engine) Stage() Stage                       { return e.currentStage }
func (e *Engine) Config() *ApplicationConfig         { return e.config }
func (e *Engine) Renderer() *renderer.Renderer       { return e.renderer }
func (e *Engine) Delegate() *delegate.MemoryDelegate { return e.delegate }
func (e *Engine) Index() *systems.RenderIndex        { return e.index }
func (e *Engine) Watcher() *assets.Watcher           { return e.watcher }
func (e *Engine) Scope() *core.ErrorScope            { return e.scope }

// LoadPart reads a procedural part asset into the mesh primID. The mesh
// is reloaded whenever the file changes while the watcher runs.
func (e *Engine) LoadPart(primID, path string) error {
	asset, err := e.loadPart(primID, path)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range e.sources[asset.FullPath] {
		if id == primID {
			return nil
		}
	}
	e.sources[asset.FullPath] = append(e.sources[asset.FullPath], primID)
	return nil
}

func (e *Engine) loadPart(primID, path string) (*loaders.Asset, error) {
	asset, err := e.watcher.Load(path, loaders.LoadParams{
		Strings: e.index.Param().Strings(),
		Scope:   e.scope.Child(primID),
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	part, ok := asset.Data.(*ingest.Part)
	if !ok {
		return nil, fmt.Errorf("%s is not a part asset", path)
	}
	if !e.delegate.SetPart(primID, part) {
		return nil, fmt.Errorf("no mesh %s to load %s into", primID, path)
	}
	return asset, nil
}

func (e *Engine) onAssetChanged(info assets.AssetInfo, removed bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.sources[info.Path]; ok {
		e.pending[info.Path] = removed
	}
}

func (e *Engine) applyAssetChanges() {
	e.mu.Lock()
	pending := e.pending
	e.pending = make(map[string]bool)
	bound := make(map[string][]string, len(pending))
	for path := range pending {
		bound[path] = append([]string(nil), e.sources[path]...)
	}
	e.mu.Unlock()

	paths := make([]string, 0, len(pending))
	for path := range pending {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if pending[path] {
			core.LogWarn("asset %s was removed, %v keep their last geometry", path, bound[path])
			e.mu.Lock()
			delete(e.sources, path)
			e.mu.Unlock()
			continue
		}
		// Editors often emit several writes per save.
		if ok, err := e.watcher.CheckReusable(path); err == nil && ok {
			continue
		}
		for _, primID := range bound[path] {
			if _, err := e.loadPart(primID, path); err != nil {
				core.LogError("reload of %s failed: %s", primID, err.Error())
				e.scope.Child(primID).ReportError(err)
				continue
			}
			core.LogInfo("reloaded %s from %s", primID, path)
		}
	}
}
