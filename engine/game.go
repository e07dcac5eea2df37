package engine

import (
	"github.com/spaghettifunk/meshsync/engine/renderer/metadata"
)

// Game drives the scene the engine syncs. Every callback is optional.
type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnShutdown        Shutdown
}

// Initialize populates the scene before the first frame.
type Initialize func(e *Engine) error

// Update edits the scene delegate before the frame is synced.
type Update func(frame uint64) error

// Render receives the events the frame committed to the render scene.
type Render func(frame uint64, journal []metadata.JournalEntry) error
type Shutdown func() error
