package renderer

import (
	"fmt"

	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/renderer/metadata"
)

// Renderer owns the render scene and frames the commits made to it.
type Renderer struct {
	sceneType SceneType
	scene     *MemoryScene
	frame     uint64
}

func New(sceneType SceneType, opts SceneOptions) (*Renderer, error) {
	switch sceneType {
	case MemorySceneType:
		return &Renderer{sceneType: sceneType, scene: NewMemoryScene(opts)}, nil
	}
	return nil, fmt.Errorf("unsupported scene type %d", sceneType)
}

func (r *Renderer) Scene() Scene {
	return r.scene
}

// Memory returns the in memory scene for inspection.
func (r *Renderer) Memory() *MemoryScene {
	return r.scene
}

func (r *Renderer) BeginFrame() uint64 {
	r.frame = r.scene.AdvanceFrame()
	return r.frame
}

// EndFrame returns the events recorded during the current frame.
func (r *Renderer) EndFrame() []metadata.JournalEntry {
	var out []metadata.JournalEntry
	for _, e := range r.scene.Journal() {
		if e.Frame == r.frame {
			out = append(out, e)
		}
	}
	core.LogDebug("frame %d committed %d events", r.frame, len(out))
	return out
}

// Shutdown deletes every object left in the scene.
func (r *Renderer) Shutdown() error {
	for _, h := range r.scene.Handles() {
		if err := r.scene.UpdateObject(h, metadata.EventDel); err != nil {
			return err
		}
	}
	return nil
}
