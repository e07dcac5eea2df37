package testbed

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spaghettifunk/meshsync/engine"
	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/renderer/metadata"
)

var (
	frameStyle  = lipgloss.NewStyle().Bold(true)
	eventStyles = []struct {
		flag  metadata.EventType
		style lipgloss.Style
	}{
		{metadata.EventDel, lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f"))},
		{metadata.EventNew, lipgloss.NewStyle().Foreground(lipgloss.Color("#5fd75f"))},
		{metadata.EventTopology, lipgloss.NewStyle().Foreground(lipgloss.Color("#ffd75f"))},
	}
)

// Replay plays a scene script through the engine and prints the events
// every frame commits to the render scene.
type Replay struct {
	*engine.Game

	script *Script
	dir    string
	out    io.Writer
	color  bool
	engine *engine.Engine
	frames map[uint64]*FrameBlock
	events int
}

// NewReplay loads the script at path. Part paths in the script are
// relative to the script.
func NewReplay(cfg *engine.ApplicationConfig, path string, vars map[string]string, out io.Writer) (*Replay, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = engine.DefaultConfig()
	}
	script, err := DecodeScript(path, src, cfg.Motion.FPS, vars)
	if err != nil {
		return nil, err
	}

	r := &Replay{
		Game: &engine.Game{
			ApplicationConfig: cfg,
		},
		script: script,
		dir:    filepath.Dir(path),
		out:    out,
		frames: make(map[uint64]*FrameBlock, len(script.Frames)),
	}
	for _, f := range script.Frames {
		r.frames[f.frame] = f
	}
	r.State = script
	r.FnInitialize = r.Initialize
	r.FnUpdate = r.Update
	r.FnRender = r.Render
	r.FnShutdown = r.Shutdown
	return r, nil
}

// SetColor enables styled output.
func (r *Replay) SetColor(color bool) {
	r.color = color
}

// Frames is the number of frames Run needs to play the whole script.
func (r *Replay) Frames() uint64 {
	return r.script.FrameCount()
}

func (r *Replay) Initialize(e *engine.Engine) error {
	core.LogInfo("replaying %d meshes over %d frames", len(r.script.Meshes), r.Frames())
	r.engine = e

	for _, m := range r.script.Materials {
		e.Renderer().Memory().AddMaterial(m.Path)
	}
	for _, i := range r.script.Instancers {
		if err := r.setInstancer(i); err != nil {
			return err
		}
	}
	for _, m := range r.script.Meshes {
		if err := r.addMesh(m); err != nil {
			return err
		}
	}
	return nil
}

func (r *Replay) Update(frame uint64) error {
	f, ok := r.frames[frame]
	if !ok {
		return nil
	}
	for _, i := range f.Instancers {
		if err := r.setInstancer(i); err != nil {
			return err
		}
	}
	for _, m := range f.Meshes {
		if err := r.addMesh(m); err != nil {
			return err
		}
	}
	for _, edit := range f.Edits {
		if err := r.applyEdit(edit); err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
	}
	for _, id := range f.Remove {
		if err := r.engine.Index().RemovePrim(id); err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
		r.engine.Delegate().RemoveMesh(id)
	}
	return nil
}

func (r *Replay) Render(frame uint64, journal []metadata.JournalEntry) error {
	if len(journal) == 0 {
		return nil
	}
	_, err := fmt.Fprintln(r.out, r.style(frameStyle, fmt.Sprintf("frame %d", frame)))
	if err != nil {
		return err
	}
	for _, j := range journal {
		event := j.Event.String()
		for _, es := range eventStyles {
			if j.Event.Has(es.flag) {
				event = r.style(es.style, event)
				break
			}
		}
		if _, err := fmt.Fprintf(r.out, "  %-8s %-32s %s\n", j.Kind, j.Name, event); err != nil {
			return err
		}
	}
	r.events += len(journal)
	return nil
}

// Shutdown prints a summary of the replay.
func (r *Replay) Shutdown() error {
	if r.engine == nil {
		return nil
	}
	frames, passes, failed, avg := r.engine.Index().Metrics().Snapshot()
	_, err := fmt.Fprintf(r.out, "%d events, %d sync batches, %d passes (%d failed), %.3fms avg batch\n",
		r.events, frames, passes, failed, avg)
	for _, rep := range r.engine.Scope().Reports() {
		_, _ = fmt.Fprintf(r.out, "  %s %s [%s]: %s\n", rep.Severity, rep.Scope, rep.Code, rep.Message)
	}
	return err
}

func (r *Replay) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

func (r *Replay) setInstancer(i *InstancerBlock) error {
	xforms, err := i.matrices()
	if err != nil {
		return fmt.Errorf("instancer %s: %w", i.ID, err)
	}
	r.engine.Index().InsertInstancer(i.ID)
	r.engine.Delegate().SetInstancerTransforms(i.ID, xforms)
	return nil
}

func (r *Replay) addMesh(m *MeshBlock) error {
	d := r.engine.Delegate()
	d.AddMesh(m.ID, m.topology())
	if len(m.Points) > 0 {
		d.SetPoints(m.ID, m.Points)
	}
	for _, pv := range m.Primvars {
		interp, err := pv.interpolation()
		if err != nil {
			return fmt.Errorf("mesh %s: %w", m.ID, err)
		}
		d.SetPrimvar(m.ID, pv.Name, interp, pv.store())
	}
	if m.Material != "" {
		d.SetMaterialID(m.ID, m.Material)
	}
	if m.Instancer != "" {
		d.SetInstancer(m.ID, m.Instancer)
	}
	if len(m.Categories) > 0 {
		d.SetCategories(m.ID, m.Categories...)
	}
	if len(m.Transform) > 0 {
		xf, err := transformSample(m.Transform)
		if err != nil {
			return fmt.Errorf("mesh %s: %w", m.ID, err)
		}
		d.SetTransform(m.ID, xf...)
	}
	if m.Subdiv != nil {
		d.SetSubdivTags(m.ID, m.Subdiv.tags())
	}
	r.engine.Index().InsertMesh(m.ID)
	if m.Part != "" {
		return r.engine.LoadPart(m.ID, r.resolve(m.Part))
	}
	return nil
}

func (r *Replay) applyEdit(edit *EditBlock) error {
	d := r.engine.Delegate()
	id := edit.Prim
	if _, ok := r.engine.Index().Mesh(id); !ok {
		return fmt.Errorf("edit of unknown mesh %s", id)
	}

	if edit.Scheme != nil {
		top := d.MeshTopology(id)
		top.Scheme = *edit.Scheme
		d.SetTopology(id, top)
	}
	if edit.Part != nil {
		if err := r.engine.LoadPart(id, r.resolve(*edit.Part)); err != nil {
			return err
		}
	}
	if len(edit.Points) > 0 {
		d.SetPoints(id, edit.Points)
	}
	for _, pv := range edit.Primvars {
		interp, err := pv.interpolation()
		if err != nil {
			return fmt.Errorf("mesh %s: %w", id, err)
		}
		d.SetPrimvar(id, pv.Name, interp, pv.store())
	}
	for _, name := range edit.RemovePrimvars {
		d.RemovePrimvar(id, name)
	}
	if len(edit.Transform) > 0 {
		xf, err := transformSample(edit.Transform)
		if err != nil {
			return fmt.Errorf("mesh %s: %w", id, err)
		}
		d.SetTransform(id, xf...)
	}
	if edit.Material != nil {
		d.SetMaterialID(id, *edit.Material)
	}
	if edit.Visible != nil {
		d.SetVisible(id, *edit.Visible)
	}
	if edit.Categories != nil {
		d.SetCategories(id, edit.Categories...)
	}
	if edit.Instancer != nil {
		d.SetInstancer(id, *edit.Instancer)
	}
	if edit.Subdiv != nil {
		d.SetSubdivTags(id, edit.Subdiv.tags())
	}
	return nil
}

func (r *Replay) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.dir, path)
}
