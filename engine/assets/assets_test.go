package assets

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spaghettifunk/meshsync/engine/assets/loaders"
	"github.com/spaghettifunk/meshsync/engine/core"
)

func init() {
	core.SetLogOutput(io.Discard)
}

const triPart = `
face_counts = [3]
vertices = [0, 1, 2]

attribute "P" {
  owner = "point"
  tuple_size = 3
  floats = [0, 0, 0, 1, 0, 0, 0, 1, 0]
}
`

type changeLog struct {
	mu      sync.Mutex
	changes []string
	ch      chan AssetInfo
}

func newChangeLog() *changeLog {
	return &changeLog{ch: make(chan AssetInfo, 16)}
}

func (c *changeLog) record(info AssetInfo, removed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kind := "write"
	if removed {
		kind = "remove"
	}
	c.changes = append(c.changes, kind+" "+filepath.Base(info.Path))
	select {
	case c.ch <- info:
	default:
	}
}

func (c *changeLog) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.changes...)
}

func writePart(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(triPart), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestWatcher(t *testing.T, fn ChangeFunc) *Watcher {
	t.Helper()
	w, err := NewWatcher(fn)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestWatcherCheckReusable(t *testing.T) {
	path := writePart(t, t.TempDir(), "tri.part.hcl")
	w := newTestWatcher(t, nil)

	if ok, err := w.CheckReusable(path); err != nil || ok {
		t.Fatalf("never loaded asset reusable = %v, %v", ok, err)
	}
	asset, err := w.Load(path, loaders.LoadParams{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if asset.Type != loaders.AssetTypePart {
		t.Errorf("type = %s", asset.Type)
	}
	if ok, _ := w.CheckReusable(path); !ok {
		t.Error("unchanged asset should be reusable")
	}

	later := asset.ModTime.Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	if ok, _ := w.CheckReusable(path); ok {
		t.Error("modified asset should not be reusable")
	}
	if _, err := w.Load(path, loaders.LoadParams{}); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if ok, _ := w.CheckReusable(path); !ok {
		t.Error("reloaded asset should be reusable")
	}

	if _, err := w.CheckReusable(filepath.Join(t.TempDir(), "gone.part.hcl")); err == nil {
		t.Error("missing file should report an error")
	}
}

func TestWatcherRejectsUnknownTypes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := newTestWatcher(t, nil)
	if _, err := w.Load(path, loaders.LoadParams{}); err == nil {
		t.Error("expected an error for an unknown asset type")
	}
}

func TestWatcherReportsLoadedAssetsOnly(t *testing.T) {
	dir := t.TempDir()
	loaded := writePart(t, dir, "a.part.hcl")
	other := writePart(t, dir, "b.part.hcl")

	log := newChangeLog()
	w := newTestWatcher(t, log.record)
	if _, err := w.Load(loaded, loaders.LoadParams{}); err != nil {
		t.Fatalf("Load: %v", err)
	}

	w.handleFileEvent(other)
	w.handleFileEvent(filepath.Join(dir, "readme.md"))
	w.handleFileEvent(loaded)
	w.removeAsset(loaded)

	want := []string{"write a.part.hcl", "remove a.part.hcl"}
	got := log.snapshot()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("changes = %v, want %v", got, want)
	}
	if _, ok := w.Asset(loaded); ok {
		t.Error("removed asset should be forgotten")
	}
	if info, ok := w.Asset(other); !ok || info.Loaded() {
		t.Errorf("discovered asset = %+v, %v", info, ok)
	}
}

func TestWatcherNotifiesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writePart(t, dir, "tri.part.hcl")

	log := newChangeLog()
	w := newTestWatcher(t, log.record)
	if err := w.Watch(dir); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if info, ok := w.Asset(path); !ok || info.Type != loaders.AssetTypePart {
		t.Fatalf("walk did not discover %s", path)
	}
	if _, err := w.Load(path, loaders.LoadParams{}); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := os.WriteFile(path, []byte(triPart+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case info := <-log.ch:
		if info.Path != path {
			t.Errorf("changed path = %s, want %s", info.Path, path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
}

func TestWatcherClose(t *testing.T) {
	w, err := NewWatcher(nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Watch(t.TempDir()); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := w.Watch(t.TempDir()); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("Watch after Close = %v", err)
	}
}
