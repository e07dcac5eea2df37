package systems

import (
	"fmt"

	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/renderer/metadata"
)

/** @brief The configuration for the sync scheduler. */
type SyncConfig struct {
	/** @brief Number of workers syncing prims in parallel. */
	Workers int `toml:"workers"`
	/** @brief Size of the pending job queue. */
	QueueSize int `toml:"queue_size"`
	/** @brief Run one pass at a time, used to debug races. */
	SerializePasses bool `toml:"serialize_passes"`
	/** @brief Ask instancers for nested instance hierarchies. */
	NestedInstancing bool `toml:"nested_instancing"`
	/** @brief Repr every prim is synced with. */
	Repr string `toml:"repr"`
}

/** @brief Default motion blur settings of every object. */
type MotionConfig struct {
	MotionBlur   bool    `toml:"motion_blur"`
	VelocityBlur int     `toml:"velocity_blur"`
	GeoSamples   int     `toml:"geo_samples"`
	XformSamples int     `toml:"xform_samples"`
	ShutterOpen  float32 `toml:"shutter_open"`
	ShutterClose float32 `toml:"shutter_close"`
	FPS          float32 `toml:"fps"`
}

func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		Workers:   4,
		QueueSize: 256,
		Repr:      "refined",
	}
}

func DefaultMotionConfig() MotionConfig {
	return MotionConfig{
		GeoSamples:   2,
		XformSamples: 2,
		ShutterOpen:  -0.25,
		ShutterClose: 0.25,
		FPS:          24,
	}
}

func (c SyncConfig) Validate() error {
	if c.Workers <= 0 {
		err := fmt.Errorf("sync.workers must be > 0, got %d", c.Workers)
		core.LogError("%s", err)
		return err
	}
	if c.QueueSize < 0 {
		err := fmt.Errorf("sync.queue_size must be >= 0, got %d", c.QueueSize)
		core.LogError("%s", err)
		return err
	}
	return nil
}

func (c MotionConfig) Validate() error {
	if c.VelocityBlur < metadata.VelocityBlurOff || c.VelocityBlur > metadata.VelocityBlurAcceleration {
		return fmt.Errorf("motion.velocity_blur must be 0, 1 or 2, got %d", c.VelocityBlur)
	}
	if c.GeoSamples < 1 || c.XformSamples < 1 {
		return fmt.Errorf("motion sample counts must be >= 1")
	}
	if c.ShutterClose < c.ShutterOpen {
		return fmt.Errorf("motion.shutter_close (%v) is before shutter_open (%v)", c.ShutterClose, c.ShutterOpen)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("motion.fps must be > 0")
	}
	return nil
}

// Defaults returns the object properties every new object starts with.
func (c MotionConfig) Defaults() metadata.OptionSet {
	return metadata.OptionSet{
		MotionBlur:   c.MotionBlur,
		VelocityBlur: c.VelocityBlur,
		GeoSamples:   c.GeoSamples,
		XformSamples: c.XformSamples,
		Visible:      true,
	}
}

// ShutterTimes returns n sample times in frames spread evenly over the
// shutter. A single sample sits at the shutter open.
func (c MotionConfig) ShutterTimes(n int) []float32 {
	if n <= 1 {
		return []float32{c.ShutterOpen}
	}
	times := make([]float32, n)
	step := (c.ShutterClose - c.ShutterOpen) / float32(n-1)
	for i := range times {
		times[i] = c.ShutterOpen + step*float32(i)
	}
	return times
}
