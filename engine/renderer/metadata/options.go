package metadata

import (
	"slices"
	"sort"
)

/** @brief Velocity blur modes. */
const (
	VelocityBlurOff          = 0
	VelocityBlurVelocity     = 1
	VelocityBlurAcceleration = 2
)

/**
 * @brief Per object render properties. The sync layer keeps a copy per prim
 * and compares it against freshly computed values to decide whether the
 * object's properties changed.
 */
type OptionSet struct {
	/** @brief Whether the object is blurred over the shutter. */
	MotionBlur bool
	/** @brief One of the VelocityBlur* modes. */
	VelocityBlur int
	/** @brief Number of deformation samples. */
	GeoSamples int
	/** @brief Number of transform samples. */
	XformSamples int
	Visible      bool
	RenderTag    string
	/** @brief Trace-set categories the object belongs to, sorted. */
	Categories []string
	/** @brief The id of the prim in the render index. */
	ObjectID int
	/** @brief Values coming from render:object:* constant primvars. */
	Extra map[string]string
}

// Clone returns a deep copy of o.
func (o OptionSet) Clone() OptionSet {
	c := o
	c.Categories = append([]string(nil), o.Categories...)
	if o.Extra != nil {
		c.Extra = make(map[string]string, len(o.Extra))
		for k, v := range o.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

// SetCategories stores a sorted, de-duplicated copy of categories and
// reports whether the membership changed.
func (o *OptionSet) SetCategories(categories []string) bool {
	sorted := append([]string(nil), categories...)
	sort.Strings(sorted)
	out := sorted[:0]
	for i, c := range sorted {
		if i == 0 || c != sorted[i-1] {
			out = append(out, c)
		}
	}
	if slices.Equal(out, o.Categories) {
		return false
	}
	o.Categories = out
	return true
}

func (o OptionSet) Equal(other OptionSet) bool {
	if o.MotionBlur != other.MotionBlur || o.VelocityBlur != other.VelocityBlur ||
		o.GeoSamples != other.GeoSamples || o.XformSamples != other.XformSamples ||
		o.Visible != other.Visible || o.RenderTag != other.RenderTag || o.ObjectID != other.ObjectID {
		return false
	}
	if !slices.Equal(o.Categories, other.Categories) || len(o.Extra) != len(other.Extra) {
		return false
	}
	for k, v := range o.Extra {
		if ov, ok := other.Extra[k]; !ok || ov != v {
			return false
		}
	}
	return true
}
