package metadata

import "strings"

/**
 * @brief Describes what changed on a committed object. Flags are combined
 * with OR and the scene decides from the union what to invalidate.
 */
type EventType uint32

const (
	EventNone EventType = 0
	/** @brief The object was just created. */
	EventNew EventType = 1 << (iota - 1)
	/** @brief The object is going away. */
	EventDel
	/** @brief Connectivity changed, every attribute domain is stale. */
	EventTopology
	/** @brief A generic attribute changed. */
	EventAttrib
	/** @brief The position attribute changed. */
	EventAttribP
	EventMaterial
	EventXform
	/** @brief Object properties such as visibility changed. */
	EventProperties
	/** @brief Trace-set category membership changed. */
	EventTraceset
)

var eventNames = []struct {
	flag EventType
	name string
}{
	{EventNew, "NEW"},
	{EventDel, "DEL"},
	{EventTopology, "TOPOLOGY"},
	{EventAttrib, "ATTRIB"},
	{EventAttribP, "ATTRIB_P"},
	{EventMaterial, "MATERIAL"},
	{EventXform, "XFORM"},
	{EventProperties, "PROPERTIES"},
	{EventTraceset, "TRACESET"},
}

func (e EventType) String() string {
	if e == EventNone {
		return "NONE"
	}
	var parts []string
	for _, n := range eventNames {
		if e&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

func (e EventType) Has(flag EventType) bool { return e&flag != 0 }
func (e EventType) IsNone() bool            { return e == EventNone }
func (e EventType) HasTopology() bool       { return e&EventTopology != 0 }

// HasAttributes reports a change to any attribute, position included.
func (e EventType) HasAttributes() bool { return e&(EventAttrib|EventAttribP) != 0 }

// NeedsAccelRebuild reports whether acceleration structures are stale.
func (e EventType) NeedsAccelRebuild() bool { return e&(EventTopology|EventAttribP) != 0 }
