package metadata

/** @brief Handle to an object owned by the render scene. Zero is invalid. */
type Handle uint32

const InvalidHandle Handle = 0

func (h Handle) Valid() bool { return h != InvalidHandle }

/** @brief The kind of object behind a handle. */
type ObjectKind int

const (
	ObjectGeometry ObjectKind = iota
	ObjectInstance
)

func (k ObjectKind) String() string {
	if k == ObjectInstance {
		return "instance"
	}
	return "geometry"
}

/**
 * @brief One entry of the scene journal, recorded for every object event.
 */
type JournalEntry struct {
	/** @brief Frame number the event was recorded in. */
	Frame  uint64
	Handle Handle
	Kind   ObjectKind
	Name   string
	Event  EventType
}
