package loaders

import (
	"time"

	"github.com/spaghettifunk/meshsync/engine/attrib"
	"github.com/spaghettifunk/meshsync/engine/core"
)

/** @brief The kind of file an asset was loaded from. */
type AssetType uint8

const (
	AssetTypeNone AssetType = iota
	/** @brief A procedural part described in HCL (*.part.hcl). */
	AssetTypePart
)

func (t AssetType) String() string {
	switch t {
	case AssetTypePart:
		return "part"
	}
	return "none"
}

/** @brief Parameters handed to a loader. */
type LoadParams struct {
	/** @brief String table shared with the render param. */
	Strings *attrib.StringTable
	/** @brief Scope non fatal attribute failures are reported to. */
	Scope *core.ErrorScope
}

/** @brief A loaded asset. */
type Asset struct {
	Name     string
	FullPath string
	Type     AssetType
	/** @brief Modification time of the file the asset was read from. */
	ModTime time.Time
	/** @brief Loader specific payload, *ingest.Part for parts. */
	Data interface{}
}
