package assets

import "github.com/spaghettifunk/meshsync/engine/assets/loaders"

type Loader interface {
	Load(path string, params loaders.LoadParams) (*loaders.Asset, error)
	Unload(*loaders.Asset) error
}
