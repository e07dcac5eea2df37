package ingest

import (
	"fmt"

	"github.com/spaghettifunk/meshsync/engine/attrib"
	"github.com/spaghettifunk/meshsync/engine/core"
)

// Attribute is an ingested attribute with its owner.
type Attribute struct {
	Name  string
	Owner Owner
	Store *attrib.Store
}

// Ingest pulls the attribute described by d from the session in one bulk
// transfer. String handles are resolved and interned into table.
// A zero count yields an empty store.
func Ingest(s Session, part int, d Descriptor, table *attrib.StringTable) (*attrib.Store, error) {
	if !d.Storage.Valid() {
		return nil, core.NewIngestError(core.ErrCodeUnsupportedStorageType, d.Name,
			fmt.Errorf("%w: %s", core.ErrUnsupportedStorageType, d.Storage))
	}
	if d.TupleSize <= 0 || d.Count < 0 {
		return nil, core.NewIngestError(core.ErrCodeMalformedAttribute, d.Name,
			fmt.Errorf("%w: count %d tuple %d", core.ErrMalformedAttributeDescriptor, d.Count, d.TupleSize))
	}
	if d.Count == 0 {
		return attrib.NewEmptyStore(d.Storage, d.TupleSize, d.Role), nil
	}

	want := d.Count * d.TupleSize
	var (
		store *attrib.Store
		got   int
		err   error
	)
	switch d.Storage {
	case attrib.StorageInt32:
		var data []int32
		if data, err = s.IntData(part, d); err == nil {
			got, store = len(data), attrib.NewInt32Store(data, d.TupleSize, d.Role)
		}
	case attrib.StorageInt64:
		var data []int64
		if data, err = s.Int64Data(part, d); err == nil {
			got, store = len(data), attrib.NewInt64Store(data, d.TupleSize, d.Role)
		}
	case attrib.StorageFloat32:
		var data []float32
		if data, err = s.FloatData(part, d); err == nil {
			got, store = len(data), attrib.NewFloat32Store(data, d.TupleSize, d.Role)
		}
	case attrib.StorageFloat64:
		var data []float64
		if data, err = s.Float64Data(part, d); err == nil {
			got, store = len(data), attrib.NewFloat64Store(data, d.TupleSize, d.Role)
		}
	case attrib.StorageString:
		var handles []int32
		if handles, err = s.StringData(part, d); err == nil {
			got = len(handles)
			if got == want {
				store, err = resolveStrings(s, handles, d.TupleSize, table)
			}
		}
	}
	if err != nil {
		return nil, core.NewIngestError(core.ErrCodeSessionQueryFailed, d.Name,
			fmt.Errorf("%w: %v", core.ErrSessionQueryFailed, err))
	}
	if got != want {
		return nil, core.NewIngestError(core.ErrCodeMalformedAttribute, d.Name,
			fmt.Errorf("%w: expected %d values, got %d", core.ErrMalformedAttributeDescriptor, want, got))
	}
	return store, nil
}

func resolveStrings(s Session, handles []int32, tuple int, table *attrib.StringTable) (*attrib.Store, error) {
	values := make([]string, len(handles))
	for i, h := range handles {
		v, err := s.String(h)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return attrib.NewStringStore(values, tuple, table), nil
}

// ConvertTupleSize resizes numeric attributes to size, leaving string
// attributes alone.
func ConvertTupleSize(a *Attribute, size int) {
	if a == nil || a.Store == nil {
		return
	}
	if a.Store.Storage() == attrib.StorageString {
		core.LogDebug("cannot convert tuple size of string attribute %s", a.Name)
		return
	}
	a.Store.ResizeTuple(size)
}
