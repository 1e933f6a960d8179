package datastore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"runtime"
	"sort"
	"sync"

	"github.com/janelia-flyem/segvol/segvol"
	"github.com/janelia-flyem/segvol/storage"

	humanize "github.com/dustin/go-humanize"
)

// BoundsName returns the stored name of a volume's logical bounds.
func BoundsName(prefix, id string) string {
	return path.Join(prefix, fmt.Sprintf("%s_%s_Bounds.msgp", id, segvol.VolumetricData))
}

// EditedListName returns the stored name of a volume's edited-region list.
func EditedListName(prefix, id string) string {
	return path.Join(prefix, fmt.Sprintf("%s_%s_EditedRegions.msgp", id, segvol.VolumetricData))
}

func editedPrefix(prefix, id string) string {
	return path.Join(prefix, fmt.Sprintf("%s_%s_EditedRegion_", id, segvol.VolumetricData))
}

// Output is the set of data kinds attached to one segmentation.
type Output struct {
	id      string
	workers int

	mu   sync.RWMutex
	data map[segvol.Kind]Data
}

// NewOutput returns an output without data for the segmentation with the given id.
func NewOutput(id string) *Output {
	return &Output{
		id:      id,
		workers: runtime.GOMAXPROCS(0),
		data:    make(map[segvol.Kind]Data),
	}
}

func (o *Output) ID() string {
	return o.id
}

// SetWorkers sets the number of concurrent writes used when saving.
func (o *Output) SetWorkers(n int) {
	if n > 0 {
		o.workers = n
	}
}

// Add attaches data, replacing any data of the same kind.
func (o *Output) Add(d Data) {
	o.mu.Lock()
	o.data[d.Kind()] = d
	o.mu.Unlock()
}

// Get returns the data of the given kind.
func (o *Output) Get(kind segvol.Kind) (Data, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	d, found := o.data[kind]
	return d, found
}

// Kinds returns the sorted kinds attached.
func (o *Output) Kinds() []segvol.Kind {
	o.mu.RLock()
	defer o.mu.RUnlock()
	kinds := make([]segvol.Kind, 0, len(o.data))
	for kind := range o.data {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Volume returns the attached volumetric data.
func (o *Output) Volume() (VolumeData, bool) {
	d, found := o.Get(segvol.VolumetricData)
	if !found {
		return nil, false
	}
	vol, ok := d.(VolumeData)
	return vol, ok
}

// Order returns the attached data so each item follows everything it depends on.
func (o *Output) Order() ([]Data, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[segvol.Kind]int, len(o.data))
	ordered := make([]Data, 0, len(o.data))
	var visit func(kind segvol.Kind) error
	visit = func(kind segvol.Kind) error {
		switch state[kind] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%s: %w", kind, ErrDependencyCycle)
		}
		d, found := o.data[kind]
		if !found {
			return fmt.Errorf("%s: %w", kind, ErrMissingDependency)
		}
		state[kind] = visiting
		for _, dep := range d.Dependencies() {
			if err := visit(dep); err != nil {
				return fmt.Errorf("%s depends on %w", kind, err)
			}
		}
		state[kind] = done
		ordered = append(ordered, d)
		return nil
	}
	kinds := make([]segvol.Kind, 0, len(o.data))
	for kind := range o.data {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, kind := range kinds {
		if err := visit(kind); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

// Update brings every derived data item up to date, sources first.
func (o *Output) Update() error {
	ordered, err := o.Order()
	if err != nil {
		return err
	}
	for _, d := range ordered {
		u, ok := d.(segvol.Updater)
		if !ok {
			continue
		}
		if err := u.Update(); err != nil {
			return fmt.Errorf("updating %s of %s: %w", d.Kind(), o.id, err)
		}
	}
	return nil
}

func (o *Output) writeBounds(ctx context.Context, store storage.Store, prefix string, vol VolumeData) error {
	buf, err := vol.Bounds().MarshalMsg(nil)
	if err != nil {
		return err
	}
	return store.Put(ctx, BoundsName(prefix, o.id), buf)
}

func (o *Output) savePersisters(ctx context.Context, store storage.Store, prefix string) error {
	ordered, err := o.Order()
	if err != nil {
		return err
	}
	for _, d := range ordered {
		p, ok := d.(Persister)
		if !ok || !p.IsValid() {
			continue
		}
		snap, err := p.Snapshot(ctx, prefix, o.id)
		if err != nil {
			return fmt.Errorf("snapshot of %s: %w", d.Kind(), err)
		}
		if err := snap.Write(ctx, store, o.workers); err != nil {
			return err
		}
	}
	return nil
}

func (o *Output) deleteEdits(ctx context.Context, store storage.Store, prefix string) error {
	names, err := store.Names(ctx, editedPrefix(prefix, o.id))
	if err != nil {
		return err
	}
	names = append(names, EditedListName(prefix, o.id))
	for _, name := range names {
		if err := store.Delete(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// SaveFull writes every block of the volume, its bounds and any stored data, then drops
// the edited regions both in the store and in memory.
func (o *Output) SaveFull(ctx context.Context, store storage.Store, prefix string) error {
	vol, found := o.Volume()
	if !found {
		return fmt.Errorf("output %s has no %s", o.id, segvol.VolumetricData)
	}
	if err := vol.Save(ctx, store, prefix, o.id); err != nil {
		return err
	}
	if err := o.writeBounds(ctx, store, prefix, vol); err != nil {
		return err
	}
	if err := o.deleteEdits(ctx, store, prefix); err != nil {
		return err
	}
	vol.ClearEditedRegions()
	return o.savePersisters(ctx, store, prefix)
}

// SaveEdits writes only the regions edited since the last full save together with the
// edited-region list and bounds needed to replay them.  Edit files of an earlier call are
// removed first.
func (o *Output) SaveEdits(ctx context.Context, store storage.Store, prefix string) error {
	vol, found := o.Volume()
	if !found {
		return fmt.Errorf("output %s has no %s", o.id, segvol.VolumetricData)
	}
	if err := o.deleteEdits(ctx, store, prefix); err != nil {
		return err
	}
	snap, err := vol.EditedRegionsSnapshot(ctx, prefix, o.id)
	if err != nil {
		return err
	}
	if err := snap.Write(ctx, store, o.workers); err != nil {
		return err
	}
	buf, err := vol.EditedRegions().MarshalMsg(nil)
	if err != nil {
		return err
	}
	if err := store.Put(ctx, EditedListName(prefix, o.id), buf); err != nil {
		return err
	}
	if err := o.writeBounds(ctx, store, prefix, vol); err != nil {
		return err
	}
	segvol.Debugf("Saved %d edited regions of %s to %s (%s)\n", len(vol.EditedRegions()), o.id, store, humanize.Bytes(snap.Size()))
	return o.savePersisters(ctx, store, prefix)
}

func (o *Output) readBounds(ctx context.Context, store storage.Store, prefix string) (segvol.VolumeBounds, error) {
	var vb segvol.VolumeBounds
	buf, err := store.Get(ctx, BoundsName(prefix, o.id))
	if errors.Is(err, storage.ErrNotFound) {
		return vb, nil
	}
	if err != nil {
		return vb, err
	}
	if _, err := vb.UnmarshalMsg(buf); err != nil {
		segvol.Warningf("Ignoring unreadable bounds of %s: %v\n", o.id, err)
		return segvol.VolumeBounds{}, nil
	}
	return vb, nil
}

func (o *Output) readEditedList(ctx context.Context, store storage.Store, prefix string) (segvol.VolumeBoundsList, bool, error) {
	buf, err := store.Get(ctx, EditedListName(prefix, o.id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var list segvol.VolumeBoundsList
	if _, err := list.UnmarshalMsg(buf); err != nil {
		return nil, false, fmt.Errorf("edited region list of %s: %w", o.id, err)
	}
	return list, true, nil
}

// Load fetches the volume, replays saved edits over it and fetches any stored data.
func (o *Output) Load(ctx context.Context, store storage.Store, prefix string) error {
	vol, found := o.Volume()
	if !found {
		return fmt.Errorf("output %s has no %s", o.id, segvol.VolumetricData)
	}
	expected, err := o.readBounds(ctx, store, prefix)
	if err != nil {
		return err
	}
	fetched := vol.Fetch(ctx, store, prefix, o.id, expected)
	list, hasEdits, err := o.readEditedList(ctx, store, prefix)
	if err != nil {
		return err
	}
	if hasEdits {
		if err := vol.RestoreEditedRegions(ctx, store, prefix, o.id, list); err != nil {
			return err
		}
	}
	if !fetched && !hasEdits {
		return fmt.Errorf("%s of %s in %s: %w", segvol.VolumetricData, o.id, store, ErrIncomplete)
	}

	ordered, err := o.Order()
	if err != nil {
		return err
	}
	for _, d := range ordered {
		if p, ok := d.(Persister); ok && !p.Fetch(ctx, store, prefix, o.id) {
			segvol.Debugf("No stored %s for %s in %s\n", d.Kind(), o.id, store)
		}
	}
	return nil
}
