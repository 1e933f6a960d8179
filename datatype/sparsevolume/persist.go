package sparsevolume

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/janelia-flyem/segvol/segvol"
	"github.com/janelia-flyem/segvol/storage"

	humanize "github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

const (
	headerExt  = ".mhd"
	payloadExt = ".raw"
)

var kind = segvol.VolumetricData

// MultiBlockName returns the base name of a numbered block file.
func MultiBlockName(prefix, id string, part int) string {
	return path.Join(prefix, fmt.Sprintf("%s_%s_%d", id, kind, part))
}

// SingleBlockName returns the base name of a volume stored as one file.
func SingleBlockName(prefix, id string) string {
	return path.Join(prefix, fmt.Sprintf("%s_%s", id, kind))
}

func oldSingleBlockName(prefix, id string) string {
	return path.Join(prefix, fmt.Sprintf("%s_%s", kind, id))
}

func oldMultiBlockName(prefix, id string, part int) string {
	return path.Join(prefix, fmt.Sprintf("%s_%s_%d", kind, id, part))
}

// EditedRegionName returns the base name of the k-th edited region file.
func EditedRegionName(prefix, id string, k int) string {
	return path.Join(prefix, fmt.Sprintf("%s_%s_EditedRegion_%d", id, kind, k))
}

// candidates returns the base names probed for a part, current naming first.
func candidates(prefix, id string, part int) []string {
	if part == 0 {
		return []string{
			MultiBlockName(prefix, id, 0),
			SingleBlockName(prefix, id),
			oldSingleBlockName(prefix, id),
			oldMultiBlockName(prefix, id, 0),
		}
	}
	return []string{MultiBlockName(prefix, id, part), oldMultiBlockName(prefix, id, part)}
}

// encodeImages encodes each image under its name using the volume's worker limit.
func (v *Volume[T]) encodeImages(ctx context.Context, names []string, imgs []*segvol.Image[T]) (storage.Snapshot, error) {
	entries := make(storage.Snapshot, 2*len(imgs))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(v.workers)
	for i := range imgs {
		i := i
		g.Go(func() error {
			header, payload, err := encodeBlock(names[i], imgs[i], v.compression, v.checksum)
			if err != nil {
				return err
			}
			entries[2*i] = storage.Entry{Name: names[i] + headerExt, Data: header}
			entries[2*i+1] = storage.Entry{Name: names[i] + payloadExt, Data: payload}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Snapshot returns a header and payload entry for every allocated block, numbered in
// block order.
func (v *Volume[T]) Snapshot(ctx context.Context, prefix, id string) (storage.Snapshot, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	indices := v.blockIndices()
	names := make([]string, len(indices))
	imgs := make([]*segvol.Image[T], len(indices))
	for i, idx := range indices {
		names[i] = MultiBlockName(prefix, id, i)
		imgs[i] = v.blocks[idx].img
	}
	return v.encodeImages(ctx, names, imgs)
}

// Save writes a snapshot of the volume and removes numbered parts left from a larger
// earlier snapshot.
func (v *Volume[T]) Save(ctx context.Context, store storage.Store, prefix, id string) error {
	snap, err := v.Snapshot(ctx, prefix, id)
	if err != nil {
		return err
	}
	if err := snap.Write(ctx, store, v.workers); err != nil {
		return err
	}
	for part := len(snap) / 2; ; part++ {
		name := MultiBlockName(prefix, id, part)
		found, err := store.Exists(ctx, name+headerExt)
		if err != nil {
			return err
		}
		if !found {
			break
		}
		if err := store.Delete(ctx, name+headerExt); err != nil {
			return err
		}
		if err := store.Delete(ctx, name+payloadExt); err != nil {
			return err
		}
	}
	segvol.Debugf("Saved %d blocks of %s to %s (%s)\n", len(snap)/2, id, store, humanize.Bytes(snap.Size()))
	return nil
}

// loadImage reads the block whose header is stored as name + ".mhd".  Headers without a
// voxel index are placed on the grid with the given origin.
func loadImage[T segvol.Voxel](ctx context.Context, store storage.Store, name string, origin segvol.NmVector3) (*segvol.Image[T], int, error) {
	headerName := name + headerExt
	hdata, err := store.Get(ctx, headerName)
	if err != nil {
		return nil, 0, err
	}
	h, err := parseHeader(hdata)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", headerName, err)
	}
	payload, err := store.Get(ctx, h.dataPath(headerName))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, 0, fmt.Errorf("%s: missing payload: %w", headerName, ErrCorruptBlock)
	}
	if err != nil {
		return nil, 0, err
	}
	img, err := decodeBlock[T](h, payload, origin)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", headerName, err)
	}
	return img, len(hdata) + len(payload), nil
}

// ReadImage reads a single MetaImage header and its payload.  The name may be given with
// or without the ".mhd" extension.
func ReadImage[T segvol.Voxel](ctx context.Context, store storage.Store, name string) (*segvol.Image[T], error) {
	img, _, err := loadImage[T](ctx, store, strings.TrimSuffix(name, headerExt), segvol.NmVector3{})
	return img, err
}

// insert adds a loaded image to the block map, adopting it directly when it is exactly
// one missing block within the logical bounds and drawing it otherwise.  If grow is set
// the logical bounds are first expanded to hold the image.
func (v *Volume[T]) insert(img *segvol.Image[T], grow bool) {
	geom := img.Bounds()
	if grow && !v.expand(geom) {
		return
	}
	if segvol.IsCompatible(v.geom, geom) {
		region := v.geom.InGrid(geom)
		idx := region.MinPoint.Chunk(v.blockSize)
		_, found := v.blocks[idx]
		if !found && region == geom.Region() && region.BlockAligned(v.blockSize) && v.geom.Region().Contains(region) {
			img.Regrid(v.geom.Spacing(), v.geom.Origin())
			if b := blockFromImage(img, v.background); !b.empty() {
				v.blocks[idx] = b
			}
			return
		}
	}
	v.drawImageBounds(img, geom.Bounds())
}

// Fetch loads the numbered block files of a volume into it.  If expected is valid it
// becomes the logical bounds first and loaded data is clipped to it; otherwise the
// bounds grow to hold what is loaded.  Existing blocks are kept and the edited-region
// list is unchanged.  Fetch returns true if at least one part was loaded and none was
// unreadable.
func (v *Volume[T]) Fetch(ctx context.Context, store storage.Store, prefix, id string, expected segvol.VolumeBounds) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	timedLog := segvol.NewTimeLog()
	edited := v.edited
	defer func() { v.edited = edited }()

	grow := !expected.IsValid()
	if !grow {
		v.resize(expected)
	}

	var parts int
	var size uint64
	defer func() {
		if parts > 0 {
			v.touch()
		}
	}()
	for part := 0; ; part++ {
		var name string
		for _, candidate := range candidates(prefix, id, part) {
			found, err := store.Exists(ctx, candidate+headerExt)
			if err != nil {
				segvol.Warningf("Unable to probe %q in %s: %v\n", candidate+headerExt, store, err)
				return false
			}
			if found {
				name = candidate
				break
			}
		}
		if name == "" {
			break
		}
		img, n, err := loadImage[T](ctx, store, name, v.geom.Origin())
		if err != nil {
			segvol.Warningf("Stopped fetching %s from %s at part %d: %v\n", id, store, part, err)
			return false
		}
		v.insert(img, grow)
		parts++
		size += uint64(n)
	}
	if parts == 0 {
		return false
	}
	timedLog.Debugf("Fetched %d parts of %s from %s (%s), %d blocks", parts, id, store, humanize.Bytes(size), len(v.blocks))
	return true
}

// EditedRegionsSnapshot returns one entry pair per edited region still within the logical
// bounds, holding the current voxels of that region.  Entries are numbered by position
// in the edited-region list.
func (v *Volume[T]) EditedRegionsSnapshot(ctx context.Context, prefix, id string) (storage.Snapshot, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var names []string
	var imgs []*segvol.Image[T]
	for k, region := range v.edited {
		inter := segvol.VolumeIntersection(v.geom, region)
		if !inter.IsValid() {
			continue
		}
		img, err := v.materialize(inter)
		if err != nil {
			return nil, err
		}
		names = append(names, EditedRegionName(prefix, id, k))
		imgs = append(imgs, img)
	}
	return v.encodeImages(ctx, names, imgs)
}

// RestoreEditedRegions draws back the stored voxels of each edited region, then installs
// regions as the edited-region list.  Stored voxels are clipped to valid logical bounds,
// and regions wholly outside them are skipped with a warning.  A volume without valid
// bounds grows to hold the regions.  Missing or unreadable region files are skipped with
// a warning.
func (v *Volume[T]) RestoreEditedRegions(ctx context.Context, store storage.Store, prefix, id string, regions segvol.VolumeBoundsList) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	bounded := v.geom.IsValid()
	for k, region := range regions {
		if bounded && !segvol.VolumeIntersection(v.geom, region).IsValid() {
			segvol.Warningf("Skipping edited region %d of %s outside bounds %s\n", k, id, v.geom)
			continue
		}
		name := EditedRegionName(prefix, id, k)
		found, err := store.Exists(ctx, name+headerExt)
		if err != nil {
			return err
		}
		if !found {
			segvol.Warningf("Edited region %d of %s not found in %s\n", k, id, store)
			continue
		}
		img, _, err := loadImage[T](ctx, store, name, v.geom.Origin())
		if err != nil {
			if errors.Is(err, ErrCorruptBlock) {
				segvol.Warningf("Skipping edited region %d of %s: %v\n", k, id, err)
				continue
			}
			return err
		}
		if bounded {
			v.drawImageBounds(img, img.Bounds().Bounds())
		} else {
			v.expandAndDraw(img)
		}
	}
	v.edited = append(segvol.VolumeBoundsList(nil), regions...)
	v.touch()
	return nil
}
