/*
	This file encodes blocks as MetaImage header/payload pairs.  Besides the standard
	MetaImage keys, headers carry the voxel index of the first voxel, the payload codec,
	an xxhash checksum and the segvol format version.  Headers without these keys, as
	written by older tools, are still read.
*/

package sparsevolume

import (
	"bufio"
	"bytes"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/janelia-flyem/segvol/segvol"

	"github.com/blang/semver"
)

// FormatVersion is the version of the block header written by this package.
var FormatVersion = semver.MustParse("1.0.0")

// metaHeader is the parsed content of a block header.
type metaHeader struct {
	dims        segvol.Point3d
	spacing     segvol.NmVector3
	offset      segvol.NmVector3
	index       *segvol.Point3d
	elementType string
	compressed  bool
	codec       *segvol.Compression
	packedSize  int
	checksum    string
	dataFile    string
	version     semver.Version
}

func formatFloats(v []float64) string {
	s := make([]string, len(v))
	for i, f := range v {
		s[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strings.Join(s, " ")
}

// encodeBlock returns the header and payload of an image stored under the given name.
// The header refers to the payload by its base name.
func encodeBlock[T segvol.Voxel](name string, img *segvol.Image[T], compression segvol.Compression, checksum bool) (header, payload []byte, err error) {
	geom := img.Bounds()
	region := geom.Region()
	payload, err = segvol.Compress(img.Bytes(), compression)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding block %s: %w", name, err)
	}
	spacing := geom.Spacing()
	origin := geom.Origin()
	var offset [3]float64
	for axis := 0; axis < 3; axis++ {
		offset[axis] = origin[axis] + float64(region.MinPoint[axis])*spacing[axis]
	}
	dims := region.Size()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "ObjectType = Image\n")
	fmt.Fprintf(&buf, "NDims = 3\n")
	fmt.Fprintf(&buf, "BinaryData = True\n")
	fmt.Fprintf(&buf, "BinaryDataByteOrderMSB = False\n")
	if compression == segvol.Uncompressed {
		fmt.Fprintf(&buf, "CompressedData = False\n")
	} else {
		fmt.Fprintf(&buf, "CompressedData = True\n")
		fmt.Fprintf(&buf, "CompressedDataSize = %d\n", len(payload))
	}
	fmt.Fprintf(&buf, "Offset = %s\n", formatFloats(offset[:]))
	fmt.Fprintf(&buf, "ElementSpacing = %s\n", formatFloats(spacing[:]))
	fmt.Fprintf(&buf, "DimSize = %d %d %d\n", dims[0], dims[1], dims[2])
	fmt.Fprintf(&buf, "ElementType = %s\n", segvol.ElementType[T]())
	fmt.Fprintf(&buf, "SegvolFormat = %s\n", FormatVersion)
	fmt.Fprintf(&buf, "Index = %d %d %d\n", region.MinPoint[0], region.MinPoint[1], region.MinPoint[2])
	fmt.Fprintf(&buf, "CompressionCodec = %s\n", compression)
	if checksum {
		fmt.Fprintf(&buf, "ElementDataChecksum = %s\n", segvol.Checksum(payload))
	}
	fmt.Fprintf(&buf, "ElementDataFile = %s\n", path.Base(name)+".raw")
	return buf.Bytes(), payload, nil
}

func parseFloats(value string, n int) ([]float64, error) {
	fields := strings.Fields(value)
	if len(fields) != n {
		return nil, fmt.Errorf("expected %d values, got %q", n, value)
	}
	v := make([]float64, n)
	for i, f := range fields {
		var err error
		if v[i], err = strconv.ParseFloat(f, 64); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func parseInts(value string) (segvol.Point3d, error) {
	var p segvol.Point3d
	fields := strings.Fields(value)
	if len(fields) != 3 {
		return p, fmt.Errorf("expected 3 values, got %q", value)
	}
	for i, f := range fields {
		n, err := strconv.ParseInt(f, 10, 32)
		if err != nil {
			return p, err
		}
		p[i] = int32(n)
	}
	return p, nil
}

func parseBool(value string) bool {
	return strings.EqualFold(value, "true")
}

// parseHeader reads a block header.  Any malformed or unsupported header gives an
// ErrCorruptBlock error.
func parseHeader(data []byte) (*metaHeader, error) {
	h := &metaHeader{version: semver.Version{Major: 0}}
	var foundDims, foundSpacing, foundOffset bool
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("bad header line %q: %w", line, ErrCorruptBlock)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		var err error
		switch key {
		case "NDims":
			if value != "3" {
				err = fmt.Errorf("unsupported NDims %s", value)
			}
		case "DimSize":
			h.dims, err = parseInts(value)
			foundDims = true
		case "ElementSpacing", "ElementSize":
			var v []float64
			if v, err = parseFloats(value, 3); err == nil {
				copy(h.spacing[:], v)
				foundSpacing = true
			}
		case "Offset", "Origin", "Position":
			var v []float64
			if v, err = parseFloats(value, 3); err == nil {
				copy(h.offset[:], v)
				foundOffset = true
			}
		case "Index":
			var p segvol.Point3d
			if p, err = parseInts(value); err == nil {
				h.index = &p
			}
		case "ElementType":
			h.elementType = value
		case "CompressedData":
			h.compressed = parseBool(value)
		case "CompressedDataSize":
			h.packedSize, err = strconv.Atoi(value)
		case "CompressionCodec":
			var c segvol.Compression
			if c, err = segvol.ParseCompression(value); err == nil {
				h.codec = &c
			}
		case "ElementDataChecksum":
			h.checksum = value
		case "SegvolFormat":
			h.version, err = semver.Parse(value)
		case "ElementDataFile":
			h.dataFile = value
		}
		if err != nil {
			return nil, fmt.Errorf("header key %s: %v: %w", key, err, ErrCorruptBlock)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading header: %v: %w", err, ErrCorruptBlock)
	}
	switch {
	case !foundDims || h.dims[0] <= 0 || h.dims[1] <= 0 || h.dims[2] <= 0:
		return nil, fmt.Errorf("header has no valid DimSize: %w", ErrCorruptBlock)
	case h.dataFile == "" || h.dataFile == "LOCAL" || h.dataFile == "LIST":
		return nil, fmt.Errorf("unsupported ElementDataFile %q: %w", h.dataFile, ErrCorruptBlock)
	case h.version.Major > FormatVersion.Major:
		return nil, fmt.Errorf("block format %s is newer than %s: %w", h.version, FormatVersion, ErrCorruptBlock)
	}
	if !foundSpacing {
		h.spacing = segvol.NmVector3{1, 1, 1}
	}
	if !foundOffset {
		h.offset = segvol.NmVector3{}
	}
	return h, nil
}

// compression returns the payload codec, deriving it for headers that lack one.
func (h *metaHeader) compression() segvol.Compression {
	if h.codec != nil {
		return *h.codec
	}
	if h.compressed {
		return segvol.Zlib
	}
	return segvol.Uncompressed
}

// geometry returns the voxel region of the block.  Headers without an index are placed
// on the grid with the given origin.
func (h *metaHeader) geometry(origin segvol.NmVector3) segvol.VolumeBounds {
	var region segvol.Extents3d
	if h.index != nil {
		region.MinPoint = *h.index
		for axis := 0; axis < 3; axis++ {
			origin[axis] = h.offset[axis] - float64(h.index[axis])*h.spacing[axis]
		}
	} else {
		// ITK writes Offset as the centre of the first voxel, not its corner.
		grid := segvol.NewVolumeBoundsFromExtents(segvol.EmptyExtents3d(), h.spacing, origin)
		region.MinPoint = grid.VoxelAt(h.offset)
	}
	region.MaxPoint = region.MinPoint.Add(h.dims).AddScalar(-1)
	return segvol.NewVolumeBoundsFromExtents(region, h.spacing, origin)
}

// dataPath returns the payload name relative to the header's name.
func (h *metaHeader) dataPath(headerName string) string {
	return path.Join(path.Dir(headerName), h.dataFile)
}

// decodeBlock returns the image given by a header and its payload.
func decodeBlock[T segvol.Voxel](h *metaHeader, payload []byte, origin segvol.NmVector3) (*segvol.Image[T], error) {
	if h.elementType != "" && h.elementType != segvol.ElementType[T]() {
		if segvol.ElementTypeSize(h.elementType) != segvol.VoxelSize[T]() {
			return nil, fmt.Errorf("element type %s does not match %s: %w", h.elementType, segvol.ElementType[T](), ErrCorruptBlock)
		}
	}
	if h.checksum != "" && segvol.Checksum(payload) != h.checksum {
		return nil, fmt.Errorf("payload checksum mismatch: %w", ErrCorruptBlock)
	}
	if h.packedSize > 0 && h.packedSize != len(payload) {
		return nil, fmt.Errorf("payload has %d bytes, header gives %d: %w", len(payload), h.packedSize, ErrCorruptBlock)
	}
	geom := h.geometry(origin)
	expected := int(geom.NumVoxels()) * segvol.VoxelSize[T]()
	raw, err := segvol.Uncompress(payload, h.compression(), expected)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrCorruptBlock)
	}
	data, err := segvol.DecodeVoxels[T](raw)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrCorruptBlock)
	}
	img, err := segvol.NewImageFromData(geom, data)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrCorruptBlock)
	}
	return img, nil
}
