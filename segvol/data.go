package segvol

// Kind names one of the fixed set of data kinds a segmentation can carry.  It is also
// the kind tag embedded in persisted names.
type Kind string

const (
	VolumetricData    Kind = "VolumetricData"
	MeshData          Kind = "MeshData"
	MarchingCubesMesh Kind = "MarchingCubesMesh"
)

func (k Kind) String() string {
	return string(k)
}

// UpdatePolicy tells whether reading derived data should first ask its source to
// bring itself up to date.
type UpdatePolicy uint8

const (
	// Ignore reads the source as it is.
	Ignore UpdatePolicy = iota

	// Request asks the source to update before reading.
	Request
)

func (p UpdatePolicy) String() string {
	switch p {
	case Ignore:
		return "ignore"
	case Request:
		return "request"
	default:
		return "unknown"
	}
}

// Updater is implemented by data that can recompute itself from upstream sources.
type Updater interface {
	Update() error
}
