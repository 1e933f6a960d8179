package segvol

import "errors"

var (
	// ErrInvalidRegion is returned when a region is invalid or lies outside the
	// logical bounds of the data it is requested from.
	ErrInvalidRegion = errors.New("invalid region")

	// ErrIncompatibleBounds is returned when bounds use different spacings or
	// grids whose origins are not a whole number of voxels apart.
	ErrIncompatibleBounds = errors.New("incompatible bounds")
)
