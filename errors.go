package envmap

import (
	"errors"
	"fmt"
)

// ErrInitialization is the parent of every construction failure. Constructors
// return it (or one of its children) together with a nil *Mapper.
var ErrInitialization = errors.New("envmap: initialization failed")

var (
	// ErrInvalidAspectRatio is returned when a seed image is not twice as
	// wide as it is tall.
	ErrInvalidAspectRatio = fmt.Errorf("%w: panorama width must be twice its height", ErrInitialization)

	// ErrUnsupportedBackend is returned when the GPU backend is explicitly
	// requested but no GPU compute backend is registered.
	ErrUnsupportedBackend = fmt.Errorf("%w: compute backend unavailable", ErrInitialization)

	// ErrSeedImage is returned when a seed asset is missing or cannot be decoded.
	ErrSeedImage = fmt.Errorf("%w: seed image", ErrInitialization)

	// ErrInvalidDimensions is returned for a non-positive panorama height.
	ErrInvalidDimensions = fmt.Errorf("%w: invalid panorama dimensions", ErrInitialization)

	// ErrInvalidOption is returned when an option carries an out-of-range value.
	ErrInvalidOption = fmt.Errorf("%w: invalid option", ErrInitialization)
)

var (
	// ErrAllocation indicates that the direction lookup or a kernel resource
	// could not be created. During construction it is fatal; afterwards it
	// leaves the Mapper degraded and later updates are skipped.
	ErrAllocation = errors.New("envmap: resource allocation failed")

	// ErrDispatch indicates that the reprojection kernel failed for one
	// update. The update is dropped and the panorama keeps its previous value.
	ErrDispatch = errors.New("envmap: kernel dispatch failed")

	// ErrUnsupportedFormat is returned by CurrentMap for an unknown Format.
	ErrUnsupportedFormat = errors.New("envmap: unsupported export format")

	// ErrInvalidFrame is returned by UpdateMap for a frame without an image.
	ErrInvalidFrame = errors.New("envmap: invalid frame")

	// ErrClosed is returned by every Mapper method called after Close.
	ErrClosed = errors.New("envmap: mapper closed")
)
