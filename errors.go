package imgframe

import (
	"errors"

	"github.com/gogpu/imgframe/safe"
)

// Common errors for frame operations.
var (
	// ErrOverflow is returned when a size or offset computation does not fit
	// the destination integer type. It is the same value as safe.ErrOverflow.
	ErrOverflow = safe.ErrOverflow

	// ErrOutOfRange is returned when a position or region lies outside the
	// frame bounds.
	ErrOutOfRange = errors.New("imgframe: position out of range")

	// ErrInvalidArgument is returned for degenerate sizes, regions, depths
	// or strides.
	ErrInvalidArgument = errors.New("imgframe: invalid argument")

	// ErrSizeMismatch is returned when an ingested buffer length is
	// inconsistent with the stated dimensions.
	ErrSizeMismatch = errors.New("imgframe: buffer size mismatch")

	// ErrUnsupportedType is returned when a data type has no element width
	// or no correspondent in an adapter's type system.
	ErrUnsupportedType = errors.New("imgframe: unsupported data type")

	// ErrUnrecognizedType is returned when a foreign type tag has no
	// mapping back into DataType.
	ErrUnrecognizedType = errors.New("imgframe: unrecognized type tag")
)
