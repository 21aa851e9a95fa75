package imgframe

// TypeMapper converts between frame type tags and the type tags of an
// external imaging library.
//
// Implementations live in the adapter/ packages. An adapter builds
// non-owning views from a frame's Bytes, BytesPerLine, Size and Depth; the
// frame keeps exclusive ownership, and a view must not be used after the
// frame's buffer is reallocated, cleared or moved.
type TypeMapper[Tag any] interface {
	// ToNativeTypeTag returns the native tag for depth channels of t.
	// Returns ErrUnsupportedType when the library has no correspondent.
	ToNativeTypeTag(t DataType, depth uint) (Tag, error)

	// FromNativeTypeTag returns the data type and channel count of a
	// native tag. Returns ErrUnrecognizedType for tags with no mapping.
	FromNativeTypeTag(tag Tag) (DataType, uint, error)
}
