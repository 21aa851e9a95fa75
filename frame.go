package imgframe

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/gogpu/imgframe/safe"
)

// Frame is a type-erased 2D pixel buffer.
//
// Frame owns a single contiguous byte slice holding Size.Height rows of
// BytesPerLine bytes each. Every pixel has Depth interleaved channel samples
// of DataType. The zero value is an empty frame (Undefined, depth 0, size
// 0x0, no data) ready to use.
//
// Every mutating method validates its arguments and computes all sizes with
// overflow-checked arithmetic before touching the frame. On error the frame
// is left exactly as it was.
//
// A Frame exclusively owns its buffer. Use Clone to duplicate it and Move to
// transfer it. A Frame must not be copied by value; go vet reports such
// copies.
//
// Thread safety: Frame provides no synchronization. Concurrent use of one
// Frame requires external locking.
type Frame struct {
	_ noCopy

	dataType     DataType
	depth        uint
	size         Size
	bytesPerLine uint
	data         []byte
}

// NewFrame creates a frame of the given type, size and depth with a zeroed
// buffer.
func NewFrame(t DataType, size Size, depth uint) (*Frame, error) {
	f := &Frame{}
	if err := f.Reset(t, size, depth); err != nil {
		return nil, err
	}
	return f, nil
}

// NewFrameFromBytes creates a frame holding a copy of the tightly packed
// pixel data in src.
func NewFrameFromBytes(t DataType, src []byte, size Size, depth uint) (*Frame, error) {
	f := &Frame{}
	if err := f.CopyFrom(t, src, size, depth); err != nil {
		return nil, err
	}
	return f, nil
}

// DataType returns the element type, or Undefined for an empty frame.
func (f *Frame) DataType() DataType {
	return f.dataType
}

// Depth returns the number of interleaved channels per pixel.
func (f *Frame) Depth() uint {
	return f.depth
}

// Size returns the frame dimensions in pixels.
func (f *Frame) Size() Size {
	return f.size
}

// BytesPerLine returns the row stride in bytes.
func (f *Frame) BytesPerLine() uint {
	return f.bytesPerLine
}

// Len returns the length of the pixel buffer in bytes.
func (f *Frame) Len() int {
	return len(f.data)
}

// IsEmpty returns true if the frame holds no typed data.
func (f *Frame) IsEmpty() bool {
	return f.dataType == Undefined
}

// Bytes returns the pixel buffer. The slice is borrowed: it is only valid
// until the next call that reallocates, clears or moves the frame.
func (f *Frame) Bytes() []byte {
	return f.data
}

// CloneBytes returns a copy of the pixel buffer.
func (f *Frame) CloneBytes() []byte {
	if f.data == nil {
		return nil
	}
	return bytes.Clone(f.data)
}

// String returns a short description such as "uchar 640x480x3 stride=1920".
func (f *Frame) String() string {
	return fmt.Sprintf("%v %vx%d stride=%d", f.dataType, f.size, f.depth, f.bytesPerLine)
}

// Reset sizes f for elements of type T, size and depth.
//
// The buffer is reallocated only when the total byte size changes; a
// freshly allocated buffer is filled with fill in native byte order. When
// the existing buffer is reused its contents are left unchanged.
func Reset[T Element](f *Frame, size Size, depth uint, fill T) error {
	t := DataTypeOf[T]()
	stride, total, err := layout(uint(t.Size()), size, depth)
	if err != nil {
		return err
	}
	if f.realloc(total) {
		fillElements(f.data, fill)
	}
	f.setLayout(t, size, depth, stride)
	return nil
}

// Reset sizes f for elements of data type t, size and depth.
//
// The buffer is reallocated only when the total byte size changes. A freshly
// allocated buffer is zeroed; a reused buffer keeps its contents.
func (f *Frame) Reset(t DataType, size Size, depth uint) error {
	elem, err := ElementWidth(t)
	if err != nil {
		return err
	}
	stride, total, err := layout(elem, size, depth)
	if err != nil {
		return err
	}
	f.realloc(total)
	f.setLayout(t, size, depth, stride)
	return nil
}

// Clear releases the buffer and returns f to the empty state.
func (f *Frame) Clear() {
	*f = Frame{}
}

// CopyFrom replaces the frame contents with a copy of src, which must be
// tightly packed: len(src) == width*height*depth*ElementWidth(t).
// Returns ErrSizeMismatch otherwise.
func (f *Frame) CopyFrom(t DataType, src []byte, size Size, depth uint) error {
	stride, total, err := evalSize(t, len(src), size, depth)
	if err != nil {
		return err
	}
	f.realloc(total)
	copy(f.data, src)
	f.setLayout(t, size, depth, stride)
	return nil
}

// CopyFromStrided replaces the frame contents with a copy of src, whose rows
// are strideBytes apart. Row padding in src is dropped: the frame is tightly
// packed afterwards.
//
// strideBytes must be at least width*depth*ElementWidth(t)
// (ErrInvalidArgument), and src must cover the last row,
// (height-1)*strideBytes + rowBytes bytes (ErrSizeMismatch).
func (f *Frame) CopyFromStrided(t DataType, src []byte, size Size, depth, strideBytes uint) error {
	elem, err := ElementWidth(t)
	if err != nil {
		return err
	}
	row, total, err := layout(elem, size, depth)
	if err != nil {
		return err
	}
	if strideBytes < row {
		return fmt.Errorf("%w: stride %d is less than row size %d", ErrInvalidArgument, strideBytes, row)
	}
	need, err := stridedExtent(strideBytes, row, size.Height)
	if err != nil {
		return err
	}
	if uint(len(src)) < need {
		return fmt.Errorf("%w: source has %d bytes, %d required", ErrSizeMismatch, len(src), need)
	}

	f.realloc(total)
	for y := range size.Height {
		s := y * strideBytes
		copy(f.data[y*row:(y+1)*row], src[s:s+row])
	}
	f.setLayout(t, size, depth, row)
	return nil
}

// CopyFromPointer is CopyFromStrided for memory that is not a Go slice,
// such as a buffer owned by a C imaging library.
//
// The extent of src cannot be validated. The caller must guarantee that src
// addresses at least strideBytes*height readable bytes that stay valid and
// unmodified for the duration of the call.
func (f *Frame) CopyFromPointer(t DataType, src unsafe.Pointer, size Size, depth, strideBytes uint) error {
	elem, err := ElementWidth(t)
	if err != nil {
		return err
	}
	row, _, err := layout(elem, size, depth)
	if err != nil {
		return err
	}
	if strideBytes < row {
		return fmt.Errorf("%w: stride %d is less than row size %d", ErrInvalidArgument, strideBytes, row)
	}
	need, err := stridedExtent(strideBytes, row, size.Height)
	if err != nil {
		return err
	}
	n, err := safe.Cast[int](need)
	if err != nil {
		return err
	}
	if n > 0 && src == nil {
		return fmt.Errorf("%w: nil source pointer", ErrInvalidArgument)
	}
	var view []byte
	if n > 0 {
		view = unsafe.Slice((*byte)(src), n)
	}
	return f.CopyFromStrided(t, view, size, depth, strideBytes)
}

// MoveFrom takes ownership of *src as the frame's buffer without copying.
// *src must be tightly packed, with the same length rule as CopyFrom. On
// success *src is set to nil; on error neither f nor *src is modified.
func (f *Frame) MoveFrom(t DataType, src *[]byte, size Size, depth uint) error {
	if src == nil {
		return fmt.Errorf("%w: nil source", ErrInvalidArgument)
	}
	stride, _, err := evalSize(t, len(*src), size, depth)
	if err != nil {
		return err
	}
	slogger().Debug("imgframe: adopt buffer", "bytes", len(*src))
	f.data = *src
	*src = nil
	f.setLayout(t, size, depth, stride)
	return nil
}

// CopyTo returns a new tightly packed frame holding the pixels of roi.
//
// Returns ErrInvalidArgument if roi has a zero dimension and ErrOutOfRange
// if it extends past the frame.
func (f *Frame) CopyTo(roi ROI) (*Frame, error) {
	if err := f.evalROI(roi); err != nil {
		return nil, err
	}
	row, total, err := layout(uint(f.dataType.Size()), roi.Extent, f.depth)
	if err != nil {
		return nil, err
	}
	origin, err := f.offset(roi.Origin)
	if err != nil {
		return nil, err
	}

	dst := &Frame{}
	dst.realloc(total)
	for y := range roi.Extent.Height {
		s := origin + y*f.bytesPerLine
		copy(dst.data[y*row:(y+1)*row], f.data[s:s+row])
	}
	dst.setLayout(f.dataType, roi.Extent, f.depth, row)
	return dst, nil
}

// Offset returns the byte offset of pixel pt in the buffer.
// Returns ErrOutOfRange if pt lies outside the frame.
func (f *Frame) Offset(pt Point) (uint, error) {
	if err := f.evalPosition(pt); err != nil {
		return 0, err
	}
	return f.offset(pt)
}

// Begin returns the buffer from pixel pt to its end, for direct reads and
// writes. The slice is borrowed like Bytes.
func (f *Frame) Begin(pt Point) ([]byte, error) {
	off, err := f.Offset(pt)
	if err != nil {
		return nil, err
	}
	return f.data[off:], nil
}

// Cbegin returns a read-only reader positioned at pixel pt.
func (f *Frame) Cbegin(pt Point) (*bytes.Reader, error) {
	off, err := f.Offset(pt)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(f.data[off:]), nil
}

// Row returns the pixel bytes of row y, excluding any padding.
// Returns ErrOutOfRange if y >= height.
func (f *Frame) Row(y uint) ([]byte, error) {
	if y >= f.size.Height {
		return nil, fmt.Errorf("%w: row %d of %d", ErrOutOfRange, y, f.size.Height)
	}
	row, err := rowBytes(f.size.Width, f.depth, uint(f.dataType.Size()))
	if err != nil {
		return nil, err
	}
	start := y * f.bytesPerLine
	return f.data[start : start+row : start+row], nil
}

// Elements returns a typed view of the buffer without copying.
//
// Returns ErrUnsupportedType if T does not match the frame's data type
// (int8 also matches Char) and ErrInvalidArgument if the buffer is not
// aligned for T. The view is borrowed like Bytes.
func Elements[T Element](f *Frame) ([]T, error) {
	want := DataTypeOf[T]()
	if f.dataType != want && !(want == SChar && f.dataType == Char) {
		return nil, fmt.Errorf("%w: frame holds %v, not %v", ErrUnsupportedType, f.dataType, want)
	}
	if len(f.data) == 0 {
		return nil, nil
	}
	var zero T
	p := unsafe.Pointer(unsafe.SliceData(f.data))
	if uintptr(p)%unsafe.Alignof(zero) != 0 {
		return nil, fmt.Errorf("%w: buffer is not aligned for %v", ErrInvalidArgument, want)
	}
	return unsafe.Slice((*T)(p), len(f.data)/int(unsafe.Sizeof(zero))), nil
}

// Clone returns a deep copy of f.
func (f *Frame) Clone() *Frame {
	c := &Frame{}
	c.setLayout(f.dataType, f.size, f.depth, f.bytesPerLine)
	c.data = f.CloneBytes()
	return c
}

// Move transfers the buffer and metadata of src to f and leaves src empty.
// Moving a frame onto itself is a no-op.
func (f *Frame) Move(src *Frame) {
	if src == nil || src == f {
		return
	}
	f.setLayout(src.dataType, src.size, src.depth, src.bytesPerLine)
	f.data = src.data
	src.Clear()
}

// Equal reports whether f and o have the same metadata and pixel bytes.
// A nil frame equals only nil.
func (f *Frame) Equal(o *Frame) bool {
	if f == nil || o == nil {
		return f == o
	}
	return f.dataType == o.dataType &&
		f.depth == o.depth &&
		f.size == o.size &&
		f.bytesPerLine == o.bytesPerLine &&
		bytes.Equal(f.data, o.data)
}

// realloc makes the buffer exactly total bytes long, reusing it when the
// length already matches. Reports whether a new buffer was allocated.
func (f *Frame) realloc(total uint) bool {
	if uint(len(f.data)) == total {
		slogger().Debug("imgframe: reuse buffer", "bytes", total)
		return false
	}
	slogger().Debug("imgframe: allocate buffer", "bytes", total, "previous", len(f.data))
	f.data = make([]byte, total)
	return true
}

// noCopy makes go vet's copylocks check report Frame values copied after
// first use.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

func (f *Frame) setLayout(t DataType, size Size, depth, stride uint) {
	f.dataType = t
	f.depth = depth
	f.size = size
	f.bytesPerLine = stride
}

// offset computes pt.Y*bytesPerLine + pt.X*depth*elementWidth.
func (f *Frame) offset(pt Point) (uint, error) {
	y, err := safe.Multiply(pt.Y, f.bytesPerLine)
	if err != nil {
		return 0, err
	}
	x, err := rowBytes(pt.X, f.depth, uint(f.dataType.Size()))
	if err != nil {
		return 0, err
	}
	return safe.Add(y, x)
}

// evalPosition fails with ErrOutOfRange unless pt lies inside the frame.
func (f *Frame) evalPosition(pt Point) error {
	if pt.X >= f.size.Width || pt.Y >= f.size.Height {
		return fmt.Errorf("%w: point %v outside %v", ErrOutOfRange, pt, f.size)
	}
	return nil
}

// evalROI fails with ErrInvalidArgument for a degenerate region and with
// ErrOutOfRange for a region that extends past the frame.
func (f *Frame) evalROI(roi ROI) error {
	if roi.Extent.Empty() {
		return fmt.Errorf("%w: empty region %v", ErrInvalidArgument, roi)
	}
	end, err := roi.Max()
	if err != nil || end.X > f.size.Width || end.Y > f.size.Height {
		return fmt.Errorf("%w: region %v outside %v", ErrOutOfRange, roi, f.size)
	}
	return nil
}

// evalSize validates that a tightly packed buffer of length bytes holds
// exactly size at depth channels of t, and returns the resulting layout.
func evalSize(t DataType, length int, size Size, depth uint) (stride, total uint, err error) {
	elem, err := ElementWidth(t)
	if err != nil {
		return 0, 0, err
	}
	stride, total, err = layout(elem, size, depth)
	if err != nil {
		return 0, 0, err
	}
	if length < 0 || uint(length) != total {
		return 0, 0, fmt.Errorf("%w: %d bytes for %v %vx%d, want %d",
			ErrSizeMismatch, length, t, size, depth, total)
	}
	return stride, total, nil
}

// layout returns the tight stride and total buffer size for size at depth
// channels of elem bytes. The total is guaranteed to be addressable.
func layout(elem uint, size Size, depth uint) (stride, total uint, err error) {
	if depth == 0 {
		return 0, 0, fmt.Errorf("%w: depth must be at least 1", ErrInvalidArgument)
	}
	if stride, err = rowBytes(size.Width, depth, elem); err != nil {
		return 0, 0, err
	}
	if total, err = safe.Multiply(size.Height, stride); err != nil {
		return 0, 0, err
	}
	if _, err = safe.Cast[int](total); err != nil {
		return 0, 0, err
	}
	return stride, total, nil
}

// stridedExtent returns the bytes spanned by height rows of row bytes laid
// out stride apart: (height-1)*stride + row, or 0 for no rows.
func stridedExtent(stride, row, height uint) (uint, error) {
	if height == 0 {
		return 0, nil
	}
	n, err := safe.Multiply(height-1, stride)
	if err != nil {
		return 0, err
	}
	return safe.Add(n, row)
}

// fillElements writes v repeatedly over buf in native byte order.
func fillElements[T Element](buf []byte, v T) {
	pattern := encodeElement(v)
	if len(buf) == 0 || isZero(pattern) {
		return
	}
	n := copy(buf, pattern)
	for n < len(buf) {
		n += copy(buf[n:], buf[:n])
	}
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func encodeElement[T Element](v T) []byte {
	b := make([]byte, DataTypeOf[T]().Size())
	switch x := any(v).(type) {
	case int8:
		b[0] = byte(x)
	case uint8:
		b[0] = x
	case int16:
		binary.NativeEndian.PutUint16(b, uint16(x))
	case uint16:
		binary.NativeEndian.PutUint16(b, x)
	case int32:
		binary.NativeEndian.PutUint32(b, uint32(x))
	case uint32:
		binary.NativeEndian.PutUint32(b, x)
	case int64:
		binary.NativeEndian.PutUint64(b, uint64(x))
	case uint64:
		binary.NativeEndian.PutUint64(b, x)
	case float32:
		binary.NativeEndian.PutUint32(b, math.Float32bits(x))
	case float64:
		binary.NativeEndian.PutUint64(b, math.Float64bits(x))
	}
	return b
}
