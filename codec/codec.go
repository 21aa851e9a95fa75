// Package codec serializes frames as CBOR multi-dimensional typed arrays.
//
// A frame is written as an RFC 8746 multi-dimensional array (tag 40) whose
// content is [[height, width, depth], typedArray]. The typed array tag
// records the sample type and byte order, so frames written on one host
// decode correctly on another. Samples are encoded in host byte order and
// swapped on decode when the stream's order differs.
//
// An empty frame encodes as CBOR null.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"
	"github.com/x448/float16"

	"github.com/gogpu/imgframe"
	"github.com/gogpu/imgframe/safe"
)

// ErrTooLarge is returned when an encoded frame exceeds the configured
// maximum payload size.
var ErrTooLarge = errors.New("codec: frame exceeds size limit")

// DefaultMaxBytes is the default payload limit for decoding, 1 GiB.
const DefaultMaxBytes = 1 << 30

// RFC 8746 tag numbers.
const (
	tagMultiDimArray = 40

	tagUint8     = 64
	tagUint16BE  = 65
	tagUint32BE  = 66
	tagUint64BE  = 67
	tagUint8Clmp = 68
	tagUint16LE  = 69
	tagUint32LE  = 70
	tagUint64LE  = 71
	tagSint8     = 72
	tagSint16BE  = 73
	tagSint32BE  = 74
	tagSint64BE  = 75
	tagSint16LE  = 77
	tagSint32LE  = 78
	tagSint64LE  = 79
	tagFloat16BE = 80
	tagFloat32BE = 81
	tagFloat64BE = 82
	tagFloat16LE = 84
	tagFloat32LE = 85
	tagFloat64LE = 86
)

// typedArray describes one typed array tag.
type typedArray struct {
	dataType  imgframe.DataType
	width     int // sample width in the stream
	bigEndian bool
	half      bool
}

var typedArrays = map[uint64]typedArray{
	tagUint8:     {imgframe.UChar, 1, false, false},
	tagUint8Clmp: {imgframe.UChar, 1, false, false},
	tagSint8:     {imgframe.SChar, 1, false, false},
	tagUint16BE:  {imgframe.UShort, 2, true, false},
	tagUint16LE:  {imgframe.UShort, 2, false, false},
	tagSint16BE:  {imgframe.Short, 2, true, false},
	tagSint16LE:  {imgframe.Short, 2, false, false},
	tagUint32BE:  {imgframe.UInt, 4, true, false},
	tagUint32LE:  {imgframe.UInt, 4, false, false},
	tagSint32BE:  {imgframe.Int, 4, true, false},
	tagSint32LE:  {imgframe.Int, 4, false, false},
	tagUint64BE:  {imgframe.ULongLong, 8, true, false},
	tagUint64LE:  {imgframe.ULongLong, 8, false, false},
	tagSint64BE:  {imgframe.LongLong, 8, true, false},
	tagSint64LE:  {imgframe.LongLong, 8, false, false},
	tagFloat16BE: {imgframe.Float, 2, true, true},
	tagFloat16LE: {imgframe.Float, 2, false, true},
	tagFloat32BE: {imgframe.Float, 4, true, false},
	tagFloat32LE: {imgframe.Float, 4, false, false},
	tagFloat64BE: {imgframe.Double, 8, true, false},
	tagFloat64LE: {imgframe.Double, 8, false, false},
}

var hostBigEndian = binary.NativeEndian.Uint16([]byte{0, 1}) == 1

// Mapper converts between frame data types and typed array tag numbers in
// host byte order.
type Mapper struct{}

var _ imgframe.TypeMapper[uint64] = Mapper{}

// ToNativeTypeTag returns the typed array tag for samples of t. Depth is
// carried by the array dimensions and does not affect the tag.
func (Mapper) ToNativeTypeTag(t imgframe.DataType, depth uint) (uint64, error) {
	if depth == 0 {
		return 0, fmt.Errorf("%w: depth must be at least 1", imgframe.ErrInvalidArgument)
	}
	tag, ok := hostTag(t)
	if !ok {
		return 0, fmt.Errorf("%w: no typed array for %v", imgframe.ErrUnsupportedType, t)
	}
	return tag, nil
}

// FromNativeTypeTag returns the data type stored under a typed array tag.
// The channel count is not part of the tag and is reported as 1.
func (Mapper) FromNativeTypeTag(tag uint64) (imgframe.DataType, uint, error) {
	ta, ok := typedArrays[tag]
	if !ok {
		return imgframe.Undefined, 0, fmt.Errorf("%w: typed array tag %d", imgframe.ErrUnrecognizedType, tag)
	}
	return ta.dataType, 1, nil
}

func hostTag(t imgframe.DataType) (uint64, bool) {
	pick := func(le, be uint64) uint64 {
		if hostBigEndian {
			return be
		}
		return le
	}
	switch t {
	case imgframe.UChar:
		return tagUint8, true
	case imgframe.Char, imgframe.SChar:
		return tagSint8, true
	case imgframe.UShort:
		return pick(tagUint16LE, tagUint16BE), true
	case imgframe.Short:
		return pick(tagSint16LE, tagSint16BE), true
	case imgframe.UInt:
		return pick(tagUint32LE, tagUint32BE), true
	case imgframe.Int:
		return pick(tagSint32LE, tagSint32BE), true
	case imgframe.ULongLong:
		return pick(tagUint64LE, tagUint64BE), true
	case imgframe.LongLong:
		return pick(tagSint64LE, tagSint64BE), true
	case imgframe.Float:
		return pick(tagFloat32LE, tagFloat32BE), true
	case imgframe.Double:
		return pick(tagFloat64LE, tagFloat64BE), true
	}
	return 0, false
}

// Marshal returns the CBOR encoding of f.
func Marshal(f *imgframe.Frame, opts ...Option) ([]byte, error) {
	o := newOptions(opts)
	v, err := o.value(f)
	if err != nil {
		return nil, err
	}
	return o.encMode.Marshal(v)
}

// Unmarshal decodes a frame from data. data must hold exactly one CBOR item.
func Unmarshal(data []byte, opts ...Option) (*imgframe.Frame, error) {
	o := newOptions(opts)
	if len(data) > o.maxBytes+maxHeader {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}
	var v any
	if err := o.decMode.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("codec: %w", err)
	}
	return o.frame(v)
}

// maxHeader bounds the encoding overhead of a frame beyond its payload:
// two tags, the dimension array and the byte string header.
const maxHeader = 64

// value builds the CBOR data model value for f.
func (o *options) value(f *imgframe.Frame) (any, error) {
	if f == nil || f.IsEmpty() {
		return nil, nil
	}
	tag, err := Mapper{}.ToNativeTypeTag(f.DataType(), f.Depth())
	if err != nil {
		return nil, err
	}
	size := f.Size()
	payload := packed(f)
	if payload == nil {
		// nil would encode as null rather than an empty byte string
		payload = []byte{}
	}
	if o.half && f.DataType() == imgframe.Float {
		if payload, err = toHalf(payload); err != nil {
			return nil, err
		}
		tag = tagFloat16LE
		if hostBigEndian {
			tag = tagFloat16BE
		}
	}
	o.logger.Debug("codec: encode frame",
		"type", f.DataType(), "size", size, "depth", f.Depth(), "tag", tag, "bytes", len(payload))
	dims := []uint64{uint64(size.Height), uint64(size.Width), uint64(f.Depth())}
	return cbor.Tag{
		Number:  tagMultiDimArray,
		Content: []any{dims, cbor.Tag{Number: tag, Content: payload}},
	}, nil
}

// packed returns the frame samples without row padding.
func packed(f *imgframe.Frame) []byte {
	row, err := imgframe.BytesPerLine(f.DataType(), f.Size().Width, f.Depth())
	if err != nil || row == f.BytesPerLine() {
		return f.Bytes()
	}
	out := make([]byte, 0, row*f.Size().Height)
	for y := range f.Size().Height {
		r, _ := f.Row(y)
		out = append(out, r...)
	}
	return out
}

// frame converts a decoded CBOR data model value to a frame.
func (o *options) frame(v any) (*imgframe.Frame, error) {
	if v == nil {
		return &imgframe.Frame{}, nil
	}
	tag, ok := v.(cbor.Tag)
	if !ok || tag.Number != tagMultiDimArray {
		return nil, fmt.Errorf("%w: expected multi-dimensional array tag %d", imgframe.ErrInvalidArgument, tagMultiDimArray)
	}
	items, ok := tag.Content.([]any)
	if !ok || len(items) != 2 {
		return nil, fmt.Errorf("%w: invalid multi-dimensional array content", imgframe.ErrInvalidArgument)
	}
	size, depth, err := dims(items[0])
	if err != nil {
		return nil, err
	}
	typed, ok := items[1].(cbor.Tag)
	if !ok {
		return nil, fmt.Errorf("%w: expected typed array tag", imgframe.ErrInvalidArgument)
	}
	ta, ok := typedArrays[typed.Number]
	if !ok {
		return nil, fmt.Errorf("%w: typed array tag %d", imgframe.ErrUnrecognizedType, typed.Number)
	}
	payload, ok := typed.Content.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: typed array content %T", imgframe.ErrInvalidArgument, typed.Content)
	}
	decoded := len(payload)
	if ta.half {
		decoded *= 2
	}
	if decoded > o.maxBytes {
		return nil, fmt.Errorf("%w: %d byte payload, limit %d", ErrTooLarge, decoded, o.maxBytes)
	}
	if len(payload)%ta.width != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", imgframe.ErrSizeMismatch, len(payload), ta.width)
	}

	switch {
	case ta.half:
		payload = fromHalf(payload, ta.bigEndian)
	case ta.width > 1 && ta.bigEndian != hostBigEndian:
		swap(payload, ta.width)
	}

	o.logger.Debug("codec: decode frame",
		"type", ta.dataType, "size", size, "depth", depth, "tag", typed.Number, "bytes", len(payload))
	f := &imgframe.Frame{}
	if err := f.MoveFrom(ta.dataType, &payload, size, depth); err != nil {
		return nil, err
	}
	return f, nil
}

// dims parses [height, width, depth] or [height, width].
func dims(v any) (imgframe.Size, uint, error) {
	raw, ok := v.([]any)
	if !ok || len(raw) < 2 || len(raw) > 3 {
		return imgframe.Size{}, 0, fmt.Errorf("%w: invalid dimensions", imgframe.ErrInvalidArgument)
	}
	n := [3]uint{0, 0, 1}
	for i, d := range raw {
		u, ok := d.(uint64)
		if !ok {
			return imgframe.Size{}, 0, fmt.Errorf("%w: dimension %d is %T", imgframe.ErrInvalidArgument, i, d)
		}
		c, err := safe.Cast[uint](u)
		if err != nil {
			return imgframe.Size{}, 0, err
		}
		n[i] = c
	}
	return imgframe.Sz(n[1], n[0]), n[2], nil
}

// swap reverses the byte order of every width-byte sample in b.
func swap(b []byte, width int) {
	for i := 0; i+width <= len(b); i += width {
		s := b[i : i+width]
		for l, r := 0, width-1; l < r; l, r = l+1, r-1 {
			s[l], s[r] = s[r], s[l]
		}
	}
}

// toHalf converts native float32 samples to host-order binary16.
func toHalf(b []byte) ([]byte, error) {
	out := make([]byte, len(b)/2)
	for i := 0; i+4 <= len(b); i += 4 {
		v := math.Float32frombits(binary.NativeEndian.Uint32(b[i:]))
		if float16.PrecisionFromfloat32(v) == float16.PrecisionOverflow {
			return nil, fmt.Errorf("%w: %v does not fit a half-precision float", imgframe.ErrOverflow, v)
		}
		binary.NativeEndian.PutUint16(out[i/2:], float16.Fromfloat32(v).Bits())
	}
	return out, nil
}

// fromHalf widens binary16 samples to native float32.
func fromHalf(b []byte, bigEndian bool) []byte {
	var order binary.ByteOrder = binary.LittleEndian
	if bigEndian {
		order = binary.BigEndian
	}
	out := make([]byte, len(b)*2)
	for i := 0; i+2 <= len(b); i += 2 {
		v := float16.Frombits(order.Uint16(b[i:])).Float32()
		binary.NativeEndian.PutUint32(out[i*2:], math.Float32bits(v))
	}
	return out
}
