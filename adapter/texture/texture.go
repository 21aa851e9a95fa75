// Package texture maps frames to WebGPU texture formats and upload layouts.
//
// A frame's (DataType, depth) pair selects a [gputypes.TextureFormat]; its
// stride and size become a [gputypes.TextureDataLayout] and
// [gputypes.Extent3D] ready for a queue write or a buffer-to-texture copy.
// WebGPU has no 64-bit integer or double formats and no 3-channel formats,
// so those frames are rejected with imgframe.ErrUnsupportedType.
package texture

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/imgframe"
	"github.com/gogpu/imgframe/safe"
)

// CopyBytesPerRowAlignment is the WebGPU row alignment required for
// buffer-to-texture copies.
const CopyBytesPerRowAlignment = 256

type formatKey struct {
	dataType imgframe.DataType
	depth    uint
}

// toFormat is the forward table. UChar maps to normalized formats, which is
// what samplers expect for 8-bit image data.
var toFormat = map[formatKey]gputypes.TextureFormat{
	{imgframe.Char, 1}:   gputypes.TextureFormatR8Snorm,
	{imgframe.Char, 2}:   gputypes.TextureFormatRG8Snorm,
	{imgframe.Char, 4}:   gputypes.TextureFormatRGBA8Snorm,
	{imgframe.SChar, 1}:  gputypes.TextureFormatR8Snorm,
	{imgframe.SChar, 2}:  gputypes.TextureFormatRG8Snorm,
	{imgframe.SChar, 4}:  gputypes.TextureFormatRGBA8Snorm,
	{imgframe.UChar, 1}:  gputypes.TextureFormatR8Unorm,
	{imgframe.UChar, 2}:  gputypes.TextureFormatRG8Unorm,
	{imgframe.UChar, 4}:  gputypes.TextureFormatRGBA8Unorm,
	{imgframe.Short, 1}:  gputypes.TextureFormatR16Sint,
	{imgframe.Short, 2}:  gputypes.TextureFormatRG16Sint,
	{imgframe.Short, 4}:  gputypes.TextureFormatRGBA16Sint,
	{imgframe.UShort, 1}: gputypes.TextureFormatR16Uint,
	{imgframe.UShort, 2}: gputypes.TextureFormatRG16Uint,
	{imgframe.UShort, 4}: gputypes.TextureFormatRGBA16Uint,
	{imgframe.Int, 1}:    gputypes.TextureFormatR32Sint,
	{imgframe.Int, 2}:    gputypes.TextureFormatRG32Sint,
	{imgframe.Int, 4}:    gputypes.TextureFormatRGBA32Sint,
	{imgframe.UInt, 1}:   gputypes.TextureFormatR32Uint,
	{imgframe.UInt, 2}:   gputypes.TextureFormatRG32Uint,
	{imgframe.UInt, 4}:   gputypes.TextureFormatRGBA32Uint,
	{imgframe.Float, 1}:  gputypes.TextureFormatR32Float,
	{imgframe.Float, 2}:  gputypes.TextureFormatRG32Float,
	{imgframe.Float, 4}:  gputypes.TextureFormatRGBA32Float,
}

// fromFormat is the reverse table. Integer and normalized variants of the
// same storage map to the same data type; Char is never produced.
var fromFormat = map[gputypes.TextureFormat]formatKey{
	gputypes.TextureFormatR8Unorm:     {imgframe.UChar, 1},
	gputypes.TextureFormatR8Uint:      {imgframe.UChar, 1},
	gputypes.TextureFormatRG8Unorm:    {imgframe.UChar, 2},
	gputypes.TextureFormatRG8Uint:     {imgframe.UChar, 2},
	gputypes.TextureFormatRGBA8Unorm:  {imgframe.UChar, 4},
	gputypes.TextureFormatRGBA8Uint:   {imgframe.UChar, 4},
	gputypes.TextureFormatR8Snorm:     {imgframe.SChar, 1},
	gputypes.TextureFormatR8Sint:      {imgframe.SChar, 1},
	gputypes.TextureFormatRG8Snorm:    {imgframe.SChar, 2},
	gputypes.TextureFormatRG8Sint:     {imgframe.SChar, 2},
	gputypes.TextureFormatRGBA8Snorm:  {imgframe.SChar, 4},
	gputypes.TextureFormatRGBA8Sint:   {imgframe.SChar, 4},
	gputypes.TextureFormatR16Sint:     {imgframe.Short, 1},
	gputypes.TextureFormatR16Snorm:    {imgframe.Short, 1},
	gputypes.TextureFormatRG16Sint:    {imgframe.Short, 2},
	gputypes.TextureFormatRG16Snorm:   {imgframe.Short, 2},
	gputypes.TextureFormatRGBA16Sint:  {imgframe.Short, 4},
	gputypes.TextureFormatRGBA16Snorm: {imgframe.Short, 4},
	gputypes.TextureFormatR16Uint:     {imgframe.UShort, 1},
	gputypes.TextureFormatR16Unorm:    {imgframe.UShort, 1},
	gputypes.TextureFormatRG16Uint:    {imgframe.UShort, 2},
	gputypes.TextureFormatRG16Unorm:   {imgframe.UShort, 2},
	gputypes.TextureFormatRGBA16Uint:  {imgframe.UShort, 4},
	gputypes.TextureFormatRGBA16Unorm: {imgframe.UShort, 4},
	gputypes.TextureFormatR32Sint:     {imgframe.Int, 1},
	gputypes.TextureFormatRG32Sint:    {imgframe.Int, 2},
	gputypes.TextureFormatRGBA32Sint:  {imgframe.Int, 4},
	gputypes.TextureFormatR32Uint:     {imgframe.UInt, 1},
	gputypes.TextureFormatRG32Uint:    {imgframe.UInt, 2},
	gputypes.TextureFormatRGBA32Uint:  {imgframe.UInt, 4},
	gputypes.TextureFormatR32Float:    {imgframe.Float, 1},
	gputypes.TextureFormatRG32Float:   {imgframe.Float, 2},
	gputypes.TextureFormatRGBA32Float: {imgframe.Float, 4},
}

// Mapper converts between frame type tags and WebGPU texture formats.
type Mapper struct{}

var _ imgframe.TypeMapper[gputypes.TextureFormat] = Mapper{}

// ToNativeTypeTag returns the texture format for depth channels of t.
func (Mapper) ToNativeTypeTag(t imgframe.DataType, depth uint) (gputypes.TextureFormat, error) {
	f, ok := toFormat[formatKey{t, depth}]
	if !ok {
		return gputypes.TextureFormatUndefined,
			fmt.Errorf("%w: no texture format for %v x%d", imgframe.ErrUnsupportedType, t, depth)
	}
	return f, nil
}

// FromNativeTypeTag returns the data type and channel count stored by a
// texture format.
func (Mapper) FromNativeTypeTag(f gputypes.TextureFormat) (imgframe.DataType, uint, error) {
	k, ok := fromFormat[f]
	if !ok {
		return imgframe.Undefined, 0,
			fmt.Errorf("%w: texture format %v", imgframe.ErrUnrecognizedType, f)
	}
	return k.dataType, k.depth, nil
}

// Format is shorthand for Mapper{}.ToNativeTypeTag(f.DataType(), f.Depth()).
func Format(f *imgframe.Frame) (gputypes.TextureFormat, error) {
	return Mapper{}.ToNativeTypeTag(f.DataType(), f.Depth())
}

// View is a non-owning description of a frame as texture upload data.
// Data aliases the frame buffer unless the view came from Aligned.
type View struct {
	Data   []byte
	Format gputypes.TextureFormat
	Layout gputypes.TextureDataLayout
	Extent gputypes.Extent3D
}

// NewView describes f as a single-layer 2D texture upload. The view borrows
// f's buffer and must not be used after f is reallocated, cleared or moved.
func NewView(f *imgframe.Frame) (*View, error) {
	format, err := Format(f)
	if err != nil {
		return nil, err
	}
	layout, extent, err := describe(f.BytesPerLine(), f.Size())
	if err != nil {
		return nil, err
	}
	return &View{
		Data:   f.Bytes(),
		Format: format,
		Layout: layout,
		Extent: extent,
	}, nil
}

// Aligned returns a copy of f whose rows are padded to a multiple of
// alignment bytes, as required by buffer-to-texture copies. An alignment of
// 0 selects CopyBytesPerRowAlignment. The returned data is owned by the
// caller.
func Aligned(f *imgframe.Frame, alignment uint) (*View, error) {
	if alignment == 0 {
		alignment = CopyBytesPerRowAlignment
	}
	format, err := Format(f)
	if err != nil {
		return nil, err
	}
	size := f.Size()
	row, err := imgframe.BytesPerLine(f.DataType(), size.Width, f.Depth())
	if err != nil {
		return nil, err
	}
	stride, err := alignUp(row, alignment)
	if err != nil {
		return nil, err
	}
	total, err := safe.Multiply(stride, size.Height)
	if err != nil {
		return nil, err
	}
	n, err := safe.Cast[int](total)
	if err != nil {
		return nil, err
	}
	layout, extent, err := describe(stride, size)
	if err != nil {
		return nil, err
	}

	imgframe.Logger().Debug("texture: aligned copy",
		"format", format, "rowBytes", row, "bytesPerRow", stride, "bytes", total)

	data := make([]byte, n)
	for y := range size.Height {
		src, err := f.Row(y)
		if err != nil {
			return nil, err
		}
		copy(data[y*stride:], src)
	}
	return &View{Data: data, Format: format, Layout: layout, Extent: extent}, nil
}

// ToFrame copies texture readback data laid out as v into a new frame,
// dropping row padding.
func ToFrame(v *View) (*imgframe.Frame, error) {
	dt, depth, err := Mapper{}.FromNativeTypeTag(v.Format)
	if err != nil {
		return nil, err
	}
	f := &imgframe.Frame{}
	size := imgframe.Sz(uint(v.Extent.Width), uint(v.Extent.Height))
	start, err := safe.Cast[int](v.Layout.Offset)
	if err != nil {
		return nil, err
	}
	if start > len(v.Data) {
		return nil, fmt.Errorf("%w: layout offset %d past %d bytes", imgframe.ErrSizeMismatch, start, len(v.Data))
	}
	if err := f.CopyFromStrided(dt, v.Data[start:], size, depth, uint(v.Layout.BytesPerRow)); err != nil {
		return nil, err
	}
	return f, nil
}

func describe(stride uint, size imgframe.Size) (gputypes.TextureDataLayout, gputypes.Extent3D, error) {
	bpr, err := safe.Cast[uint32](stride)
	if err != nil {
		return gputypes.TextureDataLayout{}, gputypes.Extent3D{}, err
	}
	w, err := safe.Cast[uint32](size.Width)
	if err != nil {
		return gputypes.TextureDataLayout{}, gputypes.Extent3D{}, err
	}
	h, err := safe.Cast[uint32](size.Height)
	if err != nil {
		return gputypes.TextureDataLayout{}, gputypes.Extent3D{}, err
	}
	layout := gputypes.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  bpr,
		RowsPerImage: h,
	}
	extent := gputypes.Extent3D{
		Width:              w,
		Height:             h,
		DepthOrArrayLayers: 1,
	}
	return layout, extent, nil
}

// alignUp rounds n up to a multiple of align.
func alignUp(n, align uint) (uint, error) {
	r := n % align
	if r == 0 {
		return n, nil
	}
	return safe.Add(n, align-r)
}
