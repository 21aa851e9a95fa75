// Package stdimage connects frames to the Go image packages.
//
// Frames of UChar samples are exposed as *image.Gray and *image.RGBA that
// share the frame buffer. UShort frames get views that read and write
// samples in native byte order, because the image package's own 16-bit
// types store big-endian bytes.
package stdimage

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/gogpu/imgframe"
	"github.com/gogpu/imgframe/safe"
)

// Kind identifies a Go image pixel model.
type Kind uint8

// Image kinds.
const (
	KindUnknown Kind = iota
	KindGray
	KindGray16
	KindRGBA
	KindRGBA64
	KindNRGBA
	KindNRGBA64
	KindCMYK
	KindAlpha
	KindAlpha16

	kindCount
)

var kindNames = [kindCount]string{
	KindUnknown: "unknown",
	KindGray:    "gray",
	KindGray16:  "gray16",
	KindRGBA:    "rgba",
	KindRGBA64:  "rgba64",
	KindNRGBA:   "nrgba",
	KindNRGBA64: "nrgba64",
	KindCMYK:    "cmyk",
	KindAlpha:   "alpha",
	KindAlpha16: "alpha16",
}

// String returns the lowercase kind name.
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

type layoutKey struct {
	dataType imgframe.DataType
	depth    uint
}

// kindLayouts holds the frame layout of kinds whose samples are stored
// as is. NRGBA, NRGBA64 and CMYK samples mean something else than the
// premultiplied RGBA a four-channel frame is viewed as, so they have no
// entry and FromImage converts them.
var kindLayouts = [kindCount]layoutKey{
	KindGray:    {imgframe.UChar, 1},
	KindGray16:  {imgframe.UShort, 1},
	KindRGBA:    {imgframe.UChar, 4},
	KindRGBA64:  {imgframe.UShort, 4},
	KindAlpha:   {imgframe.UChar, 1},
	KindAlpha16: {imgframe.UShort, 1},
}

// Mapper converts between frame type tags and Go image kinds.
type Mapper struct{}

var _ imgframe.TypeMapper[Kind] = Mapper{}

// ToNativeTypeTag returns the image kind a frame of t at depth channels is
// viewed as. Only Gray, Gray16, RGBA and RGBA64 are produced.
func (Mapper) ToNativeTypeTag(t imgframe.DataType, depth uint) (Kind, error) {
	switch {
	case t == imgframe.UChar && depth == 1:
		return KindGray, nil
	case t == imgframe.UChar && depth == 4:
		return KindRGBA, nil
	case t == imgframe.UShort && depth == 1:
		return KindGray16, nil
	case t == imgframe.UShort && depth == 4:
		return KindRGBA64, nil
	}
	return KindUnknown, fmt.Errorf("%w: no image kind for %v x%d", imgframe.ErrUnsupportedType, t, depth)
}

// FromNativeTypeTag returns the sample type and channel count of an image
// kind. Kinds that are converted on ingestion (NRGBA, NRGBA64, CMYK) are
// unrecognized.
func (Mapper) FromNativeTypeTag(k Kind) (imgframe.DataType, uint, error) {
	if k >= kindCount || kindLayouts[k].depth == 0 {
		return imgframe.Undefined, 0, fmt.Errorf("%w: image kind %v", imgframe.ErrUnrecognizedType, k)
	}
	l := kindLayouts[k]
	return l.dataType, l.depth, nil
}

// KindOf returns the kind of img, or KindUnknown for pixel models without a
// frame layout such as *image.YCbCr and *image.Paletted.
func KindOf(img image.Image) Kind {
	switch img.(type) {
	case *image.Gray:
		return KindGray
	case *image.Gray16, *gray16View:
		return KindGray16
	case *image.RGBA:
		return KindRGBA
	case *image.RGBA64, *rgba64View:
		return KindRGBA64
	case *image.NRGBA:
		return KindNRGBA
	case *image.NRGBA64:
		return KindNRGBA64
	case *image.CMYK:
		return KindCMYK
	case *image.Alpha:
		return KindAlpha
	case *image.Alpha16:
		return KindAlpha16
	}
	return KindUnknown
}

// DataTypeOf returns the frame layout img is ingested as without conversion.
// Returns ErrUnrecognizedType for images FromImage must convert first, such
// as *image.NRGBA, *image.CMYK and *image.YCbCr.
func DataTypeOf(img image.Image) (imgframe.DataType, uint, error) {
	return Mapper{}.FromNativeTypeTag(KindOf(img))
}

// View returns an image sharing f's buffer. Writes through the image are
// visible in f. The view must not be used after f is reallocated, cleared
// or moved.
func View(f *imgframe.Frame) (draw.Image, error) {
	kind, err := Mapper{}.ToNativeTypeTag(f.DataType(), f.Depth())
	if err != nil {
		return nil, err
	}
	rect, stride, err := bounds(f)
	if err != nil {
		return nil, err
	}
	pix := f.Bytes()
	switch kind {
	case KindGray:
		return &image.Gray{Pix: pix, Stride: stride, Rect: rect}, nil
	case KindRGBA:
		return &image.RGBA{Pix: pix, Stride: stride, Rect: rect}, nil
	case KindGray16:
		return &gray16View{pix: pix, stride: stride, rect: rect}, nil
	default:
		return &rgba64View{pix: pix, stride: stride, rect: rect}, nil
	}
}

// FromImage copies img into a new tightly packed frame.
//
// Gray, Alpha and premultiplied RGBA images are ingested sample for sample,
// with 16-bit samples converted to native byte order. Any other image is
// first drawn into an RGBA image, or an RGBA64 image for *image.NRGBA64.
func FromImage(img image.Image) (*imgframe.Frame, error) {
	b := img.Bounds()
	switch m := img.(type) {
	case *image.Gray:
		return ingest(imgframe.UChar, 1, m.Pix[m.PixOffset(b.Min.X, b.Min.Y):], m.Stride, b, false)
	case *image.Alpha:
		return ingest(imgframe.UChar, 1, m.Pix[m.PixOffset(b.Min.X, b.Min.Y):], m.Stride, b, false)
	case *image.RGBA:
		return ingest(imgframe.UChar, 4, m.Pix[m.PixOffset(b.Min.X, b.Min.Y):], m.Stride, b, false)
	case *image.Gray16:
		return ingest(imgframe.UShort, 1, m.Pix[m.PixOffset(b.Min.X, b.Min.Y):], m.Stride, b, true)
	case *image.Alpha16:
		return ingest(imgframe.UShort, 1, m.Pix[m.PixOffset(b.Min.X, b.Min.Y):], m.Stride, b, true)
	case *image.RGBA64:
		return ingest(imgframe.UShort, 4, m.Pix[m.PixOffset(b.Min.X, b.Min.Y):], m.Stride, b, true)
	case *gray16View:
		return ingest(imgframe.UShort, 1, m.pix, m.stride, b, false)
	case *rgba64View:
		return ingest(imgframe.UShort, 4, m.pix, m.stride, b, false)
	}

	imgframe.Logger().Debug("stdimage: converting to rgba", "type", fmt.Sprintf("%T", img), "bounds", b)
	r := image.Rect(0, 0, b.Dx(), b.Dy())
	if _, ok := img.(*image.NRGBA64); ok {
		dst := image.NewRGBA64(r)
		draw.Draw(dst, r, img, b.Min, draw.Src)
		return ingest(imgframe.UShort, 4, dst.Pix, dst.Stride, r, true)
	}
	dst := image.NewRGBA(r)
	draw.Draw(dst, r, img, b.Min, draw.Src)
	return ingest(imgframe.UChar, 4, dst.Pix, dst.Stride, r, false)
}

// ingest copies a strided sample buffer into a new frame. When bigEndian is
// set the 16-bit samples are rewritten in native byte order.
func ingest(t imgframe.DataType, depth uint, pix []byte, stride int, b image.Rectangle, bigEndian bool) (*imgframe.Frame, error) {
	w, err := safe.Cast[uint](b.Dx())
	if err != nil {
		return nil, err
	}
	h, err := safe.Cast[uint](b.Dy())
	if err != nil {
		return nil, err
	}
	s, err := safe.Cast[uint](stride)
	if err != nil {
		return nil, err
	}
	f := &imgframe.Frame{}
	if err := f.CopyFromStrided(t, pix, imgframe.Sz(w, h), depth, s); err != nil {
		return nil, err
	}
	if bigEndian {
		buf := f.Bytes()
		for i := 0; i+1 < len(buf); i += 2 {
			binary.NativeEndian.PutUint16(buf[i:], binary.BigEndian.Uint16(buf[i:]))
		}
	}
	return f, nil
}

// bounds returns the image rectangle and stride of f as ints.
func bounds(f *imgframe.Frame) (image.Rectangle, int, error) {
	size := f.Size()
	w, err := safe.Cast[int](size.Width)
	if err != nil {
		return image.Rectangle{}, 0, err
	}
	h, err := safe.Cast[int](size.Height)
	if err != nil {
		return image.Rectangle{}, 0, err
	}
	stride, err := safe.Cast[int](f.BytesPerLine())
	if err != nil {
		return image.Rectangle{}, 0, err
	}
	return image.Rect(0, 0, w, h), stride, nil
}

// gray16View is a single-channel 16-bit image over native-order samples.
type gray16View struct {
	pix    []byte
	stride int
	rect   image.Rectangle
}

func (v *gray16View) ColorModel() color.Model { return color.Gray16Model }

func (v *gray16View) Bounds() image.Rectangle { return v.rect }

func (v *gray16View) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(v.rect)) {
		return color.Gray16{}
	}
	return color.Gray16{Y: binary.NativeEndian.Uint16(v.pix[v.offset(x, y):])}
}

func (v *gray16View) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(v.rect)) {
		return
	}
	g := color.Gray16Model.Convert(c).(color.Gray16)
	binary.NativeEndian.PutUint16(v.pix[v.offset(x, y):], g.Y)
}

func (v *gray16View) offset(x, y int) int {
	return (y-v.rect.Min.Y)*v.stride + (x-v.rect.Min.X)*2
}

// rgba64View is a premultiplied RGBA image over native-order 16-bit samples.
type rgba64View struct {
	pix    []byte
	stride int
	rect   image.Rectangle
}

func (v *rgba64View) ColorModel() color.Model { return color.RGBA64Model }

func (v *rgba64View) Bounds() image.Rectangle { return v.rect }

func (v *rgba64View) At(x, y int) color.Color {
	return v.RGBA64At(x, y)
}

func (v *rgba64View) RGBA64At(x, y int) color.RGBA64 {
	if !(image.Point{x, y}.In(v.rect)) {
		return color.RGBA64{}
	}
	s := v.pix[v.offset(x, y):]
	return color.RGBA64{
		R: binary.NativeEndian.Uint16(s[0:]),
		G: binary.NativeEndian.Uint16(s[2:]),
		B: binary.NativeEndian.Uint16(s[4:]),
		A: binary.NativeEndian.Uint16(s[6:]),
	}
}

func (v *rgba64View) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(v.rect)) {
		return
	}
	v.SetRGBA64(x, y, color.RGBA64Model.Convert(c).(color.RGBA64))
}

func (v *rgba64View) SetRGBA64(x, y int, c color.RGBA64) {
	if !(image.Point{x, y}.In(v.rect)) {
		return
	}
	s := v.pix[v.offset(x, y):]
	binary.NativeEndian.PutUint16(s[0:], c.R)
	binary.NativeEndian.PutUint16(s[2:], c.G)
	binary.NativeEndian.PutUint16(s[4:], c.B)
	binary.NativeEndian.PutUint16(s[6:], c.A)
}

func (v *rgba64View) offset(x, y int) int {
	return (y-v.rect.Min.Y)*v.stride + (x-v.rect.Min.X)*8
}
