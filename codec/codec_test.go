package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/imgframe"
)

func gradient(t *testing.T, dt imgframe.DataType, size imgframe.Size, depth uint) *imgframe.Frame {
	t.Helper()
	f, err := imgframe.NewFrame(dt, size, depth)
	if err != nil {
		t.Fatalf("NewFrame() = %v", err)
	}
	for i := range f.Bytes() {
		f.Bytes()[i] = byte(i*7 + 3)
	}
	return f
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		dt    imgframe.DataType
		size  imgframe.Size
		depth uint
	}{
		{imgframe.UChar, imgframe.Sz(5, 4), 3},
		{imgframe.SChar, imgframe.Sz(2, 2), 1},
		{imgframe.Short, imgframe.Sz(3, 1), 2},
		{imgframe.UShort, imgframe.Sz(7, 3), 1},
		{imgframe.Int, imgframe.Sz(1, 9), 4},
		{imgframe.UInt, imgframe.Sz(2, 2), 1},
		{imgframe.LongLong, imgframe.Sz(2, 3), 1},
		{imgframe.ULongLong, imgframe.Sz(1, 1), 2},
		{imgframe.Float, imgframe.Sz(4, 4), 1},
		{imgframe.Double, imgframe.Sz(3, 2), 3},
		{imgframe.UChar, imgframe.Sz(0, 5), 1},
	}
	for _, tt := range tests {
		t.Run(tt.dt.String()+"_"+tt.size.String(), func(t *testing.T) {
			f := gradient(t, tt.dt, tt.size, tt.depth)
			data, err := Marshal(f)
			if err != nil {
				t.Fatalf("Marshal() = %v", err)
			}
			got, err := Unmarshal(data)
			if err != nil {
				t.Fatalf("Unmarshal() = %v", err)
			}
			if !got.Equal(f) {
				t.Errorf("round trip: got %v, want %v", got, f)
			}
		})
	}
}

func TestCharDecodesAsSChar(t *testing.T) {
	f := gradient(t, imgframe.Char, imgframe.Sz(3, 3), 1)
	data, err := Marshal(f)
	if err != nil {
		t.Fatalf("Marshal() = %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() = %v", err)
	}
	if got.DataType() != imgframe.SChar {
		t.Errorf("DataType() = %v, want schar", got.DataType())
	}
	if !bytes.Equal(got.Bytes(), f.Bytes()) {
		t.Error("payload changed")
	}
}

func TestEmptyFrameIsNull(t *testing.T) {
	data, err := Marshal(&imgframe.Frame{})
	if err != nil {
		t.Fatalf("Marshal() = %v", err)
	}
	if !bytes.Equal(data, []byte{0xf6}) {
		t.Errorf("Marshal(empty) = %x, want f6", data)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() = %v", err)
	}
	if !got.IsEmpty() {
		t.Errorf("Unmarshal(null) = %v, want empty", got)
	}
}

func TestWireLayout(t *testing.T) {
	f, err := imgframe.NewFrameFromBytes(imgframe.UChar, []byte{1, 2, 3, 4, 5, 6}, imgframe.Sz(3, 2), 1)
	if err != nil {
		t.Fatalf("NewFrameFromBytes() = %v", err)
	}
	data, err := Marshal(f)
	if err != nil {
		t.Fatalf("Marshal() = %v", err)
	}

	var v any
	if err := cbor.Unmarshal(data, &v); err != nil {
		t.Fatalf("cbor.Unmarshal() = %v", err)
	}
	want := cbor.Tag{
		Number: tagMultiDimArray,
		Content: []any{
			[]any{uint64(2), uint64(3), uint64(1)},
			cbor.Tag{Number: tagUint8, Content: []byte{1, 2, 3, 4, 5, 6}},
		},
	}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("wire mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeForeignByteOrder(t *testing.T) {
	// A big-endian uint16 array must decode to the same values on any host.
	payload := []byte{0x01, 0x02, 0xff, 0x00}
	data, err := cbor.Marshal(cbor.Tag{
		Number: tagMultiDimArray,
		Content: []any{
			[]uint64{1, 2},
			cbor.Tag{Number: tagUint16BE, Content: payload},
		},
	})
	if err != nil {
		t.Fatalf("cbor.Marshal() = %v", err)
	}
	f, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() = %v", err)
	}
	if f.Depth() != 1 || f.Size() != imgframe.Sz(2, 1) {
		t.Fatalf("Unmarshal() = %v", f)
	}
	got, err := imgframe.Elements[uint16](f)
	if err != nil {
		t.Fatalf("Elements() = %v", err)
	}
	if diff := cmp.Diff([]uint16{0x0102, 0xff00}, got); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
}

func TestHalfFloat(t *testing.T) {
	in := []float32{0, 1, -2.5, 0.25}
	src := make([]byte, 16)
	for i, v := range in {
		binary.NativeEndian.PutUint32(src[i*4:], math.Float32bits(v))
	}
	f, err := imgframe.NewFrameFromBytes(imgframe.Float, src, imgframe.Sz(2, 2), 1)
	if err != nil {
		t.Fatalf("NewFrameFromBytes() = %v", err)
	}

	half, err := Marshal(f, WithHalfFloat())
	if err != nil {
		t.Fatalf("Marshal() = %v", err)
	}
	full, _ := Marshal(f)
	if len(half) >= len(full) {
		t.Errorf("half encoding %d bytes, full %d", len(half), len(full))
	}

	got, err := Unmarshal(half)
	if err != nil {
		t.Fatalf("Unmarshal() = %v", err)
	}
	if !got.Equal(f) {
		t.Errorf("exactly representable values changed: %v", got)
	}

	binary.NativeEndian.PutUint32(f.Bytes(), math.Float32bits(1e6))
	if _, err := Marshal(f, WithHalfFloat()); !errors.Is(err, imgframe.ErrOverflow) {
		t.Errorf("error = %v, want ErrOverflow", err)
	}
}

func TestUnmarshalErrors(t *testing.T) {
	enc := func(v any) []byte {
		b, err := cbor.Marshal(v)
		if err != nil {
			t.Fatalf("cbor.Marshal() = %v", err)
		}
		return b
	}
	md := func(dims any, tag uint64, content any) []byte {
		return enc(cbor.Tag{Number: tagMultiDimArray, Content: []any{dims, cbor.Tag{Number: tag, Content: content}}})
	}

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"not a tag", enc([]int{1, 2}), imgframe.ErrInvalidArgument},
		{"wrong tag", enc(cbor.Tag{Number: 41, Content: []any{}}), imgframe.ErrInvalidArgument},
		{"bad dims", md([]uint64{1}, tagUint8, []byte{1}), imgframe.ErrInvalidArgument},
		{"negative dim", md([]int{-1, 1}, tagUint8, []byte{1}), imgframe.ErrInvalidArgument},
		{"unknown typed array", md([]uint64{1, 1}, 83, make([]byte, 16)), imgframe.ErrUnrecognizedType},
		{"payload not bytes", md([]uint64{1, 1}, tagUint8, "x"), imgframe.ErrInvalidArgument},
		{"size mismatch", md([]uint64{2, 2}, tagUint8, []byte{1, 2, 3}), imgframe.ErrSizeMismatch},
		{"partial sample", md([]uint64{1, 1}, tagUint32LE, []byte{1, 2, 3}), imgframe.ErrSizeMismatch},
		{"zero depth", md([]uint64{1, 1, 0}, tagUint8, []byte{}), imgframe.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unmarshal(tt.data); !errors.Is(err, tt.wantErr) {
				t.Errorf("Unmarshal() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMaxBytes(t *testing.T) {
	f := gradient(t, imgframe.UChar, imgframe.Sz(64, 64), 1)
	data, err := Marshal(f)
	if err != nil {
		t.Fatalf("Marshal() = %v", err)
	}
	if _, err := Unmarshal(data, WithMaxBytes(1024)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("error = %v, want ErrTooLarge", err)
	}
	if _, err := Unmarshal(data, WithMaxBytes(4096)); err != nil {
		t.Errorf("at limit: %v", err)
	}
}

func TestMaxBytes_HalfFloat(t *testing.T) {
	f, err := imgframe.NewFrame(imgframe.Float, imgframe.Sz(32, 32), 1)
	if err != nil {
		t.Fatalf("NewFrame() = %v", err)
	}
	data, err := Marshal(f, WithHalfFloat())
	if err != nil {
		t.Fatalf("Marshal() = %v", err)
	}
	// The 2048 byte payload widens to a 4096 byte frame.
	if _, err := Unmarshal(data, WithMaxBytes(3000)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("error = %v, want ErrTooLarge", err)
	}
	got, err := Unmarshal(data, WithMaxBytes(4096))
	if err != nil {
		t.Fatalf("at limit: %v", err)
	}
	if !got.Equal(f) {
		t.Error("decoded frame differs")
	}
}

func TestMapper(t *testing.T) {
	for dt := imgframe.Char; dt <= imgframe.Double; dt++ {
		tag, err := Mapper{}.ToNativeTypeTag(dt, 1)
		if err != nil {
			t.Errorf("ToNativeTypeTag(%v) = %v", dt, err)
			continue
		}
		back, depth, err := Mapper{}.FromNativeTypeTag(tag)
		want := dt
		if dt == imgframe.Char {
			want = imgframe.SChar
		}
		if err != nil || back != want || depth != 1 {
			t.Errorf("FromNativeTypeTag(%d) = %v x%d, %v; want %v", tag, back, depth, err, want)
		}
	}
	if _, err := (Mapper{}).ToNativeTypeTag(imgframe.Undefined, 1); !errors.Is(err, imgframe.ErrUnsupportedType) {
		t.Errorf("Undefined: error = %v, want ErrUnsupportedType", err)
	}
	if _, err := (Mapper{}).ToNativeTypeTag(imgframe.UChar, 0); !errors.Is(err, imgframe.ErrInvalidArgument) {
		t.Errorf("depth 0: error = %v, want ErrInvalidArgument", err)
	}
	if _, _, err := (Mapper{}).FromNativeTypeTag(76); !errors.Is(err, imgframe.ErrUnrecognizedType) {
		t.Errorf("tag 76: error = %v, want ErrUnrecognizedType", err)
	}
}

func TestStream(t *testing.T) {
	frames := []*imgframe.Frame{
		gradient(t, imgframe.UChar, imgframe.Sz(4, 4), 3),
		{},
		gradient(t, imgframe.Float, imgframe.Sz(2, 5), 1),
	}

	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for _, f := range frames {
		if err := enc.Encode(f); err != nil {
			t.Fatalf("Encode() = %v", err)
		}
	}

	dec := NewDecoder(&buf)
	for i, want := range frames {
		got, err := dec.Decode()
		if err != nil {
			t.Fatalf("Decode() #%d = %v", i, err)
		}
		if !got.Equal(want) {
			t.Errorf("frame %d: got %v, want %v", i, got, want)
		}
	}
	if _, err := dec.Decode(); err != io.EOF {
		t.Errorf("Decode() at end = %v, want io.EOF", err)
	}
}

func TestStreamTooLarge(t *testing.T) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(gradient(t, imgframe.UChar, imgframe.Sz(256, 256), 1)); err != nil {
		t.Fatalf("Encode() = %v", err)
	}
	_, err := NewDecoder(&buf, WithMaxBytes(1024)).Decode()
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("Decode() error = %v, want ErrTooLarge", err)
	}
}
