package codec

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/gogpu/imgframe"
)

// Encoder writes a sequence of frames to a stream.
type Encoder struct {
	o   *options
	enc *cbor.Encoder
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	o := newOptions(opts)
	return &Encoder{o: o, enc: o.encMode.NewEncoder(w)}
}

// Encode writes the encoding of f. A nil or empty frame is written as null.
func (e *Encoder) Encode(f *imgframe.Frame) error {
	v, err := e.o.value(f)
	if err != nil {
		return err
	}
	return e.enc.Encode(v)
}

// Decoder reads a sequence of frames from a stream.
//
// Each Decode reads at most the configured payload limit plus a small
// allowance for framing from the underlying reader, so a corrupt or hostile
// length prefix fails with ErrTooLarge instead of exhausting memory. After
// any error the decoder should be discarded.
type Decoder struct {
	o     *options
	guard *guardReader
	dec   *cbor.Decoder
}

// readAhead covers the bytes the CBOR decoder may buffer past a frame.
const readAhead = 4096

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	o := newOptions(opts)
	g := &guardReader{r: r}
	return &Decoder{o: o, guard: g, dec: o.decMode.NewDecoder(g)}
}

// Decode reads the next frame. It returns io.EOF when the stream ends
// cleanly between frames.
func (d *Decoder) Decode() (*imgframe.Frame, error) {
	d.guard.remaining = int64(d.o.maxBytes) + maxHeader + readAhead
	var v any
	if err := d.dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, ErrTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("codec: %w", err)
	}
	return d.o.frame(v)
}

// guardReader fails with ErrTooLarge once remaining is exhausted.
type guardReader struct {
	r         io.Reader
	remaining int64
}

func (g *guardReader) Read(p []byte) (int, error) {
	if g.remaining <= 0 {
		return 0, ErrTooLarge
	}
	if int64(len(p)) > g.remaining {
		p = p[:g.remaining]
	}
	n, err := g.r.Read(p)
	g.remaining -= int64(n)
	return n, err
}
