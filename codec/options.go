package codec

import (
	"log/slog"

	"github.com/fxamacker/cbor/v2"

	"github.com/gogpu/imgframe"
)

// Option configures encoding and decoding.
//
// Example:
//
//	data, err := codec.Marshal(f, codec.WithHalfFloat())
//	f, err := codec.Unmarshal(data, codec.WithMaxBytes(64<<20))
type Option func(*options)

type options struct {
	maxBytes int
	half     bool
	logger   *slog.Logger
	encMode  cbor.EncMode
	decMode  cbor.DecMode
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic(err)
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		maxBytes: DefaultMaxBytes,
		logger:   imgframe.Logger(),
		encMode:  encMode,
		decMode:  decMode,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithMaxBytes limits the decoded sample payload to n bytes. Larger frames
// fail with ErrTooLarge. Values <= 0 keep DefaultMaxBytes.
func WithMaxBytes(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBytes = n
		}
	}
}

// WithHalfFloat encodes Float frames as half-precision typed arrays. This
// halves the payload and loses precision; values outside the half-precision
// range fail with imgframe.ErrOverflow. Decoding always widens back to
// Float.
func WithHalfFloat() Option {
	return func(o *options) {
		o.half = true
	}
}

// WithLogger sets the logger for debug records. The default is
// imgframe.Logger() at the time the call is made.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
