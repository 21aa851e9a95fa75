// Package safe provides overflow-checked arithmetic for size and offset
// computations.
//
// Integral operands are computed exactly over the full 64-bit signed and
// unsigned range, so mixed widths and mixed signedness are allowed. When the
// exact result does not fit the result type, the operation returns an error
// wrapping [ErrOverflow] and produces no result.
//
// When either operand is floating point the operation is ordinary IEEE
// arithmetic and overflow is not detected. Float results saturate to ±Inf;
// this is a documented limitation, not an error condition.
//
// Example:
//
//	rowBytes, err := safe.Multiply(width, depth)
//	if err != nil {
//	    return err
//	}
//	total, err := safe.Multiply(rowBytes, height)
package safe

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"unsafe"
)

// ErrOverflow is returned when an integral result or cast does not fit the
// destination type.
var ErrOverflow = errors.New("safe: arithmetic overflow")

// Integer is the set of Go integer kinds.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Float is the set of Go floating-point kinds.
type Float interface {
	~float32 | ~float64
}

// Number is the set of arithmetic kinds accepted by this package.
type Number interface {
	Integer | Float
}

// Add returns t + u typed as T.
func Add[T, U Number](t T, u U) (T, error) {
	if isFloat[T]() {
		return t + T(u), nil
	}
	if isFloat[U]() {
		return T(float64(t) + float64(u)), nil
	}
	r, ok := widen(t).add(widen(u))
	if !ok {
		return 0, overflow[T]("add", t, u)
	}
	v, ok := narrow[T](r)
	if !ok {
		return 0, overflow[T]("add", t, u)
	}
	return v, nil
}

// Subtract returns t - u typed as T.
func Subtract[T, U Number](t T, u U) (T, error) {
	if isFloat[T]() {
		return t - T(u), nil
	}
	if isFloat[U]() {
		return T(float64(t) - float64(u)), nil
	}
	r, ok := widen(t).add(widen(u).neg())
	if !ok {
		return 0, overflow[T]("subtract", t, u)
	}
	v, ok := narrow[T](r)
	if !ok {
		return 0, overflow[T]("subtract", t, u)
	}
	return v, nil
}

// Multiply returns t * u typed as T.
func Multiply[T, U Number](t T, u U) (T, error) {
	if isFloat[T]() {
		return t * T(u), nil
	}
	if isFloat[U]() {
		return T(float64(t) * float64(u)), nil
	}
	r, ok := widen(t).mul(widen(u))
	if !ok {
		return 0, overflow[T]("multiply", t, u)
	}
	v, ok := narrow[T](r)
	if !ok {
		return 0, overflow[T]("multiply", t, u)
	}
	return v, nil
}

// Increment adds one to *v in place. On overflow *v is left unmodified.
func Increment[T Number](v *T) error {
	r, err := Add(*v, T(1))
	if err != nil {
		return err
	}
	*v = r
	return nil
}

// Decrement subtracts one from *v in place. On overflow *v is left unmodified.
func Decrement[T Number](v *T) error {
	r, err := Subtract(*v, T(1))
	if err != nil {
		return err
	}
	*v = r
	return nil
}

// Cast converts src to T.
//
// Integral to integral conversions are range-checked. Floating to integral
// conversions reject NaN and values outside T's range, then truncate toward
// zero. Conversions to a floating type are direct and may lose precision.
func Cast[T, U Number](src U) (T, error) {
	if isFloat[T]() {
		return T(src), nil
	}
	if isFloat[U]() {
		f := float64(src)
		lo, hi := floatLimits[T]()
		if math.IsNaN(f) || f < lo || f >= hi {
			return 0, fmt.Errorf("%w: %v does not fit %T", ErrOverflow, src, T(0))
		}
		return T(f), nil
	}
	v, ok := narrow[T](widen(src))
	if !ok {
		return 0, fmt.Errorf("%w: %v does not fit %T", ErrOverflow, src, T(0))
	}
	return v, nil
}

// MustCast is like Cast but panics on overflow. It is meant for values whose
// range has already been established by the caller.
func MustCast[T, U Number](src U) T {
	v, err := Cast[T](src)
	if err != nil {
		panic(err)
	}
	return v
}

func overflow[T, U, V Number](op string, t U, u V) error {
	return fmt.Errorf("%w: %s of %v and %v exceeds the limit of %T", ErrOverflow, op, t, u, T(0))
}

// isFloat reports whether T is a floating-point kind. Integer division
// truncates 1/2 to zero; floating division does not.
func isFloat[T Number]() bool {
	var half T = 1
	half /= 2
	return half != 0
}

// isSigned reports whether T can represent negative values.
func isSigned[T Number]() bool {
	var zero T
	return zero-1 < zero
}

func bitSize[T Number]() uint {
	var zero T
	return uint(unsafe.Sizeof(zero)) * 8
}

// floatLimits returns the half-open range [lo, hi) of float64 values that
// truncate to a representable T. Both bounds are powers of two and exact.
func floatLimits[T Number]() (lo, hi float64) {
	n := bitSize[T]()
	if isSigned[T]() {
		return -math.Ldexp(1, int(n-1)), math.Ldexp(1, int(n-1))
	}
	return 0, math.Ldexp(1, int(n))
}

// wide is an exact integer in sign-magnitude form covering
// [-(2^64-1), 2^64-1]. Zero is never negative.
type wide struct {
	negative bool
	mag      uint64
}

func widen[T Number](v T) wide {
	if v < 0 {
		// Negating MinInt64 wraps back to MinInt64, whose uint64
		// conversion is the correct magnitude 2^63.
		return wide{negative: true, mag: uint64(-int64(v))}
	}
	return wide{mag: uint64(v)}
}

func (w wide) neg() wide {
	if w.mag == 0 {
		return w
	}
	return wide{negative: !w.negative, mag: w.mag}
}

func (w wide) add(o wide) (wide, bool) {
	if w.negative == o.negative {
		sum, carry := bits.Add64(w.mag, o.mag, 0)
		if carry != 0 {
			return wide{}, false
		}
		return wide{negative: w.negative && sum != 0, mag: sum}, true
	}
	if w.mag >= o.mag {
		d := w.mag - o.mag
		return wide{negative: w.negative && d != 0, mag: d}, true
	}
	return wide{negative: o.negative, mag: o.mag - w.mag}, true
}

func (w wide) mul(o wide) (wide, bool) {
	hi, lo := bits.Mul64(w.mag, o.mag)
	if hi != 0 {
		return wide{}, false
	}
	return wide{negative: w.negative != o.negative && lo != 0, mag: lo}, true
}

func narrow[T Number](w wide) (T, bool) {
	n := bitSize[T]()
	if !isSigned[T]() {
		if w.negative {
			return 0, false
		}
		if n < 64 && w.mag > uint64(1)<<n-1 {
			return 0, false
		}
		return T(w.mag), true
	}
	limit := uint64(1) << (n - 1)
	if w.negative {
		if w.mag > limit {
			return 0, false
		}
		return T(-int64(w.mag)), true
	}
	if w.mag > limit-1 {
		return 0, false
	}
	return T(w.mag), true
}
