package imgframe

import (
	"fmt"
	"strings"

	"github.com/gogpu/imgframe/safe"
)

// DataType identifies the element type of a frame's channel samples.
type DataType uint8

const (
	// Undefined marks an empty frame. It has no element width.
	Undefined DataType = iota

	// Char is a 1-byte character sample. Go has no distinct char type, so
	// Char is only reachable through the runtime API.
	Char

	// SChar is a signed 8-bit sample (int8).
	SChar

	// UChar is an unsigned 8-bit sample (uint8).
	UChar

	// Short is a signed 16-bit sample (int16).
	Short

	// UShort is an unsigned 16-bit sample (uint16).
	UShort

	// Int is a signed 32-bit sample (int32).
	Int

	// UInt is an unsigned 32-bit sample (uint32).
	UInt

	// LongLong is a signed 64-bit sample (int64).
	LongLong

	// ULongLong is an unsigned 64-bit sample (uint64).
	ULongLong

	// Float is a 32-bit IEEE 754 sample (float32).
	Float

	// Double is a 64-bit IEEE 754 sample (float64).
	Double

	// dataTypeCount is the number of data types (for internal use).
	dataTypeCount
)

// DataTypeInfo contains metadata about a data type.
type DataTypeInfo struct {
	// Size is the element width in bytes. Zero for Undefined.
	Size int

	// Signed indicates the type can represent negative values.
	Signed bool

	// Float indicates an IEEE 754 floating-point type.
	Float bool

	// Name is the canonical lower-case name.
	Name string
}

// dataTypeInfoTable is the runtime registry, indexed by DataType.
var dataTypeInfoTable = [dataTypeCount]DataTypeInfo{
	Undefined: {Size: 0, Name: "undefined"},
	Char:      {Size: 1, Signed: true, Name: "char"},
	SChar:     {Size: 1, Signed: true, Name: "schar"},
	UChar:     {Size: 1, Name: "uchar"},
	Short:     {Size: 2, Signed: true, Name: "short"},
	UShort:    {Size: 2, Name: "ushort"},
	Int:       {Size: 4, Signed: true, Name: "int"},
	UInt:      {Size: 4, Name: "uint"},
	LongLong:  {Size: 8, Signed: true, Name: "longlong"},
	ULongLong: {Size: 8, Name: "ulonglong"},
	Float:     {Size: 4, Signed: true, Float: true, Name: "float"},
	Double:    {Size: 8, Signed: true, Float: true, Name: "double"},
}

// Info returns the DataTypeInfo for this data type.
func (t DataType) Info() DataTypeInfo {
	if t >= dataTypeCount {
		return DataTypeInfo{}
	}
	return dataTypeInfoTable[t]
}

// Size returns the element width in bytes, or 0 for Undefined and unknown
// tags.
func (t DataType) Size() int {
	return t.Info().Size
}

// IsValid returns true if t is a known data type other than Undefined.
func (t DataType) IsValid() bool {
	return t > Undefined && t < dataTypeCount
}

// String returns the canonical name of the data type.
func (t DataType) String() string {
	if t >= dataTypeCount {
		return fmt.Sprintf("DataType(%d)", uint8(t))
	}
	return dataTypeInfoTable[t].Name
}

// ParseDataType returns the data type with the given canonical name.
// Matching is case-insensitive.
func ParseDataType(name string) (DataType, error) {
	for t, info := range dataTypeInfoTable {
		if strings.EqualFold(info.Name, name) {
			return DataType(t), nil
		}
	}
	return Undefined, fmt.Errorf("%w: %q", ErrUnrecognizedType, name)
}

// ElementWidth returns the byte width of one channel sample of t.
// Returns ErrUnsupportedType for Undefined and unknown tags.
func ElementWidth(t DataType) (uint, error) {
	if !t.IsValid() {
		return 0, fmt.Errorf("%w: %v has no element width", ErrUnsupportedType, t)
	}
	return uint(dataTypeInfoTable[t].Size), nil
}

// BytesPerLine returns the tightly packed row size width*depth*ElementWidth(t).
func BytesPerLine(t DataType, width, depth uint) (uint, error) {
	elem, err := ElementWidth(t)
	if err != nil {
		return 0, err
	}
	return rowBytes(width, depth, elem)
}

func rowBytes(width, depth, elem uint) (uint, error) {
	px, err := safe.Multiply(width, depth)
	if err != nil {
		return 0, err
	}
	return safe.Multiply(px, elem)
}

// Element is the set of Go types that map to a DataType at compile time.
type Element interface {
	int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 | float32 | float64
}

// DataTypeOf returns the DataType corresponding to the Go element type T.
func DataTypeOf[T Element]() DataType {
	var zero T
	switch any(zero).(type) {
	case int8:
		return SChar
	case uint8:
		return UChar
	case int16:
		return Short
	case uint16:
		return UShort
	case int32:
		return Int
	case uint32:
		return UInt
	case int64:
		return LongLong
	case uint64:
		return ULongLong
	case float32:
		return Float
	case float64:
		return Double
	default:
		return Undefined
	}
}
