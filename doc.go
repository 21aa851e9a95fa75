// Package imgframe provides a type-erased raster image buffer.
//
// # Overview
//
// A [Frame] owns one contiguous byte buffer of 2D pixel data described by an
// element [DataType], a channel count (depth), a size in pixels and a row
// stride in bytes. It is an intermediate representation for image data
// moving between file decoders, native imaging libraries and algorithmic
// code; it does not process images.
//
// # Quick Start
//
//	var f imgframe.Frame
//
//	// 640x480 RGB, 8 bits per channel, filled with 0x80
//	if err := imgframe.Reset[uint8](&f, imgframe.Sz(640, 480), 3, 0x80); err != nil {
//	    return err
//	}
//
//	// Ingest a padded buffer from a decoder
//	err := f.CopyFromStrided(imgframe.UChar, pix, imgframe.Sz(w, h), 4, stride)
//
//	// Extract a region
//	crop, err := f.CopyTo(imgframe.Rect(10, 10, 64, 64))
//
// # Safety
//
// Buffer sizes are computed as width*depth*elementWidth*height. Every such
// product and every pixel offset goes through package [safe], so a size
// that does not fit in an int fails with [ErrOverflow] instead of wrapping.
// All mutating methods validate before they mutate: on error the frame is
// unchanged.
//
// # Adapters
//
// [TypeMapper] is the contract for mapping frame types to external imaging
// libraries. See adapter/texture (WebGPU texture formats) and
// adapter/stdimage (the Go image package).
package imgframe

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
