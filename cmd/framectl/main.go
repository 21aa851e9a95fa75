// Command framectl inspects and converts image frames.
//
// Usage:
//
//	framectl [flags] <command> [args]
//
// Commands:
//
//	info     - Print the frame layout of an image or CBOR frame
//	crop     - Copy a region of interest to a new file
//	encode   - Write an image as a CBOR frame
//	decode   - Write a CBOR frame as an image
//	texture  - Print the WebGPU upload description of an image
//
// Images are read as PNG, JPEG, GIF, BMP, TIFF or WebP. Files ending in
// .cbor are read and written as CBOR frames.
package main

import (
	"fmt"
	"os"

	"github.com/gogpu/imgframe/cmd/framectl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
