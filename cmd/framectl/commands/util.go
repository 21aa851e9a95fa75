package commands

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/imgframe"
	"github.com/gogpu/imgframe/adapter/stdimage"
	"github.com/gogpu/imgframe/codec"
)

// loadFrame reads a frame from an image or .cbor file. It returns the frame
// and the name of the decoded format.
func loadFrame(path string) (*imgframe.Frame, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file %s: %w", path, err)
	}
	if isCBOR(path) {
		f, err := codec.Unmarshal(data)
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode frame: %w", err)
		}
		return f, "cbor", nil
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	f, err := stdimage.FromImage(img)
	if err != nil {
		return nil, "", err
	}
	return f, format, nil
}

// saveFrame writes f to path. The extension selects the output format:
// .cbor, .bmp, .tif/.tiff or PNG for anything else.
func saveFrame(path string, f *imgframe.Frame) error {
	if isCBOR(path) {
		data, err := codec.Marshal(f)
		if err != nil {
			return err
		}
		return saveToFile(path, data)
	}

	img, err := stdimage.View(f)
	if err != nil {
		return fmt.Errorf("cannot write %v as an image: %w", f, err)
	}
	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp":
		err = bmp.Encode(&buf, img)
	case ".tif", ".tiff":
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return saveToFile(path, buf.Bytes())
}

func isCBOR(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".cbor")
}

// saveToFile saves data to a file
func saveToFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

// parseROI parses "x,y,w,h".
func parseROI(s string) (imgframe.ROI, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return imgframe.ROI{}, fmt.Errorf("invalid region %q, want x,y,w,h", s)
	}
	var v [4]uint
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 0)
		if err != nil {
			return imgframe.ROI{}, fmt.Errorf("invalid region %q: %w", s, err)
		}
		v[i] = uint(n)
	}
	return imgframe.Rect(v[0], v[1], v[2], v[3]), nil
}

// requireOutputFile checks if output file is specified
func requireOutputFile(path string) error {
	if path == "" {
		return fmt.Errorf("output file is required, use -o flag")
	}
	return nil
}
