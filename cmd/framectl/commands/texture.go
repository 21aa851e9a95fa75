package commands

import (
	"github.com/spf13/cobra"

	"github.com/gogpu/imgframe/adapter/texture"
)

var alignFlag uint

var textureCmd = &cobra.Command{
	Use:   "texture <file>",
	Short: "Print the WebGPU upload description of a frame",
	Long: `Print the WebGPU texture format, extent and copy layout of a frame.

The layout pads rows to --align bytes, 256 by default, as required for
buffer-to-texture copies.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, _, err := loadFrame(args[0])
		if err != nil {
			return err
		}
		v, err := texture.Aligned(f, alignFlag)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printer.Fprintf(out, "format:        %v\n", v.Format)
		printer.Fprintf(out, "extent:        %dx%dx%d\n", v.Extent.Width, v.Extent.Height, v.Extent.DepthOrArrayLayers)
		printer.Fprintf(out, "bytesPerRow:   %d\n", v.Layout.BytesPerRow)
		printer.Fprintf(out, "rowsPerImage:  %d\n", v.Layout.RowsPerImage)
		printer.Fprintf(out, "upload:        %d bytes\n", len(v.Data))
		return nil
	},
}

func init() {
	textureCmd.Flags().UintVar(&alignFlag, "align", texture.CopyBytesPerRowAlignment, "row alignment in bytes")
}
