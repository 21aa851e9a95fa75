package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/imgframe/codec"
)

var (
	outputFile string
	roiFlag    string
	halfFloat  bool
)

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Print the frame layout of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, format, err := loadFrame(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "file:    %s (%s)\n", args[0], format)
		fmt.Fprintf(out, "type:    %v\n", f.DataType())
		fmt.Fprintf(out, "depth:   %d\n", f.Depth())
		fmt.Fprintf(out, "size:    %v\n", f.Size())
		printer.Fprintf(out, "stride:  %d bytes\n", f.BytesPerLine())
		printer.Fprintf(out, "buffer:  %d bytes\n", f.Len())
		return nil
	},
}

var cropCmd = &cobra.Command{
	Use:   "crop <file>",
	Short: "Copy a region of interest to a new file",
	Long: `Copy a region of interest to a new file.

The region is given as x,y,w,h in pixels and must lie inside the frame.

Examples:
  framectl crop photo.png --roi 10,20,64,64 -o patch.png
  framectl crop frame.cbor --roi 0,0,8,8 -o corner.cbor`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireOutputFile(outputFile); err != nil {
			return err
		}
		roi, err := parseROI(roiFlag)
		if err != nil {
			return err
		}
		f, _, err := loadFrame(args[0])
		if err != nil {
			return err
		}
		sub, err := f.CopyTo(roi)
		if err != nil {
			return err
		}
		if err := saveFrame(outputFile, sub); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %v to %s\n", sub, outputFile)
		return nil
	},
}

var encodeCmd = &cobra.Command{
	Use:   "encode <image>",
	Short: "Write an image as a CBOR frame",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireOutputFile(outputFile); err != nil {
			return err
		}
		f, _, err := loadFrame(args[0])
		if err != nil {
			return err
		}
		var opts []codec.Option
		if halfFloat {
			opts = append(opts, codec.WithHalfFloat())
		}
		data, err := codec.Marshal(f, opts...)
		if err != nil {
			return err
		}
		if err := saveToFile(outputFile, data); err != nil {
			return err
		}
		printer.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", len(data), outputFile)
		return nil
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode <file.cbor>",
	Short: "Write a CBOR frame as an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireOutputFile(outputFile); err != nil {
			return err
		}
		f, _, err := loadFrame(args[0])
		if err != nil {
			return err
		}
		if err := saveFrame(outputFile, f); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %v to %s\n", f, outputFile)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{cropCmd, encodeCmd, decodeCmd} {
		c.Flags().StringVarP(&outputFile, "output", "o", "", "output file")
	}
	cropCmd.Flags().StringVar(&roiFlag, "roi", "", "region as x,y,w,h")
	_ = cropCmd.MarkFlagRequired("roi")
	encodeCmd.Flags().BoolVar(&halfFloat, "half", false, "store float frames as half precision")
}
