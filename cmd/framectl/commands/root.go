package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/imgframe"
)

var (
	// Global flags
	verbose bool
)

// printer formats byte counts with digit grouping.
var printer = message.NewPrinter(language.English)

var rootCmd = &cobra.Command{
	Use:   "framectl",
	Short: "Inspect and convert image frames",
	Long: `framectl - inspect and convert typed image frames.

Images are decoded as PNG, JPEG, GIF, BMP, TIFF or WebP and ingested into
a frame. Files with a .cbor extension hold a single CBOR frame.

Examples:
  framectl info photo.png
  framectl crop photo.png --roi 10,20,64,64 -o patch.png
  framectl encode photo.png -o photo.cbor
  framectl -v texture photo.png`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			imgframe.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			})))
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log frame allocations and conversions")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(cropCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(textureCmd)
}
