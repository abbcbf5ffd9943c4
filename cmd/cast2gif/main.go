// Package main implements cast2gif, a converter from asciicast terminal
// recordings to animated GIFs, with a built-in PTY recorder.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set by goreleaser)
var (
	version = "dev"
)

// Global flags
var (
	inputPath  string
	outputPath string
	themeName  string
	fontFile   string
	fontSize   float64
	fps        int
	speed      float64
	columns    int
	rows       int
	loopCount  uint16
	noGaps     bool
	trailer    bool
	title      string
	noAutowrap bool
	noCursor   bool
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cast2gif",
		Short: "Convert terminal recordings to animated GIFs",
		Long: `cast2gif converts asciicast v2 recordings into looping animated GIFs.

Input comes from a .cast file or stdin (raw terminal output also works on
stdin); output is a GIF rendered through a built-in terminal emulator.`,
		Example: `  # Convert a recording
  cast2gif -i demo.cast -o demo.gif

  # Pipe raw terminal output
  ls --color=always | cast2gif -o listing.gif

  # Faster playback without long pauses
  cast2gif -i demo.cast -o demo.gif --speed 2 --no-gaps

  # Record a session straight to GIF
  cast2gif record -o demo.gif`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConvert()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&inputPath, "input", "i", "", "Input asciicast file (reads from stdin if not provided)")
	flags.StringVarP(&outputPath, "output", "o", "", "Output GIF file (auto-numbered if not provided)")
	flags.StringVarP(&themeName, "theme", "t", "default", "Theme name or path to a theme YAML file")
	flags.StringVar(&fontFile, "font-file", "", "TrueType/OpenType font file (default: embedded 7x13 bitmap face)")
	flags.Float64Var(&fontSize, "font-size", 16, "Font size in pixels for TrueType fonts")
	flags.IntVar(&fps, "fps", 10, "Frames per second (1-100)")
	flags.Float64Var(&speed, "speed", 1.0, "Playback speed multiplier")
	flags.IntVarP(&columns, "columns", "c", 0, "Terminal width in columns (default: from recording)")
	flags.IntVarP(&rows, "rows", "r", 0, "Terminal height in rows (default: from recording)")
	flags.Uint16VarP(&loopCount, "loop", "l", 0, "Number of loops (0 = infinite)")
	flags.BoolVar(&noGaps, "no-gaps", false, "Compress pauses longer than one second")
	flags.BoolVar(&trailer, "trailer", false, "Hold the final frame for 1.5s before looping")
	flags.StringVar(&title, "title", "", "Title text stamped on every frame (needs a theme with a title block)")
	flags.BoolVar(&noAutowrap, "no-autowrap", false, "Disable automatic line wrapping")
	flags.BoolVar(&noCursor, "no-cursor", false, "Hide the cursor in the output")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newRecordCmd())
	rootCmd.AddCommand(newFontsCmd())
	rootCmd.AddCommand(newThemesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// initLogging routes the CLI's log output through slog on stderr. Progress
// output stays on stdout.
func initLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
