package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	cast2gif "github.com/danielgatis/go-cast2gif"
	"github.com/spf13/cobra"
)

func newRecordCmd() *cobra.Command {
	var (
		maxIdle      float64
		terminalSize bool
	)

	cmd := &cobra.Command{
		Use:   "record -o <output> [-- command ...]",
		Short: "Record a terminal session",
		Long: `Record a terminal session to an asciicast file or straight to a GIF.

Without a command, your shell is spawned. Recording stops when the command
exits (Ctrl+D to leave a shell). An output ending in .gif records to a
temporary .cast file and converts it afterwards.`,
		Example: `  # Record an interactive shell
  cast2gif record -o session.cast

  # Record one command straight to GIF
  cast2gif record -o build.gif -- make all

  # Cap pauses at two seconds while recording
  cast2gif record -o demo.cast --max-idle 2`,
		RunE: func(_ *cobra.Command, args []string) error {
			initLogging()

			if outputPath == "" {
				return fmt.Errorf("record requires an output path (-o)")
			}

			recCols, recRows := columns, rows
			if terminalSize || (recCols == 0 && recRows == 0) {
				if cols, trows, err := cast2gif.TerminalSize(); err == nil {
					recCols, recRows = cols, trows
					slog.Debug("using terminal size", "columns", recCols, "rows", recRows)
				}
			}

			toGif := strings.EqualFold(filepath.Ext(outputPath), ".gif")
			castPath := outputPath
			if toGif {
				castPath = replaceExt(outputPath, ".cast")
			}

			castFile, err := os.Create(castPath)
			if err != nil {
				return fmt.Errorf("create cast file: %w", err)
			}

			fmt.Fprintln(os.Stderr, "Recording... press Ctrl+D or exit the command to stop.")

			recorder := cast2gif.NewRecorder(cast2gif.RecordConfig{
				Output:  castFile,
				Command: args,
				Columns: recCols,
				Rows:    recRows,
				MaxIdle: maxIdle,
				Title:   title,
			})
			recordErr := recorder.Record()
			if closeErr := castFile.Close(); recordErr == nil {
				recordErr = closeErr
			}
			if recordErr != nil {
				return recordErr
			}

			fmt.Fprintf(os.Stderr, "\nRecording saved to: %s\n", castPath)

			if toGif {
				fmt.Fprintln(os.Stderr, "Converting to GIF...")
				inputPath = castPath
				if err := runConvert(); err != nil {
					return err
				}
				if err := os.Remove(castPath); err != nil {
					slog.Warn("failed to remove temporary cast file", "path", castPath, "error", err)
				}
			}

			return nil
		},
	}

	cmd.Flags().Float64Var(&maxIdle, "max-idle", 0, "Cap recorded pauses to this many seconds (0 = unlimited)")
	cmd.Flags().BoolVar(&terminalSize, "terminal-size", false, "Record at the current terminal size")

	return cmd
}

func newFontsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fonts",
		Short: "List available fonts",
		RunE: func(_ *cobra.Command, _ []string) error {
			font := cast2gif.DefaultFont()
			fmt.Println("Embedded bitmap font:")
			fmt.Printf("  7x13 (cell size %dx%d, default)\n", font.CellWidth(), font.CellHeight())
			fmt.Println()
			fmt.Println("Any TrueType or OpenType file can be used instead:")
			fmt.Println("  cast2gif -i input.cast -o output.gif --font-file /path/to/font.ttf --font-size 16")
			return nil
		},
	}
}

func newThemesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List built-in themes",
		RunE: func(_ *cobra.Command, _ []string) error {
			for _, name := range cast2gif.BuiltinThemes() {
				fmt.Println(name)
			}
			fmt.Println()
			fmt.Println("A path to a theme YAML file is also accepted: cast2gif --theme my-theme.yaml")
			return nil
		},
	}
}
