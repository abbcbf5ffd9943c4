package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	cast2gif "github.com/danielgatis/go-cast2gif"
)

func runConvert() error {
	initLogging()

	theme, err := cast2gif.LoadThemeByName(themeName)
	if err != nil {
		return err
	}

	var font cast2gif.Font
	if fontFile != "" {
		loaded, err := cast2gif.LoadFontFile(fontFile, fontSize)
		if err != nil {
			return err
		}
		font = loaded
	}

	var src cast2gif.InputSource
	if inputPath != "" {
		file, err := os.Open(inputPath)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer file.Close()

		src, err = cast2gif.NewAsciicastReader(file)
		if err != nil {
			return err
		}
	} else {
		src, err = cast2gif.ReadStream(os.Stdin, columns, rows)
		if err != nil {
			return err
		}
	}

	out := outputPath
	if out == "" {
		out, err = nextFreePath("cast2gif-%04d.gif")
		if err != nil {
			return err
		}
	}

	slog.Debug("converting", "input", inputOrStdin(), "output", out, "theme", theme.Name)

	file, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer file.Close()

	opts := cast2gif.DefaultRenderOptions()
	opts.FPS = fps
	opts.Speed = speed
	opts.NoGaps = noGaps
	opts.Trailer = trailer
	opts.LoopCount = loopCount
	opts.Columns = columns
	opts.Rows = rows
	opts.Autowrap = !noAutowrap
	opts.HideCursor = noCursor
	opts.Title = title
	opts.Theme = theme
	opts.Font = font
	opts.Progress = func(frame, total int) {
		fmt.Printf("\r  frame %d/%d (%d%%)   ", frame, total, frame*100/total)
	}

	if err := cast2gif.Render(src, file, opts); err != nil {
		fmt.Println()
		// Leave no half-written GIF behind.
		os.Remove(out)
		return err
	}

	fmt.Printf("\n✓ GIF created: %s\n", out)
	return nil
}

func inputOrStdin() string {
	if inputPath == "" {
		return "stdin"
	}
	return inputPath
}

// nextFreePath returns the first pattern instantiation that does not exist yet.
func nextFreePath(pattern string) (string, error) {
	for i := 0; i < 10000; i++ {
		candidate := fmt.Sprintf(pattern, i)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no available output filenames for pattern %q", pattern)
}

// replaceExt swaps the file extension, keeping the rest of the path.
func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
