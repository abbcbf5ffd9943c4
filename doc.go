// Package cast2gif converts recorded terminal sessions (asciicast v2) into
// looping animated GIFs, with no terminal emulator required on the viewer's
// side.
//
// The pipeline has four stages, all usable on their own:
//
//   - Parse tokenizes raw terminal output into text runs and escape-sequence
//     commands, carrying partial escapes across chunk boundaries.
//   - TerminalEmulator applies events to a fixed-size cell grid with
//     xterm-subset semantics: cursor motion, SGR colors and attributes,
//     scroll regions, and the alternate screen.
//   - Rasterizer draws a grid snapshot into an indexed-color Canvas using
//     any Font (the embedded 7x13 bitmap face or a loaded TrueType font).
//   - GifEncoder streams frames into a GIF89a file, emitting only the
//     changed rectangle of each frame over a per-frame local palette.
//
// Render ties the stages together: it replays events against simulated
// time, samples the grid at a fixed frame rate, and encodes the result.
//
// # Converting a recording
//
//	file, _ := os.Open("demo.cast")
//	src, err := cast2gif.NewAsciicastReader(file)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	out, _ := os.Create("demo.gif")
//	opts := cast2gif.DefaultRenderOptions()
//	opts.FPS = 20
//	if err := cast2gif.Render(src, out, opts); err != nil {
//		log.Fatal(err)
//	}
//
// # Driving the emulator directly
//
//	term := cast2gif.NewEmulator(80, 24)
//	term.WriteString("\x1b[1;32mhello\x1b[0m world\r\n")
//	fmt.Println(term.Grid().LineContent(0))
//
// # Recording
//
//	rec := cast2gif.NewRecorder(cast2gif.RecordConfig{
//		Output:  castFile,
//		Columns: 80,
//		Rows:    24,
//	})
//	err := rec.Record()
//
// The emulator and parser never fail on malformed input: unrecognized
// escapes are ignored, out-of-range colors fall back to defaults, and
// invalid UTF-8 is replaced. Errors are reserved for I/O, malformed
// asciicast structure, and invalid configuration.
package cast2gif
