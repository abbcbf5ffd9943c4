package cast2gif

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// CastWriter writes asciicast v2: a JSON header line followed by
// [time, "o", data] event lines.
type CastWriter struct {
	w             io.Writer
	headerWritten bool
}

// NewCastWriter creates a writer over the given stream.
func NewCastWriter(w io.Writer) *CastWriter {
	return &CastWriter{w: w}
}

// WriteHeader writes the asciicast v2 header once. Subsequent calls are no-ops.
func (c *CastWriter) WriteHeader(width, height int, title string) error {
	if c.headerWritten {
		return nil
	}

	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "unknown"
	}
	termEnv := os.Getenv("TERM")
	if termEnv == "" {
		termEnv = "xterm-256color"
	}

	header := map[string]any{
		"version":   2,
		"width":     width,
		"height":    height,
		"timestamp": time.Now().Unix(),
		"env": map[string]string{
			"SHELL": shell,
			"TERM":  termEnv,
		},
	}
	if title != "" {
		header["title"] = title
	}

	line, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshal cast header: %w", err)
	}
	if _, err := fmt.Fprintf(c.w, "%s\n", line); err != nil {
		return fmt.Errorf("write cast header: %w", err)
	}

	c.headerWritten = true
	return nil
}

// WriteEvent appends one output event. Empty chunks are skipped; invalid
// UTF-8 is replaced so the line stays valid JSON.
func (c *CastWriter) WriteEvent(timestamp float64, data []byte) error {
	if !c.headerWritten {
		return fmt.Errorf("cast event written before header")
	}
	if len(data) == 0 {
		return nil
	}

	line, err := json.Marshal([]any{timestamp, "o", strings.ToValidUTF8(string(data), "�")})
	if err != nil {
		return fmt.Errorf("marshal cast event: %w", err)
	}
	if _, err := fmt.Fprintf(c.w, "%s\n", line); err != nil {
		return fmt.Errorf("write cast event: %w", err)
	}
	return nil
}

// RecordConfig configures a PTY recording session.
type RecordConfig struct {
	// Output receives the asciicast stream.
	Output io.Writer

	// Command to run; empty spawns $SHELL (or /bin/sh).
	Command []string

	// Terminal geometry for the spawned PTY.
	Columns int
	Rows    int

	// MaxIdle, when positive, caps the recorded gap between consecutive
	// output chunks to that many seconds.
	MaxIdle float64

	// Title is stored in the cast header.
	Title string
}

// Recorder runs a command on a pseudo-terminal and captures its timestamped
// output as an asciicast.
type Recorder struct {
	config RecordConfig
}

// NewRecorder creates a recorder with the given configuration.
func NewRecorder(config RecordConfig) *Recorder {
	if config.Columns <= 0 {
		config.Columns = DefaultCols
	}
	if config.Rows <= 0 {
		config.Rows = DefaultRows
	}
	return &Recorder{config: config}
}

// Record spawns the command on a PTY, mirrors its output to the terminal,
// and writes timestamped events until the command exits. Stdin is switched
// to raw mode for the duration when it is a terminal.
func (r *Recorder) Record() error {
	command := r.config.Command
	if len(command) == 0 {
		shell := os.Getenv("SHELL")
		if shell == "" {
			shell = "/bin/sh"
		}
		command = []string{shell}
	}

	cmd := exec.Command(command[0], command[1:]...)
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(r.config.Rows),
		Cols: uint16(r.config.Columns),
	})
	if err != nil {
		return fmt.Errorf("start pty: %w", err)
	}
	defer ptmx.Close()

	if term.IsTerminal(int(os.Stdin.Fd())) {
		oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("set raw mode: %w", err)
		}
		defer term.Restore(int(os.Stdin.Fd()), oldState)
	}

	writer := NewCastWriter(r.config.Output)
	if err := writer.WriteHeader(r.config.Columns, r.config.Rows, r.config.Title); err != nil {
		return err
	}

	// Forward keystrokes into the PTY; the goroutine ends when the PTY closes.
	go func() {
		_, _ = io.Copy(ptmx, os.Stdin)
	}()

	start := time.Now()
	lastReal := start
	elapsed := 0.0

	buf := make([]byte, 32*1024)
	for {
		n, readErr := ptmx.Read(buf)
		if n > 0 {
			now := time.Now()
			delta := now.Sub(lastReal).Seconds()
			lastReal = now
			if r.config.MaxIdle > 0 && delta > r.config.MaxIdle {
				delta = r.config.MaxIdle
			}
			elapsed += delta

			_, _ = os.Stdout.Write(buf[:n])
			if err := writer.WriteEvent(elapsed, buf[:n]); err != nil {
				return err
			}
		}
		if readErr != nil {
			// A closed PTY reads as EIO on Linux once the child exits.
			break
		}
	}

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return fmt.Errorf("wait for command: %w", err)
		}
	}

	return nil
}

// TerminalSize returns the geometry of the controlling terminal.
func TerminalSize() (cols, rows int, err error) {
	cols, rows, err = term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0, 0, fmt.Errorf("query terminal size: %w", err)
	}
	return cols, rows, nil
}
