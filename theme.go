package cast2gif

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Padding is extra canvas space around the rendered terminal, in pixels.
type Padding struct {
	Left   int `yaml:"left"`
	Top    int `yaml:"top"`
	Right  int `yaml:"right"`
	Bottom int `yaml:"bottom"`
}

// TitleConfig places a text banner on every frame. A negative X centers the
// banner horizontally.
type TitleConfig struct {
	Foreground uint8   `yaml:"foreground"`
	Background uint8   `yaml:"background"`
	X          int     `yaml:"x"`
	Y          int     `yaml:"y"`
	FontSize   float64 `yaml:"font_size"`
}

// Theme bundles the visual configuration of a rendering run: canvas
// background, default cell colors, padding, a title banner, and an optional
// replacement 256-color palette.
type Theme struct {
	Name string `yaml:"name"`

	// Background is the palette index used to fill the canvas (including
	// padding) before the terminal is composited.
	Background uint8 `yaml:"background"`
	Foreground uint8 `yaml:"foreground"`

	DefaultBackground uint8 `yaml:"default_background"`
	DefaultForeground uint8 `yaml:"default_foreground"`

	Padding *Padding     `yaml:"padding"`
	Title   *TitleConfig `yaml:"title"`

	// PaletteRGB optionally replaces the standard 256-color palette.
	PaletteRGB [][3]uint8 `yaml:"palette"`
}

// DefaultTheme is white-on-black with the standard palette.
func DefaultTheme() *Theme {
	return &Theme{
		Name:              "default",
		Background:        0,
		Foreground:        7,
		DefaultBackground: 0,
		DefaultForeground: 7,
	}
}

// builtinThemes maps theme names to constructors.
var builtinThemes = map[string]func() *Theme{
	"default": DefaultTheme,
	"light": func() *Theme {
		return &Theme{
			Name:              "light",
			Background:        15,
			Foreground:        0,
			DefaultBackground: 15,
			DefaultForeground: 0,
		}
	},
	"green": func() *Theme {
		return &Theme{
			Name:              "green",
			Background:        0,
			Foreground:        2,
			DefaultBackground: 0,
			DefaultForeground: 2,
		}
	},
}

// BuiltinThemes returns the names of the embedded themes, sorted.
func BuiltinThemes() []string {
	names := make([]string, 0, len(builtinThemes))
	for name := range builtinThemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadTheme reads a theme from a YAML file. Absent fields keep the default
// theme's values.
func LoadTheme(path string) (*Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read theme file: %w", err)
	}

	theme := DefaultTheme()
	if err := yaml.Unmarshal(data, theme); err != nil {
		return nil, fmt.Errorf("parse theme file %s: %w", path, err)
	}

	return theme, nil
}

// LoadThemeByName resolves a built-in theme name, falling back to treating
// the name as a file path.
func LoadThemeByName(name string) (*Theme, error) {
	if builder, ok := builtinThemes[name]; ok {
		return builder(), nil
	}

	if _, err := os.Stat(name); err == nil {
		return LoadTheme(name)
	}

	return nil, fmt.Errorf("unknown theme %q (built-in themes: %v)", name, BuiltinThemes())
}

// Palette returns the theme's custom palette, or nil if the theme keeps the
// standard one.
func (t *Theme) Palette() *Palette {
	if len(t.PaletteRGB) == 0 {
		return nil
	}
	return NewPalette(t.PaletteRGB)
}
