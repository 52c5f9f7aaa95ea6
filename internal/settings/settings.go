package settings

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Settings are process-wide editor preferences. The tab store never reads them.
type Settings struct {
	KeepWindowOpen bool    `mapstructure:"keep_window_open" yaml:"keep_window_open" json:"keep_window_open"`
	EditorFontName string  `mapstructure:"editor_font_name" yaml:"editor_font_name" json:"editor_font_name"`
	EditorFontSize float64 `mapstructure:"editor_font_size" yaml:"editor_font_size" json:"editor_font_size"`
}

const (
	// DefaultFontName is the editor font used when none is chosen.
	DefaultFontName = "SF Mono"
	// DefaultFontSize is the editor point size used when none is chosen.
	DefaultFontSize = 14.0
	// MinFontSize and MaxFontSize bound the editor point size.
	MinFontSize = 10.0
	MaxFontSize = 32.0
)

// FontNames lists the selectable editor fonts. The double-underscore entries
// name the platform's system fonts.
var FontNames = []string{
	"SF Mono",
	"Menlo",
	"Courier New",
	"Monaco",
	"__systemMonospaced__",
	"__system__",
}

// Keys lists the settable keys in display order.
var Keys = []string{"keep_window_open", "editor_font_name", "editor_font_size"}

// Defaults returns the initial settings.
func Defaults() Settings {
	return Settings{
		KeepWindowOpen: false,
		EditorFontName: DefaultFontName,
		EditorFontSize: DefaultFontSize,
	}
}

// Normalize maps unknown fonts to the default and clamps the size to
// whole points within range.
func (s Settings) Normalize() Settings {
	if !knownFont(s.EditorFontName) {
		s.EditorFontName = DefaultFontName
	}
	switch {
	case math.IsNaN(s.EditorFontSize) || s.EditorFontSize == 0:
		s.EditorFontSize = DefaultFontSize
	case s.EditorFontSize < MinFontSize:
		s.EditorFontSize = MinFontSize
	case s.EditorFontSize > MaxFontSize:
		s.EditorFontSize = MaxFontSize
	default:
		s.EditorFontSize = math.Round(s.EditorFontSize)
	}
	return s
}

func knownFont(name string) bool {
	for _, font := range FontNames {
		if font == name {
			return true
		}
	}
	return false
}

// Apply sets key to the parsed value and returns the normalized result.
func Apply(s Settings, key, value string) (Settings, error) {
	value = strings.TrimSpace(value)
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "keep_window_open":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return s, fmt.Errorf("keep_window_open: %w", err)
		}
		s.KeepWindowOpen = b
	case "editor_font_name":
		if !knownFont(value) {
			return s, fmt.Errorf("editor_font_name: unknown font %q", value)
		}
		s.EditorFontName = value
	case "editor_font_size":
		size, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return s, fmt.Errorf("editor_font_size: %w", err)
		}
		if math.IsNaN(size) || math.IsInf(size, 0) {
			return s, fmt.Errorf("editor_font_size: invalid size %q", value)
		}
		s.EditorFontSize = size
	default:
		return s, fmt.Errorf("unknown setting %q", key)
	}
	return s.Normalize(), nil
}

// Lookup returns the display value of key.
func (s Settings) Lookup(key string) (string, bool) {
	switch key {
	case "keep_window_open":
		return strconv.FormatBool(s.KeepWindowOpen), true
	case "editor_font_name":
		return s.EditorFontName, true
	case "editor_font_size":
		return strconv.FormatFloat(s.EditorFontSize, 'f', -1, 64), true
	}
	return "", false
}
