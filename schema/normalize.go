package schema

import (
	"fmt"
	"math"
	"strings"
)

// NormalizeTitle maps blank titles to the "no explicit title" state.
func NormalizeTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return ""
	}
	return title
}

// ValidateColor ensures a hue lies in [0, 1).
func ValidateColor(hue float64) error {
	if math.IsNaN(hue) || hue < 0 || hue >= 1 {
		return ErrInvalidColor
	}
	return nil
}

// WrapHue folds any hue into [0, 1). NaN and infinities map to 0.
func WrapHue(hue float64) float64 {
	if math.IsNaN(hue) || math.IsInf(hue, 0) {
		return 0
	}
	hue = math.Mod(hue, 1)
	if hue < 0 {
		hue++
	}
	if hue >= 1 {
		return 0
	}
	return hue
}

// DisplayTitle returns the label shown for the tab at position index (0-based).
// An explicit title wins, then the first non-blank content line, then "Tab N".
func DisplayTitle(tab Tab, index int) string {
	if title := strings.TrimSpace(tab.Title); title != "" {
		return tab.Title
	}
	for _, line := range strings.Split(tab.Content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return fmt.Sprintf("Tab %d", index+1)
}
