package render

import (
	"fmt"

	"github.com/muesli/termenv"
)

// Theme selects the highlight palette for rendered content.
type Theme int

const (
	ThemeDark Theme = iota
	ThemeLight
)

// DetectTheme picks a theme from the terminal background reported by the
// host environment.
func DetectTheme() Theme {
	if termenv.HasDarkBackground() {
		return ThemeDark
	}
	return ThemeLight
}

// ParseTheme maps a CLI theme flag value to a Theme. "auto" defers to
// background detection.
func ParseTheme(name string) (Theme, error) {
	switch name {
	case "dark":
		return ThemeDark, nil
	case "light":
		return ThemeLight, nil
	case "auto", "":
		return DetectTheme(), nil
	default:
		return ThemeDark, fmt.Errorf("unknown theme %q (want dark, light or auto)", name)
	}
}

func (t Theme) String() string {
	if t == ThemeLight {
		return "light"
	}
	return "dark"
}

// chromaStyle names the chroma style for source highlighting.
func (t Theme) chromaStyle() string {
	if t == ThemeLight {
		return "github"
	}
	return "github-dark"
}

// glamourStyle names the glamour standard style for markdown rendering.
func (t Theme) glamourStyle() string {
	if t == ThemeLight {
		return "light"
	}
	return "dark"
}
