// Package theme provides color themes for the TUI.
package theme

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pelletier/go-toml/v2"
)

// DefaultName is used when no theme is configured.
const DefaultName = "frappe"

// Theme holds all colors for a TUI theme.
type Theme struct {
	Name        string `toml:"name"`
	Bg          string `toml:"bg"`           // Base background
	BgHighlight string `toml:"bg_highlight"` // Empty cells, headers
	BgSelection string `toml:"bg_selection"` // Cursor
	Fg          string `toml:"fg"`
	FgMuted     string `toml:"fg_muted"` // Past events, labels
	Accent      string `toml:"accent"`   // Title, borders
	Session     string `toml:"session"`  // study_session events
	Quiz        string `toml:"quiz"`
	Revision    string `toml:"revision"`
	Planned     string `toml:"planned"` // Sessions expanded from slots
	Current     string `toml:"current"` // Today and the now row
	Warning     string `toml:"warning"` // Over budget, move mode

	// Form overrides, empty means derive from the base colors.
	FormBg     string `toml:"form_bg"`
	FormBorder string `toml:"form_border"`
}

// Color returns a lipgloss.Color for the given hex string.
func Color(hex string) lipgloss.Color {
	return lipgloss.Color(hex)
}

// Load parses a built-in theme by name. Unknown names fall back to the
// default theme.
func Load(name string) (*Theme, error) {
	if name == "" {
		name = DefaultName
	}
	name = strings.ToLower(name)

	data, ok := builtin[name]
	if !ok {
		if name != DefaultName {
			return Load(DefaultName)
		}
		return nil, fmt.Errorf("theme %q not found", name)
	}
	return Parse(data)
}

// Parse decodes a theme from TOML and fills derived colors.
func Parse(data string) (*Theme, error) {
	var t Theme
	if err := toml.Unmarshal([]byte(data), &t); err != nil {
		return nil, fmt.Errorf("parsing theme: %w", err)
	}
	if t.Name == "" {
		return nil, fmt.Errorf("parsing theme: missing name")
	}
	t.applyDefaults()
	return &t, nil
}

func (t *Theme) applyDefaults() {
	t.BgHighlight = coalesce(t.BgHighlight, t.Bg)
	t.BgSelection = coalesce(t.BgSelection, t.BgHighlight)
	t.FgMuted = coalesce(t.FgMuted, t.Fg)
	t.Planned = coalesce(t.Planned, t.Session)
	t.FormBg = coalesce(t.FormBg, t.BgHighlight)
	t.FormBorder = coalesce(t.FormBorder, t.Accent)
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Available returns the built-in theme names.
func Available() []string {
	return []string{"mocha", "macchiato", "frappe", "latte", "light"}
}

// IsAvailable reports whether a theme name is available.
func IsAvailable(name string) bool {
	_, ok := builtin[strings.ToLower(name)]
	return ok
}
