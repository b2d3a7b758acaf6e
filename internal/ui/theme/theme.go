// Package theme holds the color palettes of the terminal UI.
package theme

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme and styling
type Theme struct {
	Name string

	Background lipgloss.Color
	Foreground lipgloss.Color

	// Chrome
	Border        lipgloss.Color
	BorderFocused lipgloss.Color
	Selection     lipgloss.Color
	Muted         lipgloss.Color

	// Status line and overlays
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// Sheet grid
	TableHeader      lipgloss.Color
	TableRowSelected lipgloss.Color
	NumberCell       lipgloss.Color
	NullCell         lipgloss.Color

	// Filter rules
	RuleColumn   lipgloss.Color
	RuleOperator lipgloss.Color
	RuleValue    lipgloss.Color
	Combinator   lipgloss.Color
}

var registry = map[string]func() Theme{
	"default":          DefaultTheme,
	"light":            LightTheme,
	"catppuccin-mocha": CatppuccinMochaTheme,
}

var aliases = map[string]string{
	"dark":       "default",
	"catppuccin": "catppuccin-mocha",
}

// Lookup returns the named theme. Names are case-insensitive.
func Lookup(name string) (Theme, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	build, ok := registry[key]
	if !ok {
		return Theme{}, false
	}
	return build(), true
}

// ByName returns the named theme, falling back to the default
func ByName(name string) Theme {
	if th, ok := Lookup(name); ok {
		return th
	}
	return DefaultTheme()
}

// Names lists the registered theme names in order
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
