package theme

import "github.com/charmbracelet/lipgloss"

// DefaultTheme is a dark 256-color palette with green accents
func DefaultTheme() Theme {
	return Theme{
		Name:       "default",
		Background: lipgloss.Color("235"),
		Foreground: lipgloss.Color("252"),

		Border:        lipgloss.Color("240"),
		BorderFocused: lipgloss.Color("71"),
		Selection:     lipgloss.Color("237"),
		Muted:         lipgloss.Color("244"),

		Success: lipgloss.Color("42"),
		Warning: lipgloss.Color("214"),
		Error:   lipgloss.Color("196"),
		Info:    lipgloss.Color("75"),

		TableHeader:      lipgloss.Color("71"),
		TableRowSelected: lipgloss.Color("238"),
		NumberCell:       lipgloss.Color("150"),
		NullCell:         lipgloss.Color("242"),

		RuleColumn:   lipgloss.Color("117"),
		RuleOperator: lipgloss.Color("214"),
		RuleValue:    lipgloss.Color("180"),
		Combinator:   lipgloss.Color("75"),
	}
}

// LightTheme suits terminals with a white background
func LightTheme() Theme {
	return Theme{
		Name:       "light",
		Background: lipgloss.Color("255"),
		Foreground: lipgloss.Color("235"),

		Border:        lipgloss.Color("250"),
		BorderFocused: lipgloss.Color("28"),
		Selection:     lipgloss.Color("254"),
		Muted:         lipgloss.Color("244"),

		Success: lipgloss.Color("28"),
		Warning: lipgloss.Color("130"),
		Error:   lipgloss.Color("160"),
		Info:    lipgloss.Color("25"),

		TableHeader:      lipgloss.Color("28"),
		TableRowSelected: lipgloss.Color("253"),
		NumberCell:       lipgloss.Color("24"),
		NullCell:         lipgloss.Color("248"),

		RuleColumn:   lipgloss.Color("25"),
		RuleOperator: lipgloss.Color("130"),
		RuleValue:    lipgloss.Color("90"),
		Combinator:   lipgloss.Color("28"),
	}
}

// CatppuccinMochaTheme uses the Catppuccin Mocha palette
// (https://github.com/catppuccin/catppuccin)
func CatppuccinMochaTheme() Theme {
	const (
		base     = "#1e1e2e"
		text     = "#cdd6f4"
		surface0 = "#313244"
		surface1 = "#45475a"
		overlay0 = "#6c7086"
		blue     = "#89b4fa"
		sky      = "#89dceb"
		teal     = "#94e2d5"
		green    = "#a6e3a1"
		yellow   = "#f9e2af"
		peach    = "#fab387"
		red      = "#f38ba8"
		mauve    = "#cba6f7"
	)
	return Theme{
		Name:       "catppuccin-mocha",
		Background: lipgloss.Color(base),
		Foreground: lipgloss.Color(text),

		Border:        lipgloss.Color(surface1),
		BorderFocused: lipgloss.Color(blue),
		Selection:     lipgloss.Color(surface0),
		Muted:         lipgloss.Color(overlay0),

		Success: lipgloss.Color(green),
		Warning: lipgloss.Color(yellow),
		Error:   lipgloss.Color(red),
		Info:    lipgloss.Color(sky),

		TableHeader:      lipgloss.Color(blue),
		TableRowSelected: lipgloss.Color(surface0),
		NumberCell:       lipgloss.Color(peach),
		NullCell:         lipgloss.Color(overlay0),

		RuleColumn:   lipgloss.Color(blue),
		RuleOperator: lipgloss.Color(mauve),
		RuleValue:    lipgloss.Color(green),
		Combinator:   lipgloss.Color(teal),
	}
}
