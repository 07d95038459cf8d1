package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the color scheme and styling
type Theme struct {
	Name string

	// Background colors
	Background lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color

	// UI elements
	Border        lipgloss.Color
	BorderFocused lipgloss.Color
	Selection     lipgloss.Color
	Cursor        lipgloss.Color

	// Status colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// Table colors
	TableHeader      lipgloss.Color
	TableRowSelected lipgloss.Color

	// Completion popup
	PopupBackground lipgloss.Color
	PopupSelected   lipgloss.Color

	// SyntaxStyle is the chroma style used to highlight SQL
	SyntaxStyle string
}

// order is the cycling order of the built-in themes
var order = []string{"default", "catppuccin-mocha", "solarized-dark", "gruvbox-dark"}

// Names returns the built-in theme names in cycling order
func Names() []string {
	return append([]string(nil), order...)
}

// GetTheme returns a theme by name, falling back to the default theme
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin-mocha", "catppuccin":
		return CatppuccinMochaTheme()
	case "solarized-dark", "solarized":
		return SolarizedDarkTheme()
	case "gruvbox-dark", "gruvbox":
		return GruvboxDarkTheme()
	default:
		return DefaultTheme()
	}
}

// Next returns the theme after name in cycling order
func Next(name string) Theme {
	current := GetTheme(name).Name
	for i, n := range order {
		if n == current {
			return GetTheme(order[(i+1)%len(order)])
		}
	}
	return DefaultTheme()
}
