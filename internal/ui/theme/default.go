package theme

import "github.com/charmbracelet/lipgloss"

// DefaultTheme returns the default dark theme
func DefaultTheme() Theme {
	return Theme{
		Name: "default",

		Background: lipgloss.Color("235"),
		Foreground: lipgloss.Color("252"),
		Muted:      lipgloss.Color("245"),

		Border:        lipgloss.Color("240"),
		BorderFocused: lipgloss.Color("62"),
		Selection:     lipgloss.Color("237"),
		Cursor:        lipgloss.Color("248"),

		Success: lipgloss.Color("42"),
		Warning: lipgloss.Color("220"),
		Error:   lipgloss.Color("196"),
		Info:    lipgloss.Color("75"),

		TableHeader:      lipgloss.Color("105"),
		TableRowSelected: lipgloss.Color("25"),

		PopupBackground: lipgloss.Color("236"),
		PopupSelected:   lipgloss.Color("62"),

		SyntaxStyle: "monokai",
	}
}

// SolarizedDarkTheme returns the Solarized dark theme
func SolarizedDarkTheme() Theme {
	return Theme{
		Name: "solarized-dark",

		Background: lipgloss.Color("#002b36"), // base03
		Foreground: lipgloss.Color("#839496"), // base0
		Muted:      lipgloss.Color("#586e75"), // base01

		Border:        lipgloss.Color("#073642"), // base02
		BorderFocused: lipgloss.Color("#268bd2"), // blue
		Selection:     lipgloss.Color("#073642"),
		Cursor:        lipgloss.Color("#93a1a1"), // base1

		Success: lipgloss.Color("#859900"), // green
		Warning: lipgloss.Color("#b58900"), // yellow
		Error:   lipgloss.Color("#dc322f"), // red
		Info:    lipgloss.Color("#2aa198"), // cyan

		TableHeader:      lipgloss.Color("#268bd2"),
		TableRowSelected: lipgloss.Color("#073642"),

		PopupBackground: lipgloss.Color("#073642"),
		PopupSelected:   lipgloss.Color("#268bd2"),

		SyntaxStyle: "solarized-dark",
	}
}

// GruvboxDarkTheme returns the Gruvbox dark theme
func GruvboxDarkTheme() Theme {
	return Theme{
		Name: "gruvbox-dark",

		Background: lipgloss.Color("#282828"), // bg
		Foreground: lipgloss.Color("#ebdbb2"), // fg
		Muted:      lipgloss.Color("#928374"), // gray

		Border:        lipgloss.Color("#504945"), // bg2
		BorderFocused: lipgloss.Color("#fabd2f"), // yellow
		Selection:     lipgloss.Color("#3c3836"), // bg1
		Cursor:        lipgloss.Color("#d5c4a1"), // fg2

		Success: lipgloss.Color("#b8bb26"), // green
		Warning: lipgloss.Color("#fe8019"), // orange
		Error:   lipgloss.Color("#fb4934"), // red
		Info:    lipgloss.Color("#83a598"), // blue

		TableHeader:      lipgloss.Color("#fabd2f"),
		TableRowSelected: lipgloss.Color("#504945"),

		PopupBackground: lipgloss.Color("#3c3836"),
		PopupSelected:   lipgloss.Color("#d79921"),

		SyntaxStyle: "gruvbox",
	}
}
