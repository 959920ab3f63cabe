// Package theme provides terminal theming with automatic detection.
// Colors are read from the user's Alacritty, Kitty, or Foot configuration,
// with environment variable overrides available.
package theme

import "github.com/charmbracelet/lipgloss"

// Palette holds the color scheme for the TUI
type Palette struct {
	BG       string // background
	FG       string // foreground (primary text)
	Muted    string // secondary info, help text
	Accent   string // selections, success markers
	AccentBg string // highlighted row background
	Error    string // errors and warnings
}

// DefaultPalette returns the fallback green-on-dark theme
func DefaultPalette() Palette {
	return Palette{
		BG:       "#101010",
		FG:       "#c8c8b4",
		Muted:    "#6e6e5e",
		Accent:   "#8bc34a",
		AccentBg: "#1c1c14",
		Error:    "#ff6b6b",
	}
}

// Styles holds all lipgloss styles derived from a palette
type Styles struct {
	Header       lipgloss.Style
	Title        lipgloss.Style
	StatusBar    lipgloss.Style
	ListRow      lipgloss.Style
	ListSelected lipgloss.Style
	Checked      lipgloss.Style
	Muted        lipgloss.Style
	Success      lipgloss.Style
	Error        lipgloss.Style
	HelpKey      lipgloss.Style
	HelpDesc     lipgloss.Style
	Panel        lipgloss.Style
	PanelTitle   lipgloss.Style
}

// NewStyles creates styles from a palette
func NewStyles(p Palette) Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.FG)).
			Bold(true).
			Padding(0, 1),

		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.FG)).
			Bold(true),

		StatusBar: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Muted)).
			Padding(0, 1),

		ListRow: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.FG)),

		ListSelected: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.FG)).
			Background(lipgloss.Color(p.AccentBg)).
			Bold(true),

		Checked: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Accent)),

		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Muted)),

		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Accent)),

		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Error)),

		HelpKey: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Muted)),

		HelpDesc: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.FG)),

		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(p.Muted)).
			Padding(0, 1),

		PanelTitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.FG)).
			Bold(true),
	}
}

// Current holds the active palette and styles
var Current Styles
var CurrentPalette Palette

func init() {
	CurrentPalette = Detect()
	Current = NewStyles(CurrentPalette)
}

// Refresh reloads the theme from config files
func Refresh() {
	CurrentPalette = Detect()
	Current = NewStyles(CurrentPalette)
}
