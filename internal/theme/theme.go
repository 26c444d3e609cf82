// Package theme holds the color palettes used by the terminal UI.
package theme

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const Default = "superhero"

type Palette struct {
	Name        string
	Dark        bool
	High        string
	Medium      string
	Low         string
	OverdueFG   string
	OverdueBG   string
	Completed   string
	Accent      string
	Description string
}

var palettes = map[string]Palette{
	"superhero": {Name: "Superhero", Dark: true, High: "#e74c3c", Medium: "#f39c12", Low: "#2ecc71",
		OverdueFG: "#c0392b", OverdueBG: "#fadbd8", Completed: "#7f8c8d", Accent: "#4e73df",
		Description: "Dark theme with blue accents"},
	"cosmo": {Name: "Cosmo", High: "#d9534f", Medium: "#f0ad4e", Low: "#5cb85c",
		OverdueFG: "#a94442", OverdueBG: "#f2dede", Completed: "#999999", Accent: "#2780e3",
		Description: "Clean light theme with modern aesthetics"},
	"darkly": {Name: "Darkly", Dark: true, High: "#e74c3c", Medium: "#f39c12", Low: "#00bc8c",
		OverdueFG: "#c0392b", OverdueBG: "#3d1f1f", Completed: "#888888", Accent: "#375a7f",
		Description: "Sleek dark theme with subtle colors"},
	"flatly": {Name: "Flatly", High: "#e74c3c", Medium: "#f39c12", Low: "#18bc9c",
		OverdueFG: "#c0392b", OverdueBG: "#fadbd8", Completed: "#95a5a6", Accent: "#2c3e50",
		Description: "Flat design light theme"},
	"cyborg": {Name: "Cyborg", Dark: true, High: "#ee4444", Medium: "#ff8800", Low: "#33ff99",
		OverdueFG: "#ff0000", OverdueBG: "#2d1f1f", Completed: "#777777", Accent: "#2a9fd6",
		Description: "Futuristic dark theme with cyan accents"},
	"solar": {Name: "Solar", High: "#dc322f", Medium: "#cb4b16", Low: "#859900",
		OverdueFG: "#dc322f", OverdueBG: "#fdf6e3", Completed: "#93a1a1", Accent: "#268bd2",
		Description: "Warm light theme with solarized colors"},
}

// Theme is a palette turned into ready-to-use styles.
type Theme struct {
	Key       string
	Palette   Palette
	High      lipgloss.Style
	Medium    lipgloss.Style
	Low       lipgloss.Style
	Overdue   lipgloss.Style
	Completed lipgloss.Style
	Accent    lipgloss.Style
	Title     lipgloss.Style
	Muted     lipgloss.Style
	Selected  lipgloss.Style
}

// Get returns the named theme, falling back to the default for unknown names.
func Get(name string) Theme {
	key := strings.ToLower(strings.TrimSpace(name))
	p, ok := palettes[key]
	if !ok {
		key = Default
		p = palettes[Default]
	}
	return Theme{
		Key:       key,
		Palette:   p,
		High:      lipgloss.NewStyle().Foreground(lipgloss.Color(p.High)),
		Medium:    lipgloss.NewStyle().Foreground(lipgloss.Color(p.Medium)),
		Low:       lipgloss.NewStyle().Foreground(lipgloss.Color(p.Low)),
		Overdue:   lipgloss.NewStyle().Foreground(lipgloss.Color(p.OverdueFG)).Background(lipgloss.Color(p.OverdueBG)),
		Completed: lipgloss.NewStyle().Foreground(lipgloss.Color(p.Completed)).Strikethrough(true),
		Accent:    lipgloss.NewStyle().Foreground(lipgloss.Color(p.Accent)),
		Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(p.Accent)).MarginBottom(1),
		Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color(p.Completed)),
		Selected:  lipgloss.NewStyle().Bold(true),
	}
}

// Names lists the theme keys in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(palettes))
	for k := range palettes {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// Next returns the theme key after current, wrapping around.
func Next(current string) string {
	names := Names()
	i := slices.Index(names, strings.ToLower(current))
	return names[(i+1)%len(names)]
}
