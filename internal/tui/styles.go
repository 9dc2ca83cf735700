package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds all lipgloss styles for the deck.
type Styles struct {
	App          lipgloss.Style
	Title        lipgloss.Style
	Breadcrumb   lipgloss.Style
	Item         lipgloss.Style
	ItemSelected lipgloss.Style
	ItemPicked   lipgloss.Style // the item currently carried in a gesture
	SlotMarker   lipgloss.Style // candidate insertion gap
	Notice       lipgloss.Style // transient failure/timeout notice
	Help         lipgloss.Style
	Empty        lipgloss.Style
	HintKey      lipgloss.Style
	HintDesc     lipgloss.Style
}

// DefaultStyles returns the default style configuration.
// Industrial design: grayscale with single desaturated teal accent.
func DefaultStyles() Styles {
	primary := lipgloss.AdaptiveColor{Light: "#505050", Dark: "#A0A0A0"} // main text
	subtle := lipgloss.AdaptiveColor{Light: "#888888", Dark: "#606060"}  // secondary text
	accent := lipgloss.AdaptiveColor{Light: "#4A7070", Dark: "#5F8787"}  // desaturated teal
	warn := lipgloss.AdaptiveColor{Light: "#8A5A44", Dark: "#B07A5A"}    // muted amber

	return Styles{
		App: lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(2).
			PaddingRight(2),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),

		Breadcrumb: lipgloss.NewStyle().
			Foreground(subtle).
			PaddingLeft(1),

		Item: lipgloss.NewStyle().
			Foreground(primary).
			PaddingLeft(1),

		ItemSelected: lipgloss.NewStyle().
			PaddingLeft(1).
			Background(accent).
			Foreground(lipgloss.Color("#1A1A1A")),

		ItemPicked: lipgloss.NewStyle().
			PaddingLeft(1).
			Foreground(accent).
			Bold(true),

		SlotMarker: lipgloss.NewStyle().
			Foreground(accent),

		Notice: lipgloss.NewStyle().
			Foreground(warn),

		Help: lipgloss.NewStyle().
			Foreground(subtle).
			Padding(1, 0),

		Empty: lipgloss.NewStyle().
			Foreground(subtle),

		HintKey: lipgloss.NewStyle().
			Foreground(subtle),

		HintDesc: lipgloss.NewStyle().
			Foreground(subtle),
	}
}
