package tui

import "strings"

// Hint represents a single keybind hint for display.
type Hint struct {
	Key  string // Display key (e.g., "j/k", "Enter")
	Desc string // Short description (e.g., "move", "open")
}

// renderHint renders a single hint as "key:desc" with styling.
func (a App) renderHint(h Hint) string {
	return a.styles.HintKey.Render(h.Key) + ":" + a.styles.HintDesc.Render(h.Desc)
}

// renderHints renders hints in horizontal format for the bottom bar:
// "j/k:move m:pick up enter:drop".
func (a App) renderHints(hints []Hint) string {
	if len(hints) == 0 {
		return ""
	}

	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = a.renderHint(h)
	}
	return strings.Join(parts, " ")
}

// contextualHints returns the hints for the current mode.
func (a App) contextualHints() []Hint {
	switch a.mode {
	case ModeMove:
		return []Hint{
			{Key: "j/k", Desc: "shift slot"},
			{Key: "enter", Desc: "drop"},
			{Key: "esc", Desc: "cancel"},
		}
	case ModeFilter:
		return []Hint{
			{Key: "up/down", Desc: "select"},
			{Key: "enter", Desc: "open"},
			{Key: "esc", Desc: "close"},
		}
	case ModeHelp:
		return []Hint{
			{Key: "any key", Desc: "close"},
		}
	}
	return []Hint{
		{Key: "j/k", Desc: "move"},
		{Key: "h/l", Desc: "back/open"},
		{Key: "m", Desc: "pick up"},
		{Key: "Y", Desc: "yank URL"},
		{Key: "/", Desc: "filter"},
		{Key: "?", Desc: "help"},
		{Key: "q", Desc: "quit"},
	}
}
