package tui

import (
	"fmt"
	"strings"

	"github.com/nikbrunner/tabdeck/internal/model"
	"github.com/nikbrunner/tabdeck/internal/reorder"
)

// View implements tea.Model.
func (a App) View() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("tabdeck"))
	b.WriteString(a.styles.Breadcrumb.Render(a.breadcrumb()))
	b.WriteString("\n\n")

	switch a.mode {
	case ModeHelp:
		b.WriteString(a.renderHelp())
	case ModeFilter:
		b.WriteString(a.renderFilter())
	case ModeMove:
		b.WriteString(a.renderMoveList())
	default:
		b.WriteString(a.renderList())
	}

	if a.notice.text != "" {
		b.WriteString("\n")
		b.WriteString(a.styles.Notice.Render(a.notice.text))
		b.WriteString("\n")
	}

	b.WriteString(a.styles.Help.Render(a.renderHints(a.contextualHints())))

	return a.styles.App.Render(b.String())
}

// breadcrumb renders the entered-folder trail.
func (a App) breadcrumb() string {
	if len(a.folderStack) == 0 {
		return "~"
	}
	parts := make([]string, 0, len(a.folderStack)+1)
	parts = append(parts, "~")
	for _, f := range a.folderStack {
		parts = append(parts, f.Title)
	}
	return strings.Join(parts, " / ")
}

// renderList renders the deck in normal mode.
func (a App) renderList() string {
	if len(a.items) == 0 {
		return a.styles.Empty.Render("No bookmarks here yet.") + "\n"
	}

	var b strings.Builder
	for i, item := range a.items {
		line := a.itemLabel(item)
		if i == a.cursor {
			b.WriteString(a.styles.ItemSelected.Render(line))
		} else {
			b.WriteString(a.styles.Item.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderMoveList renders the deck during a gesture: the picked item is
// highlighted in place and the candidate insertion slot is drawn as a
// marker line in its gap.
func (a App) renderMoveList() string {
	candidate := a.session.Candidate()
	picked := a.session.ItemID()

	var b strings.Builder
	for i := 0; i <= len(a.items); i++ {
		if i == candidate && candidate != reorder.NoCandidate {
			b.WriteString(a.styles.SlotMarker.Render(" ▸ " + strings.Repeat("─", a.listWidth()-3)))
			b.WriteString("\n")
		}
		if i == len(a.items) {
			break
		}
		item := a.items[i]
		line := a.itemLabel(item)
		if item.ID == picked {
			b.WriteString(a.styles.ItemPicked.Render(line))
		} else {
			b.WriteString(a.styles.Item.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderFilter renders the filter input and the fuzzy-matched items.
func (a App) renderFilter() string {
	var b strings.Builder
	b.WriteString(a.filterInput.View())
	b.WriteString("\n\n")

	if len(a.filtered) == 0 {
		b.WriteString(a.styles.Empty.Render("No matches.") + "\n")
		return b.String()
	}

	for i, item := range a.filtered {
		line := a.itemLabel(item)
		if i == a.filterIdx {
			b.WriteString(a.styles.ItemSelected.Render(line))
		} else {
			b.WriteString(a.styles.Item.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderHelp renders the help overlay.
func (a App) renderHelp() string {
	help := `Navigation:
  j/k         Move down/up
  h/l         Go back / open folder
  gg/G        Jump to top/bottom

Reordering:
  m/space     Pick up item
  j/k         Shift insertion slot (while carrying)
  enter       Drop into slot
  esc         Cancel move

Other:
  Y           Copy URL to clipboard
  /           Filter items
  q           Quit
`
	return a.styles.Help.Render(help)
}

// itemLabel renders one item line: folders with a marker, leaves with
// their URL appended.
func (a App) itemLabel(item model.Item) string {
	width := a.listWidth()
	if item.IsFolder() {
		return truncate(fmt.Sprintf("▪ %s/", item.Title), width)
	}
	label := item.Title
	if item.URL != "" {
		label += "  " + item.URL
	}
	return truncate(label, width)
}

// listWidth returns the usable width for item lines.
func (a App) listWidth() int {
	width := a.width - 6
	if width < 20 {
		width = 20
	}
	return width
}
