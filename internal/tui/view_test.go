package tui

import (
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/nikbrunner/tabdeck/internal/model"
)

func TestView_NormalMode(t *testing.T) {
	app, _ := newTestApp(t, leafItems("alpha", "beta"))

	out := StripANSI(app.View())
	assert.Assert(t, strings.Contains(out, "tabdeck"), "missing title:\n%s", out)
	assert.Assert(t, strings.Contains(out, "alpha"), "missing item:\n%s", out)
	assert.Assert(t, strings.Contains(out, "https://example.com/beta"), "missing URL:\n%s", out)
}

func TestView_EmptyDeck(t *testing.T) {
	app, _ := newTestApp(t, nil)

	out := StripANSI(app.View())
	assert.Assert(t, strings.Contains(out, "No bookmarks here yet."), "got:\n%s", out)
}

func TestView_MoveModeShowsSlotMarker(t *testing.T) {
	app, _ := newTestApp(t, leafItems("alpha", "beta", "gamma"))
	app, _ = press(app, runes("m"))
	app, _ = press(app, runes("j"))
	app, _ = press(app, runes("j"))

	out := StripANSI(app.View())
	lines := strings.Split(out, "\n")

	marker := -1
	for i, line := range lines {
		if strings.Contains(line, "▸") {
			marker = i
			break
		}
	}
	assert.Assert(t, marker >= 0, "no slot marker rendered:\n%s", out)

	// Slot 2 sits between beta and gamma.
	assert.Assert(t, strings.Contains(lines[marker-1], "beta"), "got:\n%s", out)
	assert.Assert(t, strings.Contains(lines[marker+1], "gamma"), "got:\n%s", out)
}

func TestView_Breadcrumb(t *testing.T) {
	folder := "f1"
	items := []model.Item{{ID: folder, Title: "Work", Kind: model.ItemFolder}}
	children := leafItems("x")
	children[0].ParentID = &folder
	app, _ := newTestApp(t, append(items, children...))

	app, cmd := press(app, runes("l"))
	m, _ := app.Update(cmd().(levelLoadedMsg))
	app = m.(App)

	out := StripANSI(app.View())
	assert.Assert(t, strings.Contains(out, "~ / Work"), "got:\n%s", out)
}

func TestView_NoticeShown(t *testing.T) {
	app, _ := newTestApp(t, leafItems("alpha"))
	app.setNotice("move timed out")

	out := StripANSI(app.View())
	assert.Assert(t, strings.Contains(out, "move timed out"), "got:\n%s", out)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{in: "short", width: 10, want: "short"},
		{in: "exactly ten", width: 11, want: "exactly ten"},
		{in: "a much longer label", width: 10, want: "a much ..."},
		{in: "abc", width: 0, want: ""},
		{in: "abcdef", width: 2, want: ".."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestView_HelpOverlay(t *testing.T) {
	app, _ := newTestApp(t, leafItems("alpha"))
	app, _ = press(app, runes("?"))
	assert.Equal(t, app.Mode(), ModeHelp)

	out := StripANSI(app.View())
	assert.Assert(t, strings.Contains(out, "Pick up item"), "got:\n%s", out)

	// Any key closes the overlay.
	app, _ = press(app, runes("x"))
	assert.Equal(t, app.Mode(), ModeNormal)
}
