package tui

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nikbrunner/tabdeck/internal/model"
	"github.com/nikbrunner/tabdeck/internal/reorder"
	"github.com/nikbrunner/tabdeck/internal/store"
	"github.com/nikbrunner/tabdeck/internal/view"
)

// Mode is the current interaction mode of the deck.
type Mode int

const (
	ModeNormal Mode = iota
	ModeMove
	ModeFilter
	ModeHelp
)

// noticeDuration is how long a transient notice stays visible.
const noticeDuration = 4 * time.Second

// storeCallTimeout bounds every store round-trip issued from the deck.
const storeCallTimeout = 5 * time.Second

// notice is a transient, self-dismissing message line.
type notice struct {
	text  string
	until time.Time
}

// App is the main bubbletea model for the deck.
type App struct {
	st       store.Store
	events   <-chan store.Event
	engine   *reorder.Engine
	session  *reorder.Session
	registry *view.Registry
	tree     *deckTree
	ready    *view.Readiness
	log      zerolog.Logger

	keys   KeyMap
	styles Styles

	mode        Mode
	items       []model.Item // rendered snapshot of the confirmed order
	cursor      int
	folderStack []model.Item // entered folders, for breadcrumb and back

	filterInput textinput.Model
	filtered    []model.Item
	filterIdx   int

	notice notice

	// channel the engine's reconciled callback feeds; drained by a command
	reconciled chan []model.Item

	// raised by the engine's external-change hook, consumed by the next
	// reconciledMsg. A commit's own cleanup also idles the session, so the
	// session state alone cannot tell the two apart.
	externalChange *atomic.Bool

	// For gg command
	lastKeyWasG bool

	width  int
	height int
}

// AppParams holds parameters for creating a new App.
type AppParams struct {
	Store     store.Store
	Events    <-chan store.Event // optional store change notifications
	Session   *reorder.Session   // optional, default session if nil
	Keys      *KeyMap            // optional, uses default if nil
	Styles    *Styles            // optional, uses default if nil
	Readiness view.ReadinessParams
	Logger    zerolog.Logger
}

// NewApp creates a new App rooted at the top level. The first level load
// happens in Init.
func NewApp(params AppParams) App {
	keys := DefaultKeyMap()
	if params.Keys != nil {
		keys = *params.Keys
	}
	styles := DefaultStyles()
	if params.Styles != nil {
		styles = *params.Styles
	}
	session := params.Session
	if session == nil {
		session = reorder.NewSession(reorder.SessionParams{})
	}

	filterInput := textinput.New()
	filterInput.Placeholder = "Filter..."
	filterInput.CharLimit = 50
	filterInput.Width = 30

	tree := newDeckTree()
	rp := params.Readiness
	rp.Tree = tree
	rp.Logger = params.Logger

	a := App{
		st:             params.Store,
		events:         params.Events,
		session:        session,
		registry:       view.NewRegistry(),
		tree:           tree,
		ready:          view.NewReadiness(rp),
		log:            params.Logger,
		keys:           keys,
		styles:         styles,
		filterInput:    filterInput,
		reconciled:     make(chan []model.Item, 4),
		externalChange: &atomic.Bool{},
		width:          80,
		height:         24,
	}
	return a
}

// Cursor returns the current cursor position.
func (a App) Cursor() int {
	return a.cursor
}

// Items returns the rendered item snapshot.
func (a App) Items() []model.Item {
	return a.items
}

// Mode returns the current interaction mode.
func (a App) Mode() Mode {
	return a.mode
}

// SessionState returns the gesture session state.
func (a App) SessionState() reorder.SessionState {
	return a.session.State()
}

// CandidateSlot returns the hovered insertion slot, or reorder.NoCandidate.
func (a App) CandidateSlot() int {
	return a.session.Candidate()
}

// NoticeText returns the current transient notice ("" if none).
func (a App) NoticeText() string {
	return a.notice.text
}

// BindingCount returns the number of handlers bound through the registry.
func (a App) BindingCount() int {
	return a.registry.BindingCount()
}

// currentParentID returns the parent of the level being shown.
func (a App) currentParentID() *string {
	if len(a.folderStack) == 0 {
		return nil
	}
	return &a.folderStack[len(a.folderStack)-1].ID
}

// Messages.
type (
	levelLoadedMsg struct {
		engine *reorder.Engine
		items  []model.Item
		err    error
	}
	moveResultMsg struct{ err error }
	rebindMsg     struct {
		report view.Report
		err    error
	}
	storeEventMsg struct {
		ev store.Event
		ok bool
	}
	reconciledMsg struct{ items []model.Item }
	tickMsg       time.Time
)

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.loadLevelCmd(a.currentParentID()), a.listenReconciled(), a.tick()}
	if a.events != nil {
		cmds = append(cmds, a.listenStoreEvents())
	}
	return tea.Batch(cmds...)
}

// loadLevelCmd builds an engine for one level and loads it.
func (a App) loadLevelCmd(parentID *string) tea.Cmd {
	st, session, log := a.st, a.session, a.log
	reconciled := a.reconciled
	external := a.externalChange
	return func() tea.Msg {
		engine := reorder.NewEngine(reorder.EngineParams{
			Store:    st,
			ParentID: parentID,
			Logger:   log,
		})
		engine.OnCleanup(session.Cancel)
		engine.OnExternalChange(func() {
			session.Cancel()
			external.Store(true)
		})
		engine.OnReconciled(func(items []model.Item) {
			select {
			case reconciled <- items:
			default:
			}
		})

		ctx, cancel := context.WithTimeout(context.Background(), storeCallTimeout)
		defer cancel()
		if err := engine.Load(ctx); err != nil {
			return levelLoadedMsg{err: err}
		}
		return levelLoadedMsg{engine: engine, items: engine.OrderSnapshot()}
	}
}

// listenReconciled delivers engine reconciliation callbacks into the
// update loop.
func (a App) listenReconciled() tea.Cmd {
	ch := a.reconciled
	return func() tea.Msg {
		return reconciledMsg{items: <-ch}
	}
}

// listenStoreEvents delivers store change notifications into the update
// loop.
func (a App) listenStoreEvents() tea.Cmd {
	ch := a.events
	return func() tea.Msg {
		ev, ok := <-ch
		return storeEventMsg{ev: ev, ok: ok}
	}
}

// tick drives session expiry and notice dismissal.
func (a App) tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// moveCmd asks the engine to resolve and commit a committed gesture.
func (a App) moveCmd(g reorder.Gesture) tea.Cmd {
	engine := a.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeCallTimeout)
		defer cancel()
		return moveResultMsg{err: engine.RequestMove(ctx, g)}
	}
}

// handleStoreEventCmd lets the engine reconcile one store notification.
func (a App) handleStoreEventCmd(ev store.Event) tea.Cmd {
	engine, log := a.engine, a.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeCallTimeout)
		defer cancel()
		if err := engine.HandleStoreEvent(ctx, ev); err != nil {
			log.Warn().Err(err).Msg("store event reconcile failed")
		}
		return nil
	}
}

// rebindCmd waits for the rendered element set to match the expected
// count, then reports so handlers can be rebound.
func (a App) rebindCmd(expected int) tea.Cmd {
	ready := a.ready
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeCallTimeout)
		defer cancel()
		report, err := ready.EnsureReady(ctx, expected)
		return rebindMsg{report: report, err: err}
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case levelLoadedMsg:
		if msg.err != nil {
			a.setNotice("load failed: " + msg.err.Error())
			return a, nil
		}
		a.engine = msg.engine
		a.items = msg.items
		a.cursor = 0
		a.tree.Rebuild(a.items)
		return a, a.rebindCmd(len(a.items))

	case reconciledMsg:
		a.items = msg.items
		a.clampCursor()
		a.tree.Rebuild(a.items)
		if a.externalChange.Swap(false) && a.mode == ModeMove {
			// Gesture was force-cancelled by an external change.
			a.mode = ModeNormal
			a.setNotice("bookmarks changed outside tabdeck, move cancelled")
		}
		return a, tea.Batch(a.rebindCmd(len(a.items)), a.listenReconciled())

	case moveResultMsg:
		a.mode = ModeNormal
		if msg.err != nil {
			a.setNotice(moveFailureText(msg.err))
		}
		return a, nil

	case rebindMsg:
		if msg.err != nil {
			// Non-fatal: the next structural change retries the rebind.
			a.log.Warn().Err(msg.err).Int("attempts", msg.report.Attempts).Msg("rebind skipped")
			return a, nil
		}
		a.rebindHandlers()
		return a, nil

	case storeEventMsg:
		if !msg.ok {
			return a, nil
		}
		return a, tea.Batch(a.handleStoreEventCmd(msg.ev), a.listenStoreEvents())

	case tickMsg:
		if a.session.Expired() {
			a.session.Cancel()
			if a.mode == ModeMove {
				a.mode = ModeNormal
				a.setNotice("move timed out")
			}
		}
		if a.mode == ModeMove && !a.session.Active() {
			a.mode = ModeNormal
		}
		if a.notice.text != "" && time.Now().After(a.notice.until) {
			a.notice = notice{}
		}
		return a, a.tick()

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

// handleKey routes a key press by mode.
func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.mode {
	case ModeMove:
		return a.handleMoveKey(msg)
	case ModeFilter:
		return a.handleFilterKey(msg)
	case ModeHelp:
		a.mode = ModeNormal
		return a, nil
	}
	return a.handleNormalKey(msg)
}

func (a App) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle gg sequence
	if key.Matches(msg, a.keys.Top) {
		if a.lastKeyWasG {
			a.cursor = 0
			a.lastKeyWasG = false
			return a, nil
		}
		a.lastKeyWasG = true
		return a, nil
	}
	a.lastKeyWasG = false

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Down):
		if len(a.items) > 0 && a.cursor < len(a.items)-1 {
			a.cursor++
		}

	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}

	case key.Matches(msg, a.keys.Bottom):
		if len(a.items) > 0 {
			a.cursor = len(a.items) - 1
		}

	case key.Matches(msg, a.keys.PickUp):
		return a.pickUp()

	case key.Matches(msg, a.keys.Open):
		return a.open()

	case key.Matches(msg, a.keys.Back):
		if len(a.folderStack) > 0 {
			a.folderStack = a.folderStack[:len(a.folderStack)-1]
			return a, a.loadLevelCmd(a.currentParentID())
		}

	case key.Matches(msg, a.keys.YankURL):
		if item, ok := a.currentItem(); ok && item.URL != "" {
			if err := clipboard.WriteAll(item.URL); err == nil {
				a.setNotice("URL copied")
			}
		}

	case key.Matches(msg, a.keys.Filter):
		a.mode = ModeFilter
		a.filterInput.Focus()
		a.filtered = a.items
		a.filterIdx = 0
		return a, textinput.Blink

	case key.Matches(msg, a.keys.Help):
		a.mode = ModeHelp
	}

	return a, nil
}

// pickUp starts a gesture for the item under the cursor.
func (a App) pickUp() (tea.Model, tea.Cmd) {
	item, ok := a.currentItem()
	if !ok {
		return a, nil
	}
	if err := a.session.Arm(item.ID, a.cursor); err != nil {
		a.setNotice("another move is still in progress")
		return a, nil
	}
	// Keyboard gestures have no movement threshold; dragging starts at
	// pick-up, hovering the slot the item already occupies.
	a.session.Drag()
	a.session.SetCandidate(a.cursor)
	a.mode = ModeMove
	return a, nil
}

// open activates the item under the cursor: folders are entered, leaves
// dispatch their registry-bound activate handler.
func (a App) open() (tea.Model, tea.Cmd) {
	item, ok := a.currentItem()
	if !ok {
		return a, nil
	}
	if item.IsFolder() {
		a.folderStack = append(a.folderStack, item)
		return a, a.loadLevelCmd(&item.ID)
	}
	a.registry.Dispatch(item.ID, "activate")
	return a, nil
}

func (a App) handleMoveKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	slots := len(a.items) // highest slot index

	switch {
	case key.Matches(msg, a.keys.Cancel):
		a.session.Cancel()
		a.mode = ModeNormal
		return a, nil

	case key.Matches(msg, a.keys.Down):
		if slot := a.session.Candidate(); slot < slots {
			a.session.SetCandidate(slot + 1)
		}

	case key.Matches(msg, a.keys.Up):
		if slot := a.session.Candidate(); slot > 0 {
			a.session.SetCandidate(slot - 1)
		}

	case key.Matches(msg, a.keys.Bottom):
		a.session.SetCandidate(slots)

	case key.Matches(msg, a.keys.Drop):
		g, err := a.session.Commit()
		if err != nil {
			// Drop without a usable candidate is a cancellation.
			a.session.Cancel()
			a.mode = ModeNormal
			return a, nil
		}
		return a, a.moveCmd(g)

	case key.Matches(msg, a.keys.Quit):
		a.session.Cancel()
		return a, tea.Quit
	}

	return a, nil
}

func (a App) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Cancel):
		a.mode = ModeNormal
		a.filterInput.Reset()
		a.filtered = nil
		a.filterIdx = 0
		return a, nil

	case msg.Type == tea.KeyEnter:
		if a.filterIdx < len(a.filtered) {
			item := a.filtered[a.filterIdx]
			a.mode = ModeNormal
			a.filterInput.Reset()
			a.filtered = nil
			if idx := a.indexOf(item.ID); idx >= 0 {
				a.cursor = idx
			}
			if item.IsFolder() {
				a.folderStack = append(a.folderStack, item)
				return a, a.loadLevelCmd(&item.ID)
			}
			a.registry.Dispatch(item.ID, "activate")
		}
		return a, nil

	case msg.Type == tea.KeyDown:
		if a.filterIdx < len(a.filtered)-1 {
			a.filterIdx++
		}
		return a, nil

	case msg.Type == tea.KeyUp:
		if a.filterIdx > 0 {
			a.filterIdx--
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.filterInput, cmd = a.filterInput.Update(msg)
	a.filtered = filterItems(a.items, a.filterInput.Value())
	if a.filterIdx >= len(a.filtered) {
		a.filterIdx = 0
	}
	return a, cmd
}

// rebindHandlers tears down every tracked binding and rebinds interaction
// handlers against the current element set. The registry is the only path
// that attaches handlers, so this teardown-and-rebuild is complete by
// construction.
func (a *App) rebindHandlers() {
	a.registry.UnbindAllTracked()
	for _, item := range a.items {
		if item.URL == "" {
			continue
		}
		url := item.URL
		a.registry.Bind(item.ID, "activate", func() {
			openURL(url)
		})
	}
}

func (a App) currentItem() (model.Item, bool) {
	if len(a.items) == 0 || a.cursor >= len(a.items) {
		return model.Item{}, false
	}
	return a.items[a.cursor], true
}

func (a App) indexOf(id string) int {
	for i := range a.items {
		if a.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (a *App) clampCursor() {
	if a.cursor >= len(a.items) {
		a.cursor = len(a.items) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

func (a *App) setNotice(text string) {
	a.notice = notice{text: text, until: time.Now().Add(noticeDuration)}
}

// moveFailureText maps engine errors to a short user-facing notice.
func moveFailureText(err error) string {
	var moveErr *reorder.MoveError
	switch {
	case errors.As(err, &moveErr):
		return "move failed: " + moveErr.Reason
	case errors.Is(err, reorder.ErrStale):
		return "bookmarks changed, move not applied"
	case errors.Is(err, reorder.ErrCommitInFlight):
		return "previous move still pending"
	default:
		return "move failed: " + err.Error()
	}
}

// openURL opens a URL in the default browser.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	}
	if cmd != nil {
		_ = cmd.Start()
	}
}
