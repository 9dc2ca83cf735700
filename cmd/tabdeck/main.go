package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nikbrunner/tabdeck/internal/config"
	"github.com/nikbrunner/tabdeck/internal/importer"
	"github.com/nikbrunner/tabdeck/internal/logging"
	"github.com/nikbrunner/tabdeck/internal/model"
	"github.com/nikbrunner/tabdeck/internal/reorder"
	"github.com/nikbrunner/tabdeck/internal/store"
	"github.com/nikbrunner/tabdeck/internal/tui"
	"github.com/nikbrunner/tabdeck/internal/view"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "help", "--help", "-h":
			printHelp()
			return
		case "import":
			if len(os.Args) < 3 {
				fmt.Fprintf(os.Stderr, "Usage: tabdeck import <file.html>\n")
				os.Exit(1)
			}
			runImport(os.Args[2])
			return
		default:
			fmt.Fprintf(os.Stderr, "Unknown command %q, see 'tabdeck help'\n", os.Args[1])
			os.Exit(1)
		}
	}

	runDeck()
}

func printHelp() {
	help := `tabdeck - new-tab bookmark deck for the terminal

Usage:
  tabdeck               Open the deck
  tabdeck import <file> Import bookmarks from Netscape HTML
  tabdeck help          Show this help

Deck Keybindings:
  Navigation:
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
    ?           Help overlay
    q           Quit

Data Storage:
  ~/.config/tabdeck/bookmarks.json (or bookmarks.db)
Config:
  ~/.config/tabdeck/config.toml
`
	fmt.Print(help)
}

// loadConfig reads the user config, falling back to defaults.
func loadConfig() config.Config {
	path, err := config.DefaultConfigPath()
	if err != nil {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: bad config at %s: %v\n", path, err)
		return config.Default()
	}
	return cfg
}

// openStore opens the configured backend. Without explicit configuration
// it prefers SQLite if the database file exists, otherwise JSON.
func openStore(cfg config.Config) (store.Store, *store.JSONStore, error) {
	dir, err := config.DefaultConfigDir()
	if err != nil {
		return nil, nil, err
	}

	sqlitePath := filepath.Join(dir, "bookmarks.db")
	jsonPath := filepath.Join(dir, "bookmarks.json")
	if cfg.Store.Path != "" {
		switch cfg.Store.Backend {
		case "sqlite":
			sqlitePath = cfg.Store.Path
		default:
			jsonPath = cfg.Store.Path
		}
	}

	backend := cfg.Store.Backend
	if backend == "" {
		if _, err := os.Stat(sqlitePath); err == nil {
			backend = "sqlite"
		} else {
			backend = "json"
		}
	}

	if backend == "sqlite" {
		s, err := store.NewSQLiteStore(sqlitePath)
		return s, nil, err
	}

	js, err := store.NewJSONStore(jsonPath)
	return js, js, err
}

// runDeck runs the interactive deck.
func runDeck() {
	cfg := loadConfig()

	logPath := cfg.Log.Path
	if logPath == "" {
		if dir, err := config.DefaultConfigDir(); err == nil {
			logPath = filepath.Join(dir, "tabdeck.log")
		}
	}
	logger, logCloser, err := logging.Open(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot open log file: %v\n", err)
		logger = zerolog.Nop()
	}
	defer logCloser.Close()

	st, jsonStore, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening bookmark store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	// External edits to the JSON file surface as store events.
	if jsonStore != nil {
		watcher := store.NewWatcher(jsonStore, store.WithOnError(func(err error) {
			logger.Warn().Err(err).Msg("store watch error")
		}))
		if err := watcher.Start(); err != nil {
			logger.Warn().Err(err).Msg("store watch unavailable")
		} else {
			defer watcher.Stop()
		}
	}

	var events <-chan store.Event
	if notifier, ok := st.(store.Notifier); ok {
		events = notifier.Events()
	}

	session := reorder.NewSession(reorder.SessionParams{
		IdleCeiling: cfg.IdleCeiling(),
	})

	app := tui.NewApp(tui.AppParams{
		Store:   st,
		Events:  events,
		Session: session,
		Readiness: view.ReadinessParams{
			Base:        time.Duration(cfg.Readiness.BaseDelayMS) * time.Millisecond,
			Cap:         time.Duration(cfg.Readiness.MaxDelayMS) * time.Millisecond,
			MaxAttempts: cfg.Readiness.MaxAttempts,
			Debounce:    time.Duration(cfg.Readiness.DebounceMS) * time.Millisecond,
		},
		Logger: logger,
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running deck: %v\n", err)
		os.Exit(1)
	}
}

// runImport handles the import subcommand.
func runImport(filePath string) {
	cfg := loadConfig()

	st, _, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening bookmark store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	file, err := os.Open(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	items, err := importer.ParseHTMLBookmarks(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing HTML: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	added, err := appendItems(ctx, st, items)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Imported %d items\n", added)
}

// appendItems creates items in document order, each at the end of its
// level so existing bookmarks keep their positions.
func appendItems(ctx context.Context, st store.Store, items []model.Item) (int, error) {
	counts := make(map[string]int)
	keyOf := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}

	for _, it := range items {
		key := keyOf(it.ParentID)
		if _, seen := counts[key]; !seen {
			existing, err := st.List(ctx, it.ParentID)
			if err != nil {
				return 0, err
			}
			counts[key] = len(existing)
		}
		if err := st.Create(ctx, it, counts[key]); err != nil {
			return 0, err
		}
		counts[key]++
	}
	return len(items), nil
}
