// Package application is the terminal table browser: a menu of the tables a
// server exposes and a table view driven by the grid engine.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/tableview/internal/client"
	"github.com/JonMunkholm/tableview/internal/grid"
	tea "github.com/charmbracelet/bubbletea"
)

// Source serves the table list, pages and exports.
type Source interface {
	grid.DataSource
	ListTables(ctx context.Context) ([]client.TableSummary, error)
}

// Options configures every table view the browser opens.
type Options struct {
	Defaults             grid.Defaults
	DebounceWait         time.Duration
	SuppressCancellation bool
	Development          bool
	Saver                grid.FileSaver
	Logger               *slog.Logger

	// Cache is shared by all tables so reopening one is served locally.
	Cache *grid.Cache

	// Now names export files. Defaults to time.Now.
	Now func() time.Time
}

/* ----------------------------------------
	MESSAGES
---------------------------------------- */

type tablesMsg []client.TableSummary

type openTableMsg client.TableSummary

type stateMsg struct {
	view  *tableView
	state grid.State
}

type exportMsg struct {
	path string
	err  error
}

type errMsg struct{ err error }

/* ----------------------------------------
	MODEL
---------------------------------------- */

// Model is the bubbletea model. It is used through a pointer so the open
// table survives copies made by the runtime.
type Model struct {
	ctx  context.Context
	src  Source
	opts Options

	menu   *Menu
	table  *tableView
	status string
	err    string
	width  int
}

// New creates the browser. ctx bounds every request it makes.
func New(ctx context.Context, src Source, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Model{ctx: ctx, src: src, opts: opts, status: "loading tables..."}
}

func (m *Model) Init() tea.Cmd {
	return m.loadTables
}

func (m *Model) loadTables() tea.Msg {
	tables, err := m.src.ListTables(m.ctx)
	if err != nil {
		return errMsg{err: fmt.Errorf("list tables: %w", err)}
	}
	return tablesMsg(tables)
}

// Close shuts down the open table, if any.
func (m *Model) Close() {
	if m.table != nil {
		m.table.close()
		m.table = nil
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tablesMsg:
		m.status = ""
		m.menu = buildMenuTree(msg, func(t client.TableSummary) tea.Cmd {
			return func() tea.Msg { return openTableMsg(t) }
		})
		if len(msg) == 0 {
			m.status = "the server has no tables"
		}
		return m, nil

	case openTableMsg:
		m.Close()
		m.table = m.openTable(client.TableSummary(msg))
		m.err, m.status = "", ""
		return m, m.table.waitForState()

	case stateMsg:
		if msg.view != m.table {
			return m, nil
		}
		m.table.apply(msg.state)
		return m, m.table.waitForState()

	case exportMsg:
		if msg.err != nil {
			m.err = "export failed: " + grid.UserMessage(msg.err)
			return m, nil
		}
		m.status = "exported to " + msg.path
		return m, nil

	case errMsg:
		m.err = msg.err.Error()
		m.status = ""
		if errors.Is(msg.err, context.Canceled) {
			return m, tea.Quit
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.Close()
			return m, tea.Quit
		}
		if m.table != nil {
			return m, m.updateTable(msg)
		}
		return m, m.updateMenu(msg)
	}

	return m, nil
}

func (m *Model) updateMenu(msg tea.KeyMsg) tea.Cmd {
	if m.menu == nil {
		if msg.String() == "q" {
			return tea.Quit
		}
		return nil
	}

	menu := m.menu
	switch msg.String() {
	case "up", "k":
		if menu.Cursor > 0 {
			menu.Cursor--
		}
	case "down", "j":
		if menu.Cursor < len(menu.Items)-1 {
			menu.Cursor++
		}
	case "esc", "backspace":
		if menu.Parent != nil {
			m.menu = menu.Parent
		}
	case "q":
		return tea.Quit
	case "enter", "right", "l":
		item := menu.Items[menu.Cursor]
		switch {
		case item.Submenu != nil:
			m.menu = item.Submenu
		case item.Label == "Back" && menu.Parent != nil:
			m.menu = menu.Parent
		case item.Action != nil:
			return item.Action()
		}
	}
	return nil
}

func (m *Model) openTable(t client.TableSummary) *tableView {
	history := grid.NewMemoryHistory(nil)
	engine := grid.New(m.src, history, grid.Options{
		Endpoint:             t.Endpoint(),
		Defaults:             m.opts.Defaults,
		Cache:                m.opts.Cache,
		DebounceWait:         m.opts.DebounceWait,
		SuppressCancellation: m.opts.SuppressCancellation,
		Saver:                m.opts.Saver,
		Logger:               m.opts.Logger.With("table", t.Key),
		Development:          m.opts.Development,
		Now:                  m.opts.Now,
	})

	v := newTableView(t, engine, history)
	engine.Mount(m.ctx)
	return v
}

// exportCmd runs the export off the event loop.
func (m *Model) exportCmd(v *tableView) tea.Cmd {
	return func() tea.Msg {
		path, err := v.engine.ExportToCSV(m.ctx)
		return exportMsg{path: path, err: err}
	}
}
