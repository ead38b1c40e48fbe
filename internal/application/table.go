package application

import (
	"sync"

	"github.com/JonMunkholm/tableview/internal/client"
	"github.com/JonMunkholm/tableview/internal/grid"
	tea "github.com/charmbracelet/bubbletea"
)

type inputMode int

const (
	inputNone inputMode = iota
	inputFilter
	inputSearch
)

// pageSizes are the sizes cycled by + and -.
var pageSizes = []int{10, 25, 50, 100}

// tableView hosts one engine. Engine snapshots arrive on arbitrary
// goroutines; only the newest is kept and handed to the event loop by
// waitForState.
type tableView struct {
	info        client.TableSummary
	engine      *grid.Engine
	history     *grid.MemoryHistory
	unsubscribe func()

	mu      sync.Mutex
	latest  grid.State
	updates chan struct{}
	done    chan struct{}

	state grid.State
	col   int
	row   int
	input inputMode
}

func newTableView(info client.TableSummary, engine *grid.Engine, history *grid.MemoryHistory) *tableView {
	v := &tableView{
		info:    info,
		engine:  engine,
		history: history,
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
		state:   engine.State(),
	}
	v.latest = v.state
	v.unsubscribe = engine.Subscribe(v.receive)
	return v
}

// receive runs on engine goroutines and must not block.
func (v *tableView) receive(st grid.State) {
	v.mu.Lock()
	if st.Version > v.latest.Version {
		v.latest = st
	}
	v.mu.Unlock()

	select {
	case v.updates <- struct{}{}:
	default:
	}
}

func (v *tableView) waitForState() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-v.updates:
		case <-v.done:
			return nil
		}
		v.mu.Lock()
		st := v.latest
		v.mu.Unlock()
		return stateMsg{view: v, state: st}
	}
}

func (v *tableView) apply(st grid.State) {
	if st.Version < v.state.Version {
		return
	}
	v.state = st
	if v.row >= len(st.Data) {
		v.row = max(len(st.Data)-1, 0)
	}
}

func (v *tableView) close() {
	v.unsubscribe()
	v.engine.Close()
	close(v.done)
}

// checkpoint starts a new history entry so back returns to the current view.
func (v *tableView) checkpoint() {
	v.history.Push(v.history.Query())
}

func (v *tableView) column() string {
	if len(v.info.Columns) == 0 {
		return ""
	}
	return v.info.Columns[v.col]
}

func (m *Model) updateTable(msg tea.KeyMsg) tea.Cmd {
	v := m.table
	if v.input != inputNone {
		v.updateInput(msg)
		return nil
	}

	st := v.state
	switch msg.String() {
	case "esc", "q":
		m.Close()
		m.status = ""
		return nil

	case "left", "h":
		if v.col > 0 {
			v.col--
		}
	case "right", "l":
		if v.col < len(v.info.Columns)-1 {
			v.col++
		}
	case "up", "k":
		if v.row > 0 {
			v.row--
		}
	case "down", "j":
		if v.row < len(st.Data)-1 {
			v.row++
		}

	case "n", "pgdown":
		if st.TotalPages == 0 || st.Page < st.TotalPages {
			v.checkpoint()
			v.engine.UpdatePagination(st.Page+1, 0)
		}
	case "p", "pgup":
		if st.Page > 1 {
			v.checkpoint()
			v.engine.UpdatePagination(st.Page-1, 0)
		}
	case "+", "-":
		if size := nextPageSize(st.PageSize, msg.String() == "+"); size != st.PageSize {
			v.checkpoint()
			v.engine.UpdatePagination(1, size)
		}

	case "s":
		v.checkpoint()
		v.engine.ToggleSort(v.column())
	case "f":
		v.checkpoint()
		v.input = inputFilter
	case "/":
		v.checkpoint()
		v.input = inputSearch
	case "c":
		v.checkpoint()
		v.engine.ClearFilters()

	case " ":
		if v.row < len(st.Data) {
			if id, ok := grid.RowID(st.Data[v.row]); ok {
				v.engine.SelectRow(id)
			}
		}
	case "a":
		v.engine.SelectAllRows()
	case "x":
		v.engine.ClearSelection()

	case "b", "[":
		if q, ok := v.history.Back(); ok {
			v.engine.Navigate(q)
		}
	case "]":
		if q, ok := v.history.Forward(); ok {
			v.engine.Navigate(q)
		}
	case "r":
		v.engine.Refetch()
	case "e":
		m.status = "exporting..."
		return m.exportCmd(v)
	}
	return nil
}

// updateInput edits the filter or search box. Every edit goes through the
// engine's debounced path; enter commits at once.
func (v *tableView) updateInput(msg tea.KeyMsg) {
	current := v.inputText()

	switch msg.Type {
	case tea.KeyEnter:
		v.engine.FlushInputs()
		v.input = inputNone
		return
	case tea.KeyEsc:
		v.input = inputNone
		return
	case tea.KeyBackspace:
		if current == "" {
			return
		}
		r := []rune(current)
		current = string(r[:len(r)-1])
	case tea.KeyRunes, tea.KeySpace:
		current += string(msg.Runes)
	default:
		return
	}

	if v.input == inputSearch {
		v.engine.UpdateGlobalSearch(current)
		return
	}
	v.engine.TypeFilter(v.column(), current)
}

// inputText is the visible value of the active input. It is read from the
// engine rather than the last delivered snapshot so fast typing is not lost.
func (v *tableView) inputText() string {
	st := v.engine.State()
	if v.input == inputSearch {
		return st.GlobalSearch
	}
	return st.LocalFilters[v.column()]
}

func nextPageSize(current int, up bool) int {
	for i, size := range pageSizes {
		if size != current {
			continue
		}
		if up && i < len(pageSizes)-1 {
			return pageSizes[i+1]
		}
		if !up && i > 0 {
			return pageSizes[i-1]
		}
		return current
	}
	if up {
		return pageSizes[len(pageSizes)-1]
	}
	return pageSizes[0]
}
