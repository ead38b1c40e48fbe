package application

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JonMunkholm/tableview/internal/grid"
)

const maxCellWidth = 24

func (m *Model) View() string {
	var b strings.Builder

	if m.table != nil {
		m.table.render(&b)
	} else {
		m.renderMenu(&b)
	}

	if m.err != "" {
		fmt.Fprintf(&b, "\nError: %s\n", m.err)
	}
	if m.status != "" {
		fmt.Fprintf(&b, "\n%s\n", m.status)
	}
	return b.String()
}

func (m *Model) renderMenu(b *strings.Builder) {
	if m.menu == nil {
		b.WriteString("Table browser\n")
		return
	}

	fmt.Fprintf(b, "%s\n\n", m.menu.Title)
	for i, item := range m.menu.Items {
		cursor := "  "
		if i == m.menu.Cursor {
			cursor = "> "
		}
		b.WriteString(cursor + item.Label + "\n")
	}
	b.WriteString("\n↑/↓ move • enter select • esc back • q quit\n")
}

func (v *tableView) render(b *strings.Builder) {
	st := v.state

	fmt.Fprintf(b, "%s", v.info.Label)
	if st.Loading {
		b.WriteString("  (loading)")
	} else if st.FromCache {
		b.WriteString("  (cached)")
	}
	b.WriteString("\n")

	switch v.input {
	case inputFilter:
		fmt.Fprintf(b, "filter %s: %s_\n", v.column(), st.LocalFilters[v.column()])
	case inputSearch:
		fmt.Fprintf(b, "search: %s_\n", st.GlobalSearch)
	default:
		b.WriteString(describeView(st) + "\n")
	}
	b.WriteString("\n")

	if st.Error != "" {
		fmt.Fprintf(b, "%s\n", st.Error)
		b.WriteString("\nr retry • esc back\n")
		return
	}

	cols := v.info.Columns
	widths := columnWidths(cols, st.Data)
	selected := make(map[string]bool, len(st.SelectedRows))
	for _, id := range st.SelectedRows {
		selected[id] = true
	}

	b.WriteString("    ")
	for i, col := range cols {
		label := col
		if st.SortBy == col {
			label += sortMarker(st.SortDir)
		}
		if i == v.col {
			label = "[" + label + "]"
		}
		b.WriteString(pad(label, widths[i]+2) + " ")
	}
	b.WriteString("\n")

	for r, row := range st.Data {
		marker := "  "
		if r == v.row {
			marker = "> "
		}
		if id, ok := grid.RowID(row); ok && selected[id] {
			marker += "* "
		} else {
			marker += "  "
		}
		b.WriteString(marker)
		for i, col := range cols {
			b.WriteString(pad(cell(row[col]), widths[i]+2) + " ")
		}
		b.WriteString("\n")
	}
	if len(st.Data) == 0 && !st.Loading {
		b.WriteString("  no rows\n")
	}

	pages := max(st.TotalPages, 1)
	fmt.Fprintf(b, "\npage %d/%d • %d rows • %d per page • %d selected\n",
		st.Page, pages, st.Total, st.PageSize, len(st.SelectedRows))
	b.WriteString("n/p page • +/- size • s sort • f filter • / search • c clear • space/a/x select • e export • b/] history • r reload • esc back\n")
}

func describeView(st grid.State) string {
	var parts []string
	for _, field := range sortedKeys(st.Filters) {
		parts = append(parts, fmt.Sprintf("%s=%q", field, st.Filters[field]))
	}
	if st.Search != "" {
		parts = append(parts, fmt.Sprintf("search=%q", st.Search))
	}
	if len(parts) == 0 {
		return "no filters"
	}
	return strings.Join(parts, " ")
}

func sortMarker(dir grid.SortDirection) string {
	switch dir {
	case grid.SortAsc:
		return " ▲"
	case grid.SortDesc:
		return " ▼"
	}
	return ""
}

func columnWidths(cols []string, rows []grid.Row) []int {
	widths := make([]int, len(cols))
	for i, col := range cols {
		// room for the cursor brackets and sort marker
		widths[i] = len([]rune(col)) + 4
		for _, row := range rows {
			widths[i] = max(widths[i], len([]rune(cell(row[col]))))
		}
		widths[i] = min(widths[i], maxCellWidth)
	}
	return widths
}

func cell(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// pad truncates or right-pads s to width runes.
func pad(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-len(r))
}

func sortedKeys(f grid.Filters) []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
