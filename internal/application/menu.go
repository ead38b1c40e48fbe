package application

import (
	"sort"

	"github.com/JonMunkholm/tableview/internal/client"
	tea "github.com/charmbracelet/bubbletea"
)

/* ----------------------------------------
	MENU TREE
---------------------------------------- */

type MenuItem struct {
	Label   string
	Submenu *Menu
	Action  func() tea.Cmd
}

type Menu struct {
	Title  string
	Items  []MenuItem
	Parent *Menu
	Cursor int
}

// linkParents points every "Back" item at its parent menu.
func linkParents(menu *Menu, parent *Menu) {
	menu.Parent = parent

	for i := range menu.Items {
		item := &menu.Items[i]

		if item.Label == "Back" {
			item.Submenu = parent
			continue
		}

		if item.Submenu != nil {
			linkParents(item.Submenu, menu)
		}
	}
}

/* ----------------------------------------
	MENU TREE DEFINITION
---------------------------------------- */

// buildMenuTree groups tables into one submenu per group.
func buildMenuTree(tables []client.TableSummary, open func(client.TableSummary) tea.Cmd) *Menu {
	groups := map[string][]client.TableSummary{}
	for _, t := range tables {
		groups[t.Group] = append(groups[t.Group], t)
	}

	names := make([]string, 0, len(groups))
	for g := range groups {
		names = append(names, g)
	}
	sort.Strings(names)

	root := &Menu{Title: "Tables"}
	for _, g := range names {
		root.Items = append(root.Items, MenuItem{
			Label:   g + " ->",
			Submenu: loadGroupMenu(g, groups[g], open),
		})
	}
	root.Items = append(root.Items, MenuItem{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }})

	linkParents(root, nil)
	return root
}

/* ----------------------------------------
	LOAD MENUS
---------------------------------------- */

func loadGroupMenu(group string, tables []client.TableSummary, open func(client.TableSummary) tea.Cmd) *Menu {
	sort.Slice(tables, func(i, j int) bool { return tables[i].Label < tables[j].Label })

	menu := &Menu{Title: group}
	for _, t := range tables {
		t := t
		menu.Items = append(menu.Items, MenuItem{
			Label:  t.Label,
			Action: func() tea.Cmd { return open(t) },
		})
	}
	menu.Items = append(menu.Items, MenuItem{Label: "Back"})
	return menu
}
