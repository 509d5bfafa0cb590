package display

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// ParamRow is one line of the parameter table.
type ParamRow struct {
	Name   string
	Type   string
	Access string
	Min    string
	Max    string
	Value  string
	Info   []string
}

var (
	tableHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#bbf7d0")).Padding(0, 1)
	tableCell   = lipgloss.NewStyle().Foreground(lipgloss.Color("#d4d4d8")).Padding(0, 1)
	tableDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("#71717a")).Padding(0, 1)
)

// RenderParamTable renders rows as a bordered table. Only the first line
// of Info is shown.
func RenderParamTable(rows []ParamRow) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#52525b"))).
		Headers("NAME", "TYPE", "ACCESS", "MIN", "MAX", "VALUE", "INFO").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeader
			case col == 6:
				return tableDim
			default:
				return tableCell
			}
		})

	for _, r := range rows {
		info := ""
		if len(r.Info) > 0 {
			info = strings.TrimSpace(r.Info[0])
		}
		t.Row(r.Name, r.Type, r.Access, r.Min, r.Max, r.Value, info)
	}
	return t.String()
}
