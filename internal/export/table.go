package export

import (
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/entity-resolver/internal/match"
)

// RenderEntities renders entities as a table. Styled output draws rounded
// borders; plain output is space-separated columns.
func RenderEntities(entities []match.Entity, styled bool) string {
	tw := table.NewWriter()
	if styled {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
		tw.Style().Options = table.Options{}
		tw.Style().Box.PaddingLeft = ""
		tw.Style().Box.PaddingRight = "  "
	}

	header := make(table.Row, len(EntityColumns))
	for i, col := range EntityColumns {
		header[i] = col
	}
	tw.AppendHeader(header)
	for _, e := range entities {
		tw.AppendRow(table.Row{e.EntityID, e.ID, e.Name, e.Address, strings.Join(e.Members, ", ")})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
