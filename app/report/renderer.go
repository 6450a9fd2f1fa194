package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/lysyi3m/topic-comb/app/database"
)

const (
	FormatMarkdown = "markdown"
	FormatTable    = "table"
	FormatCSV      = "csv"
)

// Render writes result to w in the given format.
func Render(w io.Writer, result *database.QueryResult, format string) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	keepCase(t)

	header := make(table.Row, len(result.Columns))
	for i, column := range result.Columns {
		header[i] = column
	}
	t.AppendHeader(header)

	for _, values := range result.Rows {
		row := make(table.Row, len(values))
		for i, value := range values {
			if value == nil {
				value = "NULL"
			}
			row[i] = value
		}
		t.AppendRow(row)
	}

	switch format {
	case FormatMarkdown, "":
		t.RenderMarkdown()
	case FormatCSV:
		t.RenderCSV()
	case FormatTable:
		t.SetStyle(table.StyleRounded)
		keepCase(t)
		t.AppendFooter(table.Row{fmt.Sprintf("%d rows", len(result.Rows))})
		t.Render()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}

	return nil
}

func keepCase(t table.Writer) {
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
}
