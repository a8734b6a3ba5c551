package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/chukul/cloudview/internal"
	"github.com/chukul/cloudview/internal/resource"
)

// Output formats understood by renderInventory.
const (
	formatTable    = "table"
	formatJSON     = "json"
	formatCSV      = "csv"
	formatMarkdown = "md"
)

func parseCategories(names []string) ([]resource.Category, error) {
	if len(names) == 0 {
		return resource.Categories, nil
	}
	var out []resource.Category
	for _, name := range names {
		c, ok := lookupCategory(name)
		if !ok {
			return nil, fmt.Errorf("unknown category %q (want ec2, s3, rds or lambda)", name)
		}
		out = append(out, c)
	}
	return out, nil
}

func lookupCategory(name string) (resource.Category, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range resource.Categories {
		if c.String() == name {
			return c, true
		}
	}
	return 0, false
}

// parseFormat normalizes an --output value.
func parseFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case formatTable, formatJSON, formatCSV, formatMarkdown:
		return f, nil
	case "markdown":
		return formatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json, csv or md)", format)
	}
}

// renderInventory writes the non-empty groups of inv restricted to cats.
func renderInventory(w io.Writer, inv *resource.Inventory, cats []resource.Category, format string) error {
	format, err := parseFormat(format)
	if err != nil {
		return err
	}
	if format == formatJSON {
		return renderInventoryJSON(w, inv, cats)
	}

	rendered := 0
	for _, c := range cats {
		rows := inv.Rows(c)
		if len(rows) == 0 {
			continue
		}
		if rendered > 0 {
			_, _ = fmt.Fprintln(w)
		}
		renderGroup(w, c, rows, format)
		rendered++
	}
	if rendered == 0 {
		_, _ = fmt.Fprintln(w, "No resources found.")
	}
	return nil
}

func renderGroup(w io.Writer, c resource.Category, rows [][]string, format string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, 0, len(c.Columns()))
	for _, col := range c.Columns() {
		header = append(header, col)
	}
	t.AppendHeader(header)

	for _, r := range rows {
		row := make(table.Row, len(r))
		for i, cell := range r {
			row[i] = cell
		}
		// bucket dates stay RFC 3339 in machine formats
		if c == resource.CategoryBuckets && format == formatTable {
			row[1] = internal.FormatTimestamp(r[1])
		}
		t.AppendRow(row)
	}

	switch format {
	case formatCSV:
		t.RenderCSV()
	case formatMarkdown:
		_, _ = fmt.Fprintf(w, "### %s\n\n", c.Title())
		t.RenderMarkdown()
	default:
		t.SetTitle(fmt.Sprintf("%s (%d)", c.Title(), len(rows)))
		t.Render()
	}
}

func renderInventoryJSON(w io.Writer, inv *resource.Inventory, cats []resource.Category) error {
	out := &resource.Inventory{}
	if inv != nil {
		for _, c := range cats {
			switch c {
			case resource.CategoryCompute:
				out.Compute = inv.Compute
			case resource.CategoryBuckets:
				out.Buckets = inv.Buckets
			case resource.CategoryDatabases:
				out.Databases = inv.Databases
			case resource.CategoryFunctions:
				out.Functions = inv.Functions
			}
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Normalize())
}
