// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package presenter

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/datarest/datarest/api/hal"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Print writes a line to the command's output stream.
func Print(cmd *cobra.Command, args ...any) {
	fmt.Fprintln(cmd.OutOrStdout(), args...)
}

// Printf writes formatted output to the command's output stream.
func Printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

// Error writes a line to the command's error stream.
func Error(cmd *cobra.Command, args ...any) {
	fmt.Fprintln(cmd.ErrOrStderr(), args...)
}

// JSON writes a value as indented JSON.
func JSON(cmd *cobra.Command, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	Print(cmd, string(data))

	return nil
}

// Table creates a table writer bound to the command's output.
func Table(cmd *cobra.Command) table.Writer {
	writer := table.NewWriter()
	writer.SetOutputMirror(cmd.OutOrStdout())
	writer.SetStyle(table.StyleLight)

	return writer
}

// RecordTable renders the embedded records of a listing as a table.
// Without explicit fields the columns cover every document field seen
// on the page, in name order.
func RecordTable(cmd *cobra.Command, coll *hal.CollectionResource, fields []string) {
	if len(fields) == 0 {
		fields = collectFields(coll)
	}

	caser := cases.Title(language.English)

	header := table.Row{"ID"}
	for _, field := range fields {
		header = append(header, caser.String(strings.ReplaceAll(field, "_", " ")))
	}

	writer := Table(cmd)
	writer.AppendHeader(header)

	for _, item := range coll.Items {
		if item == nil {
			continue
		}

		doc, _ := item.Content.(map[string]any)

		row := table.Row{recordID(item)}

		for _, field := range fields {
			if value, ok := doc[field]; ok {
				row = append(row, fmt.Sprint(value))
			} else {
				row = append(row, "")
			}
		}

		writer.AppendRow(row)
	}

	if page := coll.Page; page != nil {
		writer.AppendFooter(table.Row{fmt.Sprintf("page %d of %d, %d records",
			page.Number+1, max(page.TotalPages, 1), page.TotalElements)})
	}

	writer.Render()
}

// collectFields gathers the document fields present on the page.
func collectFields(coll *hal.CollectionResource) []string {
	seen := map[string]bool{}

	for _, item := range coll.Items {
		if item == nil {
			continue
		}

		doc, ok := item.Content.(map[string]any)
		if !ok {
			continue
		}

		for field := range doc {
			seen[field] = true
		}
	}

	fields := make([]string, 0, len(seen))
	for field := range seen {
		fields = append(fields, field)
	}

	sort.Strings(fields)

	return fields
}

// recordID derives a record's id from its self link.
func recordID(res *hal.Resource) string {
	self, ok := res.Link(hal.RelSelf)
	if !ok {
		return ""
	}

	id, err := url.PathUnescape(path.Base(self.Href))
	if err != nil {
		return path.Base(self.Href)
	}

	return id
}
