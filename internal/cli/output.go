package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

// orderedKeys are printed first, in this order, by WriteKeyValue
var orderedKeys = []string{
	"Name",
	"Version",
	"Description",
	"Authors",
	"Spin Version",
	"Trigger",
	"Base",
	"Origin",
}

// OutputFormat is the -o/--output flag value
type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
)

// validateOutputFormat rejects anything but table and json
func validateOutputFormat(format string) error {
	switch OutputFormat(format) {
	case OutputFormatTable, OutputFormatJSON:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (use table or json)", format)
	}
}

// DataWriter renders command results as aligned text or indented JSON
type DataWriter struct {
	output io.Writer
	format OutputFormat
}

// NewDataWriter creates a DataWriter; any format other than "json" is a table
func NewDataWriter(output io.Writer, format string) *DataWriter {
	dw := &DataWriter{output: output, format: OutputFormatTable}
	if OutputFormat(format) == OutputFormatJSON {
		dw.format = OutputFormatJSON
	}
	return dw
}

// IsJSON reports whether the writer emits JSON
func (dw *DataWriter) IsJSON() bool {
	return dw.format == OutputFormatJSON
}

// WriteKeyValue prints a titled block of key/value pairs. Empty values are
// skipped.
func (dw *DataWriter) WriteKeyValue(title string, data map[string]interface{}) error {
	if dw.IsJSON() {
		return dw.writeJSON(data)
	}

	if title != "" {
		_, _ = fmt.Fprintf(dw.output, "\n%s\n", title)
	}

	keys := make([]string, 0, len(data))
	seen := make(map[string]bool, len(orderedKeys))
	for _, key := range orderedKeys {
		seen[key] = true
		if _, ok := data[key]; ok {
			keys = append(keys, key)
		}
	}
	var rest []string
	for key := range data {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	return dw.tabulate(func(w io.Writer) {
		for _, key := range keys {
			if value := data[key]; value != nil && value != "" {
				_, _ = fmt.Fprintf(w, "  %s:\t%v\t\n", key, value)
			}
		}
	})
}

// WriteTable prints rows under headers. As JSON each row becomes an object
// keyed by header.
func (dw *DataWriter) WriteTable(headers []string, rows [][]string) error {
	if dw.IsJSON() {
		objects := make([]map[string]string, 0, len(rows))
		for _, row := range rows {
			obj := make(map[string]string, len(headers))
			for i, header := range headers {
				if i < len(row) {
					obj[header] = row[i]
				}
			}
			objects = append(objects, obj)
		}
		return dw.writeJSON(objects)
	}

	_, _ = fmt.Fprintln(dw.output)
	return dw.tabulate(func(w io.Writer) {
		_, _ = fmt.Fprintf(w, "%s\t\n", strings.Join(headers, "\t"))
		for _, row := range rows {
			_, _ = fmt.Fprintf(w, "%s\t\n", strings.Join(row, "\t"))
		}
	})
}

// WriteStruct encodes data as JSON. Tables need WriteKeyValue or WriteTable.
func (dw *DataWriter) WriteStruct(data interface{}) error {
	if !dw.IsJSON() {
		return fmt.Errorf("table output needs key/value or row data, not %T", data)
	}
	return dw.writeJSON(data)
}

func (dw *DataWriter) writeJSON(data interface{}) error {
	enc := json.NewEncoder(dw.output)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (dw *DataWriter) tabulate(fill func(w io.Writer)) error {
	w := tabwriter.NewWriter(dw.output, 0, 0, 2, ' ', 0)
	fill(w)
	if err := w.Flush(); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(dw.output)
	return nil
}

// TableBuilder collects rows for WriteTable
type TableBuilder struct {
	headers []string
	rows    [][]string
}

func NewTableBuilder(headers ...string) *TableBuilder {
	return &TableBuilder{headers: headers}
}

func (tb *TableBuilder) AddRow(values ...string) *TableBuilder {
	tb.rows = append(tb.rows, values)
	return tb
}

func (tb *TableBuilder) Write(dw *DataWriter) error {
	return dw.WriteTable(tb.headers, tb.rows)
}

// KeyValueBuilder collects pairs for WriteKeyValue
type KeyValueBuilder struct {
	title string
	data  map[string]interface{}
}

func NewKeyValueBuilder(title string) *KeyValueBuilder {
	return &KeyValueBuilder{title: title, data: make(map[string]interface{})}
}

func (kvb *KeyValueBuilder) Add(key string, value interface{}) *KeyValueBuilder {
	kvb.data[key] = value
	return kvb
}

// AddIf adds the pair only when condition holds
func (kvb *KeyValueBuilder) AddIf(condition bool, key string, value interface{}) *KeyValueBuilder {
	if condition {
		kvb.data[key] = value
	}
	return kvb
}

func (kvb *KeyValueBuilder) Write(dw *DataWriter) error {
	return dw.WriteKeyValue(kvb.title, kvb.data)
}
