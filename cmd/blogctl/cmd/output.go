package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func validateFormat(f string) error {
	switch f {
	case formatTable, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", f)
	}
}

// table is the tabular rendering of a value: a header and one row per item.
type table struct {
	header []string
	rows   [][]string
	footer string
}

type printer struct {
	w      io.Writer
	format string
}

// print writes v as JSON or YAML, or t as an aligned table.
func (p printer) print(v any, t table) error {
	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		return p.yaml(v)
	default:
		return p.table(t)
	}
}

// yaml goes through JSON first so keys match the API field names.
func (p printer) yaml(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func (p printer) table(t table) error {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	if len(t.header) > 0 {
		fmt.Fprintln(tw, strings.ToUpper(strings.Join(t.header, "\t")))
	}
	for _, row := range t.rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if t.footer != "" {
		fmt.Fprintln(p.w, t.footer)
	}
	return nil
}

// message prints a plain confirmation line in table mode and a status object
// otherwise.
func (p printer) message(text string, v any) error {
	if p.format == formatTable {
		_, err := fmt.Fprintln(p.w, text)
		return err
	}
	return p.print(v, table{})
}
