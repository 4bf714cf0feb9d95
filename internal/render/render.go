package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Format represents an output format
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTSV   Format = "tsv"
)

// ParseFormat validates a user-supplied format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML, FormatTSV:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json, yaml or tsv)", s)
	}
}

// Options for rendering
type Options struct {
	Format    Format
	Porcelain bool
	Styles    *Styles
}

// Renderer handles output rendering
type Renderer struct {
	writer io.Writer
	opts   Options
}

// NewRenderer creates a new renderer
func NewRenderer(writer io.Writer, opts Options) *Renderer {
	if opts.Format == "" {
		opts.Format = FormatTable
	}
	return &Renderer{
		writer: writer,
		opts:   opts,
	}
}

// Format returns the configured format
func (r *Renderer) Format() Format {
	return r.opts.Format
}

// Styles returns the configured styles, plain when none were set
func (r *Renderer) Styles() Styles {
	if r.opts.Styles == nil {
		return PlainStyles()
	}
	return *r.opts.Styles
}

// Writer returns the underlying writer
func (r *Renderer) Writer() io.Writer {
	return r.writer
}

// Structured renders data as JSON or YAML, reporting false for other formats
func (r *Renderer) Structured(data interface{}) (bool, error) {
	switch r.opts.Format {
	case FormatJSON:
		return true, r.RenderJSON(data)
	case FormatYAML:
		return true, r.RenderYAML(data)
	}
	return false, nil
}

// RenderJSON renders data as JSON
func (r *Renderer) RenderJSON(data interface{}) error {
	encoder := json.NewEncoder(r.writer)
	if !r.opts.Porcelain {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// RenderYAML renders data as YAML
func (r *Renderer) RenderYAML(data interface{}) error {
	encoder := yaml.NewEncoder(r.writer)
	defer encoder.Close()
	return encoder.Encode(data)
}

// RenderTSV renders data as tab-separated values
func (r *Renderer) RenderTSV(headers []string, rows [][]string) error {
	if _, err := fmt.Fprintln(r.writer, strings.Join(headers, "\t")); err != nil {
		return err
	}

	for _, row := range rows {
		if _, err := fmt.Fprintln(r.writer, strings.Join(row, "\t")); err != nil {
			return err
		}
	}

	return nil
}

// RenderRows renders rows as a table or TSV depending on the format
func (r *Renderer) RenderRows(headers []string, rows [][]string) error {
	if r.opts.Format == FormatTSV {
		return r.RenderTSV(headers, rows)
	}
	return r.RenderTable(headers, rows)
}

// RenderTable renders data as a formatted table. Widths are measured in
// terminal cells so non-ASCII realm names line up.
func (r *Renderer) RenderTable(headers []string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	if !r.opts.Porcelain {
		r.renderTableRow(headers, widths, r.Styles().Header)
		r.renderTableSeparator(widths)
	} else {
		fmt.Fprintln(r.writer, strings.Join(headers, "\t"))
	}

	for _, row := range rows {
		if r.opts.Porcelain {
			fmt.Fprintln(r.writer, strings.Join(row, "\t"))
		} else {
			r.renderTableRow(row, widths, lipgloss.NewStyle())
		}
	}

	return nil
}

func (r *Renderer) renderTableRow(cells []string, widths []int, style lipgloss.Style) {
	for i, cell := range cells {
		if i < len(widths) {
			pad := widths[i] - lipgloss.Width(cell)
			fmt.Fprint(r.writer, style.Render(cell))
			if i < len(cells)-1 {
				fmt.Fprint(r.writer, strings.Repeat(" ", pad+2))
			}
		}
	}
	fmt.Fprintln(r.writer)
}

func (r *Renderer) renderTableSeparator(widths []int) {
	for i, width := range widths {
		fmt.Fprint(r.writer, strings.Repeat("-", width))
		if i < len(widths)-1 {
			fmt.Fprint(r.writer, "  ")
		}
	}
	fmt.Fprintln(r.writer)
}
