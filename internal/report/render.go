package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Bennylavaa/RealmPortal/internal/render"
)

var recordHeaders = []string{"SEQ", "ACTION", "PATH", "TARGET", "OUTCOME", "COUNT", "DETAIL"}

// Render writes the report in the renderer's format. Table output is a
// human-readable summary; TSV lists one record per line.
func Render(r *render.Renderer, rep *Report) error {
	if ok, err := r.Structured(rep); ok {
		return err
	}
	if r.Format() == render.FormatTSV {
		return r.RenderTSV(recordHeaders, rows(rep.Items))
	}
	return renderText(r, rep)
}

func renderText(r *render.Renderer, rep *Report) error {
	st := r.Styles()
	w := r.Writer()

	mode := string(rep.Mode)
	if rep.DryRun {
		mode += ", dry run"
	}
	fmt.Fprintln(w, st.Title.Render(fmt.Sprintf("Migration %s (%s)", rep.RunID, mode)))
	fmt.Fprintf(w, "source: %s\n", rep.Root)
	if rep.WorkRoot != rep.Root {
		fmt.Fprintf(w, "output: %s\n", rep.WorkRoot)
	}
	for _, m := range rep.Mappings.All() {
		fmt.Fprintf(w, "  %s\n", m)
	}
	fmt.Fprintln(w)

	for _, rec := range rep.Items {
		fmt.Fprintf(w, "%4d  %s  %s\n", rec.Seq, outcomeStyle(st, rec.Outcome).Render(fmt.Sprintf("%-18s", rec.Outcome)), describe(rec))
		if rec.Error != "" {
			fmt.Fprintf(w, "      %s\n", st.Failure.Render(rec.Error))
		}
		for _, c := range rec.Conflicts {
			fmt.Fprintf(w, "      %s\n", st.Warning.Render("conflict: "+c))
		}
		if rec.Diff != "" {
			for _, line := range strings.Split(strings.TrimRight(rec.Diff, "\n"), "\n") {
				fmt.Fprintf(w, "      %s\n", diffStyle(st, line).Render(line))
			}
		}
	}
	if len(rep.Items) > 0 {
		fmt.Fprintln(w)
	}

	c := rep.Totals
	summary := fmt.Sprintf("applied %d, merged %d, previewed %d, skipped %d, failed %d, conflicts %d",
		c.Applied, c.Merged, c.Previewed, c.Skipped, c.Failed, c.Conflicts)
	switch {
	case c.Failed > 0:
		summary = st.Failure.Render(summary)
	case c.Conflicts > 0:
		summary = st.Warning.Render(summary)
	default:
		summary = st.Success.Render(summary)
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}

func describe(rec Record) string {
	var b strings.Builder
	b.WriteString(rec.Action)
	b.WriteString(" ")
	b.WriteString(rec.Path)
	if rec.Target != "" && rec.Target != rec.Path {
		b.WriteString(" -> ")
		b.WriteString(rec.Target)
	}
	if rec.Count > 0 {
		fmt.Fprintf(&b, " (%d replacements)", rec.Count)
	}
	if rec.Detail != "" {
		fmt.Fprintf(&b, ": %s", rec.Detail)
	}
	return b.String()
}

func rows(records []Record) [][]string {
	out := make([][]string, 0, len(records))
	for _, rec := range records {
		out = append(out, []string{
			strconv.Itoa(rec.Seq),
			rec.Action,
			rec.Path,
			rec.Target,
			string(rec.Outcome),
			strconv.Itoa(rec.Count),
			rec.Detail,
		})
	}
	return out
}

func outcomeStyle(st render.Styles, o Outcome) lipgloss.Style {
	switch {
	case o == OutcomeFailed:
		return st.Failure
	case o == OutcomeSkippedConflict || o == OutcomeSkippedUnreadable || o == OutcomeSkipped:
		return st.Warning
	case o.IsSkip():
		return st.Muted
	default:
		return st.Success
	}
}

func diffStyle(st render.Styles, line string) lipgloss.Style {
	switch {
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"), strings.HasPrefix(line, "@@"):
		return st.Muted
	case strings.HasPrefix(line, "+"):
		return st.Success
	case strings.HasPrefix(line, "-"):
		return st.Failure
	}
	return st.Muted
}
