package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
)

// MarkdownWriter outputs reports as a Markdown document with a results
// table and a list of failed acquisitions
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write outputs the full report in Markdown format
func (w *MarkdownWriter) Write(r *Report) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("Ghosting Report")
	md.PlainText("")
	md.PlainTextf("Generated %s. Ghosting follows IPEM Report 112: 100 x (ghost - noise) / phantom.",
		r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	md.PlainText("")

	succeeded := r.Succeeded()
	failed := len(r.Entries) - len(succeeded)

	md.H2("Results")
	md.PlainText("")
	if len(succeeded) == 0 {
		md.PlainText("No acquisition produced a result.")
	} else {
		rows := make([][]string, 0, len(succeeded))
		for _, e := range succeeded {
			rows = append(rows, []string{
				"`" + e.Key + "`",
				e.PhaseEncoding,
				formatFloat(e.Ghosting, 3),
				formatFloat(e.PhantomMean, 1),
				formatFloat(e.GhostMean, 1),
				formatFloat(e.NoiseMean, 1),
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Acquisition", "PE", "Ghosting (%)", "Phantom", "Ghost", "Noise"},
			Rows:   rows,
		})
	}
	md.PlainText("")

	if failed > 0 {
		md.H2("Failures")
		md.PlainText("")
		md.Warningf("%d of %d acquisitions could not be analysed.", failed, len(r.Entries))
		md.PlainText("")
		var items []string
		for _, e := range r.Entries {
			if e.Failed() {
				items = append(items, e.Path+": "+e.Error)
			}
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	return md.Build()
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
