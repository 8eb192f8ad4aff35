package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/licita-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

// maxAlertsShown bounds the alert list of the summary.
const maxAlertsShown = 10

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printer writes plain text, or styled text on a terminal.
type printer struct {
	w      io.Writer
	st     *styles.Styles
	styled bool
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, st: styles.DefaultStyles(), styled: isTerminal(w)}
}

func (p *printer) render(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return s.Render(text)
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *printer) heading(text string) {
	p.printf("%s\n", p.render(p.st.Title, text))
}

func (p *printer) section(text string) {
	p.printf("\n%s\n", p.render(p.st.Subtitle, text))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func (p *printer) report(r *domain.FinalReport) {
	p.heading("Batch " + r.LoteID)
	p.printf("Status:     %s\n", r.Status)
	p.printf("Validation: %s\n", r.Validation.Status)
	if !r.FinishedAt.IsZero() {
		p.printf("Run time:   %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}

	if d, ok := r.Decision(); ok {
		p.decision(d)
	}

	p.section("Agents")
	for _, id := range domain.AgentExecutionOrder() {
		env, ok := r.Envelope(id)
		if !ok {
			continue
		}
		status := fmt.Sprintf("%-7s", env.Status)
		p.printf("  %s  %-22s %s  items=%-3d conf=%.2f  %dms\n",
			id.ReportKey(), id, p.render(p.st.AgentStatus(env.Status), status),
			env.Metadata.ItemsFound, env.Metadata.Confidence, env.Metadata.RunMs)
	}

	p.alerts(r)

	if env, ok := r.Envelope(domain.AgentReport); ok {
		if data, ok := env.Data.(domain.ReportData); ok && len(data.Answers) > 0 {
			p.section("Questions")
			for _, qa := range data.Answers {
				p.printf("  Q: %s\n", qa.Question)
				p.printf("  A: %s\n", qa.Answer.Value)
				if qa.Answer.Found {
					p.printf("     %s\n", p.render(p.st.Muted, cite(qa.Answer.Evidence)))
				}
			}
		}
	}

	if len(r.Warnings) > 0 {
		p.section("Warnings")
		for _, w := range r.Warnings {
			p.printf("  %s\n", p.render(p.st.Warning, w))
		}
	}
}

func (p *printer) decision(d domain.DecisionData) {
	var b strings.Builder
	fmt.Fprintf(&b, "Recommendation: %s\n", p.render(p.st.Recommendation(d.Recommendation), strings.ToUpper(string(d.Recommendation))))
	fmt.Fprintf(&b, "Overall risk:   %s", p.render(p.st.Severity(d.OverallSeverity), string(d.OverallSeverity)))
	for _, t := range d.Themes {
		mark := ""
		if t.Insufficient {
			mark = " (insufficient evidence)"
		}
		fmt.Fprintf(&b, "\n  %-11s %s%s", t.Theme, p.render(p.st.Severity(t.Severity), string(t.Severity)), mark)
	}
	if d.Justification != "" {
		fmt.Fprintf(&b, "\n\n%s", d.Justification)
	}
	if len(d.FlipConditions) > 0 {
		b.WriteString("\n\nWould flip if:")
		for _, c := range d.FlipConditions {
			fmt.Fprintf(&b, "\n  - %s", c)
		}
	}

	p.section("Decision")
	if p.styled {
		p.printf("%s\n", p.st.Box.Render(b.String()))
		return
	}
	p.printf("%s\n", b.String())
}

func (p *printer) alerts(r *domain.FinalReport) {
	var all []domain.Alert
	for _, id := range domain.AgentExecutionOrder() {
		if env, ok := r.Envelope(id); ok {
			all = append(all, env.Alerts...)
		}
	}
	if len(all) == 0 {
		return
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Severity.Rank() > all[j].Severity.Rank()
	})

	p.section(fmt.Sprintf("Alerts (%d)", len(all)))
	for i, a := range all {
		if i == maxAlertsShown {
			p.printf("  ... %d more\n", len(all)-maxAlertsShown)
			break
		}
		sev := fmt.Sprintf("%-6s", a.Severity)
		p.printf("  %s %s: %s\n", p.render(p.st.Severity(a.Severity), sev), a.Code, a.Message)
		if len(a.Evidence) > 0 && !a.Evidence[0].IsNoData() {
			p.printf("         %s\n", p.render(p.st.Muted, cite(a.Evidence[0])))
		}
	}
}

// cite formats evidence as `doc p.N L10-12 "excerpt"`.
func cite(ev domain.Evidence) string {
	lines := fmt.Sprintf("L%d", ev.LineRange.Start)
	if ev.LineRange.End > ev.LineRange.Start {
		lines = fmt.Sprintf("L%d-%d", ev.LineRange.Start, ev.LineRange.End)
	}
	excerpt := ev.LiteralExcerpt
	if r := []rune(excerpt); len(r) > 80 {
		excerpt = string(r[:77]) + "..."
	}
	return fmt.Sprintf("%s p.%d %s %q", ev.DocumentName, ev.Page, lines, excerpt)
}

func (p *printer) validation(res *domain.PipelineResult) {
	v := res.Validation
	style := p.st.Success
	switch v.Status {
	case domain.ValidationWarning:
		style = p.st.Warning
	case domain.ValidationError:
		style = p.st.Error
	}
	p.printf("Validation: %s\n", p.render(style, string(v.Status)))
	for _, e := range v.Errors {
		p.printf("  error:   %s\n", p.render(p.st.Error, e))
	}
	for _, w := range v.Warnings {
		p.printf("  warning: %s\n", p.render(p.st.Warning, w))
	}

	if c := res.Corpus; c != nil {
		p.section("Corpus")
		p.printf("  Documents: %d  Lines: %d  OCR avg: %.1f (min %.1f, max %.1f)\n",
			c.Metadata.TotalDocuments, c.Metadata.TotalLines,
			c.Metadata.OCRQualityGlobal, c.Metadata.OCRQualityMin, c.Metadata.OCRQualityMax)
		for _, s := range c.Segments {
			p.printf("  L%-5d-%-5d %-22s %s\n", s.GlobalLineRange.Start, s.GlobalLineRange.End, s.Type, s.Filename)
		}
	}
	if len(res.Removed) > 0 {
		p.section("Removed duplicates")
		for _, r := range res.Removed {
			p.printf("  %s (%s of %s)\n", r.Filename, r.Reason, r.KeptFilename)
		}
	}
	if len(res.Warnings) > 0 {
		p.section("Warnings")
		for _, w := range res.Warnings {
			p.printf("  %s\n", p.render(p.st.Warning, w))
		}
	}
}

func (p *printer) batches(records []domain.BatchRecord) {
	if len(records) == 0 {
		p.printf("No batches stored.\n")
		return
	}
	p.printf("%-38s %-24s %-8s %5s %6s %4s  %s\n", "ID", "STATUS", "DECISION", "DOCS", "LINES", "DUP", "CREATED")
	for _, b := range records {
		decision := string(b.Recommendation)
		if decision == "" {
			decision = "-"
		}
		p.printf("%-38s %-24s %-8s %5d %6d %4d  %s\n",
			b.ID, b.Status, decision, b.TotalDocuments, b.TotalLines, b.DuplicatesRemoved,
			b.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
}

func (p *printer) line(l *domain.LineLookup) {
	p.printf("%s L%d  %s (%s) page %d, line %d, chars %d-%d\n",
		l.BatchID, l.Line.LineNumber, l.DocumentName, l.DocumentType,
		l.Line.SourcePage, l.Line.LocalLineInPage, l.Line.CharStart, l.Line.CharEnd)
	p.printf("%s\n", l.Line.Text)
}
