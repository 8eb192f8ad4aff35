package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driven"
)

// Ensure XLSX implements the interface.
var _ driven.ReportExporter = XLSX{}

// Sheet names, in workbook order.
const (
	SheetSummary   = "Summary"
	SheetAlerts    = "Alerts"
	SheetEvidence  = "Evidence"
	SheetItems     = "Items"
	SheetDocuments = "Documents"
	SheetTimeline  = "Timeline"
)

// maxCell keeps excerpts under the Excel cell limit with room to spare.
const maxCell = 4000

// XLSX writes a review workbook with one sheet per concern.
type XLSX struct{}

// Format implements driven.ReportExporter.
func (XLSX) Format() string { return "xlsx" }

// sheet appends rows to one worksheet.
type sheet struct {
	f    *excelize.File
	name string
	row  int
	err  error
}

func (s *sheet) write(values ...any) {
	if s.err != nil {
		return
	}
	s.row++
	cell, _ := excelize.CoordinatesToCellName(1, s.row)
	s.err = s.f.SetSheetRow(s.name, cell, &values)
}

// header writes a bold, frozen first row and sets column widths.
func (s *sheet) header(bold int, widths []float64, titles ...string) {
	values := make([]any, len(titles))
	for i, t := range titles {
		values[i] = t
	}
	s.write(values...)
	if s.err != nil {
		return
	}
	if err := s.f.SetRowStyle(s.name, 1, 1, bold); err != nil {
		s.err = err
		return
	}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = s.f.SetColWidth(s.name, col, col, w)
	}
	s.err = s.f.SetPanes(s.name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// Export implements driven.ReportExporter.
func (XLSX) Export(w io.Writer, report *domain.FinalReport, corpus *domain.CanonicalCorpus) error {
	if report == nil {
		return fmt.Errorf("%w: nil report", domain.ErrInvalidInput)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	for _, name := range []string{SheetAlerts, SheetEvidence, SheetItems, SheetDocuments, SheetTimeline} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}

	writers := []func(*sheet, *domain.FinalReport, *domain.CanonicalCorpus, int){
		writeSummary, writeAlerts, writeEvidence, writeItems, writeDocuments, writeTimeline,
	}
	names := []string{SheetSummary, SheetAlerts, SheetEvidence, SheetItems, SheetDocuments, SheetTimeline}
	for i, fn := range writers {
		s := &sheet{f: f, name: names[i]}
		fn(s, report, corpus, bold)
		if s.err != nil {
			return fmt.Errorf("xlsx %s: %w", names[i], s.err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func writeSummary(s *sheet, r *domain.FinalReport, c *domain.CanonicalCorpus, bold int) {
	s.header(bold, []float64{22, 60}, "Field", "Value")

	s.write("Batch", r.LoteID)
	s.write("Status", string(r.Status))
	if d, ok := r.Decision(); ok {
		s.write("Recommendation", string(d.Recommendation))
		s.write("Overall severity", string(d.OverallSeverity))
		s.write("Justification", truncate(d.Justification, maxCell))
		for _, cond := range d.FlipConditions {
			s.write("Flip condition", cond)
		}
	} else {
		s.write("Recommendation", domain.NoDataFound)
	}
	s.write("Validation", string(r.Validation.Status))
	for _, warn := range r.Warnings {
		s.write("Warning", warn)
	}
	s.write("Started", formatTime(r.StartedAt))
	s.write("Finished", formatTime(r.FinishedAt))
	if c != nil {
		s.write("Documents", c.Metadata.TotalDocuments)
		s.write("Lines", c.Metadata.TotalLines)
		s.write("OCR quality", c.Metadata.OCRQualityGlobal)
	}

	s.write()
	s.write("Agent", "Name", "Status", "Alerts", "Evidence", "Confidence", "Run ms")
	for _, id := range domain.AgentExecutionOrder() {
		env, ok := r.Envelope(id)
		if !ok {
			s.write(id.ReportKey(), string(id), "missing")
			continue
		}
		s.write(id.ReportKey(), string(id), string(env.Status), len(env.Alerts),
			len(env.Evidence), env.Metadata.Confidence, env.Metadata.RunMs)
	}
}

func writeAlerts(s *sheet, r *domain.FinalReport, _ *domain.CanonicalCorpus, bold int) {
	s.header(bold, []float64{10, 24, 12, 10, 60, 24, 8, 12, 60},
		"Agent", "Code", "Theme", "Severity", "Message", "Document", "Page", "Lines", "Excerpt")

	for _, id := range domain.AgentExecutionOrder() {
		env, ok := r.Envelope(id)
		if !ok {
			continue
		}
		for _, a := range env.Alerts {
			ev := domain.MissingEvidence("", "")
			if len(a.Evidence) > 0 {
				ev = a.Evidence[0]
			}
			s.write(id.ReportKey(), a.Code, string(a.Theme), string(a.Severity), a.Message,
				ev.DocumentName, ev.Page, lineRange(ev.LineRange), truncate(ev.LiteralExcerpt, maxCell))
		}
	}
}

func writeEvidence(s *sheet, r *domain.FinalReport, _ *domain.CanonicalCorpus, bold int) {
	s.header(bold, []float64{10, 24, 24, 8, 10, 10, 80, 10},
		"Agent", "Field", "Document", "Page", "Line start", "Line end", "Excerpt", "Confidence")

	for _, id := range domain.AgentExecutionOrder() {
		env, ok := r.Envelope(id)
		if !ok {
			continue
		}
		for _, ev := range env.Evidence {
			s.write(id.ReportKey(), ev.Field, ev.DocumentName, ev.Page, ev.LineRange.Start,
				ev.LineRange.End, truncate(ev.LiteralExcerpt, maxCell), ev.Confidence)
		}
	}
}

func writeItems(s *sheet, r *domain.FinalReport, _ *domain.CanonicalCorpus, bold int) {
	s.header(bold, []float64{8, 8, 60, 8, 10, 14, 14, 12, 30},
		"Lot", "Item", "Description", "Unit", "Quantity", "Unit price", "Total", "Category", "Documents")

	env, ok := r.Envelope(domain.AgentItems)
	if !ok {
		return
	}
	data, ok := env.Data.(domain.ItemsData)
	if !ok {
		return
	}
	for _, it := range data.Items {
		var total any = ""
		if it.Quantity.Found && it.UnitPrice.Found {
			total = it.Quantity.Value * it.UnitPrice.Value
		}
		docs := make([]string, 0, len(it.Occurrences))
		for _, o := range it.Occurrences {
			docs = append(docs, o.DocumentName)
		}
		s.write(it.Lot, findingText(it.Number), truncate(findingText(it.Description), maxCell),
			findingText(it.Unit), findingNumber(it.Quantity), findingNumber(it.UnitPrice),
			total, it.Category, strings.Join(docs, ", "))
	}
	if data.PricedItems > 0 {
		s.write("", "", "Estimated total", "", "", "", data.EstimatedTotal)
	}
}

func writeDocuments(s *sheet, r *domain.FinalReport, c *domain.CanonicalCorpus, bold int) {
	s.header(bold, []float64{36, 22, 12, 12, 12, 36, 12},
		"Document", "Type", "First line", "Last line", "OCR quality", "Removed as duplicate of", "Similarity")

	if c != nil {
		for _, seg := range c.Segments {
			s.write(seg.Filename, string(seg.Type), seg.GlobalLineRange.Start,
				seg.GlobalLineRange.End, seg.OCRQualityAvg)
		}
		for _, rm := range c.Metadata.DuplicatesRemoved {
			s.write(rm.Filename, "", "", "", "", rm.KeptFilename, rm.Similarity)
		}
		return
	}

	env, ok := r.Envelope(domain.AgentReport)
	if !ok {
		return
	}
	data, ok := env.Data.(domain.ReportData)
	if !ok {
		return
	}
	for _, d := range data.Documents {
		s.write(d.Filename, string(d.Type), d.Lines.Start, d.Lines.End, d.OCRQuality)
	}
	for _, rm := range data.Removed {
		s.write(rm.Filename, "", "", "", "", rm.KeptFilename, rm.Similarity)
	}
}

func writeTimeline(s *sheet, r *domain.FinalReport, _ *domain.CanonicalCorpus, bold int) {
	s.header(bold, []float64{26, 8, 14, 80}, "At", "Level", "Stage", "Message")
	for _, e := range r.Timeline {
		s.write(formatTime(e.At), e.Level, e.Stage, truncate(e.Message, maxCell))
	}
}

func findingText(f domain.Finding[string]) string {
	if !f.Found {
		return domain.NoDataFound
	}
	return f.Value
}

func findingNumber(f domain.Finding[float64]) any {
	if !f.Found {
		return domain.NoDataFound
	}
	return f.Value
}

func lineRange(r domain.LineRange) string {
	if r.Start == 0 {
		return ""
	}
	if r.End <= r.Start {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
