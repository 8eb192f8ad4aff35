package driven

import (
	"io"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

// ReportExporter writes a final report in one output format.
type ReportExporter interface {
	// Format is the name used on the command line ("json", "xlsx").
	Format() string

	// Export writes the report. The corpus may be nil.
	Export(w io.Writer, report *domain.FinalReport, corpus *domain.CanonicalCorpus) error
}
