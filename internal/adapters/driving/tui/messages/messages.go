// Package messages defines the Bubbletea messages of the progress view.
package messages

import (
	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

// ProgressReceived carries one stage or agent transition.
type ProgressReceived struct {
	Event domain.ProgressEvent
}

// AnalysisFinished is sent once the batch has returned.
// Report is nil when Err is a fatal batch error.
type AnalysisFinished struct {
	Report *domain.FinalReport
	Err    error
}
