package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driving"
)

// defaultBatchLimit caps list_batches when no limit is given.
const defaultBatchLimit = 20

// AnalyzeInput is the input schema for the analyze_batch tool.
type AnalyzeInput struct {
	Paths     []string `json:"paths" jsonschema:"local files or directories making up the batch"`
	BatchID   string   `json:"batch_id,omitempty" jsonschema:"optional batch id; generated when empty"`
	Questions []string `json:"questions,omitempty" jsonschema:"questions answered from the corpus with evidence"`
}

// AnalyzeOutput summarises a finished batch.
type AnalyzeOutput struct {
	BatchID         string            `json:"batch_id"`
	Status          string            `json:"status"`
	Recommendation  string            `json:"recommendation,omitempty"`
	OverallSeverity string            `json:"overall_severity,omitempty"`
	Agents          map[string]string `json:"agents"`
	Alerts          int               `json:"alerts"`
	Warnings        []string          `json:"warnings,omitempty"`
}

// LineInput is the input schema for the get_line tool.
type LineInput struct {
	BatchID string `json:"batch_id" jsonschema:"the batch id"`
	Line    int    `json:"line" jsonschema:"1-based global line number"`
}

// LineOutput is a resolved corpus line.
type LineOutput struct {
	BatchID      string `json:"batch_id"`
	Line         int    `json:"line"`
	Text         string `json:"text"`
	DocumentName string `json:"document_name"`
	DocumentType string `json:"document_type"`
	Page         int    `json:"page"`
	LocalLine    int    `json:"local_line"`
	CharStart    int    `json:"char_start"`
	CharEnd      int    `json:"char_end"`
}

// ReportInput is the input schema for the get_report tool.
type ReportInput struct {
	BatchID string `json:"batch_id" jsonschema:"the batch id"`
}

// ListInput is the input schema for the list_batches tool.
type ListInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of batches to return (default 20)"`
}

// ListOutput is the output schema for the list_batches tool.
type ListOutput struct {
	Batches []BatchOutput `json:"batches"`
	Count   int           `json:"count"`
}

// BatchOutput is one stored batch.
type BatchOutput struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	CreatedAt         string `json:"created_at"`
	Documents         int    `json:"documents"`
	Lines             int    `json:"lines"`
	DuplicatesRemoved int    `json:"duplicates_removed"`
	Recommendation    string `json:"recommendation,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	if s.ports.canAnalyze() {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "analyze_batch",
			Description: "Fuse a batch of procurement documents and run the extraction agents",
		}, s.handleAnalyze)
	}
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_line",
		Description: "Resolve a global line number of a stored corpus to its text and source",
	}, s.handleGetLine)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_report",
		Description: "Return the stored final report of a batch as JSON",
	}, s.handleGetReport)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_batches",
		Description: "List stored batches, newest first",
	}, s.handleListBatches)
}

func (s *Server) handleAnalyze(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeInput,
) (*mcp.CallToolResult, AnalyzeOutput, error) {
	if !s.ports.canAnalyze() {
		return nil, AnalyzeOutput{}, errors.New("analysis is not available")
	}
	if len(input.Paths) == 0 {
		return nil, AnalyzeOutput{}, fmt.Errorf("%w: paths are required", domain.ErrInvalidInput)
	}

	docs, err := s.ports.Load(input.Paths...)
	if err != nil {
		return nil, AnalyzeOutput{}, fmt.Errorf("loading batch: %w", err)
	}
	report, err := s.ports.Analysis.Analyze(ctx, driving.AnalyzeRequest{
		BatchID:   input.BatchID,
		Documents: docs,
		Questions: input.Questions,
	})
	if err != nil {
		return nil, AnalyzeOutput{}, err
	}
	return nil, summarise(report), nil
}

func summarise(report *domain.FinalReport) AnalyzeOutput {
	out := AnalyzeOutput{
		BatchID:  report.LoteID,
		Status:   string(report.Status),
		Agents:   make(map[string]string, len(report.Agents)),
		Warnings: report.Warnings,
	}
	for key, env := range report.Agents {
		out.Agents[key] = string(env.Status)
		out.Alerts += len(env.Alerts)
	}
	if d, ok := report.Decision(); ok {
		out.Recommendation = string(d.Recommendation)
		out.OverallSeverity = string(d.OverallSeverity)
	}
	return out
}

func (s *Server) handleGetLine(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input LineInput,
) (*mcp.CallToolResult, LineOutput, error) {
	lookup, err := s.ports.Corpus.GetLine(ctx, input.BatchID, input.Line)
	if err != nil {
		return nil, LineOutput{}, err
	}
	l := lookup.Line
	return nil, LineOutput{
		BatchID:      lookup.BatchID,
		Line:         l.LineNumber,
		Text:         l.Text,
		DocumentName: lookup.DocumentName,
		DocumentType: string(lookup.DocumentType),
		Page:         l.SourcePage,
		LocalLine:    l.LocalLineInPage,
		CharStart:    l.CharStart,
		CharEnd:      l.CharEnd,
	}, nil
}

// handleGetReport returns the report as text; envelope payloads differ
// per agent, so no output schema is declared.
func (s *Server) handleGetReport(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReportInput,
) (*mcp.CallToolResult, any, error) {
	report, err := s.ports.Corpus.GetReport(ctx, input.BatchID)
	if err != nil {
		return nil, nil, err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("marshalling report: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

func (s *Server) handleListBatches(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListInput,
) (*mcp.CallToolResult, ListOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultBatchLimit
	}

	batches, err := s.ports.Corpus.ListBatches(ctx, limit)
	if err != nil {
		return nil, ListOutput{}, err
	}

	out := ListOutput{
		Batches: make([]BatchOutput, len(batches)),
		Count:   len(batches),
	}
	for i, b := range batches {
		out.Batches[i] = BatchOutput{
			ID:                b.ID,
			Status:            string(b.Status),
			CreatedAt:         b.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			Documents:         b.TotalDocuments,
			Lines:             b.TotalLines,
			DuplicatesRemoved: b.DuplicatesRemoved,
			Recommendation:    string(b.Recommendation),
		}
	}
	return nil, out, nil
}
