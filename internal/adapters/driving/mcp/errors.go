// Package mcp exposes stored batches and the analysis pipeline over the
// Model Context Protocol, so assistants can cite corpus lines directly.
package mcp

import "errors"

// ErrMissingCorpusService is returned when the corpus service is not provided.
var ErrMissingCorpusService = errors.New("mcp: corpus service is required")
