package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driven"
)

// DefaultOracleTimeout bounds a single oracle call.
const DefaultOracleTimeout = 30 * time.Second

// oracleMaxTokens caps the oracle reply; answers are short verbatim copies.
const oracleMaxTokens = 1024

// Ensure both oracles implement the interface.
var (
	_ driven.ExtractionOracle = (*ChatOracle)(nil)
	_ driven.ExtractionOracle = (*GuardedOracle)(nil)
)

// ChatOracle asks a chat-completions backend to copy fields out of a text.
// Replies are stripped of code fences and checked against a JSON schema
// generated for the requested fields.
type ChatOracle struct {
	client  driven.OracleClient
	prompts driven.PromptStore
}

// NewChatOracle creates an oracle over client.
func NewChatOracle(client driven.OracleClient, prompts driven.PromptStore) *ChatOracle {
	return &ChatOracle{client: client, prompts: prompts}
}

// Structure sends one request and parses the reply.
func (o *ChatOracle) Structure(ctx context.Context, req driven.OracleRequest) (map[string]string, error) {
	if o.client == nil {
		return nil, domain.ErrOracleUnavailable
	}
	if len(req.Fields) == 0 {
		return map[string]string{}, nil
	}

	system, err := o.prompts.Load(driven.PromptStructureSystem)
	if err != nil {
		return nil, fmt.Errorf("load system prompt: %w", err)
	}
	user, err := o.prompts.Load(driven.PromptStructureUser)
	if err != nil {
		return nil, fmt.Errorf("load user prompt: %w", err)
	}

	var fields strings.Builder
	for _, f := range req.Fields {
		fmt.Fprintf(&fields, "- %s: %s\n", f.Name, f.Description)
	}
	messages := []driven.ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: fmt.Sprintf(user, fields.String(), req.Context)},
	}

	reply, err := o.client.Chat(ctx, messages, driven.ChatOptions{MaxTokens: oracleMaxTokens, JSON: true})
	if err != nil {
		return nil, fmt.Errorf("oracle chat: %w", err)
	}
	return ParseOracleReply(reply, req.FieldNames())
}

// ParseOracleReply extracts the JSON object from a reply and validates it
// against a schema requiring every field as a string.
func ParseOracleReply(reply string, fields []string) (map[string]string, error) {
	raw := SanitizeJSON(reply)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object in reply", domain.ErrMalformedOracleResponse)
	}
	if err := validateReply(fieldSchema(fields), []byte(raw)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedOracleResponse, err)
	}

	var out map[string]string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedOracleResponse, err)
	}
	for _, f := range fields {
		if strings.TrimSpace(out[f]) == "" {
			out[f] = domain.NoDataFound
		}
	}
	return out, nil
}

// SanitizeJSON strips markdown code fences and any prose around the first
// JSON object. Returns "" if no object is present.
func SanitizeJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return ""
	}
	return strings.TrimSpace(s[start : end+1])
}

func fieldSchema(fields []string) map[string]any {
	props := make(map[string]any, len(fields))
	required := make([]string, 0, len(fields))
	for _, f := range fields {
		props[f] = map[string]any{"type": "string"}
		required = append(required, f)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": map[string]any{"type": "string"},
	}
}

func validateReply(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("oracle.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("oracle.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal reply: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("reply does not match schema: %w", err)
	}
	return nil
}

// GuardedOracle applies StructureWithFallback to every call.
// Its Structure never returns an error.
type GuardedOracle struct {
	inner   driven.ExtractionOracle
	timeout time.Duration
}

// NewGuardedOracle wraps inner. A non-positive timeout uses the default.
func NewGuardedOracle(inner driven.ExtractionOracle, timeout time.Duration) *GuardedOracle {
	if timeout <= 0 {
		timeout = DefaultOracleTimeout
	}
	return &GuardedOracle{inner: inner, timeout: timeout}
}

// Structure implements driven.ExtractionOracle.
func (g *GuardedOracle) Structure(ctx context.Context, req driven.OracleRequest) (map[string]string, error) {
	return StructureWithFallback(ctx, g.inner, req, g.timeout), nil
}

// StructureWithFallback calls the oracle under a timeout. On any failure,
// panic included, every requested field is NO DATA FOUND. Fields the
// oracle did not return are filled the same way.
func StructureWithFallback(ctx context.Context, oracle driven.ExtractionOracle, req driven.OracleRequest, timeout time.Duration) map[string]string {
	out := noData(req)
	if oracle == nil || len(req.Fields) == 0 {
		return out
	}
	if timeout <= 0 {
		timeout = DefaultOracleTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type reply struct {
		fields map[string]string
		err    error
	}
	done := make(chan reply, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- reply{err: fmt.Errorf("%w: panic: %v", domain.ErrMalformedOracleResponse, p)}
			}
		}()
		fields, err := oracle.Structure(ctx, req)
		done <- reply{fields: fields, err: err}
	}()

	var r reply
	select {
	case r = <-done:
		if r.err == nil && ctx.Err() != nil {
			r.err = ctx.Err()
		}
	case <-ctx.Done():
		r.err = ctx.Err()
	}
	if r.err != nil {
		if req.Log != nil && !errors.Is(r.err, domain.ErrOracleUnavailable) {
			req.Log.Warnf("oracle call failed, using %s: %v", domain.NoDataFound, r.err)
		}
		return out
	}
	for _, f := range req.Fields {
		if v, ok := r.fields[f.Name]; ok && strings.TrimSpace(v) != "" {
			out[f.Name] = v
		}
	}
	return out
}

func noData(req driven.OracleRequest) map[string]string {
	out := make(map[string]string, len(req.Fields))
	for _, f := range req.Fields {
		out[f.Name] = domain.NoDataFound
	}
	return out
}
