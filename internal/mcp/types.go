package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// JSON-RPC 2.0 types

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"` // can be string, number, or null
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Standard JSON-RPC error codes
const (
	ErrCodeParse          = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603
)

// MCP Protocol types

// InitializeParams is sent by the client during handshake.
type InitializeParams struct {
	ProtocolVersion string     `json:"protocolVersion"`
	Capabilities    any        `json:"capabilities"`
	ClientInfo      ClientInfo `json:"clientInfo"`
}

type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// InitializeResult is returned to the client.
type InitializeResult struct {
	ProtocolVersion string           `json:"protocolVersion"`
	Capabilities    ServerCapability `json:"capabilities"`
	ServerInfo      ServerInfo       `json:"serverInfo"`
}

type ServerCapability struct {
	Tools     *ToolsCapability     `json:"tools,omitempty"`
	Prompts   *PromptsCapability   `json:"prompts,omitempty"`
	Resources *ResourcesCapability `json:"resources,omitempty"`
}

type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type PromptsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type ResourcesCapability struct {
	Subscribe   bool `json:"subscribe,omitempty"`
	ListChanged bool `json:"listChanged,omitempty"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// --- Tools ---

// ToolsListResult is returned for tools/list.
type ToolsListResult struct {
	Tools []ToolDefinition `json:"tools"`
}

type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ToolsCallParams is received for tools/call.
type ToolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolsCallResult is returned for tools/call.
type ToolsCallResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// TextContent creates a text content block.
func TextContent(text string) ContentBlock {
	return ContentBlock{Type: "text", Text: text}
}

// ErrorResult creates an error tool result from a bare message.
func ErrorResult(msg string) *ToolsCallResult {
	return &ToolsCallResult{
		Content: []ContentBlock{TextContent(msg)},
		IsError: true,
	}
}

// ErrorPayload is the structured error shape every musemcp tool returns on
// failure. Kind is one of the wire-level error kind constants below.
// Internal errors carry an opaque trace id so bug reports can be correlated
// with server logs.
type ErrorPayload struct {
	Kind       string `json:"error"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	TraceID    string `json:"trace_id,omitempty"`
}

// Wire-level error kinds.
const (
	ErrInvalidInput    = "invalid_input"
	ErrMissingName     = "missing_name"
	ErrNoCharacters    = "character_detection_failed"
	ErrWikiUnavailable = "wiki_unavailable"
	ErrParseFailure    = "parse_failure"
	ErrRefreshFailed   = "refresh_failed"
	ErrCancelled       = "cancelled"
	ErrTimeout         = "timeout"
	ErrInternal        = "internal"
)

// ToolError creates a structured error tool result. The payload is serialized
// as JSON so clients can pattern-match on the error kind.
func ToolError(kind, message string, opts ...func(*ErrorPayload)) *ToolsCallResult {
	p := ErrorPayload{Kind: kind, Message: message}
	if kind == ErrInternal {
		p.TraceID = uuid.NewString()
	}
	for _, opt := range opts {
		opt(&p)
	}
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return ErrorResult(message)
	}
	return &ToolsCallResult{
		Content: []ContentBlock{TextContent(string(b))},
		IsError: true,
	}
}

// WithDetails attaches structured details to a ToolError payload.
func WithDetails(details any) func(*ErrorPayload) {
	return func(p *ErrorPayload) { p.Details = details }
}

// WithSuggestion attaches a remediation hint to a ToolError payload.
func WithSuggestion(s string) func(*ErrorPayload) {
	return func(p *ErrorPayload) { p.Suggestion = s }
}

// JSONResult marshals v as indented JSON and wraps it in a ToolsCallResult.
func JSONResult(v any) (*ToolsCallResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &ToolsCallResult{
		Content: []ContentBlock{TextContent(string(b))},
	}, nil
}

// --- Prompts ---

// PromptsListResult is returned for prompts/list.
type PromptsListResult struct {
	Prompts []PromptDefinition `json:"prompts"`
}

// PromptDefinition describes a prompt available from the server.
type PromptDefinition struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// PromptArgument describes a parameter a prompt accepts.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// PromptsGetParams is received for prompts/get.
type PromptsGetParams struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

// PromptsGetResult is returned for prompts/get.
type PromptsGetResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

// PromptMessage is a single message in a prompt response.
type PromptMessage struct {
	Role    string       `json:"role"`
	Content ContentBlock `json:"content"`
}

// --- Resources ---

// ResourcesListResult is returned for resources/list.
type ResourcesListResult struct {
	Resources []ResourceDefinition `json:"resources"`
}

// ResourceDefinition describes a resource available from the server.
type ResourceDefinition struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourcesReadParams is received for resources/read.
type ResourcesReadParams struct {
	URI string `json:"uri"`
}

// ResourcesReadResult is returned for resources/read.
type ResourcesReadResult struct {
	Contents []ResourceContent `json:"contents"`
}

// ResourceContent is a single content item in a resource response.
type ResourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
}
