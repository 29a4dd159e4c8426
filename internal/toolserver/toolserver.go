// Package toolserver exposes the translation service as an MCP server.
//
// Two tools are registered: tech_translator, which explains a technical
// phrase, and validate, which lets the chat platform pair the server with
// its owner by returning the configured caller number. Both require the
// bearer token that the HTTP layer also checks.
package toolserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/techtranslator/internal/auth"
	"github.com/MrWong99/techtranslator/internal/explain"
	"github.com/MrWong99/techtranslator/internal/observe"
)

// Tool names.
const (
	TranslatorToolName = "tech_translator"
	ValidateToolName   = "validate"
)

// ServerName is the implementation name announced during MCP initialisation.
const ServerName = "techtranslator"

// TranslateInput is the typed argument of the tech_translator tool.
type TranslateInput struct {
	TechText string `json:"tech_text" jsonschema:"the technical text, term or jargon to explain"`
}

// ValidateOutput is the result of the validate tool.
type ValidateOutput struct {
	CallerNumber string `json:"caller_number" jsonschema:"phone number of the server owner"`
}

// Translator is the part of [explain.Service] the tools depend on.
type Translator interface {
	Authorize(token string) error
	Translate(ctx context.Context, req explain.Request) (*explain.Explanation, error)
}

// Options configures [New].
type Options struct {
	// Version is announced to clients.
	Version string

	// CallerNumber is returned by the validate tool.
	CallerNumber string

	// Logger receives SDK and tool logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics records tool calls. Defaults to observe.DefaultMetrics().
	Metrics *observe.Metrics
}

type tools struct {
	svc          Translator
	callerNumber string
	log          *slog.Logger
	metrics      *observe.Metrics
}

// New returns an MCP server with the tech_translator and validate tools
// registered against svc.
func New(svc Translator, opts Options) *mcp.Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = observe.DefaultMetrics()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Title:   "Tech Translator",
		Version: opts.Version,
	}, &mcp.ServerOptions{
		Instructions: "Call tech_translator with a piece of technical text to get a plain English explanation, a TL;DR, an ELI5 and a text diagram.",
		Logger:       opts.Logger,
	})

	t := &tools{
		svc:          svc,
		callerNumber: opts.CallerNumber,
		log:          opts.Logger,
		metrics:      opts.Metrics,
	}

	openWorld := true
	mcp.AddTool(server, &mcp.Tool{
		Name:        TranslatorToolName,
		Title:       "Tech Translator",
		Description: "Explain technical text in four styles: Plain English, TL;DR, ELI5 and a simple text diagram.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:  true,
			OpenWorldHint: &openWorld,
		},
	}, t.translate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ValidateToolName,
		Description: "Return the phone number of the server owner. Used by the chat platform to pair this server.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true},
	}, t.validate)

	return server
}

func (t *tools) translate(ctx context.Context, req *mcp.CallToolRequest, in TranslateInput) (*mcp.CallToolResult, *explain.Explanation, error) {
	start := time.Now()
	requestID := uuid.NewString()

	exp, err := t.svc.Translate(ctx, explain.Request{
		Token:    tokenOf(req),
		TechText: in.TechText,
	})
	t.record(ctx, TranslatorToolName, requestID, start, err)
	if err != nil {
		return nil, nil, errors.New(explain.UserMessage(err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: exp.Format()}},
	}, exp, nil
}

func (t *tools) validate(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, ValidateOutput, error) {
	start := time.Now()
	err := t.svc.Authorize(tokenOf(req))
	t.record(ctx, ValidateToolName, uuid.NewString(), start, err)
	if err != nil {
		return nil, ValidateOutput{}, errors.New(explain.UserMessage(err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: t.callerNumber}},
	}, ValidateOutput{CallerNumber: t.callerNumber}, nil
}

func (t *tools) record(ctx context.Context, tool, requestID string, start time.Time, err error) {
	elapsed := time.Since(start)
	status := explain.Kind(err)
	t.metrics.RecordToolCall(ctx, tool, status, elapsed.Seconds())

	level := slog.LevelInfo
	attrs := []slog.Attr{
		slog.String("tool", tool),
		slog.String("request_id", requestID),
		slog.String("status", status),
		slog.Duration("duration", elapsed),
	}
	if cid := observe.CorrelationID(ctx); cid != "" {
		attrs = append(attrs, slog.String("trace_id", cid))
	}
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("err", err.Error()))
	}
	t.log.LogAttrs(ctx, level, "tool call", attrs...)
}

// tokenOf returns the bearer token of the HTTP request carrying req, or ""
// for transports without headers.
func tokenOf(req *mcp.CallToolRequest) string {
	if req == nil || req.Extra == nil {
		return ""
	}
	return auth.TokenFromHeader(req.Extra.Header)
}

// HandlerOptions configures [Handler].
type HandlerOptions struct {
	// Logger receives transport logs.
	Logger *slog.Logger

	// BehindTunnel disables the SDK's DNS rebinding protection, which rejects
	// requests that reach a loopback address with a public Host header. A
	// tunnelling proxy forwarding to localhost looks exactly like that.
	BehindTunnel bool
}

// Handler returns the streamable HTTP transport for server. Every request is
// served statelessly with a plain JSON response, so calls never share a
// session.
func Handler(server *mcp.Server, opts HandlerOptions) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{
		Stateless:                  true,
		JSONResponse:               true,
		Logger:                     opts.Logger,
		DisableLocalhostProtection: opts.BehindTunnel,
	})
}
