// Package mcp exposes the project registry as MCP (Model Context
// Protocol) tools, so AI agents can query semantic code information.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/alpkeskin/gotoon"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/yoanbernabeu/golens/lsp"
	"github.com/yoanbernabeu/golens/project"
	"github.com/yoanbernabeu/golens/registry"
)

const serverVersion = "1.0.0"

// Server wraps the MCP server with golens tools backed by the registry.
type Server struct {
	mcpServer *server.MCPServer
	registry  *registry.Registry
}

// SymbolDocsResult is the output of golens_symbol_docs.
type SymbolDocsResult struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Docs   string `json:"docs"`
}

// ImplResult is one type-definition site with surrounding source.
type ImplResult struct {
	File      string `json:"file"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Source    string `json:"source"`
}

// ReferenceResult is one reference site with its source line context.
type ReferenceResult struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Context string `json:"context,omitempty"`
}

// ResolvedSymbol is one fuzzy-matched document symbol.
type ResolvedSymbol struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Container string `json:"container,omitempty"`
	File      string `json:"file"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
}

// ModuleDocsResult is the output of golens_module_docs.
type ModuleDocsResult struct {
	Module string `json:"module"`
	Docs   string `json:"docs"`
}

// NewServer creates the MCP server and registers every tool.
func NewServer(reg *registry.Registry) *Server {
	s := &Server{registry: reg}
	s.mcpServer = server.NewMCPServer(
		"golens",
		serverVersion,
		server.WithToolCapabilities(false),
	)
	s.registerTools()
	return s
}

// Serve runs the server over stdio until the client disconnects.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE runs the server over HTTP server-sent events on addr.
func (s *Server) ServeSSE(addr string) error {
	sse := server.NewSSEServer(s.mcpServer)
	return sse.Start(addr)
}

// encodeOutput encodes data in the specified format (json or toon).
func encodeOutput(data any, format string) (string, error) {
	switch format {
	case "toon":
		return gotoon.Encode(data)
	default: // "json"
		jsonBytes, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", err
		}
		return string(jsonBytes), nil
	}
}

// registerTools registers all golens tools with the MCP server.
func (s *Server) registerTools() {
	symbolDocsTool := mcp.NewTool("golens_symbol_docs",
		mcp.WithDescription("Get the documentation and type signature of the symbol at a cursor position, as the Go language server reports it."),
		mcp.WithString("project_dir",
			mcp.Required(),
			mcp.Description("Absolute path of the registered project (any path inside it works)"),
		),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("File path relative to the project root"),
		),
		mcp.WithNumber("line",
			mcp.Required(),
			mcp.Description("1-based line number of the symbol"),
		),
		mcp.WithNumber("column",
			mcp.Required(),
			mcp.Description("1-based column number of the symbol"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (default) or 'toon' (token-efficient)"),
		),
	)
	s.mcpServer.AddTool(symbolDocsTool, s.handleSymbolDocs)

	symbolImplTool := mcp.NewTool("golens_symbol_impl",
		mcp.WithDescription("Get the type definition of the symbol at a cursor position, including the definition source code with surrounding context lines."),
		mcp.WithString("project_dir",
			mcp.Required(),
			mcp.Description("Absolute path of the registered project (any path inside it works)"),
		),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("File path relative to the project root"),
		),
		mcp.WithNumber("line",
			mcp.Required(),
			mcp.Description("1-based line number of the symbol"),
		),
		mcp.WithNumber("column",
			mcp.Required(),
			mcp.Description("1-based column number of the symbol"),
		),
		mcp.WithNumber("context_lines",
			mcp.Description("Source lines of context around the definition (default: 5)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (default) or 'toon' (token-efficient)"),
		),
	)
	s.mcpServer.AddTool(symbolImplTool, s.handleSymbolImpl)

	symbolReferencesTool := mcp.NewTool("golens_symbol_references",
		mcp.WithDescription("Find all references to the symbol at a cursor position, including the declaration, each with its source line."),
		mcp.WithString("project_dir",
			mcp.Required(),
			mcp.Description("Absolute path of the registered project (any path inside it works)"),
		),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("File path relative to the project root"),
		),
		mcp.WithNumber("line",
			mcp.Required(),
			mcp.Description("1-based line number of the symbol"),
		),
		mcp.WithNumber("column",
			mcp.Required(),
			mcp.Description("1-based column number of the symbol"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (default) or 'toon' (token-efficient)"),
		),
	)
	s.mcpServer.AddTool(symbolReferencesTool, s.handleSymbolReferences)

	symbolResolveTool := mcp.NewTool("golens_symbol_resolve",
		mcp.WithDescription("Resolve a symbol name to its position in a file using fuzzy matching against the file's symbol listing. Use when you know a name but not its exact location."),
		mcp.WithString("project_dir",
			mcp.Required(),
			mcp.Description("Absolute path of the registered project (any path inside it works)"),
		),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("File path relative to the project root"),
		),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Symbol name to resolve (fuzzy matched)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of matches to return (default: 5)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (default) or 'toon' (token-efficient)"),
		),
	)
	s.mcpServer.AddTool(symbolResolveTool, s.handleSymbolResolve)

	moduleDocsTool := mcp.NewTool("golens_module_docs",
		mcp.WithDescription("Get extracted documentation for a project dependency: all exported symbols of a module, or one symbol when named."),
		mcp.WithString("project_dir",
			mcp.Required(),
			mcp.Description("Absolute path of the registered project (any path inside it works)"),
		),
		mcp.WithString("module",
			mcp.Required(),
			mcp.Description("Module path of the dependency (e.g., 'github.com/spf13/cobra')"),
		),
		mcp.WithString("symbol",
			mcp.Description("Restrict to one exported symbol name (optional)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (default) or 'toon' (token-efficient)"),
		),
	)
	s.mcpServer.AddTool(moduleDocsTool, s.handleModuleDocs)

	buildCheckTool := mcp.NewTool("golens_build_check",
		mcp.WithDescription("Compile every package in the project and return structured build diagnostics."),
		mcp.WithString("project_dir",
			mcp.Required(),
			mcp.Description("Absolute path of the registered project (any path inside it works)"),
		),
		mcp.WithBoolean("all_messages",
			mcp.Description("Include non-failure build messages (default: false, errors only)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (default) or 'toon' (token-efficient)"),
		),
	)
	s.mcpServer.AddTool(buildCheckTool, s.handleBuildCheck)

	buildTestTool := mcp.NewTool("golens_build_test",
		mcp.WithDescription("Run the project's tests and return structured results, optionally restricted to one test name."),
		mcp.WithString("project_dir",
			mcp.Required(),
			mcp.Description("Absolute path of the registered project (any path inside it works)"),
		),
		mcp.WithString("test_name",
			mcp.Description("Run only tests matching this name (go test -run syntax, optional)"),
		),
		mcp.WithBoolean("backtrace",
			mcp.Description("Enable full goroutine dumps on crashes (default: false)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (default) or 'toon' (token-efficient)"),
		),
	)
	s.mcpServer.AddTool(buildTestTool, s.handleBuildTest)
}

// projectFor resolves a tool's project_dir argument to a registered
// handle by walking up from the given path.
func (s *Server) projectFor(path string) (*registry.ProjectHandle, error) {
	h, ok := s.registry.GetProjectByPath(path)
	if !ok {
		return nil, fmt.Errorf("no registered project contains %s; add it with 'golens project add'", path)
	}
	return h, nil
}

// instrument brackets a handler with request/response notifications
// correlated by a fresh ID.
func (s *Server) instrument(tool, projectRoot, payload string, fn func() (*mcp.CallToolResult, error)) (*mcp.CallToolResult, error) {
	id := uuid.NewString()
	s.registry.PublishToolEvent(registry.ToolEvent{
		Kind:    registry.ToolEventRequest,
		ID:      id,
		Project: projectRoot,
		Tool:    tool,
		Payload: payload,
	})

	result, err := fn()

	resp := registry.ToolEvent{Kind: registry.ToolEventResponse, ID: id, Project: projectRoot, Tool: tool}
	switch {
	case err != nil:
		resp.IsError = true
		resp.Payload = err.Error()
	case result != nil && result.IsError:
		resp.IsError = true
		resp.Payload = firstText(result)
	}
	s.registry.PublishToolEvent(resp)
	return result, err
}

func firstText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// positionArgs extracts the shared file/line/column arguments, converting
// 1-based editor coordinates to the 0-based wire convention.
func positionArgs(request mcp.CallToolRequest) (file string, pos lsp.Position, err error) {
	file, err = request.RequireString("file")
	if err != nil {
		return "", lsp.Position{}, fmt.Errorf("file parameter is required")
	}
	line := request.GetInt("line", 0)
	column := request.GetInt("column", 0)
	if line < 1 || column < 1 {
		return "", lsp.Position{}, fmt.Errorf("line and column must be 1-based positive numbers")
	}
	return file, lsp.Position{Line: uint32(line - 1), Character: uint32(column - 1)}, nil
}

func validFormat(format string) bool {
	return format == "json" || format == "toon"
}

// handleSymbolDocs handles the golens_symbol_docs tool call.
func (s *Server) handleSymbolDocs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectDir, err := request.RequireString("project_dir")
	if err != nil {
		return mcp.NewToolResultError("project_dir parameter is required"), nil
	}
	file, pos, err := positionArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format := request.GetString("format", "json")
	if !validFormat(format) {
		return mcp.NewToolResultError("format must be 'json' or 'toon'"), nil
	}

	handle, err := s.projectFor(projectDir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return s.instrument("golens_symbol_docs", handle.Project.Root, fmt.Sprintf("%s:%d:%d", file, pos.Line+1, pos.Character+1), func() (*mcp.CallToolResult, error) {
		if err := handle.Analysis.OpenFile(ctx, file); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to open %s: %v", file, err)), nil
		}
		hover, err := handle.Analysis.Hover(ctx, file, pos)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("hover failed: %v", err)), nil
		}
		if hover == nil || hover.Contents.Value == "" {
			return mcp.NewToolResultError("no documentation at this position"), nil
		}
		output, err := encodeOutput(SymbolDocsResult{
			File:   file,
			Line:   int(pos.Line) + 1,
			Column: int(pos.Character) + 1,
			Docs:   hover.Contents.Value,
		}, format)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode results: %v", err)), nil
		}
		return mcp.NewToolResultText(output), nil
	})
}

// handleSymbolImpl handles the golens_symbol_impl tool call.
func (s *Server) handleSymbolImpl(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectDir, err := request.RequireString("project_dir")
	if err != nil {
		return mcp.NewToolResultError("project_dir parameter is required"), nil
	}
	file, pos, err := positionArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	contextLines := request.GetInt("context_lines", 5)
	if contextLines < 0 {
		contextLines = 0
	}
	format := request.GetString("format", "json")
	if !validFormat(format) {
		return mcp.NewToolResultError("format must be 'json' or 'toon'"), nil
	}

	handle, err := s.projectFor(projectDir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return s.instrument("golens_symbol_impl", handle.Project.Root, fmt.Sprintf("%s:%d:%d", file, pos.Line+1, pos.Character+1), func() (*mcp.CallToolResult, error) {
		if err := handle.Analysis.OpenFile(ctx, file); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to open %s: %v", file, err)), nil
		}
		locations, err := handle.Analysis.TypeDefinition(ctx, file, pos)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("type definition lookup failed: %v", err)), nil
		}
		if len(locations) == 0 {
			return mcp.NewToolResultError("no type definition at this position"), nil
		}

		results := make([]ImplResult, 0, len(locations))
		for _, loc := range locations {
			impl := ImplResult{
				File:      displayPath(handle, loc.URI),
				StartLine: int(loc.Range.Start.Line) + 1,
				EndLine:   int(loc.Range.End.Line) + 1,
			}
			source, err := sourceContext(loc, contextLines)
			if err == nil {
				impl.Source = source
			}
			results = append(results, impl)
		}
		output, err := encodeOutput(results, format)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode results: %v", err)), nil
		}
		return mcp.NewToolResultText(output), nil
	})
}

// handleSymbolReferences handles the golens_symbol_references tool call.
func (s *Server) handleSymbolReferences(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectDir, err := request.RequireString("project_dir")
	if err != nil {
		return mcp.NewToolResultError("project_dir parameter is required"), nil
	}
	file, pos, err := positionArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format := request.GetString("format", "json")
	if !validFormat(format) {
		return mcp.NewToolResultError("format must be 'json' or 'toon'"), nil
	}

	handle, err := s.projectFor(projectDir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return s.instrument("golens_symbol_references", handle.Project.Root, fmt.Sprintf("%s:%d:%d", file, pos.Line+1, pos.Character+1), func() (*mcp.CallToolResult, error) {
		if err := handle.Analysis.OpenFile(ctx, file); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to open %s: %v", file, err)), nil
		}
		locations, err := handle.Analysis.References(ctx, file, pos)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("references lookup failed: %v", err)), nil
		}
		if len(locations) == 0 {
			return mcp.NewToolResultError("no references at this position"), nil
		}

		results := make([]ReferenceResult, 0, len(locations))
		for _, loc := range locations {
			ref := ReferenceResult{
				File:   displayPath(handle, loc.URI),
				Line:   int(loc.Range.Start.Line) + 1,
				Column: int(loc.Range.Start.Character) + 1,
			}
			if line, err := sourceLine(loc); err == nil {
				ref.Context = line
			}
			results = append(results, ref)
		}
		output, err := encodeOutput(results, format)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode results: %v", err)), nil
		}
		return mcp.NewToolResultText(output), nil
	})
}

// handleSymbolResolve handles the golens_symbol_resolve tool call.
func (s *Server) handleSymbolResolve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectDir, err := request.RequireString("project_dir")
	if err != nil {
		return mcp.NewToolResultError("project_dir parameter is required"), nil
	}
	file, err := request.RequireString("file")
	if err != nil {
		return mcp.NewToolResultError("file parameter is required"), nil
	}
	symbol, err := request.RequireString("symbol")
	if err != nil {
		return mcp.NewToolResultError("symbol parameter is required"), nil
	}
	limit := request.GetInt("limit", 5)
	if limit <= 0 {
		limit = 5
	}
	format := request.GetString("format", "json")
	if !validFormat(format) {
		return mcp.NewToolResultError("format must be 'json' or 'toon'"), nil
	}

	handle, err := s.projectFor(projectDir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return s.instrument("golens_symbol_resolve", handle.Project.Root, symbol+" in "+file, func() (*mcp.CallToolResult, error) {
		if err := handle.Analysis.OpenFile(ctx, file); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to open %s: %v", file, err)), nil
		}
		symbols, err := handle.Analysis.DocumentSymbols(ctx, file)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("symbol listing failed: %v", err)), nil
		}
		matches := rankSymbols(symbol, symbols, limit)
		if len(matches) == 0 {
			return mcp.NewToolResultError(fmt.Sprintf("no symbol matching %q in %s", symbol, file)), nil
		}

		results := make([]ResolvedSymbol, 0, len(matches))
		for _, m := range matches {
			results = append(results, ResolvedSymbol{
				Name:      m.Name,
				Kind:      symbolKindName(m.Kind),
				Container: m.ContainerName,
				File:      displayPath(handle, m.Location.URI),
				Line:      int(m.Location.Range.Start.Line) + 1,
				Column:    int(m.Location.Range.Start.Character) + 1,
			})
		}
		output, err := encodeOutput(results, format)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode results: %v", err)), nil
		}
		return mcp.NewToolResultText(output), nil
	})
}

// handleModuleDocs handles the golens_module_docs tool call.
func (s *Server) handleModuleDocs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectDir, err := request.RequireString("project_dir")
	if err != nil {
		return mcp.NewToolResultError("project_dir parameter is required"), nil
	}
	modulePath, err := request.RequireString("module")
	if err != nil {
		return mcp.NewToolResultError("module parameter is required"), nil
	}
	symbol := request.GetString("symbol", "")
	format := request.GetString("format", "json")
	if !validFormat(format) {
		return mcp.NewToolResultError("format must be 'json' or 'toon'"), nil
	}

	handle, err := s.projectFor(projectDir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	payload := modulePath
	if symbol != "" {
		payload = modulePath + " " + symbol
	}
	return s.instrument("golens_module_docs", handle.Project.Root, payload, func() (*mcp.CallToolResult, error) {
		if symbol != "" {
			found, err := handle.Docs.SymbolDocs(modulePath, symbol)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			output, err := encodeOutput(found, format)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to encode results: %v", err)), nil
			}
			return mcp.NewToolResultText(output), nil
		}

		md, err := handle.Docs.ModuleDocs(modulePath)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		output, err := encodeOutput(ModuleDocsResult{Module: modulePath, Docs: md}, format)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode results: %v", err)), nil
		}
		return mcp.NewToolResultText(output), nil
	})
}

// handleBuildCheck handles the golens_build_check tool call.
func (s *Server) handleBuildCheck(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectDir, err := request.RequireString("project_dir")
	if err != nil {
		return mcp.NewToolResultError("project_dir parameter is required"), nil
	}
	allMessages := request.GetBool("all_messages", false)
	format := request.GetString("format", "json")
	if !validFormat(format) {
		return mcp.NewToolResultError("format must be 'json' or 'toon'"), nil
	}

	handle, err := s.projectFor(projectDir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return s.instrument("golens_build_check", handle.Project.Root, "", func() (*mcp.CallToolResult, error) {
		messages, err := handle.Build.Check(ctx, !allMessages)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("build check failed: %v", err)), nil
		}
		if len(messages) == 0 {
			return mcp.NewToolResultText("no build errors"), nil
		}
		output, err := encodeOutput(messages, format)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode results: %v", err)), nil
		}
		return mcp.NewToolResultText(output), nil
	})
}

// handleBuildTest handles the golens_build_test tool call.
func (s *Server) handleBuildTest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectDir, err := request.RequireString("project_dir")
	if err != nil {
		return mcp.NewToolResultError("project_dir parameter is required"), nil
	}
	testName := request.GetString("test_name", "")
	backtrace := request.GetBool("backtrace", false)
	format := request.GetString("format", "json")
	if !validFormat(format) {
		return mcp.NewToolResultError("format must be 'json' or 'toon'"), nil
	}

	handle, err := s.projectFor(projectDir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return s.instrument("golens_build_test", handle.Project.Root, testName, func() (*mcp.CallToolResult, error) {
		messages, err := handle.Build.Test(ctx, testName, backtrace)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("test run failed: %v", err)), nil
		}
		output, err := encodeOutput(messages, format)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode results: %v", err)), nil
		}
		return mcp.NewToolResultText(output), nil
	})
}

// displayPath renders a location URI project-relative when it is inside
// the project, absolute otherwise (stdlib, module cache).
func displayPath(handle *registry.ProjectHandle, uri string) string {
	path := project.URIToPath(uri)
	if rel, err := handle.Project.RelPath(path); err == nil {
		return rel
	}
	return path
}

// sourceContext reads the location's file and returns the definition
// range plus contextLines lines around it.
func sourceContext(loc lsp.Location, contextLines int) (string, error) {
	lines, err := readLines(project.URIToPath(loc.URI))
	if err != nil {
		return "", err
	}
	start := int(loc.Range.Start.Line) - contextLines
	if start < 0 {
		start = 0
	}
	end := int(loc.Range.End.Line) + contextLines + 1
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return "", fmt.Errorf("location outside file")
	}
	return strings.Join(lines[start:end], "\n"), nil
}

// sourceLine reads the single line a location starts on.
func sourceLine(loc lsp.Location) (string, error) {
	lines, err := readLines(project.URIToPath(loc.URI))
	if err != nil {
		return "", err
	}
	n := int(loc.Range.Start.Line)
	if n >= len(lines) {
		return "", fmt.Errorf("location outside file")
	}
	return strings.TrimSpace(lines[n]), nil
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(string(data), "\n"), nil
}
