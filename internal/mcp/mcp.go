// Package mcp implements the Model Context Protocol server for Shinrai.
//
// The MCP server exposes case intelligence and audit chain verification
// through MCP tools and resources, allowing MCP-compatible AI agents to
// consult confidence scores and verify ledger integrity alongside the HTTP
// API. Both surfaces delegate to the same service layer.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ashita-ai/shinrai/internal/service/audit"
	"github.com/ashita-ai/shinrai/internal/service/intelligence"
)

// Server wraps the MCP server with Shinrai's service layer.
type Server struct {
	mcpServer *mcpserver.MCPServer
	intel     *intelligence.Service
	audit     *audit.Service
	logger    *slog.Logger
}

// New creates and configures an MCP server with all tools and resources.
func New(intel *intelligence.Service, auditSvc *audit.Service, logger *slog.Logger) *Server {
	s := &Server{
		intel:  intel,
		audit:  auditSvc,
		logger: logger,
	}

	s.mcpServer = mcpserver.NewMCPServer(
		"shinrai",
		"0.1.0",
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithToolCapabilities(true),
	)

	s.registerResources()
	s.registerTools()

	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Handler returns the StreamableHTTP transport for mounting on an HTTP mux.
func (s *Server) Handler() http.Handler {
	return mcpserver.NewStreamableHTTPServer(s.mcpServer)
}

func (s *Server) registerResources() {
	// shinrai://cases/{id}/audit — full audit export for a case.
	s.mcpServer.AddResourceTemplate(
		mcplib.NewResourceTemplate(
			"shinrai://cases/{id}/audit",
			"Case Audit Trail",
			mcplib.WithTemplateDescription("Complete audit trail for a case, including chain verification"),
			mcplib.WithTemplateMIMEType("application/json"),
		),
		s.handleAuditResource,
	)
}

func (s *Server) registerTools() {
	// case_intelligence — confidence, gaps, bias flags, explanation.
	s.mcpServer.AddTool(
		mcplib.NewTool("case_intelligence",
			mcplib.WithDescription("Get the confidence score, evidentiary gaps, bias flags, and explanation for a case. Set recompute to force a fresh computation."),
			mcplib.WithString("case_id", mcplib.Description("Case UUID"), mcplib.Required()),
			mcplib.WithBoolean("recompute", mcplib.Description("Force a fresh computation and ledger append")),
			mcplib.WithString("reason", mcplib.Description("Reason for recomputation, recorded in the audit trail")),
		),
		s.handleIntelligence,
	)

	// verify_audit_chain — ledger integrity check.
	s.mcpServer.AddTool(
		mcplib.NewTool("verify_audit_chain",
			mcplib.WithDescription("Verify the hash-linked audit chain for a case: broken links, orphaned entries, forks, and duplicate computations"),
			mcplib.WithString("case_id", mcplib.Description("Case UUID"), mcplib.Required()),
		),
		s.handleVerifyChain,
	)
}

func (s *Server) handleAuditResource(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	uri := request.Params.URI
	var raw string
	if _, err := fmt.Sscanf(uri, "shinrai://cases/%s", &raw); err != nil {
		return nil, fmt.Errorf("mcp: invalid audit URI: %s", uri)
	}
	raw = strings.TrimSuffix(raw, "/audit")

	caseID, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("mcp: invalid case id in URI: %s", uri)
	}

	export, err := s.audit.Export(ctx, caseID, true)
	if err != nil {
		return nil, fmt.Errorf("mcp: audit export: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal export: %w", err)
	}

	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleIntelligence(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	caseID, err := uuid.Parse(request.GetString("case_id", ""))
	if err != nil {
		return errorResult("case_id must be a valid UUID"), nil
	}

	const actor = "mcp"
	var resp any
	if request.GetBool("recompute", false) {
		resp, err = s.intel.Recompute(ctx, caseID, "", actor, request.GetString("reason", ""))
	} else {
		resp, err = s.intel.GetOrCompute(ctx, caseID, "", actor)
	}
	if err != nil {
		if errors.Is(err, intelligence.ErrCaseNotFound) {
			return errorResult("case not found"), nil
		}
		return errorResult(fmt.Sprintf("intelligence failed: %v", err)), nil
	}

	data, _ := json.MarshalIndent(resp, "", "  ")
	return textResult(string(data)), nil
}

func (s *Server) handleVerifyChain(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	caseID, err := uuid.Parse(request.GetString("case_id", ""))
	if err != nil {
		return errorResult("case_id must be a valid UUID"), nil
	}

	export, err := s.audit.Export(ctx, caseID, false)
	if err != nil {
		if errors.Is(err, audit.ErrCaseNotFound) {
			return errorResult("case not found"), nil
		}
		return errorResult(fmt.Sprintf("verification failed: %v", err)), nil
	}

	data, _ := json.MarshalIndent(map[string]any{
		"case_id":    caseID,
		"integrity":  export.IntegrityCheck,
		"duplicates": export.DuplicateAnalysis,
	}, "", "  ")
	return textResult(string(data)), nil
}

func textResult(text string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: text},
		},
	}
}

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
