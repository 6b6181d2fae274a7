// Package api exposes the tool-invocation boundary: an MCP server with the
// four support tools, served over streamable HTTP behind a chi router.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"deskmate/internal/notify"
	"deskmate/internal/query"
	"deskmate/internal/storage"
)

const defaultSearchLimit = 10

// MCPDeps holds dependencies for the MCP tool server.
type MCPDeps struct {
	Store  *storage.Store
	Mailer notify.Mailer
}

// NewMCPServer creates an MCP server with all deskmate tools registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"deskmate",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("deskmate IT-support tools over the knowledge base and incident store."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("search_knowledge_base",
			mcp.WithDescription("Search knowledge base articles using meaningful keywords from the given text."),
			mcp.WithString("short_description_contains", mcp.Description("Free text to match against article short descriptions")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
		),
		mcpSearchKnowledgeBase(deps),
	)

	s.AddTool(
		mcp.NewTool("search_incidents",
			mcp.WithDescription("Search incident records using meaningful keywords from the given text."),
			mcp.WithString("short_description_contains", mcp.Description("Free text to match against incident short descriptions")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
		),
		mcpSearchIncidents(deps),
	)

	s.AddTool(
		mcp.NewTool("create_incident",
			mcp.WithDescription("Insert a new incident record into the incident store."),
			mcp.WithString("number", mcp.Description("Unique incident number"), mcp.Required()),
			mcp.WithString("opened", mcp.Description("Opening timestamp, RFC 3339"), mcp.Required()),
			mcp.WithString("short_description", mcp.Description("One-line summary of the issue"), mcp.Required()),
			mcp.WithString("description", mcp.Description("Detailed description of the issue"), mcp.Required()),
			mcp.WithString("state", mcp.Description("Incident state (default New)")),
			mcp.WithString("assigned_to", mcp.Description("Assignee, optional")),
		),
		mcpCreateIncident(deps),
	)

	s.AddTool(
		mcp.NewTool("email_send_mock",
			mcp.WithDescription("Simulates sending an email notification (mock only)."),
			mcp.WithArray("to", mcp.Description("Recipient addresses"), mcp.Required()),
			mcp.WithString("subject", mcp.Description("Message subject"), mcp.Required()),
			mcp.WithString("body", mcp.Description("Message body"), mcp.Required()),
			mcp.WithArray("cc", mcp.Description("CC addresses, optional")),
			mcp.WithArray("bcc", mcp.Description("BCC addresses, optional")),
		),
		mcpEmailSendMock(deps),
	)

	return s
}

func mcpSearchKnowledgeBase(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text := req.GetString("short_description_contains", "")
		limit := searchLimit(req)

		articles, err := deps.Store.SearchKnowledgeBase(query.Tokens(text), limit)
		if err != nil {
			return mcpError(fmt.Sprintf("knowledge base search failed: %v", err)), nil
		}
		if articles == nil {
			articles = []storage.KnowledgeArticle{}
		}

		b, err := json.Marshal(articles)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSearchIncidents(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text := req.GetString("short_description_contains", "")
		limit := searchLimit(req)

		incidents, err := deps.Store.SearchIncidents(query.Tokens(text), limit)
		if err != nil {
			return mcpError(fmt.Sprintf("incident search failed: %v", err)), nil
		}
		if incidents == nil {
			incidents = []storage.Incident{}
		}

		b, err := json.Marshal(incidents)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpCreateIncident(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		number, err := req.RequireString("number")
		if err != nil {
			return mcpError("number is required"), nil
		}
		opened, err := req.RequireString("opened")
		if err != nil {
			return mcpError("opened is required"), nil
		}
		shortDescription, err := req.RequireString("short_description")
		if err != nil {
			return mcpError("short_description is required"), nil
		}
		description, err := req.RequireString("description")
		if err != nil {
			return mcpError("description is required"), nil
		}

		openedAt, err := time.Parse(time.RFC3339, opened)
		if err != nil {
			return mcpError(fmt.Sprintf("invalid opened timestamp: %v", err)), nil
		}

		inc := storage.Incident{
			Number:           number,
			OpenedAt:         openedAt,
			ShortDescription: shortDescription,
			Description:      description,
			State:            req.GetString("state", storage.StateNew),
			AssignedTo:       req.GetString("assigned_to", ""),
		}

		if err := deps.Store.InsertIncident(inc); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				// The error text leads with ErrDuplicate's message; the client
				// matches on it to recover the typed error across the wire.
				return mcpError(fmt.Sprintf("%s: incident %s already exists", storage.ErrDuplicate.Error(), number)), nil
			}
			return mcpError(fmt.Sprintf("failed to create incident: %v", err)), nil
		}

		b, err := json.Marshal(map[string]string{"status": "success", "number": number})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpEmailSendMock(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		to := req.GetStringSlice("to", nil)
		if len(to) == 0 {
			return mcpError("to is required"), nil
		}
		subject, err := req.RequireString("subject")
		if err != nil {
			return mcpError("subject is required"), nil
		}
		body, err := req.RequireString("body")
		if err != nil {
			return mcpError("body is required"), nil
		}

		receipt, err := deps.Mailer.Send(ctx, notify.Message{
			To:      to,
			CC:      req.GetStringSlice("cc", nil),
			BCC:     req.GetStringSlice("bcc", nil),
			Subject: subject,
			Body:    body,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("notification failed: %v", err)), nil
		}

		b, err := json.Marshal(receipt)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal receipt: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func searchLimit(req mcp.CallToolRequest) int {
	limit := req.GetInt("limit", defaultSearchLimit)
	if limit < 1 {
		limit = defaultSearchLimit
	}
	return limit
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
