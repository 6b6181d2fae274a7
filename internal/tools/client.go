// Package tools is the client side of the tool-invocation boundary: a typed
// wrapper over the MCP transport for the four support tools. Untyped tool
// payloads are decoded into storage records here so the workflow only ever
// sees typed values.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"deskmate/internal/notify"
	"deskmate/internal/storage"
)

// ErrUnavailable reports that the tool server could not be reached.
var ErrUnavailable = errors.New("tool server unavailable")

// Client calls deskmate tools over MCP streamable HTTP.
type Client struct {
	mcp *client.Client
}

// Dial connects to the tool server at baseURL (e.g. http://127.0.0.1:8000/mcp)
// and performs the MCP initialize handshake.
func Dial(ctx context.Context, baseURL string) (*Client, error) {
	c, err := client.NewStreamableHttpClient(baseURL)
	if err != nil {
		return nil, fmt.Errorf("creating MCP client: %w", err)
	}

	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "deskmate", Version: "1.0.0"}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &Client{mcp: c}, nil
}

// Close shuts down the underlying MCP transport.
func (c *Client) Close() error {
	return c.mcp.Close()
}

// SearchKnowledgeBase returns up to limit articles matching the free-text
// description. Keyword extraction happens server-side.
func (c *Client) SearchKnowledgeBase(ctx context.Context, text string, limit int) ([]storage.KnowledgeArticle, error) {
	out, err := c.callTool(ctx, "search_knowledge_base", map[string]any{
		"short_description_contains": text,
		"limit":                      limit,
	})
	if err != nil {
		return nil, err
	}

	var articles []storage.KnowledgeArticle
	if err := json.Unmarshal([]byte(out), &articles); err != nil {
		return nil, fmt.Errorf("decoding knowledge base results: %w", err)
	}
	return articles, nil
}

// SearchIncidents returns up to limit incidents matching the free-text
// description.
func (c *Client) SearchIncidents(ctx context.Context, text string, limit int) ([]storage.Incident, error) {
	out, err := c.callTool(ctx, "search_incidents", map[string]any{
		"short_description_contains": text,
		"limit":                      limit,
	})
	if err != nil {
		return nil, err
	}

	var incidents []storage.Incident
	if err := json.Unmarshal([]byte(out), &incidents); err != nil {
		return nil, fmt.Errorf("decoding incident results: %w", err)
	}
	return incidents, nil
}

// CreateIncident inserts a new incident record. A number collision surfaces
// as storage.ErrDuplicate so the caller can regenerate and retry.
func (c *Client) CreateIncident(ctx context.Context, inc storage.Incident) error {
	args := map[string]any{
		"number":            inc.Number,
		"opened":            inc.OpenedAt.UTC().Format(time.RFC3339),
		"short_description": inc.ShortDescription,
		"description":       inc.Description,
		"state":             inc.State,
	}
	if inc.AssignedTo != "" {
		args["assigned_to"] = inc.AssignedTo
	}

	out, err := c.callTool(ctx, "create_incident", args)
	if err != nil {
		return err
	}

	var result struct {
		Status string `json:"status"`
		Number string `json:"number"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		return fmt.Errorf("decoding create result: %w", err)
	}
	if result.Status != "success" {
		return fmt.Errorf("create_incident returned status %q", result.Status)
	}
	return nil
}

// SendNotification delivers a support notification via the mock mailer tool.
func (c *Client) SendNotification(ctx context.Context, msg notify.Message) (notify.Receipt, error) {
	args := map[string]any{
		"to":      msg.To,
		"subject": msg.Subject,
		"body":    msg.Body,
	}
	if len(msg.CC) > 0 {
		args["cc"] = msg.CC
	}
	if len(msg.BCC) > 0 {
		args["bcc"] = msg.BCC
	}

	out, err := c.callTool(ctx, "email_send_mock", args)
	if err != nil {
		return notify.Receipt{}, err
	}

	var receipt notify.Receipt
	if err := json.Unmarshal([]byte(out), &receipt); err != nil {
		return notify.Receipt{}, fmt.Errorf("decoding receipt: %w", err)
	}
	return receipt, nil
}

// callTool invokes one tool and returns its text payload. Transport failures
// map to ErrUnavailable; tool errors carrying the duplicate-key marker map
// to storage.ErrDuplicate.
func (c *Client) callTool(ctx context.Context, name string, args map[string]any) (string, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := c.mcp.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnavailable, name, err)
	}

	text := resultText(result)
	if result.IsError {
		if strings.Contains(text, storage.ErrDuplicate.Error()) {
			return "", fmt.Errorf("%s: %w", name, storage.ErrDuplicate)
		}
		return "", fmt.Errorf("%s: %s", name, text)
	}
	return text, nil
}

func resultText(result *mcp.CallToolResult) string {
	for _, content := range result.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}
