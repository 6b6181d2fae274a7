package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"deskmate/internal/notify"
	"deskmate/internal/storage"
)

func newTestDeps(t *testing.T) MCPDeps {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return MCPDeps{Store: store, Mailer: notify.NewMock()}
}

func makeCallToolRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	for _, content := range result.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("result has no text content")
	return ""
}

func TestSearchKnowledgeBaseTool(t *testing.T) {
	deps := newTestDeps(t)
	handler := mcpSearchKnowledgeBase(deps)

	result, err := handler(context.Background(), makeCallToolRequest("search_knowledge_base", map[string]any{
		"short_description_contains": "my vpn is broken",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}

	var articles []storage.KnowledgeArticle
	if err := json.Unmarshal([]byte(toolText(t, result)), &articles); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(articles) != 1 || articles[0].Number != "KB0001001" {
		t.Fatalf("unexpected results: %+v", articles)
	}
}

func TestSearchKnowledgeBaseToolEmptyResultIsArray(t *testing.T) {
	deps := newTestDeps(t)
	handler := mcpSearchKnowledgeBase(deps)

	result, err := handler(context.Background(), makeCallToolRequest("search_knowledge_base", map[string]any{
		"short_description_contains": "zzzznotathing",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if text := toolText(t, result); text != "[]" {
		t.Errorf("empty result payload = %q, want []", text)
	}
}

func TestSearchToolsDefaultLimit(t *testing.T) {
	deps := newTestDeps(t)
	handler := mcpSearchKnowledgeBase(deps)

	// Zero and negative limits fall back to the default rather than erroring.
	for _, limit := range []any{0, -3} {
		result, err := handler(context.Background(), makeCallToolRequest("search_knowledge_base", map[string]any{
			"limit": limit,
		}))
		if err != nil {
			t.Fatalf("handler: %v", err)
		}
		if result.IsError {
			t.Fatalf("tool error for limit %v: %s", limit, toolText(t, result))
		}
	}
}

func TestSearchIncidentsTool(t *testing.T) {
	deps := newTestDeps(t)
	if err := deps.Store.InsertIncident(storage.Incident{
		Number:           "INC20240401100000",
		OpenedAt:         time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC),
		ShortDescription: "Printer offline on floor 3",
		Description:      "d",
		State:            storage.StateNew,
	}); err != nil {
		t.Fatalf("seeding incident: %v", err)
	}

	handler := mcpSearchIncidents(deps)
	result, err := handler(context.Background(), makeCallToolRequest("search_incidents", map[string]any{
		"short_description_contains": "printer trouble",
		"limit":                      5,
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	var incidents []storage.Incident
	if err := json.Unmarshal([]byte(toolText(t, result)), &incidents); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(incidents) != 1 || incidents[0].Number != "INC20240401100000" {
		t.Fatalf("unexpected results: %+v", incidents)
	}
}

func TestCreateIncidentTool(t *testing.T) {
	deps := newTestDeps(t)
	handler := mcpCreateIncident(deps)

	args := map[string]any{
		"number":            "INC20240401100000",
		"opened":            "2024-04-01T10:00:00Z",
		"short_description": "Laptop will not boot",
		"description":       "Black screen after power on",
	}
	result, err := handler(context.Background(), makeCallToolRequest("create_incident", args))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}

	var out map[string]string
	if err := json.Unmarshal([]byte(toolText(t, result)), &out); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if out["status"] != "success" || out["number"] != "INC20240401100000" {
		t.Errorf("result = %v", out)
	}

	inc, err := deps.Store.GetIncident("INC20240401100000")
	if err != nil {
		t.Fatalf("GetIncident: %v", err)
	}
	if inc.State != storage.StateNew {
		t.Errorf("State = %q, want default %q", inc.State, storage.StateNew)
	}
}

func TestCreateIncidentToolDuplicate(t *testing.T) {
	deps := newTestDeps(t)
	handler := mcpCreateIncident(deps)

	args := map[string]any{
		"number":            "INC20240401100000",
		"opened":            "2024-04-01T10:00:00Z",
		"short_description": "s",
		"description":       "d",
	}
	if _, err := handler(context.Background(), makeCallToolRequest("create_incident", args)); err != nil {
		t.Fatalf("first create: %v", err)
	}

	result, err := handler(context.Background(), makeCallToolRequest("create_incident", args))
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if !result.IsError {
		t.Fatal("duplicate create did not return a tool error")
	}
	if text := toolText(t, result); !strings.Contains(text, storage.ErrDuplicate.Error()) {
		t.Errorf("error text %q missing duplicate-key marker", text)
	}
}

func TestCreateIncidentToolValidation(t *testing.T) {
	deps := newTestDeps(t)
	handler := mcpCreateIncident(deps)

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing number", map[string]any{"opened": "2024-04-01T10:00:00Z", "short_description": "s", "description": "d"}},
		{"missing opened", map[string]any{"number": "INC1", "short_description": "s", "description": "d"}},
		{"bad timestamp", map[string]any{"number": "INC1", "opened": "yesterday", "short_description": "s", "description": "d"}},
		{"missing short_description", map[string]any{"number": "INC1", "opened": "2024-04-01T10:00:00Z", "description": "d"}},
		{"missing description", map[string]any{"number": "INC1", "opened": "2024-04-01T10:00:00Z", "short_description": "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handler(context.Background(), makeCallToolRequest("create_incident", tt.args))
			if err != nil {
				t.Fatalf("handler: %v", err)
			}
			if !result.IsError {
				t.Error("invalid request did not return a tool error")
			}
		})
	}
}

func TestEmailSendMockTool(t *testing.T) {
	deps := newTestDeps(t)
	handler := mcpEmailSendMock(deps)

	result, err := handler(context.Background(), makeCallToolRequest("email_send_mock", map[string]any{
		"to":      []any{"support@example.com"},
		"subject": "New Incident INC20240401100000",
		"body":    "Issue reported: s\n\nd",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}

	var receipt notify.Receipt
	if err := json.Unmarshal([]byte(toolText(t, result)), &receipt); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if receipt.Status != "ok" {
		t.Errorf("Status = %q", receipt.Status)
	}
	if !strings.HasPrefix(receipt.MessageID, "MOCK-") {
		t.Errorf("MessageID = %q", receipt.MessageID)
	}
	if len(receipt.Sent.To) != 1 || receipt.Sent.To[0] != "support@example.com" {
		t.Errorf("Sent.To = %v", receipt.Sent.To)
	}
}

func TestEmailSendMockToolRequiresRecipient(t *testing.T) {
	deps := newTestDeps(t)
	handler := mcpEmailSendMock(deps)

	result, err := handler(context.Background(), makeCallToolRequest("email_send_mock", map[string]any{
		"subject": "s",
		"body":    "b",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !result.IsError {
		t.Error("missing recipient did not return a tool error")
	}
}
