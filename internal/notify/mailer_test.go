package notify

import (
	"context"
	"strings"
	"testing"
)

func TestMockSend(t *testing.T) {
	m := NewMock()

	msg := Message{
		To:      []string{"support@example.com"},
		Subject: "New Incident INC20240401100000",
		Body:    "Issue reported: s\n\nd",
	}
	receipt, err := m.Send(context.Background(), msg)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if receipt.Status != "ok" {
		t.Errorf("Status = %q", receipt.Status)
	}
	if !strings.HasPrefix(receipt.MessageID, "MOCK-") {
		t.Errorf("MessageID = %q", receipt.MessageID)
	}
	if receipt.Note != mockNote {
		t.Errorf("Note = %q", receipt.Note)
	}
	if len(receipt.Sent.To) != 1 || receipt.Sent.To[0] != "support@example.com" {
		t.Errorf("Sent.To = %v", receipt.Sent.To)
	}
	if receipt.Sent.Subject != msg.Subject || receipt.Sent.Body != msg.Body {
		t.Errorf("echoed message differs: %+v", receipt.Sent)
	}
	// Omitted CC/BCC come back as empty lists, not null.
	if receipt.Sent.CC == nil || receipt.Sent.BCC == nil {
		t.Errorf("CC/BCC not normalized: %+v", receipt.Sent)
	}
}

func TestMockSendFreshMessageIDs(t *testing.T) {
	m := NewMock()
	msg := Message{To: []string{"a@example.com"}, Subject: "s", Body: "b"}

	r1, err := m.Send(context.Background(), msg)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	r2, err := m.Send(context.Background(), msg)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if r1.MessageID == r2.MessageID {
		t.Errorf("message ids repeat: %s", r1.MessageID)
	}
}
