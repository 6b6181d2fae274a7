// Package notify delivers support notifications. The only implementation is
// a mock that records and logs the message; it exists so escalation has a
// real side-effect boundary without an SMTP dependency.
package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Message is an outbound notification.
type Message struct {
	To      []string `json:"to"`
	CC      []string `json:"cc,omitempty"`
	BCC     []string `json:"bcc,omitempty"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// Receipt acknowledges delivery of a Message.
type Receipt struct {
	Status    string  `json:"status"`
	MessageID string  `json:"message_id"`
	Sent      Message `json:"sent"`
	Note      string  `json:"note"`
}

// Mailer accepts a notification request and returns a delivery receipt.
type Mailer interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}

// Mock is a Mailer that never sends anything. Each call succeeds and
// generates a fresh opaque message id.
type Mock struct {
	logger *slog.Logger
}

// NewMock creates a mock Mailer logging through the default slog logger.
func NewMock() *Mock {
	return &Mock{logger: slog.Default()}
}

const mockNote = "Mock email only - no actual message sent."

func (m *Mock) Send(_ context.Context, msg Message) (Receipt, error) {
	r := Receipt{
		Status:    "ok",
		MessageID: "MOCK-" + uuid.New().String(),
		Sent:      msg,
		Note:      mockNote,
	}
	if r.Sent.CC == nil {
		r.Sent.CC = []string{}
	}
	if r.Sent.BCC == nil {
		r.Sent.BCC = []string{}
	}
	m.logger.Info("mock email sent",
		"to", msg.To,
		"subject", msg.Subject,
		"message_id", r.MessageID,
	)
	return r, nil
}
