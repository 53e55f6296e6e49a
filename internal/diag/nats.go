package diag

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/docgen/internal/logfields"
	"github.com/nats-io/nats.go"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "docgen.diagnostics"

type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes each diagnostic as JSON on a NATS subject. Publishing is
// fire-and-forget: core NATS buffers the message and errors are only logged.
type NATSSink struct {
	pub     publisher
	conn    *nats.Conn
	subject string
	Extra   map[string]string
}

// DialNATS connects to url and returns a sink publishing to subject.
func DialNATS(url, subject string) (*NATSSink, error) {
	conn, err := nats.Connect(url, nats.Name("docgen"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	if subject == "" {
		subject = DefaultSubject
	}
	slog.Info("NATS diagnostics sink connected", logfields.URL(url), logfields.Subject(subject))
	return &NATSSink{pub: conn, conn: conn, subject: subject}, nil
}

// Emit publishes d as JSON. Marshal and publish failures are logged at debug
// level and dropped.
func (s *NATSSink) Emit(d Diagnostic) {
	if s == nil || s.pub == nil {
		return
	}
	data, err := json.Marshal(natsMessage{Diagnostic: d, Extra: s.Extra})
	if err != nil {
		slog.Debug("Dropping diagnostic, marshal failed", logfields.Error(err))
		return
	}
	if err := s.pub.Publish(s.subject, data); err != nil {
		slog.Debug("Dropping diagnostic, publish failed", logfields.Subject(s.subject), logfields.Error(err))
	}
}

// Close flushes buffered messages and closes the connection.
func (s *NATSSink) Close() {
	if s == nil || s.conn == nil {
		return
	}
	if err := s.conn.Flush(); err != nil {
		slog.Debug("NATS flush failed", logfields.Error(err))
	}
	s.conn.Close()
}

type natsMessage struct {
	Diagnostic
	Extra map[string]string `json:"extra,omitempty"`
}
