// Package natsbus publishes game events on a NATS subject hierarchy so other
// services can follow the simulation.
package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"emergencyworldwide/internal/app/ports"
)

const DefaultSubject = "emergency.events"

// Conn is the slice of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subject string, data []byte) error
}

type Publisher struct {
	conn    Conn
	subject string
}

// Connect dials the NATS server at url.
func Connect(url string) (*nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url,
		nats.Name("emergencyworldwide"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return nc, nil
}

func NewPublisher(conn Conn, subject string) *Publisher {
	subject = strings.Trim(strings.TrimSpace(subject), ".")
	if subject == "" {
		subject = DefaultSubject
	}
	return &Publisher{conn: conn, subject: subject}
}

type envelope struct {
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

func (p *Publisher) Publish(_ context.Context, evt ports.Event) error {
	body, err := json.Marshal(envelope{Type: evt.Name, OccurredAt: evt.OccurredAt.UTC(), Payload: evt.Payload})
	if err != nil {
		return fmt.Errorf("encode %s: %w", evt.Name, err)
	}
	subject := p.Subject(evt.Name)
	if err := p.conn.Publish(subject, body); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// Subject returns the subject an event is published on, e.g.
// "emergency.events.new_mission".
func (p *Publisher) Subject(eventName string) string {
	return p.subject + "." + eventName
}
