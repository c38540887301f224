// internal/events/kafka.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// MatchFound is the payload published whenever the pairing step forms a
// match, for downstream consumers (notifications, analytics).
type MatchFound struct {
	MatchID   uuid.UUID `json:"match_id"`
	PlayerA   uuid.UUID `json:"player_a"`
	PlayerB   uuid.UUID `json:"player_b"`
	CreatedAt int64     `json:"created_at"`
}

// Publisher writes pairing events to a Kafka topic. Optional: when no broker
// is configured the service runs without one and nothing is published.
type Publisher struct {
	conn *kafka.Conn
}

// NewPublisher dials the topic leader. addr is "host:port".
func NewPublisher(ctx context.Context, addr, topic string) (*Publisher, error) {
	conn, err := kafka.DialLeader(ctx, "tcp", addr, topic, 0)
	if err != nil {
		return nil, fmt.Errorf("dial kafka leader: %w", err)
	}
	return &Publisher{conn: conn}, nil
}

// PublishMatchFound emits one match-found event.
func (p *Publisher) PublishMatchFound(ev MatchFound) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal match-found event: %w", err)
	}
	if err := p.conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
		return err
	}
	_, err = p.conn.WriteMessages(kafka.Message{
		Key:   []byte("match-found"),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("publish match-found event: %w", err)
	}
	return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	return p.conn.Close()
}
