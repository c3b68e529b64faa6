package kafka

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/keithyco/shopping-cart-api/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Publisher emits cart state changes to Kafka. It runs as a subscriber of
// the cart's change notification; produce failures are logged and never
// reach the mutation path.
type Publisher struct {
	client *kgo.Client
}

func NewPublisher(client *kgo.Client) *Publisher {
	return &Publisher{client: client}
}

// CartChanged produces one event keyed by session id.
func (p *Publisher) CartChanged(sessionID string, snap *domain.Snapshot, total decimal.Decimal) {
	event := CartEvent{
		SchemaVersion: 1,
		EventID:       uuid.New().String(),
		SessionID:     sessionID,
		Action:        ActionCartChanged,
		Items:         snap.Items,
		CouponCode:    snap.CouponCode,
		Total:         total.StringFixed(2),
		OccurredAt:    time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to encode cart event for session %s: %v", sessionID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), ProduceTimeout)
	defer cancel()

	record := &kgo.Record{
		Topic: TopicCartEvents,
		Key:   []byte(sessionID),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		log.Printf("Failed to produce cart event for session %s: %v", sessionID, err)
	}
}
