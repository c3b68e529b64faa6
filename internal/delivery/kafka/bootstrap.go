package kafka

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/keithyco/shopping-cart-api/internal/config"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// EnsureTopics creates the cart event topic if the broker does not have it
// yet. Safe to call on every startup.
func EnsureTopics(ctx context.Context, client *kgo.Client, cfg *config.Config) error {
	adm := kadm.NewClient(client)

	partitions := cfg.TopicPartitions()
	replicationFactor := cfg.ReplicationFactor()

	resp, err := adm.CreateTopics(ctx, int32(partitions), replicationFactor, nil, TopicCartEvents)
	if err != nil {
		return fmt.Errorf("failed to create topic %s: %w", TopicCartEvents, err)
	}
	for _, detail := range resp {
		if detail.Err != nil && !strings.Contains(detail.Err.Error(), "already exists") {
			return fmt.Errorf("failed to create topic %s: %w", detail.Topic, detail.Err)
		}
	}

	log.Println("Cart event topic ensured")
	return nil
}
