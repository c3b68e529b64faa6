package kafka

import "time"

const (
	TopicCartEvents = "cart.events"

	ActionCartChanged = "cart.changed"

	ProduceTimeout = 3 * time.Second
)
