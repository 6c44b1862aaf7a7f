package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tphakala/birdview/internal/events"
	"github.com/tphakala/birdview/internal/logger"
)

// Publisher is an event bus consumer that forwards dataset events to MQTT
// as JSON on <topic>/<habitat>/<kind>.
type Publisher struct {
	client Client
	topic  string
	log    logger.Logger
}

// NewPublisher creates a publisher on client under the base topic.
func NewPublisher(client Client, topic string, log logger.Logger) *Publisher {
	if log == nil {
		log = logger.Global().Module("mqtt")
	}
	return &Publisher{
		client: client,
		topic:  strings.TrimSuffix(topic, "/"),
		log:    log,
	}
}

// Name implements events.Consumer.
func (p *Publisher) Name() string { return "mqtt" }

// ProcessEvent implements events.Consumer. A dropped connection is
// re-established before publishing.
func (p *Publisher) ProcessEvent(ctx context.Context, event events.DatasetEvent) error {
	if !p.client.IsConnected() {
		if err := p.client.Connect(ctx); err != nil {
			return fmt.Errorf("mqtt reconnect before publish: %w", err)
		}
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.Kind, err)
	}
	return p.client.Publish(ctx, p.Topic(event), payload)
}

// Topic returns the topic an event is published on.
func (p *Publisher) Topic(event events.DatasetEvent) string {
	return p.topic + "/" + event.Habitat + "/" + string(event.Kind)
}
