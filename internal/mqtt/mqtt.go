// Package mqtt publishes dataset lifecycle events to an MQTT broker so home
// automation and monitoring can react to habitat tables loading or failing.
package mqtt

import (
	"context"
	"time"

	"github.com/tphakala/birdview/internal/conf"
)

// Client is the subset of broker operations the event publisher needs.
type Client interface {
	Connect(ctx context.Context) error
	Publish(ctx context.Context, topic string, payload []byte) error
	IsConnected() bool
	Disconnect()
}

// Config configures the paho-backed Client.
type Config struct {
	Broker   string // e.g. tcp://localhost:1883
	ClientID string
	Username string
	Password string

	Topic  string // events go to <Topic>/<habitat>/<kind>
	Retain bool

	ReconnectCooldown time.Duration // minimum gap between Connect calls
	ConnectTimeout    time.Duration
	PublishTimeout    time.Duration
	DisconnectTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		ClientID:          "birdview",
		Topic:             "birdview",
		ReconnectCooldown: 5 * time.Second,
		ConnectTimeout:    30 * time.Second,
		PublishTimeout:    10 * time.Second,
		DisconnectTimeout: 250 * time.Millisecond,
	}
}

// ConfigFromSettings overlays the mqtt settings section on DefaultConfig.
func ConfigFromSettings(s *conf.MQTTConfig) Config {
	c := DefaultConfig()
	c.Broker, c.Username, c.Password, c.Retain = s.Broker, s.Username, s.Password, s.Retain
	if s.ClientID != "" {
		c.ClientID = s.ClientID
	}
	if s.Topic != "" {
		c.Topic = s.Topic
	}
	return c
}
