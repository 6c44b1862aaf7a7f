package serve

import (
	"context"
	"time"

	"github.com/tphakala/birdview/internal/conf"
	"github.com/tphakala/birdview/internal/dataset"
	"github.com/tphakala/birdview/internal/events"
	"github.com/tphakala/birdview/internal/logger"
	"github.com/tphakala/birdview/internal/mqtt"
	"github.com/tphakala/birdview/internal/notification"
)

const eventsShutdownTimeout = 5 * time.Second

// startEvents attaches MQTT publishing and push notifications to the store.
// The returned function drains queued events; it is a no-op when neither
// consumer is enabled.
func startEvents(ctx context.Context, settings *conf.Settings, store *dataset.Store, log logger.Logger) (func(), error) {
	if !settings.MQTT.Enabled && !settings.Notification.Enabled {
		return func() {}, nil
	}

	bus := events.New(&events.Config{
		BufferSize:  settings.Events.BufferSize,
		Workers:     settings.Events.Workers,
		DedupWindow: settings.Events.DedupWindow,
	}, log.Module("events"))

	var mqttClient mqtt.Client
	shutdown := func() {
		if err := bus.Shutdown(eventsShutdownTimeout); err != nil {
			log.Warn("Dataset events not fully delivered", logger.Error(err))
		}
		if mqttClient != nil {
			mqttClient.Disconnect()
		}
	}

	if settings.Notification.Enabled {
		notifier, err := notification.NewFromSettings(&settings.Notification, log.Module("notification"))
		if err != nil {
			shutdown()
			return nil, err
		}
		if err := bus.RegisterConsumer(notifier); err != nil {
			shutdown()
			return nil, err
		}
	}

	if settings.MQTT.Enabled {
		cfg := mqtt.ConfigFromSettings(&settings.MQTT)
		mqttClient = mqtt.NewClient(cfg, log.Module("mqtt"))
		if err := mqttClient.Connect(ctx); err != nil {
			// the publisher reconnects when the next event arrives
			log.Warn("MQTT broker unavailable at startup", logger.Error(err))
		}
		if err := bus.RegisterConsumer(mqtt.NewPublisher(mqttClient, cfg.Topic, log.Module("mqtt"))); err != nil {
			shutdown()
			return nil, err
		}
	}

	store.SetPublisher(bus)
	return shutdown, nil
}
