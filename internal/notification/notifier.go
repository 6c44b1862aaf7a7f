// Package notification sends push alerts when a habitat table fails to load
// and when it recovers, through shoutrrr service URLs.
package notification

import (
	"context"
	"fmt"
	"io"
	"log"
	"slices"
	"sync"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/tphakala/birdview/internal/conf"
	"github.com/tphakala/birdview/internal/events"
	"github.com/tphakala/birdview/internal/logger"
	"github.com/tphakala/birdview/internal/privacy"
)

// Sender delivers a message to every configured service.
// *router.ServiceRouter implements it.
type Sender interface {
	Send(message string, params *stypes.Params) []error
}

// Notifier is an event bus consumer that alerts on failed loads, and on the
// first successful load after a failure.
type Notifier struct {
	sender Sender
	log    logger.Logger

	mu     sync.Mutex
	failed map[string]bool // habitats whose last load failed
}

// New creates a notifier delivering through sender.
func New(sender Sender, log logger.Logger) *Notifier {
	if log == nil {
		log = logger.Global().Module("notification")
	}
	return &Notifier{
		sender: sender,
		log:    log,
		failed: make(map[string]bool),
	}
}

// NewShoutrrr builds a notifier for the shoutrrr service URLs in urls.
func NewShoutrrr(urls []string, timeout time.Duration, l logger.Logger) (*Notifier, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("at least one notification URL is required")
	}
	sender, err := shoutrrr.CreateSender(slices.Clone(urls)...)
	if err != nil {
		// service URLs carry tokens
		return nil, privacy.WrapError(err)
	}
	if timeout > 0 {
		sender.Timeout = timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))
	return New(sender, l), nil
}

// NewFromSettings builds a shoutrrr notifier from the notification settings.
func NewFromSettings(cfg *conf.NotificationConfig, l logger.Logger) (*Notifier, error) {
	return NewShoutrrr(cfg.URLs, cfg.Timeout, l)
}

// Name implements events.Consumer.
func (n *Notifier) Name() string { return "notification" }

// ProcessEvent implements events.Consumer.
func (n *Notifier) ProcessEvent(_ context.Context, event events.DatasetEvent) error {
	title, body, ok := n.compose(event)
	if !ok {
		return nil
	}

	params := stypes.Params{}
	params.SetTitle(title)
	for _, err := range n.sender.Send(body, &params) {
		if err != nil {
			return privacy.WrapError(err)
		}
	}
	n.log.Info("Sent dataset notification",
		logger.String("kind", string(event.Kind)),
		logger.String("habitat", event.Habitat))
	return nil
}

// compose renders the alert for event, or reports false when none is due.
func (n *Notifier) compose(event events.DatasetEvent) (title, body string, ok bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch event.Kind {
	case events.KindLoadFailed:
		n.failed[event.Habitat] = true
		title = fmt.Sprintf("birdview: %s dataset failed to load", event.Habitat)
		body = fmt.Sprintf("Loading the %s observation table from %s failed (%s): %s",
			event.Habitat, describeSource(event), event.Category, event.Message)
		return title, body, true
	case events.KindLoaded:
		if !n.failed[event.Habitat] {
			return "", "", false
		}
		delete(n.failed, event.Habitat)
		title = fmt.Sprintf("birdview: %s dataset recovered", event.Habitat)
		body = fmt.Sprintf("The %s observation table loaded again from %s with %d rows.",
			event.Habitat, describeSource(event), event.Rows)
		return title, body, true
	default:
		return "", "", false
	}
}

func describeSource(event events.DatasetEvent) string {
	switch {
	case event.Source != "":
		return event.Source
	case event.SourceType != "":
		return event.SourceType + " source"
	default:
		return "its source"
	}
}
