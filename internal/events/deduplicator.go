package events

import (
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
)

// Deduplicator suppresses repeated identical load failures within a window.
// A successful load of the habitat clears its failure history so the next
// failure is reported again. A nil *Deduplicator lets everything through.
type Deduplicator struct {
	seen       *cache.Cache
	window     time.Duration
	suppressed atomic.Uint64
}

// NewDeduplicator returns nil when window is not positive.
func NewDeduplicator(window time.Duration) *Deduplicator {
	if window <= 0 {
		return nil
	}
	return &Deduplicator{
		seen:   cache.New(window, 0), // expired keys are swept on successful loads
		window: window,
	}
}

// ShouldProcess reports whether event should be delivered.
func (d *Deduplicator) ShouldProcess(event DatasetEvent) bool {
	if d == nil {
		return true
	}

	switch event.Kind {
	case KindLoaded, KindInvalidated:
		d.forgetHabitat(event.Habitat)
		return true
	case KindLoadFailed:
		// Add fails while an identical key is still live
		if err := d.seen.Add(failureKey(event), event.Habitat, d.window); err != nil {
			d.suppressed.Add(1)
			return false
		}
		return true
	default:
		return true
	}
}

// Suppressed returns the number of events held back so far.
func (d *Deduplicator) Suppressed() uint64 {
	if d == nil {
		return 0
	}
	return d.suppressed.Load()
}

func (d *Deduplicator) forgetHabitat(habitat string) {
	d.seen.DeleteExpired()
	for key, item := range d.seen.Items() {
		if item.Object == habitat {
			d.seen.Delete(key)
		}
	}
}

func failureKey(event DatasetEvent) string {
	h := sha256.Sum256([]byte(event.Habitat + "\x00" + event.Category + "\x00" + event.Message))
	return hex.EncodeToString(h[:8])
}
