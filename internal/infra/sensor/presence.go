package sensor

import (
	"sync"
	"time"

	"github.com/ceickmeyer/nfc-music-player/internal/domain/tag"
)

// presence tracks the most recently observed tag and ages it out after
// the TTL, turning a sighting stream into a present/absent signal.
type presence struct {
	mu   sync.Mutex
	ttl  time.Duration
	last tag.ID
	seen time.Time
	now  func() time.Time
}

func newPresence(ttl time.Duration) *presence {
	return &presence{ttl: ttl, now: time.Now}
}

// observe records a tag sighting.
func (p *presence) observe(id tag.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = id
	p.seen = p.now()
}

// current returns the tag observed within the TTL window, or tag.None.
func (p *presence) current() tag.ID {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == tag.None || p.now().Sub(p.seen) > p.ttl {
		return tag.None
	}
	return p.last
}
