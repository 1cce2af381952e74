package provider

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tripzydevops/hotel-sub000/internal/adapters/observability"
	"github.com/tripzydevops/hotel-sub000/internal/domain"
)

const quotaCooldown = 24 * time.Hour

type credential struct {
	key       string
	coolUntil time.Time
}

// KeyRing rotates through a pool of provider credentials. One mutex guards
// the whole ring: rotation decisions are serialized. A quota-exhausted key
// cools down for 24h; a soft rotation just advances without penalizing the
// key.
type KeyRing struct {
	mu   sync.Mutex
	keys []credential
	idx  int
	now  func() time.Time
}

func NewKeyRing(keys []string) *KeyRing {
	creds := make([]credential, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			creds = append(creds, credential{key: k})
		}
	}
	return &KeyRing{keys: creds, now: time.Now}
}

func (r *KeyRing) Size() int { return len(r.keys) }

// Current returns the active non-cooling key, advancing past any keys still
// inside their cooldown. ErrAllKeysCooling when none is usable.
func (r *KeyRing) Current() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentLocked()
}

func (r *KeyRing) currentLocked() (string, error) {
	if len(r.keys) == 0 {
		return "", domain.ErrAllKeysCooling
	}
	now := r.now()
	for i := 0; i < len(r.keys); i++ {
		c := r.keys[(r.idx+i)%len(r.keys)]
		if now.After(c.coolUntil) || now.Equal(c.coolUntil) {
			r.idx = (r.idx + i) % len(r.keys)
			return c.key, nil
		}
	}
	return "", domain.ErrAllKeysCooling
}

// MarkExhausted puts key on a 24h cooldown and advances the ring. Returns
// the next usable key, or ErrAllKeysCooling.
func (r *KeyRing) MarkExhausted(key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.keys {
		if r.keys[i].key == key {
			r.keys[i].coolUntil = r.now().Add(quotaCooldown)
			log.Warn().Int("key_index", i).Time("cool_until", r.keys[i].coolUntil).
				Msg("provider key quota exhausted")
			observability.ObserveKeyRotation("quota")
			break
		}
	}
	return r.currentLocked()
}

// Rotate advances past key without marking it exhausted (transient error on
// the provider side, not a quota problem). No-op when another goroutine has
// already rotated away from key.
func (r *KeyRing) Rotate(key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.keys) > 0 && r.keys[r.idx].key == key {
		r.idx = (r.idx + 1) % len(r.keys)
		observability.ObserveKeyRotation("transient")
	}
	return r.currentLocked()
}
