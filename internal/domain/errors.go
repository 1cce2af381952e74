package domain

import "errors"

var (
	// ErrNotFound: the provider has no listing for the hotel after the full
	// fallback ladder, or a read query matched nothing.
	ErrNotFound = errors.New("not found")

	// ErrQuotaExceeded: the active credential's daily quota is spent. The
	// gateway rotates and retries once before surfacing this.
	ErrQuotaExceeded = errors.New("provider quota exceeded")

	// ErrProviderTransient: 429/5xx/timeout. Soft-rotate and retry once.
	ErrProviderTransient = errors.New("provider transient error")

	// ErrAllKeysCooling: every credential in the ring is inside its cooldown
	// window; the call fails without reaching the provider.
	ErrAllKeysCooling = errors.New("all provider keys cooling down")
)
