package models

import "time"

// Provenance tags where a resolved value came from so callers can
// decide whether to trust it, warn, or degrade gracefully.
type Provenance string

const (
	// ProvenanceTrusted values came from the remote ledger.
	ProvenanceTrusted Provenance = "TRUSTED"

	// ProvenanceFallback values were substituted by the deterministic
	// local source after the remote query failed.
	ProvenanceFallback Provenance = "FALLBACK"

	// ProvenanceError values are fallback values whose originating
	// error should be surfaced to the user.
	ProvenanceError Provenance = "ERROR"
)

// Balance is the wallet's balance along with where it came from and
// when it was observed. The amount is never negative at rest, though
// an in-flight optimistic debit may transiently hold it below the last
// remote-confirmed value.
type Balance struct {
	Amount     Amount     `json:"amount"`
	Provenance Provenance `json:"provenance"`
	ObservedAt time.Time  `json:"observedAt"`
	Err        string     `json:"error,omitempty"`
}
