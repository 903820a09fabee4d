package model

import "time"

// FieldProvenance records which provider supplied an enriched field.
type FieldProvenance struct {
	Provider   string    `json:"provider"`
	FieldGroup string    `json:"field_group,omitempty"`
	Cached     bool      `json:"cached"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// ProviderAttempt records one step through a provider chain.
type ProviderAttempt struct {
	Provider   string `json:"provider"`
	FieldGroup string `json:"field_group"`
	// Outcome is "ok", "cache_hit", or an error kind such as "rate_limited".
	// A result without a usable field is recorded as "not_found".
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}
