package model

// DisabledReason explains why the integration is disabled.
type DisabledReason string

const (
	ReasonRateLimit    DisabledReason = "rate_limit"
	ReasonInvalidToken DisabledReason = "invalid_token"
	ReasonLoadFailure  DisabledReason = "load_mui"
)

// SystemStatus is the enabled/disabled state of the integration.
type SystemStatus struct {
	Running        bool           `json:"running"`
	DisabledReason DisabledReason `json:"disabled_reason,omitempty"`
}

// Disabled reports whether a disabled reason is set.
func (s SystemStatus) Disabled() bool {
	return s.DisabledReason != ""
}

// Disable sets the disabled reason.
// Returns false when the status already carries the same reason.
func (s *SystemStatus) Disable(reason DisabledReason) bool {
	if s.DisabledReason == reason {
		return false
	}
	s.DisabledReason = reason
	return true
}

// Enable clears the disabled reason. Returns true if a reason was cleared.
func (s *SystemStatus) Enable() bool {
	if s.DisabledReason == "" {
		return false
	}
	s.DisabledReason = ""
	return true
}
