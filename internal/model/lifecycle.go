package model

import "time"

// State is a lifecycle controller state.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateConfiguring   State = "configuring"
	StateEnabled       State = "enabled"
	StateDisabled      State = "disabled"
)

// Event is a host lifecycle event.
type Event string

const (
	EventSetup          Event = "setup"
	EventOptionsChanged Event = "options_changed"
	EventReload         Event = "reload"
	EventRemoval        Event = "removal"
)

// Snapshot is a point-in-time view of the lifecycle, suitable for persisting.
type Snapshot struct {
	State          State          `json:"state"`
	DisabledReason DisabledReason `json:"disabled_reason,omitempty"`
	Provenance     Provenance     `json:"config_type,omitempty"`
	EntryID        string         `json:"config_entry,omitempty"`
	LastEvent      Event          `json:"last_event,omitempty"`
	LastSetupAt    time.Time      `json:"last_setup_at,omitzero"`
	LastError      string         `json:"last_error,omitempty"`
	Configuration  *Configuration `json:"configuration,omitempty"`
}
