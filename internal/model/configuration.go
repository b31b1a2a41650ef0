// Package model defines the core data structures for minimalistui.
package model

import (
	"fmt"
	"maps"
	"strconv"
)

// Domain is the integration domain registered with the host.
const (
	Domain = "minimalist_ui"
	Name   = "Minimalist UI"
)

// Option keys as they appear in host configuration and config entries.
const (
	KeySidepanelEnabled  = "sidepanel_enabled"
	KeySidepanelTitle    = "sidepanel_title"
	KeySidepanelIcon     = "sidepanel_icon"
	KeyAdaptiveUIEnabled = "adaptive_ui_enabled"
	KeyAdaptiveUITitle   = "adaptive_ui_title"
	KeyAdaptiveUIIcon    = "adaptive_ui_icon"
	KeyTheme             = "theme"
	KeyThemePath         = "theme_path"
	KeyPluginPath        = "plugin_path"
	KeyIncludeOtherCards = "include_other_cards"
	KeyLanguage          = "language"
	KeyToken             = "token"
	keyConfigType        = "config_type"
	keyRawConfig         = "config"
	keyConfigEntryID     = "config_entry"
)

// Default option values.
const (
	DefaultSidepanelEnabled  = true
	DefaultSidepanelTitle    = Name
	DefaultSidepanelIcon     = "mdi:monitor-dashboard"
	DefaultTheme             = "minimalist-desktop"
	DefaultThemePath         = "themes/"
	DefaultPluginPath        = "www/community/"
	DefaultIncludeOtherCards = false
	DefaultLanguage          = "English (GB)"
)

// Provenance records where the current configuration came from.
type Provenance string

const (
	// ProvenanceUnset means no configuration has been applied yet.
	ProvenanceUnset Provenance = ""
	// ProvenanceFile is static configuration from the host's configuration.yaml.
	ProvenanceFile Provenance = "yaml"
	// ProvenanceEntry is a host-managed, UI-editable config entry.
	ProvenanceEntry Provenance = "config_entry"
)

// Configuration is the mutable configuration record for the integration.
type Configuration struct {
	Provenance Provenance `json:"config_type"`
	EntryID    string     `json:"config_entry,omitempty"`

	SidepanelEnabled  bool   `json:"sidepanel_enabled"`
	SidepanelTitle    string `json:"sidepanel_title"`
	SidepanelIcon     string `json:"sidepanel_icon"`
	AdaptiveUIEnabled bool   `json:"adaptive_ui_enabled"`
	AdaptiveUITitle   string `json:"adaptive_ui_title"`
	AdaptiveUIIcon    string `json:"adaptive_ui_icon"`
	Theme             string `json:"theme"`
	ThemePath         string `json:"theme_path"`
	PluginPath        string `json:"plugin_path"`
	IncludeOtherCards bool   `json:"include_other_cards"`
	Language          string `json:"language"`
	Token             string `json:"token,omitempty"`

	// Raw is the file-based mapping as read from configuration.yaml.
	Raw map[string]any `json:"config,omitempty"`
	// Extra holds keys this record does not know about.
	Extra map[string]any `json:"extra,omitempty"`
}

// NewConfiguration returns a record holding the default options.
func NewConfiguration() *Configuration {
	return &Configuration{
		SidepanelEnabled:  DefaultSidepanelEnabled,
		SidepanelTitle:    DefaultSidepanelTitle,
		SidepanelIcon:     DefaultSidepanelIcon,
		AdaptiveUIEnabled: DefaultSidepanelEnabled,
		AdaptiveUITitle:   DefaultSidepanelTitle,
		AdaptiveUIIcon:    DefaultSidepanelIcon,
		Theme:             DefaultTheme,
		ThemePath:         DefaultThemePath,
		PluginPath:        DefaultPluginPath,
		IncludeOtherCards: DefaultIncludeOtherCards,
		Language:          DefaultLanguage,
	}
}

// UpdateFromMap merges data into the record.
// Updates from file-based configuration are ignored once the record is
// backed by a config entry. data must be a map[string]any.
func (c *Configuration) UpdateFromMap(p Provenance, data any) error {
	m, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: expected a mapping, got %T", ErrInvalidConfiguration, data)
	}

	if c.Provenance == ProvenanceEntry && p == ProvenanceFile {
		return nil
	}

	for key, value := range m {
		c.set(key, value)
	}
	if p != ProvenanceUnset {
		c.Provenance = p
	}
	if p == ProvenanceFile {
		c.Raw = maps.Clone(m)
	}
	return nil
}

// set assigns a single key. Field values are not validated: scalars are
// coerced to the field's kind and a value that cannot be read as a bool is
// kept in Extra under its key.
func (c *Configuration) set(key string, value any) {
	switch key {
	case KeySidepanelEnabled:
		c.setBool(key, value, &c.SidepanelEnabled)
	case KeySidepanelTitle:
		setString(value, &c.SidepanelTitle)
	case KeySidepanelIcon:
		setString(value, &c.SidepanelIcon)
	case KeyAdaptiveUIEnabled:
		c.setBool(key, value, &c.AdaptiveUIEnabled)
	case KeyAdaptiveUITitle:
		setString(value, &c.AdaptiveUITitle)
	case KeyAdaptiveUIIcon:
		setString(value, &c.AdaptiveUIIcon)
	case KeyTheme:
		setString(value, &c.Theme)
	case KeyThemePath:
		setString(value, &c.ThemePath)
	case KeyPluginPath:
		setString(value, &c.PluginPath)
	case KeyIncludeOtherCards:
		c.setBool(key, value, &c.IncludeOtherCards)
	case KeyLanguage:
		setString(value, &c.Language)
	case KeyToken:
		setString(value, &c.Token)
	case keyConfigEntryID:
		setString(value, &c.EntryID)
	case keyConfigType, keyRawConfig:
		// Provenance and raw config are derived from the update itself.
	default:
		c.setExtra(key, value)
	}
}

func (c *Configuration) setExtra(key string, value any) {
	if c.Extra == nil {
		c.Extra = make(map[string]any)
	}
	c.Extra[key] = value
}

func (c *Configuration) setBool(key string, value any, dst *bool) {
	switch v := value.(type) {
	case bool:
		*dst = v
		return
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
			return
		}
	}
	c.setExtra(key, value)
}

// setString stores value's text form; nil clears the field.
func setString(value any, dst *string) {
	switch v := value.(type) {
	case nil:
		*dst = ""
	case string:
		*dst = v
	default:
		*dst = fmt.Sprint(v)
	}
}

// ToMap returns the option keys and their current values.
func (c *Configuration) ToMap() map[string]any {
	return map[string]any{
		KeySidepanelEnabled:  c.SidepanelEnabled,
		KeySidepanelTitle:    c.SidepanelTitle,
		KeySidepanelIcon:     c.SidepanelIcon,
		KeyAdaptiveUIEnabled: c.AdaptiveUIEnabled,
		KeyAdaptiveUITitle:   c.AdaptiveUITitle,
		KeyAdaptiveUIIcon:    c.AdaptiveUIIcon,
		KeyTheme:             c.Theme,
		KeyThemePath:         c.ThemePath,
		KeyPluginPath:        c.PluginPath,
		KeyIncludeOtherCards: c.IncludeOtherCards,
		KeyLanguage:          c.Language,
		KeyToken:             c.Token,
	}
}

// Clone returns a deep copy of the record.
func (c *Configuration) Clone() *Configuration {
	out := *c
	out.Raw = maps.Clone(c.Raw)
	out.Extra = maps.Clone(c.Extra)
	return &out
}
