// Package options implements the config flow and the options form for the
// integration.
package options

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/jmylchreest/minimalistui/internal/model"
	"github.com/jmylchreest/minimalistui/internal/theme"
)

// ErrNotSetup aborts the options flow when there is no configuration.
var ErrNotSetup = errors.New("not_setup")

// PlaceholderKey is the only field shown while static configuration is in use.
const PlaceholderKey = "not_in_use"

// EntryTitle is the title of the entry holding submitted options.
const EntryTitle = model.Name

// Kind is the input type of a field.
type Kind int

const (
	KindBool Kind = iota
	KindString
	KindSelect
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindSelect:
		return "select"
	default:
		return "unknown"
	}
}

// Field is a single options form field.
type Field struct {
	Key     string
	Title   string
	Kind    Kind
	Default any
	Choices []string // KindSelect only
}

// Schema returns the options form for cfg. Fields default to the current values.
func Schema(cfg *model.Configuration) ([]Field, error) {
	if cfg == nil || cfg.Provenance == model.ProvenanceUnset {
		return nil, ErrNotSetup
	}
	if cfg.Provenance == model.ProvenanceFile {
		return []Field{{Key: PlaceholderKey, Title: "Configured in configuration.yaml", Kind: KindString, Default: ""}}, nil
	}

	return []Field{
		{Key: model.KeySidepanelEnabled, Title: "Show in sidebar", Kind: KindBool, Default: cfg.SidepanelEnabled},
		{Key: model.KeySidepanelTitle, Title: "Sidebar title", Kind: KindString, Default: cfg.SidepanelTitle},
		{Key: model.KeySidepanelIcon, Title: "Sidebar icon", Kind: KindString, Default: cfg.SidepanelIcon},
		{Key: model.KeyTheme, Title: "Theme", Kind: KindSelect, Default: cfg.Theme, Choices: theme.Options()},
		{Key: model.KeyThemePath, Title: "Theme path", Kind: KindString, Default: cfg.ThemePath},
	}, nil
}

// Validate checks input against fields, filling absent keys with the field
// defaults. Keys outside the schema are rejected.
func Validate(fields []Field, input map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	known := make(map[string]Field, len(fields))
	for _, f := range fields {
		known[f.Key] = f
		out[f.Key] = f.Default
	}

	for key, value := range input {
		f, ok := known[key]
		if !ok {
			return nil, fmt.Errorf("%w: unknown option %q", model.ErrInvalidConfiguration, key)
		}
		switch f.Kind {
		case KindBool:
			if _, ok := value.(bool); !ok {
				return nil, fmt.Errorf("%w: %s must be a bool, got %T", model.ErrInvalidConfiguration, key, value)
			}
		case KindString:
			if _, ok := value.(string); !ok {
				return nil, fmt.Errorf("%w: %s must be a string, got %T", model.ErrInvalidConfiguration, key, value)
			}
		case KindSelect:
			s, ok := value.(string)
			if !ok || !slices.Contains(f.Choices, s) {
				return nil, fmt.Errorf("%w: %s must be one of %q, got %v", model.ErrInvalidConfiguration, key, f.Choices, value)
			}
		}
		out[key] = value
	}
	return out, nil
}

// Submit validates input for cfg and returns the options mapping to store on
// the entry. While static configuration is in use nothing is stored.
func Submit(cfg *model.Configuration, input map[string]any) (map[string]any, error) {
	fields, err := Schema(cfg)
	if err != nil {
		return nil, err
	}
	values, err := Validate(fields, input)
	if err != nil {
		return nil, err
	}
	if cfg.Provenance == model.ProvenanceFile {
		return map[string]any{}, nil
	}
	return maps.Clone(values), nil
}
