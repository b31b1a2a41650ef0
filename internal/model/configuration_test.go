package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfiguration_Defaults(t *testing.T) {
	c := NewConfiguration()

	assert.Equal(t, ProvenanceUnset, c.Provenance)
	assert.True(t, c.SidepanelEnabled)
	assert.Equal(t, "Minimalist UI", c.SidepanelTitle)
	assert.Equal(t, "mdi:monitor-dashboard", c.SidepanelIcon)
	assert.Equal(t, "minimalist-desktop", c.Theme)
	assert.Equal(t, "themes/", c.ThemePath)
	assert.Equal(t, "www/community/", c.PluginPath)
	assert.False(t, c.IncludeOtherCards)
	assert.Equal(t, "English (GB)", c.Language)
	assert.Empty(t, c.Token)
}

func TestUpdateFromMap_MergesKeys(t *testing.T) {
	c := NewConfiguration()

	err := c.UpdateFromMap(ProvenanceFile, map[string]any{
		"sidepanel_title": "Home",
		"theme":           "minimalist-mobile",
		"custom_key":      42,
	})
	require.NoError(t, err)

	assert.Equal(t, ProvenanceFile, c.Provenance)
	assert.Equal(t, "Home", c.SidepanelTitle)
	assert.Equal(t, "minimalist-mobile", c.Theme)
	assert.Equal(t, "mdi:monitor-dashboard", c.SidepanelIcon, "untouched keys keep their value")
	assert.Equal(t, 42, c.Extra["custom_key"])
	assert.Equal(t, "Home", c.Raw["sidepanel_title"])
}

func TestUpdateFromMap_NotAMapping(t *testing.T) {
	tests := []struct {
		name string
		data any
	}{
		{"nil", nil},
		{"string", "theme: minimalist-mobile"},
		{"slice", []any{"a", "b"}},
		{"typed map", map[string]string{"theme": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConfiguration()
			err := c.UpdateFromMap(ProvenanceFile, tt.data)
			assert.True(t, errors.Is(err, ErrInvalidConfiguration))
			assert.Equal(t, NewConfiguration(), c)
		})
	}
}

func TestUpdateFromMap_CoercesFieldValues(t *testing.T) {
	tests := []struct {
		name  string
		data  map[string]any
		check func(t *testing.T, c *Configuration)
	}{
		{
			name: "integer title",
			data: map[string]any{"sidepanel_title": 2024},
			check: func(t *testing.T, c *Configuration) {
				assert.Equal(t, "2024", c.SidepanelTitle)
			},
		},
		{
			name: "bool icon",
			data: map[string]any{"sidepanel_icon": true},
			check: func(t *testing.T, c *Configuration) {
				assert.Equal(t, "true", c.SidepanelIcon)
			},
		},
		{
			name: "string bool",
			data: map[string]any{"include_other_cards": "true"},
			check: func(t *testing.T, c *Configuration) {
				assert.True(t, c.IncludeOtherCards)
			},
		},
		{
			name: "unreadable bool kept as extra",
			data: map[string]any{"sidepanel_enabled": "yes please", "sidepanel_title": "Changed"},
			check: func(t *testing.T, c *Configuration) {
				assert.True(t, c.SidepanelEnabled)
				assert.Equal(t, "yes please", c.Extra["sidepanel_enabled"])
				assert.Equal(t, "Changed", c.SidepanelTitle)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConfiguration()
			require.NoError(t, c.UpdateFromMap(ProvenanceFile, tt.data))
			assert.Equal(t, ProvenanceFile, c.Provenance)
			tt.check(t, c)
		})
	}
}

func TestUpdateFromMap_EntryProvenanceIgnoresFileUpdates(t *testing.T) {
	inputs := []map[string]any{
		{"theme": "minimalist-mobile"},
		{"sidepanel_enabled": false, "sidepanel_title": "File"},
		{"language": "Deutsch", "theme_path": "other/"},
		{},
	}

	for _, in := range inputs {
		c := NewConfiguration()
		require.NoError(t, c.UpdateFromMap(ProvenanceEntry, map[string]any{
			"config_entry":    "01HZY",
			"sidepanel_title": "Entry",
		}))
		before := c.Clone()

		require.NoError(t, c.UpdateFromMap(ProvenanceFile, in))
		assert.Equal(t, before, c)
	}
}

func TestUpdateFromMap_EntryOverridesFile(t *testing.T) {
	c := NewConfiguration()
	require.NoError(t, c.UpdateFromMap(ProvenanceFile, map[string]any{"theme": "minimalist-mobile"}))
	require.NoError(t, c.UpdateFromMap(ProvenanceEntry, map[string]any{"theme": "minimalist-mobile-tapbar"}))

	assert.Equal(t, ProvenanceEntry, c.Provenance)
	assert.Equal(t, "minimalist-mobile-tapbar", c.Theme)
}

func TestUpdateFromMap_NilTokenClears(t *testing.T) {
	c := NewConfiguration()
	require.NoError(t, c.UpdateFromMap(ProvenanceEntry, map[string]any{"token": "abc"}))
	assert.Equal(t, "abc", c.Token)

	require.NoError(t, c.UpdateFromMap(ProvenanceEntry, map[string]any{"token": nil}))
	assert.Empty(t, c.Token)
}

func TestToMap_RoundTripsThroughUpdate(t *testing.T) {
	src := NewConfiguration()
	src.Theme = "minimalist-mobile"
	src.SidepanelEnabled = false

	dst := NewConfiguration()
	require.NoError(t, dst.UpdateFromMap(ProvenanceEntry, src.ToMap()))

	assert.Equal(t, "minimalist-mobile", dst.Theme)
	assert.False(t, dst.SidepanelEnabled)
}

func TestClone_IsDeep(t *testing.T) {
	c := NewConfiguration()
	require.NoError(t, c.UpdateFromMap(ProvenanceFile, map[string]any{"x": 1}))

	cp := c.Clone()
	cp.Extra["x"] = 2
	cp.Raw["x"] = 2

	assert.Equal(t, 1, c.Extra["x"])
	assert.Equal(t, 1, c.Raw["x"])
}
