package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// HostConfigFile is the host's static configuration, relative to the config root.
const HostConfigFile = "configuration.yaml"

// HostConfigPath returns the static configuration path below root.
func HostConfigPath(root string) string {
	return filepath.Join(root, HostConfigFile)
}

// LoadHostConfig reads the host's configuration.yaml into a mapping.
// Host-specific tags such as !include or !secret are not resolved; their
// values are kept as plain strings. A missing file yields an empty mapping.
func LoadHostConfig(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("failed to read host config: %w", err)
	}
	return ParseHostConfig(data)
}

// ParseHostConfig parses configuration.yaml content.
func ParseHostConfig(data []byte) (map[string]any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse host config: %w", err)
	}

	out := map[string]any{}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return out, nil
	}

	stripLocalTags(&doc)
	if err := doc.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode host config: %w", err)
	}
	return out, nil
}

// stripLocalTags drops application-specific tags (single "!") so the
// document decodes into plain values.
func stripLocalTags(n *yaml.Node) {
	if strings.HasPrefix(n.Tag, "!") && !strings.HasPrefix(n.Tag, "!!") {
		if n.Kind == yaml.ScalarNode {
			n.Tag = "!!str"
		} else {
			n.Tag = ""
		}
	}
	for _, c := range n.Content {
		stripLocalTags(c)
	}
}
