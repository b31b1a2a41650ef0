// Package host defines the capabilities minimalistui needs from the
// home-automation host, together with in-memory and file-backed adapters.
package host

import (
	"context"
	"errors"
	"io/fs"
	"time"
)

// Host adapter errors.
var (
	ErrEntryNotFound   = errors.New("config entry not found")
	ErrServiceNotFound = errors.New("service not found")
	ErrSingleInstance  = errors.New("single_instance_allowed")
)

// ConfigSource gives access to host-managed config entries.
type ConfigSource interface {
	Entries(ctx context.Context, domain string) ([]ConfigEntry, error)
	Entry(ctx context.Context, entryID string) (ConfigEntry, error)
	CreateEntry(ctx context.Context, entry ConfigEntry) (ConfigEntry, error)
	UpdateOptions(ctx context.Context, entryID string, options map[string]any) (ConfigEntry, error)
	SetState(ctx context.Context, entryID string, state EntryState, reason string) error
	RemoveEntry(ctx context.Context, entryID string) error
}

// Panel is a sidebar dashboard registered with the host front end.
type Panel struct {
	URLPath       string    `json:"url_path"`
	Mode          string    `json:"mode"`
	Title         string    `json:"title"`
	Icon          string    `json:"icon"`
	Filename      string    `json:"filename"`
	ShowInSidebar bool      `json:"show_in_sidebar"`
	RequireAdmin  bool      `json:"require_admin"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PanelRegistry registers dashboard panels.
type PanelRegistry interface {
	RegisterPanel(ctx context.Context, panel Panel) error
	RemovePanel(ctx context.Context, urlPath string) error
	Panel(ctx context.Context, urlPath string) (Panel, bool, error)
}

// StaticPath maps a URL prefix to a directory served by the host.
type StaticPath struct {
	URLPath string `json:"url_path"`
	Dir     string `json:"dir"`
	Cache   bool   `json:"cache"`
}

// ResourceRegistry registers front-end resources.
type ResourceRegistry interface {
	AddExtraJSURL(ctx context.Context, url string) error
	RegisterStaticPath(ctx context.Context, sp StaticPath) error
}

// Event is a message fired on the host event bus.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"event_type"`
	Data      map[string]any `json:"data,omitempty"`
	TimeFired time.Time      `json:"time_fired"`
}

// EventBus fires host events.
type EventBus interface {
	Fire(ctx context.Context, eventType string, data map[string]any) error
}

// ServiceCall is an invocation of a registered service.
type ServiceCall struct {
	Domain  string
	Service string
	Data    map[string]any
}

// ServiceHandler handles a service call.
type ServiceHandler func(ctx context.Context, call ServiceCall) error

// ServiceRegistry exposes commands to the host's automation layer.
type ServiceRegistry interface {
	RegisterService(domain, service string, handler ServiceHandler)
	RemoveService(domain, service string)
	CallService(ctx context.Context, domain, service string, data map[string]any) error
}

// CopyStats summarises a copy operation.
type CopyStats struct {
	Files int
	Bytes int64
}

// Add accumulates other into s.
func (s *CopyStats) Add(other CopyStats) {
	s.Files += other.Files
	s.Bytes += other.Bytes
}

// AssetStore is the user configuration tree assets are installed into.
// Relative paths resolve against the configuration root; absolute paths are
// used as given.
type AssetStore interface {
	Path(elem ...string) string
	Exists(rel string) bool
	MkdirAll(rel string) error
	RemoveAll(rel string) error
	CopyFile(src fs.FS, srcPath, dstRel string) (CopyStats, error)
	CopyTree(src fs.FS, srcDir, dstRel string) (CopyStats, error)
	FS(rel string) fs.FS
}

// Host bundles the capabilities handed to the lifecycle controller.
type Host struct {
	Entries   ConfigSource
	Panels    PanelRegistry
	Resources ResourceRegistry
	Bus       EventBus
	Services  ServiceRegistry
	Files     AssetStore
}
