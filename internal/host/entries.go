package host

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// EntrySource is how a config entry was created.
type EntrySource string

const (
	SourceUser   EntrySource = "user"
	SourceImport EntrySource = "import"
)

// EntryState is the load state the host shows for an entry.
type EntryState string

const (
	EntryNotLoaded  EntryState = "not_loaded"
	EntryLoaded     EntryState = "loaded"
	EntrySetupError EntryState = "setup_error"
)

// ConfigEntry is a host-managed, UI-editable configuration object.
type ConfigEntry struct {
	EntryID   string         `json:"entry_id"`
	Domain    string         `json:"domain"`
	Title     string         `json:"title"`
	Source    EntrySource    `json:"source"`
	Data      map[string]any `json:"data"`
	Options   map[string]any `json:"options"`
	State     EntryState     `json:"state"`
	Reason    string         `json:"reason,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewConfigEntry creates an entry with a fresh ULID.
func NewConfigEntry(domain, title string, source EntrySource, data map[string]any) ConfigEntry {
	now := time.Now().UTC()
	if data == nil {
		data = map[string]any{}
	}
	return ConfigEntry{
		EntryID:   ulid.Make().String(),
		Domain:    domain,
		Title:     title,
		Source:    source,
		Data:      data,
		Options:   map[string]any{},
		State:     EntryNotLoaded,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Merged returns Data overlaid with Options.
func (e ConfigEntry) Merged() map[string]any {
	out := maps.Clone(e.Data)
	if out == nil {
		out = map[string]any{}
	}
	maps.Copy(out, e.Options)
	return out
}

func (e ConfigEntry) clone() ConfigEntry {
	e.Data = maps.Clone(e.Data)
	e.Options = maps.Clone(e.Options)
	return e
}

// entrySet holds entries by id. Callers synchronise access.
type entrySet map[string]ConfigEntry

func (s entrySet) list(domain string) []ConfigEntry {
	var out []ConfigEntry
	for _, e := range s {
		if domain == "" || e.Domain == domain {
			out = append(out, e.clone())
		}
	}
	slices.SortFunc(out, func(a, b ConfigEntry) int {
		return strings.Compare(a.EntryID, b.EntryID)
	})
	return out
}

func (s entrySet) get(id string) (ConfigEntry, error) {
	e, ok := s[id]
	if !ok {
		return ConfigEntry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return e.clone(), nil
}

func (s entrySet) create(e ConfigEntry) ConfigEntry {
	if e.EntryID == "" {
		e.EntryID = ulid.Make().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	e.UpdatedAt = e.CreatedAt
	if e.State == "" {
		e.State = EntryNotLoaded
	}
	s[e.EntryID] = e.clone()
	return e.clone()
}

func (s entrySet) updateOptions(id string, options map[string]any) (ConfigEntry, error) {
	e, ok := s[id]
	if !ok {
		return ConfigEntry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	e.Options = maps.Clone(options)
	e.UpdatedAt = time.Now().UTC()
	s[id] = e
	return e.clone(), nil
}

func (s entrySet) setState(id string, state EntryState, reason string) error {
	e, ok := s[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	e.State = state
	e.Reason = reason
	s[id] = e
	return nil
}

func (s entrySet) remove(id string) error {
	if _, ok := s[id]; !ok {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	delete(s, id)
	return nil
}

// MemoryEntries is an in-memory ConfigSource.
type MemoryEntries struct {
	mu      sync.RWMutex
	entries entrySet
}

// NewMemoryEntries creates an empty in-memory entry store.
func NewMemoryEntries() *MemoryEntries {
	return &MemoryEntries{entries: make(entrySet)}
}

func (m *MemoryEntries) Entries(_ context.Context, domain string) ([]ConfigEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries.list(domain), nil
}

func (m *MemoryEntries) Entry(_ context.Context, entryID string) (ConfigEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries.get(entryID)
}

func (m *MemoryEntries) CreateEntry(_ context.Context, entry ConfigEntry) (ConfigEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries.create(entry), nil
}

func (m *MemoryEntries) UpdateOptions(_ context.Context, entryID string, options map[string]any) (ConfigEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries.updateOptions(entryID, options)
}

func (m *MemoryEntries) SetState(_ context.Context, entryID string, state EntryState, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries.setState(entryID, state, reason)
}

func (m *MemoryEntries) RemoveEntry(_ context.Context, entryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries.remove(entryID)
}
