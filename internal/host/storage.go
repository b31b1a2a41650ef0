package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StorageDirName is the host's private storage directory under the config root.
const StorageDirName = ".storage"

// Storage keys.
const (
	EntriesKey   = "core.config_entries"
	PanelsKey    = "minimalist_ui.panels"
	ResourcesKey = "minimalist_ui.resources"
	StatusKey    = "minimalist_ui.status"
)

const storageVersion = 1

type storageDoc[T any] struct {
	Version int    `json:"version"`
	Key     string `json:"key"`
	Data    T      `json:"data"`
}

// document is a JSON file in the storage directory.
type document[T any] struct {
	mu   sync.Mutex
	path string
	key  string
}

func newDocument[T any](dir, key string) *document[T] {
	return &document[T]{path: filepath.Join(dir, key), key: key}
}

// load returns the zero value when the file does not exist.
func (d *document[T]) load() (T, error) {
	var doc storageDoc[T]
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc.Data, nil
		}
		return doc.Data, err
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc.Data, fmt.Errorf("parse %s: %w", d.path, err)
	}
	return doc.Data, nil
}

func (d *document[T]) save(v T) error {
	if err := os.MkdirAll(filepath.Dir(d.path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(storageDoc[T]{Version: storageVersion, Key: d.key, Data: v}, "", "  ")
	if err != nil {
		return err
	}

	// Write atomically via temp file
	tmpPath := d.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, d.path)
}

func (d *document[T]) read() (T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.load()
}

func (d *document[T]) update(fn func(*T) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.load()
	if err != nil {
		return err
	}
	if err := fn(&v); err != nil {
		return err
	}
	return d.save(v)
}

// Storage is a file-backed host adapter rooted at <config_root>/.storage.
// State survives across processes, so one-shot commands and the daemon
// observe the same entries, panels and resources.
type Storage struct {
	dir       string
	entries   *FileEntries
	panels    *FilePanels
	resources *FileResources
	status    *document[json.RawMessage]
}

// NewStorage creates a storage adapter for the given config root.
func NewStorage(configRoot string) *Storage {
	dir := filepath.Join(configRoot, StorageDirName)
	return &Storage{
		dir:       dir,
		entries:   &FileEntries{doc: newDocument[entriesData](dir, EntriesKey)},
		panels:    &FilePanels{doc: newDocument[map[string]Panel](dir, PanelsKey)},
		resources: &FileResources{doc: newDocument[resourceSet](dir, ResourcesKey)},
		status:    newDocument[json.RawMessage](dir, StatusKey),
	}
}

// Dir returns the storage directory.
func (s *Storage) Dir() string { return s.dir }

// Entries returns the config entry store.
func (s *Storage) Entries() *FileEntries { return s.entries }

// Panels returns the panel registry.
func (s *Storage) Panels() *FilePanels { return s.panels }

// Resources returns the resource registry.
func (s *Storage) Resources() *FileResources { return s.resources }

// SaveStatus persists v as the integration status document.
func (s *Storage) SaveStatus(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.status.update(func(raw *json.RawMessage) error {
		*raw = data
		return nil
	})
}

// LoadStatus decodes the status document into v.
// Returns false when no status has been saved yet.
func (s *Storage) LoadStatus(v any) (bool, error) {
	raw, err := s.status.read()
	if err != nil {
		return false, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

type entriesData struct {
	Entries []ConfigEntry `json:"entries"`
}

func (d *entriesData) set() entrySet {
	s := make(entrySet, len(d.Entries))
	for _, e := range d.Entries {
		s[e.EntryID] = e
	}
	return s
}

func (d *entriesData) store(s entrySet) {
	d.Entries = s.list("")
}

// FileEntries is a ConfigSource persisted in core.config_entries.
type FileEntries struct {
	doc *document[entriesData]
}

func (f *FileEntries) Entries(_ context.Context, domain string) ([]ConfigEntry, error) {
	d, err := f.doc.read()
	if err != nil {
		return nil, err
	}
	return d.set().list(domain), nil
}

func (f *FileEntries) Entry(_ context.Context, entryID string) (ConfigEntry, error) {
	d, err := f.doc.read()
	if err != nil {
		return ConfigEntry{}, err
	}
	return d.set().get(entryID)
}

func (f *FileEntries) CreateEntry(_ context.Context, entry ConfigEntry) (ConfigEntry, error) {
	var created ConfigEntry
	err := f.doc.update(func(d *entriesData) error {
		s := d.set()
		created = s.create(entry)
		d.store(s)
		return nil
	})
	return created, err
}

func (f *FileEntries) UpdateOptions(_ context.Context, entryID string, options map[string]any) (ConfigEntry, error) {
	var updated ConfigEntry
	err := f.doc.update(func(d *entriesData) error {
		s := d.set()
		var err error
		if updated, err = s.updateOptions(entryID, options); err != nil {
			return err
		}
		d.store(s)
		return nil
	})
	return updated, err
}

func (f *FileEntries) SetState(_ context.Context, entryID string, state EntryState, reason string) error {
	return f.doc.update(func(d *entriesData) error {
		s := d.set()
		if err := s.setState(entryID, state, reason); err != nil {
			return err
		}
		d.store(s)
		return nil
	})
}

func (f *FileEntries) RemoveEntry(_ context.Context, entryID string) error {
	return f.doc.update(func(d *entriesData) error {
		s := d.set()
		if err := s.remove(entryID); err != nil {
			return err
		}
		d.store(s)
		return nil
	})
}

// Path returns the backing file path.
func (f *FileEntries) Path() string { return f.doc.path }

// FilePanels is a PanelRegistry persisted in minimalist_ui.panels.
type FilePanels struct {
	doc *document[map[string]Panel]
}

func (f *FilePanels) RegisterPanel(_ context.Context, panel Panel) error {
	return f.doc.update(func(m *map[string]Panel) error {
		if *m == nil {
			*m = make(map[string]Panel)
		}
		panel.UpdatedAt = time.Now().UTC()
		(*m)[panel.URLPath] = panel
		return nil
	})
}

func (f *FilePanels) RemovePanel(_ context.Context, urlPath string) error {
	return f.doc.update(func(m *map[string]Panel) error {
		delete(*m, urlPath)
		return nil
	})
}

func (f *FilePanels) Panel(_ context.Context, urlPath string) (Panel, bool, error) {
	m, err := f.doc.read()
	if err != nil {
		return Panel{}, false, err
	}
	p, ok := m[urlPath]
	return p, ok, nil
}

// FileResources is a ResourceRegistry persisted in minimalist_ui.resources.
type FileResources struct {
	doc *document[resourceSet]
}

func (f *FileResources) AddExtraJSURL(_ context.Context, url string) error {
	return f.doc.update(func(r *resourceSet) error {
		r.addJS(url)
		return nil
	})
}

func (f *FileResources) RegisterStaticPath(_ context.Context, sp StaticPath) error {
	return f.doc.update(func(r *resourceSet) error {
		r.addStatic(sp)
		return nil
	})
}

// ExtraJSURLs returns the registered extra JS URLs.
func (f *FileResources) ExtraJSURLs() ([]string, error) {
	r, err := f.doc.read()
	return r.ExtraJSURLs, err
}

// StaticPaths returns the registered static paths.
func (f *FileResources) StaticPaths() ([]StaticPath, error) {
	r, err := f.doc.read()
	return r.StaticPaths, err
}
