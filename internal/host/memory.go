package host

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// MatchAll subscribes a listener to every event type.
const MatchAll = "*"

// MemoryPanels is an in-memory PanelRegistry.
type MemoryPanels struct {
	mu     sync.RWMutex
	panels map[string]Panel
}

// NewMemoryPanels creates an empty panel registry.
func NewMemoryPanels() *MemoryPanels {
	return &MemoryPanels{panels: make(map[string]Panel)}
}

func (m *MemoryPanels) RegisterPanel(_ context.Context, panel Panel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	panel.UpdatedAt = time.Now().UTC()
	m.panels[panel.URLPath] = panel
	return nil
}

func (m *MemoryPanels) RemovePanel(_ context.Context, urlPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.panels, urlPath)
	return nil
}

func (m *MemoryPanels) Panel(_ context.Context, urlPath string) (Panel, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.panels[urlPath]
	return p, ok, nil
}

// resourceSet is the registered front-end resources. Callers synchronise access.
type resourceSet struct {
	ExtraJSURLs []string     `json:"extra_js_urls"`
	StaticPaths []StaticPath `json:"static_paths"`
}

func (r *resourceSet) addJS(url string) {
	if !slices.Contains(r.ExtraJSURLs, url) {
		r.ExtraJSURLs = append(r.ExtraJSURLs, url)
	}
}

func (r *resourceSet) addStatic(sp StaticPath) {
	for i, existing := range r.StaticPaths {
		if existing.URLPath == sp.URLPath {
			r.StaticPaths[i] = sp
			return
		}
	}
	r.StaticPaths = append(r.StaticPaths, sp)
}

// MemoryResources is an in-memory ResourceRegistry.
type MemoryResources struct {
	mu  sync.RWMutex
	set resourceSet
}

// NewMemoryResources creates an empty resource registry.
func NewMemoryResources() *MemoryResources {
	return &MemoryResources{}
}

func (m *MemoryResources) AddExtraJSURL(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set.addJS(url)
	return nil
}

func (m *MemoryResources) RegisterStaticPath(_ context.Context, sp StaticPath) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set.addStatic(sp)
	return nil
}

// ExtraJSURLs returns the registered extra JS URLs.
func (m *MemoryResources) ExtraJSURLs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.set.ExtraJSURLs)
}

// StaticPaths returns the registered static paths.
func (m *MemoryResources) StaticPaths() []StaticPath {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.set.StaticPaths)
}

type subscription struct {
	id        int
	eventType string
	fn        func(Event)
}

// Bus is an in-process EventBus. Listeners run synchronously in Fire.
type Bus struct {
	mu     sync.RWMutex
	logger *slog.Logger
	nextID int
	subs   []subscription
}

// NewBus creates an event bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

// Subscribe registers fn for eventType (or MatchAll) and returns an unsubscribe func.
func (b *Bus) Subscribe(eventType string, fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, eventType: eventType, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.subs = slices.DeleteFunc(b.subs, func(s subscription) bool { return s.id == id })
	}
}

func (b *Bus) Fire(_ context.Context, eventType string, data map[string]any) error {
	ev := Event{
		ID:        ulid.Make().String(),
		Type:      eventType,
		Data:      data,
		TimeFired: time.Now().UTC(),
	}

	b.mu.RLock()
	var listeners []func(Event)
	for _, s := range b.subs {
		if s.eventType == eventType || s.eventType == MatchAll {
			listeners = append(listeners, s.fn)
		}
	}
	b.mu.RUnlock()

	b.logger.Debug("firing event", "event_type", eventType, "id", ev.ID, "listeners", len(listeners))
	for _, fn := range listeners {
		fn(ev)
	}
	return nil
}

// Services is an in-process ServiceRegistry.
type Services struct {
	mu       sync.RWMutex
	handlers map[string]map[string]ServiceHandler
}

// NewServices creates an empty service registry.
func NewServices() *Services {
	return &Services{handlers: make(map[string]map[string]ServiceHandler)}
}

func (s *Services) RegisterService(domain, service string, handler ServiceHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handlers[domain] == nil {
		s.handlers[domain] = make(map[string]ServiceHandler)
	}
	s.handlers[domain][service] = handler
}

func (s *Services) RemoveService(domain, service string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers[domain], service)
	if len(s.handlers[domain]) == 0 {
		delete(s.handlers, domain)
	}
}

// HasService reports whether domain.service is registered.
func (s *Services) HasService(domain, service string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.handlers[domain][service]
	return ok
}

func (s *Services) CallService(ctx context.Context, domain, service string, data map[string]any) error {
	s.mu.RLock()
	handler, ok := s.handlers[domain][service]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrServiceNotFound, domain, service)
	}
	return handler(ctx, ServiceCall{Domain: domain, Service: service, Data: data})
}
