package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// entry tracks one live client under its canonical key plus how many
// registries currently hold a reference to it.
type entry struct {
	client   *Client
	refCount int
}

// Manager is the process-wide registry deduplicating MCP subprocesses by
// canonical configuration key (command, args, env, workingDirectory),
// reference-counted across every caller that acquires the same
// configuration (spec §4.3). A single Manager should be shared by every
// tool registry in a process.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*entry
	logger  *slog.Logger
}

// NewManager constructs an empty Manager.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		entries: make(map[string]*entry),
		logger:  logger,
	}
}

// Acquire returns a ready client for config, spawning and initializing one
// if none exists yet, or reusing and incrementing the refcount of an
// existing healthy one. An existing but unhealthy client (dead process,
// empty tool cache) is disposed and replaced transparently.
func (m *Manager) Acquire(ctx context.Context, config ServerConfig) (*Client, error) {
	key := config.CanonicalKey()

	m.mu.Lock()
	if e, ok := m.entries[key]; ok {
		if e.client.IsHealthy() {
			e.refCount++
			m.mu.Unlock()
			return e.client, nil
		}
		m.logger.Warn("mcp manager: replacing unhealthy client", "command", config.Command)
		delete(m.entries, key)
		m.mu.Unlock()
		_ = e.client.Dispose()
	} else {
		m.mu.Unlock()
	}

	client := NewClient(config, WithLogger(m.logger))
	if err := client.Initialize(ctx); err != nil {
		_ = client.Dispose()
		return nil, fmt.Errorf("mcp manager: acquire %s: %w", config.Command, err)
	}

	m.mu.Lock()
	if e, ok := m.entries[key]; ok && e.client.IsHealthy() {
		// Lost a race with a concurrent Acquire for the same key; keep the
		// winner, discard the client we just spawned.
		e.refCount++
		m.mu.Unlock()
		_ = client.Dispose()
		return e.client, nil
	}
	m.entries[key] = &entry{client: client, refCount: 1}
	m.mu.Unlock()

	return client, nil
}

// Release decrements the refcount for config's canonical key, but only if
// client is still the entry's current client. A caller holding a reference
// to a client Acquire already replaced (e.g. after "replacing unhealthy
// client") is a safe no-op rather than decrementing or disposing the
// current, possibly still-in-use, client.
func (m *Manager) Release(config ServerConfig, client *Client) {
	key := config.CanonicalKey()

	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok || e.client != client {
		m.mu.Unlock()
		return
	}
	e.refCount--
	if e.refCount > 0 {
		m.mu.Unlock()
		return
	}
	delete(m.entries, key)
	m.mu.Unlock()

	_ = e.client.Dispose()
}

// ShutdownAll disposes every managed client regardless of refcount. Intended
// for process teardown.
func (m *Manager) ShutdownAll() {
	m.mu.Lock()
	entries := m.entries
	m.entries = make(map[string]*entry)
	m.mu.Unlock()

	for _, e := range entries {
		_ = e.client.Dispose()
	}
}

// StatusEntry is one row of Manager.Status(), a diagnostics snapshot for
// operators and health endpoints.
type StatusEntry struct {
	Command   string
	RefCount  int
	Healthy   bool
	ToolCount int
}

// Status returns a point-in-time snapshot of every managed client.
func (m *Manager) Status() []StatusEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]StatusEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, StatusEntry{
			Command:   e.client.Config().Command,
			RefCount:  e.refCount,
			Healthy:   e.client.IsHealthy(),
			ToolCount: len(e.client.Tools()),
		})
	}
	return out
}
