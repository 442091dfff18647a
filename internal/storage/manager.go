package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pagesnap/pagesnap/internal/model"
	"github.com/pagesnap/pagesnap/internal/schema"
)

// Manager is the schema-aware storage facade. All application reads and
// writes go through it: values are validated on every read, unknown or
// malformed values fall back to schema defaults with a logged warning, and
// older queue records are upgraded in flight.
type Manager struct {
	store  Store
	logger *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets a custom logger for the manager.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager over the given store.
func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{store: store}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Bootstrap writes the default value for every declared key that is not
// yet present, so later reads never observe a missing key.
func (m *Manager) Bootstrap(ctx context.Context) error {
	for _, key := range schema.Keys() {
		_, found, err := m.store.Get(ctx, string(key))
		if err != nil {
			return fmt.Errorf("failed to bootstrap %q: %w", key, err)
		}
		if found {
			continue
		}
		if err := m.store.Set(ctx, string(key), schema.DefaultRaw(key)); err != nil {
			return fmt.Errorf("failed to bootstrap %q: %w", key, err)
		}
	}
	return nil
}

// Migrate re-applies defaults and upgrades any legacy or v2 queue records
// to the current schema version. It is idempotent: running it against
// already-current storage changes nothing.
func (m *Manager) Migrate(ctx context.Context, previousVersion string) error {
	m.logger.Info("running storage migrations", "from", previousVersion)

	if err := m.Bootstrap(ctx); err != nil {
		return err
	}

	raw, found, err := m.store.Get(ctx, string(schema.KeyCrawlQueue))
	if err != nil {
		return fmt.Errorf("failed to read queue for migration: %w", err)
	}
	if !found || !schema.QueueNeedsMigration(raw) {
		return nil
	}

	items, err := schema.DecodeQueue(raw)
	if err != nil {
		m.logger.Warn("queue migration failed, resetting to empty", "error", err)
		items = []model.CrawlQueueItem{}
	}
	if err := m.SetQueue(ctx, items); err != nil {
		return fmt.Errorf("failed to persist migrated queue: %w", err)
	}

	m.logger.Info("migrated crawl queue to current schema", "items", len(items))
	return nil
}

// GetQueue returns the pending queue in arrival order. A missing key yields
// an empty queue; a value that fails validation is logged and replaced by
// the default. Storage errors are returned to the caller.
func (m *Manager) GetQueue(ctx context.Context) ([]model.CrawlQueueItem, error) {
	raw, found, err := m.store.Get(ctx, string(schema.KeyCrawlQueue))
	if err != nil {
		return nil, err
	}
	if !found {
		return []model.CrawlQueueItem{}, nil
	}

	items, err := schema.DecodeQueue(raw)
	if err != nil {
		m.logger.Warn("stored queue failed validation, using default", "error", err)
		return []model.CrawlQueueItem{}, nil
	}
	return items, nil
}

// SetQueue replaces the entire persisted queue. Queue updates always write
// the full ordered list; there are no partial updates.
func (m *Manager) SetQueue(ctx context.Context, items []model.CrawlQueueItem) error {
	if items == nil {
		items = []model.CrawlQueueItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode queue: %w", err)
	}
	return m.store.Set(ctx, string(schema.KeyCrawlQueue), raw)
}

// GetEnabled reports whether capturing is enabled. Defaults to true.
func (m *Manager) GetEnabled(ctx context.Context) (bool, error) {
	raw, found, err := m.store.Get(ctx, string(schema.KeyExtensionEnabled))
	if err != nil {
		return false, err
	}
	if !found {
		return true, nil
	}
	var enabled bool
	if err := json.Unmarshal(raw, &enabled); err != nil {
		m.logger.Warn("stored enabled flag failed validation, using default", "error", err)
		return true, nil
	}
	return enabled, nil
}

// SetEnabled stores the capture on/off switch.
func (m *Manager) SetEnabled(ctx context.Context, enabled bool) error {
	raw, _ := json.Marshal(enabled)
	return m.store.Set(ctx, string(schema.KeyExtensionEnabled), raw)
}

// GetPreferences returns the stored user preferences, or defaults.
func (m *Manager) GetPreferences(ctx context.Context) (schema.UserPreferences, error) {
	raw, found, err := m.store.Get(ctx, string(schema.KeyUserPreferences))
	if err != nil {
		return schema.UserPreferences{}, err
	}
	if !found {
		return schema.DefaultUserPreferences(), nil
	}
	prefs, err := schema.DecodeUserPreferences(raw)
	if err != nil {
		m.logger.Warn("stored preferences failed validation, using default", "error", err)
		return schema.DefaultUserPreferences(), nil
	}
	return prefs, nil
}

// SetPreferences stores user preferences.
func (m *Manager) SetPreferences(ctx context.Context, prefs schema.UserPreferences) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	return m.store.Set(ctx, string(schema.KeyUserPreferences), raw)
}

// GetState returns the stored processing counters, or zeroes.
func (m *Manager) GetState(ctx context.Context) (schema.ExtensionState, error) {
	raw, found, err := m.store.Get(ctx, string(schema.KeyExtensionState))
	if err != nil {
		return schema.ExtensionState{}, err
	}
	if !found {
		return schema.ExtensionState{}, nil
	}
	var state schema.ExtensionState
	if err := json.Unmarshal(raw, &state); err != nil {
		m.logger.Warn("stored state failed validation, using default", "error", err)
		return schema.ExtensionState{}, nil
	}
	return state, nil
}

// UpdateState applies fn to the current counters and persists the result.
func (m *Manager) UpdateState(ctx context.Context, fn func(*schema.ExtensionState)) error {
	state, err := m.GetState(ctx)
	if err != nil {
		return err
	}
	fn(&state)
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	return m.store.Set(ctx, string(schema.KeyExtensionState), raw)
}

// GetActivityHistory returns the recorded activity log, oldest first.
func (m *Manager) GetActivityHistory(ctx context.Context) ([]schema.ActivityEntry, error) {
	raw, found, err := m.store.Get(ctx, string(schema.KeyActivityHistory))
	if err != nil {
		return nil, err
	}
	if !found {
		return []schema.ActivityEntry{}, nil
	}
	entries, err := schema.DecodeActivityHistory(raw)
	if err != nil {
		m.logger.Warn("stored activity history failed validation, using default", "error", err)
		return []schema.ActivityEntry{}, nil
	}
	return entries, nil
}

// RecordActivity appends one entry to the activity log.
func (m *Manager) RecordActivity(ctx context.Context, timestamp int64, action string) error {
	entries, err := m.GetActivityHistory(ctx)
	if err != nil {
		return err
	}
	entries = append(entries, schema.ActivityEntry{Timestamp: timestamp, Action: action})
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode activity history: %w", err)
	}
	return m.store.Set(ctx, string(schema.KeyActivityHistory), raw)
}
