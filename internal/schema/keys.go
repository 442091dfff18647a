package schema

import (
	"encoding/json"
	"fmt"

	"github.com/pagesnap/pagesnap/internal/model"
)

// Key identifies one persisted storage entry.
type Key string

// The fixed set of storage keys. Reads of any other key are rejected by the
// storage manager.
const (
	// KeyCrawlQueue holds the pending snapshot queue.
	KeyCrawlQueue Key = "crawler.queue"

	// KeyExtensionEnabled holds the global capture on/off switch.
	KeyExtensionEnabled Key = "extension.enabled"

	// KeyExtensionState holds running page-processing counters.
	KeyExtensionState Key = "extension.state"

	// KeyUserPreferences holds display preferences.
	KeyUserPreferences Key = "user.preferences"

	// KeyActivityHistory holds a log of user-visible actions.
	KeyActivityHistory Key = "activity.history"
)

// Keys returns all declared storage keys.
func Keys() []Key {
	return []Key{
		KeyCrawlQueue,
		KeyExtensionEnabled,
		KeyExtensionState,
		KeyUserPreferences,
		KeyActivityHistory,
	}
}

// Theme values accepted in user preferences.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// UserPreferences holds display preferences.
type UserPreferences struct {
	Theme         string `json:"theme"`
	Language      string `json:"language"`
	Notifications bool   `json:"notifications"`
}

// DefaultUserPreferences returns the preference defaults.
func DefaultUserPreferences() UserPreferences {
	return UserPreferences{
		Theme:         ThemeSystem,
		Language:      "en",
		Notifications: true,
	}
}

// DecodeUserPreferences validates stored preferences, rejecting unknown
// theme values.
func DecodeUserPreferences(raw json.RawMessage) (UserPreferences, error) {
	prefs := DefaultUserPreferences()
	if err := json.Unmarshal(raw, &prefs); err != nil {
		return UserPreferences{}, fmt.Errorf("invalid preferences: %w", err)
	}
	switch prefs.Theme {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		return UserPreferences{}, fmt.Errorf("unknown theme %q", prefs.Theme)
	}
	if prefs.Language == "" {
		prefs.Language = "en"
	}
	return prefs, nil
}

// ExtensionState holds running page-processing counters.
type ExtensionState struct {
	Blocked  int `json:"blocked"`
	Enhanced int `json:"enhanced"`
}

// ActivityEntry is one recorded user-visible action.
type ActivityEntry struct {
	Timestamp int64  `json:"timestamp"`
	Action    string `json:"action"`
}

// DecodeActivityHistory validates the stored activity log.
func DecodeActivityHistory(raw json.RawMessage) ([]ActivityEntry, error) {
	var entries []ActivityEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("invalid activity history: %w", err)
	}
	if entries == nil {
		entries = []ActivityEntry{}
	}
	return entries, nil
}

// DefaultValue returns the default typed value for a key, used when the key
// is missing from storage or its stored value fails validation.
func DefaultValue(key Key) any {
	switch key {
	case KeyCrawlQueue:
		return []model.CrawlQueueItem{}
	case KeyExtensionEnabled:
		return true
	case KeyExtensionState:
		return ExtensionState{}
	case KeyUserPreferences:
		return DefaultUserPreferences()
	case KeyActivityHistory:
		return []ActivityEntry{}
	default:
		return nil
	}
}

// DefaultRaw returns the JSON encoding of a key's default value.
func DefaultRaw(key Key) json.RawMessage {
	v := DefaultValue(key)
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		// Defaults are static values that always marshal.
		return nil
	}
	return raw
}
