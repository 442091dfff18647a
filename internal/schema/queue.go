package schema

import (
	"encoding/json"
	"fmt"

	"github.com/pagesnap/pagesnap/internal/model"
)

// queueItemV2 is a queue entry wrapping a v2 snapshot.
type queueItemV2 struct {
	ID            string     `json:"id"`
	CreatedAt     int64      `json:"createdAt"`
	Attempts      int        `json:"attempts"`
	SchemaVersion int        `json:"schemaVersion"`
	Snapshot      snapshotV2 `json:"snapshot"`
}

// queueItemLegacy is a queue entry wrapping a flat legacy snapshot.
// Like the snapshot itself, it has no schemaVersion field.
type queueItemLegacy struct {
	ID        string         `json:"id"`
	CreatedAt int64          `json:"createdAt"`
	Attempts  int            `json:"attempts"`
	Snapshot  legacySnapshot `json:"snapshot"`
}

// versionProbe reads just the version tag to pick a decode branch.
type versionProbe struct {
	SchemaVersion *int `json:"schemaVersion"`
}

// DecodeQueueItem decodes one persisted queue entry, upgrading older
// versions to the current shape. Decoding an already-current entry returns
// it unchanged, so the operation is idempotent. Entries matching no known
// shape are rejected with ErrUnknownShape.
func DecodeQueueItem(raw json.RawMessage) (model.CrawlQueueItem, error) {
	var probe versionProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return model.CrawlQueueItem{}, fmt.Errorf("%w: %v", ErrUnknownShape, err)
	}

	if probe.SchemaVersion == nil {
		return decodeLegacyQueueItem(raw)
	}

	switch *probe.SchemaVersion {
	case model.SchemaVersionV3:
		return decodeQueueItemV3(raw)
	case model.SchemaVersionV2:
		return decodeQueueItemV2(raw)
	default:
		return model.CrawlQueueItem{}, fmt.Errorf("%w: version %d", ErrUnknownShape, *probe.SchemaVersion)
	}
}

func decodeQueueItemV3(raw json.RawMessage) (model.CrawlQueueItem, error) {
	var item model.CrawlQueueItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return model.CrawlQueueItem{}, fmt.Errorf("%w: %v", ErrUnknownShape, err)
	}
	if item.ID == "" {
		return model.CrawlQueueItem{}, fmt.Errorf("%w: missing item id", ErrUnknownShape)
	}
	if err := validateSnapshotV3(item.Snapshot); err != nil {
		return model.CrawlQueueItem{}, fmt.Errorf("invalid v3 queue item: %w", err)
	}
	normalizeSnapshot(&item.Snapshot)
	return item, nil
}

func decodeQueueItemV2(raw json.RawMessage) (model.CrawlQueueItem, error) {
	var item queueItemV2
	if err := json.Unmarshal(raw, &item); err != nil {
		return model.CrawlQueueItem{}, fmt.Errorf("%w: %v", ErrUnknownShape, err)
	}
	if item.ID == "" {
		return model.CrawlQueueItem{}, fmt.Errorf("%w: missing item id", ErrUnknownShape)
	}
	if err := validateCore(item.Snapshot.Metadata.URL, item.Snapshot.Metadata.CapturedAt, item.Snapshot.Metadata.Source); err != nil {
		return model.CrawlQueueItem{}, fmt.Errorf("invalid v2 queue item: %w", err)
	}
	return model.CrawlQueueItem{
		ID:            item.ID,
		CreatedAt:     item.CreatedAt,
		Attempts:      item.Attempts,
		SchemaVersion: model.SchemaVersionV3,
		Snapshot:      migrateV2ToV3(item.Snapshot),
	}, nil
}

func decodeLegacyQueueItem(raw json.RawMessage) (model.CrawlQueueItem, error) {
	var item queueItemLegacy
	if err := json.Unmarshal(raw, &item); err != nil {
		return model.CrawlQueueItem{}, fmt.Errorf("%w: %v", ErrUnknownShape, err)
	}
	if item.ID == "" {
		return model.CrawlQueueItem{}, fmt.Errorf("%w: missing item id", ErrUnknownShape)
	}
	if err := validateCore(item.Snapshot.URL, item.Snapshot.CapturedAt, item.Snapshot.Source); err != nil {
		return model.CrawlQueueItem{}, fmt.Errorf("invalid legacy queue item: %w", err)
	}
	return model.CrawlQueueItem{
		ID:            item.ID,
		CreatedAt:     item.CreatedAt,
		Attempts:      item.Attempts,
		SchemaVersion: model.SchemaVersionV3,
		Snapshot:      migrateV2ToV3(migrateLegacyToV2(item.Snapshot)),
	}, nil
}

// DecodeQueue decodes the persisted queue list, upgrading each entry to the
// current shape. Any entry matching no known shape fails the whole decode;
// the storage manager then falls back to the key's default.
func DecodeQueue(raw json.RawMessage) ([]model.CrawlQueueItem, error) {
	var rawItems []json.RawMessage
	if err := json.Unmarshal(raw, &rawItems); err != nil {
		return nil, fmt.Errorf("queue is not a JSON array: %w", err)
	}

	items := make([]model.CrawlQueueItem, 0, len(rawItems))
	for i, rawItem := range rawItems {
		item, err := DecodeQueueItem(rawItem)
		if err != nil {
			return nil, fmt.Errorf("queue item %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// QueueNeedsMigration reports whether the raw persisted queue contains any
// legacy or v2 entries. It never fails: undecodable input just reports
// false, leaving the error surfacing to DecodeQueue.
func QueueNeedsMigration(raw json.RawMessage) bool {
	var rawItems []json.RawMessage
	if err := json.Unmarshal(raw, &rawItems); err != nil {
		return false
	}
	for _, rawItem := range rawItems {
		var probe versionProbe
		if err := json.Unmarshal(rawItem, &probe); err != nil {
			continue
		}
		if probe.SchemaVersion == nil || *probe.SchemaVersion != model.SchemaVersionV3 {
			return true
		}
	}
	return false
}
