package qaindex

import (
	"context"
	"encoding/json"
	"fmt"

	"anktest-backend/internal/shared/storage/blob"
	"anktest-backend/internal/shared/telemetry"
)

// Ensure returns the user's index, creating an empty one if none is stored.
// A stored document that fails to parse is replaced in memory by an empty
// index so corruption never blocks the caller; nothing is written back on
// that path. Only storage I/O failures are returned as errors.
func Ensure(ctx context.Context, store blob.Store, userID string) (*Index, error) {
	key := Key(userID)

	exists, err := store.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("check index: %w", err)
	}
	if !exists {
		idx := &Index{UserID: userID, Records: []Record{}}
		if err := Save(ctx, store, userID, idx); err != nil {
			return nil, err
		}
		return idx, nil
	}

	data, err := blob.ReadAll(ctx, store, key)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	idx := &Index{}
	if err := json.Unmarshal(data, idx); err != nil {
		telemetry.Error("qaindex.reset", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return &Index{UserID: userID, Records: []Record{}}, nil
	}
	if idx.UserID == "" {
		idx.UserID = userID
	}
	if idx.Records == nil {
		idx.Records = []Record{}
	}
	return idx, nil
}

// Save overwrites the stored index document with the canonical serialization
// of idx.
func Save(ctx context.Context, store blob.Store, userID string, idx *Index) error {
	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	if err := store.Write(ctx, Key(userID), "application/json", data); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}
