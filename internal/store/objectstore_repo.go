// Package store provides concrete implementations of the
// provisioning.Repository contract.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/your-org/channelflow/internal/provisioning"
	"github.com/your-org/channelflow/pkg/storage/objectstore"
)

const (
	contentPrefix = "content/"
	indexPrefix   = "index/"
)

// ObjectStoreRepository implements provisioning.Repository over an
// S3-compatible object store. Each record is stored once as a content
// object and once as a zero-byte, timestamp-ordered index marker under
// its status, so listFailed can scan the failed prefix without a
// secondary database.
type ObjectStoreRepository struct {
	client objectstore.Client
	log    *zap.Logger
}

// NewObjectStoreRepository constructs an ObjectStoreRepository.
func NewObjectStoreRepository(client objectstore.Client, log *zap.Logger) *ObjectStoreRepository {
	return &ObjectStoreRepository{client: client, log: log}
}

func contentKey(contentID string) string {
	return contentPrefix + contentID + ".json"
}

func indexKey(status provisioning.Status, record provisioning.ChannelMetadata) string {
	// Zero-padded nanosecond timestamp keeps lexicographic ListObjects
	// order equal to ascending lastProvisionedAt order.
	return fmt.Sprintf("%s%s/%019d-%s", indexPrefix, status, record.LastProvisionedAt.UnixNano(), record.ContentID)
}

func (r *ObjectStoreRepository) FindByContentID(ctx context.Context, contentID string) (*provisioning.ChannelMetadata, error) {
	data, err := r.client.Get(ctx, contentKey(contentID))
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get content record: %w", err)
	}

	var record provisioning.ChannelMetadata
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshal content record: %w", err)
	}
	return &record, nil
}

func (r *ObjectStoreRepository) Upsert(ctx context.Context, record provisioning.ChannelMetadata) error {
	existing, err := r.FindByContentID(ctx, record.ContentID)
	if err != nil {
		return fmt.Errorf("read existing record before upsert: %w", err)
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	if err := r.client.Put(ctx, contentKey(record.ContentID), bytes.NewReader(payload), int64(len(payload)), nil); err != nil {
		return fmt.Errorf("put content record: %w", err)
	}

	if existing != nil && existing.Status != record.Status {
		staleKey := indexKey(existing.Status, *existing)
		if err := r.client.Remove(ctx, staleKey); err != nil {
			r.log.Warn("failed to remove stale status index marker",
				zap.String("contentId", record.ContentID), zap.String("key", staleKey), zap.Error(err))
		}
	}

	newKey := indexKey(record.Status, record)
	if err := r.client.Put(ctx, newKey, bytes.NewReader(nil), 0, nil); err != nil {
		return fmt.Errorf("put status index marker: %w", err)
	}

	return nil
}

func (r *ObjectStoreRepository) ListFailed(ctx context.Context, limit int) ([]provisioning.ChannelMetadata, error) {
	prefix := indexPrefix + string(provisioning.StatusFailed) + "/"
	keys, err := r.client.List(ctx, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("list failed index: %w", err)
	}

	records := make([]provisioning.ChannelMetadata, 0, len(keys))
	for _, key := range keys {
		contentID := contentIDFromIndexKey(key)
		if contentID == "" {
			continue
		}
		record, err := r.FindByContentID(ctx, contentID)
		if err != nil {
			return nil, fmt.Errorf("resolve failed record %s: %w", contentID, err)
		}
		if record == nil {
			r.log.Warn("stale failed index marker with no content record", zap.String("key", key))
			continue
		}
		records = append(records, *record)
	}
	return records, nil
}

// Purge implements admin.Purger: removes the content object and its
// current status index marker. This is the one place a record is
// actually deleted; the core repository contract never calls it.
func (r *ObjectStoreRepository) Purge(ctx context.Context, contentID string) error {
	existing, err := r.FindByContentID(ctx, contentID)
	if err != nil {
		return fmt.Errorf("read existing record before purge: %w", err)
	}
	if existing == nil {
		return nil
	}

	if err := r.client.Remove(ctx, contentKey(contentID)); err != nil {
		return fmt.Errorf("remove content record: %w", err)
	}
	if err := r.client.Remove(ctx, indexKey(existing.Status, *existing)); err != nil {
		r.log.Warn("failed to remove status index marker during purge",
			zap.String("contentId", contentID), zap.Error(err))
	}
	return nil
}

// indexTimestampWidth is the zero-padded nanosecond timestamp width used
// by indexKey. contentIDFromIndexKey relies on this fixed width rather
// than splitting on "-" so a contentID containing a dash of its own
// can't be mistaken for part of the separator.
const indexTimestampWidth = 19

func contentIDFromIndexKey(key string) string {
	slashIdx := strings.LastIndex(key, "/")
	if slashIdx < 0 {
		return ""
	}
	segment := key[slashIdx+1:]
	if len(segment) <= indexTimestampWidth+1 {
		return ""
	}
	return segment[indexTimestampWidth+1:]
}
