package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"estateops/internal/core/id"
)

// AuditEntry is one recorded change. Payload holds the request or entity
// snapshot; it is compressed before storage because agreement bodies and
// bulk assignments can be large.
type AuditEntry struct {
	ID         id.ID
	Actor      string
	Action     string
	EntityType string
	EntityID   string
	Payload    map[string]any
	RecordedAt time.Time
}

// AuditStore appends change records to the audit_log table.
type AuditStore struct {
	tm      *TxManager
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewAuditStore creates the audit store. The zstd encoder and decoder
// are safe for concurrent use via EncodeAll/DecodeAll.
func NewAuditStore(tm *TxManager) (*AuditStore, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditStore{tm: tm, encoder: enc, decoder: dec}, nil
}

// Record appends one entry. Joins an enclosing transaction so the audit
// row commits with the change it describes.
func (s *AuditStore) Record(ctx context.Context, entry AuditEntry) error {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}

	raw, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	compressed := s.encoder.EncodeAll(raw, nil)

	_, err = s.tm.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO audit_log (id, actor, action, entity_type, entity_id, payload, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.Actor, entry.Action, entry.EntityType, entry.EntityID,
		compressed, entry.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListByEntity returns the decompressed entries for one entity, newest
// first.
func (s *AuditStore) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.tm.GetQuerier(ctx).Query(ctx, `
		SELECT id, actor, action, entity_type, entity_id, payload, recorded_at
		FROM audit_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY recorded_at DESC
		LIMIT $3`,
		entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var compressed []byte
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.EntityType, &e.EntityID, &compressed, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		raw, err := s.decoder.DecodeAll(compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress audit payload: %w", err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal audit payload: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
