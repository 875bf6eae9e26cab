package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/solatis/surveylogic/internal/logic"
	"github.com/solatis/surveylogic/internal/types"
)

// ScanRecord is one stored engine scan.
type ScanRecord struct {
	ScanID    types.ScanID `db:"scan_id"`
	Survey    string       `db:"survey"`
	Mode      types.Mode   `db:"mode"`
	ItemCount int          `db:"item_count"`
	CreatedAt string       `db:"created_at"`
}

// ScanItemRecord is one stored rule item, flattened for reporting.
type ScanItemRecord struct {
	ScanID      types.ScanID `db:"scan_id"`
	Position    int          `db:"position"`
	RuleType    string       `db:"rule_type"`
	ElementType string       `db:"element_type"`
	ElementName string       `db:"element_name"`
	Expression  string       `db:"expression"`
}

// ScanStore records engine snapshots for later inspection.
// The survey document itself is never stored, only the derived rule items.
type ScanStore struct {
	db      *sqlx.DB
	queries *Queries
}

// NewScanStore creates a store over a migrated database.
func NewScanStore(db *sqlx.DB) (*ScanStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	queries, err := LoadQueries(db)
	if err != nil {
		return nil, err
	}
	return &ScanStore{db: db, queries: queries}, nil
}

// Record stores a snapshot under a new scan ID. Scan row and items are written
// in one transaction.
func (s *ScanStore) Record(ctx context.Context, survey string, snap logic.Snapshot) (types.ScanID, error) {
	insertScan, err := s.queries.Raw("insert-scan")
	if err != nil {
		return "", err
	}
	insertItem, err := s.queries.Raw("insert-scan-item")
	if err != nil {
		return "", err
	}

	id := types.NewScanID()
	createdAt := time.Now().UTC().Format(time.RFC3339)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, insertScan, id, survey, snap.Mode, len(snap.Items), createdAt); err != nil {
		tx.Rollback()
		return "", fmt.Errorf("failed to insert scan: %w", err)
	}

	for i, item := range snap.Items {
		_, err := tx.ExecContext(ctx, insertItem,
			id, i,
			item.RuleType.Name(),
			item.Element.Type(),
			item.ElementName(),
			expressionText(item.Expression()),
		)
		if err != nil {
			tx.Rollback()
			return "", fmt.Errorf("failed to insert scan item %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit scan: %w", err)
	}
	return id, nil
}

// GetScan returns one scan. Returns types.ErrScanNotFound for unknown IDs.
func (s *ScanStore) GetScan(ctx context.Context, id types.ScanID) (ScanRecord, error) {
	var rec ScanRecord
	err := s.queries.GetContext(ctx, "get-scan", &rec, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ScanRecord{}, types.ErrScanNotFound
	}
	if err != nil {
		return ScanRecord{}, fmt.Errorf("failed to get scan: %w", err)
	}
	return rec, nil
}

// ListScans returns the most recent scans of a survey, newest first.
// UUIDv7 scan IDs sort by creation time, so ordering needs no timestamp index.
func (s *ScanStore) ListScans(ctx context.Context, survey string, limit int) ([]ScanRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var recs []ScanRecord
	if err := s.queries.SelectContext(ctx, "list-scans", &recs, survey, limit); err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	return recs, nil
}

// ScanItems returns the items of one scan in recorded order.
func (s *ScanStore) ScanItems(ctx context.Context, id types.ScanID) ([]ScanItemRecord, error) {
	var items []ScanItemRecord
	if err := s.queries.SelectContext(ctx, "list-scan-items", &items, id); err != nil {
		return nil, fmt.Errorf("failed to list scan items: %w", err)
	}
	return items, nil
}

// expressionText renders a rule property for storage. Strings are stored as-is,
// anything else as JSON.
func expressionText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
