package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ SnapshotRepository = (*SnapshotRepo)(nil)

type SnapshotRepo struct {
	db *DB
}

func NewSnapshotRepository(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// MarkLoading registers a resource that has never been fetched. Existing
// snapshots are left untouched.
func (r *SnapshotRepo) MarkLoading(resource string) error {
	_, err := r.db.Exec(`
		INSERT INTO snapshots (resource, status, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (resource) DO NOTHING
	`, resource, StatusLoading, formatTime(time.Now().UTC()))

	if err != nil {
		return fmt.Errorf("failed to mark snapshot loading: %w", err)
	}

	return nil
}

// SaveSnapshot replaces the stored payload. The last fetched snapshot wins.
func (r *SnapshotRepo) SaveSnapshot(resource string, payload []byte, itemCount int, fetchedAt time.Time) error {
	ts := formatTime(fetchedAt.UTC())

	_, err := r.db.Exec(`
		INSERT INTO snapshots (resource, payload, item_count, status, error, fetched_at, attempted_at, updated_at)
		VALUES (?, ?, ?, ?, '', ?, ?, ?)
		ON CONFLICT (resource) DO UPDATE SET
			payload = excluded.payload,
			item_count = excluded.item_count,
			status = excluded.status,
			error = '',
			fetched_at = excluded.fetched_at,
			attempted_at = excluded.attempted_at,
			updated_at = excluded.updated_at
	`, resource, payload, itemCount, StatusReady, ts, ts, ts)

	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

// SaveFailure records a failed fetch. A resource that already has a payload
// stays ready and keeps serving it.
func (r *SnapshotRepo) SaveFailure(resource string, fetchErr string, attemptedAt time.Time) error {
	ts := formatTime(attemptedAt.UTC())

	_, err := r.db.Exec(`
		INSERT INTO snapshots (resource, status, error, attempted_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (resource) DO UPDATE SET
			status = CASE WHEN snapshots.payload IS NOT NULL THEN ? ELSE ? END,
			error = excluded.error,
			attempted_at = excluded.attempted_at,
			updated_at = excluded.updated_at
	`, resource, StatusError, fetchErr, ts, ts, StatusReady, StatusError)

	if err != nil {
		return fmt.Errorf("failed to save snapshot failure: %w", err)
	}

	return nil
}

func (r *SnapshotRepo) GetSnapshot(resource string) (*Snapshot, error) {
	row := r.db.QueryRow(`
		SELECT resource, payload, item_count, status, error, fetched_at, attempted_at, updated_at
		FROM snapshots
		WHERE resource = ?
	`, resource)

	snapshot, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	return snapshot, nil
}

func (r *SnapshotRepo) ListSnapshots() ([]Snapshot, error) {
	rows, err := r.db.Query(`
		SELECT resource, payload, item_count, status, error, fetched_at, attempted_at, updated_at
		FROM snapshots
		ORDER BY resource
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snapshots = append(snapshots, *snapshot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}

	return snapshots, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*Snapshot, error) {
	var (
		snapshot    Snapshot
		status      string
		fetchedAt   sql.NullString
		attemptedAt sql.NullString
		updatedAt   string
	)

	err := row.Scan(&snapshot.Resource, &snapshot.Payload, &snapshot.ItemCount, &status,
		&snapshot.Error, &fetchedAt, &attemptedAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	snapshot.Status = SnapshotStatus(status)
	snapshot.FetchedAt = parseNullTime(fetchedAt)
	snapshot.AttemptedAt = parseNullTime(attemptedAt)
	if t := parseNullTime(sql.NullString{String: updatedAt, Valid: true}); t != nil {
		snapshot.UpdatedAt = *t
	}

	return &snapshot, nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil
	}
	return &t
}
