package database

import (
	"time"
)

type SnapshotStatus string

const (
	StatusLoading SnapshotStatus = "loading"
	StatusReady   SnapshotStatus = "ready"
	StatusError   SnapshotStatus = "error"
)

// Snapshot is the last fetched payload of one upstream collection.
type Snapshot struct {
	Resource    string
	Payload     []byte
	ItemCount   int
	Status      SnapshotStatus
	Error       string // Last fetch error, kept even when an older payload is still served
	FetchedAt   *time.Time
	AttemptedAt *time.Time
	UpdatedAt   time.Time
}

func (s *Snapshot) HasPayload() bool {
	return s != nil && len(s.Payload) > 0
}

// Stale reports whether the snapshot should be refetched.
func (s *Snapshot) Stale(now time.Time, maxAge time.Duration) bool {
	if s == nil || s.FetchedAt == nil {
		return true
	}
	return now.Sub(*s.FetchedAt) >= maxAge
}
