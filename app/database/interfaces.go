package database

import (
	"time"
)

type SnapshotRepository interface {
	GetSnapshot(resource string) (*Snapshot, error)
	ListSnapshots() ([]Snapshot, error)

	MarkLoading(resource string) error
	SaveSnapshot(resource string, payload []byte, itemCount int, fetchedAt time.Time) error
	SaveFailure(resource string, fetchErr string, attemptedAt time.Time) error
}
