package interfaces

import "errors"

var (
	// ErrKeyNotFound is returned when a key does not exist in KV storage
	ErrKeyNotFound = errors.New("key not found")

	// ErrReportNotFound is returned when no report run exists for an account
	ErrReportNotFound = errors.New("report not found")

	// ErrSnapshotNotFound is returned when a cache snapshot is missing or expired
	ErrSnapshotNotFound = errors.New("snapshot not found")
)
