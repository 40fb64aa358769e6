package models

import "time"

// SyncRunStatus enumerates the lifecycle of a reconciliation run.
type SyncRunStatus string

const (
	SyncRunRunning SyncRunStatus = "running"
	SyncRunSuccess SyncRunStatus = "success"
	SyncRunFailed  SyncRunStatus = "failed"
)

// SyncRun is the audit row written for every reconciliation run.
type SyncRun struct {
	ID             int64         `db:"id" json:"id"`
	Trigger        string        `db:"trigger" json:"trigger"`
	Status         SyncRunStatus `db:"status" json:"status"`
	FeedRecords    int           `db:"feed_records" json:"feedRecords"`
	CatalogRecords int           `db:"catalog_records" json:"catalogRecords"`
	Updated        int           `db:"updated" json:"updated"`
	Unmatched      int           `db:"unmatched" json:"unmatched"`
	Failed         int           `db:"failed" json:"failed"`
	Error          *string       `db:"error" json:"error,omitempty"`
	StartedAt      time.Time     `db:"started_at" json:"startedAt"`
	FinishedAt     *time.Time    `db:"finished_at" json:"finishedAt,omitempty"`
}
