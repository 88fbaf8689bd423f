package models

// SchedulerStateVersion guards the on-disk scheduler state schema.
const SchedulerStateVersion = 1

// SchedulerState survives restarts so the daemon neither re-posts a day it
// already posted nor forgets backfill obligations.
type SchedulerState struct {
	Version        int      `json:"version"`
	LastPostedDate string   `json:"last_posted_date"`
	Backfill       []string `json:"backfill"`
}
