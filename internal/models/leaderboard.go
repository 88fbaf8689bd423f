package models

import "time"

type WindowKind string

const (
	WindowDay   WindowKind = "day"
	WindowWeek  WindowKind = "week"
	WindowMonth WindowKind = "month"
)

// Entry is one ranked row. Entries with equal seconds share a rank value;
// their relative order is still deterministic (identity ascending) for display.
type Entry struct {
	Rank     int    `json:"rank"`
	Identity int64  `json:"user_id"`
	Label    string `json:"label"`
	Seconds  int64  `json:"seconds"`
	Minutes  int64  `json:"minutes"`
}

// LeaderboardWindow is derived, never persisted; recomputed on demand.
type LeaderboardWindow struct {
	Kind    WindowKind `json:"scope"`
	Start   time.Time  `json:"period_start"`
	End     time.Time  `json:"period_end"`
	Index   int        `json:"index"`
	Entries []Entry    `json:"entries"`
}
