package models

import (
	"fmt"
	"time"
)

type SessionSource string

const (
	SourceEvent SessionSource = "event"
	SourcePoll  SessionSource = "poll"
)

// Session is one continuous interval of presence for an identity. Closed
// sessions are write-once; they are never mutated after flush.
type Session struct {
	Identity int64
	Start    time.Time
	End      time.Time
	Source   SessionSource
}

// Key is the idempotency key for ledger writes: a retried flush of the same
// segment is a no-op, while logically distinct segments never collide.
func (s Session) Key() string {
	return fmt.Sprintf("%d:%d", s.Identity, s.Start.Unix())
}

func (s Session) Seconds() int64 {
	d := s.End.Sub(s.Start)
	if d <= 0 {
		return 0
	}
	return int64(d.Seconds())
}

// DayChunk is the portion of a span falling inside one calendar day.
type DayChunk struct {
	Date    string // YYYY-MM-DD in the tracker's timezone
	Seconds int64
}

// SplitSpanByDay cuts [start, end) at local midnights so a span crossing
// midnight credits each calendar day separately.
func SplitSpanByDay(start, end time.Time, loc *time.Location) []DayChunk {
	if !end.After(start) {
		return nil
	}
	var chunks []DayChunk
	cur := start.In(loc)
	endLoc := end.In(loc)
	for cur.Before(endLoc) {
		nextDay := time.Date(cur.Year(), cur.Month(), cur.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
		chunkEnd := endLoc
		if nextDay.Before(endLoc) {
			chunkEnd = nextDay
		}
		secs := int64(chunkEnd.Sub(cur).Seconds())
		if secs > 0 {
			chunks = append(chunks, DayChunk{Date: cur.Format(DateLayout), Seconds: secs})
		}
		cur = chunkEnd
	}
	return chunks
}

// DateLayout is the calendar-date format used across the ledger and state files.
const DateLayout = "2006-01-02"
