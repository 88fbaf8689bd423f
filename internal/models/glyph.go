package models

import "time"

type GlyphSource string

const (
	GlyphPremium GlyphSource = "premium"
	GlyphPinned  GlyphSource = "pinned-unicode"
	GlyphDefault GlyphSource = "default"
)

// GlyphEntry is the resolution for one semantic key. Every key always has a
// non-empty Fallback, so rendering can never fail.
type GlyphEntry struct {
	AssetID  int64       `json:"asset_id,omitempty"`
	Fallback string      `json:"fallback"`
	Source   GlyphSource `json:"source"`
}

// GlyphFingerprint identifies the content of the reference message so a
// hydration can tell whether anything changed since the last rebuild.
type GlyphFingerprint struct {
	MessageID int64   `json:"message_id"`
	Text      string  `json:"text"`
	AssetIDs  []int64 `json:"asset_ids"`
}

// GlyphCacheVersion guards the on-disk schema. A file with any other version
// is treated as stale and rebuilt, never surfaced as an error.
const GlyphCacheVersion = 1

type GlyphCacheFile struct {
	Version     int                   `json:"version"`
	Fingerprint GlyphFingerprint      `json:"fingerprint"`
	Hash        string                `json:"content_hash"`
	HydratedAt  time.Time             `json:"hydrated_at"`
	Entries     map[string]GlyphEntry `json:"entries"`
}
