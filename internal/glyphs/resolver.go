package glyphs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"studyd/internal/models"
	"studyd/internal/platform"
	"studyd/internal/providers"
	"studyd/internal/store"
	"studyd/internal/structures"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// Health summarizes the resolver for the periodic health log and the admin
// status command.
type Health struct {
	Premium     int       `json:"premium"`
	Pinned      int       `json:"pinned_unicode"`
	Default     int       `json:"default"`
	Fingerprint string    `json:"fingerprint"`
	HydratedAt  time.Time `json:"hydrated_at"`
	Degraded    bool      `json:"degraded"`
}

type ResolverInterface interface {
	// Resolve never fails: absence of data always falls through to the
	// default tier.
	Resolve(key Key) models.GlyphEntry
	Hydrate(ctx context.Context) error
	Health() Health
}

// Resolver is the self-healing glyph cache. The in-memory mapping is only
// ever replaced wholesale after a successful rebuild; a failed or mismatched
// hydration keeps serving the last good mapping.
type Resolver struct {
	conf    *structures.Config
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
	fetcher platform.ReferenceFetcher

	mu         sync.RWMutex
	entries    map[Key]models.GlyphEntry
	fp         models.GlyphFingerprint
	hash       string
	hydratedAt time.Time
	hasGood    bool

	flightMu sync.Mutex
	inflight *hydrateCall
}

type hydrateCall struct {
	done chan struct{}
	err  error
}

func NewGlyphResolver(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface, fetcher platform.ReferenceFetcher) ResolverInterface {
	r := &Resolver{
		conf:    conf,
		logger:  logger,
		metrics: metrics,
		fetcher: fetcher,
		entries: make(map[Key]models.GlyphEntry),
	}
	r.loadCacheFile()
	return r
}

// loadCacheFile restores the last good mapping from disk. A missing file,
// unparseable JSON or wrong schema version leaves the resolver on the default
// tier with a rebuild due at the next hydration; corruption never surfaces
// to callers.
func (r *Resolver) loadCacheFile() {
	data, err := os.ReadFile(r.conf.Glyphs.CachePath)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warnf(providers.TypeGlyphs, "Cache read failed, starting default-only: %s", err)
		}
		return
	}

	var file models.GlyphCacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		r.logger.Warnf(providers.TypeGlyphs, "Cache unparseable, treating as stale: %s", err)
		return
	}
	if file.Version != models.GlyphCacheVersion || file.Entries == nil {
		r.logger.Warnf(providers.TypeGlyphs, "Cache schema version %d unsupported, treating as stale", file.Version)
		return
	}

	entries := make(map[Key]models.GlyphEntry, len(OrderedKeys))
	for _, key := range OrderedKeys {
		entry, ok := file.Entries[string(key)]
		if !ok || entry.Fallback == "" {
			continue
		}
		entries[key] = entry
	}

	r.entries = entries
	r.fp = file.Fingerprint
	r.hash = file.Hash
	r.hydratedAt = file.HydratedAt
	r.hasGood = len(entries) == len(OrderedKeys)
	r.logger.Infof(providers.TypeGlyphs, "Cache loaded: %d/%d keys, fingerprint %s", len(entries), len(OrderedKeys), shortHash(r.hash))
}

func (r *Resolver) Resolve(key Key) models.GlyphEntry {
	r.mu.RLock()
	entry, ok := r.entries[key]
	r.mu.RUnlock()

	if ok {
		if entry.AssetID != 0 {
			return models.GlyphEntry{AssetID: entry.AssetID, Fallback: entry.Fallback, Source: models.GlyphPremium}
		}
		return models.GlyphEntry{Fallback: entry.Fallback, Source: models.GlyphPinned}
	}
	return models.GlyphEntry{Fallback: DefaultGlyph(key), Source: models.GlyphDefault}
}

// Hydrate refreshes the mapping from the reference message. It is globally
// single-flight: a call arriving while another is in flight waits for that
// result instead of fetching again.
func (r *Resolver) Hydrate(ctx context.Context) error {
	r.flightMu.Lock()
	if r.inflight != nil {
		call := r.inflight
		r.flightMu.Unlock()
		select {
		case <-call.done:
			return call.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	call := &hydrateCall{done: make(chan struct{})}
	r.inflight = call
	r.flightMu.Unlock()

	call.err = r.hydrate(ctx)
	close(call.done)

	r.flightMu.Lock()
	r.inflight = nil
	r.flightMu.Unlock()
	return call.err
}

func (r *Resolver) hydrate(ctx context.Context) error {
	ref, err := r.fetcher.Reference(ctx)
	if err != nil {
		r.metrics.IncHydrations("error")
		r.logger.Warnf(providers.TypeGlyphs, "Reference fetch failed, keeping current mapping: %s", err)
		return nil
	}
	if ref == nil {
		r.metrics.IncHydrations("error")
		r.logger.Warnf(providers.TypeGlyphs, "No reference message available, keeping current mapping")
		return nil
	}

	hash := hashReference(ref)

	r.mu.RLock()
	unchanged := r.hasGood && hash == r.hash
	r.mu.RUnlock()
	if unchanged {
		r.metrics.IncHydrations("unchanged")
		return nil
	}

	if len(ref.AssetIDs) != len(OrderedKeys) {
		r.metrics.IncHydrations("mismatch")
		r.mu.RLock()
		hasGood := r.hasGood
		r.mu.RUnlock()
		r.logger.Warnf(providers.TypeGlyphs, "Reference has %d assets, expected %d; keeping previous mapping (degraded=%t)",
			len(ref.AssetIDs), len(OrderedKeys), !hasGood)
		return nil
	}

	entries := make(map[Key]models.GlyphEntry, len(OrderedKeys))
	for i, key := range OrderedKeys {
		entries[key] = models.GlyphEntry{
			AssetID:  ref.AssetIDs[i],
			Fallback: DefaultGlyph(key),
			Source:   models.GlyphPremium,
		}
	}

	fp := models.GlyphFingerprint{MessageID: ref.ID, Text: ref.Text, AssetIDs: ref.AssetIDs}
	now := time.Now().UTC()

	r.mu.Lock()
	r.entries = entries
	r.fp = fp
	r.hash = hash
	r.hydratedAt = now
	r.hasGood = true
	r.mu.Unlock()

	if err := r.persist(); err != nil {
		// The in-memory mapping is already good; persistence failure only
		// costs a rebuild after the next restart.
		r.logger.Errorf(providers.TypeGlyphs, "Cache persist failed: %s", err)
	}

	r.metrics.IncHydrations("rebuilt")
	r.logger.Infof(providers.TypeGlyphs, "Cache rebuilt: %d keys, fingerprint %s", len(entries), shortHash(hash))
	return nil
}

func (r *Resolver) persist() error {
	r.mu.RLock()
	file := models.GlyphCacheFile{
		Version:     models.GlyphCacheVersion,
		Fingerprint: r.fp,
		Hash:        r.hash,
		HydratedAt:  r.hydratedAt,
		Entries:     make(map[string]models.GlyphEntry, len(r.entries)),
	}
	for key, entry := range r.entries {
		file.Entries[string(key)] = entry
	}
	r.mu.RUnlock()

	data, err := json.Marshal(&file)
	if err != nil {
		return err
	}
	return store.WriteFileAtomic(r.conf.Glyphs.CachePath, data, 0644)
}

func (r *Resolver) Health() Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h := Health{Fingerprint: shortHash(r.hash), HydratedAt: r.hydratedAt, Degraded: !r.hasGood}
	for _, key := range OrderedKeys {
		entry, ok := r.entries[key]
		switch {
		case ok && entry.AssetID != 0:
			h.Premium++
		case ok:
			h.Pinned++
		default:
			h.Default++
		}
	}
	return h
}

func hashReference(ref *platform.ReferenceMessage) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(ref.ID, 10))
	b.WriteByte('\n')
	b.WriteString(strings.ReplaceAll(ref.Text, "\r\n", "\n"))
	for _, id := range ref.AssetIDs {
		b.WriteByte('\n')
		b.WriteString(strconv.FormatInt(id, 10))
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func shortHash(hash string) string {
	if len(hash) <= 12 {
		if hash == "" {
			return "none"
		}
		return hash
	}
	return fmt.Sprintf("%s…", hash[:12])
}
