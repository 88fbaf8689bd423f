package board

import (
	"context"
	"math/rand"
	"path/filepath"
	"strings"
	"studyd/internal/glyphs"
	"studyd/internal/models"
	"studyd/internal/platform"
	"studyd/internal/structures"
	"studyd/internal/testutil"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publisherConfig(t *testing.T) *structures.Config {
	t.Helper()
	return &structures.Config{
		Board: structures.BoardConfig{ShowMax: 10, Compliment: true},
		Glyphs: structures.GlyphsConfig{
			CachePath: filepath.Join(t.TempDir(), "glyphs.json"),
		},
		Gateway: structures.GatewayConfig{
			Channel:        "-100123",
			RequestTimeout: time.Second,
		},
	}
}

func window(kind models.WindowKind, index int, entries ...models.Entry) *models.LeaderboardWindow {
	start := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	return &models.LeaderboardWindow{Kind: kind, Start: start, End: start, Index: index, Entries: entries}
}

func newTestPublisher(t *testing.T, conf *structures.Config, fetcher platform.ReferenceFetcher, sender platform.Sender) (PublisherInterface, glyphs.ResolverInterface) {
	t.Helper()
	resolver := glyphs.NewGlyphResolver(conf, &testutil.MockLogger{}, testutil.NewMockMetrics(), fetcher)
	ms := testutil.NewMockStore(time.UTC, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	chooser := NewChooser(conf, &testutil.MockLogger{}, ms, rand.New(rand.NewSource(1)))
	return NewPublisher(conf, &testutil.MockLogger{}, testutil.NewMockMetrics(), resolver, chooser, sender), resolver
}

func TestPublisher_PlainFallbackWithoutPremiumAssets(t *testing.T) {
	conf := publisherConfig(t)
	pub, _ := newTestPublisher(t, conf, &testutil.MockReferenceFetcher{}, &testutil.MockSender{})

	entry := models.Entry{Rank: 1, Identity: 7, Label: "@ann", Seconds: 5400, Minutes: 90}
	msg := pub.Compose(
		window(models.WindowDay, 20, entry),
		window(models.WindowWeek, 3, entry),
		window(models.WindowMonth, 1, entry),
		20,
	)

	// Without a hydrated cache everything renders as plain Unicode: no
	// entities, no placeholder runes, rich equals plain.
	assert.Empty(t, msg.Entities)
	assert.Equal(t, msg.Plain, msg.Text)
	assert.NotContains(t, msg.Text, placeholder)

	assert.Contains(t, msg.Text, "DAY 20")
	assert.Contains(t, msg.Text, "@ann")
	assert.Contains(t, msg.Text, "90m")
	assert.Contains(t, msg.Text, "Week 3")
	assert.Contains(t, msg.Text, "Month 1")
	assert.Equal(t, "-100123", msg.Channel)
}

func TestPublisher_PremiumEntitiesAtRuneOffsets(t *testing.T) {
	conf := publisherConfig(t)
	assets := make([]int64, len(glyphs.OrderedKeys))
	for i := range assets {
		assets[i] = int64(1000 + i)
	}
	fetcher := &testutil.MockReferenceFetcher{
		Ref: &platform.ReferenceMessage{ID: 42, Text: "assets", AssetIDs: assets},
	}

	pub, resolver := newTestPublisher(t, conf, fetcher, &testutil.MockSender{})
	require.NoError(t, resolver.Hydrate(context.Background()))

	entry := models.Entry{Rank: 1, Identity: 7, Label: "@ann", Seconds: 5400, Minutes: 90}
	msg := pub.Compose(
		window(models.WindowDay, 20, entry),
		window(models.WindowWeek, 3, entry),
		window(models.WindowMonth, 1, entry),
		20,
	)

	require.NotEmpty(t, msg.Entities)
	runes := []rune(msg.Text)
	for _, ent := range msg.Entities {
		require.Less(t, ent.Offset, len(runes))
		assert.Equal(t, placeholder, string(runes[ent.Offset:ent.Offset+ent.Length]))
		assert.NotZero(t, ent.AssetID)
	}

	// The plain body carries no placeholders at all.
	assert.NotContains(t, msg.Plain, placeholder)
}

func TestPublisher_EmptyWindowsSayNoActivity(t *testing.T) {
	conf := publisherConfig(t)
	pub, _ := newTestPublisher(t, conf, &testutil.MockReferenceFetcher{}, &testutil.MockSender{})

	msg := pub.Compose(
		window(models.WindowDay, 1),
		window(models.WindowWeek, 1),
		window(models.WindowMonth, 1),
		1,
	)

	assert.Equal(t, 3, strings.Count(msg.Plain, "No study time yet"))
}

func TestPublisher_ComplimentOnlyForFirstPlace(t *testing.T) {
	conf := publisherConfig(t)
	pub, _ := newTestPublisher(t, conf, &testutil.MockReferenceFetcher{}, &testutil.MockSender{})

	first := models.Entry{Rank: 1, Identity: 7, Label: "@ann", Minutes: 120}
	second := models.Entry{Rank: 2, Identity: 9, Label: "@bob", Minutes: 60}
	msg := pub.Compose(
		window(models.WindowDay, 1, first, second),
		window(models.WindowWeek, 1),
		window(models.WindowMonth, 1),
		1,
	)

	lines := strings.Split(msg.Plain, "\n")
	var annLine, complimentLine, bobLine int
	for i, line := range lines {
		switch {
		case strings.Contains(line, "@ann"):
			annLine = i
		case strings.Contains(line, "@bob"):
			bobLine = i
		case strings.HasPrefix(line, "   "):
			complimentLine = i
		}
	}
	// The compliment sits between first and second place.
	assert.Greater(t, complimentLine, annLine)
	assert.Less(t, complimentLine, bobLine)
}

func TestPublisher_ComplimentsDisabled(t *testing.T) {
	conf := publisherConfig(t)
	conf.Board.Compliment = false
	pub, _ := newTestPublisher(t, conf, &testutil.MockReferenceFetcher{}, &testutil.MockSender{})

	first := models.Entry{Rank: 1, Identity: 7, Label: "@ann", Minutes: 120}
	msg := pub.Compose(
		window(models.WindowDay, 1, first),
		window(models.WindowWeek, 1),
		window(models.WindowMonth, 1),
		1,
	)

	for _, line := range strings.Split(msg.Plain, "\n") {
		assert.False(t, strings.HasPrefix(line, "   "), "unexpected compliment line: %q", line)
	}
}

func TestPublisher_PublishSendsAndReturnsID(t *testing.T) {
	conf := publisherConfig(t)
	sender := &testutil.MockSender{}
	pub, _ := newTestPublisher(t, conf, &testutil.MockReferenceFetcher{}, sender)

	msg := pub.Compose(window(models.WindowDay, 1), window(models.WindowWeek, 1), window(models.WindowMonth, 1), 1)
	id, err := pub.Publish(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, 1, sender.Count())
}

func TestBadgeKey_Thresholds(t *testing.T) {
	assert.Equal(t, glyphs.KeyRocket, badgeKey(200))
	assert.Equal(t, glyphs.KeyFire, badgeKey(120))
	assert.Equal(t, glyphs.KeyFlexedBiceps, badgeKey(61))
	assert.Equal(t, glyphs.KeyCheckMark, badgeKey(1))
	assert.Equal(t, glyphs.KeySleepingFace, badgeKey(0))
}
