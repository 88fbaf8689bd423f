package board

import (
	"context"
	"fmt"
	"studyd/internal/glyphs"
	"studyd/internal/models"
	"studyd/internal/platform"
	"studyd/internal/providers"
	"studyd/internal/structures"
	"unicode/utf8"
)

// placeholder occupies one rune per premium glyph in the rich body; the
// entity at that offset carries the asset id. Offsets are rune counts, not
// bytes.
const placeholder = "■"

// flareKeys rotate in the title by day index.
var flareKeys = []glyphs.Key{
	glyphs.KeyBurst, glyphs.KeyHeartOnFire, glyphs.KeyCrown, glyphs.KeyFire,
	glyphs.KeyHighVoltage, glyphs.KeyGlowingStar, glyphs.KeyChequeredFlag,
	glyphs.KeyTarget, glyphs.KeyDizzy, glyphs.KeyBrain, glyphs.KeyLion,
	glyphs.KeyWing, glyphs.KeyThread, glyphs.KeyShield, glyphs.KeyMoon,
}

var rankKeys = []glyphs.Key{
	glyphs.KeyMedal1, glyphs.KeyMedal2, glyphs.KeyMedal3,
	glyphs.KeyKeycap4, glyphs.KeyKeycap5, glyphs.KeyKeycap6, glyphs.KeyKeycap7,
	glyphs.KeyKeycap8, glyphs.KeyKeycap9, glyphs.KeyKeycap10,
}

type PublisherInterface interface {
	Compose(day, week, month *models.LeaderboardWindow, dayIndex int) *platform.OutboundMessage
	Publish(ctx context.Context, msg *platform.OutboundMessage) (int64, error)
}

// Publisher renders the three-window board into one message and sends it.
// Rendering is done twice in one pass: a rich body with placeholder runes
// plus decorative-asset entities, and a plain body with the Unicode
// fallbacks for clients that cannot show the assets.
type Publisher struct {
	conf     *structures.Config
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface
	resolver glyphs.ResolverInterface
	chooser  ChooserInterface
	sender   platform.Sender
}

func NewPublisher(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface, resolver glyphs.ResolverInterface, chooser ChooserInterface, sender platform.Sender) PublisherInterface {
	return &Publisher{
		conf:     conf,
		logger:   logger,
		metrics:  metrics,
		resolver: resolver,
		chooser:  chooser,
		sender:   sender,
	}
}

func (p *Publisher) Compose(day, week, month *models.LeaderboardWindow, dayIndex int) *platform.OutboundMessage {
	r := newRenderer(p.resolver)

	flare := flareKeys[(dayIndex-1+len(flareKeys))%len(flareKeys)]
	r.glyph(glyphs.KeyBarChart)
	r.text(fmt.Sprintf(" DAY %d ", dayIndex))
	r.glyph(flare)
	r.text("\n")

	p.section(r, glyphs.KeyCalendar, "Today", day, p.dailyCompliment(day))
	p.section(r, glyphs.KeyTearOffCalendar, fmt.Sprintf("Week %d", week.Index), week, p.periodCompliment(week, "week:"))
	p.section(r, glyphs.KeySpiralCalendar, fmt.Sprintf("Month %d", month.Index), month, p.periodCompliment(month, "month:"))

	rich, entities, plain := r.result()
	return &platform.OutboundMessage{
		Channel:  p.conf.Gateway.Channel,
		Text:     rich,
		Plain:    plain,
		Entities: entities,
	}
}

// Publish sends with a bounded timeout so a stalled gateway cannot wedge the
// posting cycle.
func (p *Publisher) Publish(ctx context.Context, msg *platform.OutboundMessage) (int64, error) {
	sendCtx, cancel := context.WithTimeout(ctx, p.conf.Gateway.RequestTimeout)
	defer cancel()

	id, err := p.sender.Send(sendCtx, msg)
	if err != nil {
		return 0, fmt.Errorf("board send: %w", err)
	}
	p.logger.Infof(providers.TypeBoard, "Posted board message id=%d", id)
	return id, nil
}

func (p *Publisher) section(r *renderer, icon glyphs.Key, title string, w *models.LeaderboardWindow, compliment func(models.Entry) string) {
	r.text("\n")
	r.glyph(icon)
	r.text(" " + title + "\n")

	if len(w.Entries) == 0 {
		r.glyph(glyphs.KeySleepingFace)
		r.text(" No study time yet\n")
		return
	}

	for i, entry := range w.Entries {
		if i < len(rankKeys) {
			r.glyph(rankKeys[i])
		} else {
			r.text(fmt.Sprintf("%d.", entry.Rank))
		}
		r.text(fmt.Sprintf(" %s  %dm ", entry.Label, entry.Minutes))
		r.glyph(badgeKey(entry.Minutes))
		r.text("\n")
		if i == 0 && compliment != nil {
			if text := compliment(entry); text != "" {
				r.text("   " + text + " ")
				r.glyph(glyphs.KeySparkles)
				r.text("\n")
			}
		}
	}
}

func (p *Publisher) dailyCompliment(w *models.LeaderboardWindow) func(models.Entry) string {
	if !p.conf.Board.Compliment {
		return nil
	}
	day := w.Start.Format(models.DateLayout)
	return func(e models.Entry) string { return p.chooser.ChooseDaily(e.Identity, day) }
}

func (p *Publisher) periodCompliment(w *models.LeaderboardWindow, prefix string) func(models.Entry) string {
	if !p.conf.Board.Compliment {
		return nil
	}
	start := w.Start.Format(models.DateLayout)
	if prefix == "week:" {
		return func(e models.Entry) string { return p.chooser.ChooseWeekly(e.Identity, start) }
	}
	return func(e models.Entry) string { return p.chooser.ChooseMonthly(e.Identity, start) }
}

// badgeKey maps minutes studied to an achievement glyph.
func badgeKey(minutes int64) glyphs.Key {
	switch {
	case minutes >= 180:
		return glyphs.KeyRocket
	case minutes >= 120:
		return glyphs.KeyFire
	case minutes >= 60:
		return glyphs.KeyFlexedBiceps
	case minutes >= 1:
		return glyphs.KeyCheckMark
	default:
		return glyphs.KeySleepingFace
	}
}

// renderer builds the rich and plain bodies in lockstep. The rich body gets
// a placeholder rune plus an entity for premium glyphs and the raw fallback
// otherwise; the plain body always gets the fallback.
type renderer struct {
	resolver glyphs.ResolverInterface
	rich     []rune
	plain    []rune
	entities []platform.Entity
}

func newRenderer(resolver glyphs.ResolverInterface) *renderer {
	return &renderer{resolver: resolver}
}

func (r *renderer) text(s string) {
	r.rich = append(r.rich, []rune(s)...)
	r.plain = append(r.plain, []rune(s)...)
}

func (r *renderer) glyph(key glyphs.Key) {
	entry := r.resolver.Resolve(key)
	r.plain = append(r.plain, []rune(entry.Fallback)...)

	if entry.Source == models.GlyphPremium {
		r.entities = append(r.entities, platform.Entity{
			Offset:  len(r.rich),
			Length:  utf8.RuneCountInString(placeholder),
			AssetID: entry.AssetID,
		})
		r.rich = append(r.rich, []rune(placeholder)...)
		return
	}
	r.rich = append(r.rich, []rune(entry.Fallback)...)
}

func (r *renderer) result() (string, []platform.Entity, string) {
	return string(r.rich), r.entities, string(r.plain)
}
