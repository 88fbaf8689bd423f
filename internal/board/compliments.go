package board

import (
	"math/rand"
	"studyd/internal/providers"
	"studyd/internal/store"
	"studyd/internal/structures"
	"time"
)

// complimentPool feeds the daily/weekly/monthly shout-outs under top
// finishers. Picks are sticky per period via the ledger so re-renders and
// backfills reproduce the same text.
var complimentPool = []string{
	"Pure discipline on display",
	"Consistency is your superpower",
	"The grind never lies",
	"Focus level: legendary",
	"Quietly outworking everyone",
	"Built different today",
	"That focus was something else",
	"Showing up is half the battle, you won both halves",
	"Deep work champion",
	"The library called, they want their dedication back",
	"Unstoppable study energy",
	"Momentum looks good on you",
	"Another brick in the wall of mastery",
	"Hours in, excuses out",
	"This is what commitment looks like",
	"Future you says thanks",
	"Relentless, in the best way",
	"Locked in from start to finish",
	"Your streak speaks for itself",
	"Making it look easy",
	"Brains and stamina, rare combo",
	"The leaderboard fears you",
	"Slow and steady, except not slow",
	"That session was a statement",
	"Raising the bar again",
	"No shortcuts, just hours",
	"Textbook dedication, literally",
	"A masterclass in sitting down and doing it",
	"Study mode: permanent",
	"The others are studying how you study",
	"Grit rating: maximum",
	"Every minute earned",
	"Outlasting the distractions",
	"Winning the invisible battles",
	"Carrying the whole room's average",
	"Somebody check that chair for glue",
	"Today's MVP of concentration",
	"The compound interest of effort",
	"Legend status pending paperwork",
	"Keep this up and the rest is inevitable",
}

type ChooserInterface interface {
	ChooseDaily(id int64, day string) string
	ChooseWeekly(id int64, weekStart string) string
	ChooseMonthly(id int64, monthStart string) string
}

// Chooser picks a compliment per winner per period. A daily pick avoids
// repeating any compliment the same identity received earlier under the same
// day-prefix history; weekly and monthly picks are simply sticky.
type Chooser struct {
	conf   *structures.Config
	logger providers.Logger
	store  store.AccumulationStoreInterface
	rand   *rand.Rand
}

func NewChooser(conf *structures.Config, logger providers.Logger, ledger store.AccumulationStoreInterface, rng *rand.Rand) ChooserInterface {
	return &Chooser{conf: conf, logger: logger, store: ledger, rand: rng}
}

// NewRand seeds the compliment picker.
func NewRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func (c *Chooser) ChooseDaily(id int64, day string) string {
	period := "day:" + day
	if text, ok := c.store.Compliment(period, id); ok {
		return text
	}

	used, err := c.store.UsedCompliments("day:", id)
	if err != nil {
		c.logger.Warnf(providers.TypeBoard, "Compliment history lookup failed for %d: %s", id, err)
		used = map[string]struct{}{}
	}

	text := c.pick(used)
	c.save(period, id, text)
	return text
}

func (c *Chooser) ChooseWeekly(id int64, weekStart string) string {
	return c.sticky("week:"+weekStart, id)
}

func (c *Chooser) ChooseMonthly(id int64, monthStart string) string {
	return c.sticky("month:"+monthStart, id)
}

func (c *Chooser) sticky(period string, id int64) string {
	if text, ok := c.store.Compliment(period, id); ok {
		return text
	}
	text := c.pick(nil)
	c.save(period, id, text)
	return text
}

// pick prefers unused compliments; once the pool is exhausted for an
// identity the full pool is back in play.
func (c *Chooser) pick(used map[string]struct{}) string {
	fresh := make([]string, 0, len(complimentPool))
	for _, text := range complimentPool {
		if _, taken := used[text]; !taken {
			fresh = append(fresh, text)
		}
	}
	if len(fresh) == 0 {
		fresh = complimentPool
	}
	return fresh[c.rand.Intn(len(fresh))]
}

func (c *Chooser) save(period string, id int64, text string) {
	if err := c.store.SaveCompliment(period, id, text); err != nil {
		c.logger.Warnf(providers.TypeBoard, "Compliment save failed (%s, %d): %s", period, id, err)
	}
}

