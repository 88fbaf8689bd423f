package admin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"studyd/internal/glyphs"
	"studyd/internal/platform"
	"studyd/internal/providers"
	"studyd/internal/scheduler/interfaces"
	"studyd/internal/store"
	"studyd/internal/structures"
	"studyd/internal/tracker"
	"time"
)

type DispatcherInterface interface {
	Handle(ctx context.Context, ev *platform.Event)
}

// Dispatcher executes admin-channel commands and replies in the same
// channel. Handlers are looked up by kind; each reply is plain text, no
// decorative assets.
type Dispatcher struct {
	conf     *structures.Config
	logger   providers.Logger
	tracker  tracker.TrackerInterface
	resolver glyphs.ResolverInterface
	sched    interfaces.SchedulerInterface
	store    store.AccumulationStoreInterface
	sender   platform.Sender
	started  time.Time

	handlers map[CommandKind]func(ctx context.Context, cmd Command) string
}

func NewDispatcher(conf *structures.Config, logger providers.Logger, trk tracker.TrackerInterface, resolver glyphs.ResolverInterface, sched interfaces.SchedulerInterface, ledger store.AccumulationStoreInterface, sender platform.Sender) DispatcherInterface {
	d := &Dispatcher{
		conf:     conf,
		logger:   logger,
		tracker:  trk,
		resolver: resolver,
		sched:    sched,
		store:    ledger,
		sender:   sender,
		started:  time.Now(),
	}
	d.handlers = map[CommandKind]func(ctx context.Context, cmd Command) string{
		CmdStatus:  d.status,
		CmdRefresh: d.refresh,
		CmdPostNow: d.postNow,
		CmdLogTail: d.logTail,
		CmdAudit:   d.audit,
	}
	return d
}

func (d *Dispatcher) Handle(ctx context.Context, ev *platform.Event) {
	// Replies land in the channel we read from, so our own messages must
	// never be treated as input.
	if ev.Identity == d.conf.Tracker.SelfID {
		return
	}

	// Ordinary chatter in the admin channel is not addressed to us.
	text := strings.TrimSpace(ev.Text)
	if !strings.HasPrefix(text, "!") {
		return
	}

	cmd := Parse(ev.Text)
	handler, ok := d.handlers[cmd.Kind]

	var reply string
	if !ok {
		reply = fmt.Sprintf("Unknown command: %s", text)
	} else {
		d.logger.Infof(providers.TypeApp, "Admin command from %d: %s", ev.Identity, strings.TrimSpace(ev.Text))
		reply = handler(ctx, cmd)
	}

	if _, err := d.sender.Send(ctx, &platform.OutboundMessage{
		Channel: d.conf.Gateway.AdminChannel,
		Text:    reply,
		Plain:   reply,
	}); err != nil {
		d.logger.Errorf(providers.TypeApp, "Admin reply failed: %s", err)
	}
}

func (d *Dispatcher) status(ctx context.Context, cmd Command) string {
	h := d.resolver.Health()
	open := d.tracker.OpenSessions()

	var b strings.Builder
	fmt.Fprintf(&b, "uptime: %s\n", time.Since(d.started).Round(time.Second))
	fmt.Fprintf(&b, "call: %d, open sessions: %d\n", d.tracker.CallID(), len(open))
	fmt.Fprintf(&b, "glyphs: premium=%d pinned=%d default=%d degraded=%t\n", h.Premium, h.Pinned, h.Default, h.Degraded)
	if version, err := d.store.SessionVersion(); err == nil {
		fmt.Fprintf(&b, "session version: %d", version)
	}
	return b.String()
}

func (d *Dispatcher) refresh(ctx context.Context, cmd Command) string {
	if err := d.resolver.Hydrate(ctx); err != nil {
		return fmt.Sprintf("refresh failed: %s", err)
	}
	h := d.resolver.Health()
	return fmt.Sprintf("refreshed: premium=%d pinned=%d default=%d", h.Premium, h.Pinned, h.Default)
}

func (d *Dispatcher) postNow(ctx context.Context, cmd Command) string {
	d.sched.TriggerManual()
	return "post requested, it will go out within the next check interval"
}

// logTail returns the last N lines of the daemon log. Reads the whole file;
// logs rotate externally so the file stays small.
func (d *Dispatcher) logTail(ctx context.Context, cmd Command) string {
	path := filepath.Join(d.conf.Logger.Dir, providers.LogFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("log read failed: %s", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > cmd.Lines {
		lines = lines[len(lines)-cmd.Lines:]
	}
	return strings.Join(lines, "\n")
}

// audit reports the raw (ungated) seconds for one identity and day,
// alongside the ranked figure the boards use.
func (d *Dispatcher) audit(ctx context.Context, cmd Command) string {
	raw, err := d.store.RawDayTotal(cmd.Identity, cmd.Date)
	if err != nil {
		return fmt.Sprintf("audit failed: %s", err)
	}
	ranked, err := d.store.PeriodTotals(cmd.Date, cmd.Date)
	if err != nil {
		return fmt.Sprintf("audit failed: %s", err)
	}
	return fmt.Sprintf("identity %d on %s: raw %ds, ranked %ds", cmd.Identity, cmd.Date, raw, ranked[cmd.Identity])
}
