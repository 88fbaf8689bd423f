package controllers

import (
	"fmt"
	"net/http"
	"studyd/internal/glyphs"
	"studyd/internal/tracker"
	"time"

	json "github.com/goccy/go-json"
)

type HealthController struct {
	tracker   tracker.TrackerInterface
	resolver  glyphs.ResolverInterface
	startTime time.Time
}

type healthResponse struct {
	Status        string  `json:"status"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	CallID        int64   `json:"call_id"`
	OpenSessions  int     `json:"open_sessions"`
	GlyphPremium  int     `json:"glyph_premium"`
	GlyphDefault  int     `json:"glyph_default"`
	GlyphDegraded bool    `json:"glyph_degraded"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	h := hc.resolver.Health()
	resp := healthResponse{
		Status:        "ok",
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
		CallID:        hc.tracker.CallID(),
		OpenSessions:  len(hc.tracker.OpenSessions()),
		GlyphPremium:  h.Premium,
		GlyphDefault:  h.Default,
		GlyphDegraded: h.Degraded,
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(trk tracker.TrackerInterface, resolver glyphs.ResolverInterface) *HealthController {
	return &HealthController{
		tracker:   trk,
		resolver:  resolver,
		startTime: time.Now(),
	}
}
