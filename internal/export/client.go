package export

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"studyd/internal/models"
	"studyd/internal/providers"
	"studyd/internal/structures"
	"time"

	json "github.com/goccy/go-json"
)

// Payload is the webhook body. Boards carry all three windows exactly as
// posted so the receiving site never recomputes rankings.
type Payload struct {
	PostedAt  time.Time                   `json:"posted_at"`
	Source    string                      `json:"source"`
	MessageID int64                       `json:"message_id"`
	ChatID    int64                       `json:"chat_id"`
	Boards    []*models.LeaderboardWindow `json:"boards"`
}

type ClientInterface interface {
	Push(ctx context.Context, payload *Payload)
}

// Client pushes posted boards to an external site. The push is strictly
// best-effort: any failure is logged and counted, never propagated, so a
// broken webhook cannot block or delay board posting.
type Client struct {
	conf    *structures.Config
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
	http    *http.Client
}

func NewClient(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) ClientInterface {
	if !conf.Export.Enabled || conf.Export.URL == "" {
		return &noopClient{}
	}
	return &Client{
		conf:    conf,
		logger:  logger,
		metrics: metrics,
		http:    &http.Client{Timeout: conf.Export.Timeout},
	}
}

func (c *Client) Push(ctx context.Context, payload *Payload) {
	payload.Source = "tracker"

	if err := c.push(ctx, payload); err != nil {
		c.metrics.IncExports("error")
		c.logger.Warnf(providers.TypeBoard, "Export push failed: %s", err)
		return
	}
	c.metrics.IncExports("ok")
}

func (c *Client) push(ctx context.Context, payload *Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	pushCtx, cancel := context.WithTimeout(ctx, c.conf.Export.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(pushCtx, http.MethodPost, c.conf.Export.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Leaderboard-Secret", c.conf.Export.Secret)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("export endpoint returned %d", resp.StatusCode)
	}
	return nil
}

type noopClient struct{}

func (n *noopClient) Push(ctx context.Context, payload *Payload) {}
