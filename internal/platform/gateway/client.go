package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"studyd/internal/platform"
	"studyd/internal/providers"
	"studyd/internal/structures"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cast"
)

// Client talks to the messaging gateway sidecar over HTTP. It implements
// every platform boundary interface so the rest of the daemon never sees
// HTTP details. Transient failures retry with exponential backoff and
// jitter; the caller's context bounds the whole attempt chain.
type Client struct {
	conf   *structures.Config
	logger providers.Logger
	http   *http.Client
	base   string
}

func NewClient(conf *structures.Config, logger providers.Logger) *Client {
	return &Client{
		conf:   conf,
		logger: logger,
		http:   &http.Client{Timeout: conf.Gateway.RequestTimeout},
		base:   conf.Gateway.BaseURL,
	}
}

// Next blocks on the gateway's long-poll endpoint until an event arrives or
// ctx expires. A 204 means the poll timed out upstream with nothing to
// deliver; callers just loop.
func (c *Client) Next(ctx context.Context) (*platform.Event, error) {
	q := url.Values{}
	q.Set("room", c.conf.Gateway.Room)
	q.Set("channel", c.conf.Gateway.AdminChannel)

	var ev platform.Event
	found, err := c.getJSON(ctx, "/v1/events?"+q.Encode(), &ev)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &ev, nil
}

// Roster fetches the current voice-room membership. nil with no error means
// no call is active.
func (c *Client) Roster(ctx context.Context) (*platform.Roster, error) {
	q := url.Values{}
	q.Set("room", c.conf.Gateway.Room)

	var roster platform.Roster
	found, err := c.getJSON(ctx, "/v1/roster?"+q.Encode(), &roster)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &roster, nil
}

// Reference fetches the pinned reference message the glyph cache hydrates
// from.
func (c *Client) Reference(ctx context.Context) (*platform.ReferenceMessage, error) {
	q := url.Values{}
	q.Set("channel", c.conf.Gateway.Channel)

	var ref platform.ReferenceMessage
	found, err := c.getJSON(ctx, "/v1/reference?"+q.Encode(), &ref)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &ref, nil
}

type sendRequest struct {
	Transport string            `json:"transport"`
	Channel   string            `json:"channel"`
	Text      string            `json:"text"`
	Plain     string            `json:"plain,omitempty"`
	Entities  []platform.Entity `json:"entities,omitempty"`
}

type sendResponse struct {
	MessageID int64 `json:"message_id"`
}

func (c *Client) Send(ctx context.Context, msg *platform.OutboundMessage) (int64, error) {
	body, err := json.Marshal(&sendRequest{
		Transport: c.conf.Gateway.Transport,
		Channel:   msg.Channel,
		Text:      msg.Text,
		Plain:     msg.Plain,
		Entities:  msg.Entities,
	})
	if err != nil {
		return 0, err
	}

	var resp sendResponse
	if err := c.withRetry(ctx, "send", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/v1/send", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		return c.do(req, &resp)
	}); err != nil {
		return 0, err
	}
	return resp.MessageID, nil
}

// ChatID is the numeric identity of the board channel, for export payloads.
func (c *Client) ChatID() int64 {
	return cast.ToInt64(c.conf.Gateway.Channel)
}

// getJSON fetches and decodes one resource. Returns found=false on 204.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) (bool, error) {
	found := true
	err := c.withRetry(ctx, path, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNoContent {
			found = false
			return nil
		}
		if resp.StatusCode != http.StatusOK {
			return statusError(resp)
		}
		found = true
		return json.NewDecoder(resp.Body).Decode(out)
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// withRetry runs fn up to Retries+1 times with exponential backoff and
// jitter. 4xx responses other than 429 do not retry.
func (c *Client) withRetry(ctx context.Context, op string, fn func() error) error {
	backoff := c.conf.Gateway.Backoff
	var lastErr error

	for attempt := 0; attempt <= c.conf.Gateway.Retries; attempt++ {
		if attempt > 0 {
			sleep := backoff + time.Duration(rand.Int63n(int64(backoff)/2+1))
			select {
			case <-time.After(sleep):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if he, ok := lastErr.(*httpError); ok && he.permanent() {
			return lastErr
		}
		c.logger.Warnf(providers.TypeApp, "Gateway %s attempt %d failed: %s", op, attempt+1, lastErr)
	}
	return fmt.Errorf("gateway %s: %w", op, lastErr)
}

type httpError struct {
	status int
	body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", e.status, e.body)
}

func (e *httpError) permanent() bool {
	return e.status >= 400 && e.status < 500 && e.status != http.StatusTooManyRequests
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &httpError{status: resp.StatusCode, body: string(bytes.TrimSpace(body))}
}
