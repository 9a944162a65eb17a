// Package clients holds the typed HTTP clients the booking orchestrator uses
// to talk to the train, ticket, and mail services. Every call runs through a
// per-call-site resilience.Caller and decodes the shared response envelope.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/railgo/railgo/internal/resilience"
)

// callTimeout bounds one attempt at a peer, not the whole retried call.
const callTimeout = 5 * time.Second

type envelope struct {
	Status         bool            `json:"status"`
	ResponseStatus string          `json:"responseStatus"`
	Message        string          `json:"message"`
	Data           json.RawMessage `json:"data"`
}

// Client is the shared transport under the typed peer clients.
type Client struct {
	baseURL string
	httpc   *http.Client
	calls   *resilience.Group
	log     *slog.Logger
}

func NewClient(baseURL string, calls *resilience.Group, log *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{},
		calls:   calls,
		log:     log,
	}
}

// doJSON performs one enveloped call against the peer. A 4xx failure
// envelope is a definitive answer and is not retried; transport errors,
// malformed responses, and 5xx envelopes are.
func (c *Client) doJSON(
	ctx context.Context,
	site, method, path string,
	query url.Values,
	body, out any,
) error {
	const op = "clients.Client.doJSON"

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	err := c.calls.Do(ctx, site, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()

		var rd io.Reader
		if body != nil {
			raw, err := json.Marshal(body)
			if err != nil {
				return resilience.Permanent(err)
			}
			rd = bytes.NewReader(raw)
		}

		req, err := http.NewRequestWithContext(ctx, method, u, rd)
		if err != nil {
			return resilience.Permanent(err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpc.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return err
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("decode response (%d): %w", resp.StatusCode, err)
		}

		if !env.Status {
			httpErr := &HTTPError{
				StatusCode:     resp.StatusCode,
				ResponseStatus: env.ResponseStatus,
				Message:        env.Message,
			}
			// 5xx envelopes can be transient, e.g. a lost compare-and-swap
			// race on a seat grid surfaces as a 500 and clears on retry.
			if resp.StatusCode >= http.StatusInternalServerError {
				return httpErr
			}
			return resilience.Permanent(httpErr)
		}

		if out != nil && len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, out); err != nil {
				return resilience.Permanent(fmt.Errorf("decode data: %w", err))
			}
		}

		return nil
	})
	if err != nil {
		c.log.Warn("peer call failed", "site", site, "url", u, "error", err)
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}
