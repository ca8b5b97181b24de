// Package restapi implements the appointment repository and roster against
// the salon's booking REST API.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/javiermolinar/spagrid/internal/appointment"
	"github.com/javiermolinar/spagrid/internal/dateutil"
)

const (
	// DefaultTimeout bounds every request when none is configured.
	DefaultTimeout = 25 * time.Second

	pageSize        = 100
	maxPages        = 50
	requestIDHeader = "X-Request-Id"
)

// ErrTooManyPages is returned when a day spans more pages than the client
// is willing to follow.
var ErrTooManyPages = errors.New("too many result pages")

// StatusError is a non-2xx response.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status=%d, body=%s", e.Op, e.Code, e.Body)
}

// Client talks to the booking API with basic auth.
type Client struct {
	BaseURL string
	User    string
	Token   string
	HTTP    *http.Client
	Logger  *slog.Logger
}

// NewClient creates a client with pooled connections and the given timeout.
func NewClient(baseURL, user, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		User:    user,
		Token:   token,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		HTTP: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// Close drops idle connections.
func (c *Client) Close() error {
	c.HTTP.CloseIdleConnections()
	return nil
}

// do sends a request and decodes a 2xx JSON body into out. Non-2xx
// responses become *StatusError.
func (c *Client) do(ctx context.Context, op, method, u string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encoding body: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	requestID := uuid.NewString()
	req.SetBasicAuth(c.User, c.Token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.Logger.Debug("api request", "op", op, "method", method, "status", resp.StatusCode,
		"request_id", requestID, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// clock renders a time of day the way the API expects it (HH:MM:SS).
func clock(t appointment.TimeOfDay) string {
	return t.String() + ":00"
}

func dayQuery(date time.Time, page int) url.Values {
	q := url.Values{}
	q.Set("date", dateutil.Format(date))
	q.Set("page", fmt.Sprintf("%d", page))
	q.Set("size", fmt.Sprintf("%d", pageSize))
	return q
}
