package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/beamly/fastlydash/internal/logger"
	"github.com/beamly/fastlydash/internal/models"
)

const DefaultBaseURL = "https://api.fastly.com/"

var ErrUnexpectedShape = errors.New("unexpected response shape")

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.Endpoint)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL == "" {
			return
		}
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		c.baseURL = baseURL
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func WithLogger(log logger.Logger) Option {
	return func(c *Client) { c.log = log }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListServices returns every configured service keyed by name, in API order.
func (c *Client) ListServices(ctx context.Context) (models.ServiceDirectory, error) {
	c.log.Infow("getting all services")

	var raw []struct {
		Name *string `json:"name"`
		ID   *string `json:"id"`
	}
	if err := c.get(ctx, "service", &raw); err != nil {
		return models.ServiceDirectory{}, err
	}

	services := make([]models.Service, 0, len(raw))
	for i, s := range raw {
		if s.Name == nil || s.ID == nil || *s.Name == "" || *s.ID == "" {
			return models.ServiceDirectory{}, fmt.Errorf("%w: service entry %d is missing name or id", ErrUnexpectedShape, i)
		}
		services = append(services, models.Service{Name: *s.Name, ID: *s.ID})
	}

	c.log.Debugw("fetched services", "count", len(services))
	return models.NewServiceDirectory(services), nil
}

func StatsEndpoint(hours int) string {
	return fmt.Sprintf("stats?from=%d+hours+ago", hours)
}

// GetStats returns aggregate statistics for all services over the last hours.
func (c *Client) GetStats(ctx context.Context, hours int) (*models.StatsResponse, error) {
	c.log.Infow("getting all service statistics", "hours", hours)

	var stats models.StatsResponse
	if err := c.get(ctx, StatsEndpoint(hours), &stats); err != nil {
		return nil, err
	}

	if stats.Status != "" && stats.Status != "success" {
		msg := ""
		if stats.Msg != nil {
			msg = *stats.Msg
		}
		return nil, fmt.Errorf("%w: stats status %q: %s", ErrUnexpectedShape, stats.Status, msg)
	}
	if stats.Data == nil {
		return nil, fmt.Errorf("%w: stats response has no data object", ErrUnexpectedShape)
	}

	c.log.Debugw("fetched statistics", "services", len(stats.Data))
	return &stats, nil
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	url := c.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Fastly-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	c.log.Infow("making request", "method", http.MethodGet, "endpoint", endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Errorw("request failed", "endpoint", endpoint, "error", err)
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Errorw("unexpected status", "endpoint", endpoint, "status", resp.StatusCode)
		return &StatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return fmt.Errorf("%w: %s: %v", ErrUnexpectedShape, endpoint, err)
		}
		return fmt.Errorf("decoding response from %s: %w", endpoint, err)
	}

	return nil
}
