// Package registryclient talks to the registry over HTTP. Services use Heartbeat to keep
// themselves registered; tools use the single calls.
package registryclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"myregistry/domain"
	"myregistry/helpers"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// unregisterTimeout bounds the best-effort unregistration when a heartbeat stops.
const unregisterTimeout = 5 * time.Second

// APIError is a non-200 answer from the registry.
type APIError struct {
	StatusCode int
	Name       string         `json:"name"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details"`
}

func (e *APIError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("registry returned %d", e.StatusCode)
	}
	return fmt.Sprintf("registry returned %d %s: %s", e.StatusCode, e.Name, e.Message)
}

// Client calls the four registry routes.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a Client for baseURL (e.g. http://registry:8080). Panics on empty baseURL or nil client.
func New(baseURL string, client *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(helpers.StrPanic(baseURL, "registryclient.client.go: baseURL is required"), "/"),
		client:  helpers.NilPanic(client, "registryclient.client.go: http client is required"),
	}
}

type registerRequest struct {
	Meta domain.Meta `json:"meta"`
}

type summaryInfo struct {
	Group         string    `json:"group"`
	Instances     int       `json:"instances"`
	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// Register performs POST /{group}/{id} and returns the group as the registry sees it afterwards.
func (c *Client) Register(ctx context.Context, group, id string, meta domain.Meta) ([]domain.Instance, error) {
	body, err := json.Marshal(registerRequest{Meta: meta})
	if err != nil {
		return nil, fmt.Errorf("can't marshal meta: %w", err)
	}
	var out []domain.Instance
	if err := c.do(ctx, http.MethodPost, instancePath(group, id), body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Unregister performs DELETE /{group}/{id}. Unregistering an unknown instance succeeds.
func (c *Client) Unregister(ctx context.Context, group, id string) error {
	return c.do(ctx, http.MethodDelete, instancePath(group, id), nil, nil)
}

// Summary performs GET /.
func (c *Client) Summary(ctx context.Context) ([]domain.GroupSummary, error) {
	var raw []summaryInfo
	if err := c.do(ctx, http.MethodGet, "/", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]domain.GroupSummary, 0, len(raw))
	for _, s := range raw {
		out = append(out, domain.GroupSummary{
			Group:           s.Group,
			InstanceCount:   s.Instances,
			EarliestCreated: s.CreatedAt,
			LatestUpdated:   s.LastUpdatedAt,
		})
	}
	return out, nil
}

// Details performs GET /{group}. An unknown group is an empty slice.
func (c *Client) Details(ctx context.Context, group string) ([]domain.Instance, error) {
	var out []domain.Instance
	if err := c.do(ctx, http.MethodGet, "/"+url.PathEscape(group), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Instance{}
	}
	return out, nil
}

// Heartbeat registers (group, id) right away and then every interval until ctx is done,
// then unregisters it. A failed registration is logged and retried on the next tick.
// Returns the error of the final unregistration, if any.
func (c *Client) Heartbeat(ctx context.Context, group, id string, meta domain.Meta, interval time.Duration, logger log.Logger) error {
	helpers.PositivePanic(interval, "registryclient.client.go: interval must be positive")
	logger = log.WithPrefix(helpers.NilPanic(logger, "registryclient.client.go: logger is required"),
		"component", "Heartbeat", "group", group, "id", id)

	beat := func() {
		if _, err := c.Register(ctx, group, id, meta); err != nil {
			if ctx.Err() == nil {
				level.Warn(logger).Log("msg", "Registration failed, retrying on next tick", "err", err)
			}
			return
		}
		level.Debug(logger).Log("msg", "Registered")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	beat()
	for {
		select {
		case <-ctx.Done():
			unregisterCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), unregisterTimeout)
			defer cancel()
			if err := c.Unregister(unregisterCtx, group, id); err != nil {
				level.Warn(logger).Log("msg", "Unregistration failed, the registry will expire the instance", "err", err)
				return err
			}
			level.Info(logger).Log("msg", "Unregistered")
			return nil
		case <-ticker.C:
			beat()
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		// best effort: a proxy in between may answer with something else
		_ = json.Unmarshal(data, apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("can't decode %s %s response: %w", method, path, err)
	}
	return nil
}

func instancePath(group, id string) string {
	return "/" + url.PathEscape(group) + "/" + url.PathEscape(id)
}
