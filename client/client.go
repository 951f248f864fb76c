package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/toripushy/milkyway-calendar"
	"github.com/toripushy/milkyway-calendar/internal/domain"
)

const (
	defaultTimeout = 3 * time.Second

	monthCacheTTL     = 15 * time.Second
	monthCacheCleanup = time.Minute
)

// Client talks to the record store's REST surface. Month projections
// are cached briefly so calendar redraws don't hammer the server; any
// mutation through this client flushes that cache.
type Client struct {
	client  *http.Client
	baseURL string
	months  *cache.Cache
}

func New(baseURL string) *Client {
	return &Client{
		client:  &http.Client{Timeout: defaultTimeout},
		baseURL: baseURL,
		months:  cache.New(monthCacheTTL, monthCacheCleanup),
	}
}

func (c *Client) List(ctx context.Context) ([]milkyway.Record, error) {
	var records []milkyway.Record
	err := c.doJSON(ctx, http.MethodGet, "/records", nil, &records, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) ListByMonth(ctx context.Context, year, month int) (map[string][]milkyway.Record, error) {
	cacheKey := milkyway.MonthPrefix(year, month)
	if x, found := c.months.Get(cacheKey); found {
		return x.(map[string][]milkyway.Record), nil
	}

	path := "/records/month/" + strconv.Itoa(year) + "/" + strconv.Itoa(month)
	var byDate map[string][]milkyway.Record
	err := c.doJSON(ctx, http.MethodGet, path, nil, &byDate, http.StatusOK)
	if err != nil {
		return nil, err
	}

	c.months.Set(cacheKey, byDate, cache.DefaultExpiration)
	return byDate, nil
}

func (c *Client) Insert(ctx context.Context, record milkyway.Record) error {
	err := c.doJSON(ctx, http.MethodPost, "/records", record, nil, http.StatusCreated)
	if err != nil {
		return err
	}
	c.months.Flush()
	return nil
}

func (c *Client) Update(ctx context.Context, id string, patch milkyway.RecordPatch) error {
	err := c.doJSON(ctx, http.MethodPut, "/records/"+id, patch, nil, http.StatusOK)
	if err != nil {
		return err
	}
	c.months.Flush()
	return nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	err := c.doJSON(ctx, http.MethodDelete, "/records/"+id, nil, nil, http.StatusOK)
	if err != nil {
		return err
	}
	c.months.Flush()
	return nil
}

// Health probes the record store's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	var reply struct {
		Status string `json:"status"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/health", nil, &reply, http.StatusOK)
	if err != nil {
		return err
	}
	if reply.Status != "ok" {
		return fmt.Errorf("unexpected health status: %q", reply.Status)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, response any, wantStatus int) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.NotFoundError{Resource: "record"}
	}
	if resp.StatusCode != wantStatus {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if response == nil {
		return nil
	}
	err = json.NewDecoder(resp.Body).Decode(response)
	if err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
