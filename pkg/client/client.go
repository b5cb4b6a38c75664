package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/orgraph/orgraph/internal/aggregator"
	"github.com/orgraph/orgraph/internal/domain"
)

// SnapshotInfo describes one snapshot document available on the server
type SnapshotInfo struct {
	Owner       string    `json:"owner"`
	LastUpdated time.Time `json:"lastUpdated"`
	Size        int64     `json:"size"`
}

// Client is the API client for the orgraph snapshot server
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListSnapshots retrieves the available snapshot documents
func (c *Client) ListSnapshots() ([]SnapshotInfo, error) {
	var response struct {
		Data []SnapshotInfo `json:"data"`
	}
	if err := c.get("/api/v1/snapshots", &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetSnapshot retrieves one owner's full snapshot document
func (c *Client) GetSnapshot(owner string) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	if err := c.get(fmt.Sprintf("/api/v1/snapshots/%s", owner), &snap); err != nil {
		return nil, err
	}
	snap.Normalize()
	return &snap, nil
}

// GetSummary retrieves the owner-level rollup of one snapshot
func (c *Client) GetSummary(owner string) (*aggregator.Summary, error) {
	var response struct {
		Data *aggregator.Summary `json:"data"`
	}
	if err := c.get(fmt.Sprintf("/api/v1/snapshots/%s/summary", owner), &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck() error {
	var response struct {
		Status string `json:"status"`
	}
	if err := c.get("/health", &response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return nil
}

func (c *Client) get(path string, result interface{}) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}
