// Package remote implements the outbound half of the sync boundary: a
// client that delivers `{tableName, recordId, action, data}` tuples to the
// sync server in the order the outbox hands them over.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hamyon/internal/core"
)

// Client posts outbox items to the sync server. It implements
// services.Pusher.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

func NewClient(baseURL, authToken string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type applyRequest struct {
	TableName string          `json:"tableName"`
	RecordID  string          `json:"recordId"`
	Action    string          `json:"action"`
	Data      json.RawMessage `json:"data"`
}

// Push applies one mutation remotely. Any non-2xx response is an error so
// the outbox records the attempt; the server is expected to treat replays
// idempotently (last write wins).
func (c *Client) Push(ctx context.Context, item core.OutboxItem) error {
	body, err := json.Marshal(applyRequest{
		TableName: item.TableName,
		RecordID:  item.RecordID,
		Action:    string(item.Action),
		Data:      item.Data,
	})
	if err != nil {
		return fmt.Errorf("marshal sync request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sync/apply", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push %s/%s: %w", item.TableName, item.RecordID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push %s/%s: server returned %d: %s",
			item.TableName, item.RecordID, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
