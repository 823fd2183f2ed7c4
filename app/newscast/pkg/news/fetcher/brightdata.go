package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultEndpoint = "https://api.brightdata.com/request"

// BrightData Bright Data Web Unlocker API 客户端
type BrightData struct {
	endpoint string
	apiToken string
	zone     string
	client   *http.Client
}

// NewBrightData 创建一个新的 Web Unlocker 客户端
func NewBrightData(endpoint, apiToken, zone string, timeout time.Duration) *BrightData {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &BrightData{
		endpoint: endpoint,
		apiToken: apiToken,
		zone:     zone,
		client:   &http.Client{Timeout: timeout},
	}
}

// Ensure BrightData implements Fetcher
var _ Fetcher = (*BrightData)(nil)

// unlockRequest Web Unlocker 请求参数
type unlockRequest struct {
	Zone    string `json:"zone"`
	URL     string `json:"url"`
	Format  string `json:"format"`
	Country string `json:"country,omitempty"`
}

// Fetch implements Fetcher
func (c *BrightData) Fetch(ctx context.Context, pageURL string) (string, error) {
	payload, err := json.Marshal(unlockRequest{
		Zone:   c.zone,
		URL:    pageURL,
		Format: "raw",
	})
	if err != nil {
		return "", fmt.Errorf("marshal request failed: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Add("Authorization", "Bearer "+c.apiToken)
	httpReq.Header.Add("Content-Type", "application/json")

	res, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body failed: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("brightdata api error (status %d): %s", res.StatusCode, truncate(string(body), 300))
	}
	return string(body), nil
}
