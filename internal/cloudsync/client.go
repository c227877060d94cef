package cloudsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/NonStopParking/NonStopParking/internal/common/config"
	"github.com/NonStopParking/NonStopParking/internal/common/middleware"
)

// ErrAPIKeyMissing 未配置云端 API key 时拒绝推送。
var ErrAPIKeyMissing = errors.New("cloud api key not configured")

// Client 云端 JSON-RPC 客户端，所有外呼都走熔断器。
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	breaker *middleware.CircuitBreaker
}

func NewClient(cfg config.SyncConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.CloudURL,
		apiKey:  cfg.APIKey,
		httpc:   &http.Client{Timeout: timeout},
		breaker: middleware.NewCircuitBreaker("cloud-sync", 5, 30*time.Second),
	}
}

type rpcRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
	ID      int            `json:"id"`
}

type rpcResponse struct {
	Result *rpcResult      `json:"result"`
	Error  json.RawMessage `json:"error"`
}

type rpcResult struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// call 发起一次 JSON-RPC 调用，api_key 合并进 params。
func (c *Client) call(ctx context.Context, endpoint string, params map[string]any) (*rpcResult, error) {
	if c.apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	merged := make(map[string]any, len(params)+1)
	for k, v := range params {
		merged[k] = v
	}
	merged["api_key"] = c.apiKey

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  merged,
		ID:      1,
	})
	if err != nil {
		return nil, err
	}

	var result *rpcResult
	err = c.breaker.Call(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpc.Do(req)
		if err != nil {
			return fmt.Errorf("connection failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("http error: %d %s", resp.StatusCode, resp.Status)
		}

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		var rr rpcResponse
		if err := json.Unmarshal(raw, &rr); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		if len(rr.Error) > 0 {
			return fmt.Errorf("api error: %s", string(rr.Error))
		}
		if rr.Result == nil {
			return fmt.Errorf("empty result")
		}
		result = rr.Result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// PushTags 推送一批标签快照。
func (c *Client) PushTags(ctx context.Context, tags []TagPayload) (*rpcResult, error) {
	return c.call(ctx, "/api/v1/sync/tag", map[string]any{"tags": tags})
}

// PullTags 拉取 lastSync 之后云端变更的标签。
func (c *Client) PullTags(ctx context.Context, lastSync string) ([]TagPayload, error) {
	res, err := c.call(ctx, "/api/v1/sync/tag/pull", map[string]any{"last_sync_date": lastSync})
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, fmt.Errorf("pull rejected: %s", res.Message)
	}
	var data struct {
		Tags []TagPayload `json:"tags"`
	}
	if len(res.Data) > 0 {
		if err := json.Unmarshal(res.Data, &data); err != nil {
			return nil, fmt.Errorf("decode pull data: %w", err)
		}
	}
	return data.Tags, nil
}
