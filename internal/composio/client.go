// Package composio talks to the Composio tool-execution proxy, which fronts
// the Notion workspace API. Every tool call is synchronous and returns an
// explicit success flag that callers must check.
package composio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"

	"project_partner_backend/internal/config"
)

const (
	slugCreatePage    = "NOTION_CREATE_NOTION_PAGE"
	slugAppendContent = "NOTION_ADD_MULTIPLE_PAGE_CONTENT"
)

// PageData carries the identifiers of a created page.
type PageData struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Result is the outcome of one tool execution. Successful=false carries the
// service's own error text.
type Result struct {
	Successful bool     `json:"successful"`
	Data       PageData `json:"data"`
	Error      string   `json:"error"`
}

// BlockContent is the text payload of one content block.
type BlockContent struct {
	Content string `json:"content"`
}

// ContentBlock wraps one block for the append-content tool.
type ContentBlock struct {
	ContentBlock BlockContent `json:"content_block"`
}

// TextBlock builds a content block from plain text.
func TextBlock(content string) ContentBlock {
	return ContentBlock{ContentBlock: BlockContent{Content: content}}
}

// Client is the document-service surface the stage sequencer depends on.
type Client interface {
	CreatePage(ctx context.Context, parentID, title string) (*Result, error)
	AppendContent(ctx context.Context, parentBlockID string, blocks []ContentBlock) (*Result, error)
	ConnectedAccountExists(ctx context.Context) (bool, error)
}

// APIClient is the HTTP implementation of Client against the Composio proxy.
type APIClient struct {
	http         *http.Client
	baseURL      string
	apiKey       string
	userID       string
	authConfigID string
}

// NewAPIClient creates a client for the Composio proxy.
func NewAPIClient(cfg config.ComposioConfig) *APIClient {
	return &APIClient{
		http:         &http.Client{Timeout: 60 * time.Second},
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		userID:       cfg.UserID,
		authConfigID: cfg.AuthConfigID,
	}
}

type executeRequest struct {
	UserID    string         `json:"user_id"`
	Arguments map[string]any `json:"arguments"`
}

// Execute runs one named tool with the given arguments.
func (c *APIClient) Execute(ctx context.Context, slug string, arguments map[string]any) (*Result, error) {
	body, err := sonic.Marshal(executeRequest{UserID: c.userID, Arguments: arguments})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool arguments: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v3/tools/execute/%s", c.baseURL, slug)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tool execution request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read tool response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tool execution returned HTTP %d: %s", resp.StatusCode, data)
	}

	var result Result
	if err := sonic.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode tool response: %w", err)
	}
	return &result, nil
}

// CreatePage creates a page titled `title` under the given parent page.
func (c *APIClient) CreatePage(ctx context.Context, parentID, title string) (*Result, error) {
	return c.Execute(ctx, slugCreatePage, map[string]any{
		"parent_id": parentID,
		"title":     title,
	})
}

// AppendContent appends content blocks under the given page or block.
func (c *APIClient) AppendContent(ctx context.Context, parentBlockID string, blocks []ContentBlock) (*Result, error) {
	return c.Execute(ctx, slugAppendContent, map[string]any{
		"parent_block_id": parentBlockID,
		"content_blocks":  blocks,
	})
}

type connectedAccountsResponse struct {
	Items []struct {
		ID string `json:"id"`
	} `json:"items"`
}

// ConnectedAccountExists reports whether the configured user already has a
// Notion connection for the configured auth config. "Not connected" is a
// definite false, not an error.
func (c *APIClient) ConnectedAccountExists(ctx context.Context) (bool, error) {
	query := url.Values{}
	query.Set("user_ids", c.userID)
	query.Set("auth_config_ids", c.authConfigID)

	endpoint := fmt.Sprintf("%s/api/v3/connected_accounts?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("connected account lookup failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read connected account response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("connected account lookup returned HTTP %d: %s", resp.StatusCode, data)
	}

	var parsed connectedAccountsResponse
	if err := sonic.Unmarshal(data, &parsed); err != nil {
		return false, fmt.Errorf("failed to decode connected account response: %w", err)
	}
	return len(parsed.Items) > 0, nil
}
