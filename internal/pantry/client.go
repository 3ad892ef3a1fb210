package pantry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PhiFever/pantryscan/internal/logger"
)

// ErrStatus is wrapped by errors for responses with an unexpected status.
var ErrStatus = errors.New("unexpected status")

const itemsPath = "/pantry/"

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 512

// Client talks to the pantry item store.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the store at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// List returns every stored item.
func (c *Client) List(ctx context.Context) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+itemsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create list request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var items []Item
	if err := c.do(req, http.StatusOK, &items); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

// Create stores item and returns it with its assigned ID.
func (c *Client) Create(ctx context.Context, item NewItem) (Item, error) {
	body, err := json.Marshal(item)
	if err != nil {
		return Item{}, fmt.Errorf("failed to encode item: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+itemsPath, bytes.NewReader(body))
	if err != nil {
		return Item{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var created Item
	if err := c.do(req, http.StatusCreated, &created); err != nil {
		return Item{}, fmt.Errorf("create item %q: %w", item.Name, err)
	}

	logger.Infof("[Pantry] Created item %d %q", created.ID, created.Name)
	return created, nil
}

func (c *Client) do(req *http.Request, want int, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w %d: %s", ErrStatus, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
