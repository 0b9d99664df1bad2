package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/qrprint/kiosk/internal/core"
)

// Client talks to the kiosk server's lifecycle API. Rejections come back
// as the core sentinel errors so the worker can log precisely why a
// scanned code was refused.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

type resolveResponse struct {
	Filepath string `json:"filepath"`
	Error    string `json:"error"`
}

// Resolve asks the server for the stored file path behind a token.
func (c *Client) Resolve(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/jobs/%s/resolve", c.baseURL, token), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to contact server: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read server response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", core.ErrNotFound
	case http.StatusForbidden:
		return "", core.ErrExpired
	case http.StatusPaymentRequired:
		return "", core.ErrPaymentRequired
	case http.StatusConflict:
		return "", core.ErrAlreadyPrinted
	default:
		return "", fmt.Errorf("server rejected token: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed resolveResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode server response: %w", err)
	}
	if parsed.Filepath == "" {
		return "", fmt.Errorf("server response carried no filepath")
	}
	return parsed.Filepath, nil
}

// MarkPrinted reports a completed print back to the server.
func (c *Client) MarkPrinted(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/jobs/%s/printed", c.baseURL, token), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to contact server: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return core.ErrNotFound
	default:
		return fmt.Errorf("server refused printed mark: %d", resp.StatusCode)
	}
}
