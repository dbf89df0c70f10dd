// Package client is the HTTP client for the leaftran API. It implements
// session.Backend.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/valpere/leaftran/internal"
)

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Message)
}

// HTTPStatus reports the response status.
func (e *HTTPError) HTTPStatus() int { return e.StatusCode }

// Detail reports the server's error_message.
func (e *HTTPError) Detail() string { return e.Message }

// Client talks to a leaftran server.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a client for baseURL. A nil httpClient gets a 60s timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}
}

// FetchLeaflets returns every stored leaflet.
func (c *Client) FetchLeaflets(ctx context.Context) ([]internal.Leaflet, error) {
	var resp struct {
		Leaflets []internal.Leaflet `json:"leaflets"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/leaflets", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Leaflets, nil
}

// SaveLeaflet stores l and returns the stored form.
func (c *Client) SaveLeaflet(ctx context.Context, l internal.Leaflet) (internal.Leaflet, error) {
	var saved internal.Leaflet
	if err := c.doJSON(ctx, http.MethodPost, "/api/leaflets", l, &saved); err != nil {
		return internal.Leaflet{}, err
	}
	return saved, nil
}

// DeleteLeaflet removes a stored leaflet.
func (c *Client) DeleteLeaflet(ctx context.Context, id string) error {
	var resp struct {
		Success bool `json:"success"`
	}
	if err := c.doJSON(ctx, http.MethodDelete, "/api/leaflets/"+url.PathEscape(id), nil, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("delete of leaflet %s was not acknowledged", id)
	}
	return nil
}

// TranslateRequest is the body of POST /api/translate.
type TranslateRequest struct {
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Text       string `json:"text"`
}

// TranslateResponse is the body returned by POST /api/translate.
type TranslateResponse struct {
	Translation string `json:"translation"`
}

// Translate translates text from sourceLang to targetLang.
func (c *Client) Translate(ctx context.Context, sourceLang, targetLang, text string) (string, error) {
	var resp TranslateResponse
	req := TranslateRequest{SourceLang: sourceLang, TargetLang: targetLang, Text: text}
	if err := c.doJSON(ctx, http.MethodPost, "/api/translate", req, &resp); err != nil {
		return "", err
	}
	return resp.Translation, nil
}

// DocumentRequest is the body of POST /api/document.
type DocumentRequest struct {
	Content string `json:"content"`
}

// GenerateDocument returns the .docx bytes built from content.
func (c *Client) GenerateDocument(ctx context.Context, content string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/document", DocumentRequest{Content: content})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return data, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// do sends the request and converts non-2xx responses into *HTTPError. The
// caller closes the body of a successful response.
func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		var errResp struct {
			ErrorMessage string `json:"error_message"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &errResp) != nil {
			errResp.ErrorMessage = strings.TrimSpace(string(raw))
		}
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: errResp.ErrorMessage}
	}
	return resp, nil
}
