// Package integration connects doer to external services.
package integration

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
)

// DefaultNotionBaseURL is the Notion public API root.
const DefaultNotionBaseURL = "https://api.notion.com/v1"

// DefaultNotionVersion is sent in the Notion-Version header when none is configured.
const DefaultNotionVersion = "2022-06-28"

// Titled is anything that can be published as a page title. models.Task
// satisfies it through Task.Title.
type Titled interface {
	Title() string
}

// NotionClient publishes task titles to a Notion database and reads them back.
type NotionClient interface {
	AddPage(ctx context.Context, item Titled) error
	ListTitles(ctx context.Context) ([]string, error)
}

// NotionOptions configures a NotionClient. Empty fields take defaults.
type NotionOptions struct {
	BaseURL    string
	Version    string
	HTTPClient *http.Client
}

type notionClient struct {
	keys    NotionKeys
	baseURL string
	version string
	client  *http.Client
}

// NewNotionClient creates a NotionClient authenticated with keys.
func NewNotionClient(keys NotionKeys, opts NotionOptions) NotionClient {
	c := &notionClient{
		keys:    keys,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		version: opts.Version,
		client:  opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultNotionBaseURL
	}
	if c.version == "" {
		c.version = DefaultNotionVersion
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: 15 * time.Second}
	}
	return c
}

// NotionAPIError is returned for non-2xx responses.
type NotionAPIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *NotionAPIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("notion API returned status %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("notion API returned status %d", e.StatusCode)
}

type richText struct {
	Text      *textContent `json:"text,omitempty"`
	PlainText string       `json:"plain_text,omitempty"`
}

type textContent struct {
	Content string `json:"content"`
}

type property struct {
	Type  string     `json:"type,omitempty"`
	Title []richText `json:"title,omitempty"`
}

type databaseResponse struct {
	Properties map[string]property `json:"properties"`
}

type queryResponse struct {
	Results []struct {
		Properties map[string]property `json:"properties"`
	} `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// AddPage creates a page in the database whose title is item.Title().
func (c *notionClient) AddPage(ctx context.Context, item Titled) error {
	title := strings.TrimSpace(item.Title())
	if title == "" {
		return errors.New("adding notion page: title is empty")
	}

	prop, err := c.titleProperty(ctx)
	if err != nil {
		return fmt.Errorf("adding notion page: %w", err)
	}

	body := map[string]any{
		"parent": map[string]string{"database_id": c.keys.DatabaseID},
		"properties": map[string]any{
			prop: map[string]any{
				"title": []richText{{Text: &textContent{Content: title}}},
			},
		},
	}
	if err := c.do(ctx, http.MethodPost, "/pages", body, nil); err != nil {
		return fmt.Errorf("adding notion page: %w", err)
	}
	return nil
}

// ListTitles returns the title of every page in the database, following
// pagination cursors.
func (c *notionClient) ListTitles(ctx context.Context) ([]string, error) {
	var titles []string
	cursor := ""
	for {
		body := map[string]any{"page_size": 100}
		if cursor != "" {
			body["start_cursor"] = cursor
		}
		var resp queryResponse
		if err := c.do(ctx, http.MethodPost, "/databases/"+c.keys.DatabaseID+"/query", body, &resp); err != nil {
			return nil, fmt.Errorf("listing notion pages: %w", err)
		}
		for _, page := range resp.Results {
			if t, ok := pageTitle(page.Properties); ok {
				titles = append(titles, t)
			}
		}
		if !resp.HasMore || resp.NextCursor == "" {
			return titles, nil
		}
		cursor = resp.NextCursor
	}
}

// titleProperty looks up the name of the database's title column, which
// users are free to rename.
func (c *notionClient) titleProperty(ctx context.Context) (string, error) {
	var db databaseResponse
	if err := c.do(ctx, http.MethodGet, "/databases/"+c.keys.DatabaseID, nil, &db); err != nil {
		return "", fmt.Errorf("reading database schema: %w", err)
	}
	for name, p := range db.Properties {
		if p.Type == "title" {
			return name, nil
		}
	}
	return "title", nil
}

func pageTitle(props map[string]property) (string, bool) {
	for _, p := range props {
		if p.Type != "title" {
			continue
		}
		var b strings.Builder
		for _, rt := range p.Title {
			b.WriteString(rt.PlainText)
		}
		return b.String(), true
	}
	return "", false
}

func (c *notionClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshalling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.keys.APIKey)
	req.Header.Set("Notion-Version", c.version)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling notion API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &NotionAPIError{StatusCode: resp.StatusCode}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
