// Package client provides an HTTP client for the itrack JSON API. It
// satisfies the same store interfaces as the local repositories so the CLI
// can work against a remote server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/evcraddock/issue-tracker/internal/comment"
	"github.com/evcraddock/issue-tracker/internal/version"
)

// Client is an HTTP client for the itrack API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// BadRequest reports whether the server rejected the input.
func (e *APIError) BadRequest() bool {
	return e.Status == http.StatusBadRequest
}

// ListByIssue returns the comments on an issue.
func (c *Client) ListByIssue(ctx context.Context, issueID int64) ([]*comment.Comment, error) {
	var comments []*comment.Comment
	if err := c.get(ctx, fmt.Sprintf("/api/issues/%d/comments", issueID), &comments); err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []*comment.Comment{}
	}
	return comments, nil
}

// Add adds a comment to cm.IssueID. The server stamps the timestamps.
func (c *Client) Add(ctx context.Context, cm *comment.Comment) error {
	body := map[string]string{"comment": cm.Body, "creator": cm.Creator}
	return c.send(ctx, http.MethodPost, fmt.Sprintf("/api/issues/%d/comments", cm.IssueID), body, nil)
}

// Edit replaces the body of comment cm.ID.
func (c *Client) Edit(ctx context.Context, cm *comment.Comment) error {
	body := map[string]string{"comment": cm.Body}
	return c.send(ctx, http.MethodPut, fmt.Sprintf("/api/comments/%d", cm.ID), body, nil)
}

// DeleteByID removes a comment.
func (c *Client) DeleteByID(ctx context.Context, commentID int64) error {
	return c.send(ctx, http.MethodDelete, fmt.Sprintf("/api/comments/%d", commentID), nil, nil)
}

// Versions returns a view of the client that manages project versions.
func (c *Client) Versions() *Versions {
	return &Versions{c: c}
}

// Versions is the version half of the API. Add and ListByProject collide
// with the comment methods on Client, so they live on their own type.
type Versions struct {
	c *Client
}

// Add adds a version to ver.ProjectID and returns its ID.
func (v *Versions) Add(ctx context.Context, ver *version.Version) (string, error) {
	if ver == nil {
		return "", fmt.Errorf("%w: nil version", version.ErrInvalid)
	}
	if err := version.CheckProjectID(ver.ProjectID); err != nil {
		return "", err
	}
	body := map[string]string{"id": ver.ID, "name": ver.Name}
	var resp struct {
		ID string `json:"id"`
	}
	if err := v.c.send(ctx, http.MethodPost, projectPath(ver.ProjectID), body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// ListByProject returns a project's versions.
func (v *Versions) ListByProject(ctx context.Context, projectID string) ([]*version.Version, error) {
	if err := version.CheckProjectID(projectID); err != nil {
		return nil, err
	}
	var versions []*version.Version
	if err := v.c.get(ctx, projectPath(projectID), &versions); err != nil {
		return nil, err
	}
	if versions == nil {
		versions = []*version.Version{}
	}
	return versions, nil
}

func projectPath(projectID string) string {
	return "/api/projects/" + url.PathEscape(projectID) + "/versions"
}

// get performs a GET request and decodes the response.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	return c.send(ctx, http.MethodGet, path, nil, result)
}

// send performs a request with an optional JSON body and decodes the response.
func (c *Client) send(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, result)
}

// do executes an HTTP request and handles errors.
func (c *Client) do(req *http.Request, result interface{}) (err error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing response body: %w", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		msg := "server error: " + http.StatusText(resp.StatusCode)
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
