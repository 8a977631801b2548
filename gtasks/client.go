// Package gtasks is a thin authenticated client for the Google Tasks v1
// REST API, the durable store behind the board.
package gtasks

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
)

// DefaultBaseURL is the public Google Tasks endpoint.
const DefaultBaseURL = "https://tasks.googleapis.com/tasks/v1"

const defaultTimeout = 15 * time.Second

// TokenSource supplies the bearer token for each request. It fails when no
// credential is available.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client issues authenticated requests against the remote task store.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *log.Logger

	// onLogout runs once per 401 so the session layer can drop the user.
	onLogout func()
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the remote endpoint, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogoutHook registers the callback invoked when the store rejects the
// credential.
func WithLogoutHook(fn func()) Option {
	return func(c *Client) { c.onLogout = fn }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// New creates a Client using the given token source.
func New(tokens TokenSource, logger *log.Logger, opts ...Option) *Client {
	if tokens == nil {
		panic("gtasks.New: token source is required")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		tokens:  tokens,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListTaskLists fetches all task lists. A missing items array decodes as an
// empty slice.
func (c *Client) ListTaskLists(ctx context.Context) ([]TaskList, error) {
	var resp struct {
		Items []TaskList `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/users/@me/lists", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// CreateTaskList creates a new list and returns it with its remote id.
func (c *Client) CreateTaskList(ctx context.Context, title string) (TaskList, error) {
	var out TaskList
	err := c.do(ctx, http.MethodPost, "/users/@me/lists", map[string]string{"title": title}, &out)
	return out, err
}

// DeleteTaskList removes a list and all of its tasks.
func (c *Client) DeleteTaskList(ctx context.Context, listID string) error {
	return c.do(ctx, http.MethodDelete, "/users/@me/lists/"+url.PathEscape(listID), nil, nil)
}

// ListTasks fetches every task in a list. Completed and hidden tasks are
// requested explicitly; the remote store excludes them by default.
func (c *Client) ListTasks(ctx context.Context, listID string) ([]Task, error) {
	var resp struct {
		Items []Task `json:"items"`
	}
	path := "/lists/" + url.PathEscape(listID) + "/tasks?showCompleted=true&showHidden=true"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// CreateTask creates a task inside the given list.
func (c *Client) CreateTask(ctx context.Context, listID string, task NewTask) (Task, error) {
	var out Task
	err := c.do(ctx, http.MethodPost, "/lists/"+url.PathEscape(listID)+"/tasks", task, &out)
	return out, err
}

// PatchTask applies a partial update to a task.
func (c *Client) PatchTask(ctx context.Context, listID, taskID string, patch TaskPatch) (Task, error) {
	var out Task
	path := "/lists/" + url.PathEscape(listID) + "/tasks/" + url.PathEscape(taskID)
	err := c.do(ctx, http.MethodPatch, path, patch.payload(), &out)
	return out, err
}

// DeleteTask removes a task from its list.
func (c *Client) DeleteTask(ctx context.Context, listID, taskID string) error {
	path := "/lists/" + url.PathEscape(listID) + "/tasks/" + url.PathEscape(taskID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// MoveTask repositions a task within the same list. The remote store has no
// cross-list move; the board layer emulates one with delete and recreate.
func (c *Client) MoveTask(ctx context.Context, listID, taskID string, opts MoveOptions) (Task, error) {
	q := url.Values{}
	if opts.Previous != "" {
		q.Set("previous", opts.Previous)
	}
	if opts.Parent != "" {
		q.Set("parent", opts.Parent)
	}
	path := "/lists/" + url.PathEscape(listID) + "/tasks/" + url.PathEscape(taskID) + "/move"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}
	var out Task
	err := c.do(ctx, http.MethodPost, path, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return &AuthError{Reason: err.Error()}
	}

	var rdr io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debugf("gtasks: %s %s", method, path)
	res, err := c.http.Do(req)
	if err != nil {
		// Timeouts and transport failures surface as remote errors so the
		// board layer rolls back the same way as for a 5xx.
		return &RemoteError{Status: 0, Message: err.Error()}
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized {
		if c.onLogout != nil {
			c.onLogout()
		}
		return &AuthError{Reason: "token expired or revoked"}
	}

	data, readErr := io.ReadAll(res.Body)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &RemoteError{Status: res.StatusCode, Message: remoteMessage(data)}
	}
	if readErr != nil {
		return &RemoteError{Status: res.StatusCode, Message: readErr.Error()}
	}

	// DELETE replies with an empty 204-style body; treat any empty or
	// non-JSON success body as "no payload".
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if ct := res.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "application/json") {
		return nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return &RemoteError{Status: res.StatusCode, Message: "malformed response: " + err.Error()}
	}
	return nil
}

// remoteMessage extracts the server-provided error message, when parseable.
func remoteMessage(data []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := sonic.Unmarshal(data, &payload); err != nil {
		return ""
	}
	return payload.Error.Message
}
