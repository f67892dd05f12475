package storeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"taskboard/internal/model"
	"taskboard/pkg/circuitbreaker"
	"taskboard/pkg/metrics"
	"taskboard/pkg/trace"
	"taskboard/pkg/util"
)

// ErrNotFound is returned when the store does not know the requested task.
var ErrNotFound = errors.New("not found")

type HTTPError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: http %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: http %d", e.Method, e.Path, e.StatusCode)
}

func (e *HTTPError) HTTPStatus() int { return e.StatusCode }

type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Breaker circuitbreaker.Config
	Logger  *zap.Logger
}

// HTTPClient talks to the task and note store over JSON. Every call is
// attempted at most once; while the breaker is open calls fail fast.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	logger     *zap.Logger
}

func NewHTTPClient(opts Options, httpClient *http.Client) *HTTPClient {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL:    baseURL,
		token:      strings.TrimSpace(opts.Token),
		httpClient: httpClient,
		breaker:    circuitbreaker.NewCircuitBreaker(opts.Breaker),
		logger:     logger,
	}
}

func (c *HTTPClient) ListTasks(ctx context.Context, ownerID string) ([]model.Task, error) {
	var out []model.Task
	if err := c.call(ctx, "list_tasks", http.MethodGet, "/tasks/"+url.PathEscape(ownerID), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Task{}
	}
	return out, nil
}

func (c *HTTPClient) CreateTask(ctx context.Context, task model.Task) (model.Task, error) {
	var out model.Task
	err := c.call(ctx, "create_task", http.MethodPost, "/tasks", task, &out)
	return out, err
}

func (c *HTTPClient) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	var out model.Task
	err := c.call(ctx, "update_task", http.MethodPut, "/tasks/"+url.PathEscape(id), patch, &out)
	return out, err
}

// DeleteTask treats a missing task as already deleted.
func (c *HTTPClient) DeleteTask(ctx context.Context, id string) error {
	err := c.call(ctx, "delete_task", http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

type noteBody struct {
	Content string `json:"content"`
}

func (c *HTTPClient) GetNote(ctx context.Context, ownerID string) (model.Note, error) {
	var out noteBody
	if err := c.call(ctx, "get_note", http.MethodGet, "/notes/"+url.PathEscape(ownerID), nil, &out); err != nil {
		return model.Note{}, err
	}
	return model.Note{OwnerID: ownerID, Content: out.Content}, nil
}

func (c *HTTPClient) UpsertNote(ctx context.Context, ownerID, content string) (model.Note, error) {
	var out noteBody
	if err := c.call(ctx, "upsert_note", http.MethodPut, "/notes/"+url.PathEscape(ownerID), noteBody{Content: content}, &out); err != nil {
		return model.Note{}, err
	}
	return model.Note{OwnerID: ownerID, Content: out.Content}, nil
}

// BreakerState exposes the breaker for status output.
func (c *HTTPClient) BreakerState() circuitbreaker.State {
	return c.breaker.GetState()
}

func (c *HTTPClient) call(ctx context.Context, operation, method, requestPath string, body, out any) error {
	start := time.Now()
	err := c.breaker.Execute(func() error {
		return c.doJSON(ctx, method, requestPath, body, out)
	}, isCallerError)

	status := "ok"
	if err != nil {
		_, status = util.ClassifyError(err)
	}
	metrics.RecordStoreCallLatency(operation, status, time.Since(start))
	if err != nil && !errors.Is(err, ErrNotFound) {
		c.logger.Warn("Store call failed",
			zap.String("operation", operation),
			zap.String("method", method),
			zap.String("path", requestPath),
			zap.String("trace_id", trace.FromContext(ctx)),
			zap.String("error_type", status),
			zap.Error(err),
		)
	}
	return err
}

func (c *HTTPClient) doJSON(ctx context.Context, method, requestPath string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	ctx, traceID := trace.Ensure(ctx)
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, bodyReader)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set(trace.HeaderName, traceID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	payload, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		if out == nil || len(payload) == 0 {
			return nil
		}
		return json.Unmarshal(payload, out)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, requestPath, ErrNotFound)
	}

	var errPayload struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(payload, &errPayload)
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Method:     method,
		Path:       requestPath,
		Message:    errPayload.Error,
	}
}

// isCallerError keeps answers the store gave on purpose from tripping the
// breaker.
func isCallerError(err error) bool {
	if errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled) {
		return true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 && httpErr.StatusCode != http.StatusTooManyRequests
	}
	return false
}
