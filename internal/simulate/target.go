package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/valuematrix/internal/domain/types"
)

// Target is the ranking service a simulation drives. The in-process service
// satisfies it directly; HTTPTarget drives a running server.
type Target interface {
	CreateSession(ctx context.Context, in types.CreateSessionInput) (types.SessionView, error)
	NextComparison(ctx context.Context, id string) (types.ComparisonView, bool, error)
	RecordDecision(ctx context.Context, id string, in types.DecisionInput) (types.DecisionAck, error)
	TopK(ctx context.Context, id string, k int) ([]types.Entry, error)
	DeleteSession(ctx context.Context, id string) error
}

// HTTPTarget talks to the session routes of a running server.
type HTTPTarget struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTarget creates a target for the server at baseURL.
func NewHTTPTarget(baseURL string, timeout time.Duration) *HTTPTarget {
	return &HTTPTarget{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// do sends a request and decodes a JSON answer into out when the status is
// one of want, returning the status code.
func (t *HTTPTarget) do(ctx context.Context, method, path string, body, out any, want ...int) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	for _, code := range want {
		if resp.StatusCode != code {
			continue
		}
		if out != nil && len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return resp.StatusCode, nil
	}
	return resp.StatusCode, fmt.Errorf("%w: %s %s: %d %s", ErrUnexpectedStatus, method, path, resp.StatusCode, strings.TrimSpace(string(data)))
}

func sessionPath(id string, rest ...string) string {
	return "/sessions/" + url.PathEscape(id) + strings.Join(rest, "")
}

// CreateSession posts a new session.
func (t *HTTPTarget) CreateSession(ctx context.Context, in types.CreateSessionInput) (types.SessionView, error) {
	var view types.SessionView
	_, err := t.do(ctx, http.MethodPost, "/sessions", in, &view, http.StatusCreated)
	return view, err
}

// NextComparison fetches the active comparison. A 204 means the session is done.
func (t *HTTPTarget) NextComparison(ctx context.Context, id string) (types.ComparisonView, bool, error) {
	var c types.ComparisonView
	code, err := t.do(ctx, http.MethodGet, sessionPath(id, "/comparison"), nil, &c, http.StatusOK, http.StatusNoContent)
	if err != nil {
		return types.ComparisonView{}, false, err
	}
	return c, code == http.StatusNoContent, nil
}

// RecordDecision posts one answer.
func (t *HTTPTarget) RecordDecision(ctx context.Context, id string, in types.DecisionInput) (types.DecisionAck, error) {
	var ack types.DecisionAck
	_, err := t.do(ctx, http.MethodPost, sessionPath(id, "/decisions"), in, &ack, http.StatusOK)
	return ack, err
}

// TopK fetches the k best values.
func (t *HTTPTarget) TopK(ctx context.Context, id string, k int) ([]types.Entry, error) {
	var entries []types.Entry
	_, err := t.do(ctx, http.MethodGet, sessionPath(id, "/top?k=", strconv.Itoa(k)), nil, &entries, http.StatusOK)
	return entries, err
}

// DeleteSession removes the session.
func (t *HTTPTarget) DeleteSession(ctx context.Context, id string) error {
	_, err := t.do(ctx, http.MethodDelete, sessionPath(id), nil, nil, http.StatusNoContent)
	return err
}
