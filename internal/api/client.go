package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/kayz/boardctl/internal/logger"
)

// Client talks to the dashboard REST API. Only HTTP 200 is treated as
// success; every other status, other 2xx codes included, is an error.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    http.DefaultClient,
	}
}

// SetHTTPClient overrides the underlying transport, mainly for tests.
func (c *Client) SetHTTPClient(h *http.Client) {
	if h != nil {
		c.http = h
	}
}

// Error is a non-200 API response.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

func (c *Client) StartOnboarding(ctx context.Context, boardID string) (*OnboardingSession, error) {
	var out OnboardingSession
	path := fmt.Sprintf("/api/v1/boards/%s/onboarding/start", boardID)
	if err := c.do(ctx, http.MethodPost, path, struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetOnboarding(ctx context.Context, boardID string) (*OnboardingSession, error) {
	var out OnboardingSession
	path := fmt.Sprintf("/api/v1/boards/%s/onboarding", boardID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AnswerOnboarding(ctx context.Context, boardID string, req AnswerRequest) (*OnboardingSession, error) {
	var out OnboardingSession
	path := fmt.Sprintf("/api/v1/boards/%s/onboarding/answer", boardID)
	if err := c.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ConfirmOnboarding(ctx context.Context, boardID string, req ConfirmRequest) (*Board, error) {
	var out Board
	path := fmt.Sprintf("/api/v1/boards/%s/onboarding/confirm", boardID)
	if err := c.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetBoard(ctx context.Context, boardID string) (*Board, error) {
	var out Board
	if err := c.do(ctx, http.MethodGet, "/api/v1/boards/"+boardID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListBoards tolerates both a bare array and a {"data": [...]} envelope;
// the API has emitted both across versions.
func (c *Client) ListBoards(ctx context.Context) ([]Board, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/v1/boards", nil, &raw); err != nil {
		return nil, err
	}
	return normalizeBoardList(raw), nil
}

func normalizeBoardList(raw json.RawMessage) []Board {
	var boards []Board
	if err := json.Unmarshal(raw, &boards); err == nil {
		return boards
	}
	var envelope struct {
		Data []Board `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		return envelope.Data
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		logger.Debug("[API] %s %s -> %d", method, path, resp.StatusCode)
		return &Error{Status: resp.StatusCode, Detail: errorDetail(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorDetail pulls the FastAPI-style {"detail": "..."} message out of
// an error body, if there is one.
func errorDetail(data []byte) string {
	var envelope struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Detail != "" {
		return envelope.Detail
	}
	return ""
}
