package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// RESTClient talks to the server's session API
type RESTClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewRESTClient(baseURL, token string) *RESTClient {
	return &RESTClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *RESTClient) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // response cleanup

	if resp.StatusCode >= 400 {
		var apiErr errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr) //nolint:errcheck // body may be empty

		return resp.StatusCode, statusError(resp.StatusCode, apiErr)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

// maps HTTP failures onto the package's error sentinels
func statusError(status int, apiErr errorResponse) error {
	switch status {
	case http.StatusNotFound:
		return ErrSessionNotFound
	case http.StatusConflict:
		return ErrCodeTaken
	case http.StatusBadRequest:
		if apiErr.Error == "invalid_code" {
			return ErrInvalidCode
		}
	}

	if apiErr.Message != "" {
		return fmt.Errorf("server error (%d): %s", status, apiErr.Message)
	}

	return fmt.Errorf("server error (%d)", status)
}

// creates a session; code may be empty for a fresh random one
func (c *RESTClient) CreateSession(ctx context.Context, code string) (*Session, error) {
	var body any
	if code != "" {
		body = map[string]string{"code": code}
	}

	var session Session
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/sessions", body, &session); err != nil {
		return nil, err
	}

	return &session, nil
}

// looks up a live session
func (c *RESTClient) GetSession(ctx context.Context, code string) (*Session, error) {
	var session Session
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/sessions/"+code, nil, &session); err != nil {
		return nil, err
	}

	return &session, nil
}

// reports whether a live session exists for the code
func (c *RESTClient) SessionExists(ctx context.Context, code string) (bool, error) {
	_, err := c.GetSession(ctx, code)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, ErrSessionNotFound) {
		return false, nil
	}

	return false, err
}

// destroys a session and its records
func (c *RESTClient) DeleteSession(ctx context.Context, code string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/v1/sessions/"+code, nil, nil)
	return err
}

// publishes or refreshes one user's presence record
func (c *RESTClient) UpsertUser(ctx context.Context, code, id string, update UserUpdate) error {
	_, err := c.do(ctx, http.MethodPut, "/api/v1/sessions/"+code+"/users/"+id, update, nil)
	return err
}

// withdraws one user's presence record
func (c *RESTClient) RemoveUser(ctx context.Context, code, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/v1/sessions/"+code+"/users/"+id, nil, nil)
	return err
}

// fetches the current presence snapshot
func (c *RESTClient) SnapshotUsers(ctx context.Context, code string) ([]User, error) {
	var resp usersResponse
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/sessions/"+code+"/users", nil, &resp); err != nil {
		return nil, err
	}

	return resp.Users, nil
}
