package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"inkpad/internal/common"
	"inkpad/internal/document"
)

// HTTPClient implements Client against the Inkpad server's REST surface.
// It owns the access/refresh token pair; on a token-expired rejection it
// refreshes once and retries the original request.
type HTTPClient struct {
	baseURL string
	hc      *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// NewHTTPClient builds a client for the server at baseURL
// (e.g. "http://127.0.0.1:8080"). The underlying http.Client carries an
// overall request timeout so a hung server cannot block a caller forever.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: 15 * time.Second},
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *HTTPClient) Register(ctx context.Context, username, password string) error {
	body := credentialsRequest{Username: username, Password: password}
	return c.doJSON(ctx, http.MethodPost, "/api/auth/register", body, nil)
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) error {
	body := credentialsRequest{Username: username, Password: password}

	var tokens tokenPairResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", body, &tokens); err != nil {
		return err
	}

	c.mu.Lock()
	c.accessToken = tokens.AccessToken
	c.refreshToken = tokens.RefreshToken
	c.mu.Unlock()
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/api/ping", nil, nil)
}

func (c *HTTPClient) Close() error {
	c.hc.CloseIdleConnections()
	return nil
}

// AccessToken returns the current access token, for the websocket
// subscription which authenticates via query parameter.
func (c *HTTPClient) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

// List asks for the caller's documents, optionally narrowed to one id.
// The owner scope comes from the access token, so Filter.UserID is not
// transmitted; the server never answers outside the token's scope.
func (c *HTTPClient) List(ctx context.Context, f Filter) ([]document.Document, error) {
	path := "/api/documents"
	if f.ID != "" {
		path += "?id=" + url.QueryEscape(f.ID)
	}

	var docs []document.Document
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *HTTPClient) Create(ctx context.Context, d document.Document) (document.Document, error) {
	req := struct {
		Title     string `json:"title"`
		Content   string `json:"content"`
		IsStarred bool   `json:"is_starred"`
	}{Title: d.Title, Content: d.Content, IsStarred: d.IsStarred}

	var created document.Document
	if err := c.doJSON(ctx, http.MethodPost, "/api/documents", req, &created); err != nil {
		return document.Document{}, err
	}
	return created, nil
}

func (c *HTTPClient) Update(ctx context.Context, id string, p document.Patch) (document.Document, error) {
	var updated document.Document
	path := "/api/documents/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodPatch, path, p, &updated); err != nil {
		return document.Document{}, err
	}
	return updated, nil
}

func (c *HTTPClient) Delete(ctx context.Context, id string) error {
	path := "/api/documents/" + url.PathEscape(id)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// doJSON performs one round trip: marshal body, attach the bearer token,
// decode the response into out (if non-nil) and map error statuses onto the
// sentinel taxonomy. A token-expired rejection triggers a single refresh and
// retry of the original request.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	status, payload, err := c.roundTrip(ctx, method, path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if status == http.StatusUnauthorized && c.isTokenExpired(payload) {
		if err := c.refresh(ctx); err != nil {
			return err
		}
		status, payload, err = c.roundTrip(ctx, method, path, body)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	if err := mapStatus(status, payload); err != nil {
		return err
	}

	if out != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func (c *HTTPClient) roundTrip(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.AccessToken(); token != "" {
		req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, payload, nil
}

func (c *HTTPClient) isTokenExpired(payload []byte) bool {
	c.mu.Lock()
	hasRefresh := c.refreshToken != ""
	c.mu.Unlock()
	if !hasRefresh {
		return false
	}

	var er errorResponse
	if err := json.Unmarshal(payload, &er); err != nil {
		return false
	}
	return er.Error == common.ErrTokenExpired.Error()
}

func (c *HTTPClient) refresh(ctx context.Context) error {
	c.mu.Lock()
	token := c.refreshToken
	c.mu.Unlock()

	status, payload, err := c.roundTrip(ctx, http.MethodPost, "/api/auth/refresh", refreshRequest{RefreshToken: token})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := mapStatus(status, payload); err != nil {
		return err
	}

	var tokens tokenPairResponse
	if err := json.Unmarshal(payload, &tokens); err != nil {
		return fmt.Errorf("decoding refresh response: %w", err)
	}

	c.mu.Lock()
	c.accessToken = tokens.AccessToken
	c.refreshToken = tokens.RefreshToken
	c.mu.Unlock()
	return nil
}

func mapStatus(status int, payload []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	var er errorResponse
	_ = json.Unmarshal(payload, &er)

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return common.ErrNotFound
	case http.StatusConflict:
		return common.ErrAlreadyExists
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrUnavailable
	default:
		if er.Error != "" {
			return fmt.Errorf("server error (%d): %s", status, er.Error)
		}
		return fmt.Errorf("server error (%d)", status)
	}
}
