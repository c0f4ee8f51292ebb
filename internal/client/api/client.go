// Package api is the HTTP client for the drive server. It keeps the token
// pair, transparently refreshes an expired access token once per call and
// maps response statuses to sentinel errors.
package api

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

	"github.com/skydrive/skydrive/internal/common"
)

// Client talks to the drive server. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// New constructs a client for the given base URL, e.g. "http://127.0.0.1:8080".
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// IsAuthenticated reports whether the client holds a token pair.
func (c *Client) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken != ""
}

// Logout discards the stored token pair.
func (c *Client) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = ""
	c.refreshToken = ""
}

type errorResponse struct {
	Error string `json:"error"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// do executes one JSON round trip. An expired access token triggers a single
// refresh-and-retry, mirroring a unary auth interceptor.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	status, apiErr, err := c.doOnce(ctx, method, path, body, out)
	if err != nil {
		return err
	}
	if status < 400 {
		return nil
	}

	if status == http.StatusUnauthorized && apiErr == common.ErrTokenExpired.Error() {
		c.mu.Lock()
		refreshToken := c.refreshToken
		c.mu.Unlock()
		if refreshToken != "" {
			if err := c.Refresh(ctx, refreshToken); err != nil {
				return err
			}
			status, apiErr, err = c.doOnce(ctx, method, path, body, out)
			if err != nil {
				return err
			}
			if status < 400 {
				return nil
			}
		}
	}

	return mapStatus(status, apiErr)
}

func (c *Client) doOnce(ctx context.Context, method, path string, body any, out any) (int, string, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, "", err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, "", err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.Lock()
	accessToken := c.accessToken
	c.mu.Unlock()
	if accessToken != "" {
		req.Header.Set(common.AccessTokenHeaderName, "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var er errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&er)
		return resp.StatusCode, er.Error, nil
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return 0, "", err
		}
	}
	return resp.StatusCode, "", nil
}

func mapStatus(status int, apiErr string) error {
	var sentinel error
	switch status {
	case http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case http.StatusNotFound:
		sentinel = ErrNotFound
	case http.StatusBadRequest:
		sentinel = ErrInvalidRequest
	case http.StatusRequestEntityTooLarge:
		sentinel = ErrQuotaExceeded
	case http.StatusConflict:
		sentinel = ErrVerificationFailed
	default:
		sentinel = ErrUnavailable
	}
	if apiErr == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, apiErr)
}

// Ping checks server liveness.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	return c.do(ctx, http.MethodPost, "/api/v1/register", body, nil)
}

// Login authenticates and stores the issued token pair.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	var tokens tokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/login", body, &tokens); err != nil {
		return err
	}
	c.setTokens(tokens)
	return nil
}

// Refresh exchanges a refresh token for a new pair and stores it.
func (c *Client) Refresh(ctx context.Context, refreshToken string) error {
	body := map[string]string{"refreshToken": refreshToken}
	var tokens tokenResponse
	status, apiErr, err := c.doOnce(ctx, http.MethodPost, "/api/v1/refresh", body, &tokens)
	if err != nil {
		return err
	}
	if status >= 400 {
		return mapStatus(status, apiErr)
	}
	c.setTokens(tokens)
	return nil
}

func (c *Client) setTokens(tokens tokenResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = tokens.AccessToken
	c.refreshToken = tokens.RefreshToken
}

type itemsResponse struct {
	Items []Item `json:"items"`
}

// ListChildren lists the items directly under parentID (nil = root).
func (c *Client) ListChildren(ctx context.Context, parentID *string) ([]Item, error) {
	path := "/api/v1/items"
	if parentID != nil {
		path += "?parent=" + url.QueryEscape(*parentID)
	}
	var resp itemsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// CreateFolder creates a folder under parentID (nil = root).
func (c *Client) CreateFolder(ctx context.Context, name string, parentID *string) (*Item, error) {
	body := map[string]any{"name": name, "parentId": parentID}
	var item Item
	if err := c.do(ctx, http.MethodPost, "/api/v1/folders", body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Rename changes the display name of a file or folder.
func (c *Client) Rename(ctx context.Context, id, name string) error {
	body := map[string]string{"name": name}
	return c.do(ctx, http.MethodPatch, "/api/v1/folders/"+url.PathEscape(id), body, nil)
}

// Move re-parents items under targetID (nil = root).
func (c *Client) Move(ctx context.Context, ids []string, targetID *string) error {
	body := map[string]any{"ids": ids, "targetId": targetID}
	return c.do(ctx, http.MethodPost, "/api/v1/items/move", body, nil)
}

// Copy duplicates items (recursively for folders) under targetID.
func (c *Client) Copy(ctx context.Context, ids []string, targetID *string) error {
	body := map[string]any{"ids": ids, "targetId": targetID}
	return c.do(ctx, http.MethodPost, "/api/v1/items/copy", body, nil)
}

// Delete removes items together with their descendants.
func (c *Client) Delete(ctx context.Context, ids []string) error {
	body := map[string]any{"ids": ids}
	return c.do(ctx, http.MethodPost, "/api/v1/items/delete", body, nil)
}

// Search finds items whose name contains query.
func (c *Client) Search(ctx context.Context, query string) ([]Item, error) {
	var resp itemsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/search?q="+url.QueryEscape(query), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Usage fetches the storage consumption report.
func (c *Client) Usage(ctx context.Context) (*Usage, error) {
	var usage Usage
	if err := c.do(ctx, http.MethodGet, "/api/v1/usage", nil, &usage); err != nil {
		return nil, err
	}
	return &usage, nil
}

// RequestUpload asks for a presigned PUT grant for a prospective upload.
func (c *Client) RequestUpload(ctx context.Context, filename, contentType string, size int64, folderID *string) (*UploadGrant, error) {
	body := map[string]any{"filename": filename, "contentType": contentType, "size": size, "folderId": folderID}
	var grant UploadGrant
	if err := c.do(ctx, http.MethodPost, "/api/v1/uploads", body, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

// CommitUpload finalizes an upload after the bytes were sent to the grant URL.
func (c *Client) CommitUpload(ctx context.Context, key, filename string, size int64, contentType string, folderID *string) (*Item, error) {
	body := map[string]any{"key": key, "filename": filename, "size": size, "contentType": contentType, "folderId": folderID}
	var item Item
	if err := c.do(ctx, http.MethodPost, "/api/v1/uploads/commit", body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// DownloadURL fetches a presigned GET URL for the file.
func (c *Client) DownloadURL(ctx context.Context, fileID string) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/files/"+url.PathEscape(fileID)+"/download", nil, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// DeleteAccount removes the account and all stored objects, then drops the
// local token pair.
func (c *Client) DeleteAccount(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/api/v1/account", nil, nil); err != nil {
		return err
	}
	c.Logout()
	return nil
}
