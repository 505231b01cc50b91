package api

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

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/boardsync/boardsync-client/internal/client/models"
	"github.com/boardsync/boardsync-client/internal/client/session"
	"github.com/boardsync/boardsync-client/internal/common"
)

// errTokenExpired is the server's error code for an expired access token.
const errTokenExpired = "token_expired"

// tokenRefreshWindow is how close to expiry the access token may get before a
// request refreshes the pair up front instead of waiting for a rejection.
const tokenRefreshWindow = 30 * time.Second

// HTTPClient implements Client over the board service's JSON API.
type HTTPClient struct {
	baseURL  string
	http     *http.Client
	sess     *session.Session
	validate *validator.Validate
}

func NewHTTPClient(baseURL string, sess *session.Session) *HTTPClient {
	return &HTTPClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{},
		sess:     sess,
		validate: validator.New(),
	}
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// apiError is the structured error body returned by the service.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// do performs one JSON request/response round trip with credentials attached.
// An access token close to expiry is refreshed before the request goes out;
// should the server report an expiry regardless, the pair is refreshed once
// and the original request retried, mirroring an interceptor.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, headers map[string]string, in, out any) error {
	if c.sess.ExpiresSoon(tokenRefreshWindow) && c.sess.RefreshToken() != "" {
		if err := c.refreshTokens(ctx); err != nil {
			return err
		}
	}

	err := c.roundTrip(ctx, method, path, query, headers, in, out)
	if err == nil {
		return nil
	}

	if !errors.Is(err, common.ErrTokenExpired) || c.sess.RefreshToken() == "" {
		return err
	}

	if err := c.refreshTokens(ctx); err != nil {
		return err
	}
	return c.roundTrip(ctx, method, path, query, headers, in, out)
}

func (c *HTTPClient) roundTrip(ctx context.Context, method, path string, query url.Values, headers map[string]string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(common.ClientHeaderName, c.sess.ClientID())
	if token := c.sess.AccessToken(); token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.mapError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: %v", common.ErrDecodeFailed, err)
		}
	}
	return nil
}

// mapError converts an error response into a sentinel the services can match
// with errors.Is, keeping the server's code/message for diagnostics.
func (c *HTTPClient) mapError(resp *http.Response) error {
	ae := &apiError{}
	_ = json.NewDecoder(resp.Body).Decode(ae)

	switch {
	case resp.StatusCode == http.StatusUnauthorized && ae.Code == errTokenExpired:
		return fmt.Errorf("%w: %s", common.ErrTokenExpired, ae.Message)
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", common.ErrNotAuthenticated, ae.Message)
	case resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", common.ErrForbidden, ae.Message)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", common.ErrNotFound, ae.Message)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", common.ErrUnavailable, resp.Status)
	default:
		if ae.Message != "" {
			return fmt.Errorf("request failed: %s (%s)", ae.Message, resp.Status)
		}
		return fmt.Errorf("request failed: %s", resp.Status)
	}
}

func (c *HTTPClient) refreshTokens(ctx context.Context) error {
	var pair tokenPair
	in := map[string]string{"refreshToken": c.sess.RefreshToken()}
	if err := c.roundTrip(ctx, http.MethodPost, "/api/auth/refresh", nil, nil, in, &pair); err != nil {
		c.sess.Clear()
		return fmt.Errorf("%w: %v", common.ErrRefreshTokenExpired, err)
	}
	c.sess.SetTokens(pair.AccessToken, pair.RefreshToken)
	return nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) error {
	in := map[string]string{"email": email, "password": password}
	var pair tokenPair
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, nil, in, &pair); err != nil {
		return err
	}
	c.sess.SetTokens(pair.AccessToken, pair.RefreshToken)
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, nil, nil, &resp); err != nil {
		return err
	}
	if !strings.EqualFold(resp.Status, "ok") {
		return common.ErrUnavailable
	}
	return nil
}

func (c *HTTPClient) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	if err := c.do(ctx, http.MethodGet, "/api/documents/"+url.PathEscape(id), nil, nil, nil, &doc); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecodeFailed, err)
	}
	return &doc, nil
}

func (c *HTTPClient) SaveContent(ctx context.Context, id string, content []byte, fingerprint string) (time.Time, error) {
	in := struct {
		Content     []byte `json:"content"`
		Fingerprint string `json:"fingerprint"`
	}{Content: content, Fingerprint: fingerprint}

	var resp struct {
		SavedAt time.Time `json:"savedAt"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/documents/"+url.PathEscape(id)+"/content", nil, nil, in, &resp); err != nil {
		return time.Time{}, err
	}
	return resp.SavedAt, nil
}

func (c *HTTPClient) ListDocuments(ctx context.Context, key models.ListKey, fields []string) ([]models.DocumentSummary, error) {
	query := url.Values{}
	if key.CollectionID != "" {
		query.Set("collection", key.CollectionID)
	}
	if len(fields) > 0 {
		query.Set("fields", strings.Join(fields, ","))
	}

	var resp struct {
		Documents []models.DocumentSummary `json:"documents"`
	}
	path := "/api/workspaces/" + url.PathEscape(key.WorkspaceID) + "/documents"
	if err := c.do(ctx, http.MethodGet, path, query, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Documents, nil
}

func (c *HTTPClient) CreateDocument(ctx context.Context, key models.ListKey, title string) (*models.DocumentSummary, error) {
	in := struct {
		Title        string `json:"title"`
		CollectionID string `json:"collectionId,omitempty"`
	}{Title: title, CollectionID: key.CollectionID}

	var summary models.DocumentSummary
	path := "/api/workspaces/" + url.PathEscape(key.WorkspaceID) + "/documents"
	if err := c.do(ctx, http.MethodPost, path, nil, nil, in, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *HTTPClient) RenameDocument(ctx context.Context, id, title string) (*models.DocumentSummary, error) {
	in := map[string]string{"title": title}

	var summary models.DocumentSummary
	if err := c.do(ctx, http.MethodPatch, "/api/documents/"+url.PathEscape(id), nil, nil, in, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *HTTPClient) DeleteDocument(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/documents/"+url.PathEscape(id), nil, nil, nil, nil)
}

func (c *HTTPClient) DuplicateDocument(ctx context.Context, id string) (*models.DocumentSummary, error) {
	// The idempotency key lets the server dedupe a retried duplicate instead
	// of cloning twice.
	headers := map[string]string{"Idempotency-Key": uuid.NewString()}

	var summary models.DocumentSummary
	path := "/api/documents/" + url.PathEscape(id) + "/duplicate"
	if err := c.do(ctx, http.MethodPost, path, nil, headers, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *HTTPClient) ListThreads(ctx context.Context, documentID string) ([]models.CommentThread, error) {
	var resp struct {
		Threads []models.CommentThread `json:"threads"`
	}
	path := "/api/documents/" + url.PathEscape(documentID) + "/threads"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Threads, nil
}

func (c *HTTPClient) ThumbnailUploadURL(ctx context.Context, documentID string) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	path := "/api/documents/" + url.PathEscape(documentID) + "/thumbnail-url"
	if err := c.do(ctx, http.MethodPost, path, nil, nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}
