package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/contactbook/internal/client/models"
	"github.com/dmitrijs2005/contactbook/internal/common"
)

const avatarFormField = "avatar"

// HTTPClient implements Client over the REST API.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) LoggedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

func (c *HTTPClient) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *HTTPClient) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do sends one request and decodes a 2xx JSON body into out (if non-nil).
// body is either nil, an io.Reader sent as-is with contentType, or a value
// encoded as JSON.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any, contentType string, auth bool, out any) error {
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case io.Reader:
		rdr = b
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(buf)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if auth {
		token := c.bearer()
		if token == "" {
			return ErrNotLoggedIn
		}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Message = body.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *HTTPClient) Register(ctx context.Context, email, password string) (*models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/user/register", credentials{email, password}, "", false, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Login replaces any token held from an earlier login.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.User, error) {
	var out struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/user/login", credentials{email, password}, "", false, &out); err != nil {
		return nil, err
	}
	c.setToken(out.Token)
	return &out.User, nil
}

// Logout forgets the local token whatever the server answers: the session
// is either ended now or was already stale.
func (c *HTTPClient) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/user/logout", nil, "", true, nil)
	if !errors.Is(err, ErrUnavailable) {
		c.setToken("")
	}
	return err
}

func (c *HTTPClient) Current(ctx context.Context) (*models.CurrentUser, error) {
	var out models.CurrentUser
	if err := c.do(ctx, http.MethodGet, "/user/current", nil, "", true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ConfirmVerification(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodGet, "/user/verify/"+url.PathEscape(token), nil, "", false, nil)
}

func (c *HTTPClient) RequestVerification(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/user/verify", body, "", false, nil)
}

func (c *HTTPClient) UpdateSubscription(ctx context.Context, subscription string) (*models.User, error) {
	var out models.User
	body := map[string]string{"subscription": subscription}
	if err := c.do(ctx, http.MethodPatch, "/user/subscription", body, "", true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadAvatar sends the file at path as multipart field "avatar" and
// returns the new avatar URL.
func (c *HTTPClient) UploadAvatar(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open avatar: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(avatarFormField, filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("read avatar: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}

	var out struct {
		AvatarURL string `json:"avatarURL"`
	}
	if err := c.do(ctx, http.MethodPatch, "/user/avatars", &buf, mw.FormDataContentType(), true, &out); err != nil {
		return "", err
	}
	return out.AvatarURL, nil
}

func (c *HTTPClient) ListContacts(ctx context.Context, opts models.ListOptions) ([]models.Contact, error) {
	q := url.Values{}
	if opts.Favorite != nil {
		q.Set("favorite", strconv.FormatBool(*opts.Favorite))
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	path := "/contacts"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	out := []models.Contact{}
	if err := c.do(ctx, http.MethodGet, path, nil, "", true, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func contactPath(id string) string {
	return "/contacts/" + url.PathEscape(id)
}

func (c *HTTPClient) GetContact(ctx context.Context, id string) (*models.Contact, error) {
	var out models.Contact
	if err := c.do(ctx, http.MethodGet, contactPath(id), nil, "", true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) CreateContact(ctx context.Context, in models.ContactInput) (*models.Contact, error) {
	var out models.Contact
	if err := c.do(ctx, http.MethodPost, "/contacts", in, "", true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdateContact(ctx context.Context, id string, in models.ContactInput) (*models.Contact, error) {
	var out models.Contact
	if err := c.do(ctx, http.MethodPut, contactPath(id), in, "", true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) SetFavorite(ctx context.Context, id string, favorite bool) (*models.Contact, error) {
	var out models.Contact
	body := map[string]bool{"favorite": favorite}
	if err := c.do(ctx, http.MethodPatch, contactPath(id)+"/favorite", body, "", true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteContact(ctx context.Context, id string) (*models.Contact, error) {
	var out struct {
		Contact models.Contact `json:"contact"`
	}
	if err := c.do(ctx, http.MethodDelete, contactPath(id), nil, "", true, &out); err != nil {
		return nil, err
	}
	return &out.Contact, nil
}
