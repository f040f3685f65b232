package e2etest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Client is a cookie-aware HTTP client for the JSON API.
type Client struct {
	client *http.Client
	url    string
}

// StatusError is returned when the server responds with an unexpected status code.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

// NewClient creates a client for the server at url. Session cookies are kept between requests.
func NewClient(url string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Client{
		client: &http.Client{Jar: jar},
		url:    url,
	}, nil
}

// WaitForReady calls the specified endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the 1-second timeout is reached.
func (c *Client) WaitForReady(ctx context.Context, urlPath string) error {
	timeout := 1 * time.Second
	startTime := time.Now()
	for {
		resp, err := c.Get(ctx, urlPath)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for endpoint to be ready")
			}
			time.Sleep(100 * time.Millisecond) //nolint:mnd // 100ms
		}
	}
}

// Get fetches a URL and returns the response.
func (c *Client) Get(ctx context.Context, urlPath string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+urlPath, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

// GetDoc fetches a URL and returns a goquery document.
func (c *Client) GetDoc(ctx context.Context, urlPath string) (*goquery.Document, error) {
	resp, err := c.Get(ctx, urlPath)
	if err != nil {
		return nil, fmt.Errorf("client get: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if http.StatusOK != resp.StatusCode {
		body, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("create document from reader: %w", err)
	}
	return doc, nil
}

// Do sends in as the JSON body (unless nil) and decodes a successful response into out (unless nil).
// Non-2xx responses are returned as *StatusError.
func (c *Client) Do(ctx context.Context, method string, urlPath string, in any, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url+urlPath, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	if out != nil {
		if err = json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal response %q: %w", respBody, err)
		}
	}
	return nil
}

// Credentials is the sign up and sign in request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp creates an account and keeps the session cookie. It returns the new user id.
func (c *Client) SignUp(ctx context.Context, email string, password string) (string, error) {
	var out struct {
		UserID string `json:"user_id"`
	}
	if err := c.Do(ctx, http.MethodPost, "/api/auth/signup", Credentials{email, password}, &out); err != nil {
		return "", fmt.Errorf("sign up: %w", err)
	}
	return out.UserID, nil
}

// SignIn authenticates the client and returns the user id.
func (c *Client) SignIn(ctx context.Context, email string, password string) (string, error) {
	var out struct {
		UserID string `json:"user_id"`
	}
	if err := c.Do(ctx, http.MethodPost, "/api/auth/signin", Credentials{email, password}, &out); err != nil {
		return "", fmt.Errorf("sign in: %w", err)
	}
	return out.UserID, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	if err := c.Do(ctx, http.MethodPost, "/api/auth/signout", nil, nil); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// StatusCode returns the status code carried by err or 0 when err is not a *StatusError.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}
