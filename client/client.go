package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/covault/covault"
)

const defaultTimeout = 3 * time.Second

// ErrNotFound is returned when the directory has no record of the user.
var ErrNotFound = errors.New("user not found")

// Client talks to the identity directory service. Profiles are cached;
// suspension flags ride along and age out with the cache.
type Client struct {
	client    *http.Client
	cache     *cache.Cache
	userAgent string
	baseURL   string
}

func New(baseURL string) *Client {
	httpClient := http.Client{
		Timeout: defaultTimeout,
	}

	c := &Client{
		client:    &httpClient,
		cache:     cache.New(10*time.Minute, 15*time.Minute),
		userAgent: "covault-client",
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
	httpClient.Transport = c
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	return http.DefaultTransport.RoundTrip(req)
}

func (c *Client) GetUser(ctx context.Context, userID string) (covault.UserProfile, error) {
	cacheKey := "user:" + userID
	if x, found := c.cache.Get(cacheKey); found {
		return x.(covault.UserProfile), nil
	}

	var profile covault.UserProfile
	err := c.httpRequest(ctx, http.MethodGet, "/api/v1/users/"+url.PathEscape(userID), &profile)
	if err != nil {
		return covault.UserProfile{}, err
	}

	c.cache.Set(cacheKey, profile, cache.DefaultExpiration)
	return profile, nil
}

func (c *Client) httpRequest(ctx context.Context, method, path string, response any) error {
	endpoint := c.baseURL + path
	slog.DebugContext(ctx, "directory request",
		slog.String("url", endpoint),
		slog.String("module", "client"),
	)

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to perform request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode response: %v", err)
	}
	return nil
}
