// Package client talks to an OpenAppConfig server over HTTP.
//
// Documents fetched with GetConfig and GetConfigVersion are kept in an in-memory cache until
// they are written, deleted or the cache is cleared, so repeated reads of hot configurations
// don't hit the server.
package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-openapi/runtime"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

const (
	configsPath     = "/configs"
	healthPath      = "/health"
	requestIdHeader = "X-Request-Id"

	defaultTimeout = 30 * time.Second
)

type versionKey struct {
	Key     Key
	Version string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	consumer   runtime.Consumer
	producer   runtime.Producer

	current   *ttlcache.Cache[Key, Document]
	versioned *ttlcache.Cache[versionKey, Document]
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the timeout on a copy of the http.Client in use, leaving the one passed to
// WithHTTPClient untouched
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		copied := *c.httpClient
		copied.Timeout = timeout
		c.httpClient = &copied
	}
}

// New returns a Client for the server at baseURL, e.g. http://localhost:3000
func New(baseURL string, opts ...Option) *Client {
	c := Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		consumer:   runtime.JSONConsumer(),
		producer:   runtime.JSONProducer(),
		current: ttlcache.New[Key, Document](
			ttlcache.WithTTL[Key, Document](ttlcache.NoTTL),
		),
		versioned: ttlcache.New[versionKey, Document](
			ttlcache.WithTTL[versionKey, Document](ttlcache.NoTTL),
		),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// GetConfig returns the current version of a configuration, from the cache if present
func (c *Client) GetConfig(ctx context.Context, key Key) (*Document, error) {
	if item := c.current.Get(key); item != nil {
		doc := item.Value()
		return &doc, nil
	}
	return c.Refresh(ctx, key)
}

// Refresh fetches the current version of a configuration from the server and caches it
func (c *Client) Refresh(ctx context.Context, key Key) (*Document, error) {
	var doc Document
	if err := c.do(ctx, http.MethodGet, key.path(), nil, nil, &doc); err != nil {
		return nil, err
	}
	c.current.Set(key, doc, ttlcache.DefaultTTL)
	return &doc, nil
}

// GetConfigVersion returns a specific version of a configuration. Versions are immutable so
// once fetched they are served from the cache.
func (c *Client) GetConfigVersion(ctx context.Context, key Key, version string) (*Document, error) {
	cacheKey := versionKey{Key: key, Version: version}
	if item := c.versioned.Get(cacheKey); item != nil {
		doc := item.Value()
		return &doc, nil
	}
	var doc Document
	if err := c.do(ctx, http.MethodGet, key.path()+"/versions/"+url.PathEscape(version), nil, nil, &doc); err != nil {
		return nil, err
	}
	c.versioned.Set(cacheKey, doc, ttlcache.DefaultTTL)
	return &doc, nil
}

// PutConfig writes a new version of a configuration
func (c *Client) PutConfig(ctx context.Context, key Key, req PutRequest) (*PutResult, error) {
	var result PutResult
	if err := c.do(ctx, http.MethodPut, key.path(), nil, &req, &result); err != nil {
		return nil, err
	}
	c.current.Delete(key)
	return &result, nil
}

// DeleteConfig deletes a configuration and all its versions
func (c *Client) DeleteConfig(ctx context.Context, key Key) (*Deleted, error) {
	var result Deleted
	err := c.do(ctx, http.MethodDelete, key.path(), nil, nil, &result)
	c.evict(func(k Key) bool {
		return k == key
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteEnvironment deletes every configuration of an application's environment
func (c *Client) DeleteEnvironment(ctx context.Context, application string, environment string) (*EnvironmentDeleted, error) {
	var result EnvironmentDeleted
	err := c.do(ctx, http.MethodDelete, environmentPath(application, environment), nil, nil, &result)
	c.evict(func(k Key) bool {
		return k.Application == application && k.Environment == environment
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListVersions returns the version history of a configuration, oldest first
func (c *Client) ListVersions(ctx context.Context, key Key) ([]VersionRecord, error) {
	var result versions
	if err := c.do(ctx, http.MethodGet, key.path()+"/versions", nil, nil, &result); err != nil {
		return nil, err
	}
	return result.Versions, nil
}

// ListConfigs returns the configurations under prefix, matching whole segments; an empty prefix lists
// everything
func (c *Client) ListConfigs(ctx context.Context, prefix string) ([]Summary, error) {
	var query url.Values
	if len(prefix) != 0 {
		query = url.Values{"prefix": []string{prefix}}
	}
	var result listing
	if err := c.do(ctx, http.MethodGet, configsPath, query, nil, &result); err != nil {
		return nil, err
	}
	return result.Configs, nil
}

func (c *Client) HealthCheck(ctx context.Context) (*Health, error) {
	var result Health
	if err := c.do(ctx, http.MethodGet, healthPath, nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ClearCache() {
	c.current.DeleteAll()
	c.versioned.DeleteAll()
}

// CacheSize is the number of cached documents, current and versioned
func (c *Client) CacheSize() int {
	return c.current.Len() + c.versioned.Len()
}

// IsCached tells whether the current version of a configuration is cached
func (c *Client) IsCached(key Key) bool {
	return c.current.Has(key)
}

// evict drops current and versioned entries whose Key matches
func (c *Client) evict(matches func(Key) bool) {
	for _, k := range c.current.Keys() {
		if matches(k) {
			c.current.Delete(k)
		}
	}
	for _, k := range c.versioned.Keys() {
		if matches(k.Key) {
			c.versioned.Delete(k)
		}
	}
}

func (c *Client) do(ctx context.Context, method string, path string, query url.Values, body interface{}, out interface{}) error {
	target := c.baseURL + path
	if len(query) != 0 {
		target += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := c.producer.Produce(&buf, body); err != nil {
			return err
		}
		reqBody = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set(runtime.HeaderAccept, runtime.JSONMime)
	req.Header.Set(requestIdHeader, uuid.New().String())
	if body != nil {
		req.Header.Set(runtime.HeaderContentType, runtime.JSONMime)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody errorBody
		if err := c.consumer.Consume(resp.Body, &errBody); err != nil || len(errBody.Message) == 0 {
			errBody.Message = http.StatusText(resp.StatusCode)
		}
		return &Error{
			StatusCode: resp.StatusCode,
			Message:    errBody.Message,
		}
	}
	if out != nil {
		return c.consumer.Consume(resp.Body, out)
	}
	return nil
}
