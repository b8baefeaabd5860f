package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// Options configures a Client. URL and AnonKey are required for any call to
// succeed; ServiceRoleKey enables the privileged paths.
type Options struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
	SQLEndpoint    string
	HTTPClient     *http.Client
}

// Client talks to the Supabase REST surface (PostgREST and Storage).
type Client struct {
	baseURL     string
	anonKey     string
	serviceKey  string
	sqlEndpoint string
	http        *http.Client
}

func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	base := strings.TrimRight(opts.URL, "/")
	endpoint := opts.SQLEndpoint
	if endpoint == "" && base != "" {
		endpoint = base + "/rest/v1/rpc/exec_sql"
	}
	return &Client{
		baseURL:     base,
		anonKey:     opts.AnonKey,
		serviceKey:  opts.ServiceRoleKey,
		sqlEndpoint: endpoint,
		http:        hc,
	}
}

func (c *Client) Configured() bool {
	return c.baseURL != "" && c.anonKey != ""
}

func (c *Client) HasServiceKey() bool {
	return c.serviceKey != ""
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// PublicObjectURL is the unauthenticated URL of an object in a public bucket.
func (c *Client) PublicObjectURL(bucket, object string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, bucket, object)
}

// storageKey prefers the service-role key; bucket management needs it.
func (c *Client) storageKey() string {
	if c.serviceKey != "" {
		return c.serviceKey
	}
	return c.anonKey
}

type response struct {
	Status int
	Body   []byte
}

func (c *Client) do(ctx context.Context, method, url, key string, body io.Reader, headers map[string]string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", key)
	req.Header.Set("Authorization", "Bearer "+key)
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	return &response{Status: resp.StatusCode, Body: data}, nil
}

func (c *Client) postJSON(ctx context.Context, url, key string, payload interface{}, headers map[string]string) (*response, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, url, key, bytes.NewReader(buf), headers)
}

// TableReachable probes a table through PostgREST with the anonymous key.
func (c *Client) TableReachable(ctx context.Context, table string) bool {
	url := fmt.Sprintf("%s/rest/v1/%s?select=*&limit=1", c.baseURL, table)
	resp, err := c.do(ctx, http.MethodGet, url, c.anonKey, nil, nil)
	if err != nil {
		return false
	}
	return isSuccess(resp.Status)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
