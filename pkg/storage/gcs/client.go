// Package gcs stores uploaded media in a Google Cloud Storage bucket through
// the JSON API.
package gcs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	storageHost  = "https://storage.googleapis.com"
	cacheControl = "public, max-age=31536000"
	pingTimeout  = 5 * time.Second
	httpTimeout  = 60 * time.Second
	maxErrorBody = 2 << 10
)

var errNotInitialized = errors.New("gcs client not initialized")

// Client uploads objects into a single bucket.
type Client struct {
	httpClient    *http.Client
	bucket        string
	publicBaseURL string
	apiBase       string
	tokens        *tokenSource
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Bucket      string
	Name        string
	ContentType string
	Size        int64
	URL         string
}

// NewClient resolves credentials (inline JSON, a key file, then the metadata
// server) and verifies the bucket is reachable.
func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, uploads config.UploadsConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	httpClient := &http.Client{Timeout: httpTimeout}
	tokens, err := resolveTokenSource(httpClient, gcp)
	if err != nil {
		return nil, err
	}

	c := &Client{
		httpClient:    httpClient,
		bucket:        cfg.BucketName,
		publicBaseURL: strings.TrimRight(uploads.PublicBaseURL, "/"),
		apiBase:       storageHost,
		tokens:        tokens,
	}
	if err := c.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.BucketName), "gcs client ready")
	}
	return c, nil
}

func (c *Client) Bucket() string {
	if c == nil {
		return ""
	}
	return c.bucket
}

func (c *Client) Close() error { return nil }

// Ping lists at most one object, which needs the same grant as uploads.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.tokens == nil {
		return errNotInitialized
	}
	if c.bucket == "" {
		return errors.New("gcs bucket not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/storage/v1/b/%s/o?maxResults=1", c.apiBase, url.PathEscape(c.bucket))
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.send(req, "gcs bucket check failed")
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// Upload writes body to object with a single media request.
func (c *Client) Upload(ctx context.Context, object, contentType string, body io.Reader) (*ObjectInfo, error) {
	if c == nil || c.tokens == nil {
		return nil, errNotInitialized
	}
	object = strings.TrimLeft(object, "/")
	switch {
	case object == "":
		return nil, errors.New("object name is required")
	case contentType == "":
		return nil, errors.New("content type is required")
	case body == nil:
		return nil, errors.New("body is required")
	}

	q := url.Values{"uploadType": {"media"}, "name": {object}}
	endpoint := fmt.Sprintf("%s/upload/storage/v1/b/%s/o?%s", c.apiBase, url.PathEscape(c.bucket), q.Encode())
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Cache-Control", cacheControl)

	resp, err := c.send(req, "gcs upload failed")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var stored struct {
		Bucket      string `json:"bucket"`
		Name        string `json:"name"`
		ContentType string `json:"contentType"`
		Size        int64  `json:"size,string"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stored); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}

	info := &ObjectInfo{
		Bucket:      firstNonEmpty(stored.Bucket, c.bucket),
		Name:        firstNonEmpty(stored.Name, object),
		ContentType: stored.ContentType,
		Size:        stored.Size,
	}
	info.URL = c.PublicURL(info.Name)
	return info, nil
}

// PublicURL addresses object under the CDN base when one is configured and
// under the storage host otherwise. Each path segment is escaped.
func (c *Client) PublicURL(object string) string {
	base := c.publicBaseURL
	if base == "" {
		base = storageHost
	}
	segments := strings.Split(strings.TrimLeft(object, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return base + "/" + url.PathEscape(c.bucket) + "/" + strings.Join(segments, "/")
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs token: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}

// send returns the response only on 200; any other status is turned into an
// error carrying the start of the API's reply.
func (c *Client) send(req *http.Request, failure string) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusOK {
		return resp, nil
	}
	defer func() { _ = resp.Body.Close() }()
	return nil, apiError(failure, resp)
}

func apiError(failure string, resp *http.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if msg := strings.TrimSpace(string(detail)); msg != "" {
		return fmt.Errorf("%s: %s: %s", failure, resp.Status, msg)
	}
	return fmt.Errorf("%s: %s", failure, resp.Status)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
