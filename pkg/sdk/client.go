// Package sdk is the Go client of the blobcraft server.
//
// Small payloads go up in a single request. Large ones are split into chunks
// that a server side session reassembles, and an interrupted chunked upload
// can be resumed by sending only the chunks the server is still missing.
package sdk

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/ArubikU/blobcraft/pkg/chunk"
)

const (
	apiPrefix      = "/api/v1"
	defaultTimeout = 5 * time.Minute
)

// ClientConfig configures a Client. Only BaseURL is required.
type ClientConfig struct {
	// BaseURL is the server root, e.g. "http://localhost:8080".
	BaseURL string
	// AccessKey is sent as a bearer token when set.
	AccessKey string
	// HTTPClient performs the requests, a client with a 5 minute timeout by default.
	HTTPClient *http.Client
	// RetryMax bounds the retries of idempotent requests (GET and DELETE).
	RetryMax int
	Logger   *slog.Logger

	// ChunkSize is the chunk size hint sent when opening a session.
	ChunkSize int64
	// Threshold is the payload size above which UploadSmart chunks.
	Threshold int64
}

// Client is the blobcraft SDK client
type Client struct {
	baseURL   string
	accessKey string
	http      *retryablehttp.Client
	logger    *slog.Logger

	chunkSize int64
	threshold int64
}

// NewClient creates a new SDK client
// baseURL is the server root, e.g., "http://localhost:8080"
func NewClient(baseURL string) *Client {
	return NewClientWithConfig(ClientConfig{BaseURL: baseURL, RetryMax: 3})
}

func NewClientWithConfig(cfg ClientConfig) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = chunk.DefaultChunkSize
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = chunk.DefaultThreshold
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = cfg.HTTPClient
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = cfg.Logger
	retryClient.CheckRetry = checkRetry
	// hand the last response back so its error body can be decoded
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		accessKey: cfg.AccessKey,
		http:      retryClient,
		logger:    cfg.Logger,
		chunkSize: cfg.ChunkSize,
		threshold: cfg.Threshold,
	}
}

type noRetryKey struct{}

// withoutRetry marks a request as unsafe to repeat automatically.
func withoutRetry(ctx context.Context) context.Context {
	return context.WithValue(ctx, noRetryKey{}, true)
}

func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if noRetry, _ := ctx.Value(noRetryKey{}).(bool); noRetry {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func (c *Client) apiURL(path string) string {
	return c.baseURL + apiPrefix + path
}

// absURL resolves a server relative download location.
func (c *Client) absURL(path string) string {
	if strings.HasPrefix(path, "/") {
		return c.baseURL + path
	}
	return path
}
