package sdk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/bytedance/sonic"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/ArubikU/blobcraft/internal/model"
)

type envelope[T any] struct {
	Data  T            `json:"data"`
	Error *model.Error `json:"error"`
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string, body any) (*retryablehttp.Request, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.accessKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessKey)
	}
	return req, nil
}

func doGET[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	target := c.apiURL(path)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := c.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		var zero T
		return zero, err
	}
	return doRequest[T](c, req)
}

func doDELETE[T any](ctx context.Context, c *Client, path string) (T, error) {
	req, err := c.newRequest(ctx, http.MethodDelete, c.apiURL(path), nil)
	if err != nil {
		var zero T
		return zero, err
	}
	return doRequest[T](c, req)
}

// doPOST sends body once, POSTs are never retried by the transport.
func doPOST[T any](ctx context.Context, c *Client, path string, body []byte, contentType string, header http.Header) (T, error) {
	req, err := c.newRequest(withoutRetry(ctx), http.MethodPost, c.apiURL(path), bytes.NewReader(body))
	if err != nil {
		var zero T
		return zero, err
	}
	req.Header.Set("Content-Type", contentType)
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	return doRequest[T](c, req)
}

func doJSON[T any](ctx context.Context, c *Client, path string, payload any) (T, error) {
	body, err := sonic.Marshal(payload)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to encode request: %w", err)
	}
	return doPOST[T](ctx, c, path, body, "application/json", nil)
}

func doRequest[T any](c *Client, req *retryablehttp.Request) (T, error) {
	var zero T

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, transportError(err)
	}
	defer resp.Body.Close()

	return decodeResponse[T](resp)
}

func decodeResponse[T any](resp *http.Response) (T, error) {
	var zero T

	var body envelope[T]
	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&body); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return zero, fmt.Errorf("request failed with status code: %d", resp.StatusCode)
		}
		return zero, fmt.Errorf("failed to decode response: %w", err)
	}

	if body.Error != nil {
		return zero, *body.Error
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return zero, fmt.Errorf("request failed with status code: %d", resp.StatusCode)
	}

	return body.Data, nil
}

// transportError wraps failures below the protocol, e.g. refused connections
// or timeouts, keeping the cause reachable.
func transportError(err error) error {
	return model.ErrTransportFailure.Fmt(err.Error()).Wrap(err)
}

// drain lets the connection be reused after an early return.
func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 64<<10))
}
