package sdk

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/ArubikU/blobcraft/internal/model"
)

// Upload sends content in a single multipart request. The body is streamed,
// so content is never held in memory as a whole.
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader, opts UploadOptions) (FinalReference, error) {
	if err := checkTags(opts.Tags); err != nil {
		return FinalReference{}, err
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	writeErr := make(chan error, 1)

	go func() {
		defer close(writeErr)

		if err := writeUploadFields(writer, opts); err != nil {
			pw.CloseWithError(err)
			writeErr <- err
			return
		}

		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(err)
			writeErr <- fmt.Errorf("create form file: %w", err)
			return
		}
		if _, err := io.Copy(part, content); err != nil {
			pw.CloseWithError(err)
			writeErr <- fmt.Errorf("copy file: %w", err)
			return
		}
		if err := writer.Close(); err != nil {
			pw.CloseWithError(err)
			writeErr <- fmt.Errorf("close writer: %w", err)
			return
		}
		pw.Close()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL("/upload"), pr)
	if err != nil {
		pr.CloseWithError(err)
		<-writeErr
		return FinalReference{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.accessKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessKey)
	}

	// the retrying client would buffer the whole body, stream through the plain one
	resp, err := c.http.HTTPClient.Do(req)
	if err != nil {
		pr.CloseWithError(err)
		<-writeErr
		return FinalReference{}, transportError(err)
	}
	defer resp.Body.Close()

	ref, err := decodeResponse[FinalReference](resp)
	if err != nil {
		pr.CloseWithError(err)
		<-writeErr
		return FinalReference{}, err
	}
	if wErr := <-writeErr; wErr != nil {
		return FinalReference{}, wErr
	}

	ref.URL = c.absURL(ref.URL)
	return ref, nil
}

// checkTags rejects tags the server could not store as given: commas
// separate tags in the upload form and in storage.
func checkTags(tags []string) error {
	for _, tag := range tags {
		if strings.Contains(tag, ",") {
			return model.ErrValidation.Fmt(fmt.Sprintf("tag %q must not contain a comma", tag))
		}
	}
	return nil
}

func writeUploadFields(w *multipart.Writer, opts UploadOptions) error {
	fields := [][2]string{
		{"public", strconv.FormatBool(opts.Public)},
	}
	if opts.TTL > 0 {
		fields = append(fields, [2]string{"ttl", strconv.FormatInt(int64(opts.TTL.Seconds()), 10)})
	}
	if opts.ContentType != "" {
		fields = append(fields, [2]string{"contentType", opts.ContentType})
	}
	if len(opts.Tags) > 0 {
		fields = append(fields, [2]string{"tags", strings.Join(opts.Tags, ",")})
	}
	if opts.Category != "" {
		fields = append(fields, [2]string{"category", opts.Category})
	}
	if opts.Uploader != "" {
		fields = append(fields, [2]string{"uploader", opts.Uploader})
	}
	if opts.Description != "" {
		fields = append(fields, [2]string{"description", opts.Description})
	}
	for key, value := range opts.Metadata {
		fields = append(fields, [2]string{"meta." + key, value})
	}

	for _, field := range fields {
		if err := w.WriteField(field[0], field[1]); err != nil {
			return fmt.Errorf("write %s: %w", field[0], err)
		}
	}
	return nil
}

// Download streams a blob to dst and verifies its blake3 digest against the
// one the server announced.
func (c *Client) Download(ctx context.Context, id string, dst io.Writer) error {
	return c.download(ctx, "/blob/"+url.PathEscape(id), id, dst)
}

// DownloadPublic is Download through the unauthenticated public route.
func (c *Client) DownloadPublic(ctx context.Context, id string, dst io.Writer) error {
	return c.download(ctx, "/public/"+url.PathEscape(id), id, dst)
}

func (c *Client) download(ctx context.Context, path, id string, dst io.Writer) error {
	req, err := c.newRequest(ctx, http.MethodGet, c.absURL(path), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, err := decodeResponse[struct{}](resp)
		if err == nil {
			err = fmt.Errorf("download failed with status %d", resp.StatusCode)
		}
		drain(resp.Body)
		return err
	}

	expectedHash := resp.Header.Get("X-Blob-Hash")

	writer := dst
	var hasher *blake3.Hasher
	if expectedHash != "" {
		hasher = blake3.New()
		writer = io.MultiWriter(dst, hasher)
	}

	if _, err := io.Copy(writer, resp.Body); err != nil {
		return transportError(fmt.Errorf("stream download: %w", err))
	}

	if hasher != nil {
		if got := hex.EncodeToString(hasher.Sum(nil)); got != expectedHash {
			return model.ErrHashMismatch.Fmt(id, expectedHash, got)
		}
	}
	return nil
}

func (c *Client) Metadata(ctx context.Context, id string) (BlobInfo, error) {
	info, err := doGET[BlobInfo](ctx, c, "/blobs/"+url.PathEscape(id), nil)
	if err != nil {
		return BlobInfo{}, err
	}
	info.URL = c.absURL(info.URL)
	return info, nil
}

func (c *Client) List(ctx context.Context, req ListRequest) (BlobPage, error) {
	query := url.Values{}
	if req.Page > 0 {
		query.Set("page", strconv.FormatInt(int64(req.Page), 10))
	}
	if req.Limit > 0 {
		query.Set("limit", strconv.FormatInt(int64(req.Limit), 10))
	}
	if req.Search != "" {
		query.Set("search", req.Search)
	}
	if req.Ext != "" {
		query.Set("ext", req.Ext)
	}

	page, err := doGET[BlobPage](ctx, c, "/blobs", query)
	if err != nil {
		return BlobPage{}, err
	}
	for i := range page.Data {
		page.Data[i].URL = c.absURL(page.Data[i].URL)
	}
	return page, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := doDELETE[struct {
		Message string `json:"message"`
	}](ctx, c, "/blobs/"+url.PathEscape(id))
	return err
}

func (c *Client) Stats(ctx context.Context) (Stats, error) {
	return doGET[Stats](ctx, c, "/stats", nil)
}
