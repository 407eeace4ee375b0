package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/ArubikU/blobcraft/internal/utils/blake3"
)

const baseURL = "http://localhost:8080/api/v1"

// Walks through the chunked upload protocol with plain HTTP requests.
func main() {
	payload := []byte(strings.Repeat("blobcraft chunked upload\n", 4))

	fmt.Println("=== Init ===")
	var created struct {
		SessionID   string `json:"sessionId"`
		ChunkSize   int64  `json:"chunkSize"`
		TotalChunks int    `json:"totalChunks"`
	}
	if err := call(http.MethodPost, "/upload/init", map[string]any{
		"filename":  "protocol.txt",
		"totalSize": len(payload),
		"chunkSize": 32,
	}, "application/json", nil, &created); err != nil {
		fmt.Printf("Init error: %v\n", err)
		return
	}
	fmt.Printf("Session %s: %d chunks of %d bytes\n", created.SessionID, created.TotalChunks, created.ChunkSize)

	fmt.Println("\n=== Chunks ===")
	for index := 0; index < created.TotalChunks; index++ {
		start := int64(index) * created.ChunkSize
		end := min(start+created.ChunkSize, int64(len(payload)))
		data := payload[start:end]

		var result struct {
			Percent       float64 `json:"percent"`
			Completed     bool    `json:"completed"`
			FinalObjectID string  `json:"finalObjectId"`
		}
		header := http.Header{"X-Chunk-Checksum": {blake3.Sum(data)}}
		if err := call(http.MethodPost, fmt.Sprintf("/upload/chunk/%s/%d", created.SessionID, index), data, "application/octet-stream", header, &result); err != nil {
			fmt.Printf("Chunk %d error: %v\n", index, err)
			return
		}
		fmt.Printf("Chunk %d: %.0f%%\n", index, result.Percent)

		if result.Completed {
			fmt.Printf("Stored as %s\n", result.FinalObjectID)
			break
		}
	}

	fmt.Println("\n=== Progress ===")
	var progress map[string]any
	if err := call(http.MethodGet, "/upload/progress/"+created.SessionID, nil, "", nil, &progress); err != nil {
		fmt.Printf("Progress error: %v\n", err)
		return
	}
	fmt.Printf("Status: %v, missing: %v\n", progress["status"], progress["missingChunks"])
}

func call[T any](method, path string, body any, contentType string, header http.Header, out *T) error {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		encoded, err := sonic.Marshal(b)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range header {
		req.Header[key] = values
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if key := os.Getenv("BLOBCRAFT_ACCESS_KEY"); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(raw))
	}

	var envelope struct {
		Data T `json:"data"`
	}
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	*out = envelope.Data
	return nil
}
