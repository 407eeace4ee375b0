package sdk_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ArubikU/blobcraft/pkg/sdk"
)

func ExampleClient_UploadSmart() {
	// Create client
	client := sdk.NewClientWithConfig(sdk.ClientConfig{
		BaseURL:   "http://localhost:8080",
		AccessKey: os.Getenv("BLOBCRAFT_ACCESS_KEY"),
		RetryMax:  3,
	})

	file, err := os.Open("backup.tar")
	if err != nil {
		fmt.Printf("Failed to open file: %v\n", err)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		fmt.Printf("Failed to stat file: %v\n", err)
		return
	}

	// Files above 50MiB go up in chunks, smaller ones in one request
	ref, err := client.UploadSmart(context.Background(), file, stat.Size(), stat.Name(), sdk.UploadOptions{
		TTL:  48 * time.Hour,
		Tags: []string{"backup"},
		OnChunk: func(index int, percent float64) {
			fmt.Printf("chunk %d done (%.1f%%)\n", index, percent)
		},
	})
	if err != nil {
		fmt.Printf("Upload failed: %v\n", err)
		return
	}

	fmt.Printf("Uploaded %s to %s\n", ref.Filename, ref.URL)
}

func ExampleClient_Resume() {
	client := sdk.NewClient("http://localhost:8080")
	ctx := context.Background()

	file, err := os.Open("video.mp4")
	if err != nil {
		fmt.Printf("Failed to open file: %v\n", err)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		fmt.Printf("Failed to stat file: %v\n", err)
		return
	}

	// Keep the session when the connection drops so it can be resumed
	opts := sdk.UploadOptions{KeepSession: true}
	ref, err := client.UploadChunked(ctx, file, stat.Size(), stat.Name(), opts)

	var transferErr *sdk.TransferError
	if errors.As(err, &transferErr) && errors.Is(err, sdk.ErrTransportFailure) {
		ref, err = client.Resume(ctx, transferErr.SessionID, file, stat.Size(), opts)
	}
	if err != nil {
		fmt.Printf("Upload failed: %v\n", err)
		return
	}

	fmt.Printf("Uploaded %s\n", ref.ID)
}

func ExampleClient_Download() {
	client := sdk.NewClient("http://localhost:8080")

	output, err := os.Create("downloaded.bin")
	if err != nil {
		fmt.Printf("Failed to create file: %v\n", err)
		return
	}
	defer output.Close()

	// The content is checked against the blake3 hash announced by the server
	if err := client.Download(context.Background(), "550e8400-e29b-41d4-a716-446655440000", output); err != nil {
		fmt.Printf("Download failed: %v\n", err)
		return
	}

	fmt.Println("Download successful")
}

func ExampleClient_List() {
	client := sdk.NewClient("http://localhost:8080")

	page, err := client.List(context.Background(), sdk.ListRequest{
		Search: "report",
		Ext:    "pdf",
		Limit:  10,
	})
	if err != nil {
		fmt.Printf("Failed to list blobs: %v\n", err)
		return
	}

	fmt.Printf("Found %d blobs\n", page.Pagination.Total)
	for _, blob := range page.Data {
		fmt.Printf("- %s: %s\n", blob.ID, blob.Filename)
	}
}

func ExampleTransferError() {
	var err error = &sdk.TransferError{
		SessionID:  "7f3c",
		ChunkIndex: 2,
		Err:        sdk.ErrChecksumMismatch.Fmt("7f3c", 2),
	}

	var transferErr *sdk.TransferError
	if errors.As(err, &transferErr) {
		fmt.Println("failed chunk:", transferErr.ChunkIndex)
	}

	switch {
	case errors.Is(err, sdk.ErrTransportFailure):
		fmt.Println("connection lost, resume later")
	case errors.Is(err, sdk.ErrChecksumMismatch):
		fmt.Println("chunk corrupted in transit, resend it")
	}

	var coded sdk.Error
	if errors.As(err, &coded) {
		fmt.Println(coded.Code())
	}
	// Output:
	// failed chunk: 2
	// chunk corrupted in transit, resend it
	// upload.checksum_mismatch
}
