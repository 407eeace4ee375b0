package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/docker/go-units"

	"github.com/ArubikU/blobcraft/pkg/sdk"
)

// Uploads one file with several chunk sizes and compares the throughput.
func main() {
	server := flag.String("server", "http://localhost:8080", "server root")
	sizes := flag.String("chunks", "1MiB,4MiB,12MiB,32MiB", "comma separated chunk sizes")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: go run ./example/benchmark [-server URL] [-chunks 1MiB,4MiB] <file>")
		os.Exit(1)
	}

	filename := flag.Arg(0)
	file, err := os.Open(filename)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fileSize := info.Size()

	client := sdk.NewClientWithConfig(sdk.ClientConfig{
		BaseURL:   *server,
		AccessKey: os.Getenv("BLOBCRAFT_ACCESS_KEY"),
	})
	ctx := context.Background()

	fmt.Println(strings.Repeat("=", 70))
	fmt.Println("Upload Benchmark")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("File: %s\n", filename)
	fmt.Printf("Size: %s (%d bytes)\n", units.HumanSize(float64(fileSize)), fileSize)
	fmt.Println()

	fmt.Printf("%-12s %8s %15s %15s\n", "Mode", "Chunks", "Time", "Throughput")
	fmt.Println(strings.Repeat("-", 70))

	start := time.Now()
	ref, err := client.Upload(ctx, info.Name(), file, sdk.UploadOptions{})
	if err != nil {
		fmt.Printf("Direct upload failed: %v\n", err)
		os.Exit(1)
	}
	printResult("direct", 1, time.Since(start), fileSize)
	cleanup(ctx, client, ref.ID)

	for _, raw := range strings.Split(*sizes, ",") {
		chunkSize, err := units.RAMInBytes(strings.TrimSpace(raw))
		if err != nil || chunkSize <= 0 {
			fmt.Printf("Invalid chunk size %q\n", raw)
			continue
		}

		chunks := 0
		start := time.Now()
		ref, err := client.UploadChunked(ctx, file, fileSize, info.Name(), sdk.UploadOptions{
			ChunkSize: chunkSize,
			OnChunk:   func(int, float64) { chunks++ },
		})
		if err != nil {
			fmt.Printf("Chunked upload (%s) failed: %v\n", raw, err)
			continue
		}
		printResult(units.BytesSize(float64(chunkSize)), chunks, time.Since(start), fileSize)
		cleanup(ctx, client, ref.ID)
	}
}

func printResult(mode string, chunks int, elapsed time.Duration, size int64) {
	throughput := float64(size) / elapsed.Seconds()
	fmt.Printf("%-12s %8d %15s %13s/s\n", mode, chunks, elapsed.Round(time.Millisecond), units.HumanSize(throughput))
}

func cleanup(ctx context.Context, client *sdk.Client, id string) {
	if err := client.Delete(ctx, id); err != nil {
		fmt.Printf("Failed to delete %s: %v\n", id, err)
	}
}
