package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docker/go-units"

	"github.com/ArubikU/blobcraft/pkg/sdk"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "server root")
	public := flag.Bool("public", false, "make the blob public")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: go run ./example/sdk [-server URL] [-public] <file>")
		os.Exit(1)
	}

	client := sdk.NewClientWithConfig(sdk.ClientConfig{
		BaseURL:   *server,
		AccessKey: os.Getenv("BLOBCRAFT_ACCESS_KEY"),
		RetryMax:  3,
	})
	ctx := context.Background()

	file, err := os.Open(flag.Arg(0))
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

	fmt.Printf("Uploading %s (%s)\n", stat.Name(), units.HumanSize(float64(stat.Size())))
	ref, err := client.UploadSmart(ctx, file, stat.Size(), stat.Name(), sdk.UploadOptions{
		Public: *public,
		OnChunk: func(index int, percent float64) {
			fmt.Printf("  chunk %d: %.1f%%\n", index, percent)
		},
	})
	if err != nil {
		fmt.Printf("Upload failed: %v\n", err)
		return
	}
	fmt.Printf("Upload successful: %s\n", ref.URL)

	output, err := os.Create(filepath.Join(os.TempDir(), ref.ID+"_"+ref.Filename))
	if err != nil {
		fmt.Printf("Failed to create file: %v\n", err)
		return
	}
	defer output.Close()

	if err := client.Download(ctx, ref.ID, output); err != nil {
		fmt.Printf("Download failed: %v\n", err)
		return
	}
	fmt.Printf("Download verified: %s\n", output.Name())
}
