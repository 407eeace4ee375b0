package compress

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/ArubikU/blobcraft/internal/utils/ioutil"
)

// Compress streams src through a zstd encoder at level (1 fastest, 4 best).
// The returned reader must be drained or closed to release the encoder goroutine.
func Compress(src io.Reader, level int) io.ReadCloser {
	pr, pw := io.Pipe()

	go func() {
		enc, err := zstd.NewWriter(pw, zstd.WithEncoderLevel(zstd.EncoderLevel(level)))
		if err != nil {
			pw.CloseWithError(fmt.Errorf("create zstd writer: %w", err))
			return
		}
		if _, err := io.Copy(enc, src); err != nil {
			enc.Close()
			pw.CloseWithError(fmt.Errorf("compress: %w", err))
			return
		}
		pw.CloseWithError(enc.Close())
	}()

	return pr
}

// Decompress wraps a zstd stream. Closing the result closes src as well.
func Decompress(src io.ReadCloser) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(src)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}

	return ioutil.NewReadCloser(dec, func() error {
		dec.Close()
		return src.Close()
	}), nil
}
