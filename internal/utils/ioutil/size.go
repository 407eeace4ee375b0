package ioutil

import (
	"io"
)

// SizeReader counts the bytes read through it.
type SizeReader struct {
	io.Reader
	Size int64
}

func NewSizeReader(reader io.Reader) *SizeReader {
	return &SizeReader{Reader: reader}
}

func (s *SizeReader) Read(p []byte) (n int, err error) {
	n, err = s.Reader.Read(p)
	s.Size += int64(n)
	return n, err
}

// ReadCloser pairs a reader with a separate closer, e.g. a decoder over a file.
type ReadCloser struct {
	io.Reader
	close func() error
}

func NewReadCloser(r io.Reader, close func() error) *ReadCloser {
	return &ReadCloser{Reader: r, close: close}
}

func (r *ReadCloser) Close() error {
	return r.close()
}
