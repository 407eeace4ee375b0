package locker

import (
	"io"
	"sync"
)

// Keyed hands out one RWMutex per key, created on first use.
type Keyed struct {
	locks sync.Map // map[string]*sync.RWMutex
}

func (k *Keyed) Get(key string) *sync.RWMutex {
	lock, _ := k.locks.LoadOrStore(key, &sync.RWMutex{})
	return lock.(*sync.RWMutex)
}

// ReadCloser wraps a reader and releases the read lock on close.
type ReadCloser struct {
	io.ReadCloser
	Lock *sync.RWMutex

	once sync.Once
}

func (l *ReadCloser) Close() error {
	err := l.ReadCloser.Close()
	l.once.Do(l.Lock.RUnlock)
	return err
}

func NewReadCloser(r io.ReadCloser, lock *sync.RWMutex) *ReadCloser {
	return &ReadCloser{ReadCloser: r, Lock: lock}
}
