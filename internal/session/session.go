// Package session keeps the server side state of chunked uploads.
//
// Sessions live in an arena keyed by session id. Every record carries its own
// mutex, so writes to one session never wait on another session. Every state
// change of a record, including expiry by the sweeper and finalization, happens
// while holding that record's mutex.
package session

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ArubikU/blobcraft/internal/client/objectstore"
	"github.com/ArubikU/blobcraft/internal/model"
	"github.com/ArubikU/blobcraft/pkg/chunk"
)

type State string

const (
	StateOpen      State = "open"
	StateComplete  State = "complete"
	StateCancelled State = "cancelled"
	StateExpired   State = "expired"
)

// Terminal reports whether no further transition can leave s.
func (s State) Terminal() bool {
	return s != StateOpen
}

type Session struct {
	mu sync.Mutex

	ID        string
	Filename  string
	Plan      chunk.Plan
	Meta      model.BlobMeta
	CreatedAt time.Time
	ExpiresAt time.Time

	state         State
	received      map[int]string // index -> blake3 of the stored bytes
	receivedBytes int64
	finalObjectID string
	closedAt      time.Time
}

func newSession(id, filename string, plan chunk.Plan, meta model.BlobMeta, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        id,
		Filename:  filename,
		Plan:      plan,
		Meta:      meta,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		state:     StateOpen,
		received:  make(map[int]string, plan.TotalChunks),
	}
}

func (s *Session) chunkKey(index int) string {
	return fmt.Sprintf("%s%06d", objectstore.ChunkPrefix(s.ID), index)
}

// receivedIndices returns the stored chunk indices in ascending order.
func (s *Session) receivedIndices() []int {
	indices := make([]int, 0, len(s.received))
	for index := range s.received {
		indices = append(indices, index)
	}
	slices.Sort(indices)
	return indices
}

func (s *Session) complete() bool {
	return len(s.received) == s.Plan.TotalChunks
}

func (s *Session) close(state State, now time.Time) {
	s.state = state
	s.closedAt = now
}

func (s *Session) percent() float64 {
	if s.Plan.TotalChunks == 0 {
		return 100
	}
	return float64(len(s.received)) / float64(s.Plan.TotalChunks) * 100
}
