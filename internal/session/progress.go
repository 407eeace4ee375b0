package session

import "time"

// Progress is a point-in-time view of a session.
type Progress struct {
	SessionID     string    `json:"sessionId"`
	Filename      string    `json:"filename"`
	TotalSize     int64     `json:"totalSize"`
	UploadedBytes int64     `json:"uploadedBytes"`
	ChunkSize     int64     `json:"chunkSize"`
	TotalChunks   int       `json:"totalChunks"`
	ReceivedCount int       `json:"receivedCount"`
	Percent       float64   `json:"percent"`
	Completed     bool      `json:"completed"`
	Status        State     `json:"status"`
	FinalObjectID string    `json:"finalObjectId,omitempty"`
	MissingChunks []int     `json:"missingChunks"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// progress must be called with s.mu held.
func (s *Session) progress() Progress {
	missing := make([]int, 0, s.Plan.TotalChunks-len(s.received))
	for i := 0; i < s.Plan.TotalChunks; i++ {
		if _, ok := s.received[i]; !ok {
			missing = append(missing, i)
		}
	}

	return Progress{
		SessionID:     s.ID,
		Filename:      s.Filename,
		TotalSize:     s.Plan.TotalSize,
		UploadedBytes: s.receivedBytes,
		ChunkSize:     s.Plan.ChunkSize,
		TotalChunks:   s.Plan.TotalChunks,
		ReceivedCount: len(s.received),
		Percent:       s.percent(),
		Completed:     s.state == StateComplete,
		Status:        s.state,
		FinalObjectID: s.finalObjectID,
		MissingChunks: missing,
		CreatedAt:     s.CreatedAt,
		ExpiresAt:     s.ExpiresAt,
	}
}
