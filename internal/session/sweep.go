package session

import (
	"context"
	"log/slog"
)

type SweepResult struct {
	Expired int
	Reaped  int
}

// Sweep expires open sessions past their deadline and forgets terminal
// sessions older than the retention window. Each record is inspected under its
// own mutex, so a session being finalized is never expired underneath it.
//
// Expired and cancelled records are kept until reaped so late chunk writes are
// answered with a closed session rather than an unknown one.
func (s *Store) Sweep(ctx context.Context) SweepResult {
	var result SweepResult

	s.sessions.Range(func(key, value any) bool {
		sess := value.(*Session)

		sess.mu.Lock()
		if s.expireIfDue(ctx, sess) {
			result.Expired++
		}
		reap := sess.state.Terminal() && s.now().Sub(sess.closedAt) >= s.retention
		sess.mu.Unlock()

		if reap {
			s.sessions.CompareAndDelete(key, value)
			result.Reaped++
		}
		return true
	})

	if result.Expired > 0 || result.Reaped > 0 {
		slog.Info("upload sessions swept", "expired", result.Expired, "reaped", result.Reaped)
	}
	return result
}
