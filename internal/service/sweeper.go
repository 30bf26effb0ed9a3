package service

import (
	"context"
	"log"
	"time"

	"crowddeck/internal/repository"
)

// Sweeper periodically ends sessions past their expiry. It is owned by the
// process lifecycle: Run blocks until the context is cancelled, so shutdown
// stops the sweep before storage handles close. A failed pass is logged and
// retried on the next tick.
type Sweeper struct {
	sessionRepo repository.SessionRepo
	sessionSvc  *SessionService
	interval    time.Duration
}

// NewSweeper creates a new expiration sweeper.
func NewSweeper(sessionRepo repository.SessionRepo, sessionSvc *SessionService, interval time.Duration) *Sweeper {
	return &Sweeper{
		sessionRepo: sessionRepo,
		sessionSvc:  sessionSvc,
		interval:    interval,
	}
}

// Run blocks, sweeping on the configured interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("expiration sweeper stopped")
			return
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				log.Printf("expiration sweep failed: %v", err)
			}
		}
	}
}

// sweep ends every expired session through the normal transition so
// subscribers get the same broadcasts as a presenter-driven end. Idempotent:
// once swept, the next pass finds nothing.
func (s *Sweeper) sweep(ctx context.Context) error {
	expired, err := s.sessionRepo.ListExpired(ctx, time.Now())
	if err != nil {
		return err
	}
	for _, session := range expired {
		if err := s.sessionSvc.EndSession(ctx, session.ID); err != nil {
			log.Printf("failed to expire session %s: %v", session.ID, err)
			continue
		}
		log.Printf("expired session %s (code %s)", session.ID, session.JoinCode)
	}
	return nil
}
