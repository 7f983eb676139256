// Package scheduler runs the periodic crash-recovery sweep. An article
// stuck in PROCESSING means a worker died mid-pipeline; the sweep resets
// it to PENDING and puts it back on the queue.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sebkrier/alexandria-sub000/config"
	"github.com/sebkrier/alexandria-sub000/queue"
	"github.com/sebkrier/alexandria-sub000/store"
)

// Sweeper periodically requeues stale PROCESSING articles.
type Sweeper struct {
	store *store.Store
	queue queue.Queue
	age   time.Duration
	cron  *cron.Cron
}

func NewSweeper(st *store.Store, q queue.Queue) *Sweeper {
	return &Sweeper{
		store: st,
		queue: q,
		age:   config.StaleProcessingAge,
		cron:  cron.New(),
	}
}

// Start schedules the sweep. The spec is a cron expression or an @every
// duration, e.g. "@every 5m".
func (s *Sweeper) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() {
		if err := s.SweepOnce(context.Background()); err != nil {
			log.Printf("stale sweep failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule stale sweep: %w", err)
	}
	s.cron.Start()
	log.Printf("Stale-article sweep scheduled (%s, threshold %s)", spec, s.age)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// SweepOnce recovers every article stuck past the threshold.
func (s *Sweeper) SweepOnce(ctx context.Context) error {
	stuck, err := s.store.StaleProcessing(s.age)
	if err != nil {
		return err
	}
	if len(stuck) == 0 {
		return nil
	}

	recovered := 0
	for _, a := range stuck {
		if err := s.store.RecoverStale(a.UserID, a.ID); err != nil {
			log.Printf("could not recover article %s: %v", a.ID, err)
			continue
		}
		if err := s.queue.Enqueue(ctx, queue.Job{UserID: a.UserID, ArticleID: a.ID}); err != nil {
			log.Printf("could not re-enqueue article %s: %v", a.ID, err)
			continue
		}
		recovered++
	}
	log.Printf("Stale sweep recovered %d/%d article(s)", recovered, len(stuck))
	return nil
}
