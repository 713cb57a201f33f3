// Package scheduler runs periodic jobs on a cron schedule
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one unit of scheduled work
type Job func(ctx context.Context) error

// Scheduler runs a single job on a cron schedule
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
}

// New creates a scheduler running job whenever spec fires. Each run gets
// timeout to complete.
func New(spec string, timeout time.Duration, name string, job Job) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		timeout: timeout,
	}

	_, err := s.cron.AddFunc(spec, func() {
		if err := s.run(job); err != nil {
			log.Printf("Scheduled %s failed: %v", name, err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up cron job %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) run(job Job) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return job(ctx)
}

// RunNow runs job immediately on the calling goroutine
func (s *Scheduler) RunNow(job Job) error {
	return s.run(job)
}

// Start starts the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
