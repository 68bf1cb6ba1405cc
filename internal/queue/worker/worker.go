package worker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/geocoder89/memberhub/internal/notifications"
	"github.com/geocoder89/memberhub/internal/observability"
	"github.com/geocoder89/memberhub/internal/queue"
)

type Config struct {
	PollTimeout time.Duration
	MaxAttempts int
	WorkerID    string
}

type Worker struct {
	cfg      Config
	q        *queue.Queue
	notifier notifications.Notifier
	prom     *observability.Prom

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, q *queue.Queue, notifier notifications.Notifier, prom *observability.Prom) *Worker {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 2 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}

	return &Worker{
		cfg:      cfg,
		q:        q,
		notifier: notifier,
		prom:     prom,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	log.Printf("worker %s started", w.cfg.WorkerID)

	for {
		if ctx.Err() != nil {
			log.Println("worker received shutdown signal")
			return nil
		}

		_, err := w.ProcessOne(ctx)

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				log.Println("worker received shutdown signal")
				return nil
			}
			log.Printf("dequeue error: %v", err)

			// back off briefly so a dead redis does not spin the loop
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
		}
	}
}

// ProcessOne waits for one job and runs it. processed is false when the
// poll timed out with an empty queue.
func (w *Worker) ProcessOne(ctx context.Context) (processed bool, err error) {
	j, ok, err := w.q.Dequeue(ctx, w.cfg.PollTimeout)

	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if w.prom != nil {
		w.prom.JobsInFlight.Inc()
		defer w.prom.JobsInFlight.Dec()
	}

	start := time.Now()
	execErr := w.execute(ctx, j)
	result := "done"

	if execErr != nil {
		result = w.handleFailure(ctx, j, execErr)
	}

	if w.prom != nil {
		w.prom.JobDuration.WithLabelValues(string(j.Type), result).Observe(time.Since(start).Seconds())
		w.prom.JobResults.WithLabelValues(string(j.Type), result).Inc()
	}

	return true, nil
}

func (w *Worker) execute(ctx context.Context, j queue.Job) error {
	payload, err := queue.DecodePayload(j)

	if err != nil {
		return err
	}

	switch p := payload.(type) {
	case queue.WelcomeEmailPayload:
		return w.notifier.SendWelcome(ctx, notifications.SendWelcomeInput{
			Email:    p.Email,
			Name:     p.Name,
			Username: p.Username,
		})
	default:
		return queue.ErrInvalidJobType
	}
}

// handleFailure decides between a delayed retry and dropping the job.
// Undecodable envelopes are dropped immediately; nothing would change
// on a retry.
func (w *Worker) handleFailure(ctx context.Context, j queue.Job, execErr error) string {
	if errors.Is(execErr, queue.ErrInvalidJobPayload) || errors.Is(execErr, queue.ErrInvalidJobType) {
		log.Printf("dropping malformed job id=%s type=%s: %v", j.ID, j.Type, execErr)
		return "failed"
	}

	j.Attempts++

	if j.Attempts >= w.cfg.MaxAttempts {
		log.Printf("job id=%s type=%s failed after %d attempts: %v", j.ID, j.Type, j.Attempts, execErr)
		return "failed"
	}

	delay := ExponentialBackoff(j.Attempts)
	log.Printf("job id=%s type=%s attempt=%d failed, retrying in %s: %v", j.ID, j.Type, j.Attempts, delay, execErr)

	go func() {
		select {
		case <-ctx.Done():
			// requeue right away so the job survives shutdown
		case <-time.After(delay):
		}

		requeueCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := w.q.Requeue(requeueCtx, j); err != nil {
			log.Printf("requeue failed for job id=%s: %v", j.ID, err)
		}
	}()

	return "retry"
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}
