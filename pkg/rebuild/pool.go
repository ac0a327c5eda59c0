// Package rebuild serializes index rebuilds behind a single background worker.
//
// The index itself does no locking, so every writer in a long-running process
// (HTTP handlers, the catalog watcher) goes through one Pool. Queries are not
// routed through the pool and never wait on a rebuild.
package rebuild

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/papercomputeco/marquee/pkg/index"
	"github.com/papercomputeco/marquee/pkg/logger"
	"github.com/papercomputeco/marquee/pkg/movie"
)

var defaultJobQueueSize uint = 16

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("rebuild pool closed")

// Kind selects what a Job does.
type Kind int

const (
	// KindBuild rebuilds from Job.Records, or from the catalog source when
	// Records is nil.
	KindBuild Kind = iota
	// KindReset replaces the index with an empty one.
	KindReset
)

func (k Kind) String() string {
	if k == KindReset {
		return "reset"
	}
	return "build"
}

// Job is a unit of work for the pool.
type Job struct {
	Kind    Kind
	Records []movie.Record

	// Origin names the requester in logs, e.g. "api" or "watch".
	Origin string

	result chan result
}

type result struct {
	report *index.BuildReport
	err    error
}

// Builder is the subset of *index.Index the pool drives.
type Builder interface {
	Build(ctx context.Context, catalog []movie.Record) (*index.BuildReport, error)
	Reset(ctx context.Context) (*index.BuildReport, error)
}

// Config is the configuration options for the rebuild pool.
type Config struct {
	Index Builder

	// Catalog loads the catalog for build jobs that carry no records.
	Catalog func() ([]movie.Record, error)

	// QueueSize is the capacity of the buffered job channel (defaults to 16).
	QueueSize uint

	Logger *slog.Logger
}

// Pool runs jobs one at a time, in submission order.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a pool and starts its worker.
func NewPool(c *Config) (*Pool, error) {
	if c.Index == nil {
		return nil, errors.New("rebuild pool requires an index")
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}
	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	p := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: log,
	}

	p.wg.Add(1)
	go p.worker()

	return p, nil
}

// Enqueue submits a job without waiting for it. Returns false if the pool is
// closed or the queue is full, in which case the job is dropped.
func (p *Pool) Enqueue(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Warn("rebuild pool closed, job dropped", "kind", job.Kind, "origin", job.Origin)
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("rebuild job queued", "kind", job.Kind, "origin", job.Origin)
		return true
	default:
		p.logger.Error("rebuild job not queued, queue full, job dropped", "kind", job.Kind, "origin", job.Origin)
		return false
	}
}

// Submit queues job and waits for its report. If ctx ends first the job
// still runs; only the wait is abandoned.
func (p *Pool) Submit(ctx context.Context, job Job) (*index.BuildReport, error) {
	job.result = make(chan result, 1)

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, ErrClosed
	}
	select {
	case p.queue <- job:
		p.mu.RUnlock()
	case <-ctx.Done():
		p.mu.RUnlock()
		return nil, ctx.Err()
	}

	select {
	case r := <-job.result:
		return r.report, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting jobs and waits for queued ones to drain.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	p.logger.Debug("rebuild worker started")

	for job := range p.queue {
		report, err := p.process(job)
		if job.result != nil {
			job.result <- result{report: report, err: err}
		}
	}

	p.logger.Debug("rebuild worker stopped")
}

func (p *Pool) process(job Job) (*index.BuildReport, error) {
	ctx := context.Background()
	start := time.Now()

	var (
		report *index.BuildReport
		err    error
	)
	switch job.Kind {
	case KindReset:
		report, err = p.config.Index.Reset(ctx)
	default:
		records := job.Records
		if records == nil {
			records, err = p.loadCatalog()
			if err != nil {
				break
			}
		}
		report, err = p.config.Index.Build(ctx, records)
	}

	if err != nil {
		p.logger.Error("rebuild job failed",
			"kind", job.Kind,
			"origin", job.Origin,
			"error", err,
		)
		return nil, err
	}

	p.logger.Info("rebuild job complete",
		"kind", job.Kind,
		"origin", job.Origin,
		"count", report.Count,
		"skipped", report.Skipped,
		"elapsed", time.Since(start),
	)
	return report, nil
}

func (p *Pool) loadCatalog() ([]movie.Record, error) {
	if p.config.Catalog == nil {
		return nil, errors.New("no records given and no catalog source configured")
	}
	records, err := p.config.Catalog()
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return records, nil
}
