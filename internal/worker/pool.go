// Package worker runs module diagnostics as an embarrassingly parallel
// batch: every job owns its input arrays, no state is shared between tasks,
// and results come back tagged by submission ID.
package worker

import (
	"sync"
	"time"

	"pv_diagnostics/internal/log"
	"pv_diagnostics/internal/model"
)

// Job is one irradiance scan to analyze.
type Job struct {
	ID          string
	Irradiances []float64
}

// Result wraps the report for one job. Err is set when the input failed
// validation; the report is zero-valued in that case.
type Result struct {
	ID      string
	Report  model.ModuleReport
	Err     error
	Elapsed time.Duration
}

// ProcessorFunc runs the actual analysis for one job.
type ProcessorFunc func(id string, irradiances []float64) (model.ModuleReport, error)

// Options configures a new pool.
type Options struct {
	Workers   int
	Processor ProcessorFunc
}

// Pool fans jobs out over a fixed set of workers.
type Pool struct {
	jobs     chan Job
	results  chan Result
	workers  int
	shutdown chan struct{}
	wg       sync.WaitGroup
	process  ProcessorFunc
}

func New(opts Options) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}

	p := &Pool{
		jobs:     make(chan Job, opts.Workers*2),
		results:  make(chan Result, opts.Workers*2),
		workers:  opts.Workers,
		shutdown: make(chan struct{}),
		process:  opts.Processor,
	}

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	log.Debugf("worker pool started with %d workers", p.workers)

	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.jobs:
			start := time.Now()
			report, err := p.process(job.ID, job.Irradiances)
			p.results <- Result{
				ID:      job.ID,
				Report:  report,
				Err:     err,
				Elapsed: time.Since(start),
			}

		case <-p.shutdown:
			return
		}
	}
}

// Submit queues a job, blocking once the buffer is full.
func (p *Pool) Submit(job Job) {
	select {
	case p.jobs <- job:
	default:
		log.Warnf("worker pool job buffer full, submission blocking")
		p.jobs <- job
	}
}

// Results exposes the result channel for collection.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Shutdown stops the workers after their in-flight jobs finish. Queued but
// unstarted jobs are dropped; cancellation here is simply not scheduling.
func (p *Pool) Shutdown() {
	close(p.shutdown)
	p.wg.Wait()
	log.Debugf("worker pool shut down")
}
