// Package loader fetches shader fragment source off the render thread. Jobs are run on a
// bounded worker pool and their results are collected until the render loop drains them,
// so a slow or failed fetch never blocks a frame.
package loader

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"go.uber.org/zap"
)

const (
	// HashDir is the catalogue directory holding hash fragments.
	HashDir = "hash"

	// NoiseDir is the catalogue directory holding 2D noise fragments.
	NoiseDir = "noise/2d"

	// FragmentExt is the file extension of fragment sources.
	FragmentExt = ".wgsl"

	defaultQueueSize    = 64
	defaultFetchTimeout = 5 * time.Second
)

// Job is a single fetch request. ID and Tag are opaque to the loader and returned with the
// Result so the caller can match completions to the requests it issued.
type Job struct {
	ID   uint64
	Tag  string
	Path string
}

// Result is the outcome of a Job. Err is a *FetchError when the fetch failed.
type Result struct {
	Job    Job
	Source string
	Err    error
}

type loader struct {
	mu     *sync.Mutex
	logger *zap.Logger

	fetcher   Fetcher
	pool      worker.DynamicWorkerPool
	workers   int
	queueSize int
	timeout   time.Duration

	inflight *sync.WaitGroup
	pending  int
	done     []Result
	closed   bool
}

// Loader runs fetch jobs asynchronously and buffers their results.
type Loader interface {
	// Submit queues a fetch. It never blocks on the fetch itself.
	//
	// Parameters:
	//   - ctx: cancels the fetch; a per-fetch timeout is applied on top
	//   - job: the fetch to run
	//
	// Returns:
	//   - error: ErrClosed if the loader was closed
	Submit(ctx context.Context, job Job) error

	// Drain returns every result completed since the previous Drain, in completion order.
	//
	// Returns:
	//   - []Result: the completed results, or nil if none
	Drain() []Result

	// Pending returns the number of submitted jobs that have not completed yet.
	Pending() int

	// Wait blocks until every submitted job has completed.
	Wait()

	// Fetcher returns the fetcher jobs are run against.
	Fetcher() Fetcher

	// Close rejects further submissions, waits for jobs already queued to complete and then
	// stops the workers. It is safe to call more than once.
	Close()
}

var _ Loader = &loader{}

// NewLoader creates a Loader that runs jobs against fetcher.
//
// Parameters:
//   - fetcher: the source of shader text
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: the new loader
func NewLoader(fetcher Fetcher, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:        &sync.Mutex{},
		logger:    zap.NewNop(),
		fetcher:   fetcher,
		workers:   max(runtime.NumCPU()/2, 1),
		queueSize: defaultQueueSize,
		timeout:   defaultFetchTimeout,
		inflight:  &sync.WaitGroup{},
	}
	for _, option := range options {
		option(l)
	}

	l.pool = worker.NewDynamicWorkerPool(l.workers, l.queueSize, 0)
	return l
}

func (l *loader) Submit(ctx context.Context, job Job) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.pending++
	l.inflight.Add(1)
	l.mu.Unlock()

	l.logger.Debug("fetch queued", zap.Uint64("id", job.ID), zap.String("tag", job.Tag), zap.String("path", job.Path))
	l.pool.SubmitTask(worker.Task{
		ID: int(job.ID),
		Do: func() (any, error) {
			res := l.run(ctx, job)
			l.complete(res)
			return res.Source, res.Err
		},
	})
	return nil
}

func (l *loader) run(ctx context.Context, job Job) Result {
	fctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	start := time.Now()
	src, err := l.fetcher.FetchText(fctx, job.Path)
	if err != nil {
		err = asFetchError(job.Path, err)
		l.logger.Debug("fetch failed", zap.String("path", job.Path), zap.Error(err))
	} else {
		l.logger.Debug("fetch done", zap.String("path", job.Path), zap.Int("bytes", len(src)), zap.Duration("took", time.Since(start)))
	}
	return Result{Job: job, Source: src, Err: err}
}

func (l *loader) complete(res Result) {
	l.mu.Lock()
	l.done = append(l.done, res)
	l.pending--
	l.mu.Unlock()
	l.inflight.Done()
}

func (l *loader) Drain() []Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.done) == 0 {
		return nil
	}
	out := l.done
	l.done = nil
	return out
}

func (l *loader) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending
}

func (l *loader) Wait() {
	l.inflight.Wait()
}

func (l *loader) Fetcher() Fetcher {
	return l.fetcher
}

func (l *loader) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	l.inflight.Wait()
	l.retireWorkers()
	l.pool.Stop()
	l.logger.Debug("loader closed", zap.Int("workers", l.workers))
}

// retireWorkers ends every pool worker goroutine. The pool's own Stop hands worker ids out
// on one shared channel and a worker drops ids that are not its own, so it can leave workers
// running. Instead each worker takes one task that holds it until all workers hold one, then
// exits its goroutine. Must only run once the task queue is empty.
func (l *loader) retireWorkers() {
	n := l.pool.GetMaxWorkers()
	var held sync.WaitGroup
	held.Add(n)
	var exited sync.WaitGroup
	exited.Add(n)
	for i := range n {
		l.pool.SubmitTask(worker.Task{
			ID: -1 - i,
			Do: func() (any, error) {
				held.Done()
				held.Wait()
				exited.Done()
				runtime.Goexit()
				return nil, nil
			},
		})
	}
	exited.Wait()
}
