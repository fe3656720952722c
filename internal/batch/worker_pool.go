// Package batch runs independent scale-bar jobs on a fixed number of workers.
package batch

import (
	"runtime"
	"sync"
)

// WorkerPool manages concurrent image processing tasks
type WorkerPool struct {
	workers  int
	jobQueue chan func()
	wg       sync.WaitGroup
	once     sync.Once
	closed   sync.Once
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &WorkerPool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
	}
}

// Workers returns the number of workers
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Start launches the workers. Calling it more than once has no effect.
func (wp *WorkerPool) Start() {
	wp.once.Do(func() {
		for i := 0; i < wp.workers; i++ {
			go wp.worker()
		}
	})
}

func (wp *WorkerPool) worker() {
	for job := range wp.jobQueue {
		wp.run(job)
	}
}

func (wp *WorkerPool) run(job func()) {
	defer wp.wg.Done()
	job()
}

// Submit queues a job; it blocks while the queue is full
func (wp *WorkerPool) Submit(job func()) {
	wp.wg.Add(1)
	wp.jobQueue <- job
}

// Wait blocks until every submitted job has finished
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Close stops the workers once the queue drains. Submit must not be called after Close.
func (wp *WorkerPool) Close() {
	wp.closed.Do(func() {
		close(wp.jobQueue)
	})
}

// Result pairs a job input with its outcome
type Result[T any] struct {
	Index int
	Input string
	Value T
	Err   error
}

// Run applies fn to every input on pool and returns results in input order.
func Run[T any](pool *WorkerPool, inputs []string, fn func(input string) (T, error)) []Result[T] {
	results := make([]Result[T], len(inputs))
	pool.Start()
	for i, in := range inputs {
		pool.Submit(func() {
			v, err := fn(in)
			results[i] = Result[T]{Index: i, Input: in, Value: v, Err: err}
		})
	}
	pool.Wait()
	return results
}
