package concurrent

import (
	"sync"
)

type JobFunc[T any, G any] func(job T) G

type indexed[T any] struct {
	id  int
	val T
}

// WorkerPool runs a fixed number of workers over a job queue. Results arrive in
// completion order; use Map when the input order matters.
type WorkerPool[T any, G any] struct {
	numWorkers int
	jobQueue   chan indexed[T]
	results    chan indexed[G]
	wg         sync.WaitGroup
	nextID     int
}

func NewWorkerPool[T any, G any](numWorkers, jobQueueSize int) *WorkerPool[T, G] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &WorkerPool[T, G]{
		numWorkers: numWorkers,
		jobQueue:   make(chan indexed[T], jobQueueSize),
		results:    make(chan indexed[G], jobQueueSize),
	}
}

func (wp *WorkerPool[T, G]) worker(jobFunc JobFunc[T, G]) {
	defer wp.wg.Done()
	for job := range wp.jobQueue {
		wp.results <- indexed[G]{id: job.id, val: jobFunc(job.val)}
	}
}

func (wp *WorkerPool[T, G]) Start(jobFunc JobFunc[T, G]) {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(jobFunc)
	}
}

// AddJob enqueues job and returns its sequence number. Not safe for concurrent producers.
func (wp *WorkerPool[T, G]) AddJob(job T) int {
	id := wp.nextID
	wp.nextID++
	wp.jobQueue <- indexed[T]{id: id, val: job}
	return id
}

// Close signals that no more jobs will be added.
func (wp *WorkerPool[T, G]) Close() {
	close(wp.jobQueue)
}

// Wait blocks until every worker is done, then closes the results channel.
func (wp *WorkerPool[T, G]) Wait() {
	wp.wg.Wait()
	close(wp.results)
}

// CollectResults streams results as they complete.
func (wp *WorkerPool[T, G]) CollectResults() <-chan G {
	out := make(chan G, cap(wp.results))
	go func() {
		defer close(out)
		for res := range wp.results {
			out <- res.val
		}
	}()
	return out
}

// Map runs jobFunc over jobs with numWorkers workers and returns the results in the
// order of jobs.
func Map[T any, G any](numWorkers int, jobs []T, jobFunc JobFunc[T, G]) []G {
	wp := NewWorkerPool[T, G](numWorkers, numWorkers)
	wp.Start(jobFunc)

	go func() {
		for _, job := range jobs {
			wp.AddJob(job)
		}
		wp.Close()
	}()
	go wp.Wait()

	out := make([]G, len(jobs))
	for res := range wp.results {
		out[res.id] = res.val
	}
	return out
}
