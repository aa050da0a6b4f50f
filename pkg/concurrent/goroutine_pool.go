package concurrent

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrScheduleTimeout = errors.New("schedule error: timed out")
	ErrPoolClosed      = errors.New("schedule error: pool is closed")
)

// GoroutinePool reuses at most size goroutines for short tasks. Tasks that do not find
// an idle goroutine wait in a queue of the given length.
type GoroutinePool struct {
	sem  chan struct{}
	work chan func()

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewGoroutinePool(size, queue int) *GoroutinePool {
	if size < 1 {
		size = 1
	}
	return &GoroutinePool{
		sem:  make(chan struct{}, size),
		work: make(chan func(), queue),
		done: make(chan struct{}),
	}
}

// Spawn starts n idle goroutines ahead of time.
func (p *GoroutinePool) Spawn(n int) {
	for i := 0; i < n; i++ {
		select {
		case p.sem <- struct{}{}:
			p.wg.Add(1)
			go p.worker(nil)
		default:
			return
		}
	}
}

// Schedule blocks until task is picked by a goroutine or queued.
func (p *GoroutinePool) Schedule(task func()) error {
	return p.schedule(task, nil)
}

// ScheduleTimeout is Schedule giving up after timeout with ErrScheduleTimeout.
func (p *GoroutinePool) ScheduleTimeout(timeout time.Duration, task func()) error {
	t := time.NewTimer(timeout)
	defer t.Stop()
	return p.schedule(task, t.C)
}

func (p *GoroutinePool) schedule(task func(), timeout <-chan time.Time) error {
	select {
	case <-p.done:
		return ErrPoolClosed
	default:
	}

	select {
	case <-p.done:
		return ErrPoolClosed
	case <-timeout:
		return ErrScheduleTimeout
	case p.work <- task:
		return nil
	case p.sem <- struct{}{}:
		p.wg.Add(1)
		go p.worker(task)
		return nil
	}
}

func (p *GoroutinePool) worker(task func()) {
	defer func() {
		<-p.sem
		p.wg.Done()
	}()
	if task != nil {
		task()
	}
	for {
		select {
		case <-p.done:
			return
		case task := <-p.work:
			task()
		}
	}
}

// Close stops the idle goroutines and waits for the running tasks. Queued tasks that
// were not started are dropped.
func (p *GoroutinePool) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}
