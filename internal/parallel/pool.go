// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package parallel runs CPU-side volume work, such as range scans and
// texel conversion, across a fixed set of goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a set of workers, each with its own queue. An idle worker takes
// work from the other queues before blocking on its own.
//
// Pool is safe for concurrent use.
type Pool struct {
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewPool starts a pool of n workers; n <= 0 means GOMAXPROCS.
func NewPool(n int) *Pool {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	depth := max(n*4, 8)
	p := &Pool{
		queues: make([]chan func(), n),
		done:   make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = make(chan func(), depth)
	}
	p.running.Store(true)
	p.wg.Add(n)
	for i := range n {
		go p.loop(i)
	}
	return p
}

var (
	sharedOnce sync.Once
	shared     *Pool
)

// Shared returns the process-wide pool, started on first use.
func Shared() *Pool {
	sharedOnce.Do(func() { shared = NewPool(0) })
	return shared
}

func (p *Pool) loop(id int) {
	defer p.wg.Done()
	own := p.queues[id]
	for {
		select {
		case <-p.done:
			drain(own)
			return
		case fn := <-own:
			fn()
			continue
		default:
		}
		if fn := p.take(id); fn != nil {
			fn()
			continue
		}
		select {
		case <-p.done:
			drain(own)
			return
		case fn := <-own:
			fn()
		}
	}
}

func drain(q chan func()) {
	for {
		select {
		case fn := <-q:
			fn()
		default:
			return
		}
	}
}

// take returns queued work of another worker, or nil.
func (p *Pool) take(id int) func() {
	for i, q := range p.queues {
		if i == id {
			continue
		}
		select {
		case fn := <-q:
			return fn
		default:
		}
	}
	return nil
}

// Run executes every task and returns when all have finished. After
// Close the tasks run on the calling goroutine.
func (p *Pool) Run(tasks []func()) {
	if len(tasks) == 0 {
		return
	}
	if !p.running.Load() || len(tasks) == 1 {
		for _, fn := range tasks {
			fn()
		}
		return
	}
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, fn := range tasks {
		task := func() {
			defer wg.Done()
			fn()
		}
		select {
		case p.queues[i%len(p.queues)] <- task:
		case <-p.done:
			task()
		}
	}
	wg.Wait()
}

// For splits [0, n) into ranges of at least grain items and calls fn on
// each range in parallel. Ranges are disjoint and cover [0, n) in order
// of their index.
func (p *Pool) For(n, grain int, fn func(part, start, end int)) int {
	if n <= 0 {
		return 0
	}
	grain = max(grain, 1)
	parts := min(p.Workers(), (n+grain-1)/grain)
	parts = max(parts, 1)
	size := (n + parts - 1) / parts
	tasks := make([]func(), 0, parts)
	for part := 0; part*size < n; part++ {
		start, end := part*size, min((part+1)*size, n)
		tasks = append(tasks, func() { fn(part, start, end) })
	}
	p.Run(tasks)
	return len(tasks)
}

// Close waits for queued work and stops the workers. It is safe to call
// more than once.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers.
func (p *Pool) Workers() int { return len(p.queues) }

// Running reports whether the pool still dispatches to its workers.
func (p *Pool) Running() bool { return p.running.Load() }
