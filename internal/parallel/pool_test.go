package parallel

import (
	"runtime"
	"sync/atomic"
	"testing"
)

func TestNewPoolWorkers(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"explicit", 3, 3},
		{"zero", 0, runtime.GOMAXPROCS(0)},
		{"negative", -2, runtime.GOMAXPROCS(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPool(tt.n)
			defer p.Close()
			if got := p.Workers(); got != tt.want {
				t.Errorf("Workers() = %d, want %d", got, tt.want)
			}
			if !p.Running() {
				t.Error("Running() = false after NewPool")
			}
		})
	}
}

func TestPoolRun(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	var n atomic.Int64
	tasks := make([]func(), 100)
	for i := range tasks {
		tasks[i] = func() { n.Add(1) }
	}
	p.Run(tasks)
	if got := n.Load(); got != 100 {
		t.Errorf("ran %d tasks, want 100", got)
	}
}

func TestPoolRunAfterClose(t *testing.T) {
	p := NewPool(2)
	p.Close()
	p.Close()
	if p.Running() {
		t.Error("Running() = true after Close")
	}

	var n atomic.Int64
	p.Run([]func(){func() { n.Add(1) }, func() { n.Add(1) }})
	if got := n.Load(); got != 2 {
		t.Errorf("ran %d tasks after Close, want 2", got)
	}
}

func TestPoolFor(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	tests := []struct {
		n, grain  int
		wantParts int
	}{
		{0, 10, 0},
		{5, 10, 1},
		{100, 10, 4},
		{100, 50, 2},
		{7, 1, 4},
	}
	for _, tt := range tests {
		seen := make([]int32, tt.n)
		parts := p.For(tt.n, tt.grain, func(_, start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		if parts != tt.wantParts {
			t.Errorf("For(%d, %d) parts = %d, want %d", tt.n, tt.grain, parts, tt.wantParts)
		}
		for i, c := range seen {
			if c != 1 {
				t.Errorf("For(%d, %d) visited item %d %d times", tt.n, tt.grain, i, c)
			}
		}
	}
}

func TestShared(t *testing.T) {
	if Shared() != Shared() {
		t.Error("Shared() returned different pools")
	}
}
