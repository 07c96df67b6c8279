// Package taskgroup is a structured set of concurrently running tasks whose
// owner awaits every one of them and reads results in spawn order.
package taskgroup

import "sync"

// Handle is the join handle of one task.
type Handle[T any] struct {
	index  int
	done   chan struct{}
	result T
}

// Index is the task's spawn position, starting at 0.
func (h *Handle[T]) Index() int { return h.index }

// Done is closed when the task has returned.
func (h *Handle[T]) Done() <-chan struct{} { return h.done }

// Wait blocks until the task returns and yields its result.
func (h *Handle[T]) Wait() T {
	<-h.done
	return h.result
}

// Group owns the handles of every task started with Go. The zero value is
// ready to use. Go may be called concurrently with itself but not after Wait.
type Group[T any] struct {
	mu      sync.Mutex
	handles []*Handle[T]
}

// Go starts fn in a new goroutine and records its handle.
func (g *Group[T]) Go(fn func() T) *Handle[T] {
	g.mu.Lock()
	h := &Handle[T]{index: len(g.handles), done: make(chan struct{})}
	g.handles = append(g.handles, h)
	g.mu.Unlock()

	go func() {
		defer close(h.done)
		h.result = fn()
	}()
	return h
}

// Len returns the number of tasks started so far.
func (g *Group[T]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.handles)
}

// Handles returns a snapshot of the handles in spawn order.
func (g *Group[T]) Handles() []*Handle[T] {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*Handle[T](nil), g.handles...)
}

// Wait blocks until every task has returned and returns their results in
// spawn order, regardless of completion order.
func (g *Group[T]) Wait() []T {
	handles := g.Handles()
	results := make([]T, len(handles))
	for i, h := range handles {
		results[i] = h.Wait()
	}
	return results
}
