// Package carousel provides a circular navigator over an ordered collection.
//
// A Carousel is built once with Add and then browsed with Next and Previous.
// Navigation wraps at both ends and always exposes exactly one current item
// while the collection is non-empty.
package carousel

import (
	"errors"
	"sync"
)

// ErrEmpty is returned by Current, Next and Previous when no items have been added.
var ErrEmpty = errors.New("carousel: empty collection")

// Carousel holds items in insertion order together with a cursor.
// It is safe for concurrent use; items and cursor are guarded as a unit.
type Carousel[T any] struct {
	mu     sync.Mutex
	items  []T
	cursor int
}

// New creates a Carousel and adds the given items in order.
func New[T any](items ...T) *Carousel[T] {
	c := &Carousel[T]{}
	for _, item := range items {
		c.Add(item)
	}
	return c
}

// Add appends item. The first item becomes current; later additions leave
// the current item unchanged.
func (c *Carousel[T]) Add(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = append(c.items, item)
	if len(c.items) == 1 {
		c.cursor = 0
	}
}

// Current returns the item at the cursor.
func (c *Carousel[T]) Current() (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) == 0 {
		var zero T
		return zero, ErrEmpty
	}
	return c.items[c.cursor], nil
}

// Next advances the cursor, wrapping from the last item to the first.
func (c *Carousel[T]) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.items)
	if n == 0 {
		return ErrEmpty
	}
	c.cursor = (c.cursor + 1) % n
	return nil
}

// Previous retreats the cursor, wrapping from the first item to the last.
func (c *Carousel[T]) Previous() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.items)
	if n == 0 {
		return ErrEmpty
	}
	c.cursor = (c.cursor - 1 + n) % n
	return nil
}

// Len returns the number of items.
func (c *Carousel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Position reports the cursor. ok is false when the carousel is empty.
func (c *Carousel[T]) Position() (index int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) == 0 {
		return 0, false
	}
	return c.cursor, true
}

// Items returns a copy of the items in insertion order.
func (c *Carousel[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}
