package carousel

import (
	"errors"
	"testing"
)

func positionOf[T any](t *testing.T, c *Carousel[T]) int {
	t.Helper()
	idx, ok := c.Position()
	if !ok {
		t.Fatalf("Position() ok = false, want true")
	}
	return idx
}

func currentOf[T any](t *testing.T, c *Carousel[T]) T {
	t.Helper()
	item, err := c.Current()
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	return item
}

func TestEmptyCarousel(t *testing.T) {
	c := New[string]()

	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
	if _, ok := c.Position(); ok {
		t.Errorf("Position() ok = true, want false")
	}
	if got, err := c.Current(); !errors.Is(err, ErrEmpty) || got != "" {
		t.Errorf("Current() = (%q, %v), want (\"\", ErrEmpty)", got, err)
	}
	if err := c.Next(); !errors.Is(err, ErrEmpty) {
		t.Errorf("Next() error = %v, want ErrEmpty", err)
	}
	if err := c.Previous(); !errors.Is(err, ErrEmpty) {
		t.Errorf("Previous() error = %v, want ErrEmpty", err)
	}
	if items := c.Items(); len(items) != 0 {
		t.Errorf("Items() = %v, want empty", items)
	}
}

func TestForwardWrap(t *testing.T) {
	c := New("R1", "R2", "R3")

	want := []string{"R1", "R2", "R3", "R1"}
	for i, w := range want {
		if got := currentOf(t, c); got != w {
			t.Fatalf("step %d: Current() = %q, want %q", i, got, w)
		}
		if err := c.Next(); err != nil {
			t.Fatalf("Next() error = %v", err)
		}
	}
}

func TestBackwardWrap(t *testing.T) {
	c := New("R1", "R2")

	if err := c.Previous(); err != nil {
		t.Fatalf("Previous() error = %v", err)
	}
	if got := currentOf(t, c); got != "R2" {
		t.Errorf("Current() = %q, want R2", got)
	}
}

func TestSingleItemSelfLoop(t *testing.T) {
	c := New("R1")

	if err := c.Previous(); err != nil {
		t.Fatalf("Previous() error = %v", err)
	}
	if got := currentOf(t, c); got != "R1" {
		t.Errorf("after Previous, Current() = %q, want R1", got)
	}
	if err := c.Next(); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if got := positionOf(t, c); got != 0 {
		t.Errorf("after Next, Position() = %d, want 0", got)
	}
}

func TestWrapFormula(t *testing.T) {
	for n := 1; n <= 6; n++ {
		items := make([]int, n)
		for i := range items {
			items[i] = i * 10
		}
		c := New(items...)

		for start := 0; start < n; start++ {
			// Walk to start.
			for positionOf(t, c) != start {
				_ = c.Next()
			}

			_ = c.Next()
			if got, want := positionOf(t, c), (start+1)%n; got != want {
				t.Errorf("n=%d start=%d: Next() position = %d, want %d", n, start, got, want)
			}
			_ = c.Previous()
			if got := positionOf(t, c); got != start {
				t.Errorf("n=%d start=%d: Next+Previous position = %d, want %d", n, start, got, start)
			}

			_ = c.Previous()
			if got, want := positionOf(t, c), (start-1+n)%n; got != want {
				t.Errorf("n=%d start=%d: Previous() position = %d, want %d", n, start, got, want)
			}
			_ = c.Next()
			if got := positionOf(t, c); got != start {
				t.Errorf("n=%d start=%d: Previous+Next position = %d, want %d", n, start, got, start)
			}
		}
	}
}

func TestOrderPreservedAcrossFullCycle(t *testing.T) {
	inserted := []string{"b", "a", "c", "a"}
	c := New[string]()
	for _, s := range inserted {
		c.Add(s)
	}

	for i := 0; i < len(inserted); i++ {
		if got := currentOf(t, c); got != inserted[i] {
			t.Errorf("visit %d = %q, want %q", i, got, inserted[i])
		}
		_ = c.Next()
	}
	if got := currentOf(t, c); got != inserted[0] {
		t.Errorf("after full cycle Current() = %q, want %q", got, inserted[0])
	}

	items := c.Items()
	for i := range inserted {
		if items[i] != inserted[i] {
			t.Errorf("Items()[%d] = %q, want %q", i, items[i], inserted[i])
		}
	}
}

func TestAddKeepsCurrentItem(t *testing.T) {
	c := New[string]()
	c.Add("first")
	if got := positionOf(t, c); got != 0 {
		t.Fatalf("Position() after first Add = %d, want 0", got)
	}

	c.Add("second")
	c.Add("third")
	_ = c.Next()
	before := currentOf(t, c)

	c.Add("fourth")
	if got := currentOf(t, c); got != before {
		t.Errorf("Current() after Add = %q, want %q", got, before)
	}
	if c.Len() != 4 {
		t.Errorf("Len() = %d, want 4", c.Len())
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	c := New("x", "y")
	items := c.Items()
	items[0] = "mutated"

	if got := currentOf(t, c); got != "x" {
		t.Errorf("Current() = %q after mutating Items() copy, want x", got)
	}
}
