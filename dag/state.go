package dag

import "fmt"

// Slot identifies one declared output of a node.
type Slot struct {
	Node   string
	Output string
}

func (s Slot) String() string { return s.Node + "." + s.Output }

// Cache maps slots to the values produced for them during one emission
// pass. Entries are written once, in execution order. A Cache belongs to a
// single compile and is not safe for concurrent use.
type Cache[T any] struct {
	data  map[Slot]T
	order []Slot
}

// NewCache creates a new empty Cache.
func NewCache[T any]() *Cache[T] {
	return &Cache[T]{data: make(map[Slot]T)}
}

// Get retrieves a value by slot. Returns false if nothing was produced yet.
func (c *Cache[T]) Get(slot Slot) (T, bool) {
	v, ok := c.data[slot]
	return v, ok
}

// Put stores the value produced for slot. Writing a slot twice is an error.
func (c *Cache[T]) Put(slot Slot, value T) error {
	if _, ok := c.data[slot]; ok {
		return fmt.Errorf("dag: slot %s already produced", slot)
	}
	c.data[slot] = value
	c.order = append(c.order, slot)
	return nil
}

// Slots returns the produced slots in the order they were written.
func (c *Cache[T]) Slots() []Slot {
	return append([]Slot(nil), c.order...)
}

// Len returns the number of produced slots.
func (c *Cache[T]) Len() int { return len(c.order) }

// Reset empties the cache for reuse.
func (c *Cache[T]) Reset() {
	clear(c.data)
	c.order = c.order[:0]
}
