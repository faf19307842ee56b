package pool

// Resettable is implemented by values that can be cleared for reuse.
type Resettable interface {
	Reset()
}

// Poolable values are resettable and comparable, so the zero value can be
// told apart from a real one.
type Poolable interface {
	Resettable
	comparable
}

// Pool keeps up to capacity reusable values of type T. Unlike sync.Pool its
// contents survive garbage collection, which keeps response buffers warm.
type Pool[T Poolable] struct {
	items   chan T
	newItem func() T
}

// New creates a pool that builds fresh values with newItem when empty.
func New[T Poolable](capacity int, newItem func() T) *Pool[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Pool[T]{
		items:   make(chan T, capacity),
		newItem: newItem,
	}
}

// Get returns a pooled value, or a new one when the pool is empty.
func (p *Pool[T]) Get() T {
	select {
	case item := <-p.items:
		return item
	default:
		return p.newItem()
	}
}

// Put resets item and keeps it for reuse. Zero values and items that do not
// fit are dropped.
func (p *Pool[T]) Put(item T) {
	var zero T
	if item == zero {
		return
	}
	item.Reset()

	select {
	case p.items <- item:
	default:
	}
}

// Len reports how many values are waiting for reuse.
func (p *Pool[T]) Len() int {
	return len(p.items)
}
