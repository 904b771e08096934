// Package event provides a typed publish/subscribe channel keyed by a closed set of kinds.
package event

// Bus dispatches events of type E to handlers registered for a kind K.
// It is meant for a single goroutine; handlers run synchronously in registration order.
type Bus[K comparable, E any] struct {
	handlers map[K][]*handler[E]
}

type handler[E any] struct {
	fn func(E)
}

// On registers fn for kind and returns a function that removes it.
func (bus *Bus[K, E]) On(kind K, fn func(E)) (off func()) {

	if bus.handlers == nil {
		bus.handlers = map[K][]*handler[E]{}
	}

	hdl := &handler[E]{fn: fn}
	bus.handlers[kind] = append(bus.handlers[kind], hdl)

	off = func() {
		hdls := bus.handlers[kind]
		for i, other := range hdls {
			if other == hdl {
				bus.handlers[kind] = append(hdls[:i:i], hdls[i+1:]...)
				return
			}
		}
	}
	return
}

// Emit calls each handler registered for kind.
func (bus *Bus[K, E]) Emit(kind K, evt E) {

	// copy, so handlers may unsubscribe while being called
	hdls := append([]*handler[E](nil), bus.handlers[kind]...)
	for _, hdl := range hdls {
		hdl.fn(evt)
	}
}

// Count is the number of handlers registered for kind.
func (bus *Bus[K, E]) Count(kind K) int {
	return len(bus.handlers[kind])
}
