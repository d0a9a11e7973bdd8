package writeback

import "reflect"

// entry is a single-flight cached value. It is created pending by the first reader of an
// uncached key and resolved exactly once; later readers wait on done.
type entry struct {
	done  chan struct{}
	value any
	typ   reflect.Type
	err   error
	// fetched marks values read from the backend, as opposed to values assigned in this session.
	fetched bool
}

func newPendingEntry() *entry {
	return &entry{done: make(chan struct{})}
}

func newResolvedEntry(value any, typ reflect.Type) *entry {
	e := &entry{done: make(chan struct{}), value: value, typ: typ}
	close(e.done)
	return e
}

func (e *entry) resolve(value any, typ reflect.Type, err error) {
	e.value, e.typ, e.err = value, typ, err
	close(e.done)
}

// resolved reports whether the entry holds a successfully fetched or assigned value.
func (e *entry) resolved() bool {
	select {
	case <-e.done:
		return e.err == nil
	default:
		return false
	}
}
