// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package intmap

import "errors"

var (
	// ErrConcurrentModification is returned by an Iterator whose map has
	// been structurally modified since the iterator was created.
	ErrConcurrentModification = errors.New("intmap: map modified during iteration")
	// ErrNoSuchElement is returned by an Iterator that is not positioned on
	// an entry: either Advance has not been called yet or the iterator has
	// run past the last entry.
	ErrNoSuchElement = errors.New("intmap: no such element")
)

const (
	beforeFirst = -1
	exhausted   = -2
)

// Iterator walks the entries of a Map in slot order. It is created
// positioned before the first entry:
//
//	for it := m.Iterator(); it.HasNext(); {
//		if err := it.Advance(); err != nil {
//			return err
//		}
//		k, _ := it.Key()
//		v, _ := it.Value()
//		...
//	}
//
// An Iterator is fail-fast: inserting a new key, removing a key or clearing
// the map invalidates it and every subsequent call returns
// ErrConcurrentModification. Overwriting the value of an existing key does
// not.
type Iterator[V any] struct {
	m *Map[V]
	// referenceCount is the modification count of m when the iterator was
	// created.
	referenceCount uint64
	// current is the index of the entry the iterator is positioned on, or
	// beforeFirst or exhausted.
	current int
	// next is the index of the entry Advance will move to, or exhausted.
	next int
}

// Iterator returns an iterator over the entries of the map.
func (m *Map[V]) Iterator() *Iterator[V] {
	it := &Iterator[V]{
		m:              m,
		referenceCount: m.modCount,
		current:        beforeFirst,
		next:           beforeFirst,
	}
	// Look ahead to the first entry. On an empty map this leaves the
	// iterator exhausted, which HasNext reports.
	_ = it.Advance()
	return it
}

// HasNext returns true if a call to Advance will position the iterator on
// another entry.
func (it *Iterator[V]) HasNext() bool {
	return it.next >= 0
}

// Advance moves the iterator to the next entry.
func (it *Iterator[V]) Advance() error {
	if it.referenceCount != it.m.modCount {
		return ErrConcurrentModification
	}

	it.current = it.next
	if it.next != exhausted {
		states := it.m.states
		for i := it.next + 1; i < len(states); i++ {
			if states[i] == stateFull {
				it.next = i
				return nil
			}
		}
		it.next = exhausted
	}
	if it.current < 0 {
		return ErrNoSuchElement
	}
	return nil
}

// Key returns the key of the current entry.
func (it *Iterator[V]) Key() (int32, error) {
	if err := it.check(); err != nil {
		return 0, err
	}
	return it.m.keys[it.current], nil
}

// Value returns the value of the current entry.
func (it *Iterator[V]) Value() (V, error) {
	if err := it.check(); err != nil {
		var zero V
		return zero, err
	}
	return it.m.values[it.current], nil
}

func (it *Iterator[V]) check() error {
	if it.referenceCount != it.m.modCount {
		return ErrConcurrentModification
	}
	if it.current < 0 {
		return ErrNoSuchElement
	}
	return nil
}

// All calls yield sequentially for each key and value present in the map. If
// yield returns false, All stops the iteration. The signature allows ranging
// over the map directly:
//
//	for k, v := range m.All {
//	  fmt.Printf("%d: %v\n", k, v)
//	}
//
// The values of existing keys may be overwritten during iteration. Any other
// modification of the map from within yield causes All to panic with
// ErrConcurrentModification when it next advances.
func (m *Map[V]) All(yield func(key int32, value V) bool) {
	for it := m.Iterator(); it.HasNext(); {
		if err := it.Advance(); err != nil {
			panic(err)
		}
		if !yield(m.keys[it.current], m.values[it.current]) {
			return
		}
	}
}
