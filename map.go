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

// Package intmap implements an open-addressed hash map from int32 keys to
// values of any type, intended for numeric code that maps indices to
// primitive values (sparse vectors, sparse matrix rows) without boxing keys
// or allocating per entry.
//
// # Layout
//
// A Map stores its entries in three parallel arrays of the same length: the
// keys, a state per slot (free, full or removed) and the values. The length
// is always a power of two so that a hash can be reduced to a slot index with
// a bitwise & of the capacity minus one. The map holds at most one entry per
// two slots (a load factor of 0.5) and doubles its capacity when an insertion
// would exceed that.
//
// Because the state of a slot is stored separately from its key, 0 is an
// ordinary key. A slot's key is zeroed when it is freed or removed but is
// never interpreted without looking at the state.
//
// # Probing
//
// A key's home slot is hash(key) & mask where hash folds the high bits of the
// key into the low bits with a sequence of xor-shifts. On collision the next
// slot is chosen by
//
//	j = 5*j + perturb + 1
//	perturb >>= 5
//
// where perturb starts out as the hash itself. The perturbation spreads the
// probe sequences of keys which share a home slot across the table. Once it
// has been shifted to zero the sequence visits every slot of the table, so a
// lookup for an absent key always terminates at a free slot.
//
// # Deletion
//
// Deletion leaves a tombstone (a removed slot) behind: lookups skip over it
// while insertions reuse the first tombstone on a key's probe sequence once
// they have proven the key is not present further along. Tombstones are
// dropped whenever the table is rebuilt. The table is rebuilt at twice its
// capacity when the load factor is exceeded, and at its current capacity
// when tombstones have consumed so many free slots that fewer than a quarter
// remain.
//
// # Iteration
//
// Iterators are fail-fast: every insertion of a new key, removal, rebuild or
// clear bumps a modification count, and an Iterator that observes a count
// different from the one it was created with reports
// ErrConcurrentModification instead of continuing. Overwriting the value of
// an existing key is not a structural modification.
//
// A Map is NOT goroutine-safe.
package intmap

import (
	"fmt"
	"math"
)

const (
	debug = false

	// DefaultExpectedSize is the number of entries a Map created with
	// NewDefault is sized for.
	DefaultExpectedSize = 16
)

// Map is an unordered map from int32 keys to values of type V with Put, Get,
// Remove and iteration operations. Lookups of absent keys return a
// configurable missing value rather than a second result.
//
// A Map is NOT goroutine-safe.
type Map[V any] struct {
	table
	// values is capacity in length and indexed identically to keys.
	values []V
	// missing is returned for keys that are not present.
	missing V
	// The allocator to use for the keys, states and values slices.
	allocator Allocator[V]
}

// New constructs a new Map sized to hold expectedSize entries without
// growing. If expectedSize is 0 the map starts out with a single slot and
// will grow on the first insert.
func New[V any](expectedSize int, options ...option[V]) *Map[V] {
	m := &Map[V]{}
	m.Init(expectedSize, options...)
	return m
}

// NewDefault constructs a new Map sized for DefaultExpectedSize entries.
func NewDefault[V any](options ...option[V]) *Map[V] {
	return New[V](DefaultExpectedSize, options...)
}

// NewFloat64 constructs a new Map of float64 values whose missing value is
// NaN, so that an absent key can be told apart from a stored zero. The
// missing value can still be overridden with WithMissingValue.
func NewFloat64(expectedSize int, options ...option[float64]) *Map[float64] {
	return New[float64](expectedSize,
		append([]option[float64]{WithMissingValue(math.NaN())}, options...)...)
}

// Init initializes a Map with the specified expected size and options. Init
// is equivalent to New but can be used to reuse a Map.
func (m *Map[V]) Init(expectedSize int, options ...option[V]) {
	*m = Map[V]{
		table: table{
			hash: hashOf,
		},
		allocator: defaultAllocator[V]{},
	}

	for _, op := range options {
		op.apply(m)
	}

	m.alloc(capacityFor(expectedSize))
	m.checkInvariants()
}

// Clone returns a copy of the map. The copy has the same capacity, missing
// value, hash function and allocator as m. Values are copied by assignment so
// a map of pointers shares the pointed-to values with its clone.
func (m *Map[V]) Clone() *Map[V] {
	c := &Map[V]{
		table: table{
			hash:    m.hash,
			size:    m.size,
			removed: m.removed,
		},
		missing:   m.missing,
		allocator: m.allocator,
	}
	c.alloc(m.capacity())
	copy(c.keys, m.keys)
	copy(c.states, m.states)
	copy(c.values, m.values)
	c.checkInvariants()
	return c
}

// Close closes the map, releasing any memory back to its configured
// allocator. It is unnecessary to close a map using the default allocator. It
// is invalid to use a Map after it has been closed, though Close itself is
// idempotent.
func (m *Map[V]) Close() {
	if m.allocator != nil {
		m.free(m.keys, m.states, m.values)
	}
	m.keys = nil
	m.states = nil
	m.values = nil
	m.size = 0
	m.removed = 0
	m.allocator = nil
}

// Len returns the number of entries in the map.
func (m *Map[V]) Len() int {
	return m.size
}

// MissingValue returns the value returned for keys that are not present.
func (m *Map[V]) MissingValue() V {
	return m.missing
}

// ContainsKey returns true if the map holds an entry for key.
func (m *Map[V]) ContainsKey(key int32) bool {
	return m.containsKey(key)
}

// Get retrieves the value from the map for the specified key, returning the
// missing value if the key is not present.
func (m *Map[V]) Get(key int32) V {
	i := m.locate(key)
	if i < 0 {
		return m.missing
	}
	return m.values[i]
}

// Put inserts an entry into the map, overwriting an existing value if an
// entry with the same key already exists. The previous value is returned, or
// the missing value if the key was not present.
func (m *Map[V]) Put(key int32, value V) V {
	previous := m.missing
	ins := m.put(key, m.rehash)
	if ins.existing {
		previous = m.values[ins.index]
	}
	m.values[ins.index] = value
	m.checkInvariants()
	return previous
}

// Remove deletes the entry corresponding to the specified key from the map
// and returns its value. It is a noop to remove a non-existent key, in which
// case the missing value is returned.
func (m *Map[V]) Remove(key int32) V {
	i := m.locate(key)
	if i < 0 {
		return m.missing
	}
	m.remove(i)
	value := m.values[i]
	var zero V
	m.values[i] = zero
	m.checkInvariants()
	return value
}

// Clear deletes all entries from the map resulting in an empty map. The
// capacity of the map is retained.
func (m *Map[V]) Clear() {
	m.clear()
	clear(m.values)
	m.checkInvariants()
}

// rehash rebuilds the table, returning the new index of the entry at track.
// The capacity is doubled if the load factor has been exceeded. Otherwise
// the table is being rebuilt to reclaim tombstones and keeps its capacity.
func (m *Map[V]) rehash(track int) int {
	newCapacity := m.capacity()
	if m.overloaded() {
		newCapacity *= resizeMultiplier
	}
	return m.resize(newCapacity, track)
}

// resize allocates fresh keys, states and values of newCapacity slots and
// reinserts every entry, moving each value in lockstep with its key. The old
// arrays are released to the allocator.
func (m *Map[V]) resize(newCapacity int, track int) int {
	if debug {
		fmt.Printf("resize: capacity=%d->%d size=%d removed=%d\n",
			m.capacity(), newCapacity, m.size, m.removed)
	}

	oldKeys, oldStates, oldValues := m.keys, m.states, m.values
	keys := m.allocator.AllocKeys(newCapacity)
	states := unsafeConvertSlice[slotState](m.allocator.AllocStates(newCapacity))
	values := m.allocator.AllocValues(newCapacity)

	track = m.rehashInto(keys, states, track, func(src, dst int) {
		values[dst] = oldValues[src]
	})
	m.values = values

	m.free(oldKeys, oldStates, oldValues)
	return track
}

func (m *Map[V]) alloc(capacity int) {
	m.keys = m.allocator.AllocKeys(capacity)
	m.states = unsafeConvertSlice[slotState](m.allocator.AllocStates(capacity))
	m.values = m.allocator.AllocValues(capacity)
	m.mask = uint32(capacity - 1)
}

func (m *Map[V]) free(keys []int32, states []slotState, values []V) {
	if len(states) == 0 {
		return
	}
	m.allocator.FreeKeys(keys)
	m.allocator.FreeStates(unsafeConvertSlice[uint8](states))
	m.allocator.FreeValues(values)
}

func (m *Map[V]) checkInvariants() {
	if invariants {
		m.table.checkInvariants()
		if len(m.values) != m.capacity() {
			panic(fmt.Sprintf("invariant failed: %d values, but capacity is %d\n%s",
				len(m.values), m.capacity(), m.debugString()))
		}
	}
}
