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

import (
	"fmt"
	"math"
	"math/bits"
	"strings"
	"unsafe"
)

const (
	// loadFactor is the maximum ratio of live entries to slots.
	loadFactor = 0.5
	// resizeMultiplier is the factor by which the table grows.
	resizeMultiplier = 2
)

// Each slot in the table has a state. A removed slot is a tombstone: it
// never matches a lookup, but probing continues past it because the key
// being looked up may have been inserted further along the sequence while
// the slot was full.
type slotState uint8

const (
	stateFree slotState = iota
	stateFull
	stateRemoved
)

func (s slotState) String() string {
	switch s {
	case stateFree:
		return "free"
	case stateFull:
		return "full"
	case stateRemoved:
		return "removed"
	}
	return fmt.Sprintf("slotState(%d)", uint8(s))
}

// insertion is the result of resolving where a key should be written.
// Either index holds the key already (existing) or it is a free or removed
// slot the key can be written to.
type insertion struct {
	index    int
	existing bool
}

// table holds the keys of a map in an open-addressed array. It knows nothing
// of values: the owner of a table keeps a values array indexed identically
// and is told about every relocation when the table is rehashed.
type table struct {
	hash func(key int32) uint32
	// keys and states are capacity in length. keys[i] is only meaningful when
	// states[i] == stateFull, and is zero otherwise.
	keys   []int32
	states []slotState
	// The total number of slots minus one. The capacity is always a power of
	// two so the mask computes i%capacity with a bitwise &.
	mask uint32
	// The number of full slots (i.e. the number of elements in the map).
	size int
	// The number of tombstones.
	removed int
	// modCount is bumped on every structural modification and compared by
	// iterators to detect modification during iteration.
	modCount uint64
}

// capacityFor returns the smallest power of two that holds expectedSize
// entries without exceeding the load factor. A capacity of zero would leave
// the mask undefined so the minimum is 1.
func capacityFor(expectedSize int) int {
	if expectedSize <= 0 {
		return 1
	}
	c := int(math.Ceil(float64(expectedSize) / loadFactor))
	return 1 << bits.Len(uint(c-1))
}

func (t *table) capacity() int {
	return len(t.states)
}

// overloaded returns true if the number of entries exceeds the load factor.
func (t *table) overloaded() bool {
	return float64(t.size) > float64(t.capacity())*loadFactor
}

// freeSlots returns the number of slots that are neither full nor removed.
func (t *table) freeSlots() int {
	return t.capacity() - t.size - t.removed
}

// needsRehash returns true if the table must be rebuilt before the next
// operation. Besides the load factor we require a quarter of the slots to be
// free: a table whose free slots have all been turned into tombstones would
// never terminate a probe for an absent key.
func (t *table) needsRehash() bool {
	return t.overloaded() || t.freeSlots()*4 < t.capacity()
}

// locate returns the index of the slot holding key, or -1 if key is not
// present.
func (t *table) locate(key int32) int {
	seq := makeProbeSeq(t.hash(key), t.mask)
	if debug {
		fmt.Printf("locate(%d): %s\n", key, seq)
	}

	for ; ; seq = seq.next() {
		switch t.states[seq.offset] {
		case stateFree:
			// Insertion always fills the first free or matching slot along
			// the probe sequence, so a free slot proves the key is absent.
			return -1
		case stateFull:
			if t.keys[seq.offset] == key {
				return int(seq.offset)
			}
		}
		if debug {
			fmt.Printf("locate(skipping): offset=%d state=%s\n",
				seq.offset, t.states[seq.offset])
		}
	}
}

func (t *table) containsKey(key int32) bool {
	return t.locate(key) >= 0
}

// findInsertion resolves the slot in keys/states at which key should be
// inserted. If key is already present the returned insertion is marked
// existing. Otherwise the returned slot is the first tombstone on the probe
// sequence if there is one, and the first free slot if there is not.
func (t *table) findInsertion(keys []int32, states []slotState, mask uint32, key int32) insertion {
	seq := makeProbeSeq(t.hash(key), mask)

	// The common case: the home slot is free.
	switch states[seq.offset] {
	case stateFree:
		return insertion{index: int(seq.offset)}
	case stateFull:
		if keys[seq.offset] == key {
			return insertion{index: int(seq.offset), existing: true}
		}
	}

	// Walk the chain of full slots.
	for states[seq.offset] == stateFull {
		if keys[seq.offset] == key {
			return insertion{index: int(seq.offset), existing: true}
		}
		seq = seq.next()
	}
	if states[seq.offset] == stateFree {
		return insertion{index: int(seq.offset)}
	}

	// The chain ended on a tombstone. Reuse it unless key is found further
	// along the sequence, which we only know once we reach a free slot.
	firstRemoved := int(seq.offset)
	for {
		seq = seq.next()
		switch states[seq.offset] {
		case stateFree:
			return insertion{index: firstRemoved}
		case stateFull:
			if keys[seq.offset] == key {
				return insertion{index: int(seq.offset), existing: true}
			}
		}
	}
}

// put writes key into the table. If key was not already present the size
// and modification count are bumped and, if the table needs to be rebuilt,
// rehash is called with the index key was written to. rehash must return the
// index of that key in the rebuilt table. The returned insertion holds the
// final index of key.
func (t *table) put(key int32, rehash func(track int) int) insertion {
	ins := t.findInsertion(t.keys, t.states, t.mask, key)
	if ins.existing {
		// Overwriting a value is not a structural modification.
		return ins
	}

	i := ins.index
	if t.states[i] == stateRemoved {
		t.removed--
	}
	t.keys[i] = key
	t.states[i] = stateFull
	t.size++
	t.modCount++
	if debug {
		fmt.Printf("put(%d): index=%d size=%d removed=%d\n", key, i, t.size, t.removed)
	}

	if t.needsRehash() {
		ins.index = rehash(i)
	}
	return ins
}

// remove turns the full slot at index into a tombstone.
func (t *table) remove(index int) {
	if debug {
		fmt.Printf("remove(%d): index=%d size=%d\n", t.keys[index], index, t.size-1)
	}
	t.keys[index] = 0
	t.states[index] = stateRemoved
	t.size--
	t.removed++
	t.modCount++
}

// clear marks every slot free without changing the capacity.
func (t *table) clear() {
	clear(t.keys)
	clear(t.states)
	t.size = 0
	t.removed = 0
	t.modCount++
}

// rehashInto reinserts every full slot into keys/states, which must be
// zeroed and a power of two in length, and installs them as the table's
// arrays. A key's position depends on the mask so each key is inserted from
// scratch rather than copied. move is called with the old and new index of
// every entry. Tombstones are dropped. The new index of the entry at track
// is returned, or -1 if track is not a full slot.
func (t *table) rehashInto(
	keys []int32, states []slotState, track int, move func(src, dst int),
) int {
	mask := uint32(len(states) - 1)
	newTrack := -1
	for i, s := range t.states {
		if s != stateFull {
			continue
		}
		key := t.keys[i]
		dst := t.findInsertion(keys, states, mask, key).index
		keys[dst] = key
		states[dst] = stateFull
		move(i, dst)
		if i == track {
			newTrack = dst
		}
	}

	if debug {
		fmt.Printf("rehash: capacity=%d->%d size=%d dropped=%d\n",
			t.capacity(), len(states), t.size, t.removed)
	}

	t.keys = keys
	t.states = states
	t.mask = mask
	t.removed = 0
	t.modCount++
	return newTrack
}

func (t *table) checkInvariants() {
	if invariants {
		capacity := t.capacity()
		if capacity == 0 || capacity&(capacity-1) != 0 {
			panic(fmt.Sprintf("invariant failed: capacity %d is not a power of two", capacity))
		}
		if uint32(capacity-1) != t.mask {
			panic(fmt.Sprintf("invariant failed: mask %d does not match capacity %d", t.mask, capacity))
		}
		if len(t.keys) != capacity {
			panic(fmt.Sprintf("invariant failed: %d keys, but capacity is %d", len(t.keys), capacity))
		}

		// For every full slot, verify we can find the key by probing.
		var used, removed int
		for i, s := range t.states {
			switch s {
			case stateFull:
				if j := t.locate(t.keys[i]); j != i {
					panic(fmt.Sprintf("invariant failed: slot(%d): %d located at %d [hash=%08x]\n%s",
						i, t.keys[i], j, t.hash(t.keys[i]), t.debugString()))
				}
				used++
			case stateRemoved:
				removed++
				fallthrough
			case stateFree:
				if t.keys[i] != 0 {
					panic(fmt.Sprintf("invariant failed: slot(%d): %s slot holds key %d\n%s",
						i, s, t.keys[i], t.debugString()))
				}
			default:
				panic(fmt.Sprintf("invariant failed: slot(%d): unexpected %s", i, s))
			}
		}

		if used != t.size {
			panic(fmt.Sprintf("invariant failed: found %d full slots, but size is %d\n%s",
				used, t.size, t.debugString()))
		}
		if removed != t.removed {
			panic(fmt.Sprintf("invariant failed: found %d removed slots, but removed count is %d\n%s",
				removed, t.removed, t.debugString()))
		}
		if t.needsRehash() {
			panic(fmt.Sprintf("invariant failed: table needs rehash\n%s", t.debugString()))
		}
	}
}

func (t *table) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "capacity=%d  size=%d  removed=%d\n", t.capacity(), t.size, t.removed)
	for i, s := range t.states {
		switch s {
		case stateFull:
			k := t.keys[i]
			fmt.Fprintf(&buf, "  %4d: %d [home=%d]\n", i, k, t.hash(k)&t.mask)
		default:
			fmt.Fprintf(&buf, "  %4d: %s\n", i, s)
		}
	}
	return buf.String()
}

func unsafeConvertSlice[Dest any, Src any](s []Src) []Dest {
	return unsafe.Slice((*Dest)(unsafe.Pointer(unsafe.SliceData(s))), len(s))
}
