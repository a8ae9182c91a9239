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

// option provide an interface to do work on Map while it is being created.
type option[V any] interface {
	apply(m *Map[V])
}

type missingValueOption[V any] struct {
	missing V
}

func (op missingValueOption[V]) apply(m *Map[V]) {
	m.missing = op.missing
}

// WithMissingValue is an option to specify the value returned by Get, Put
// and Remove for keys that are not present in a Map[V]. The default is the
// zero value of V.
func WithMissingValue[V any](missing V) option[V] {
	return missingValueOption[V]{missing}
}

type hashOption[V any] struct {
	hash func(key int32) uint32
}

func (op hashOption[V]) apply(m *Map[V]) {
	m.hash = op.hash
}

// WithHash is an option to specify the hash function to use for a Map[V].
// The low bits of the hash select a key's home slot and the remaining bits
// perturb its probe sequence.
func WithHash[V any](hash func(key int32) uint32) option[V] {
	return hashOption[V]{hash}
}

// Allocator specifies an interface for allocating and releasing memory used
// by a Map. The default allocator utilizes Go's builtin make() and allows the
// GC to reclaim memory.
//
// If the allocator is manually managing memory and requires that keys,
// states and values be freed then Map.Close must be called in order to
// ensure the Free methods are called.
type Allocator[V any] interface {
	// AllocKeys should return a slice equivalent to make([]int32, n).
	AllocKeys(n int) []int32

	// AllocStates should return a slice equivalent to make([]uint8, n).
	AllocStates(n int) []uint8

	// AllocValues should return a slice equivalent to make([]V, n).
	AllocValues(n int) []V

	// FreeKeys can optional release the memory associated with the supplied
	// slice that is guaranteed to have been allocated by AllocKeys.
	FreeKeys(v []int32)

	// FreeStates can optional release the memory associated with the
	// supplied slice that is guaranteed to have been allocated by
	// AllocStates.
	FreeStates(v []uint8)

	// FreeValues can optional release the memory associated with the
	// supplied slice that is guaranteed to have been allocated by
	// AllocValues.
	FreeValues(v []V)
}

type defaultAllocator[V any] struct{}

func (defaultAllocator[V]) AllocKeys(n int) []int32 {
	return make([]int32, n)
}

func (defaultAllocator[V]) AllocStates(n int) []uint8 {
	return make([]uint8, n)
}

func (defaultAllocator[V]) AllocValues(n int) []V {
	return make([]V, n)
}

func (defaultAllocator[V]) FreeKeys(v []int32) {
}

func (defaultAllocator[V]) FreeStates(v []uint8) {
}

func (defaultAllocator[V]) FreeValues(v []V) {
}

type allocatorOption[V any] struct {
	allocator Allocator[V]
}

func (op allocatorOption[V]) apply(m *Map[V]) {
	m.allocator = op.allocator
}

// WithAllocator is an option for specify the Allocator to use for a Map[V].
func WithAllocator[V any](allocator Allocator[V]) option[V] {
	return allocatorOption[V]{allocator}
}
