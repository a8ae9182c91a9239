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

// Field is the algebraic field the values of a map belong to. A map only
// needs the additive identity, which it returns for absent keys so that a
// sparse vector of field elements reads as zero wherever it is unset.
type Field[T any] interface {
	Zero() T
}

// NewField constructs a new Map of field elements whose missing value is
// field.Zero().
func NewField[T any](field Field[T], expectedSize int, options ...option[T]) *Map[T] {
	return New[T](expectedSize,
		append([]option[T]{WithMissingValue(field.Zero())}, options...)...)
}
