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

package intmap_test

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/intmap"
)

func ExampleNewFloat64() {
	m := intmap.NewFloat64(0)
	m.Put(3, 1.5)
	m.Put(1, -2)
	m.Put(2, 0.25)
	fmt.Println(m.Len(), m.Get(1), m.Get(4))

	m.All(func(k int32, v float64) bool {
		fmt.Printf("%d=%g\n", k, v)
		return true
	})
	// Output:
	// 3 -2 NaN
	// 1=-2
	// 2=0.25
	// 3=1.5
}

func ExampleIterator() {
	m := intmap.New[string](0)
	m.Put(1, "one")
	m.Put(2, "two")

	it := m.Iterator()
	for it.HasNext() {
		if err := it.Advance(); err != nil {
			fmt.Println(err)
			return
		}
		k, _ := it.Key()
		v, _ := it.Value()
		fmt.Println(k, v)
	}

	it = m.Iterator()
	m.Put(3, "three")
	if err := it.Advance(); errors.Is(err, intmap.ErrConcurrentModification) {
		fmt.Println(err)
	}
	// Output:
	// 1 one
	// 2 two
	// intmap: map modified during iteration
}
