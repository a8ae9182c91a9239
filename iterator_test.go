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
	"testing"

	"github.com/stretchr/testify/suite"
)

type IteratorSuite struct {
	suite.Suite
	m *Map[float64]
}

func (s *IteratorSuite) SetupTest() {
	s.m = NewFloat64(0)
	for i := int32(-50); i < 50; i++ {
		s.m.Put(i, float64(i)/2)
	}
}

// drain advances it to the end and returns the visited entries.
func (s *IteratorSuite) drain(it *Iterator[float64]) map[int32]float64 {
	r := make(map[int32]float64)
	for it.HasNext() {
		s.Require().NoError(it.Advance())
		k, err := it.Key()
		s.Require().NoError(err)
		v, err := it.Value()
		s.Require().NoError(err)
		_, dup := r[k]
		s.Require().False(dup, "key %d visited twice", k)
		r[k] = v
	}
	return r
}

func (s *IteratorSuite) TestVisitsEveryEntry() {
	r := s.drain(s.m.Iterator())
	s.Len(r, 100)
	for i := int32(-50); i < 50; i++ {
		s.Equal(float64(i)/2, r[i])
	}
}

func (s *IteratorSuite) TestSlotOrder() {
	var prev = -1
	for it := s.m.Iterator(); it.HasNext(); {
		s.Require().NoError(it.Advance())
		s.Greater(it.current, prev)
		prev = it.current
	}
}

func (s *IteratorSuite) TestEmpty() {
	it := NewFloat64(0).Iterator()
	s.False(it.HasNext())
	_, err := it.Key()
	s.ErrorIs(err, ErrNoSuchElement)
	s.ErrorIs(it.Advance(), ErrNoSuchElement)
	s.ErrorIs(it.Advance(), ErrNoSuchElement)
}

func (s *IteratorSuite) TestBeforeFirst() {
	it := s.m.Iterator()
	s.True(it.HasNext())
	_, err := it.Key()
	s.ErrorIs(err, ErrNoSuchElement)
	_, err = it.Value()
	s.ErrorIs(err, ErrNoSuchElement)
}

func (s *IteratorSuite) TestPastEnd() {
	it := s.m.Iterator()
	s.drain(it)
	s.False(it.HasNext())

	// The last entry remains readable until Advance is called again.
	_, err := it.Key()
	s.NoError(err)

	s.ErrorIs(it.Advance(), ErrNoSuchElement)
	_, err = it.Key()
	s.ErrorIs(err, ErrNoSuchElement)
	s.ErrorIs(it.Advance(), ErrNoSuchElement)
}

func (s *IteratorSuite) TestPutNewKey() {
	it := s.m.Iterator()
	s.Require().NoError(it.Advance())
	s.m.Put(1000, 1)

	s.True(it.HasNext())
	s.ErrorIs(it.Advance(), ErrConcurrentModification)
	_, err := it.Key()
	s.ErrorIs(err, ErrConcurrentModification)
	_, err = it.Value()
	s.ErrorIs(err, ErrConcurrentModification)
}

func (s *IteratorSuite) TestPutNewKeyBeforeFirst() {
	it := s.m.Iterator()
	s.m.Put(1000, 1)
	s.ErrorIs(it.Advance(), ErrConcurrentModification)
}

func (s *IteratorSuite) TestRemove() {
	it := s.m.Iterator()
	s.Require().NoError(it.Advance())
	k, err := it.Key()
	s.Require().NoError(err)
	s.m.Remove(k)
	s.ErrorIs(it.Advance(), ErrConcurrentModification)
}

func (s *IteratorSuite) TestRemoveAbsentKey() {
	it := s.m.Iterator()
	s.m.Remove(1000)
	s.NoError(it.Advance())
}

func (s *IteratorSuite) TestClear() {
	it := s.m.Iterator()
	s.m.Clear()
	s.ErrorIs(it.Advance(), ErrConcurrentModification)
}

func (s *IteratorSuite) TestOverwrite() {
	it := s.m.Iterator()
	for it.HasNext() {
		s.Require().NoError(it.Advance())
		k, err := it.Key()
		s.Require().NoError(err)
		s.m.Put(k, float64(k))

		v, err := it.Value()
		s.Require().NoError(err)
		s.Equal(float64(k), v)
	}
	for i := int32(-50); i < 50; i++ {
		s.Equal(float64(i), s.m.Get(i))
	}
}

func (s *IteratorSuite) TestAll() {
	r := make(map[int32]float64)
	s.m.All(func(k int32, v float64) bool {
		r[k] = v
		return true
	})
	s.Equal(s.drain(s.m.Iterator()), r)

	var n int
	s.m.All(func(int32, float64) bool {
		n++
		if n == 10 {
			return false
		}
		return true
	})
	s.Equal(10, n)
}

func (s *IteratorSuite) TestAllModified() {
	s.PanicsWithError(ErrConcurrentModification.Error(), func() {
		s.m.All(func(k int32, _ float64) bool {
			s.m.Remove(k)
			return true
		})
	})
}

func TestIterator(t *testing.T) {
	suite.Run(t, new(IteratorSuite))
}
