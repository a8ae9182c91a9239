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

import "fmt"

const (
	// perturbShift is the number of bits the perturbation is shifted right
	// after every probe step.
	perturbShift = 5
)

// hashOf scrambles the bits of key. The low bits of the result select the
// home slot so the high bits of key need to be folded into them. All shifts
// are logical.
func hashOf(key int32) uint32 {
	k := uint32(key)
	h := k ^ (k >> 20) ^ (k >> 12)
	return h ^ (h >> 7) ^ (h >> 4)
}

// perturbOf returns the initial perturbation for a hash: the hash with the
// sign bit cleared.
func perturbOf(hash uint32) uint32 {
	return hash & 0x7fffffff
}

// probeSeq maintains the state for a probe sequence. The sequence is
//
//	j(0) := hash & mask
//	j(i+1) := 5*j(i) + perturb(i) + 1
//	perturb(i+1) := perturb(i) >> 5
//	offset(i) := j(i) & mask
//
// with all arithmetic performed modulo 2^32. The perturbation scatters the
// first few probes of colliding keys across the table using the high bits of
// the hash. It decays to zero after at most 7 steps, at which point the
// sequence degenerates into the linear congruential generator j -> 5*j+1.
// Since 5-1 is divisible by 4 and 1 is odd, that generator has full period
// modulo any power of two, so a probe sequence eventually visits every slot
// in the table. As long as one slot is free, probing terminates.
type probeSeq struct {
	mask    uint32
	offset  uint32
	j       uint32
	perturb uint32
}

func makeProbeSeq(hash uint32, mask uint32) probeSeq {
	return probeSeq{
		mask:    mask,
		offset:  hash & mask,
		j:       hash & mask,
		perturb: perturbOf(hash),
	}
}

func (s probeSeq) next() probeSeq {
	s.j = (s.j << 2) + s.j + s.perturb + 1
	s.perturb >>= perturbShift
	s.offset = s.j & s.mask
	return s
}

func (s probeSeq) String() string {
	return fmt.Sprintf("mask=%d offset=%d j=%d perturb=%d", s.mask, s.offset, s.j, s.perturb)
}
