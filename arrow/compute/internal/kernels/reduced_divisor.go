// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package kernels

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

// ReducedDivisor divides unsigned integers by a fixed divisor with a
// multiply-high and two shifts instead of a hardware division.
//
// For an N bit type and divisor d, with l = ceil(log2(d)):
//
//	m = floor(2^N * (2^l - d) / d) + 1
//	t = (m * n) >> N
//	n / d = (t + (n - t) >> min(l, 1)) >> max(l - 1, 0)
type ReducedDivisor[T constraints.Unsigned] struct {
	m        uint64
	sh1, sh2 uint
	nbits    uint
}

// NewReducedDivisor precomputes the divisor d. It panics if d is zero.
func NewReducedDivisor[T constraints.Unsigned](d T) ReducedDivisor[T] {
	if d == 0 {
		panic(divideByZero())
	}

	nbits := 8 * SizeOf[T]()
	dd := uint64(d)
	l := uint(bits.Len64(dd - 1))

	var m uint64
	if nbits == 64 {
		// 1<<64 wraps to zero, leaving 2^64 - d as required
		q, _ := bits.Div64((uint64(1)<<l)-dd, 0, dd)
		m = q + 1
	} else {
		m = (((uint64(1)<<l)-dd)<<nbits)/dd + 1
	}

	r := ReducedDivisor[T]{m: m, nbits: nbits}
	if l > 0 {
		r.sh1, r.sh2 = 1, l-1
	}
	return r
}

// Div returns n divided by the divisor.
func (r ReducedDivisor[T]) Div(n T) T {
	nn := uint64(n)
	var t uint64
	if r.nbits == 64 {
		t, _ = bits.Mul64(r.m, nn)
	} else {
		t = (r.m * nn) >> r.nbits
	}
	return T((t + (nn-t)>>r.sh1) >> r.sh2)
}
