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


package array

import (
	"bytes"

	"github.com/columnar-io/colarrow/arrow"
)

// Equal reports whether the two arrays are equal: same length, same
// logical type, same validity at every slot and same values at the valid
// slots. Values under null slots are not compared.
func Equal(left, right arrow.Array) bool {
	switch {
	case !baseArrayEqual(left, right):
		return false
	case left.Len() == 0:
		return true
	}

	for i := 0; i < left.Len(); i++ {
		if !valueEqual(left, i, right, i) {
			return false
		}
	}
	return true
}

// SliceEqual reports whether slices left[lbeg:lend] and right[rbeg:rend] are equal.
func SliceEqual(left arrow.Array, lbeg, lend int64, right arrow.Array, rbeg, rend int64) bool {
	l := NewSlice(left, lbeg, lend)
	defer l.Release()
	r := NewSlice(right, rbeg, rend)
	defer r.Release()

	return Equal(l, r)
}

func baseArrayEqual(left, right arrow.Array) bool {
	switch {
	case left.Len() != right.Len():
		return false
	case left.NullN() != right.NullN():
		return false
	case !arrow.TypeEqual(left.DataType(), right.DataType()):
		return false
	}
	return true
}

func valueEqual(left arrow.Array, i int, right arrow.Array, j int) bool {
	lnull, rnull := left.IsNull(i), right.IsNull(j)
	switch {
	case lnull != rnull:
		return false
	case lnull:
		return true
	}

	if l, ok := left.(Union); ok {
		return unionValueEqual(l, i, right.(Union), j)
	}
	return bytes.Equal(fixedWidthValue(left, i), fixedWidthValue(right, j))
}

func unionValueEqual(left Union, i int, right Union, j int) bool {
	if left.TypeCode(i) != right.TypeCode(j) {
		return false
	}

	id := left.ChildID(i)
	return valueEqual(left.Field(id), left.ChildRow(i), right.Field(id), right.ChildRow(j))
}

// fixedWidthValue returns the bytes of the value at slot i of a fixed
// width array.
func fixedWidthValue(arr arrow.Array, i int) []byte {
	width := arr.DataType().(arrow.FixedWidthDataType).BitWidth() / 8
	data := arr.Data()
	beg := (data.Offset() + i) * width
	return data.Buffers()[1].Bytes()[beg : beg+width]
}
