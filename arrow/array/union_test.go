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


package array_test

import (
	"testing"

	"github.com/columnar-io/colarrow/arrow"
	"github.com/columnar-io/colarrow/arrow/array"
	"github.com/columnar-io/colarrow/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type UnionArraySuite struct {
	suite.Suite

	mem *memory.CheckedAllocator
}

func (s *UnionArraySuite) SetupTest() {
	s.mem = memory.NewCheckedAllocator(memory.NewGoAllocator())
}

func (s *UnionArraySuite) TearDownTest() {
	s.mem.AssertSize(s.T(), 0)
}

func (s *UnionArraySuite) fromJSON(dt arrow.DataType, data string) arrow.Array {
	return array.FromJSONString(s.mem, dt, data)
}

func (s *UnionArraySuite) TestSparseFromArrays() {
	ids := s.fromJSON(arrow.PrimitiveTypes.Int8, `[5, 1, 5, 5, 1]`)
	defer ids.Release()
	ints := s.fromJSON(arrow.PrimitiveTypes.Int32, `[0, null, 2, 3, 4]`)
	defer ints.Release()
	floats := s.fromJSON(arrow.PrimitiveTypes.Float64, `[0.5, 1.5, null, 3.5, 4.5]`)
	defer floats.Release()

	arr, err := array.NewSparseUnionFromArrays(ids, []arrow.Array{ints, floats}, []string{"i", "f"}, []arrow.UnionTypeCode{5, 1})
	s.Require().NoError(err)
	defer arr.Release()

	s.Equal(arrow.SparseMode, arr.Mode())
	s.Equal(5, arr.Len())
	s.Zero(arr.NullN())
	s.Equal([]arrow.UnionTypeCode{5, 1, 5, 5, 1}, arr.TypeCodes())
	s.Equal(1, arr.ChildID(1))
	s.Equal(0, arr.ChildID(2))
	s.False(arr.IsNull(1), "slot 1 selects the valid float")
	s.False(arr.IsNull(2), "slot 2 selects the valid int")
	s.NoError(arr.ValidateFull())
	s.Equal("[{i=0} {f=1.5} {i=2} {i=3} {f=4.5}]", arr.String())

	exp := s.fromJSON(arr.DataType(), `[[5, 0], [1, 1.5], [5, 2], [5, 3], [1, 4.5]]`)
	defer exp.Release()
	s.True(array.Equal(exp, arr))
}

func (s *UnionArraySuite) TestDenseFromArrays() {
	ids := s.fromJSON(arrow.PrimitiveTypes.Int8, `[0, 1, 0, 0, 1]`)
	defer ids.Release()
	offsets := s.fromJSON(arrow.PrimitiveTypes.Int32, `[0, 0, 1, 2, 1]`)
	defer offsets.Release()
	ints := s.fromJSON(arrow.PrimitiveTypes.Int64, `[10, null, 30]`)
	defer ints.Release()
	dates := s.fromJSON(arrow.FixedWidthTypes.Date32, `[1, 2]`)
	defer dates.Release()

	arr, err := array.NewDenseUnionFromArrays(ids, offsets, []arrow.Array{ints, dates}, nil, nil)
	s.Require().NoError(err)
	defer arr.Release()

	s.Equal(arrow.DenseMode, arr.Mode())
	s.Equal([]int32{0, 0, 1, 2, 1}, arr.ValueOffsets())
	s.True(arr.IsNull(2))
	s.False(arr.IsNull(3))
	s.Equal(2, arr.ChildRow(3))
	s.Same(ints.Data(), arr.Field(0).Data(), "children share the data they were built from")
}

func (s *UnionArraySuite) TestDenseRejectsBadOffsets() {
	ids := s.fromJSON(arrow.PrimitiveTypes.Int8, `[0, 0]`)
	defer ids.Release()
	ints := s.fromJSON(arrow.PrimitiveTypes.Int64, `[10, 20]`)
	defer ints.Release()

	for _, offs := range []string{`[0, 2]`, `[1, 0]`, `[-1, 0]`} {
		offsets := s.fromJSON(arrow.PrimitiveTypes.Int32, offs)
		_, err := array.NewDenseUnionFromArrays(ids, offsets, []arrow.Array{ints}, nil, nil)
		s.ErrorIs(err, arrow.ErrInvalid, offs)
		offsets.Release()
	}
}

func (s *UnionArraySuite) TestSparseRejectsShortChildAndBadCodes() {
	ids := s.fromJSON(arrow.PrimitiveTypes.Int8, `[0, 0, 0]`)
	defer ids.Release()
	short := s.fromJSON(arrow.PrimitiveTypes.Int64, `[10, 20]`)
	defer short.Release()

	_, err := array.NewSparseUnionFromArrays(ids, []arrow.Array{short}, nil, nil)
	s.ErrorIs(err, arrow.ErrInvalid)

	badIDs := s.fromJSON(arrow.PrimitiveTypes.Int8, `[0, 3]`)
	defer badIDs.Release()
	ints := s.fromJSON(arrow.PrimitiveTypes.Int64, `[10, 20]`)
	defer ints.Release()
	_, err = array.NewSparseUnionFromArrays(badIDs, []arrow.Array{ints}, nil, nil)
	s.ErrorIs(err, arrow.ErrInvalid)

	nullIDs := s.fromJSON(arrow.PrimitiveTypes.Int8, `[0, null]`)
	defer nullIDs.Release()
	_, err = array.NewSparseUnionFromArrays(nullIDs, []arrow.Array{ints}, nil, nil)
	s.ErrorIs(err, arrow.ErrInvalid)
}

func (s *UnionArraySuite) TestSliceOnlyMovesTypeCodes() {
	for _, mode := range []arrow.UnionMode{arrow.SparseMode, arrow.DenseMode} {
		s.Run(mode.String(), func() {
			dt := arrow.UnionOf(mode, []arrow.Field{
				{Name: "a", Type: arrow.PrimitiveTypes.Uint8, Nullable: true},
				{Name: "b", Type: arrow.PrimitiveTypes.Int16, Nullable: true},
			}, []arrow.UnionTypeCode{0, 1})
			arr := s.fromJSON(dt, `[[0, 1], [1, -2], [0, null], [1, 4], [0, 5], [1, 6]]`).(array.Union)
			defer arr.Release()

			slice := array.NewSlice(arr, 2, 5).(array.Union)
			defer slice.Release()

			s.Equal(3, slice.Len())
			s.Equal(2, slice.Offset())
			s.Equal([]arrow.UnionTypeCode{0, 1, 0}, slice.TypeCodes())
			s.Equal(arr.RawTypeCodes(), slice.RawTypeCodes())
			for i := 0; i < arr.NumFields(); i++ {
				s.Same(arr.Field(i).Data(), slice.Field(i).Data())
			}
			s.True(slice.IsNull(0))

			exp := s.fromJSON(dt, `[[0, null], [1, 4], [0, 5]]`)
			defer exp.Release()
			s.True(array.Equal(exp, slice))
			s.True(array.SliceEqual(arr, 2, 5, exp, 0, 3))

			chained := array.NewSlice(slice, 1, 3)
			defer chained.Release()
			s.True(array.SliceEqual(arr, 3, 5, chained, 0, 2))
			s.False(array.SliceEqual(arr, 2, 4, chained, 0, 2))
		})
	}
}

func (s *UnionArraySuite) TestJSONRoundTrip() {
	dt := arrow.DenseUnionOf([]arrow.Field{
		{Name: "ts", Type: &arrow.TimestampType{Unit: arrow.Second}, Nullable: true},
		{Name: "n", Type: arrow.PrimitiveTypes.Float32, Nullable: true},
	}, []arrow.UnionTypeCode{3, 7})

	arr := s.fromJSON(dt, `[[3, "2021-03-04T05:06:07Z"], [7, 2.5], null]`)
	defer arr.Release()

	out, err := arr.MarshalJSON()
	s.Require().NoError(err)
	s.JSONEq(`[[3, 1614834367], [7, 2.5], [3, null]]`, string(out))

	back := s.fromJSON(dt, string(out))
	defer back.Release()
	s.True(array.Equal(arr, back))
}

func TestUnionArraySuite(t *testing.T) {
	suite.Run(t, new(UnionArraySuite))
}

func TestUnionTypeChildIDs(t *testing.T) {
	dt := arrow.SparseUnionOf([]arrow.Field{
		{Name: "x", Type: arrow.PrimitiveTypes.Int8},
		{Name: "y", Type: arrow.PrimitiveTypes.Int8},
	}, []arrow.UnionTypeCode{9, 4})

	ids := dt.ChildIDs()
	assert.Equal(t, 0, ids[9])
	assert.Equal(t, 1, ids[4])
	assert.Equal(t, arrow.InvalidUnionChildID, ids[0])
	assert.Equal(t, arrow.UnionTypeCode(9), dt.MaxTypeCode())

	require.Panics(t, func() {
		arrow.SparseUnionOf([]arrow.Field{{Name: "x", Type: arrow.PrimitiveTypes.Int8}}, []arrow.UnionTypeCode{1, 2})
	})
	require.Panics(t, func() {
		arrow.DenseUnionOf([]arrow.Field{
			{Name: "x", Type: arrow.PrimitiveTypes.Int8},
			{Name: "y", Type: arrow.PrimitiveTypes.Int8},
		}, []arrow.UnionTypeCode{1, 1})
	})
}
