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


//go:build cgo

package cdata

import (
	"testing"
	"unsafe"

	"github.com/columnar-io/colarrow/arrow"
	"github.com/columnar-io/colarrow/arrow/array"
	"github.com/columnar-io/colarrow/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestDescriptorLayout(t *testing.T) {
	if unsafe.Sizeof(uintptr(0)) != 8 {
		t.Skip("offsets below are those of 64-bit platforms")
	}

	var arr CArrowArray
	assert.EqualValues(t, 80, unsafe.Sizeof(arr))
	assert.EqualValues(t, 24, unsafe.Offsetof(arr.n_buffers))
	assert.EqualValues(t, 40, unsafe.Offsetof(arr.buffers))
	assert.EqualValues(t, 56, unsafe.Offsetof(arr.dictionary))
	assert.EqualValues(t, 64, unsafe.Offsetof(arr.release))
	assert.EqualValues(t, 72, unsafe.Offsetof(arr.private_data))

	var sc CArrowSchema
	assert.EqualValues(t, 72, unsafe.Sizeof(sc))
	assert.EqualValues(t, 16, unsafe.Offsetof(sc.metadata))
	assert.EqualValues(t, 24, unsafe.Offsetof(sc.flags))
	assert.EqualValues(t, 56, unsafe.Offsetof(sc.release))
	assert.EqualValues(t, 64, unsafe.Offsetof(sc.private_data))
}

func TestFormatRoundTrip(t *testing.T) {
	tests := []struct {
		dt  arrow.DataType
		fmt string
	}{
		{arrow.PrimitiveTypes.Int8, "c"},
		{arrow.PrimitiveTypes.Uint8, "C"},
		{arrow.PrimitiveTypes.Int16, "s"},
		{arrow.PrimitiveTypes.Uint16, "S"},
		{arrow.PrimitiveTypes.Int32, "i"},
		{arrow.PrimitiveTypes.Uint32, "I"},
		{arrow.PrimitiveTypes.Int64, "l"},
		{arrow.PrimitiveTypes.Uint64, "L"},
		{arrow.PrimitiveTypes.Float32, "f"},
		{arrow.PrimitiveTypes.Float64, "g"},
		{arrow.FixedWidthTypes.Date32, "tdD"},
		{arrow.FixedWidthTypes.Date64, "tdm"},
		{arrow.FixedWidthTypes.Time32s, "tts"},
		{arrow.FixedWidthTypes.Time32ms, "ttm"},
		{arrow.FixedWidthTypes.Time64us, "ttu"},
		{arrow.FixedWidthTypes.Time64ns, "ttn"},
		{arrow.FixedWidthTypes.Duration_ms, "tDm"},
		{&arrow.TimestampType{Unit: arrow.Second}, "tss:"},
		{&arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "America/New_York"}, "tsu:America/New_York"},
		{sparseTestType(), "+us:3,7"},
		{denseTestType(), "+ud:0,1"},
	}

	for _, tt := range tests {
		t.Run(tt.fmt, func(t *testing.T) {
			var sc CArrowSchema
			require.NoError(t, ExportArrowSchema(tt.dt, &sc))
			assert.Equal(t, tt.fmt, schemaFormat(&sc))
			assert.Equal(t, FlagNullable, int64(sc.flags)&FlagNullable)
			assert.EqualValues(t, 2, sc.flags, "ARROW_FLAG_NULLABLE")

			f, err := ImportCArrowField(&sc)
			require.NoError(t, err)
			assert.True(t, schemaIsReleased(&sc))
			assert.Truef(t, arrow.TypeEqual(tt.dt, f.Type), "got %s, want %s", f.Type, tt.dt)
		})
	}
}

func TestFieldExportKeepsNameAndMetadata(t *testing.T) {
	md := arrow.NewMetadata([]string{"origin", "k"}, []string{"sensor", ""})
	field := arrow.Field{
		Name: "u",
		Type: arrow.SparseUnionOf([]arrow.Field{
			{Name: "a", Type: arrow.PrimitiveTypes.Uint8, Nullable: false, Metadata: md},
		}, []arrow.UnionTypeCode{0}),
		Nullable: false,
		Metadata: md,
	}

	var sc CArrowSchema
	require.NoError(t, ExportField(field, &sc))
	assert.Zero(t, int64(sc.flags)&FlagNullable)
	assert.Equal(t, "u", schemaName(&sc))
	require.EqualValues(t, 1, sc.n_children)
	child := unsafe.Slice(sc.children, sc.n_children)[0]
	assert.Equal(t, "a", schemaName(child))
	assert.False(t, schemaIsReleased(child))

	got, err := ImportCArrowField(&sc)
	require.NoError(t, err)
	assert.True(t, schemaIsReleased(&sc))
	assert.True(t, field.Equal(got), "got %s, want %s", got, field)
	assert.True(t, got.Metadata.Equal(md))
}

func TestCorruptMetadata(t *testing.T) {
	field := arrow.Field{
		Type:     arrow.PrimitiveTypes.Int32,
		Metadata: arrow.NewMetadata([]string{"k"}, []string{"v"}),
	}

	var sc CArrowSchema
	require.NoError(t, ExportField(field, &sc))
	// a negative pair count
	copy(unsafe.Slice((*byte)(unsafe.Pointer(sc.metadata)), 4), []byte{0xff, 0xff, 0xff, 0xff})

	_, err := ImportCArrowField(&sc)
	assert.ErrorIs(t, err, ErrInterchange)
	assert.True(t, schemaIsReleased(&sc))
}

// testSchema describes a schema tree for finish to allocate.
func testSchema(format string, children ...schemaExporter) schemaExporter {
	return schemaExporter{format: format, children: children}
}

func importTestSchema(exp schemaExporter) (arrow.Field, error) {
	var sc CArrowSchema
	exp.finish(&sc)
	return ImportCArrowField(&sc)
}

func TestImportSchemaErrors(t *testing.T) {
	_, err := importTestSchema(testSchema("u"))
	assert.ErrorIs(t, err, arrow.ErrNotImplemented)

	_, err = importTestSchema(testSchema("tsx:"))
	assert.ErrorIs(t, err, ErrInterchange)

	_, err = importTestSchema(testSchema("+us:0,0", testSchema("i"), testSchema("i")))
	assert.ErrorIs(t, err, ErrInterchange, "duplicate codes")

	_, err = importTestSchema(testSchema("+ud:0", testSchema("i"), testSchema("i")))
	assert.ErrorIs(t, err, ErrInterchange, "codes and children disagree")

	_, err = importTestSchema(testSchema("+ux:0", testSchema("i")))
	assert.ErrorIs(t, err, ErrInterchange)

	_, err = importTestSchema(testSchema("+us:-1", testSchema("i")))
	assert.ErrorIs(t, err, ErrInterchange)

	var released CArrowSchema
	testSchema("i").finish(&released)
	ReleaseCArrowSchema(&released)
	_, err = ImportCArrowField(&released)
	assert.ErrorIs(t, err, ErrInterchange)

	var sc CArrowSchema
	testSchema("+us:0", testSchema("u")).finish(&sc)
	_, err = ImportCArrowField(&sc)
	assert.ErrorIs(t, err, arrow.ErrNotImplemented)
	assert.True(t, schemaIsReleased(&sc), "schema released on error")
}

type CDataSuite struct {
	suite.Suite

	mem *memory.CheckedAllocator
}

func (s *CDataSuite) SetupTest() {
	s.mem = memory.NewCheckedAllocator(memory.NewGoAllocator())
}

func (s *CDataSuite) TearDownTest() {
	s.mem.AssertSize(s.T(), 0)
}

func (s *CDataSuite) fromJSON(dt arrow.DataType, data string) arrow.Array {
	return array.FromJSONString(s.mem, dt, data)
}

// roundTrip exports arr, releases it and imports it back.
func (s *CDataSuite) roundTrip(arr arrow.Array) arrow.Array {
	var (
		out CArrowArray
		sc  CArrowSchema
	)
	s.Require().NoError(ExportArrowArray(arr, &out, &sc))

	_, imported, err := ImportCArray(&out, &sc)
	s.Require().NoError(err)
	s.True(arrayIsReleased(&out), "import moves the source descriptor")
	s.True(schemaIsReleased(&sc))
	return imported
}

func (s *CDataSuite) TestExportHoldsArrayData() {
	arr := s.fromJSON(arrow.PrimitiveTypes.Int32, `[1, null, 3]`)
	defer arr.Release()

	var out CArrowArray
	s.Require().NoError(ExportArrowArray(arr, &out, nil))
	defer ReleaseCArrowArray(&out)

	s.EqualValues(3, out.length)
	s.EqualValues(1, out.null_count)
	s.EqualValues(2, out.n_buffers)
	s.Zero(out.n_children)
	s.NotNil(out.release)
	s.NotNil(out.private_data)

	h := getHandle(out.private_data)
	s.Same(arr.Data(), h.Value())

	bufs := unsafe.Slice(out.buffers, out.n_buffers)
	s.Equal(arr.Data().Buffers()[0].Addr(), bufs[0])
	s.Equal(arr.Data().Buffers()[1].Addr(), bufs[1])
}

func (s *CDataSuite) TestPrimitiveRoundTrip() {
	arr := s.fromJSON(arrow.PrimitiveTypes.Int32, `[1, null, 3, 4, null, 6]`)
	defer arr.Release()

	for _, sl := range [][2]int64{{0, 6}, {1, 5}, {2, 2}} {
		slice := array.NewSlice(arr, sl[0], sl[1])
		got := s.roundTrip(slice)
		s.Equal(arrow.INT32, got.DataType().ID())
		s.Equal(slice.Data().Offset(), got.Data().Offset())
		s.Truef(array.Equal(slice, got), "got %s, want %s", got, slice)
		got.Release()
		slice.Release()
	}
}

func (s *CDataSuite) TestTemporalRoundTrip() {
	dt := &arrow.TimestampType{Unit: arrow.Millisecond, TimeZone: "UTC"}
	arr := s.fromJSON(dt, `["2021-03-04T10:20:30.5Z", null, "1970-01-01"]`)
	defer arr.Release()

	got := s.roundTrip(arr)
	defer got.Release()
	s.True(arrow.TypeEqual(dt, got.DataType()))
	s.True(array.Equal(arr, got))
}

func (s *CDataSuite) TestUnionRoundTrip() {
	types := []arrow.UnionType{sparseTestType(), denseTestType()}
	inputs := []string{
		`[[3, 1], [7, 1614834367], [3, null], [7, null], [3, -5]]`,
		`[[0, 1], [1, 2.5], [0, null], [1, -0.5], [0, 40]]`,
	}

	for i, dt := range types {
		s.Run(dt.String(), func() {
			arr := s.fromJSON(dt, inputs[i])
			defer arr.Release()

			for _, off := range []int64{0, 1, 3} {
				slice := array.NewSlice(arr, off, int64(arr.Len()))
				got := s.roundTrip(slice)

				s.Equal(dt.Mode(), got.(array.Union).Mode())
				s.Equal(slice.Len(), got.Len())
				s.Equal(0, got.NullN())
				s.Truef(array.Equal(slice, got), "offset %d: got %s, want %s", off, got, slice)
				s.NoError(got.(array.Union).ValidateFull())

				got.Release()
				slice.Release()
			}
		})
	}
}

func (s *CDataSuite) TestOffsetAppliedOnce() {
	arr := s.fromJSON(denseTestType(), `[[0, 1], [1, 2.5], [0, 2], [1, 3.5]]`)
	defer arr.Release()

	slice := array.NewSlice(arr, 1, 4).(*array.DenseUnion)
	defer slice.Release()

	var out CArrowArray
	s.Require().NoError(ExportArrowArray(slice, &out, nil))
	s.EqualValues(1, out.offset)
	s.EqualValues(3, out.length)
	s.Require().EqualValues(3, out.n_buffers)
	bufs := unsafe.Slice(out.buffers, out.n_buffers)
	s.Nil(bufs[0])
	s.Equal(slice.TypeCodesBuffer().Addr(), bufs[1], "type ids are exported unsliced")
	s.Equal(slice.ValueOffsetsBuffer().Addr(), bufs[2])

	imp, err := ImportCArrayWithType(&out, slice.DataType())
	s.Require().NoError(err)
	got := imp.(*array.DenseUnion)
	defer got.Release()

	s.Equal(slice.TypeCodes(), got.TypeCodes())
	s.Equal([]arrow.UnionTypeCode{1, 0, 1}, got.TypeCodes())
	s.Equal(unsafe.Pointer(&slice.RawTypeCodes()[0]), unsafe.Pointer(&got.RawTypeCodes()[0]))
	s.Equal(unsafe.Pointer(&slice.RawValueOffsets()[0]), unsafe.Pointer(&got.RawValueOffsets()[0]),
		"value offsets stay unsliced")
	s.Equal([]int32{0, 1, 1}, got.ValueOffsets())
	for i := 0; i < got.NumFields(); i++ {
		s.Equal(slice.Field(i).Len(), got.Field(i).Len(), "children stay unsliced")
		s.Equal(slice.Field(i).Data().Buffers()[1].Addr(), got.Field(i).Data().Buffers()[1].Addr())
	}
}

func (s *CDataSuite) TestReleaseWaitsForImportedBuffers() {
	arr := s.fromJSON(sparseTestType(), `[[3, 1], [7, 2]]`)

	var out CArrowArray
	s.Require().NoError(ExportArrowArray(arr, &out, nil))
	arr.Release()
	live := s.mem.CurrentAlloc()
	s.NotZero(live, "the descriptor keeps the array memory")

	got, err := ImportCArrayWithType(&out, sparseTestType())
	s.Require().NoError(err)
	s.True(arrayIsReleased(&out))

	child := got.(array.Union).Field(0)
	child.Retain()
	got.Release()
	s.Equal(live, s.mem.CurrentAlloc(), "producer memory is still referenced")

	child.Release()
	s.Zero(s.mem.CurrentAlloc())
}

func (s *CDataSuite) TestDoubleReleaseIsNoop() {
	arr := s.fromJSON(arrow.PrimitiveTypes.Uint16, `[1, 2]`)

	var (
		out CArrowArray
		sc  CArrowSchema
	)
	s.Require().NoError(ExportArrowArray(arr, &out, &sc))
	arr.Release()

	ReleaseCArrowArray(&out)
	s.True(arrayIsReleased(&out))
	ReleaseCArrowArray(&out)
	ReleaseCArrowSchema(&sc)
	ReleaseCArrowSchema(&sc)
	s.True(schemaIsReleased(&sc))

	_, err := ImportCArrayWithType(&out, arrow.PrimitiveTypes.Uint16)
	s.ErrorIs(err, ErrInterchange)
}

func children(a *CArrowArray) []*CArrowArray {
	return unsafe.Slice(a.children, a.n_children)
}

func (s *CDataSuite) TestImportErrorsReleaseSource() {
	tests := []struct {
		name   string
		dt     arrow.DataType
		data   string
		mutate func(*CArrowArray)
	}{
		{"union null count", sparseTestType(), `[[3, 1]]`,
			func(a *CArrowArray) { a.null_count = 1 }},
		{"union buffer count", denseTestType(), `[[0, 1]]`,
			func(a *CArrowArray) { a.n_buffers = 1 }},
		{"missing type ids", sparseTestType(), `[[3, 1]]`,
			func(a *CArrowArray) { unsafe.Slice(a.buffers, a.n_buffers)[1] = nil }},
		{"missing child", sparseTestType(), `[[3, 1]]`,
			func(a *CArrowArray) { ReleaseCArrowArray(children(a)[1]); children(a)[1] = nil }},
		{"released child", sparseTestType(), `[[3, 1]]`,
			func(a *CArrowArray) { ReleaseCArrowArray(children(a)[0]) }},
		{"child count", sparseTestType(), `[[3, 1]]`,
			func(a *CArrowArray) { ReleaseCArrowArray(children(a)[1]); a.n_children = 1 }},
		{"bad child", denseTestType(), `[[0, 1], [1, 1.5]]`,
			func(a *CArrowArray) { children(a)[1].n_buffers = 1 }},
		{"buffer too small", arrow.PrimitiveTypes.Int64, `[1, null, 3]`,
			func(a *CArrowArray) { a.length = 1 << 20 }},
		{"primitive buffer count", arrow.PrimitiveTypes.Int64, `[1, 2]`,
			func(a *CArrowArray) { a.n_buffers = 1 }},
		{"short sparse child", sparseTestType(), `[[3, 1], [3, 2]]`,
			func(a *CArrowArray) { children(a)[0].length = 1 }},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			scope := memory.NewCheckedAllocatorScope(s.mem)
			arr := s.fromJSON(tt.dt, tt.data)
			var out CArrowArray
			s.Require().NoError(ExportArrowArray(arr, &out, nil))
			arr.Release()

			tt.mutate(&out)

			got, err := ImportCArrayWithType(&out, tt.dt)
			s.Nil(got)
			s.ErrorIs(err, ErrInterchange)
			s.ErrorIs(err, arrow.ErrInvalid)
			s.True(arrayIsReleased(&out))
			// the array memory is only freed by the release callback
			scope.CheckSize(s.T())
		})
	}
}

func (s *CDataSuite) TestLegacyUnionLayout() {
	arr := s.fromJSON(denseTestType(), `[[0, 1], [1, 1.5], [0, 2]]`)
	defer arr.Release()

	var out CArrowArray
	s.Require().NoError(ExportArrowArray(arr, &out, nil))
	// drop the leading validity slot
	bufs := unsafe.Slice(out.buffers, out.n_buffers)
	copy(bufs, bufs[1:])
	out.n_buffers = 2

	got, err := ImportCArrayWithType(&out, denseTestType())
	s.Require().NoError(err)
	defer got.Release()
	s.True(array.Equal(arr, got))
}

func (s *CDataSuite) TestUnsupportedExport() {
	var (
		out CArrowArray
		sc  CArrowSchema
	)
	err := ExportArrowArray(fakeArray{}, &out, &sc)
	s.ErrorIs(err, arrow.ErrNotImplemented)
	s.True(arrayIsReleased(&out))
	s.True(schemaIsReleased(&sc))
}

func TestCDataSuite(t *testing.T) {
	suite.Run(t, new(CDataSuite))
}
