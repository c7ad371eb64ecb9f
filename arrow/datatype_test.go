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

package arrow_test

import (
	"errors"
	"testing"
	"time"

	"github.com/columnar-io/colarrow/arrow"
	"github.com/stretchr/testify/assert"
)

func TestTypeEqual(t *testing.T) {
	ints := []arrow.Field{{Name: "i", Type: arrow.PrimitiveTypes.Int32, Nullable: true}}
	floats := []arrow.Field{{Name: "i", Type: arrow.PrimitiveTypes.Float32, Nullable: true}}

	tests := []struct {
		left, right arrow.DataType
		want        bool
	}{
		{nil, nil, true},
		{arrow.PrimitiveTypes.Int8, nil, false},
		{arrow.PrimitiveTypes.Int8, arrow.PrimitiveTypes.Int8, true},
		{arrow.PrimitiveTypes.Int8, arrow.PrimitiveTypes.Uint8, false},
		{arrow.FixedWidthTypes.Timestamp_s, &arrow.TimestampType{Unit: arrow.Second, TimeZone: "UTC"}, true},
		{arrow.FixedWidthTypes.Timestamp_s, arrow.FixedWidthTypes.Timestamp_ms, false},
		{&arrow.TimestampType{Unit: arrow.Second}, arrow.FixedWidthTypes.Timestamp_s, false},
		{arrow.FixedWidthTypes.Time32s, arrow.FixedWidthTypes.Time32ms, false},
		{arrow.FixedWidthTypes.Time64us, &arrow.Time64Type{Unit: arrow.Microsecond}, true},
		{arrow.SparseUnionOf(ints, []arrow.UnionTypeCode{3}), arrow.SparseUnionOf(ints, []arrow.UnionTypeCode{3}), true},
		{arrow.SparseUnionOf(ints, []arrow.UnionTypeCode{3}), arrow.SparseUnionOf(ints, []arrow.UnionTypeCode{4}), false},
		{arrow.SparseUnionOf(ints, []arrow.UnionTypeCode{3}), arrow.DenseUnionOf(ints, []arrow.UnionTypeCode{3}), false},
		{arrow.DenseUnionOf(ints, []arrow.UnionTypeCode{0}), arrow.DenseUnionOf(floats, []arrow.UnionTypeCode{0}), false},
	}

	for _, tt := range tests {
		assert.Equalf(t, tt.want, arrow.TypeEqual(tt.left, tt.right), "%v == %v", tt.left, tt.right)
		assert.Equalf(t, tt.want, arrow.TypeEqual(tt.right, tt.left), "%v == %v", tt.right, tt.left)
	}
}

func TestUnionOf(t *testing.T) {
	fields := []arrow.Field{
		{Name: "a", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "b", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}

	dt := arrow.UnionOf(arrow.DenseMode, fields, []arrow.UnionTypeCode{5, 2})
	assert.Equal(t, arrow.DENSE_UNION, dt.ID())
	assert.Equal(t, arrow.UnionTypeCode(5), dt.MaxTypeCode())
	assert.Equal(t, 0, dt.ChildIDs()[5])
	assert.Equal(t, 1, dt.ChildIDs()[2])
	assert.Equal(t, arrow.InvalidUnionChildID, dt.ChildIDs()[0])

	// mutating the returned fields leaves the type alone
	dt.Fields()[0].Name = "z"
	assert.Equal(t, "a", dt.Fields()[0].Name)

	for _, codes := range [][]arrow.UnionTypeCode{{1, 1}, {-1, 0}, {0}} {
		assert.Panics(t, func() { arrow.UnionOf(arrow.SparseMode, fields, codes) }, "%v", codes)
	}

	func() {
		defer func() {
			err, _ := recover().(error)
			assert.True(t, errors.Is(err, arrow.ErrInvalid))
		}()
		arrow.DenseUnionOf(fields, []arrow.UnionTypeCode{7, 7})
	}()
}

func TestMetadata(t *testing.T) {
	md := arrow.NewMetadata([]string{"b", "a"}, []string{"2", "1"})
	assert.Equal(t, 2, md.Len())
	assert.Equal(t, 1, md.FindKey("a"))
	assert.Equal(t, -1, md.FindKey("c"))

	v, ok := md.GetValue("b")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
	_, ok = md.GetValue("c")
	assert.False(t, ok)

	from := arrow.MetadataFrom(map[string]string{"a": "1", "b": "2"})
	assert.Equal(t, []string{"a", "b"}, from.Keys())
	assert.True(t, md.Equal(from))
	assert.False(t, md.Equal(arrow.NewMetadata([]string{"a", "b"}, []string{"1", "3"})))
	assert.Equal(t, `["b": "2", "a": "1"]`, md.String())

	assert.Zero(t, arrow.NewMetadata(nil, nil).Len())
	assert.Panics(t, func() { arrow.NewMetadata([]string{"a"}, nil) })
}

func TestFieldEqual(t *testing.T) {
	f := arrow.Field{Name: "f", Type: arrow.PrimitiveTypes.Int8, Nullable: true,
		Metadata: arrow.NewMetadata([]string{"k"}, []string{"v"})}

	g := f
	assert.True(t, f.Equal(g))
	g.Nullable = false
	assert.False(t, f.Equal(g))

	g = f
	g.Metadata = arrow.Metadata{}
	assert.False(t, f.Equal(g))
	assert.True(t, f.HasMetadata())
	assert.False(t, g.HasMetadata())
}

func TestTemporalConversions(t *testing.T) {
	day := time.Date(2021, time.March, 4, 5, 6, 7, 0, time.UTC)

	assert.Equal(t, arrow.Date32(18690), arrow.Date32FromTime(day))
	assert.Equal(t, "2021-03-04", arrow.Date32(18690).FormattedString())
	assert.Equal(t, "1969-12-31", arrow.Date32(-1).FormattedString())
	assert.Equal(t, arrow.Date64(18690*86400000), arrow.Date64FromTime(day))

	// date64 values carrying a time of day keep it
	assert.True(t, arrow.Date64(1614834367000).ToTime().Equal(day))
	assert.Equal(t, 5, arrow.Date64(1614834367000).ToTime().Hour())
	assert.Equal(t, "2021-03-04", arrow.Date64(1614834367000).FormattedString())

	before := arrow.Date64(-1).ToTime()
	assert.Equal(t, 1969, before.Year())
	assert.Equal(t, 23, before.Hour())
	assert.Equal(t, "1969-12-31", arrow.Date64(-1).FormattedString())

	earlier := arrow.Date64(-86400001).ToTime()
	assert.True(t, time.Date(1969, time.December, 30, 23, 59, 59, 999e6, time.UTC).Equal(earlier), "got %s", earlier)
	assert.Equal(t, "1969-12-30", arrow.Date64(-86400001).FormattedString())

	ts, err := arrow.TimestampFromTime(day, arrow.Second)
	assert.NoError(t, err)
	assert.Equal(t, arrow.Timestamp(1614834367), ts)
	assert.True(t, ts.ToTime(arrow.Second).Equal(day))

	ts, err = arrow.TimestampFromTime(day, arrow.Millisecond)
	assert.NoError(t, err)
	assert.Equal(t, 5, ts.ToTime(arrow.Millisecond).Hour())

	assert.Equal(t, 1, arrow.Time32(3661).ToTime(arrow.Second).Hour())
	assert.Equal(t, "01:01:01", arrow.Time32(3661).FormattedString(arrow.Second))
	assert.Equal(t, 23, arrow.Time64(86399*1e9).ToTime(arrow.Nanosecond).Hour())

	assert.True(t, arrow.FixedWidthTypes.Timestamp_s.(*arrow.TimestampType).HasTimeZone())
	assert.False(t, (&arrow.TimestampType{Unit: arrow.Second}).HasTimeZone())
}
