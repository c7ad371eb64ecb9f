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

package compute

import (
	"context"
	"fmt"
	"time"

	"github.com/columnar-io/colarrow/arrow"
	"github.com/columnar-io/colarrow/arrow/array"
)

func isLocalTimestamp(dt arrow.DataType) bool {
	ts, ok := dt.(*arrow.TimestampType)
	return ok && !ts.HasTimeZone()
}

// CanHour reports whether Hour supports arrays of type dt.
func CanHour(dt arrow.DataType) bool {
	switch dt := dt.(type) {
	case *arrow.Time32Type:
		return dt.Unit == arrow.Second || dt.Unit == arrow.Millisecond
	case *arrow.Time64Type:
		return dt.Unit == arrow.Microsecond || dt.Unit == arrow.Nanosecond
	case *arrow.Date32Type, *arrow.Date64Type:
		return true
	}
	return isLocalTimestamp(dt)
}

// CanYear reports whether Year supports arrays of type dt.
func CanYear(dt arrow.DataType) bool {
	switch dt.(type) {
	case *arrow.Date32Type, *arrow.Date64Type:
		return true
	}
	return isLocalTimestamp(dt)
}

// civilTime converts arr to wall clock readings and hands them to
// extract through Unary.
func civilTime[O arrow.NumericType](ctx context.Context, arr arrow.Array, outType arrow.DataType, extract func(time.Time) O) *array.Primitive[O] {
	switch dt := arr.DataType().(type) {
	case *arrow.Time32Type:
		return Unary(ctx, arr.(*array.Time32), func(v arrow.Time32) O { return extract(v.ToTime(dt.Unit)) }, outType)
	case *arrow.Time64Type:
		return Unary(ctx, arr.(*array.Time64), func(v arrow.Time64) O { return extract(v.ToTime(dt.Unit)) }, outType)
	case *arrow.Date32Type:
		return Unary(ctx, arr.(*array.Date32), func(v arrow.Date32) O { return extract(v.ToTime()) }, outType)
	case *arrow.Date64Type:
		return Unary(ctx, arr.(*array.Date64), func(v arrow.Date64) O { return extract(v.ToTime()) }, outType)
	case *arrow.TimestampType:
		return Unary(ctx, arr.(*array.Timestamp), func(v arrow.Timestamp) O { return extract(v.ToTime(dt.Unit)) }, outType)
	}
	panic(fmt.Sprintf("compute: no civil time conversion for %s", arr.DataType()))
}

// Hour extracts the hour of the day, in [0, 24), from every element of
// a time of day, date or time zone naive timestamp array.
func Hour(ctx context.Context, arr arrow.Array) (*array.Primitive[uint32], error) {
	if !CanHour(arr.DataType()) {
		return nil, fmt.Errorf("%w: hour for type %s", arrow.ErrNotImplemented, arr.DataType())
	}
	return civilTime(ctx, arr, arrow.PrimitiveTypes.Uint32, func(t time.Time) uint32 { return uint32(t.Hour()) }), nil
}

// Year extracts the proleptic Gregorian year from every element of a
// date or time zone naive timestamp array.
func Year(ctx context.Context, arr arrow.Array) (*array.Primitive[int32], error) {
	if !CanYear(arr.DataType()) {
		return nil, fmt.Errorf("%w: year for type %s", arrow.ErrNotImplemented, arr.DataType())
	}
	return civilTime(ctx, arr, arrow.PrimitiveTypes.Int32, func(t time.Time) int32 { return int32(t.Year()) }), nil
}
