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
	"fmt"
	"sync/atomic"

	"github.com/columnar-io/colarrow/arrow"
	"github.com/columnar-io/colarrow/arrow/bitutil"
	"github.com/columnar-io/colarrow/arrow/internal/debug"
)

const (
	// UnknownNullCount specifies the NullN should be calculated from the null bitmap buffer.
	UnknownNullCount = arrow.UnknownNullCount

	// NullValueStr represents a null value in arrow.Array.ValueStr.
	NullValueStr = arrow.NullValueStr
)

type array struct {
	refCount        int64
	data            *Data
	nullBitmapBytes []byte
}

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (a *array) Retain() {
	atomic.AddInt64(&a.refCount, 1)
}

// Release decreases the reference count by 1.
// Release may be called simultaneously from multiple goroutines.
// When the reference count goes to zero, the memory is freed.
func (a *array) Release() {
	debug.Assert(atomic.LoadInt64(&a.refCount) > 0, "too many releases")

	if atomic.AddInt64(&a.refCount, -1) == 0 {
		a.data.Release()
		a.data, a.nullBitmapBytes = nil, nil
	}
}

// DataType returns the type metadata for this instance.
func (a *array) DataType() arrow.DataType { return a.data.dtype }

// NullN returns the number of null values in the array.
func (a *array) NullN() int { return a.data.NullN() }

// NullBitmapBytes returns a byte slice of the validity bitmap.
func (a *array) NullBitmapBytes() []byte { return a.nullBitmapBytes }

func (a *array) Data() arrow.ArrayData { return a.data }

// Len returns the number of elements in the array.
func (a *array) Len() int { return a.data.length }

// IsNull returns true if value at index is null.
// NOTE: IsNull will panic if NullBitmapBytes is not empty and 0 > i ≥ Len.
func (a *array) IsNull(i int) bool {
	return len(a.nullBitmapBytes) != 0 && bitutil.BitIsNotSet(a.nullBitmapBytes, a.data.offset+i)
}

// IsValid returns true if value at index is not null.
// NOTE: IsValid will panic if NullBitmapBytes is not empty and 0 > i ≥ Len.
func (a *array) IsValid(i int) bool {
	return len(a.nullBitmapBytes) == 0 || bitutil.BitIsSet(a.nullBitmapBytes, a.data.offset+i)
}

func (a *array) setData(data *Data) {
	// Retain before releasing in case a.data is the same as data.
	data.Retain()

	if a.data != nil {
		a.data.Release()
	}

	if len(data.buffers) > 0 && data.buffers[0] != nil {
		a.nullBitmapBytes = data.buffers[0].Bytes()
	}
	a.data = data
}

func (a *array) Offset() int {
	return a.data.Offset()
}

type arrayConstructorFn func(arrow.ArrayData) arrow.Array

var (
	makeArrayFn [64]arrayConstructorFn
)

func invalidDataType(data arrow.ArrayData) arrow.Array {
	panic(fmt.Errorf("%w: no array type registered for %s", arrow.ErrNotImplemented, data.DataType()))
}

// MakeFromData constructs a strongly-typed array instance from generic Data.
func MakeFromData(data arrow.ArrayData) arrow.Array {
	return makeArrayFn[byte(data.DataType().ID()&0x3f)](data)
}

// NewSlice constructs a zero-copy slice of the array with the indicated
// indices i and j, corresponding to array[i:j].
// The returned array must be Release()'d after use.
//
// NewSlice panics if the slice is outside the valid range of the input array.
// NewSlice panics if j < i.
func NewSlice(arr arrow.Array, i, j int64) arrow.Array {
	data := NewSliceData(arr.Data(), i, j)
	slice := MakeFromData(data)
	data.Release()
	return slice
}

func init() {
	for i := range makeArrayFn {
		makeArrayFn[i] = invalidDataType
	}

	makeArrayFn[arrow.UINT8] = func(data arrow.ArrayData) arrow.Array { return NewPrimitiveData[uint8](data) }
	makeArrayFn[arrow.INT8] = func(data arrow.ArrayData) arrow.Array { return NewPrimitiveData[int8](data) }
	makeArrayFn[arrow.UINT16] = func(data arrow.ArrayData) arrow.Array { return NewPrimitiveData[uint16](data) }
	makeArrayFn[arrow.INT16] = func(data arrow.ArrayData) arrow.Array { return NewPrimitiveData[int16](data) }
	makeArrayFn[arrow.UINT32] = func(data arrow.ArrayData) arrow.Array { return NewPrimitiveData[uint32](data) }
	makeArrayFn[arrow.INT32] = func(data arrow.ArrayData) arrow.Array { return NewPrimitiveData[int32](data) }
	makeArrayFn[arrow.UINT64] = func(data arrow.ArrayData) arrow.Array { return NewPrimitiveData[uint64](data) }
	makeArrayFn[arrow.INT64] = func(data arrow.ArrayData) arrow.Array { return NewPrimitiveData[int64](data) }
	makeArrayFn[arrow.FLOAT32] = func(data arrow.ArrayData) arrow.Array { return NewPrimitiveData[float32](data) }
	makeArrayFn[arrow.FLOAT64] = func(data arrow.ArrayData) arrow.Array { return NewPrimitiveData[float64](data) }
	makeArrayFn[arrow.DATE32] = func(data arrow.ArrayData) arrow.Array { return NewPrimitiveData[arrow.Date32](data) }
	makeArrayFn[arrow.DATE64] = func(data arrow.ArrayData) arrow.Array { return NewPrimitiveData[arrow.Date64](data) }
	makeArrayFn[arrow.TIMESTAMP] = func(data arrow.ArrayData) arrow.Array { return NewPrimitiveData[arrow.Timestamp](data) }
	makeArrayFn[arrow.TIME32] = func(data arrow.ArrayData) arrow.Array { return NewPrimitiveData[arrow.Time32](data) }
	makeArrayFn[arrow.TIME64] = func(data arrow.ArrayData) arrow.Array { return NewPrimitiveData[arrow.Time64](data) }
	makeArrayFn[arrow.DURATION] = func(data arrow.ArrayData) arrow.Array { return NewPrimitiveData[arrow.Duration](data) }
	makeArrayFn[arrow.SPARSE_UNION] = func(data arrow.ArrayData) arrow.Array { return NewSparseUnionData(data) }
	makeArrayFn[arrow.DENSE_UNION] = func(data arrow.ArrayData) arrow.Array { return NewDenseUnionData(data) }
}
