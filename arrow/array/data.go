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
	"sync/atomic"

	"github.com/columnar-io/colarrow/arrow"
	"github.com/columnar-io/colarrow/arrow/bitutil"
	"github.com/columnar-io/colarrow/arrow/internal/debug"
	"github.com/columnar-io/colarrow/arrow/memory"
)

// Data represents the memory and metadata for an Arrow array: the
// logical type, length, offset and null count, plus the physical buffers
// and child data in the order defined by the type's layout.
//
// Buffers are never copied. Slicing a Data shares the buffers and
// children with the original and only moves the offset.
type Data struct {
	refCount  int64
	dtype     arrow.DataType
	nulls     int
	offset    int
	length    int
	buffers   []*memory.Buffer
	childData []arrow.ArrayData
}

// NewData creates a new Data. Every non-nil buffer and child is retained.
func NewData(dtype arrow.DataType, length int, buffers []*memory.Buffer, childData []arrow.ArrayData, nulls, offset int) *Data {
	for _, b := range buffers {
		if b != nil {
			b.Retain()
		}
	}

	for _, child := range childData {
		if child != nil {
			child.Retain()
		}
	}

	return &Data{
		refCount:  1,
		dtype:     dtype,
		nulls:     nulls,
		length:    length,
		offset:    offset,
		buffers:   buffers,
		childData: childData,
	}
}

// Reset sets the Data for re-use.
func (d *Data) Reset(dtype arrow.DataType, length int, buffers []*memory.Buffer, childData []arrow.ArrayData, nulls, offset int) {
	for _, b := range buffers {
		if b != nil {
			b.Retain()
		}
	}
	for _, b := range d.buffers {
		if b != nil {
			b.Release()
		}
	}
	d.buffers = buffers

	for _, c := range childData {
		if c != nil {
			c.Retain()
		}
	}
	for _, c := range d.childData {
		if c != nil {
			c.Release()
		}
	}
	d.childData = childData

	d.dtype = dtype
	d.length = length
	d.nulls = nulls
	d.offset = offset
}

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (d *Data) Retain() {
	atomic.AddInt64(&d.refCount, 1)
}

// Release decreases the reference count by 1.
// When the reference count goes to zero, the memory is freed.
// Release may be called simultaneously from multiple goroutines.
func (d *Data) Release() {
	debug.Assert(atomic.LoadInt64(&d.refCount) > 0, "too many releases")

	if atomic.AddInt64(&d.refCount, -1) == 0 {
		for _, b := range d.buffers {
			if b != nil {
				b.Release()
			}
		}

		for _, b := range d.childData {
			b.Release()
		}
		d.buffers, d.childData = nil, nil
	}
}

// DataType returns the DataType of the data.
func (d *Data) DataType() arrow.DataType { return d.dtype }

// NullN returns the number of nulls. It is computed from the validity
// bitmap when the Data was built with arrow.UnknownNullCount.
func (d *Data) NullN() int {
	if d.nulls < 0 {
		if !arrow.HasValidityBitmap(d.dtype.ID()) || len(d.buffers) == 0 || d.buffers[0] == nil {
			d.nulls = 0
		} else {
			d.nulls = d.length - bitutil.CountSetBits(d.buffers[0].Bytes(), d.offset, d.length)
		}
	}
	return d.nulls
}

// Len returns the length.
func (d *Data) Len() int { return d.length }

// Offset returns the offset.
func (d *Data) Offset() int { return d.offset }

// Buffers returns the buffers.
func (d *Data) Buffers() []*memory.Buffer { return d.buffers }

// Children returns the child data of nested types.
func (d *Data) Children() []arrow.ArrayData { return d.childData }

// NewSliceData returns a new slice that shares backing data with the input.
// The returned Data slice starts at i and extends j-i elements, such as:
//
//	slice := data[i:j]
//
// The returned value must be Release'd after use.
//
// NewSliceData panics if the slice is outside the valid range of the input Data.
// NewSliceData panics if i < 0 or j < i.
func NewSliceData(data arrow.ArrayData, i, j int64) arrow.ArrayData {
	if i < 0 || j > int64(data.Len()) || i > j || data.Offset()+int(i) > data.Offset()+data.Len() {
		panic("arrow/array: index out of range")
	}

	for _, b := range data.Buffers() {
		if b != nil {
			b.Retain()
		}
	}

	for _, child := range data.Children() {
		if child != nil {
			child.Retain()
		}
	}

	o := &Data{
		refCount:  1,
		dtype:     data.DataType(),
		nulls:     arrow.UnknownNullCount,
		length:    int(j - i),
		offset:    data.Offset() + int(i),
		buffers:   data.Buffers(),
		childData: data.Children(),
	}

	if data.NullN() == 0 {
		o.nulls = 0
	}

	return o
}

var (
	_ arrow.ArrayData = (*Data)(nil)
)
