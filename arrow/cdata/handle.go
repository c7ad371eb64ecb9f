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


package cdata

import (
	"unsafe"

	"github.com/JohnCGriffin/overflow"
	"github.com/columnar-io/colarrow/arrow"
	"github.com/columnar-io/colarrow/arrow/array"
	"github.com/columnar-io/colarrow/arrow/memory"
)

// ArrayHandle is the capability the importer reads an array through.
//
// Buffer and Bitmap return a new reference to a view of the requested
// buffer which the caller must Release. A handle is consumed by a single
// call to ImportArray.
type ArrayHandle interface {
	// Field describes the array, its Type drives the import.
	Field() arrow.Field
	Len() int64
	Offset() int64
	// NullCount may be arrow.UnknownNullCount.
	NullCount() int64
	NumBuffers() int
	NumChildren() int
	// Buffer returns a view of (Offset()+Len())*byteWidth bytes of buffer
	// i, or an error if the buffer is absent or too small.
	Buffer(i int, byteWidth int64) (*memory.Buffer, error)
	// Bitmap returns a view of validity bitmap i, or nil when the array
	// reports no nulls and carries no bitmap.
	Bitmap(i int) (*memory.Buffer, error)
	Child(i int) (ArrayHandle, error)
}

// TypedBuffer returns buffer i of h viewed as a slice of T along with
// the buffer holding it.
func TypedBuffer[T arrow.NumericType](h ArrayHandle, i int) ([]T, *memory.Buffer, error) {
	buf, err := h.Buffer(i, int64(arrow.SizeOf[T]()))
	if err != nil {
		return nil, nil, err
	}
	return arrow.CastFromBytesTo[T](buf.Bytes()), buf, nil
}

// bufferSize returns width*(offset+length) or false if it overflows.
func bufferSize(width, offset, length int64) (int64, bool) {
	n, ok := overflow.Add64(offset, length)
	if !ok || n < 0 {
		return 0, false
	}
	return overflow.Mul64(width, n)
}

// ImportArray builds an array from the buffers and children exposed by
// h, dispatching on h.Field().Type. On error every buffer view taken
// from the handle has been released and no array is returned.
func ImportArray(h ArrayHandle) (arrow.Array, error) {
	if h.Field().Type == nil {
		return nil, interchangeErrorf("cdata: array handle has no type")
	}

	data, err := importData(h)
	if err != nil {
		return nil, err
	}
	defer data.Release()
	return array.MakeFromData(data), nil
}

// ExportBuffers returns the start address of every buffer of arr, new
// references to its child data, which the caller must release, and the
// array offset. The addresses are the unsliced starts of the buffers,
// so a consumer applies the offset exactly once.
func ExportBuffers(arr arrow.Array) (buffers []unsafe.Pointer, children []arrow.ArrayData, offset int64) {
	return exportBuffers(arr.Data())
}

// exportBuffers returns the start address of every buffer of data and
// new references to its children. Nil buffers, and buffers holding no
// memory, are exported as nil pointers. Unions keep their leading
// validity slot, always nil.
func exportBuffers(data arrow.ArrayData) ([]unsafe.Pointer, []arrow.ArrayData, int64) {
	bufs := data.Buffers()
	ptrs := make([]unsafe.Pointer, len(bufs))
	for i, b := range bufs {
		if b != nil {
			ptrs[i] = b.Addr()
		}
	}

	children := make([]arrow.ArrayData, len(data.Children()))
	for i, c := range data.Children() {
		c.Retain()
		children[i] = c
	}
	return ptrs, children, int64(data.Offset())
}
