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

// implement handling of the Arrow C Data Interface, for both producing
// and consuming descriptors.

// #include "arrow/c/abi.h"
// #include "arrow/c/helpers.h"
// #include <stdlib.h>
// struct ArrowArray* get_arr() {
//	struct ArrowArray* out = (struct ArrowArray*)(malloc(sizeof(struct ArrowArray)));
//	memset(out, 0, sizeof(struct ArrowArray));
//	return out;
// }
//
import "C"

import (
	"encoding/binary"
	"unsafe"

	"github.com/JohnCGriffin/overflow"
	"github.com/columnar-io/colarrow/arrow"
	"github.com/columnar-io/colarrow/arrow/bitutil"
	"github.com/columnar-io/colarrow/arrow/memory"
)

type (
	// CArrowSchema is the C Data Interface for ArrowSchemas defined in abi.h
	CArrowSchema = C.struct_ArrowSchema
	// CArrowArray is the C Data Interface object for Arrow Arrays as defined in abi.h
	CArrowArray = C.struct_ArrowArray
)

func arrayIsReleased(arr *CArrowArray) bool {
	return C.ArrowArrayIsReleased(arr) == 1
}

func schemaIsReleased(schema *CArrowSchema) bool {
	return C.ArrowSchemaIsReleased(schema) == 1
}

func schemaFormat(schema *CArrowSchema) string { return C.GoString(schema.format) }
func schemaName(schema *CArrowSchema) string   { return C.GoString(schema.name) }

// cMetadata returns a view of the encoded metadata starting at md,
// walking the length prefixes to find where it ends.
func cMetadata(md *C.char) ([]byte, error) {
	if md == nil {
		return nil, nil
	}

	p := unsafe.Pointer(md)
	readint32 := func(off int) int32 {
		return int32(binary.NativeEndian.Uint32(unsafe.Slice((*byte)(unsafe.Add(p, off)), arrow.Int32SizeBytes)))
	}

	npairs := readint32(0)
	if npairs < 0 {
		return nil, interchangeErrorf("cdata: invalid metadata pair count %d", npairs)
	}

	off := arrow.Int32SizeBytes
	for i := int64(0); i < 2*int64(npairs); i++ {
		l := readint32(off)
		if l < 0 {
			return nil, interchangeErrorf("cdata: invalid metadata string length %d", l)
		}
		off += arrow.Int32SizeBytes + int(l)
	}
	return unsafe.Slice((*byte)(p), off), nil
}

// convert a C.ArrowSchema to an arrow.Field to maintain metadata with the schema
func importSchema(schema *CArrowSchema) (ret arrow.Field, err error) {
	if schema == nil || schemaIsReleased(schema) {
		return ret, interchangeErrorf("cdata: cannot import released schema")
	}

	if schema.n_children < 0 || (schema.n_children > 0 && schema.children == nil) {
		return ret, interchangeErrorf("cdata: schema declares %d children without a children array", int64(schema.n_children))
	}

	var childFields []arrow.Field
	if schema.n_children > 0 {
		children := unsafe.Slice(schema.children, schema.n_children)
		childFields = make([]arrow.Field, len(children))
		for i, c := range children {
			if c == nil {
				return ret, interchangeErrorf("cdata: schema child %d is nil", i)
			}
			if childFields[i], err = importSchema(c); err != nil {
				return
			}
		}
	}

	ret.Name = schemaName(schema)
	ret.Nullable = (int64(schema.flags) & FlagNullable) != 0

	md, err := cMetadata(schema.metadata)
	if err != nil {
		return
	}
	if ret.Metadata, err = decodeMetadata(md); err != nil {
		return
	}

	ret.Type, err = typeFromFormat(schemaFormat(schema), childFields)
	return
}

// checkDescriptor verifies the buffer and children arrays of arr are
// present for the counts it declares.
func checkDescriptor(arr *CArrowArray) error {
	if arr.n_buffers < 0 || (arr.n_buffers > 0 && arr.buffers == nil) {
		return interchangeErrorf("cdata: ArrowArray declares %d buffers without a buffers array", int64(arr.n_buffers))
	}
	if arr.n_children < 0 || (arr.n_children > 0 && arr.children == nil) {
		return interchangeErrorf("cdata: ArrowArray declares %d children without a children array", int64(arr.n_children))
	}
	return nil
}

// moveArray moves src into newly allocated C memory, marking src
// released. The result is freed by the importAllocator.
func moveArray(src *CArrowArray) *CArrowArray {
	dst := C.get_arr()
	C.ArrowArrayMove(src, dst)
	return dst
}

// cHandle reads an ArrowArray, interpreting it with the given field.
type cHandle struct {
	field arrow.Field
	arr   *CArrowArray
	alloc *importAllocator
}

func (h *cHandle) Field() arrow.Field { return h.field }
func (h *cHandle) Len() int64         { return int64(h.arr.length) }
func (h *cHandle) Offset() int64      { return int64(h.arr.offset) }
func (h *cHandle) NullCount() int64   { return int64(h.arr.null_count) }
func (h *cHandle) NumBuffers() int    { return int(h.arr.n_buffers) }
func (h *cHandle) NumChildren() int   { return int(h.arr.n_children) }

func (h *cHandle) buffers() []unsafe.Pointer {
	if h.arr.n_buffers <= 0 {
		return nil
	}
	return unsafe.Slice(h.arr.buffers, h.arr.n_buffers)
}

// knownSize returns the byte length of the buffer starting at p when the
// descriptor was produced by ExportArrowArray, or -1.
func (h *cHandle) knownSize(p unsafe.Pointer) int64 {
	data, ok := exportedData(h.arr)
	if !ok {
		return -1
	}
	for _, b := range data.Buffers() {
		if b != nil && b.Addr() == p {
			return int64(b.Len())
		}
	}
	return -1
}

func (h *cHandle) view(i int, sz int64) (*memory.Buffer, error) {
	bufs := h.buffers()
	if i < 0 || i >= len(bufs) {
		return nil, interchangeErrorf("cdata: buffer %d out of range for imported type %s, ArrowArray has %d", i, h.field.Type, len(bufs))
	}

	// this is not a copy, we're just having a slice which points at the data
	// it's still owned by the C.ArrowArray object and its producer.
	p := bufs[i]
	if p == nil {
		if sz != 0 {
			return nil, interchangeErrorf("cdata: buffer %d of imported type %s is absent", i, h.field.Type)
		}
		return memory.NewBufferBytes([]byte{}), nil
	}

	if known := h.knownSize(p); known >= 0 && known < sz {
		return nil, interchangeErrorf("cdata: buffer %d of imported type %s too small: %d bytes, need %d", i, h.field.Type, known, sz)
	}

	h.alloc.addBuffer()
	return memory.NewBufferWithAllocator(unsafe.Slice((*byte)(p), sz), h.alloc), nil
}

func (h *cHandle) Buffer(i int, byteWidth int64) (*memory.Buffer, error) {
	sz, ok := bufferSize(byteWidth, h.Offset(), h.Len())
	if !ok || byteWidth <= 0 {
		return nil, interchangeErrorf("cdata: invalid size for buffer %d: width %d, offset %d, length %d", i, byteWidth, h.Offset(), h.Len())
	}
	return h.view(i, sz)
}

func (h *cHandle) Bitmap(i int) (*memory.Buffer, error) {
	bufs := h.buffers()
	if i < 0 || i >= len(bufs) {
		return nil, interchangeErrorf("cdata: bitmap %d out of range for imported type %s", i, h.field.Type)
	}

	if bufs[i] == nil {
		if h.NullCount() != 0 {
			return nil, interchangeErrorf("cdata: ArrowArray struct has no null bitmap buffer, but non-zero null_count %d", h.NullCount())
		}
		return nil, nil
	}

	n, ok := overflow.Add64(h.Offset(), h.Len())
	if !ok || n < 0 {
		return nil, interchangeErrorf("cdata: invalid bitmap size: offset %d, length %d", h.Offset(), h.Len())
	}
	return h.view(i, bitutil.BytesForBits(n))
}

func (h *cHandle) Child(i int) (ArrayHandle, error) {
	if i < 0 || i >= h.NumChildren() {
		return nil, interchangeErrorf("cdata: child %d missing for imported type %s", i, h.field.Type)
	}

	child := unsafe.Slice(h.arr.children, h.arr.n_children)[i]
	if child == nil || arrayIsReleased(child) {
		return nil, interchangeErrorf("cdata: child %d missing for imported type %s", i, h.field.Type)
	}
	if err := checkDescriptor(child); err != nil {
		return nil, err
	}

	nt, ok := h.field.Type.(arrow.NestedType)
	if !ok || i >= nt.NumFields() {
		return nil, interchangeErrorf("cdata: imported type %s has no field %d", h.field.Type, i)
	}

	return &cHandle{field: nt.Fields()[i], arr: child, alloc: h.alloc}, nil
}

var _ ArrayHandle = (*cHandle)(nil)
