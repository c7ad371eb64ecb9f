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

// #include <stdint.h>
// #include <stdlib.h>
// #include "arrow/c/abi.h"
// #include "arrow/c/helpers.h"
//
// extern void releaseExportedSchema(struct ArrowSchema* schema);
// extern void releaseExportedArray(struct ArrowArray* array);
//
// void goReleaseArray(struct ArrowArray* array) {
//	releaseExportedArray(array);
// }
// void goReleaseSchema(struct ArrowSchema* schema) {
//	releaseExportedSchema(schema);
// }
import "C"

import (
	"runtime/cgo"
	"unsafe"

	"github.com/columnar-io/colarrow/arrow"
)

type schemaExporter struct {
	format, name string

	metadata []byte
	flags    int64
	children []schemaExporter
}

func (exp *schemaExporter) export(field arrow.Field) error {
	var err error
	if exp.format, err = exportFormat(field.Type); err != nil {
		return err
	}

	exp.name = field.Name
	if field.Nullable {
		exp.flags |= FlagNullable
	}
	exp.metadata = encodeMetadata(field.Metadata.Keys(), field.Metadata.Values())

	if nt, ok := field.Type.(arrow.NestedType); ok {
		fields := nt.Fields()
		exp.children = make([]schemaExporter, len(fields))
		for i, f := range fields {
			if err := exp.children[i].export(f); err != nil {
				return err
			}
		}
	}
	return nil
}

func (exp *schemaExporter) finish(out *CArrowSchema) {
	out.dictionary = nil
	out.name = C.CString(exp.name)
	out.format = C.CString(exp.format)
	out.metadata = nil
	if len(exp.metadata) > 0 {
		out.metadata = (*C.char)(C.CBytes(exp.metadata))
	}
	out.flags = C.int64_t(exp.flags)
	out.n_children = C.int64_t(len(exp.children))

	if len(exp.children) > 0 {
		children := allocateArrowSchemaArr(len(exp.children))
		childPtrs := allocateArrowSchemaPtrArr(len(exp.children))

		for i, c := range exp.children {
			c.finish(&children[i])
			childPtrs[i] = &children[i]
		}

		out.children = (**CArrowSchema)(unsafe.Pointer(&childPtrs[0]))
	} else {
		out.children = nil
	}

	out.private_data = nil
	out.release = (*[0]byte)(C.goReleaseSchema)
}

func exportField(field arrow.Field, out *CArrowSchema) error {
	var exp schemaExporter
	if err := exp.export(field); err != nil {
		return err
	}
	exp.finish(out)
	return nil
}

func exportArray(data arrow.ArrayData, out *CArrowArray) {
	bufs, children, offset := exportBuffers(data)

	out.dictionary = nil
	out.length = C.int64_t(data.Len())
	out.null_count = C.int64_t(data.NullN())
	out.offset = C.int64_t(offset)
	out.n_buffers = C.int64_t(len(bufs))
	out.buffers = nil
	if len(bufs) > 0 {
		cbufs := allocateBufferPtrArr(len(bufs))
		copy(cbufs, bufs)
		out.buffers = &cbufs[0]
	}

	out.n_children = C.int64_t(len(children))
	out.children = nil
	if len(children) > 0 {
		childPtrs := allocateArrowArrayPtrArr(len(children))
		carrs := allocateArrowArrayArr(len(children))
		for i, c := range children {
			exportArray(c, &carrs[i])
			childPtrs[i] = &carrs[i]
			c.Release()
		}
		out.children = (**CArrowArray)(unsafe.Pointer(&childPtrs[0]))
	}

	data.Retain()
	out.private_data = createHandle(cgo.NewHandle(data))
	out.release = (*[0]byte)(C.goReleaseArray)
}

// exportedData returns the array data kept alive by arr when it was
// filled by exportArray.
func exportedData(arr *CArrowArray) (arrow.ArrayData, bool) {
	if arr.release != (*[0]byte)(C.goReleaseArray) || arr.private_data == nil {
		return nil, false
	}
	data, ok := getHandle(arr.private_data).Value().(arrow.ArrayData)
	return data, ok
}
