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

// #include "arrow/c/helpers.h"
import "C"

import (
	"github.com/columnar-io/colarrow/arrow"
	"golang.org/x/xerrors"
)

// ImportCArrowField takes a *CArrowSchema and imports it as a single
// Arrow Field. The schema is released, even on error.
func ImportCArrowField(out *CArrowSchema) (arrow.Field, error) {
	defer ReleaseCArrowSchema(out)
	return importSchema(out)
}

// ImportCArrayWithType takes ownership of arr, moving it and marking the
// source released, and imports it as an array of type dt. The memory
// stays owned by the producer: its release callback runs once every
// buffer of the returned array has been released, or immediately if the
// import fails.
func ImportCArrayWithType(arr *CArrowArray, dt arrow.DataType) (arrow.Array, error) {
	if arr == nil || arrayIsReleased(arr) {
		return nil, interchangeErrorf("cdata: cannot import released array")
	}

	imp := moveArray(arr)
	alloc := newImportAllocator(imp)
	// drop the reference held for the duration of the import
	defer alloc.Free(nil)

	if err := checkDescriptor(imp); err != nil {
		return nil, err
	}

	return ImportArray(&cHandle{field: arrow.Field{Type: dt}, arr: imp, alloc: alloc})
}

// ImportCArray imports the array described by arr using the type
// described by schema. Both descriptors are consumed: the schema is
// released and ownership of arr moves to the returned array.
func ImportCArray(arr *CArrowArray, schema *CArrowSchema) (arrow.Field, arrow.Array, error) {
	field, err := ImportCArrowField(schema)
	if err != nil {
		ReleaseCArrowArray(arr)
		return field, nil, err
	}

	ret, err := ImportCArrayWithType(arr, field.Type)
	return field, ret, err
}

// ExportArrowSchema populates the passed in CArrowSchema with the
// description of an unnamed nullable field of type dt.
func ExportArrowSchema(dt arrow.DataType, out *CArrowSchema) error {
	return ExportField(arrow.Field{Type: dt, Nullable: true}, out)
}

// ExportField populates out with the description of field, including
// its name, nullability and metadata. The caller must release out.
func ExportField(field arrow.Field, out *CArrowSchema) error {
	if field.Type == nil {
		return xerrors.Errorf("cdata: cannot export field %q without type: %w", field.Name, arrow.ErrInvalid)
	}
	return exportField(field, out)
}

// ExportArrowArray populates out with the buffers of arr, and outSchema
// with its type if it is not nil. No array memory is copied: out holds a
// reference to the array data until it is released, so arr itself may be
// released as soon as this returns. Nothing is exported on error.
func ExportArrowArray(arr arrow.Array, out *CArrowArray, outSchema *CArrowSchema) error {
	var exp schemaExporter
	if err := exp.export(arrow.Field{Type: arr.DataType(), Nullable: true}); err != nil {
		return err
	}
	if outSchema != nil {
		exp.finish(outSchema)
	}

	exportArray(arr.Data(), out)
	return nil
}

// ReleaseCArrowArray calls the release callback of arr if it has not
// been released yet.
func ReleaseCArrowArray(arr *CArrowArray) {
	if arr != nil {
		C.ArrowArrayRelease(arr)
	}
}

// ReleaseCArrowSchema calls the release callback of schema if it has not
// been released yet.
func ReleaseCArrowSchema(schema *CArrowSchema) {
	if schema != nil {
		C.ArrowSchemaRelease(schema)
	}
}
