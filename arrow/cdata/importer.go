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
	"github.com/columnar-io/colarrow/arrow"
	"github.com/columnar-io/colarrow/arrow/array"
	"github.com/columnar-io/colarrow/arrow/memory"
	"golang.org/x/xerrors"
)

// importer to keep track when importing ArrayHandle objects.
type importer struct {
	h  ArrayHandle
	dt arrow.DataType

	data     arrow.ArrayData
	children []arrow.ArrayData
	// buffer views taken from the handle; our own references are dropped
	// once the import finishes, successfully or not.
	bufs []*memory.Buffer
}

func importData(h ArrayHandle) (arrow.ArrayData, error) {
	imp := &importer{h: h, dt: h.Field().Type}
	defer imp.releaseBuffers()

	if err := imp.doImport(); err != nil {
		for _, c := range imp.children {
			c.Release()
		}
		return nil, err
	}

	for _, c := range imp.children {
		c.Release()
	}
	return imp.data, nil
}

func (imp *importer) releaseBuffers() {
	for _, b := range imp.bufs {
		if b != nil {
			b.Release()
		}
	}
	imp.bufs = nil
}

func (imp *importer) track(b *memory.Buffer) *memory.Buffer {
	imp.bufs = append(imp.bufs, b)
	return b
}

// import any child arrays declared by the data type.
func (imp *importer) doImportChildren() error {
	nt, ok := imp.dt.(arrow.NestedType)
	if !ok {
		return imp.checkNoChildren()
	}

	if err := imp.checkNumChildren(int64(nt.NumFields())); err != nil {
		return err
	}

	imp.children = make([]arrow.ArrayData, 0, nt.NumFields())
	for i := 0; i < nt.NumFields(); i++ {
		ch, err := imp.h.Child(i)
		if err != nil {
			return err
		}
		data, err := importData(ch)
		if err != nil {
			return xerrors.Errorf("cdata: importing child %d of %s: %w", i, imp.dt, err)
		}
		imp.children = append(imp.children, data)
	}
	return nil
}

func (imp *importer) doImport() error {
	if err := imp.doImportChildren(); err != nil {
		return err
	}

	// handle each of our type cases
	switch dt := imp.dt.(type) {
	case *arrow.DenseUnionType:
		return imp.importUnion(dt)
	case *arrow.SparseUnionType:
		return imp.importUnion(dt)
	case arrow.FixedWidthDataType:
		return imp.importFixedSizePrimitive(dt)
	default:
		return xerrors.Errorf("cdata: import of type %s: %w", dt, arrow.ErrNotImplemented)
	}
}

func (imp *importer) importFixedSizePrimitive(fw arrow.FixedWidthDataType) error {
	if err := imp.checkNumBuffers(2); err != nil {
		return err
	}

	nulls, err := imp.h.Bitmap(0)
	if err != nil {
		return err
	}
	imp.track(nulls)

	if fw.BitWidth()%8 != 0 {
		return xerrors.Errorf("cdata: import of bit width %d: %w", fw.BitWidth(), arrow.ErrNotImplemented)
	}

	values, err := imp.h.Buffer(1, int64(fw.BitWidth()/8))
	if err != nil {
		return err
	}
	imp.track(values)

	imp.data = array.NewData(imp.dt, int(imp.h.Len()), []*memory.Buffer{nulls, values}, nil, int(imp.h.NullCount()), int(imp.h.Offset()))
	return nil
}

func (imp *importer) importUnion(dt arrow.UnionType) error {
	if err := imp.checkNoNulls(); err != nil {
		return err
	}

	// buffers start after the validity slot exported by older producers
	first := 0
	switch n := imp.h.NumBuffers(); {
	case dt.Mode() == arrow.SparseMode && n == 2, dt.Mode() == arrow.DenseMode && n == 3:
		first = 1
	case dt.Mode() == arrow.SparseMode:
		if err := imp.checkNumBuffers(1); err != nil {
			return err
		}
	default:
		if err := imp.checkNumBuffers(2); err != nil {
			return err
		}
	}

	_, ids, err := TypedBuffer[arrow.UnionTypeCode](imp.h, first)
	if err != nil {
		return err
	}
	imp.track(ids)

	bufs := []*memory.Buffer{nil, ids}
	if dt.Mode() == arrow.DenseMode {
		_, offsets, err := TypedBuffer[int32](imp.h, first+1)
		if err != nil {
			return err
		}
		bufs = append(bufs, imp.track(offsets))
	}

	data := array.NewData(dt, int(imp.h.Len()), bufs, imp.children, 0, int(imp.h.Offset()))
	arr := array.MakeFromData(data).(array.Union)
	defer arr.Release()
	if err := arr.Validate(); err != nil {
		data.Release()
		return interchangeErrorf("cdata: imported union is inconsistent (%s)", err)
	}

	imp.data = data
	return nil
}

func (imp *importer) checkNoChildren() error { return imp.checkNumChildren(0) }

func (imp *importer) checkNoNulls() error {
	if imp.h.NullCount() != 0 {
		return interchangeErrorf("cdata: unexpected non-zero null count %d for imported type %s", imp.h.NullCount(), imp.dt)
	}
	return nil
}

func (imp *importer) checkNumChildren(n int64) error {
	if int64(imp.h.NumChildren()) != n {
		return interchangeErrorf("cdata: expected %d children, for imported type %s, ArrowArray has %d", n, imp.dt, imp.h.NumChildren())
	}
	return nil
}

func (imp *importer) checkNumBuffers(n int64) error {
	if int64(imp.h.NumBuffers()) != n {
		return interchangeErrorf("cdata: expected %d buffers for imported type %s, ArrowArray has %d", n, imp.dt, imp.h.NumBuffers())
	}
	return nil
}
