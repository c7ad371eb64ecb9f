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
	"bytes"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/columnar-io/colarrow/arrow"
	"github.com/columnar-io/colarrow/arrow/internal/debug"
	"github.com/columnar-io/colarrow/arrow/memory"
	"github.com/goccy/go-json"
)

// Union is the common interface of SparseUnion and DenseUnion.
//
// The buffers of a union are [nil, type ids, value offsets?]; unions
// carry no validity bitmap of their own. The union's offset is applied
// to the type ids by the array view only: TypeCodes returns exactly Len
// codes, while the value offsets and the children are left unsliced and
// are addressed with Offset()+i.
type Union interface {
	arrow.Array
	Validate() error
	ValidateFull() error
	// TypeCodes returns the type code of every slot of the array.
	TypeCodes() []arrow.UnionTypeCode
	// RawTypeCodes returns the unsliced type id buffer contents.
	RawTypeCodes() []arrow.UnionTypeCode
	TypeCodesBuffer() *memory.Buffer
	TypeCode(i int) arrow.UnionTypeCode
	ChildID(i int) int
	// ChildRow returns the row of Field(ChildID(i)) holding slot i.
	ChildRow(i int) int
	UnionType() arrow.UnionType
	Mode() arrow.UnionMode
	NumFields() int
	Field(pos int) arrow.Array
	Offset() int
}

type union struct {
	array

	unionType    arrow.UnionType
	rawTypeCodes []arrow.UnionTypeCode
	typecodes    []arrow.UnionTypeCode

	children []arrow.Array
}

// Release decreases the reference count by 1, releasing the children
// along with the union data when it reaches zero.
func (a *union) Release() {
	debug.Assert(atomic.LoadInt64(&a.refCount) > 0, "too many releases")

	if atomic.AddInt64(&a.refCount, -1) == 0 {
		for _, c := range a.children {
			c.Release()
		}
		a.data.Release()
		a.data, a.children = nil, nil
		a.rawTypeCodes, a.typecodes = nil, nil
	}
}

func (a *union) NumFields() int { return a.unionType.NumFields() }

func (a *union) Mode() arrow.UnionMode { return a.unionType.Mode() }

func (a *union) UnionType() arrow.UnionType { return a.unionType }

func (a *union) TypeCodesBuffer() *memory.Buffer { return a.data.buffers[1] }

func (a *union) TypeCodes() []arrow.UnionTypeCode { return a.typecodes }

func (a *union) RawTypeCodes() []arrow.UnionTypeCode { return a.rawTypeCodes }

func (a *union) TypeCode(i int) arrow.UnionTypeCode { return a.typecodes[i] }

func (a *union) ChildID(i int) int {
	return a.unionType.ChildIDs()[a.typecodes[i]]
}

func (a *union) setData(data *Data) {
	a.array.setData(data)
	a.unionType = data.dtype.(arrow.UnionType)
	debug.Assert(len(data.buffers) >= 2, "arrow/array: invalid number of union array buffers")

	a.rawTypeCodes = nil
	if data.buffers[1] != nil {
		a.rawTypeCodes = arrow.CastFromBytesTo[arrow.UnionTypeCode](data.buffers[1].Bytes())
	}
	a.typecodes = nil
	if len(a.rawTypeCodes) >= data.offset+data.length {
		a.typecodes = a.rawTypeCodes[data.offset : data.offset+data.length]
	}

	a.children = make([]arrow.Array, len(data.childData))
	for i, child := range data.childData {
		a.children[i] = MakeFromData(child)
	}
}

// Field returns the unsliced child array at pos, or nil when pos is out
// of range.
func (a *union) Field(pos int) arrow.Array {
	if pos < 0 || pos >= len(a.children) {
		return nil
	}
	return a.children[pos]
}

func (a *union) Validate() error {
	fields := a.unionType.Fields()
	if len(fields) != len(a.data.childData) {
		return fmt.Errorf("%w: union type declares %d fields, array has %d children",
			arrow.ErrInvalid, len(fields), len(a.data.childData))
	}
	if len(a.rawTypeCodes) < a.data.offset+a.data.length {
		return fmt.Errorf("%w: union type id buffer too small (%d < %d)",
			arrow.ErrInvalid, len(a.rawTypeCodes), a.data.offset+a.data.length)
	}

	for i, f := range fields {
		fieldData := a.data.childData[i]
		if a.unionType.Mode() == arrow.SparseMode && fieldData.Len() < a.data.length+a.data.offset {
			return fmt.Errorf("%w: sparse union child array #%d has length smaller than expected for union array (%d < %d)",
				arrow.ErrInvalid, i, fieldData.Len(), a.data.length+a.data.offset)
		}

		if !arrow.TypeEqual(f.Type, fieldData.DataType()) {
			return fmt.Errorf("%w: union child array #%d does not match type field %s vs %s",
				arrow.ErrInvalid, i, fieldData.DataType(), f.Type)
		}
	}
	return nil
}

func (a *union) ValidateFull() error {
	if err := a.Validate(); err != nil {
		return err
	}

	childIDs := a.unionType.ChildIDs()
	for i, code := range a.typecodes {
		if code < 0 || childIDs[code] == arrow.InvalidUnionChildID {
			return fmt.Errorf("%w: union value at position %d has invalid type id %d", arrow.ErrInvalid, i, code)
		}
	}
	return nil
}

func (a *union) getOneForMarshal(i int, row int) interface{} {
	child := a.children[a.ChildID(i)]
	return []interface{}{a.typecodes[i], child.GetOneForMarshal(row)}
}

func (a *union) marshalJSON(rowOf func(int) int) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	buf.WriteByte('[')
	for i := 0; i < a.Len(); i++ {
		if i != 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(a.getOneForMarshal(i, rowOf(i))); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func (a *union) format(rowOf func(int) int) string {
	var b strings.Builder
	b.WriteByte('[')

	fieldList := a.unionType.Fields()
	for i := 0; i < a.Len(); i++ {
		if i > 0 {
			b.WriteString(" ")
		}

		id := a.ChildID(i)
		fmt.Fprintf(&b, "{%s=%s}", fieldList[id].Name, a.children[id].ValueStr(rowOf(i)))
	}
	b.WriteByte(']')
	return b.String()
}

func (a *union) valueStr(i, row int) string {
	if a.children[a.ChildID(i)].IsNull(row) {
		return NullValueStr
	}
	val, err := json.Marshal(a.getOneForMarshal(i, row))
	if err != nil {
		panic(err)
	}
	return string(val)
}

// SparseUnion represents a union array where every child has at least
// offset+length elements and slot i of the union is row Offset()+i of
// the child selected by its type code.
type SparseUnion struct {
	union
}

// NewSparseUnion constructs a union array using the given type, length,
// list of children and buffer of typeIDs with the given offset.
func NewSparseUnion(dt *arrow.SparseUnionType, length int, children []arrow.Array, typeIDs *memory.Buffer, offset int) *SparseUnion {
	childData := make([]arrow.ArrayData, len(children))
	for i, c := range children {
		childData[i] = c.Data()
	}
	data := NewData(dt, length, []*memory.Buffer{nil, typeIDs}, childData, 0, offset)
	defer data.Release()
	return NewSparseUnionData(data)
}

// NewSparseUnionData constructs a SparseUnion array from the given ArrayData object.
func NewSparseUnionData(data arrow.ArrayData) *SparseUnion {
	a := &SparseUnion{}
	a.refCount = 1
	a.setData(data.(*Data))
	return a
}

// NewSparseUnionFromArrays constructs a new SparseUnion array from an
// int8 array of type ids and a list of children. fields names the
// children ("0", "1", ... when empty) and codes lists their type codes
// (0, 1, ... when empty).
func NewSparseUnionFromArrays(typeIDs arrow.Array, children []arrow.Array, fields []string, codes []arrow.UnionTypeCode) (*SparseUnion, error) {
	if err := checkUnionInputs(typeIDs, children, fields, codes); err != nil {
		return nil, err
	}

	for _, c := range children {
		if c.Len() != typeIDs.Len() {
			return nil, fmt.Errorf("%w: sparse union array must have len(child) == len(typeids) for all children", arrow.ErrInvalid)
		}
	}

	ids := offsetFreeBuffer(typeIDs, 1, arrow.Int8SizeBytes)
	defer ids.Release()

	ty := arrow.SparseUnionFromArrays(children, fields, codes)
	out := NewSparseUnion(ty, typeIDs.Len(), children, ids, 0)
	if err := out.ValidateFull(); err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}

func (a *SparseUnion) setData(data *Data) {
	a.union.setData(data)
	debug.Assert(a.data.dtype.ID() == arrow.SPARSE_UNION, "arrow/array: invalid data type for SparseUnion")
	debug.Assert(len(a.data.buffers) == 2, "arrow/array: sparse unions should have exactly 2 buffers")
	debug.Assert(a.data.buffers[0] == nil, "arrow/array: validity bitmap for sparse unions should be nil")
}

func (a *SparseUnion) ChildRow(i int) int { return a.data.offset + i }

// IsNull reports whether the child value selected by slot i is null.
func (a *SparseUnion) IsNull(i int) bool {
	return a.children[a.ChildID(i)].IsNull(a.ChildRow(i))
}

func (a *SparseUnion) IsValid(i int) bool { return !a.IsNull(i) }

func (a *SparseUnion) GetOneForMarshal(i int) interface{} {
	return a.getOneForMarshal(i, a.ChildRow(i))
}

func (a *SparseUnion) ValueStr(i int) string { return a.valueStr(i, a.ChildRow(i)) }

func (a *SparseUnion) MarshalJSON() ([]byte, error) { return a.marshalJSON(a.ChildRow) }

func (a *SparseUnion) String() string { return a.format(a.ChildRow) }

// DenseUnion represents a union array where slot i is row
// RawValueOffsets()[Offset()+i] of the child selected by its type code.
// Each child only holds the values that are referenced.
type DenseUnion struct {
	union
	rawOffsets []int32
	offsets    []int32
}

// NewDenseUnion constructs a union array using the given type, length,
// list of children and buffers of typeIDs and value offsets, with the
// given array offset.
func NewDenseUnion(dt *arrow.DenseUnionType, length int, children []arrow.Array, typeIDs, valueOffsets *memory.Buffer, offset int) *DenseUnion {
	childData := make([]arrow.ArrayData, len(children))
	for i, c := range children {
		childData[i] = c.Data()
	}

	data := NewData(dt, length, []*memory.Buffer{nil, typeIDs, valueOffsets}, childData, 0, offset)
	defer data.Release()
	return NewDenseUnionData(data)
}

// NewDenseUnionData constructs a DenseUnion array from the given ArrayData object.
func NewDenseUnionData(data arrow.ArrayData) *DenseUnion {
	a := &DenseUnion{}
	a.refCount = 1
	a.setData(data.(*Data))
	return a
}

// NewDenseUnionFromArrays constructs a new DenseUnion array from an int8
// array of type ids, an int32 array of child offsets and the list of
// children. fields and codes default as for NewSparseUnionFromArrays.
func NewDenseUnionFromArrays(typeIDs, offsets arrow.Array, children []arrow.Array, fields []string, codes []arrow.UnionTypeCode) (*DenseUnion, error) {
	if err := checkUnionInputs(typeIDs, children, fields, codes); err != nil {
		return nil, err
	}

	switch {
	case offsets.DataType().ID() != arrow.INT32:
		return nil, fmt.Errorf("%w: union offsets must be signed int32", arrow.ErrInvalid)
	case offsets.NullN() != 0:
		return nil, fmt.Errorf("%w: union offsets may not have nulls", arrow.ErrInvalid)
	case offsets.Len() != typeIDs.Len():
		return nil, fmt.Errorf("%w: union offsets must have the same length as type ids", arrow.ErrInvalid)
	}

	ids := offsetFreeBuffer(typeIDs, 1, arrow.Int8SizeBytes)
	defer ids.Release()
	offs := offsetFreeBuffer(offsets, 1, arrow.Int32SizeBytes)
	defer offs.Release()

	ty := arrow.DenseUnionFromArrays(children, fields, codes)
	out := NewDenseUnion(ty, typeIDs.Len(), children, ids, offs, 0)
	if err := out.ValidateFull(); err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}

func (a *DenseUnion) setData(data *Data) {
	a.union.setData(data)
	debug.Assert(a.data.dtype.ID() == arrow.DENSE_UNION, "arrow/array: invalid data type for DenseUnion")
	debug.Assert(len(a.data.buffers) == 3, "arrow/array: dense unions should have exactly 3 buffers")
	debug.Assert(a.data.buffers[0] == nil, "arrow/array: validity bitmap for dense unions should be nil")

	a.rawOffsets, a.offsets = nil, nil
	if len(data.buffers) > 2 && data.buffers[2] != nil {
		a.rawOffsets = arrow.CastFromBytesTo[int32](data.buffers[2].Bytes())
		if len(a.rawOffsets) >= data.offset+data.length {
			a.offsets = a.rawOffsets[data.offset : data.offset+data.length]
		}
	}
}

func (a *DenseUnion) Release() {
	a.union.Release()
	if a.data == nil {
		a.rawOffsets, a.offsets = nil, nil
	}
}

// ValueOffsetsBuffer returns the unsliced buffer of child offsets.
func (a *DenseUnion) ValueOffsetsBuffer() *memory.Buffer { return a.data.buffers[2] }

// ValueOffsets returns the child offset of every slot of the array.
func (a *DenseUnion) ValueOffsets() []int32 { return a.offsets }

// RawValueOffsets returns the unsliced child offsets.
func (a *DenseUnion) RawValueOffsets() []int32 { return a.rawOffsets }

func (a *DenseUnion) ValueOffset(i int) int32 { return a.offsets[i] }

func (a *DenseUnion) ChildRow(i int) int { return int(a.offsets[i]) }

// IsNull reports whether the child value selected by slot i is null.
func (a *DenseUnion) IsNull(i int) bool {
	return a.children[a.ChildID(i)].IsNull(a.ChildRow(i))
}

func (a *DenseUnion) IsValid(i int) bool { return !a.IsNull(i) }

func (a *DenseUnion) GetOneForMarshal(i int) interface{} {
	return a.getOneForMarshal(i, a.ChildRow(i))
}

func (a *DenseUnion) ValueStr(i int) string { return a.valueStr(i, a.ChildRow(i)) }

func (a *DenseUnion) MarshalJSON() ([]byte, error) { return a.marshalJSON(a.ChildRow) }

func (a *DenseUnion) String() string { return a.format(a.ChildRow) }

func (a *DenseUnion) Validate() error {
	if err := a.union.Validate(); err != nil {
		return err
	}
	if a.offsets == nil && a.data.length > 0 {
		return fmt.Errorf("%w: dense union value offsets buffer missing or too small", arrow.ErrInvalid)
	}
	return nil
}

func (a *DenseUnion) ValidateFull() error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := a.union.ValidateFull(); err != nil {
		return err
	}

	codesMap := a.unionType.TypeCodes()

	// map logical typeid to child length
	var childLengths [256]int64
	for i := range codesMap {
		childLengths[codesMap[i]] = int64(a.data.childData[i].Len())
	}

	var lastOffsets [256]int64
	for i, offset := range a.offsets {
		code := a.typecodes[i]
		switch {
		case offset < 0:
			return fmt.Errorf("%w: union value at position %d has negative offset %d", arrow.ErrInvalid, i, offset)
		case int64(offset) >= childLengths[code]:
			return fmt.Errorf("%w: union value at position %d has offset larger than child length (%d >= %d)",
				arrow.ErrInvalid, i, offset, childLengths[code])
		case int64(offset) < lastOffsets[code]:
			return fmt.Errorf("%w: union value at position %d has non-monotonic offset %d", arrow.ErrInvalid, i, offset)
		}
		lastOffsets[code] = int64(offset)
	}
	return nil
}

func checkUnionInputs(typeIDs arrow.Array, children []arrow.Array, fields []string, codes []arrow.UnionTypeCode) error {
	switch {
	case typeIDs.DataType().ID() != arrow.INT8:
		return fmt.Errorf("%w: union array type ids must be signed int8", arrow.ErrInvalid)
	case typeIDs.NullN() != 0:
		return fmt.Errorf("%w: union type ids may not have nulls", arrow.ErrInvalid)
	case len(fields) > 0 && len(fields) != len(children):
		return fmt.Errorf("%w: field names must have the same length as children", arrow.ErrInvalid)
	case len(codes) > 0 && len(codes) != len(children):
		return fmt.Errorf("%w: type codes must have same length as children", arrow.ErrInvalid)
	}
	return nil
}

// offsetFreeBuffer returns buffer idx of arr as a view starting at the
// array's first element, so the union built from it has offset zero.
func offsetFreeBuffer(arr arrow.Array, idx, width int) *memory.Buffer {
	data := arr.Data()
	buf := data.Buffers()[idx]
	if buf == nil {
		return memory.NewBufferBytes(nil)
	}
	return memory.SliceBuffer(buf, data.Offset()*width, data.Len()*width)
}

var (
	_ Union = (*SparseUnion)(nil)
	_ Union = (*DenseUnion)(nil)
)
