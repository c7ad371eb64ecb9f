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

	"github.com/columnar-io/colarrow/arrow"
	"github.com/columnar-io/colarrow/arrow/array"
	"github.com/columnar-io/colarrow/arrow/bitutil"
	"github.com/columnar-io/colarrow/arrow/memory"
)

type ctxAllocKey struct{}

// WithAllocator returns a new context with the provided allocator
// embedded into the context.
func WithAllocator(ctx context.Context, mem memory.Allocator) context.Context {
	return context.WithValue(ctx, ctxAllocKey{}, mem)
}

// GetAllocator retrieves the allocator from the context, or returns
// memory.DefaultAllocator if there was no allocator in the provided
// context.
func GetAllocator(ctx context.Context) memory.Allocator {
	mem, ok := ctx.Value(ctxAllocKey{}).(memory.Allocator)
	if !ok {
		return memory.DefaultAllocator
	}
	return mem
}

// validity returns a new reference to a bitmap holding the validity of
// arr starting at bit zero, or nil if arr has no nulls. A byte aligned
// bitmap is shared rather than copied.
func validity(mem memory.Allocator, arr arrow.Array) *memory.Buffer {
	if arr.NullN() == 0 {
		return nil
	}

	data := arr.Data()
	bitmap := data.Buffers()[0]
	offset, length := data.Offset(), data.Len()
	if offset%8 == 0 {
		return memory.SliceBuffer(bitmap, offset/8, int(bitutil.BytesForBits(int64(length))))
	}
	return bitutil.CopyBitmapAlloc(mem, bitmap.Bytes(), offset, length)
}

// mergedValidity returns the AND of the validity of lhs and rhs, or nil
// when neither has nulls.
func mergedValidity(mem memory.Allocator, lhs, rhs arrow.Array) *memory.Buffer {
	switch {
	case lhs.NullN() == 0:
		return validity(mem, rhs)
	case rhs.NullN() == 0:
		return validity(mem, lhs)
	}

	l, r := lhs.Data(), rhs.Data()
	return bitutil.BitmapAndAlloc(mem, l.Buffers()[0].Bytes(), r.Buffers()[0].Bytes(),
		int64(l.Offset()), int64(r.Offset()), int64(l.Len()), 0)
}

// writableValidity returns a bitmap of length bits that can be modified,
// copying valid when it is shared or allocating an all valid one.
func writableValidity(mem memory.Allocator, valid *memory.Buffer, length int) *memory.Buffer {
	if valid != nil && valid.Parent() == nil {
		return valid
	}

	out := memory.NewResizableBuffer(mem)
	out.Resize(int(bitutil.BytesForBits(int64(length))))
	if valid != nil {
		bitutil.CopyBitmap(valid.Bytes(), 0, length, out.Bytes(), 0)
		valid.Release()
	} else {
		bitutil.SetBitsTo(out.Bytes(), 0, int64(length), true)
	}
	return out
}

func allocValues[O arrow.NumericType](mem memory.Allocator, n int) (*memory.Buffer, []O) {
	buf := memory.NewResizableBuffer(mem)
	buf.Resize(n * arrow.SizeOf[O]())
	out := arrow.CastFromBytesTo[O](buf.Bytes())
	var zero O
	for i := range out {
		out[i] = zero
	}
	return buf, out
}

// finish builds the output array, taking over the references to valid
// and values.
func finish[O arrow.NumericType](outType arrow.DataType, n int, valid, values *memory.Buffer) *array.Primitive[O] {
	nulls := 0
	if valid != nil {
		nulls = arrow.UnknownNullCount
		defer valid.Release()
	}
	defer values.Release()

	data := array.NewData(outType, n, []*memory.Buffer{valid, values}, nil, nulls, 0)
	defer data.Release()
	return array.NewPrimitiveData[O](data)
}

// Unary applies fn to every valid slot of arr. The result shares the
// validity of arr.
func Unary[T, O arrow.NumericType](ctx context.Context, arr *array.Primitive[T], fn func(T) O, outType arrow.DataType) *array.Primitive[O] {
	mem := GetAllocator(ctx)
	valid := validity(mem, arr)
	buf, out := allocValues[O](mem, arr.Len())

	in := arr.Values()
	if valid == nil {
		for i, v := range in {
			out[i] = fn(v)
		}
	} else {
		bitmap := valid.Bytes()
		for i, v := range in {
			if bitutil.BitIsSet(bitmap, i) {
				out[i] = fn(v)
			}
		}
	}
	return finish[O](outType, arr.Len(), valid, buf)
}

// UnaryChecked applies fn to every valid slot of arr, nulling the slots
// for which fn reports false.
func UnaryChecked[T, O arrow.NumericType](ctx context.Context, arr *array.Primitive[T], fn func(T) (O, bool), outType arrow.DataType) *array.Primitive[O] {
	mem := GetAllocator(ctx)
	valid := writableValidity(mem, validity(mem, arr), arr.Len())
	buf, out := allocValues[O](mem, arr.Len())

	bitmap := valid.Bytes()
	for i, v := range arr.Values() {
		if !bitutil.BitIsSet(bitmap, i) {
			continue
		}
		var ok bool
		if out[i], ok = fn(v); !ok {
			bitutil.ClearBit(bitmap, i)
		}
	}
	return finish[O](outType, arr.Len(), valid, buf)
}

func checkLengths(lhs, rhs arrow.Array) error {
	if lhs.Len() != rhs.Len() {
		return fmt.Errorf("%w: length mismatch: %d != %d", arrow.ErrInvalid, lhs.Len(), rhs.Len())
	}
	return nil
}

// Binary applies fn pairwise to the slots valid in both lhs and rhs,
// which must have the same length.
func Binary[T, U, O arrow.NumericType](ctx context.Context, lhs *array.Primitive[T], rhs *array.Primitive[U], fn func(T, U) O, outType arrow.DataType) (*array.Primitive[O], error) {
	if err := checkLengths(lhs, rhs); err != nil {
		return nil, err
	}

	mem := GetAllocator(ctx)
	valid := mergedValidity(mem, lhs, rhs)
	buf, out := allocValues[O](mem, lhs.Len())

	left, right := lhs.Values(), rhs.Values()
	if valid == nil {
		for i := range out {
			out[i] = fn(left[i], right[i])
		}
	} else {
		bitmap := valid.Bytes()
		for i := range out {
			if bitutil.BitIsSet(bitmap, i) {
				out[i] = fn(left[i], right[i])
			}
		}
	}
	return finish[O](outType, lhs.Len(), valid, buf), nil
}

// BinaryChecked is Binary with fn able to null a slot by reporting false.
func BinaryChecked[T, U, O arrow.NumericType](ctx context.Context, lhs *array.Primitive[T], rhs *array.Primitive[U], fn func(T, U) (O, bool), outType arrow.DataType) (*array.Primitive[O], error) {
	if err := checkLengths(lhs, rhs); err != nil {
		return nil, err
	}

	mem := GetAllocator(ctx)
	valid := writableValidity(mem, mergedValidity(mem, lhs, rhs), lhs.Len())
	buf, out := allocValues[O](mem, lhs.Len())

	left, right := lhs.Values(), rhs.Values()
	bitmap := valid.Bytes()
	for i := range out {
		if !bitutil.BitIsSet(bitmap, i) {
			continue
		}
		var ok bool
		if out[i], ok = fn(left[i], right[i]); !ok {
			bitutil.ClearBit(bitmap, i)
		}
	}
	return finish[O](outType, lhs.Len(), valid, buf), nil
}
