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
	"github.com/columnar-io/colarrow/arrow/compute/internal/kernels"
)

// ErrArithmeticFault is the error carried by the panic of an unchecked
// kernel that divides by zero or overflows.
var ErrArithmeticFault = kernels.ErrArithmeticFault

// ArithmeticOptions selects the behavior of the arithmetic convenience
// functions.
type ArithmeticOptions struct {
	// CheckOverflow nulls the slots that would divide by zero or
	// overflow instead of panicking.
	CheckOverflow bool `compute:"check_overflow"`
}

func divideFunc[T arrow.NumericType, F any](op kernels.ArithmeticOp, dt arrow.DataType) (F, error) {
	fn, ok := kernels.DivideOp[T](op).(F)
	if !ok {
		return fn, fmt.Errorf("%w: %s for type %s", arrow.ErrNotImplemented, op, dt)
	}
	return fn, nil
}

func checkSameType(lhs, rhs arrow.Array) error {
	if !arrow.TypeEqual(lhs.DataType(), rhs.DataType()) {
		return fmt.Errorf("%w: arithmetic operands must have identical types, got %s and %s",
			arrow.ErrInvalid, lhs.DataType(), rhs.DataType())
	}
	return nil
}

// Div divides lhs by rhs elementwise. Integer division by zero, and the
// overflowing division of the minimum signed value by -1, panic with an
// error wrapping ErrArithmeticFault. Floating point division follows
// IEEE 754.
func Div[T arrow.NumericType](ctx context.Context, lhs, rhs *array.Primitive[T]) (*array.Primitive[T], error) {
	if err := checkSameType(lhs, rhs); err != nil {
		return nil, err
	}
	fn, err := divideFunc[T, func(T, T) T](kernels.OpDiv, lhs.DataType())
	if err != nil {
		return nil, err
	}
	return Binary(ctx, lhs, rhs, fn, lhs.DataType())
}

// CheckedDiv divides lhs by rhs elementwise, producing a null wherever
// the division would fault. A zero divisor yields a null for floating
// point types too.
func CheckedDiv[T arrow.NumericType](ctx context.Context, lhs, rhs *array.Primitive[T]) (*array.Primitive[T], error) {
	if err := checkSameType(lhs, rhs); err != nil {
		return nil, err
	}
	fn, err := divideFunc[T, func(T, T) (T, bool)](kernels.OpDivChecked, lhs.DataType())
	if err != nil {
		return nil, err
	}
	return BinaryChecked(ctx, lhs, rhs, fn, lhs.DataType())
}

// reducedDivide returns a division by the unsigned scalar s computed
// with a precomputed multiply and shift, or nil for other types.
func reducedDivide[T arrow.NumericType](s T) func(T) T {
	switch s := any(s).(type) {
	case uint8:
		r := kernels.NewReducedDivisor(s)
		return any(r.Div).(func(T) T)
	case uint16:
		r := kernels.NewReducedDivisor(s)
		return any(r.Div).(func(T) T)
	case uint32:
		r := kernels.NewReducedDivisor(s)
		return any(r.Div).(func(T) T)
	case uint64:
		r := kernels.NewReducedDivisor(s)
		return any(r.Div).(func(T) T)
	}
	return nil
}

// DivScalar divides every element of arr by s. A zero integer divisor
// panics with an error wrapping ErrArithmeticFault.
func DivScalar[T arrow.NumericType](ctx context.Context, arr *array.Primitive[T], s T) (*array.Primitive[T], error) {
	if fn := reducedDivide(s); fn != nil {
		return Unary(ctx, arr, fn, arr.DataType()), nil
	}

	div, err := divideFunc[T, func(T, T) T](kernels.OpDiv, arr.DataType())
	if err != nil {
		return nil, err
	}
	return Unary(ctx, arr, func(v T) T { return div(v, s) }, arr.DataType()), nil
}

// CheckedDivScalar divides every element of arr by s, producing a null
// wherever the division would fault. A zero divisor nulls every
// element.
func CheckedDivScalar[T arrow.NumericType](ctx context.Context, arr *array.Primitive[T], s T) (*array.Primitive[T], error) {
	div, err := divideFunc[T, func(T, T) (T, bool)](kernels.OpDivChecked, arr.DataType())
	if err != nil {
		return nil, err
	}
	return UnaryChecked(ctx, arr, func(v T) (T, bool) { return div(v, s) }, arr.DataType()), nil
}

// Divide divides lhs by rhs, which must be numeric arrays of the same
// type, selecting CheckedDiv or Div through opts.
func Divide(ctx context.Context, opts ArithmeticOptions, lhs, rhs arrow.Array) (arrow.Array, error) {
	if err := checkSameType(lhs, rhs); err != nil {
		return nil, err
	}

	switch lhs.DataType().ID() {
	case arrow.INT8:
		return divideArrays[int8](ctx, opts, lhs, rhs)
	case arrow.UINT8:
		return divideArrays[uint8](ctx, opts, lhs, rhs)
	case arrow.INT16:
		return divideArrays[int16](ctx, opts, lhs, rhs)
	case arrow.UINT16:
		return divideArrays[uint16](ctx, opts, lhs, rhs)
	case arrow.INT32:
		return divideArrays[int32](ctx, opts, lhs, rhs)
	case arrow.UINT32:
		return divideArrays[uint32](ctx, opts, lhs, rhs)
	case arrow.INT64:
		return divideArrays[int64](ctx, opts, lhs, rhs)
	case arrow.UINT64:
		return divideArrays[uint64](ctx, opts, lhs, rhs)
	case arrow.FLOAT32:
		return divideArrays[float32](ctx, opts, lhs, rhs)
	case arrow.FLOAT64:
		return divideArrays[float64](ctx, opts, lhs, rhs)
	}
	return nil, fmt.Errorf("%w: divide for type %s", arrow.ErrNotImplemented, lhs.DataType())
}

func divideArrays[T arrow.NumericType](ctx context.Context, opts ArithmeticOptions, lhs, rhs arrow.Array) (arrow.Array, error) {
	var (
		l, r = lhs.(*array.Primitive[T]), rhs.(*array.Primitive[T])
		out  *array.Primitive[T]
		err  error
	)
	if opts.CheckOverflow {
		out, err = CheckedDiv(ctx, l, r)
	} else {
		out, err = Div(ctx, l, r)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DivideScalar divides every element of arr by s, which must hold a
// value of the element type of arr, selecting CheckedDivScalar or
// DivScalar through opts.
func DivideScalar(ctx context.Context, opts ArithmeticOptions, arr arrow.Array, s any) (arrow.Array, error) {
	switch arr.DataType().ID() {
	case arrow.INT8:
		return divideByScalar[int8](ctx, opts, arr, s)
	case arrow.UINT8:
		return divideByScalar[uint8](ctx, opts, arr, s)
	case arrow.INT16:
		return divideByScalar[int16](ctx, opts, arr, s)
	case arrow.UINT16:
		return divideByScalar[uint16](ctx, opts, arr, s)
	case arrow.INT32:
		return divideByScalar[int32](ctx, opts, arr, s)
	case arrow.UINT32:
		return divideByScalar[uint32](ctx, opts, arr, s)
	case arrow.INT64:
		return divideByScalar[int64](ctx, opts, arr, s)
	case arrow.UINT64:
		return divideByScalar[uint64](ctx, opts, arr, s)
	case arrow.FLOAT32:
		return divideByScalar[float32](ctx, opts, arr, s)
	case arrow.FLOAT64:
		return divideByScalar[float64](ctx, opts, arr, s)
	}
	return nil, fmt.Errorf("%w: divide for type %s", arrow.ErrNotImplemented, arr.DataType())
}

func divideByScalar[T arrow.NumericType](ctx context.Context, opts ArithmeticOptions, arr arrow.Array, s any) (arrow.Array, error) {
	v, ok := s.(T)
	if !ok {
		return nil, fmt.Errorf("%w: scalar %v (%T) does not match array type %s", arrow.ErrInvalid, s, s, arr.DataType())
	}

	var (
		a   = arr.(*array.Primitive[T])
		out *array.Primitive[T]
		err error
	)
	if opts.CheckOverflow {
		out, err = CheckedDivScalar(ctx, a, v)
	} else {
		out, err = DivScalar(ctx, a, v)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}
