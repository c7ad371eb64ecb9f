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

package kernels

import (
	"errors"
	"fmt"

	"golang.org/x/exp/constraints"
)

// ErrArithmeticFault is carried by the panics of unchecked kernels when
// they meet a zero divisor or an overflowing quotient.
var ErrArithmeticFault = errors.New("arithmetic fault")

type ArithmeticOp int8

const (
	OpDiv ArithmeticOp = iota
	OpDivChecked
)

func (op ArithmeticOp) String() string {
	switch op {
	case OpDiv:
		return "divide"
	case OpDivChecked:
		return "divide_checked"
	}
	return fmt.Sprintf("ArithmeticOp(%d)", int8(op))
}

func divideByZero() error {
	return fmt.Errorf("%w: divide by zero", ErrArithmeticFault)
}

// DivIntegral divides a by b, panicking on a zero divisor and on the one
// quotient that overflows, MinOf[T]() / -1.
func DivIntegral[T constraints.Integer](a, b T) T {
	switch {
	case b == 0:
		panic(divideByZero())
	case a == MinOf[T]() && b == ^T(0) && MinOf[T]() < 0:
		panic(fmt.Errorf("%w: overflow", ErrArithmeticFault))
	}
	return a / b
}

// DivIntegralChecked divides a by b, reporting false instead of faulting.
func DivIntegralChecked[T constraints.Integer](a, b T) (T, bool) {
	if b == 0 || (MinOf[T]() < 0 && a == MinOf[T]() && b == ^T(0)) {
		return 0, false
	}
	return a / b, true
}

func DivFloating[T constraints.Float](a, b T) T { return a / b }

// DivFloatingChecked divides a by b, reporting false for a zero
// divisor instead of producing an infinity or NaN.
func DivFloatingChecked[T constraints.Float](a, b T) (T, bool) {
	if b == 0 {
		return 0, false
	}
	return a / b, true
}

// DivideOp returns the division function for the element type T as
// func(T, T) T, or func(T, T) (T, bool) for OpDivChecked.
func DivideOp[T constraints.Integer | constraints.Float](op ArithmeticOp) any {
	var z T
	switch any(z).(type) {
	case int8:
		return divideOp[int8](op)
	case uint8:
		return divideOp[uint8](op)
	case int16:
		return divideOp[int16](op)
	case uint16:
		return divideOp[uint16](op)
	case int32:
		return divideOp[int32](op)
	case uint32:
		return divideOp[uint32](op)
	case int64:
		return divideOp[int64](op)
	case uint64:
		return divideOp[uint64](op)
	case float32:
		return divideFloatOp[float32](op)
	case float64:
		return divideFloatOp[float64](op)
	}
	return nil
}

func divideOp[T constraints.Integer](op ArithmeticOp) any {
	if op == OpDivChecked {
		return DivIntegralChecked[T]
	}
	return DivIntegral[T]
}

func divideFloatOp[T constraints.Float](op ArithmeticOp) any {
	if op == OpDivChecked {
		return DivFloatingChecked[T]
	}
	return DivFloating[T]
}
