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


package arrow

import (
	"unsafe"

	"golang.org/x/exp/constraints"
)

// IntType is a type constraint for raw values represented as signed
// integer types by Arrow.
type IntType interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// UintType is a type constraint for raw values represented as unsigned
// integer types by Arrow.
type UintType interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// FloatType is a type constraint for raw values for representing
// floating point values in Arrow.
type FloatType interface {
	constraints.Float
}

// NumericType is a type constraint for just signed/unsigned integers
// and float32/float64. Temporal values (Date32, Time32, Timestamp and so
// on) satisfy it through their underlying integer types.
type NumericType interface {
	IntType | UintType | FloatType
}

const (
	Int8SizeBytes      = int(unsafe.Sizeof(int8(0)))
	Int16SizeBytes     = int(unsafe.Sizeof(int16(0)))
	Int32SizeBytes     = int(unsafe.Sizeof(int32(0)))
	Int64SizeBytes     = int(unsafe.Sizeof(int64(0)))
	Uint8SizeBytes     = int(unsafe.Sizeof(uint8(0)))
	Uint16SizeBytes    = int(unsafe.Sizeof(uint16(0)))
	Uint32SizeBytes    = int(unsafe.Sizeof(uint32(0)))
	Uint64SizeBytes    = int(unsafe.Sizeof(uint64(0)))
	Float32SizeBytes   = int(unsafe.Sizeof(float32(0)))
	Float64SizeBytes   = int(unsafe.Sizeof(float64(0)))
	UnionTypeCodeBytes = int(unsafe.Sizeof(UnionTypeCode(0)))
)

// CastFromBytesTo[T] reinterprets the slice b to a slice of type T.
//
// NOTE: len(b) must be a multiple of T's size.
func CastFromBytesTo[T interface{}](b []byte) []T {
	if len(b) == 0 {
		return nil
	}
	ptr := (*T)(unsafe.Pointer(unsafe.SliceData(b)))
	size := int(unsafe.Sizeof(*ptr))
	return unsafe.Slice(ptr, cap(b)/size)[:len(b)/size]
}

// CastToBytes reinterprets the slice b to a slice of bytes.
func CastToBytes[T interface{}](b []T) []byte {
	if len(b) == 0 {
		return nil
	}
	var z T
	size := int(unsafe.Sizeof(z))
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(b))), cap(b)*size)[:len(b)*size]
}

// SizeOf returns the byte width of one value of T.
func SizeOf[T interface{}]() int {
	var z T
	return int(unsafe.Sizeof(z))
}
