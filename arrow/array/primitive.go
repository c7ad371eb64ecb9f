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
	"fmt"
	"strconv"
	"strings"

	"github.com/columnar-io/colarrow/arrow"
	"github.com/goccy/go-json"
)

// Primitive represents an immutable sequence of fixed width values of
// the native type T. The buffers are [validity, values].
type Primitive[T arrow.NumericType] struct {
	array
	values []T
}

type (
	Int8      = Primitive[int8]
	Int16     = Primitive[int16]
	Int32     = Primitive[int32]
	Int64     = Primitive[int64]
	Uint8     = Primitive[uint8]
	Uint16    = Primitive[uint16]
	Uint32    = Primitive[uint32]
	Uint64    = Primitive[uint64]
	Float32   = Primitive[float32]
	Float64   = Primitive[float64]
	Date32    = Primitive[arrow.Date32]
	Date64    = Primitive[arrow.Date64]
	Time32    = Primitive[arrow.Time32]
	Time64    = Primitive[arrow.Time64]
	Timestamp = Primitive[arrow.Timestamp]
	Duration  = Primitive[arrow.Duration]
)

// NewPrimitiveData returns a Primitive array that refers to data. It
// panics if the logical type of data is not fixed width or its bit width
// differs from the width of T.
func NewPrimitiveData[T arrow.NumericType](data arrow.ArrayData) *Primitive[T] {
	dt, ok := data.DataType().(arrow.FixedWidthDataType)
	if !ok {
		panic(fmt.Errorf("%w: %s is not a fixed width type", arrow.ErrInvalid, data.DataType()))
	}
	if dt.BitWidth() != 8*arrow.SizeOf[T]() {
		panic(fmt.Errorf("%w: type %s has bit width %d, native values are %d bits wide",
			arrow.ErrInvalid, dt, dt.BitWidth(), 8*arrow.SizeOf[T]()))
	}

	a := &Primitive[T]{}
	a.refCount = 1
	a.setData(data.(*Data))
	return a
}

// Value returns the value at the specified index.
func (a *Primitive[T]) Value(i int) T { return a.values[i] }

// Values returns the values of the array, already adjusted by the offset.
func (a *Primitive[T]) Values() []T { return a.values }

func (a *Primitive[T]) ValueStr(i int) string {
	if a.IsNull(i) {
		return NullValueStr
	}
	return formatValue(a.DataType(), a.values[i])
}

func (a *Primitive[T]) String() string {
	o := new(strings.Builder)
	o.WriteString("[")
	for i, v := range a.values {
		if i > 0 {
			fmt.Fprintf(o, " ")
		}
		switch {
		case a.IsNull(i):
			o.WriteString(NullValueStr)
		default:
			o.WriteString(formatValue(a.DataType(), v))
		}
	}
	o.WriteString("]")
	return o.String()
}

func (a *Primitive[T]) setData(data *Data) {
	a.array.setData(data)
	vals := data.buffers[1]
	if vals != nil {
		values := arrow.CastFromBytesTo[T](vals.Bytes())
		beg := a.array.data.offset
		end := beg + a.array.data.length
		a.values = values[beg:end]
	}
}

func (a *Primitive[T]) GetOneForMarshal(i int) interface{} {
	if a.IsNull(i) {
		return nil
	}
	return a.values[i]
}

func (a *Primitive[T]) MarshalJSON() ([]byte, error) {
	vals := make([]interface{}, a.Len())
	for i := range a.values {
		vals[i] = a.GetOneForMarshal(i)
	}
	return json.Marshal(vals)
}

func formatValue[T arrow.NumericType](dt arrow.DataType, v T) string {
	switch dt := dt.(type) {
	case *arrow.Date32Type:
		return arrow.Date32(v).FormattedString()
	case *arrow.Date64Type:
		return arrow.Date64(v).FormattedString()
	case *arrow.Time32Type:
		return arrow.Time32(v).FormattedString(dt.Unit)
	case *arrow.Time64Type:
		return arrow.Time64(v).FormattedString(dt.Unit)
	case *arrow.TimestampType:
		return arrow.Timestamp(v).ToTime(dt.Unit).Format("2006-01-02 15:04:05.999999999")
	case *arrow.Float32Type:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case *arrow.Float64Type:
		return strconv.FormatFloat(float64(v), 'g', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}

var (
	_ arrow.Array = (*Int8)(nil)
	_ arrow.Array = (*Float64)(nil)
	_ arrow.Array = (*Timestamp)(nil)
)
