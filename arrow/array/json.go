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
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/columnar-io/colarrow/arrow"
	"github.com/columnar-io/colarrow/arrow/memory"
	"github.com/goccy/go-json"
)

type fromJSONCfg struct {
	useNumber   bool
	startOffset int64
}

type FromJSONOption func(*fromJSONCfg)

// WithUseNumber enables the 'UseNumber' option on the json decoder, using
// the json.Number type instead of assuming float64 for numbers. This is critical
// if you have numbers that are larger than what can fit into the 53 bits of
// an IEEE float64 mantissa and want to preserve its value.
func WithUseNumber() FromJSONOption {
	return func(c *fromJSONCfg) {
		c.useNumber = true
	}
}

// WithStartOffset skips the first off bytes of the input before decoding.
func WithStartOffset(off int64) FromJSONOption {
	return func(c *fromJSONCfg) {
		c.startOffset = off
	}
}

// FromJSON creates an arrow.Array from a corresponding JSON stream and
// the requested data type. It returns the number of bytes of the input
// that were consumed.
//
// The JSON must be an array of values. Nulls are written as null, numeric
// types take JSON numbers, and temporal types take either their raw
// integer value or a string: "2006-01-02" for dates, "15:04:05.999"
// for times of day and RFC 3339 for timestamps. Union values are written
// as [type code, value]:
//
//	[[0, 1], [1, 2.5], null]
func FromJSON(mem memory.Allocator, dt arrow.DataType, r io.Reader, opts ...FromJSONOption) (arr arrow.Array, offset int64, err error) {
	var cfg fromJSONCfg
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.startOffset != 0 {
		if _, err = io.CopyN(io.Discard, r, cfg.startOffset); err != nil {
			return nil, 0, err
		}
	}

	dec := json.NewDecoder(r)
	if cfg.useNumber {
		dec.UseNumber()
	}

	var values []interface{}
	if err = dec.Decode(&values); err != nil {
		return nil, dec.InputOffset() + cfg.startOffset, fmt.Errorf("%w: %s", arrow.ErrInvalid, err)
	}

	bldr, err := newJSONBuilder(mem, dt)
	if err != nil {
		return nil, 0, err
	}
	defer bldr.Release()

	for i, v := range values {
		if v == nil {
			bldr.AppendNull()
			continue
		}
		if err = bldr.appendJSON(v); err != nil {
			return nil, dec.InputOffset() + cfg.startOffset, fmt.Errorf("value #%d: %w", i, err)
		}
	}

	return bldr.NewArray(), dec.InputOffset() + cfg.startOffset, nil
}

// FromJSONString is FromJSON over a string, panicking on failure. It is
// meant for literals in tests and examples.
func FromJSONString(mem memory.Allocator, dt arrow.DataType, data string, opts ...FromJSONOption) arrow.Array {
	arr, _, err := FromJSON(mem, dt, strings.NewReader(data), opts...)
	if err != nil {
		panic(err)
	}
	return arr
}

type jsonBuilder interface {
	appendJSON(v interface{}) error
	AppendNull()
	Len() int
	NewArray() arrow.Array
	Release()
}

func newJSONBuilder(mem memory.Allocator, dt arrow.DataType) (jsonBuilder, error) {
	if ut, ok := dt.(arrow.UnionType); ok {
		return newUnionJSONBuilder(mem, ut)
	}

	fw, ok := dt.(arrow.FixedWidthDataType)
	if !ok {
		return nil, fmt.Errorf("%w: JSON conversion for %s", arrow.ErrNotImplemented, dt)
	}

	switch dt.ID() {
	case arrow.INT8:
		return NewPrimitiveBuilder[int8](mem, fw), nil
	case arrow.INT16:
		return NewPrimitiveBuilder[int16](mem, fw), nil
	case arrow.INT32:
		return NewPrimitiveBuilder[int32](mem, fw), nil
	case arrow.INT64:
		return NewPrimitiveBuilder[int64](mem, fw), nil
	case arrow.UINT8:
		return NewPrimitiveBuilder[uint8](mem, fw), nil
	case arrow.UINT16:
		return NewPrimitiveBuilder[uint16](mem, fw), nil
	case arrow.UINT32:
		return NewPrimitiveBuilder[uint32](mem, fw), nil
	case arrow.UINT64:
		return NewPrimitiveBuilder[uint64](mem, fw), nil
	case arrow.FLOAT32:
		return NewPrimitiveBuilder[float32](mem, fw), nil
	case arrow.FLOAT64:
		return NewPrimitiveBuilder[float64](mem, fw), nil
	case arrow.DATE32:
		return NewPrimitiveBuilder[arrow.Date32](mem, fw), nil
	case arrow.DATE64:
		return NewPrimitiveBuilder[arrow.Date64](mem, fw), nil
	case arrow.TIME32:
		return NewPrimitiveBuilder[arrow.Time32](mem, fw), nil
	case arrow.TIME64:
		return NewPrimitiveBuilder[arrow.Time64](mem, fw), nil
	case arrow.TIMESTAMP:
		return NewPrimitiveBuilder[arrow.Timestamp](mem, fw), nil
	case arrow.DURATION:
		return NewPrimitiveBuilder[arrow.Duration](mem, fw), nil
	}
	return nil, fmt.Errorf("%w: JSON conversion for %s", arrow.ErrNotImplemented, dt)
}

func (b *PrimitiveBuilder[T]) appendJSON(v interface{}) error {
	val, err := valueFromJSON[T](b.dtype, v)
	if err != nil {
		return err
	}
	b.Append(val)
	return nil
}

func valueFromJSON[T arrow.NumericType](dt arrow.DataType, v interface{}) (T, error) {
	switch v := v.(type) {
	case json.Number:
		return parseNumber[T](string(v))
	case float64:
		return fromFloat[T](v)
	case string:
		if arrow.IsInteger(dt.ID()) || arrow.IsFloating(dt.ID()) {
			return parseNumber[T](v)
		}
		return parseTemporal[T](dt, v)
	}
	return 0, fmt.Errorf("%w: cannot convert %T to %s", arrow.ErrInvalid, v, dt)
}

func isFloat[T arrow.NumericType]() bool {
	var one T = 1
	return one/2 != 0
}

func isSigned[T arrow.NumericType]() bool {
	var zero T
	return zero-1 < 0
}

func parseNumber[T arrow.NumericType](s string) (T, error) {
	bits := 8 * arrow.SizeOf[T]()
	switch {
	case isFloat[T]():
		f, err := strconv.ParseFloat(s, bits)
		return T(f), err
	case isSigned[T]():
		n, err := strconv.ParseInt(s, 10, bits)
		return T(n), err
	default:
		n, err := strconv.ParseUint(s, 10, bits)
		return T(n), err
	}
}

var errNotIntegral = errors.New("value is not an integer in range")

func fromFloat[T arrow.NumericType](f float64) (T, error) {
	if isFloat[T]() {
		return T(f), nil
	}

	bits := 8 * arrow.SizeOf[T]()
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %v", errNotIntegral, f)
	}
	if isSigned[T]() {
		lim := math.Ldexp(1, bits-1)
		if f < -lim || f >= lim {
			return 0, fmt.Errorf("%w: %v", errNotIntegral, f)
		}
		return T(int64(f)), nil
	}
	if f < 0 || f >= math.Ldexp(1, bits) {
		return 0, fmt.Errorf("%w: %v", errNotIntegral, f)
	}
	return T(uint64(f)), nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func parseTemporal[T arrow.NumericType](dt arrow.DataType, s string) (T, error) {
	switch dt := dt.(type) {
	case *arrow.Date32Type:
		t, err := time.Parse("2006-01-02", s)
		return T(arrow.Date32FromTime(t)), err
	case *arrow.Date64Type:
		t, err := time.Parse("2006-01-02", s)
		return T(arrow.Date64FromTime(t)), err
	case *arrow.Time32Type:
		d, err := timeOfDay(s)
		return T(d / dt.Unit.Multiplier()), err
	case *arrow.Time64Type:
		d, err := timeOfDay(s)
		return T(d / dt.Unit.Multiplier()), err
	case *arrow.TimestampType:
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				ts, err := arrow.TimestampFromTime(t, dt.Unit)
				return T(ts), err
			}
		}
		return 0, fmt.Errorf("%w: cannot parse %q as %s", arrow.ErrInvalid, s, dt)
	}
	return 0, fmt.Errorf("%w: cannot convert string %q to %s", arrow.ErrInvalid, s, dt)
}

func timeOfDay(s string) (time.Duration, error) {
	t, err := time.Parse("15:04:05.999999999", s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", arrow.ErrInvalid, err)
	}
	return t.Sub(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)), nil
}

type unionJSONBuilder struct {
	dt       arrow.UnionType
	typeIDs  *PrimitiveBuilder[int8]
	offsets  *PrimitiveBuilder[int32]
	children []jsonBuilder
}

func newUnionJSONBuilder(mem memory.Allocator, dt arrow.UnionType) (*unionJSONBuilder, error) {
	b := &unionJSONBuilder{
		dt:      dt,
		typeIDs: NewPrimitiveBuilder[int8](mem, arrow.PrimitiveTypes.Int8),
	}
	if dt.Mode() == arrow.DenseMode {
		b.offsets = NewPrimitiveBuilder[int32](mem, arrow.PrimitiveTypes.Int32)
	}

	for _, f := range dt.Fields() {
		child, err := newJSONBuilder(mem, f.Type)
		if err != nil {
			b.Release()
			return nil, err
		}
		b.children = append(b.children, child)
	}
	return b, nil
}

func (b *unionJSONBuilder) Len() int { return b.typeIDs.Len() }

func (b *unionJSONBuilder) Release() {
	b.typeIDs.Release()
	if b.offsets != nil {
		b.offsets.Release()
	}
	for _, c := range b.children {
		c.Release()
	}
}

// AppendNull appends a null value of the first declared child.
func (b *unionJSONBuilder) AppendNull() {
	codes := b.dt.TypeCodes()
	if len(codes) == 0 {
		panic(fmt.Errorf("%w: cannot append null to a union without fields", arrow.ErrInvalid))
	}
	b.appendSlot(codes[0], 0, nil)
}

func (b *unionJSONBuilder) appendJSON(v interface{}) error {
	pair, ok := v.([]interface{})
	if !ok || len(pair) != 2 {
		return fmt.Errorf("%w: union values must be [type code, value] pairs", arrow.ErrInvalid)
	}

	code, err := valueFromJSON[int8](arrow.PrimitiveTypes.Int8, pair[0])
	if err != nil {
		return err
	}
	if code < 0 {
		return fmt.Errorf("%w: negative union type code %d", arrow.ErrInvalid, code)
	}
	id := b.dt.ChildIDs()[code]
	if id == arrow.InvalidUnionChildID {
		return fmt.Errorf("%w: type code %d is not declared by %s", arrow.ErrInvalid, code, b.dt)
	}
	return b.appendSlot(code, id, pair[1])
}

func (b *unionJSONBuilder) appendSlot(code arrow.UnionTypeCode, id int, v interface{}) error {
	appendTo := func(child jsonBuilder, v interface{}) error {
		if v == nil {
			child.AppendNull()
			return nil
		}
		return child.appendJSON(v)
	}

	switch b.dt.Mode() {
	case arrow.SparseMode:
		for i, c := range b.children {
			if i == id {
				if err := appendTo(c, v); err != nil {
					return err
				}
				continue
			}
			c.AppendNull()
		}
	case arrow.DenseMode:
		child := b.children[id]
		b.offsets.Append(int32(child.Len()))
		if err := appendTo(child, v); err != nil {
			return err
		}
	}
	b.typeIDs.Append(code)
	return nil
}

func (b *unionJSONBuilder) NewArray() arrow.Array {
	children := make([]arrow.Array, len(b.children))
	for i, c := range b.children {
		children[i] = c.NewArray()
		defer children[i].Release()
	}

	ids := b.typeIDs.NewPrimitiveArray()
	defer ids.Release()
	idBuf := ids.Data().Buffers()[1]

	switch dt := b.dt.(type) {
	case *arrow.SparseUnionType:
		return NewSparseUnion(dt, ids.Len(), children, idBuf, 0)
	case *arrow.DenseUnionType:
		offs := b.offsets.NewPrimitiveArray()
		defer offs.Release()
		return NewDenseUnion(dt, ids.Len(), children, idBuf, offs.Data().Buffers()[1], 0)
	}
	panic(fmt.Errorf("%w: union type %s", arrow.ErrNotImplemented, b.dt))
}
