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
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/columnar-io/colarrow/arrow"
	"golang.org/x/xerrors"
)

// Flags of an ArrowSchema, matching the ARROW_FLAG_* values of abi.h.
const (
	FlagDictionaryOrdered int64 = 1 << iota
	FlagNullable
	FlagMapKeysSorted
)

// ErrInterchange is returned, wrapped, when a descriptor cannot be
// imported. It satisfies errors.Is(err, arrow.ErrInvalid).
var ErrInterchange = fmt.Errorf("%w: cdata interchange", arrow.ErrInvalid)

// map from the defined strings to their corresponding arrow.DataType interface
// object instances, for types that don't require params.
var formatToSimpleType = map[string]arrow.DataType{
	"c":   arrow.PrimitiveTypes.Int8,
	"C":   arrow.PrimitiveTypes.Uint8,
	"s":   arrow.PrimitiveTypes.Int16,
	"S":   arrow.PrimitiveTypes.Uint16,
	"i":   arrow.PrimitiveTypes.Int32,
	"I":   arrow.PrimitiveTypes.Uint32,
	"l":   arrow.PrimitiveTypes.Int64,
	"L":   arrow.PrimitiveTypes.Uint64,
	"f":   arrow.PrimitiveTypes.Float32,
	"g":   arrow.PrimitiveTypes.Float64,
	"tdD": arrow.FixedWidthTypes.Date32,
	"tdm": arrow.FixedWidthTypes.Date64,
	"tts": arrow.FixedWidthTypes.Time32s,
	"ttm": arrow.FixedWidthTypes.Time32ms,
	"ttu": arrow.FixedWidthTypes.Time64us,
	"ttn": arrow.FixedWidthTypes.Time64ns,
	"tDs": arrow.FixedWidthTypes.Duration_s,
	"tDm": arrow.FixedWidthTypes.Duration_ms,
	"tDu": arrow.FixedWidthTypes.Duration_us,
	"tDn": arrow.FixedWidthTypes.Duration_ns,
}

var formatToTimeUnit = map[byte]arrow.TimeUnit{
	's': arrow.Second,
	'm': arrow.Millisecond,
	'u': arrow.Microsecond,
	'n': arrow.Nanosecond,
}

var simpleTypeToFormat = map[arrow.Type]string{
	arrow.INT8:    "c",
	arrow.UINT8:   "C",
	arrow.INT16:   "s",
	arrow.UINT16:  "S",
	arrow.INT32:   "i",
	arrow.UINT32:  "I",
	arrow.INT64:   "l",
	arrow.UINT64:  "L",
	arrow.FLOAT32: "f",
	arrow.FLOAT64: "g",
	arrow.DATE32:  "tdD",
	arrow.DATE64:  "tdm",
}

func interchangeErrorf(format string, args ...interface{}) error {
	return xerrors.Errorf(format+": %w", append(args, ErrInterchange)...)
}

// ImportFormat returns the data type described by a format string that
// needs no child schemas.
func ImportFormat(format string) (arrow.DataType, error) {
	return typeFromFormat(format, nil)
}

// ExportFormat returns the format string describing dt.
func ExportFormat(dt arrow.DataType) (string, error) {
	return exportFormat(dt)
}

// typeFromFormat resolves format f, the already imported children
// supplying the fields of nested types.
func typeFromFormat(f string, childFields []arrow.Field) (arrow.DataType, error) {
	if dt, ok := formatToSimpleType[f]; ok {
		return dt, nil
	}

	switch {
	case strings.HasPrefix(f, "ts") && len(f) >= 4 && f[3] == ':':
		unit, ok := formatToTimeUnit[f[2]]
		if !ok {
			return nil, interchangeErrorf("cdata: invalid timestamp unit in format %q", f)
		}
		return &arrow.TimestampType{Unit: unit, TimeZone: f[4:]}, nil
	case strings.HasPrefix(f, "+u") && len(f) > 2:
		return importUnionType(f, childFields)
	}

	// if we didn't find a type, then it's something we haven't implemented.
	return nil, xerrors.Errorf("cdata: unsupported format %q: %w", f, arrow.ErrNotImplemented)
}

func importUnionType(f string, childFields []arrow.Field) (arrow.DataType, error) {
	var mode arrow.UnionMode
	switch f[2] {
	case 'd':
		mode = arrow.DenseMode
	case 's':
		mode = arrow.SparseMode
	default:
		return nil, interchangeErrorf("cdata: invalid union type %q", f)
	}

	parts := strings.SplitN(f, ":", 2)
	if len(parts) != 2 || len(parts[0]) != 3 {
		return nil, interchangeErrorf("cdata: invalid union format %q", f)
	}

	var codes []string
	if parts[1] != "" {
		codes = strings.Split(parts[1], ",")
	}

	typeCodes := make([]arrow.UnionTypeCode, 0, len(codes))
	for _, c := range codes {
		v, err := strconv.ParseInt(c, 10, 8)
		if err != nil {
			return nil, interchangeErrorf("cdata: invalid type code %q in format %q", c, f)
		}
		if v < 0 {
			return nil, interchangeErrorf("cdata: negative type code in union: format string %s", f)
		}
		typeCodes = append(typeCodes, arrow.UnionTypeCode(v))
	}

	if len(childFields) != len(typeCodes) {
		return nil, interchangeErrorf("cdata: ArrowSchema number of children incompatible with format string %s", f)
	}

	var (
		dt  arrow.DataType
		err error
	)
	func() {
		// UnionOf panics on duplicate or out of range codes
		defer func() {
			if r := recover(); r != nil {
				err = interchangeErrorf("cdata: invalid union format %q: %v", f, r)
			}
		}()
		dt = arrow.UnionOf(mode, childFields, typeCodes)
	}()
	return dt, err
}

func timeUnitFormat(u arrow.TimeUnit) string {
	switch u {
	case arrow.Second:
		return "s"
	case arrow.Millisecond:
		return "m"
	case arrow.Microsecond:
		return "u"
	default:
		return "n"
	}
}

func unionFormat(prefix string, dt arrow.UnionType) string {
	var b strings.Builder
	b.WriteString(prefix)
	for i, c := range dt.TypeCodes() {
		if i != 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(c)))
	}
	return b.String()
}

func exportFormat(dt arrow.DataType) (string, error) {
	switch dt := dt.(type) {
	case *arrow.TimestampType:
		return "ts" + timeUnitFormat(dt.Unit) + ":" + dt.TimeZone, nil
	case *arrow.Time32Type:
		return "tt" + timeUnitFormat(dt.Unit), nil
	case *arrow.Time64Type:
		return "tt" + timeUnitFormat(dt.Unit), nil
	case *arrow.DurationType:
		return "tD" + timeUnitFormat(dt.Unit), nil
	case *arrow.SparseUnionType:
		return unionFormat("+us:", dt), nil
	case *arrow.DenseUnionType:
		return unionFormat("+ud:", dt), nil
	}

	if f, ok := simpleTypeToFormat[dt.ID()]; ok {
		return f, nil
	}
	return "", xerrors.Errorf("cdata: export of type %s: %w", dt, arrow.ErrNotImplemented)
}

func encodeMetadata(keys, values []string) []byte {
	if len(keys) != len(values) {
		panic("unequal metadata key/values length")
	}
	if len(keys) == 0 {
		return nil
	}

	var b bytes.Buffer
	totalSize := 4
	for i := range keys {
		totalSize += 8 + len(keys[i]) + len(values[i])
	}
	b.Grow(totalSize)

	binary.Write(&b, binary.NativeEndian, int32(len(keys)))
	for i := range keys {
		binary.Write(&b, binary.NativeEndian, int32(len(keys[i])))
		b.WriteString(keys[i])
		binary.Write(&b, binary.NativeEndian, int32(len(values[i])))
		b.WriteString(values[i])
	}
	return b.Bytes()
}

// decodeMetadata reads the C data interface metadata encoding: an int32
// number of pairs followed by length prefixed keys and values, all in
// native byte order.
func decodeMetadata(md []byte) (arrow.Metadata, error) {
	if len(md) == 0 {
		return arrow.Metadata{}, nil
	}

	data := md
	readint32 := func() (int32, bool) {
		if len(data) < arrow.Int32SizeBytes {
			return 0, false
		}
		v := int32(binary.NativeEndian.Uint32(data))
		data = data[arrow.Int32SizeBytes:]
		return v, true
	}

	readstr := func() (string, bool) {
		l, ok := readint32()
		if !ok || l < 0 || int(l) > len(data) {
			return "", false
		}
		s := string(data[:l])
		data = data[l:]
		return s, true
	}

	npairs, ok := readint32()
	if !ok || npairs < 0 {
		return arrow.Metadata{}, interchangeErrorf("cdata: invalid metadata pair count")
	}
	if npairs == 0 {
		return arrow.Metadata{}, nil
	}

	keys := make([]string, npairs)
	vals := make([]string, npairs)

	for i := int32(0); i < npairs; i++ {
		if keys[i], ok = readstr(); !ok {
			return arrow.Metadata{}, interchangeErrorf("cdata: truncated metadata key %d", i)
		}
		if vals[i], ok = readstr(); !ok {
			return arrow.Metadata{}, interchangeErrorf("cdata: truncated metadata value %d", i)
		}
	}

	return arrow.NewMetadata(keys, vals), nil
}
