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
	"fmt"
	"time"
)

type (
	Timestamp int64
	Time32    int32
	Time64    int64
	TimeUnit  int
	Date32    int32
	Date64    int64
	Duration  int64
)

const (
	Nanosecond TimeUnit = iota
	Microsecond
	Millisecond
	Second
)

func (u TimeUnit) Multiplier() time.Duration {
	return [...]time.Duration{time.Nanosecond, time.Microsecond, time.Millisecond, time.Second}[uint(u)&3]
}

func (u TimeUnit) String() string { return [...]string{"ns", "us", "ms", "s"}[uint(u)&3] }

type Int8Type struct{}
type Int16Type struct{}
type Int32Type struct{}
type Int64Type struct{}
type Uint8Type struct{}
type Uint16Type struct{}
type Uint32Type struct{}
type Uint64Type struct{}
type Float32Type struct{}
type Float64Type struct{}

func (t *Int8Type) ID() Type            { return INT8 }
func (t *Int8Type) Name() string        { return "int8" }
func (t *Int8Type) String() string      { return "int8" }
func (t *Int8Type) BitWidth() int       { return 8 }
func (t *Int8Type) Fingerprint() string { return typeFingerprint(t) }

func (t *Int16Type) ID() Type            { return INT16 }
func (t *Int16Type) Name() string        { return "int16" }
func (t *Int16Type) String() string      { return "int16" }
func (t *Int16Type) BitWidth() int       { return 16 }
func (t *Int16Type) Fingerprint() string { return typeFingerprint(t) }

func (t *Int32Type) ID() Type            { return INT32 }
func (t *Int32Type) Name() string        { return "int32" }
func (t *Int32Type) String() string      { return "int32" }
func (t *Int32Type) BitWidth() int       { return 32 }
func (t *Int32Type) Fingerprint() string { return typeFingerprint(t) }

func (t *Int64Type) ID() Type            { return INT64 }
func (t *Int64Type) Name() string        { return "int64" }
func (t *Int64Type) String() string      { return "int64" }
func (t *Int64Type) BitWidth() int       { return 64 }
func (t *Int64Type) Fingerprint() string { return typeFingerprint(t) }

func (t *Uint8Type) ID() Type            { return UINT8 }
func (t *Uint8Type) Name() string        { return "uint8" }
func (t *Uint8Type) String() string      { return "uint8" }
func (t *Uint8Type) BitWidth() int       { return 8 }
func (t *Uint8Type) Fingerprint() string { return typeFingerprint(t) }

func (t *Uint16Type) ID() Type            { return UINT16 }
func (t *Uint16Type) Name() string        { return "uint16" }
func (t *Uint16Type) String() string      { return "uint16" }
func (t *Uint16Type) BitWidth() int       { return 16 }
func (t *Uint16Type) Fingerprint() string { return typeFingerprint(t) }

func (t *Uint32Type) ID() Type            { return UINT32 }
func (t *Uint32Type) Name() string        { return "uint32" }
func (t *Uint32Type) String() string      { return "uint32" }
func (t *Uint32Type) BitWidth() int       { return 32 }
func (t *Uint32Type) Fingerprint() string { return typeFingerprint(t) }

func (t *Uint64Type) ID() Type            { return UINT64 }
func (t *Uint64Type) Name() string        { return "uint64" }
func (t *Uint64Type) String() string      { return "uint64" }
func (t *Uint64Type) BitWidth() int       { return 64 }
func (t *Uint64Type) Fingerprint() string { return typeFingerprint(t) }

func (t *Float32Type) ID() Type            { return FLOAT32 }
func (t *Float32Type) Name() string        { return "float32" }
func (t *Float32Type) String() string      { return "float32" }
func (t *Float32Type) BitWidth() int       { return 32 }
func (t *Float32Type) Fingerprint() string { return typeFingerprint(t) }

func (t *Float64Type) ID() Type            { return FLOAT64 }
func (t *Float64Type) Name() string        { return "float64" }
func (t *Float64Type) String() string      { return "float64" }
func (t *Float64Type) BitWidth() int       { return 64 }
func (t *Float64Type) Fingerprint() string { return typeFingerprint(t) }

var (
	PrimitiveTypes = struct {
		Int8    FixedWidthDataType
		Int16   FixedWidthDataType
		Int32   FixedWidthDataType
		Int64   FixedWidthDataType
		Uint8   FixedWidthDataType
		Uint16  FixedWidthDataType
		Uint32  FixedWidthDataType
		Uint64  FixedWidthDataType
		Float32 FixedWidthDataType
		Float64 FixedWidthDataType
		Date32  FixedWidthDataType
		Date64  FixedWidthDataType
	}{
		Int8:    &Int8Type{},
		Int16:   &Int16Type{},
		Int32:   &Int32Type{},
		Int64:   &Int64Type{},
		Uint8:   &Uint8Type{},
		Uint16:  &Uint16Type{},
		Uint32:  &Uint32Type{},
		Uint64:  &Uint64Type{},
		Float32: &Float32Type{},
		Float64: &Float64Type{},
		Date32:  &Date32Type{},
		Date64:  &Date64Type{},
	}
)

// Date32Type is encoded as a 32-bit signed integer, representing the
// number of days since the UNIX epoch.
type Date32Type struct{}

func (t *Date32Type) ID() Type            { return DATE32 }
func (t *Date32Type) Name() string        { return "date32" }
func (t *Date32Type) String() string      { return "date32" }
func (t *Date32Type) BitWidth() int       { return 32 }
func (t *Date32Type) Fingerprint() string { return typeFingerprint(t) }

// Date64Type is encoded as a 64-bit signed integer, representing the
// number of milliseconds since the UNIX epoch.
type Date64Type struct{}

func (t *Date64Type) ID() Type            { return DATE64 }
func (t *Date64Type) Name() string        { return "date64" }
func (t *Date64Type) String() string      { return "date64" }
func (t *Date64Type) BitWidth() int       { return 64 }
func (t *Date64Type) Fingerprint() string { return typeFingerprint(t) }

// TimestampType is encoded as a 64-bit signed integer since the UNIX epoch (1970-01-01T00:00:00Z).
// The zero-value is a nanosecond and time zone neutral. Time zone neutral can be
// considered UTC without having "UTC" as a time zone.
type TimestampType struct {
	Unit     TimeUnit
	TimeZone string
}

func (*TimestampType) ID() Type     { return TIMESTAMP }
func (*TimestampType) Name() string { return "timestamp" }
func (t *TimestampType) String() string {
	switch len(t.TimeZone) {
	case 0:
		return "timestamp[" + t.Unit.String() + "]"
	default:
		return "timestamp[" + t.Unit.String() + ", tz=" + t.TimeZone + "]"
	}
}

func (t *TimestampType) Fingerprint() string {
	return fmt.Sprintf("%s%d:%s", typeFingerprint(t)+string(timeUnitFingerprint(t.Unit)), len(t.TimeZone), t.TimeZone)
}

// BitWidth returns the number of bits required to store a single element of this data type in memory.
func (*TimestampType) BitWidth() int        { return 64 }
func (t *TimestampType) TimeUnit() TimeUnit { return t.Unit }

// HasTimeZone reports whether the values are zoned instants rather than
// local wall clock readings.
func (t *TimestampType) HasTimeZone() bool { return t.TimeZone != "" }

// Time32Type is encoded as a 32-bit signed integer, representing either seconds or milliseconds since midnight.
type Time32Type struct {
	Unit TimeUnit
}

func (*Time32Type) ID() Type             { return TIME32 }
func (*Time32Type) Name() string         { return "time32" }
func (*Time32Type) BitWidth() int        { return 32 }
func (t *Time32Type) TimeUnit() TimeUnit { return t.Unit }
func (t *Time32Type) String() string     { return "time32[" + t.Unit.String() + "]" }
func (t *Time32Type) Fingerprint() string {
	return typeFingerprint(t) + string(timeUnitFingerprint(t.Unit))
}

// Time64Type is encoded as a 64-bit signed integer, representing either microseconds or nanoseconds since midnight.
type Time64Type struct {
	Unit TimeUnit
}

func (*Time64Type) ID() Type             { return TIME64 }
func (*Time64Type) Name() string         { return "time64" }
func (*Time64Type) BitWidth() int        { return 64 }
func (t *Time64Type) TimeUnit() TimeUnit { return t.Unit }
func (t *Time64Type) String() string     { return "time64[" + t.Unit.String() + "]" }
func (t *Time64Type) Fingerprint() string {
	return typeFingerprint(t) + string(timeUnitFingerprint(t.Unit))
}

// DurationType is encoded as a 64-bit signed integer, representing an amount
// of elapsed time without any relation to a calendar artifact.
type DurationType struct {
	Unit TimeUnit
}

func (*DurationType) ID() Type             { return DURATION }
func (*DurationType) Name() string         { return "duration" }
func (*DurationType) BitWidth() int        { return 64 }
func (t *DurationType) TimeUnit() TimeUnit { return t.Unit }
func (t *DurationType) String() string     { return "duration[" + t.Unit.String() + "]" }
func (t *DurationType) Fingerprint() string {
	return typeFingerprint(t) + string(timeUnitFingerprint(t.Unit))
}

var (
	FixedWidthTypes = struct {
		Date32       FixedWidthDataType
		Date64       FixedWidthDataType
		Duration_s   FixedWidthDataType
		Duration_ms  FixedWidthDataType
		Duration_us  FixedWidthDataType
		Duration_ns  FixedWidthDataType
		Time32s      FixedWidthDataType
		Time32ms     FixedWidthDataType
		Time64us     FixedWidthDataType
		Time64ns     FixedWidthDataType
		Timestamp_s  FixedWidthDataType
		Timestamp_ms FixedWidthDataType
		Timestamp_us FixedWidthDataType
		Timestamp_ns FixedWidthDataType
	}{
		Date32:       &Date32Type{},
		Date64:       &Date64Type{},
		Duration_s:   &DurationType{Unit: Second},
		Duration_ms:  &DurationType{Unit: Millisecond},
		Duration_us:  &DurationType{Unit: Microsecond},
		Duration_ns:  &DurationType{Unit: Nanosecond},
		Time32s:      &Time32Type{Unit: Second},
		Time32ms:     &Time32Type{Unit: Millisecond},
		Time64us:     &Time64Type{Unit: Microsecond},
		Time64ns:     &Time64Type{Unit: Nanosecond},
		Timestamp_s:  &TimestampType{Unit: Second, TimeZone: "UTC"},
		Timestamp_ms: &TimestampType{Unit: Millisecond, TimeZone: "UTC"},
		Timestamp_us: &TimestampType{Unit: Microsecond, TimeZone: "UTC"},
		Timestamp_ns: &TimestampType{Unit: Nanosecond, TimeZone: "UTC"},
	}

	_ TemporalWithUnit = (*TimestampType)(nil)
	_ TemporalWithUnit = (*Time32Type)(nil)
	_ TemporalWithUnit = (*Time64Type)(nil)
	_ TemporalWithUnit = (*DurationType)(nil)
)
