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

import "time"

const (
	secondsPerDay     = 86400
	millisecondsInDay = secondsPerDay * 1000
)

// Date32FromTime returns a Date32 value from a time object
func Date32FromTime(t time.Time) Date32 {
	if _, offset := t.Zone(); offset != 0 {
		// properly account for timezone adjustments before we calculate
		// the number of days by adjusting the time and converting to UTC
		t = t.Add(time.Duration(offset) * time.Second).UTC()
	}
	return Date32(t.Truncate(24*time.Hour).Unix() / secondsPerDay)
}

func (d Date32) ToTime() time.Time {
	return time.Unix(0, 0).UTC().AddDate(0, 0, int(d))
}

func (d Date32) FormattedString() string {
	return d.ToTime().Format("2006-01-02")
}

// Date64FromTime returns a Date64 value from a time object
func Date64FromTime(t time.Time) Date64 {
	if _, offset := t.Zone(); offset != 0 {
		t = t.Add(time.Duration(offset) * time.Second).UTC()
	}
	days := t.Truncate(24*time.Hour).Unix() / secondsPerDay
	return Date64(days * millisecondsInDay)
}

// ToTime returns the UTC instant d milliseconds after the UNIX epoch,
// keeping any time of day the value carries.
func (d Date64) ToTime() time.Time {
	return time.UnixMilli(int64(d)).UTC()
}

func (d Date64) FormattedString() string {
	return d.ToTime().Format("2006-01-02")
}

// ToTime returns the wall clock reading of t as an instant on the UNIX
// epoch date.
func (t Time32) ToTime(unit TimeUnit) time.Time {
	return time.Unix(0, int64(t)*int64(unit.Multiplier())).UTC()
}

func (t Time32) FormattedString(unit TimeUnit) string {
	const baseFmt = "15:04:05"
	fmt := baseFmt
	if unit == Millisecond {
		fmt += ".000"
	}
	return t.ToTime(unit).Format(fmt)
}

func (t Time64) ToTime(unit TimeUnit) time.Time {
	return time.Unix(0, int64(t)*int64(unit.Multiplier())).UTC()
}

func (t Time64) FormattedString(unit TimeUnit) string {
	const baseFmt = "15:04:05.000000"
	fmt := baseFmt
	if unit == Nanosecond {
		fmt += "000"
	}
	return t.ToTime(unit).Format(fmt)
}

// ToTime returns a time.Time in UTC for the timestamp value in the given
// unit. Values outside the range representable in nanoseconds are handled
// by splitting into whole seconds and a remainder.
func (t Timestamp) ToTime(unit TimeUnit) time.Time {
	switch unit {
	case Second:
		return time.Unix(int64(t), 0).UTC()
	case Millisecond:
		return time.UnixMilli(int64(t)).UTC()
	case Microsecond:
		return time.UnixMicro(int64(t)).UTC()
	default:
		return time.Unix(0, int64(t)).UTC()
	}
}

// TimestampFromTime allows converting time.Time to Timestamp
func TimestampFromTime(val time.Time, unit TimeUnit) (Timestamp, error) {
	switch unit {
	case Second:
		return Timestamp(val.Unix()), nil
	case Millisecond:
		return Timestamp(val.Unix()*1e3 + int64(val.Nanosecond())/1e6), nil
	case Microsecond:
		return Timestamp(val.Unix()*1e6 + int64(val.Nanosecond())/1e3), nil
	case Nanosecond:
		return Timestamp(val.UnixNano()), nil
	default:
		return 0, ErrInvalid
	}
}

func (d Duration) ToDuration(unit TimeUnit) time.Duration {
	return time.Duration(d) * unit.Multiplier()
}
