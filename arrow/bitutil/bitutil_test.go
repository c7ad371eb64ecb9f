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


package bitutil_test

import (
	"fmt"
	"testing"

	"github.com/columnar-io/colarrow/arrow/bitutil"
	"github.com/columnar-io/colarrow/arrow/memory"
	"github.com/stretchr/testify/assert"
)

func bitsToString(buf []byte, offset, length int) string {
	out := make([]byte, length)
	for i := 0; i < length; i++ {
		if bitutil.BitIsSet(buf, offset+i) {
			out[i] = '1'
		} else {
			out[i] = '0'
		}
	}
	return string(out)
}

func TestSetClearBit(t *testing.T) {
	buf := make([]byte, 2)
	bitutil.SetBit(buf, 0)
	bitutil.SetBit(buf, 9)
	bitutil.SetBitTo(buf, 3, true)
	bitutil.SetBitTo(buf, 3, false)
	assert.Equal(t, []byte{0x01, 0x02}, buf)
	assert.True(t, bitutil.BitIsSet(buf, 9))
	assert.True(t, bitutil.BitIsNotSet(buf, 8))

	bitutil.ClearBit(buf, 0)
	assert.Equal(t, []byte{0x00, 0x02}, buf)
}

func TestBytesForBits(t *testing.T) {
	for _, tc := range []struct{ in, exp int64 }{{0, 0}, {1, 1}, {8, 1}, {9, 2}, {64, 8}, {65, 9}} {
		assert.Equal(t, tc.exp, bitutil.BytesForBits(tc.in), "bits=%d", tc.in)
	}
}

func TestCountSetBits(t *testing.T) {
	buf := make([]byte, 20)
	for i := 0; i < 160; i += 3 {
		bitutil.SetBit(buf, i)
	}

	for _, offset := range []int{0, 1, 5, 8, 13, 64} {
		for _, n := range []int{0, 1, 7, 8, 63, 64, 65, 90} {
			t.Run(fmt.Sprintf("offset=%d,n=%d", offset, n), func(t *testing.T) {
				exp := 0
				for i := offset; i < offset+n; i++ {
					if i%3 == 0 {
						exp++
					}
				}
				assert.Equal(t, exp, bitutil.CountSetBits(buf, offset, n))
			})
		}
	}
}

func TestCopyBitmap(t *testing.T) {
	src := []byte{0b10110101, 0b01101110, 0b11110000}
	for _, srcOffset := range []int{0, 3, 8} {
		for _, dstOffset := range []int{0, 5, 8} {
			length := 12
			dst := []byte{0xFF, 0xFF, 0xFF, 0xFF}
			bitutil.CopyBitmap(src, srcOffset, length, dst, dstOffset)
			assert.Equal(t, bitsToString(src, srcOffset, length), bitsToString(dst, dstOffset, length))
			// bits around the destination range are untouched
			assert.Equal(t, bitsToString([]byte{0xFF}, 0, dstOffset), bitsToString(dst, 0, dstOffset))
			assert.True(t, bitutil.BitIsSet(dst, dstOffset+length))
		}
	}
}

func TestBitmapAnd(t *testing.T) {
	left := []byte{0b11001100, 0b10101010}
	right := []byte{0b10101010, 0b11110000}

	exp := func(lo, ro int64, n int64) string {
		out := make([]byte, n)
		for i := int64(0); i < n; i++ {
			if bitutil.BitIsSet(left, int(lo+i)) && bitutil.BitIsSet(right, int(ro+i)) {
				out[i] = '1'
			} else {
				out[i] = '0'
			}
		}
		return string(out)
	}

	for _, tc := range []struct{ lo, ro, outOff, n int64 }{
		{0, 0, 0, 16}, {0, 0, 0, 11}, {1, 3, 0, 10}, {8, 0, 2, 8},
	} {
		out := make([]byte, 3)
		bitutil.BitmapAnd(left, right, tc.lo, tc.ro, out, tc.outOff, tc.n)
		assert.Equal(t, exp(tc.lo, tc.ro, tc.n), bitsToString(out, int(tc.outOff), int(tc.n)), "%+v", tc)
	}
}

func TestBitmapAndAlloc(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	buf := bitutil.BitmapAndAlloc(mem, []byte{0x0F}, []byte{0x3C}, 0, 0, 8, 0)
	defer buf.Release()
	assert.Equal(t, byte(0x0C), buf.Bytes()[0])
}

func TestBitmapReaderWriter(t *testing.T) {
	buf := make([]byte, 3)
	wr := bitutil.NewBitmapWriter(buf, 3, 14)
	for i := 0; i < 14; i++ {
		if i%2 == 0 {
			wr.Set()
		} else {
			wr.Clear()
		}
		wr.Next()
	}
	wr.Finish()

	rdr := bitutil.NewBitmapReader(buf, 3, 14)
	for i := 0; i < 14; i++ {
		assert.Equal(t, i%2 == 0, rdr.Set(), "bit %d", i)
		rdr.Next()
	}
	assert.Equal(t, 14, rdr.Pos())
	assert.Equal(t, 7, bitutil.CountSetBits(buf, 0, 24))
}
