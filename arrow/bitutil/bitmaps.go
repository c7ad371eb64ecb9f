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


package bitutil

import (
	"github.com/columnar-io/colarrow/arrow/memory"
)

// BitmapReader is a simple bitmap reader for a byte slice.
type BitmapReader struct {
	bitmap []byte
	pos    int
	len    int

	current    byte
	byteOffset int
	bitOffset  int
}

// NewBitmapReader creates and returns a new bitmap reader for the given bitmap
func NewBitmapReader(bitmap []byte, offset, length int) *BitmapReader {
	curbyte := byte(0)
	if length > 0 && bitmap != nil {
		curbyte = bitmap[offset/8]
	}
	return &BitmapReader{
		bitmap:     bitmap,
		byteOffset: offset / 8,
		bitOffset:  offset % 8,
		current:    curbyte,
		len:        length,
	}
}

// Set returns true if the current bit is set
func (b *BitmapReader) Set() bool {
	return (b.current & (1 << b.bitOffset)) != 0
}

// NotSet returns true if the current bit is not set
func (b *BitmapReader) NotSet() bool {
	return (b.current & (1 << b.bitOffset)) == 0
}

// Next advances the reader to the next bit in the bitmap.
func (b *BitmapReader) Next() {
	b.bitOffset++
	b.pos++
	if b.bitOffset == 8 {
		b.bitOffset = 0
		b.byteOffset++
		if b.pos < b.len {
			b.current = b.bitmap[b.byteOffset]
		}
	}
}

// Pos returns the current bit position in the bitmap that the reader is looking at
func (b *BitmapReader) Pos() int { return b.pos }

// Len returns the total number of bits in the bitmap
func (b *BitmapReader) Len() int { return b.len }

// BitmapWriter is a simple writer for writing bitmaps to byte slices
type BitmapWriter struct {
	buf    []byte
	pos    int
	length int

	curByte    uint8
	bitMask    uint8
	byteOffset int
}

// NewBitmapWriter returns a sequential bitwise writer that preserves surrounding
// bit values as it writes.
func NewBitmapWriter(bitmap []byte, start, length int) *BitmapWriter {
	ret := &BitmapWriter{
		buf:        bitmap,
		length:     length,
		byteOffset: start / 8,
		bitMask:    BitMask[start%8],
	}
	if length > 0 {
		ret.curByte = bitmap[ret.byteOffset]
	}
	return ret
}

func (b *BitmapWriter) Pos() int { return b.pos }
func (b *BitmapWriter) Set()     { b.curByte |= b.bitMask }
func (b *BitmapWriter) Clear()   { b.curByte &= ^b.bitMask }

// Next increments the writer to the next bit for writing.
func (b *BitmapWriter) Next() {
	b.bitMask = b.bitMask << 1
	b.pos++
	if b.bitMask == 0 {
		b.bitMask = 0x01
		b.buf[b.byteOffset] = b.curByte
		b.byteOffset++
		if b.pos < b.length {
			b.curByte = b.buf[b.byteOffset]
		}
	}
}

// Finish flushes the final byte out to the byteslice in case it was not already
// on a byte aligned boundary.
func (b *BitmapWriter) Finish() {
	if b.length > 0 && (b.bitMask != 0x01 || b.pos < b.length) {
		b.buf[b.byteOffset] = b.curByte
	}
}

// CopyBitmap copies the bitmap indicated by src, starting at bit offset srcOffset,
// and copying length bits into dst, starting at bit offset dstOffset.
func CopyBitmap(src []byte, srcOffset, length int, dst []byte, dstOffset int) {
	if length == 0 {
		return
	}

	// slow path, one of the bitmaps is not byte aligned.
	if srcOffset%8 != 0 || dstOffset%8 != 0 {
		rdr := NewBitmapReader(src, srcOffset, length)
		wr := NewBitmapWriter(dst, dstOffset, length)
		for i := 0; i < length; i++ {
			if rdr.Set() {
				wr.Set()
			} else {
				wr.Clear()
			}
			rdr.Next()
			wr.Next()
		}
		wr.Finish()
		return
	}

	nbytes := int(BytesForBits(int64(length)))
	src = src[srcOffset/8:]
	dst = dst[dstOffset/8:]

	// the high bits of the last destination byte past length are kept
	trailingBits := nbytes*8 - length
	trailMask := byte(uint(1)<<(8-trailingBits)) - 1

	copy(dst, src[:nbytes-1])
	lastData := src[nbytes-1]

	dst[nbytes-1] &= ^trailMask
	dst[nbytes-1] |= lastData & trailMask
}

// BitmapAnd writes left AND right for length bits into out starting at
// outOffset. Each input carries its own bit offset.
func BitmapAnd(left, right []byte, lOffset, rOffset int64, out []byte, outOffset int64, length int64) {
	if length == 0 {
		return
	}
	if lOffset%8 == 0 && rOffset%8 == 0 && outOffset%8 == 0 {
		nbytes := BytesForBits(length)
		l, r, o := left[lOffset/8:], right[rOffset/8:], out[outOffset/8:]
		for i := int64(0); i < nbytes-1; i++ {
			o[i] = l[i] & r[i]
		}
		trailingBits := nbytes*8 - length
		trailMask := byte(uint(1)<<(8-trailingBits)) - 1
		last := nbytes - 1
		o[last] = (o[last] &^ trailMask) | (l[last] & r[last] & trailMask)
		return
	}

	lr := NewBitmapReader(left, int(lOffset), int(length))
	rr := NewBitmapReader(right, int(rOffset), int(length))
	wr := NewBitmapWriter(out, int(outOffset), int(length))
	for i := int64(0); i < length; i++ {
		if lr.Set() && rr.Set() {
			wr.Set()
		} else {
			wr.Clear()
		}
		lr.Next()
		rr.Next()
		wr.Next()
	}
	wr.Finish()
}

// BitmapAndAlloc allocates a bitmap of length bits (plus outOffset) from
// mem and fills it with left AND right.
func BitmapAndAlloc(mem memory.Allocator, left, right []byte, lOffset, rOffset int64, length, outOffset int64) *memory.Buffer {
	out := memory.NewResizableBuffer(mem)
	out.Resize(int(BytesForBits(length + outOffset)))
	BitmapAnd(left, right, lOffset, rOffset, out.Bytes(), outOffset, length)
	return out
}

// CopyBitmapAlloc returns a new bitmap starting at bit zero holding the
// length bits of src beginning at srcOffset.
func CopyBitmapAlloc(mem memory.Allocator, src []byte, srcOffset, length int) *memory.Buffer {
	out := memory.NewResizableBuffer(mem)
	out.Resize(int(BytesForBits(int64(length))))
	memory.Set(out.Bytes(), 0)
	CopyBitmap(src, srcOffset, length, out.Bytes(), 0)
	return out
}
