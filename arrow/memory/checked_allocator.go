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


package memory

import (
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

// CheckedAllocator wraps another Allocator and records every live
// allocation together with the call site that made it, so tests can
// report leaked buffers.
type CheckedAllocator struct {
	mem Allocator
	sz  int64

	allocs sync.Map
}

func NewCheckedAllocator(mem Allocator) *CheckedAllocator {
	return &CheckedAllocator{mem: mem}
}

func (a *CheckedAllocator) CurrentAlloc() int { return int(atomic.LoadInt64(&a.sz)) }

func (a *CheckedAllocator) Allocate(size int) []byte {
	atomic.AddInt64(&a.sz, int64(size))
	out := a.mem.Allocate(size)
	if size == 0 {
		return out
	}

	a.record(addressOf(out), size, allocFrames)
	return out
}

func (a *CheckedAllocator) Reallocate(size int, b []byte) []byte {
	atomic.AddInt64(&a.sz, int64(size-len(b)))

	oldptr := addressOf(b)
	out := a.mem.Reallocate(size, b)
	if oldptr != 0 {
		a.allocs.Delete(oldptr)
	}
	if size == 0 {
		return out
	}

	a.record(addressOf(out), size, reallocFrames)
	return out
}

func (a *CheckedAllocator) Free(b []byte) {
	atomic.AddInt64(&a.sz, int64(len(b)*-1))
	defer a.mem.Free(b)

	if len(b) == 0 {
		return
	}
	a.allocs.Delete(addressOf(b))
}

func (a *CheckedAllocator) record(ptr uintptr, size, frames int) {
	if pc, _, l, ok := runtime.Caller(frames); ok {
		a.allocs.Store(ptr, &dalloc{pc: pc, line: l, sz: size})
	}
}

// Allocations usually happen inside Buffer rather than by direct calls,
// so the recorded caller skips the Buffer frames to point at the code
// that triggered the Resize or Reserve.
const (
	defAllocFrames   = 5
	defReallocFrames = 4
)

// Use the environment variables ARROW_CHECKED_ALLOC_FRAMES and ARROW_CHECKED_REALLOC_FRAMES
// to control how many frames up it checks when storing the caller for allocations/reallocs
// when using this to find memory leaks.
var allocFrames, reallocFrames int = defAllocFrames, defReallocFrames

func init() {
	if val, ok := os.LookupEnv("ARROW_CHECKED_ALLOC_FRAMES"); ok {
		if f, err := strconv.Atoi(val); err == nil {
			allocFrames = f
		}
	}

	if val, ok := os.LookupEnv("ARROW_CHECKED_REALLOC_FRAMES"); ok {
		if f, err := strconv.Atoi(val); err == nil {
			reallocFrames = f
		}
	}
}

type dalloc struct {
	pc   uintptr
	line int
	sz   int
}

// TestingT is the subset of testing.TB used for leak reports.
type TestingT interface {
	Errorf(format string, args ...interface{})
	Helper()
}

// AssertSize reports every outstanding allocation and fails t when the
// number of live bytes differs from sz.
func (a *CheckedAllocator) AssertSize(t TestingT, sz int) {
	t.Helper()
	if sz == 0 {
		a.allocs.Range(func(_, value interface{}) bool {
			info := value.(*dalloc)
			name := "unknown"
			if f := runtime.FuncForPC(info.pc); f != nil {
				name = f.Name()
			}
			t.Errorf("LEAK of %d bytes FROM %s line %d\n", info.sz, name, info.line)
			return true
		})
	}

	if got := a.CurrentAlloc(); got != sz {
		t.Errorf("invalid memory size exp=%d, got=%d", sz, got)
	}
}

// CheckedAllocatorScope remembers the live size of an allocator so a
// test can check that a block of code released everything it allocated.
type CheckedAllocatorScope struct {
	alloc *CheckedAllocator
	sz    int
}

func NewCheckedAllocatorScope(alloc *CheckedAllocator) *CheckedAllocatorScope {
	return &CheckedAllocatorScope{alloc: alloc, sz: alloc.CurrentAlloc()}
}

// CheckSize fails t when the live size differs from the one recorded
// when the scope was created.
func (c *CheckedAllocatorScope) CheckSize(t TestingT) {
	if sz := c.alloc.CurrentAlloc(); c.sz != sz {
		t.Helper()
		t.Errorf("invalid memory size exp=%d, got=%d", c.sz, sz)
	}
}

var (
	_ Allocator = (*CheckedAllocator)(nil)
)
