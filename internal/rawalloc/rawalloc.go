/*
 * Copyright 2026 The Sightlab Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package rawalloc tracks how many bytes of buffer backing are currently
// live, independent of any single Manager. Adapted from the teacher's
// z/calloc_nojemalloc.go allocation counter: that package tracked bytes
// handed out by its cgo-free Calloc/Free pair for memory-pressure
// diagnostics; this package tracks bytes handed out by memcore's own
// buffer allocation/free points for the same reason (a process-wide
// "how much raw buffer memory is outstanding" figure, independent of
// Manager.Stats' per-manager totals, for processes that run more than one
// Manager).
package rawalloc

import "sync/atomic"

var liveBytes int64

// Make allocates a zeroed slice of n bytes and counts it as live.
func Make(n int) []byte {
	atomic.AddInt64(&liveBytes, int64(n))
	return make([]byte, n)
}

// Free releases b's accounting. It does not (and in Go cannot) force the
// backing array's memory back to the OS; it only stops counting it.
func Free(b []byte) {
	atomic.AddInt64(&liveBytes, -int64(cap(b)))
}

// LiveBytes reports the process-wide count of bytes currently tracked by
// Make and not yet Free'd.
func LiveBytes() int64 {
	return atomic.LoadInt64(&liveBytes)
}
