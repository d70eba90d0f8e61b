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

package logger

import (
	"bytes"
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// processStart anchors the "uptime" field of the on-disk record format.
var processStart = time.Now()

// processPID is cached once; spec.md 3's "process id" field.
var processPID = os.Getpid()

// Go exposes no portable OS thread id (spec.md 3's "thread id" field).
// tidAssigned maps the runtime's own goroutine id - reused after a
// goroutine exits, and otherwise an implementation detail - to a sequential
// id handed out the first time that goroutine logs, matching the spirit of
// a stable per-caller id without pretending Go exposes real thread ids.
var (
	tidAssigned sync.Map // map[uint64]uint64
	tidSeq      atomic.Uint64
)

func callerTid() uint64 {
	raw := rawGoroutineID()
	if v, ok := tidAssigned.Load(raw); ok {
		return v.(uint64)
	}
	id := tidSeq.Add(1)
	actual, _ := tidAssigned.LoadOrStore(raw, id)
	return actual.(uint64)
}

func rawGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseUint(string(b), 10, 64)
	return id
}
