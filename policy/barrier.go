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

package policy

import (
	"sync"

	"github.com/sightlab/memcore/bytesize"
)

// defaultBarrier is the 500 MiB default from spec.md 4.6.
const defaultBarrier = 500 * bytesize.MiB

// Barrier evicts the oldest unlocked buffers whenever the sum of alive bytes
// (allocated minus dumped) crosses a configured threshold. Grounded on the
// original's BarrierDump.
type Barrier struct {
	mgr ManagerAccess

	mu             sync.Mutex
	totalAllocated bytesize.Size
	totalDumped    bytesize.Size
	barrier        bytesize.Size
}

var _ Policy = (*Barrier)(nil)

// NewBarrier builds a Barrier policy that dumps through mgr.
func NewBarrier(mgr ManagerAccess) *Barrier {
	return &Barrier{mgr: mgr, barrier: defaultBarrier}
}

func (b *Barrier) alive() bytesize.Size {
	if b.totalAllocated < b.totalDumped {
		return 0
	}
	return b.totalAllocated - b.totalDumped
}

func (b *Barrier) accountResize(info BufferInfo, newSize bytesize.Size) {
	// Memory allocation inconsistency: the manager always reports the prior
	// size of a record it is about to grow/shrink/replace.
	if b.totalAllocated >= info.Size {
		b.totalAllocated -= info.Size
	} else {
		b.totalAllocated = 0
	}
	b.totalAllocated += newSize

	if !info.Resident {
		if b.totalDumped >= info.Size {
			b.totalDumped -= info.Size
		} else {
			b.totalDumped = 0
		}
	}
}

func (b *Barrier) OnAllocationRequest(info BufferInfo, newSize bytesize.Size) {
	b.mu.Lock()
	b.accountResize(info, newSize)
	b.mu.Unlock()
	b.apply()
}

func (b *Barrier) OnSetRequest(info BufferInfo, newSize bytesize.Size) {
	b.mu.Lock()
	b.accountResize(info, newSize)
	b.mu.Unlock()
	b.apply()
}

func (b *Barrier) OnReallocateRequest(info BufferInfo, newSize bytesize.Size) {
	b.mu.Lock()
	b.accountResize(info, newSize)
	b.mu.Unlock()
	b.apply()
}

func (b *Barrier) OnDestroy(info BufferInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !info.Resident {
		if b.totalDumped >= info.Size {
			b.totalDumped -= info.Size
		} else {
			b.totalDumped = 0
		}
	}
	if b.totalAllocated >= info.Size {
		b.totalAllocated -= info.Size
	} else {
		b.totalAllocated = 0
	}
}

// OnLock re-applies the barrier: locking a dumped buffer restores it first,
// which raises alive bytes. The locked buffer itself is no longer a
// candidate.
func (b *Barrier) OnLock(BufferInfo) {
	b.apply()
}

func (b *Barrier) OnUnlock(BufferInfo) {
	b.apply()
}

func (b *Barrier) OnDumpSuccess(info BufferInfo) {
	b.mu.Lock()
	b.totalDumped += info.Size
	b.mu.Unlock()
}

func (b *Barrier) OnRestoreSuccess(info BufferInfo) {
	b.mu.Lock()
	if b.totalDumped >= info.Size {
		b.totalDumped -= info.Size
	} else {
		b.totalDumped = 0
	}
	b.mu.Unlock()
}

// BarrierStats snapshots Barrier's own running tallies, independent of the
// manager's Stats(), for diagnostics and tests.
type BarrierStats struct {
	TotalAllocated bytesize.Size
	TotalDumped    bytesize.Size
	Alive          bytesize.Size
}

// Stats returns a snapshot of Barrier's running tallies.
func (b *Barrier) Stats() BarrierStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BarrierStats{
		TotalAllocated: b.totalAllocated,
		TotalDumped:    b.totalDumped,
		Alive:          b.alive(),
	}
}

// crossed reports whether alive bytes currently exceed the barrier.
func (b *Barrier) crossed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.alive() > b.barrier
}

// dump evicts candidates in ascending last-access order (the manager's
// Candidate always returns the oldest) until at least nbOfBytes have been
// freed or no candidate remains.
func (b *Barrier) dump(nbOfBytes bytesize.Size) bytesize.Size {
	var dumped bytesize.Size
	for dumped < nbOfBytes {
		info, ok := b.mgr.Candidate()
		if !ok {
			break
		}
		if !b.mgr.Dump(info.Handle) {
			break
		}
		dumped += info.Size
	}
	return dumped
}

func (b *Barrier) apply() {
	if !b.crossed() {
		return
	}
	b.mu.Lock()
	over := b.alive() - b.barrier
	b.mu.Unlock()
	b.dump(over)
}

// Refresh re-derives the running totals from the manager's own stats and
// re-applies the barrier. Used after installing this policy or after its
// parameters change.
func (b *Barrier) Refresh() {
	stats := b.mgr.Stats()
	b.mu.Lock()
	b.totalAllocated = stats.TotalManaged
	b.totalDumped = stats.TotalDumped
	b.mu.Unlock()
	b.apply()
}

func (b *Barrier) Names() []string { return []string{"barrier"} }

func (b *Barrier) Get(name string) (string, error) {
	if name != "barrier" {
		return "", newUnknownParamError(name)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytesize.Human(b.barrier, bytesize.IEC), nil
}

func (b *Barrier) Set(name, value string) error {
	if name != "barrier" {
		return newUnknownParamError(name)
	}
	size, err := bytesize.Parse(value)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.barrier = size
	b.mu.Unlock()
	b.apply()
	return nil
}
