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
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sightlab/memcore/bytesize"
)

// fakeManager is a minimal ManagerAccess used to unit-test policies in
// isolation from the real buffer manager.
type fakeManager struct {
	infos   map[Handle]*BufferInfo
	dumped  map[Handle]bool
	dumpErr map[Handle]bool
	dumpFn  func(Handle) bool // overrides the default Dump behavior, for tests
	pol     Policy            // if set, told of dumps and restores as the real manager would
}

func newFakeManager() *fakeManager {
	return &fakeManager{
		infos:   make(map[Handle]*BufferInfo),
		dumped:  make(map[Handle]bool),
		dumpErr: make(map[Handle]bool),
	}
}

func (f *fakeManager) add(h Handle, size bytesize.Size, lastAccess uint64) {
	f.infos[h] = &BufferInfo{Handle: h, Size: size, Resident: true, LastAccess: lastAccess}
}

func (f *fakeManager) lock(h Handle) {
	info := f.infos[h]
	restored := !info.Resident
	info.LockCount++
	info.Resident = true
	if restored && f.pol != nil {
		f.pol.OnRestoreSuccess(*info)
	}
}

func (f *fakeManager) Candidate() (BufferInfo, bool) {
	var keys []Handle
	for h := range f.infos {
		keys = append(keys, h)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var best *BufferInfo
	for _, h := range keys {
		info := f.infos[h]
		if !info.Resident || info.LockCount > 0 || info.Size == 0 || f.dumped[h] {
			continue
		}
		if best == nil || info.LastAccess < best.LastAccess {
			best = info
		}
	}
	if best == nil {
		return BufferInfo{}, false
	}
	return *best, true
}

func (f *fakeManager) Dump(h Handle) bool {
	if f.dumpFn != nil {
		return f.dumpFn(h)
	}
	return f.dumpVia(h)
}

// dumpVia is the default Dump behavior, factored out so tests can wrap it.
func (f *fakeManager) dumpVia(h Handle) bool {
	if f.dumpErr[h] {
		return false
	}
	info := f.infos[h]
	info.Resident = false
	f.dumped[h] = true
	if f.pol != nil {
		f.pol.OnDumpSuccess(*info)
	}
	return true
}

func (f *fakeManager) Stats() ManagerStats {
	var stats ManagerStats
	for h, info := range f.infos {
		stats.TotalManaged += info.Size
		if !info.Resident {
			stats.TotalDumped += info.Size
		}
		_ = h
		stats.NumBuffers++
	}
	return stats
}

// register mirrors Manager.RegisterBuffer: the policy is notified before the
// new buffer enters the registry.
func register(mgr *fakeManager, b *Barrier, h Handle, size bytesize.Size, lastAccess uint64) {
	mgr.pol = b
	b.OnAllocationRequest(BufferInfo{Handle: h, Size: 0, Resident: true}, size)
	mgr.add(h, size, lastAccess)
}

func TestBarrierDumpsOldestUntilUnderThreshold(t *testing.T) {
	mgr := newFakeManager()
	b := NewBarrier(mgr)
	require.NoError(t, b.Set("barrier", "250MiB"))

	register(mgr, b, 1, 100*bytesize.MiB, 1)
	register(mgr, b, 2, 100*bytesize.MiB, 2)
	// Registering buffer 3 crosses the barrier (300 MiB > 250 MiB alive).
	register(mgr, b, 3, 100*bytesize.MiB, 3)

	require.False(t, mgr.infos[1].Resident)
	require.True(t, mgr.infos[2].Resident)
	require.True(t, mgr.infos[3].Resident)
	require.Equal(t, 100*bytesize.MiB, b.Stats().TotalDumped)
}

func TestBarrierSkipsLockedBuffers(t *testing.T) {
	mgr := newFakeManager()
	b := NewBarrier(mgr)
	require.NoError(t, b.Set("barrier", "250MiB"))

	register(mgr, b, 1, 100*bytesize.MiB, 1)
	register(mgr, b, 2, 100*bytesize.MiB, 2)
	register(mgr, b, 3, 100*bytesize.MiB, 3)
	mgr.lock(1)
	mgr.lock(2)
	mgr.lock(3)

	register(mgr, b, 4, 100*bytesize.MiB, 4)

	// No candidate is eligible: nothing dumped despite alive > barrier.
	for h, info := range mgr.infos {
		require.True(t, info.Resident, "handle %d should remain resident", h)
	}
	require.Equal(t, bytesize.Size(0), b.Stats().TotalDumped)
}

func TestBarrierGetSet(t *testing.T) {
	b := NewBarrier(newFakeManager())
	v, err := b.Get("barrier")
	require.NoError(t, err)
	require.Equal(t, "500 MiB", v)

	require.NoError(t, b.Set("barrier", "1 GiB"))
	v, err = b.Get("barrier")
	require.NoError(t, err)
	require.Equal(t, "1.0 GiB", v)

	_, err = b.Get("bogus")
	require.Error(t, err)
	require.Equal(t, KindUnknownParam, err.(*Error).Kind)
}
