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

// Package memcore implements a process-wide registry of heap buffers that
// transparently dumps inactive buffers to scratch files when memory is
// scarce, and restores them on access (spec C3/C4).
package memcore

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	farm "github.com/dgryski/go-farm"

	"github.com/sightlab/memcore/bytesize"
	"github.com/sightlab/memcore/internal/rawalloc"
	"github.com/sightlab/memcore/logger"
	"github.com/sightlab/memcore/policy"
)

// Stats mirrors the manager's stats() operation (spec 4.4.1).
type Stats = policy.ManagerStats

// Manager owns every tracked buffer. All public operations are safe for
// concurrent use; see the package doc and spec.md 5 for the exact
// suspension/ordering semantics.
type Manager struct {
	mu         sync.RWMutex
	buffers    map[Handle]*bufferInfo
	scratchDir string
	clock      atomic.Uint64
	dumpSeq    atomic.Uint64
	pol        policy.Policy
	log        *logger.Logger
}

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithPolicy installs p as the manager's eviction policy. If omitted,
// NewManager installs policy.Never.
func WithPolicy(p policy.Policy) Option {
	return func(m *Manager) { m.pol = p }
}

// WithLogger routes the manager's internal diagnostics through l instead of
// logger.Default().
func WithLogger(l *logger.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// NewManager builds a Manager whose scratch files live under scratchDir.
// scratchDir must already exist; NewManager does not create it.
func NewManager(scratchDir string, opts ...Option) *Manager {
	m := &Manager{
		buffers:    make(map[Handle]*bufferInfo),
		scratchDir: scratchDir,
		pol:        policy.Never{},
		log:        logger.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Access returns the narrow view of m a policy.Policy is allowed to call
// back into. Build a policy with it, then install the policy with
// SetPolicy:
//
//	mgr := memcore.NewManager(dir)
//	b := policy.NewBarrier(mgr.Access())
//	mgr.SetPolicy(b)
func (m *Manager) Access() policy.ManagerAccess {
	return managerAccess{m}
}

// SetScratchDir changes the scratch directory. The registry must be empty.
func (m *Manager) SetScratchDir(dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.buffers) != 0 {
		return newError(KindInvalidState, "set_scratch_dir: registry not empty")
	}
	m.scratchDir = dir
	return nil
}

// SetPolicy installs p as the active policy and asks it to re-evaluate
// against the manager's current state.
func (m *Manager) SetPolicy(p policy.Policy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pol = p
	p.Refresh()
}

// Refresh asks the installed policy to re-evaluate.
func (m *Manager) Refresh() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pol.Refresh()
}

// Stats reports the manager's current tallies.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statsLocked()
}

func (m *Manager) statsLocked() Stats {
	var s Stats
	for _, info := range m.buffers {
		s.TotalManaged += info.size
		if !info.resident {
			s.TotalDumped += info.size
		}
	}
	s.NumBuffers = len(m.buffers)
	return s
}

// StateBreakdown further splits NumBuffers by the state machine in spec.md
// 4.4.5 (supplemented diagnostic, not a new eviction input).
type StateBreakdown struct {
	ResidentUnlocked int
	ResidentLocked   int
	NonResident      int
}

// StatsByState reports a breakdown of buffer states.
func (m *Manager) StatsByState() StateBreakdown {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var b StateBreakdown
	for _, info := range m.buffers {
		switch {
		case !info.resident:
			b.NonResident++
		case info.lockCount > 0:
			b.ResidentLocked++
		default:
			b.ResidentUnlocked++
		}
	}
	return b
}

// Info returns a snapshot of handle's metadata.
func (m *Manager) Info(h Handle) (BufferInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.buffers[h]
	if !ok {
		return BufferInfo{}, false
	}
	return info.snapshot(h), true
}

// RegisterBuffer allocates size bytes and tracks them under a fresh handle.
func (m *Manager) RegisterBuffer(size bytesize.Size) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := nextHandle()
	info := &bufferInfo{
		size:       size,
		resident:   true,
		ptr:        rawalloc.Make(int(size)),
		ownsBuffer: true,
		lastAccess: m.tick(),
	}
	m.notifyAllocationRequest(h, info, size)
	m.buffers[h] = info
	return h, nil
}

// RegisterExternal tracks an existing, caller-owned buffer. The manager
// will never free ptr itself; on dump it still writes ptr's current
// contents to scratch and drops its own reference.
func (m *Manager) RegisterExternal(ptr []byte, size bytesize.Size) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := nextHandle()
	info := &bufferInfo{
		size:       size,
		resident:   true,
		ptr:        ptr,
		ownsBuffer: false,
		lastAccess: m.tick(),
	}
	m.notifyAllocationRequest(h, info, size)
	m.buffers[h] = info
	return h, nil
}

func (m *Manager) tick() uint64 {
	return m.clock.Add(1)
}

// Unregister removes handle's record, freeing RAM if owned and resident, or
// deleting the scratch file if non-resident. It fails if the buffer is
// currently locked.
func (m *Manager) Unregister(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.buffers[h]
	if !ok {
		return newError(KindInvalidState, fmt.Sprintf("unregister: unknown handle %d", h))
	}
	if info.lockCount > 0 {
		return newError(KindInvalidState, fmt.Sprintf("unregister: handle %d is locked", h))
	}

	if !info.resident && info.scratchPath != "" {
		if err := os.Remove(info.scratchPath); err != nil && !os.IsNotExist(err) {
			return wrapError(KindIOWrite, "unregister: remove scratch file", err)
		}
	}
	if info.resident && info.ownsBuffer {
		rawalloc.Free(info.ptr)
	}
	info.ptr = nil
	delete(m.buffers, h)
	m.pol.OnDestroy(info.policySnapshot(h))
	return nil
}

// SetSize reallocates handle in place to newSize, restoring first if the
// buffer is currently dumped.
func (m *Manager) SetSize(h Handle, newSize bytesize.Size) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resizeLocked(h, newSize, m.pol.OnSetRequest)
}

// Reallocate is SetSize's counterpart for the "I need more room to write
// into, not a deliberate resize" call site; see the Reallocate entry in
// SPEC_FULL.md 6 for why it exists alongside SetSize.
func (m *Manager) Reallocate(h Handle, newSize bytesize.Size) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resizeLocked(h, newSize, m.pol.OnReallocateRequest)
}

func (m *Manager) resizeLocked(h Handle, newSize bytesize.Size, notify func(policy.BufferInfo, bytesize.Size)) error {
	info, ok := m.buffers[h]
	if !ok {
		return newError(KindInvalidState, fmt.Sprintf("resize: unknown handle %d", h))
	}

	if !info.resident {
		if err := m.restoreLockedErr(h, info); err != nil {
			return err
		}
	}

	oldSize := info.size
	var resized []byte
	if info.ownsBuffer {
		resized = rawalloc.Make(int(newSize))
		copy(resized, info.ptr)
		rawalloc.Free(info.ptr)
	} else {
		resized = make([]byte, newSize)
		copy(resized, info.ptr)
	}
	info.ptr = resized
	info.size = newSize
	info.lastAccess = m.tick()

	notify(policy.BufferInfo{
		Handle:     h,
		Size:       oldSize,
		Resident:   true,
		LockCount:  info.lockCount,
		LastAccess: info.lastAccess,
	}, newSize)
	return nil
}

// Swap exchanges two records' ptr/size/resident/scratchPath. Both buffers
// must be unlocked.
func (m *Manager) Swap(a, b Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	infoA, ok := m.buffers[a]
	if !ok {
		return newError(KindInvalidState, fmt.Sprintf("swap: unknown handle %d", a))
	}
	infoB, ok := m.buffers[b]
	if !ok {
		return newError(KindInvalidState, fmt.Sprintf("swap: unknown handle %d", b))
	}
	if infoA.lockCount > 0 || infoB.lockCount > 0 {
		return newError(KindInvalidState, "swap: both handles must be unlocked")
	}

	infoA.ptr, infoB.ptr = infoB.ptr, infoA.ptr
	infoA.size, infoB.size = infoB.size, infoA.size
	infoA.resident, infoB.resident = infoB.resident, infoA.resident
	infoA.scratchPath, infoB.scratchPath = infoB.scratchPath, infoA.scratchPath
	infoA.ownsBuffer, infoB.ownsBuffer = infoB.ownsBuffer, infoA.ownsBuffer
	return nil
}

func (m *Manager) notifyAllocationRequest(h Handle, info *bufferInfo, newSize bytesize.Size) {
	// The record is notified before it enters the registry, so a policy
	// sweep triggered by this allocation can never pick the new buffer as
	// its own eviction candidate. The "before" snapshot the policy sees
	// reports a prior size of 0, matching a fresh allocation.
	before := policy.BufferInfo{Handle: h, Size: 0, Resident: true, LastAccess: info.lastAccess}
	m.pol.OnAllocationRequest(before, newSize)
}

// scratchPathFor derives a scratch file path unique to (h, a monotonic
// per-manager counter), hashed with farm so the on-disk name carries no
// identifying structure beyond uniqueness.
func (m *Manager) scratchPathFor(h Handle) string {
	seq := m.dumpSeq.Add(1)
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(h))
	binary.BigEndian.PutUint64(buf[8:], seq)
	sum := farm.Fingerprint64(buf[:])
	return filepath.Join(m.scratchDir, fmt.Sprintf("buf-%016x", sum))
}

// Dump force-evicts handle. It fails (returns false) if the buffer is
// locked, already non-resident, or empty.
func (m *Manager) Dump(h Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dumpLocked(h)
}

func (m *Manager) dumpLocked(h Handle) bool {
	info, ok := m.buffers[h]
	if !ok {
		return false
	}
	if info.lockCount > 0 || !info.resident || info.size == 0 {
		return false
	}

	path := m.scratchPathFor(h)
	if err := writeExact(path, info.ptr); err != nil {
		m.log.Warn("memcore", "dump of handle %d failed: %v", h, err)
		return false
	}

	if info.ownsBuffer {
		rawalloc.Free(info.ptr)
	}
	info.ptr = nil
	info.resident = false
	info.scratchPath = path

	m.pol.OnDumpSuccess(info.policySnapshot(h))
	return true
}

func writeExact(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return wrapError(KindIOWrite, "create scratch file", err)
	}
	n, err := f.Write(data)
	closeErr := f.Close()
	if err != nil || n != len(data) {
		os.Remove(path)
		if err == nil {
			err = io.ErrShortWrite
		}
		return wrapError(KindIOWrite, "write scratch file", err)
	}
	if closeErr != nil {
		os.Remove(path)
		return wrapError(KindIOWrite, "close scratch file", closeErr)
	}
	return nil
}

// Restore force-loads handle. It fails if the buffer is already resident.
func (m *Manager) Restore(h Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.buffers[h]
	if !ok {
		return false
	}
	return m.restoreLockedErr(h, info) == nil
}

// restoreLockedErr implements the restoring protocol (spec 4.4.3). It
// assumes the manager's lock is already held and info is the live record
// for h.
func (m *Manager) restoreLockedErr(h Handle, info *bufferInfo) error {
	if info.resident {
		return newError(KindInvalidState, fmt.Sprintf("restore: handle %d already resident", h))
	}

	var buf []byte
	if info.ownsBuffer {
		buf = rawalloc.Make(int(info.size))
	} else {
		buf = make([]byte, info.size)
	}
	if err := readExact(info.scratchPath, buf); err != nil {
		if info.ownsBuffer {
			rawalloc.Free(buf)
		}
		m.log.Warn("memcore", "restore of handle %d failed: %v", h, err)
		return err
	}
	scratchPath := info.scratchPath
	info.ptr = buf
	info.resident = true
	info.scratchPath = ""
	info.lastAccess = m.tick()
	os.Remove(scratchPath)

	m.pol.OnRestoreSuccess(info.policySnapshot(h))
	return nil
}

// readExact fills buf with exactly len(buf) bytes from path. A short file is
// reported as IO_READ_FAILED rather than silently returning a truncated
// buffer.
func readExact(path string, buf []byte) error {
	f, err := os.Open(path)
	if err != nil {
		return wrapError(KindIORead, "open scratch file", err)
	}
	defer f.Close()

	if _, err := io.ReadFull(f, buf); err != nil {
		return wrapError(KindIORead, "read scratch file", err)
	}
	return nil
}
