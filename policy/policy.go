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

// Package policy implements the eviction-policy hooks consulted on every
// buffer-registry event (spec C5), plus the Barrier (C6) and Valve (C7)
// implementations.
//
// This package intentionally has no dependency on the memcore package: the
// manager depends on Policy, not the other way around. A Policy reaches back
// into the manager only through the narrow ManagerAccess interface passed to
// its constructor, matching the "policy holds a non-owning back reference
// used only under the manager lock" design note.
package policy

import (
	"github.com/sightlab/memcore/bytesize"
	"github.com/sightlab/memcore/internal/paramset"
)

// Handle is the opaque, never-reused-while-alive identifier for a tracked
// buffer. It is minted by the manager; Policy implementations only ever
// compare or pass it back.
type Handle uint64

// BufferInfo is a read-only snapshot of a tracked buffer's metadata, the
// shape the manager hands to a Policy's notification methods.
type BufferInfo struct {
	Handle     Handle
	Size       bytesize.Size
	Resident   bool
	LockCount  uint32
	LastAccess uint64
}

// ManagerStats mirrors the manager's stats() operation (spec 4.4.1).
type ManagerStats struct {
	TotalManaged bytesize.Size
	TotalDumped  bytesize.Size
	NumBuffers   int
}

// ManagerAccess is the slice of the buffer manager a Policy is allowed to
// call back into from within a notification. Implementations must be safe to
// call while the manager's own lock is already held by the calling
// goroutine (the manager calls into the policy synchronously, under lock).
type ManagerAccess interface {
	// Candidate returns a snapshot of the resident, unlocked, nonzero-size
	// buffer with the smallest LastAccess (ties broken by Handle), or
	// ok=false if none exists. This is the manager's single
	// LRU-with-pinning selection rule.
	Candidate() (info BufferInfo, ok bool)
	// Dump force-evicts h. It never restores, never blocks on anything but
	// the dump's own I/O, and is safe to call from a notification.
	Dump(h Handle) bool
	// Stats reports the manager's current tallies.
	Stats() ManagerStats
}

// Policy is notified synchronously, under the manager's lock, on every
// registry event. A Policy may call Dump on the ManagerAccess it was built
// with, but must never call anything that would restore a buffer (that would
// recurse back into an access path) and must not block on external I/O
// beyond the dump itself.
type Policy interface {
	OnAllocationRequest(info BufferInfo, newSize bytesize.Size)
	OnSetRequest(info BufferInfo, newSize bytesize.Size)
	OnReallocateRequest(info BufferInfo, newSize bytesize.Size)
	OnDestroy(info BufferInfo)
	OnLock(info BufferInfo)
	OnUnlock(info BufferInfo)
	OnDumpSuccess(info BufferInfo)
	OnRestoreSuccess(info BufferInfo)

	// Refresh asks the policy to re-evaluate against the manager's current
	// state, e.g. after the policy's parameters changed or the policy was
	// just installed.
	Refresh()

	// Names lists the parameter names this policy recognizes.
	Names() []string
	// Get returns the current string value of a recognized parameter.
	Get(name string) (string, error)
	// Set parses and applies value for a recognized parameter.
	Set(name, value string) error
}

// ApplyParams parses a "name=value; name=value" string (spec.md 6's policy
// parameter surface) and applies, via Set, each pair whose name is one of
// p.Names(); pairs with any other name are ignored. The first malformed value
// aborts and returns its error; params already applied remain applied,
// matching Set's own per-call semantics.
func ApplyParams(p Policy, spec string) error {
	set, err := paramset.Parse(spec)
	if err != nil {
		return err
	}
	for _, name := range p.Names() {
		if value, ok := set.Get(name); ok {
			if err := p.Set(name, value); err != nil {
				return err
			}
		}
	}
	return nil
}
