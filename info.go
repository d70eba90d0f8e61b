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

package memcore

import (
	"github.com/sightlab/memcore/bytesize"
	"github.com/sightlab/memcore/policy"
)

// BufferInfo is a read-only snapshot of a tracked buffer's metadata (spec
// C3). It is returned by value from Manager.Info; mutating it has no effect
// on the manager's own record, and holding one does not pin or otherwise
// keep the buffer alive.
type BufferInfo struct {
	Handle      Handle
	Size        bytesize.Size
	Resident    bool
	LockCount   uint32
	LastAccess  uint64
	ScratchPath string // set iff !Resident
	OwnsBuffer  bool
}

// bufferInfo is the manager's live, mutable record for a tracked buffer. It
// is only ever touched while the manager's lock is held.
type bufferInfo struct {
	size        bytesize.Size
	resident    bool
	ptr         []byte
	lockCount   uint32
	lastAccess  uint64
	scratchPath string
	ownsBuffer  bool
}

func (b *bufferInfo) snapshot(h Handle) BufferInfo {
	return BufferInfo{
		Handle:      h,
		Size:        b.size,
		Resident:    b.resident,
		LockCount:   b.lockCount,
		LastAccess:  b.lastAccess,
		ScratchPath: b.scratchPath,
		OwnsBuffer:  b.ownsBuffer,
	}
}

// policySnapshot reduces a bufferInfo to the narrower shape the policy
// package's notifications deal in.
func (b *bufferInfo) policySnapshot(h Handle) policy.BufferInfo {
	return policy.BufferInfo{
		Handle:     h,
		Size:       b.size,
		Resident:   b.resident,
		LockCount:  b.lockCount,
		LastAccess: b.lastAccess,
	}
}
