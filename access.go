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

import "github.com/sightlab/memcore/policy"

// managerAccess is the adapter a Policy calls back through. Unlike Manager's
// public methods, its methods assume the caller already holds m.mu (they are
// only ever reached from inside a policy notification, which the manager
// invokes while the lock is held).
type managerAccess struct{ m *Manager }

var _ policy.ManagerAccess = managerAccess{}

func (a managerAccess) Candidate() (policy.BufferInfo, bool) {
	return a.m.candidateLocked()
}

func (a managerAccess) Dump(h policy.Handle) bool {
	return a.m.dumpLocked(Handle(h))
}

func (a managerAccess) Stats() policy.ManagerStats {
	return a.m.statsLocked()
}

// candidateLocked picks the least-recently-used, unlocked, resident,
// non-empty buffer (spec 4.4.4: plain LRU with pinning).
func (m *Manager) candidateLocked() (policy.BufferInfo, bool) {
	var (
		best   *bufferInfo
		bestH  Handle
		having bool
	)
	for h, info := range m.buffers {
		if info.lockCount > 0 || !info.resident || info.size == 0 {
			continue
		}
		if !having ||
			info.lastAccess < best.lastAccess ||
			(info.lastAccess == best.lastAccess && h < bestH) {
			best, bestH, having = info, h, true
		}
	}
	if !having {
		return policy.BufferInfo{}, false
	}
	return best.policySnapshot(bestH), true
}
