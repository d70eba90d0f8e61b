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
	"fmt"
	"sync/atomic"
)

// Pin keeps a locked buffer resident until released. Unlock is idempotent:
// calling it more than once is a no-op after the first call.
type Pin struct {
	mgr      *Manager
	h        Handle
	released atomic.Bool
	Bytes    []byte
}

// Lock restores handle if necessary and marks it locked, returning a Pin
// that guarantees the backing bytes stay resident and untouched until
// Unlock is called. The caller may read and write Pin.Bytes freely; it
// aliases the manager's own buffer.
func (m *Manager) Lock(h Handle) (*Pin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.buffers[h]
	if !ok {
		return nil, newError(KindInvalidState, fmt.Sprintf("lock: unknown handle %d", h))
	}
	if !info.resident {
		if err := m.restoreLockedErr(h, info); err != nil {
			return nil, err
		}
	}

	info.lockCount++
	info.lastAccess = m.tick()
	m.pol.OnLock(info.policySnapshot(h))

	return &Pin{mgr: m, h: h, Bytes: info.ptr}, nil
}

// Unlock releases the pin. Safe to call more than once.
func (p *Pin) Unlock() {
	if !p.released.CompareAndSwap(false, true) {
		return
	}
	m := p.mgr
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.buffers[p.h]
	if !ok {
		return
	}
	if info.lockCount > 0 {
		info.lockCount--
	}
	m.pol.OnUnlock(info.policySnapshot(p.h))
}
