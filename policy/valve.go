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
	"sync/atomic"

	"github.com/sightlab/memcore/bytesize"
	"github.com/sightlab/memcore/logger"
	"github.com/sightlab/memcore/memprobe"
)

const (
	defaultMinFreeMem       = 500 * bytesize.MiB
	defaultHysteresisOffset = bytesize.Size(0)
)

// Valve evicts buffers until the platform's estimated free memory clears a
// configured floor (plus hysteresis), anticipating growth rather than
// reacting to it. Grounded on the original's ValveDump.
type Valve struct {
	mgr   ManagerAccess
	probe memprobe.Probe

	mu               sync.Mutex
	minFreeMem       bytesize.Size
	hysteresisOffset bytesize.Size

	applying atomic.Bool // re-entrancy guard

	onWarn func(string) // optional hook for diagnostics; nil means logger.Default()
}

var _ Policy = (*Valve)(nil)

// NewValve builds a Valve policy that dumps through mgr and reads free
// memory from probe.
func NewValve(mgr ManagerAccess, probe memprobe.Probe) *Valve {
	return &Valve{
		mgr:              mgr,
		probe:            probe,
		minFreeMem:       defaultMinFreeMem,
		hysteresisOffset: defaultHysteresisOffset,
	}
}

func (v *Valve) OnAllocationRequest(info BufferInfo, newSize bytesize.Size) {
	v.apply(growth(info.Size, newSize))
}

func (v *Valve) OnSetRequest(BufferInfo, bytesize.Size) {
	v.apply(0)
}

func (v *Valve) OnReallocateRequest(info BufferInfo, newSize bytesize.Size) {
	v.apply(growth(info.Size, newSize))
}

func (v *Valve) OnDestroy(BufferInfo)        {}
func (v *Valve) OnLock(BufferInfo)           {}
func (v *Valve) OnUnlock(BufferInfo)         { v.apply(0) }
func (v *Valve) OnDumpSuccess(BufferInfo)    {}
func (v *Valve) OnRestoreSuccess(BufferInfo) {}

func growth(oldSize, newSize bytesize.Size) bytesize.Size {
	if newSize > oldSize {
		return newSize - oldSize
	}
	return 0
}

func (v *Valve) needDump(supplement bytesize.Size) bool {
	free, err := v.probe.EstimateFree()
	if err != nil {
		// A probe failure is treated conservatively: assume no free memory
		// information is available and do not force a dump based on it.
		return false
	}
	v.mu.Lock()
	floor := v.minFreeMem + supplement
	v.mu.Unlock()
	return free <= floor
}

func (v *Valve) target(supplement bytesize.Size) bytesize.Size {
	v.mu.Lock()
	t := v.minFreeMem + v.hysteresisOffset + supplement
	v.mu.Unlock()
	return t
}

// apply re-evaluates the valve given supplement extra bytes the caller is
// about to add, dumping candidates until free memory clears the target or no
// candidate remains. Re-entrant calls (a dump itself triggering another
// notification) short-circuit immediately.
func (v *Valve) apply(supplement bytesize.Size) {
	if !v.applying.CompareAndSwap(false, true) {
		return
	}
	defer v.applying.Store(false)

	if !v.needDump(supplement) {
		return
	}

	target := v.target(supplement)
	var lastCandidate Handle
	haveLast := false

	for {
		free, err := v.probe.EstimateFree()
		if err != nil || free >= target {
			return
		}
		info, ok := v.mgr.Candidate()
		if !ok {
			return
		}
		if haveLast && info.Handle == lastCandidate {
			v.warn("valve: aborting sweep, same candidate offered twice")
			return
		}
		lastCandidate = info.Handle
		haveLast = true
		if !v.mgr.Dump(info.Handle) {
			return
		}
	}
}

func (v *Valve) warn(msg string) {
	if v.onWarn != nil {
		v.onWarn(msg)
		return
	}
	logger.Default().Warn("policy", "%s", msg)
}

// Refresh re-evaluates the valve with no anticipated growth.
func (v *Valve) Refresh() {
	v.apply(0)
}

func (v *Valve) Names() []string {
	return []string{"min_free_mem", "hysteresis_offset"}
}

func (v *Valve) Get(name string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	switch name {
	case "min_free_mem":
		return bytesize.Human(v.minFreeMem, bytesize.IEC), nil
	case "hysteresis_offset":
		return bytesize.Human(v.hysteresisOffset, bytesize.IEC), nil
	default:
		return "", newUnknownParamError(name)
	}
}

func (v *Valve) Set(name, value string) error {
	size, err := bytesize.Parse(value)
	if err != nil {
		return err
	}
	v.mu.Lock()
	switch name {
	case "min_free_mem":
		v.minFreeMem = size
	case "hysteresis_offset":
		v.hysteresisOffset = size
	default:
		v.mu.Unlock()
		return newUnknownParamError(name)
	}
	v.mu.Unlock()
	v.apply(0)
	return nil
}
