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

// Package memprobetest provides a deterministic memprobe.Probe stand-in for
// tests that exercise policy.Valve without depending on real OS counters.
package memprobetest

import (
	"sync"

	"github.com/sightlab/memcore/bytesize"
	"github.com/sightlab/memcore/memprobe"
)

// FakeProbe reports caller-controlled figures. The zero value reports all
// zeros; use Set* to configure it.
type FakeProbe struct {
	mu    sync.Mutex
	total bytesize.Size
	free  bytesize.Size
	used  bytesize.Size
}

var _ memprobe.Probe = (*FakeProbe)(nil)

// NewFakeProbe returns a FakeProbe reporting the given total/free figures.
func NewFakeProbe(total, free bytesize.Size) *FakeProbe {
	return &FakeProbe{total: total, free: free}
}

// SetFree updates the figure EstimateFree/FreeSystem report. Tests use this
// to simulate a policy's dumps "releasing" memory.
func (f *FakeProbe) SetFree(free bytesize.Size) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.free = free
}

// AddFree bumps the reported free figure by delta, simulating the effect of
// a dump of delta bytes.
func (f *FakeProbe) AddFree(delta bytesize.Size) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.free += delta
}

func (f *FakeProbe) TotalSystem() (bytesize.Size, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total, nil
}

func (f *FakeProbe) FreeSystem() (bytesize.Size, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.free, nil
}

func (f *FakeProbe) UsedSystem() (bytesize.Size, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.free > f.total {
		return 0, nil
	}
	return f.total - f.free, nil
}

func (f *FakeProbe) UsedProcess() (bytesize.Size, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.used, nil
}

// EstimateFree reports FreeSystem unmodified: FakeProbe stands in for the
// platform-specific cache/address-space adjustments that real probes apply.
func (f *FakeProbe) EstimateFree() (bytesize.Size, error) {
	return f.FreeSystem()
}
