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

// Package memprobe reports system and process RAM figures, portably across
// Linux, macOS and Windows.
package memprobe

import (
	"runtime"

	"github.com/sightlab/memcore/bytesize"
)

// Probe reports memory figures. Implementations never panic: a failure to
// read the underlying OS counters surfaces as a zero size plus an error.
type Probe interface {
	// TotalSystem reports total physical RAM installed.
	TotalSystem() (bytesize.Size, error)
	// FreeSystem reports the OS's view of unused physical RAM.
	FreeSystem() (bytesize.Size, error)
	// UsedSystem reports TotalSystem - FreeSystem.
	UsedSystem() (bytesize.Size, error)
	// UsedProcess reports the resident set size of the current process.
	UsedProcess() (bytesize.Size, error)
	// EstimateFree reports the figure policies should budget against: on
	// Linux this folds in the reclaimable page cache, on macOS it is the
	// free page count, on Windows it is ullAvailPhys. On 32-bit builds the
	// result is additionally capped so policies never plan past the 4 GiB
	// address space ceiling.
	EstimateFree() (bytesize.Size, error)
}

// New returns the Probe implementation selected for the current platform at
// build time.
func New() Probe {
	return newPlatformProbe()
}

// cap32 clamps free against the remaining address space on 32-bit builds, so
// a policy never believes there's more free memory than this process could
// ever map. It is a no-op on 64-bit builds.
func cap32(free, used bytesize.Size) bytesize.Size {
	if runtime.GOARCH != "386" && runtime.GOARCH != "arm" {
		return free
	}
	const addressSpaceLimit = bytesize.Size(4) * bytesize.GiB
	if used >= addressSpaceLimit {
		return 0
	}
	headroom := addressSpaceLimit - used
	if free > headroom {
		return headroom
	}
	return free
}
