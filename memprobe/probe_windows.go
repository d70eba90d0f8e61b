//go:build windows

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

package memprobe

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"github.com/sightlab/memcore/bytesize"
)

type windowsProbe struct{}

func newPlatformProbe() Probe {
	return windowsProbe{}
}

func globalMemoryStatus() (*windows.MemoryStatusEx, error) {
	status := &windows.MemoryStatusEx{}
	status.Length = uint32(unsafe.Sizeof(*status))
	if err := windows.GlobalMemoryStatusEx(status); err != nil {
		return nil, errors.Wrap(err, "GlobalMemoryStatusEx")
	}
	return status, nil
}

func (windowsProbe) TotalSystem() (bytesize.Size, error) {
	status, err := globalMemoryStatus()
	if err != nil {
		return 0, err
	}
	return bytesize.Size(status.TotalPhys), nil
}

func (windowsProbe) FreeSystem() (bytesize.Size, error) {
	status, err := globalMemoryStatus()
	if err != nil {
		return 0, err
	}
	return bytesize.Size(status.AvailPhys), nil
}

func (p windowsProbe) UsedSystem() (bytesize.Size, error) {
	total, err := p.TotalSystem()
	if err != nil {
		return 0, err
	}
	free, err := p.FreeSystem()
	if err != nil {
		return 0, err
	}
	if free > total {
		return 0, nil
	}
	return total - free, nil
}

func (windowsProbe) UsedProcess() (bytesize.Size, error) {
	handle := windows.CurrentProcess()
	var info windows.PROCESS_MEMORY_COUNTERS
	if err := windows.GetProcessMemoryInfo(handle, &info); err != nil {
		return 0, errors.Wrap(err, "GetProcessMemoryInfo")
	}
	return bytesize.Size(info.WorkingSetSize), nil
}

func (p windowsProbe) EstimateFree() (bytesize.Size, error) {
	free, err := p.FreeSystem()
	if err != nil {
		return 0, err
	}
	used, err := p.UsedProcess()
	if err != nil {
		return free, nil
	}
	return cap32(free, used), nil
}
