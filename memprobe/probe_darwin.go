//go:build darwin

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
	"bufio"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/sightlab/memcore/bytesize"
)

type darwinProbe struct{}

func newPlatformProbe() Probe {
	return darwinProbe{}
}

func (darwinProbe) TotalSystem() (bytesize.Size, error) {
	total, err := unix.SysctlUint64("hw.memsize")
	if err != nil {
		return 0, errors.Wrap(err, "sysctl hw.memsize")
	}
	return bytesize.Size(total), nil
}

// vmStat holds the subset of `vm_stat` counters this probe needs, all
// expressed in pages.
type vmStat struct {
	pageSize  uint64
	freePages uint64
}

func readVMStat() (vmStat, error) {
	out, err := exec.Command("vm_stat").Output()
	if err != nil {
		return vmStat{}, errors.Wrap(err, "exec vm_stat")
	}

	var stat vmStat
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "Mach Virtual Memory Statistics:"):
			if n, ok := extractPageSize(line); ok {
				stat.pageSize = n
			}
		case strings.HasPrefix(line, "Pages free:"):
			stat.freePages = extractCount(line)
		}
	}
	if stat.pageSize == 0 {
		stat.pageSize = 4096
	}
	return stat, nil
}

func extractPageSize(header string) (uint64, bool) {
	// "Mach Virtual Memory Statistics: (page size of 16384 bytes)"
	idx := strings.Index(header, "page size of ")
	if idx < 0 {
		return 0, false
	}
	rest := header[idx+len("page size of "):]
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func extractCount(line string) uint64 {
	value := strings.TrimSuffix(strings.TrimSpace(strings.SplitN(line, ":", 2)[1]), ".")
	n, _ := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	return n
}

func (darwinProbe) FreeSystem() (bytesize.Size, error) {
	stat, err := readVMStat()
	if err != nil {
		return 0, err
	}
	return bytesize.Size(stat.freePages * stat.pageSize), nil
}

func (p darwinProbe) UsedSystem() (bytesize.Size, error) {
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

func (darwinProbe) UsedProcess() (bytesize.Size, error) {
	var rusage unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &rusage); err != nil {
		return 0, errors.Wrap(err, "getrusage")
	}
	// Maxrss is reported in bytes on Darwin (unlike Linux, where it's kB).
	// It is the peak resident set size over the process's lifetime, not the
	// current one, so on macOS this figure never goes down.
	return bytesize.Size(rusage.Maxrss), nil
}

func (p darwinProbe) EstimateFree() (bytesize.Size, error) {
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
