//go:build linux

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
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/sightlab/memcore/bytesize"
)

type linuxProbe struct{}

func newPlatformProbe() Probe {
	return linuxProbe{}
}

func (linuxProbe) sysinfo() (*unix.Sysinfo_t, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return nil, errors.Wrap(err, "sysinfo")
	}
	return &info, nil
}

func (p linuxProbe) TotalSystem() (bytesize.Size, error) {
	info, err := p.sysinfo()
	if err != nil {
		return 0, err
	}
	return bytesize.Size(uint64(info.Totalram) * uint64(info.Unit)), nil
}

func (p linuxProbe) FreeSystem() (bytesize.Size, error) {
	info, err := p.sysinfo()
	if err != nil {
		return 0, err
	}
	return bytesize.Size(uint64(info.Freeram) * uint64(info.Unit)), nil
}

func (p linuxProbe) UsedSystem() (bytesize.Size, error) {
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

func (linuxProbe) UsedProcess() (bytesize.Size, error) {
	f, err := os.Open("/proc/self/status")
	if err != nil {
		return 0, errors.Wrap(err, "read /proc/self/status")
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "VmRSS:") {
			return parseMemInfoLine(line)
		}
	}
	return 0, errors.New("VmRSS not found in /proc/self/status")
}

func cachedBytes() (bytesize.Size, error) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, errors.Wrap(err, "read /proc/meminfo")
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		// "SwapCached" also contains "Cached"; skip it explicitly, matching
		// the original parser's "test before" comment.
		if strings.HasPrefix(line, "SwapCached:") {
			continue
		}
		if strings.HasPrefix(line, "Cached:") {
			return parseMemInfoLine(line)
		}
	}
	return 0, errors.New("Cached not found in /proc/meminfo")
}

// parseMemInfoLine parses a "<Label>:   <digits> kB" line as found in both
// /proc/meminfo and /proc/self/status.
func parseMemInfoLine(line string) (bytesize.Size, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, errors.Errorf("malformed meminfo line: %q", line)
	}
	n, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "malformed meminfo line: %q", line)
	}
	return bytesize.Size(n * 1024), nil
}

func (p linuxProbe) EstimateFree() (bytesize.Size, error) {
	free, err := p.FreeSystem()
	if err != nil {
		return 0, err
	}
	cached, err := cachedBytes()
	if err != nil {
		return 0, err
	}
	estimate := free + cached
	used, err := p.UsedProcess()
	if err != nil {
		return estimate, nil
	}
	return cap32(estimate, used), nil
}
