//go:build !linux && !darwin && !windows

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
	"github.com/pkg/errors"

	"github.com/sightlab/memcore/bytesize"
)

// unsupportedProbe surfaces every query as a zero plus a diagnostic, per
// spec.md 4.2 ("all failures surface as zero plus a diagnostic").
type unsupportedProbe struct{}

func newPlatformProbe() Probe {
	return unsupportedProbe{}
}

var errUnsupported = errors.New("memprobe: unsupported platform")

func (unsupportedProbe) TotalSystem() (bytesize.Size, error)   { return 0, errUnsupported }
func (unsupportedProbe) FreeSystem() (bytesize.Size, error)    { return 0, errUnsupported }
func (unsupportedProbe) UsedSystem() (bytesize.Size, error)    { return 0, errUnsupported }
func (unsupportedProbe) UsedProcess() (bytesize.Size, error)   { return 0, errUnsupported }
func (unsupportedProbe) EstimateFree() (bytesize.Size, error)  { return 0, errUnsupported }
