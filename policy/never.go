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

import "github.com/sightlab/memcore/bytesize"

// Never is a no-op policy: it dumps nothing, ever. Grounded on the
// original's NeverDumpPolicy, the default/no-op leaf of the policy
// hierarchy, used as the manager's zero-value policy before a real one is
// installed.
type Never struct{}

var _ Policy = Never{}

func (Never) OnAllocationRequest(BufferInfo, bytesize.Size) {}
func (Never) OnSetRequest(BufferInfo, bytesize.Size)        {}
func (Never) OnReallocateRequest(BufferInfo, bytesize.Size) {}
func (Never) OnDestroy(BufferInfo)                          {}
func (Never) OnLock(BufferInfo)                             {}
func (Never) OnUnlock(BufferInfo)                           {}
func (Never) OnDumpSuccess(BufferInfo)                      {}
func (Never) OnRestoreSuccess(BufferInfo)                   {}
func (Never) Refresh()                                      {}
func (Never) Names() []string                               { return nil }
func (Never) Get(name string) (string, error)               { return "", newUnknownParamError(name) }
func (Never) Set(name, _ string) error                      { return newUnknownParamError(name) }
