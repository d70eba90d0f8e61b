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
	"sync/atomic"

	"github.com/sightlab/memcore/policy"
)

// Handle is the opaque identifier a caller holds for a tracked buffer. It
// survives dump/restore cycles and is never reused while its buffer is
// alive. The zero Handle is never issued by Register*; it is safe to use as
// an "invalid handle" sentinel in caller code.
type Handle = policy.Handle

var handleCounter atomic.Uint64

// nextHandle mints a fresh, never-before-issued Handle.
func nextHandle() Handle {
	return Handle(handleCounter.Add(1))
}
