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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyParams(t *testing.T) {
	b := NewBarrier(newFakeManager())
	require.NoError(t, ApplyParams(b, "barrier=1GiB"))
	v, err := b.Get("barrier")
	require.NoError(t, err)
	require.Equal(t, "1.0 GiB", v)
}

func TestApplyParamsIgnoresUnrelatedNames(t *testing.T) {
	b := NewBarrier(newFakeManager())
	require.NoError(t, ApplyParams(b, "min_free_mem=1GiB"))
	v, err := b.Get("barrier")
	require.NoError(t, err)
	require.Equal(t, "500 MiB", v)
}
