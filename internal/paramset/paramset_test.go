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

package paramset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	s, err := Parse("barrier=500MiB; ; min_free_mem = 1GiB ")
	require.NoError(t, err)

	v, ok := s.Get("barrier")
	require.True(t, ok)
	require.Equal(t, "500MiB", v)

	v, ok = s.Get("min_free_mem")
	require.True(t, ok)
	require.Equal(t, "1GiB", v)

	_, ok = s.Get("missing")
	require.False(t, ok)
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse("barrier")
	require.Error(t, err)
}
