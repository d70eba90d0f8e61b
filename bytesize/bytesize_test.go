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

package bytesize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Size
	}{
		{"1.5 MiB", 1572864},
		{"1500 kb", 1500000},
		{"500", 500},
		{"2k", 2 * KiB},
		{"1 B", 1},
		{"  2   mib  ", 2 * MiB},
		{"1.9 B", 1},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		require.NoError(t, err, c.in)
		require.Equal(t, c.want, got, c.in)
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"-1 B", "2 foo", "", "1.5.5 MB", "abc"} {
		_, err := Parse(in)
		require.Error(t, err, in)
		var berr *Error
		require.True(t, errors.As(err, &berr))
		require.Equal(t, KindBadCast, berr.Kind)
	}
}

func TestParseOverflow(t *testing.T) {
	_, err := Parse("99999999999999999999 PiB")
	require.Error(t, err)
}

func TestFormat(t *testing.T) {
	require.Equal(t, "500 B", Format(500, B))
	require.Equal(t, "1.5 MiB", Format(Size(1572864), MiB))
	require.Equal(t, "2 GiB", Format(2*GiB, GiB))
}

func TestRoundTripIEC(t *testing.T) {
	for _, unit := range []Size{B, KiB, MiB, GiB} {
		for _, n := range []uint64{0, 1, 3, 1024} {
			s := Size(n) * unit
			got, err := Parse(Format(s, unit))
			require.NoError(t, err)
			require.Equal(t, s, got)
		}
	}
}

func TestHuman(t *testing.T) {
	require.Equal(t, "1.0 MiB", Human(1*MiB, IEC))
	require.Equal(t, "1.0 MB", Human(1*MB, SI))
}

func TestOf(t *testing.T) {
	got, err := Of(2, MiB)
	require.NoError(t, err)
	require.Equal(t, 2*MiB, got)

	_, err = Of(-1, MiB)
	require.Error(t, err)
}
