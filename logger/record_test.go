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

package logger

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRecordRoundTrip(t *testing.T) {
	rec := Record{
		Time:     time.Date(2026, 3, 5, 13, 45, 2, 123456000, time.UTC),
		Severity: Warn,
		Pid:      4242,
		Tid:      7,
		File:     "manager.go",
		Line:     118,
		Channel:  "memcore",
		Message:  "dump of handle 3 failed: disk full",
	}

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	require.NoError(t, encodeRecord(w, rec))
	require.NoError(t, w.Flush())

	line := strings.TrimRight(buf.String(), "\n")
	got, ok := parseLine(line)
	require.True(t, ok)
	require.True(t, rec.Time.Equal(got.Time))
	require.Equal(t, rec.Severity, got.Severity)
	require.Equal(t, rec.Pid, got.Pid)
	require.Equal(t, rec.Tid, got.Tid)
	require.Equal(t, rec.File, got.File)
	require.Equal(t, rec.Line, got.Line)
	require.Equal(t, rec.Channel, got.Channel)
	require.Equal(t, rec.Message, got.Message)
}

func TestEncodeDecodeRecordEscapesStructuralCharacters(t *testing.T) {
	rec := Record{
		Time:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Severity: Info,
		Pid:      1,
		Tid:      1,
		File:     "a.go",
		Line:     1,
		Channel:  "core",
		Message:  "line one\tcolumns\nline two [bracketed] and a \\backslash",
	}

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	require.NoError(t, encodeRecord(w, rec))
	require.NoError(t, w.Flush())

	line := strings.TrimRight(buf.String(), "\n")
	got, ok := parseLine(line)
	require.True(t, ok)
	require.Equal(t, rec.Channel, got.Channel)
	require.Equal(t, rec.Message, got.Message)
}

func TestDecodeRecordsRejectsMalformedLine(t *testing.T) {
	records, err := decodeRecords(strings.NewReader("not a valid record line\n"))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrPrematureEnd))
	require.Empty(t, records)
}
