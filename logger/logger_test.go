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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.log")

	sink, err := NewEncryptedFileSink(path, "correct horse battery staple")
	require.NoError(t, err)
	require.NoError(t, sink.Write(Record{Channel: "core", Message: "hello"}))
	require.NoError(t, sink.Write(Record{Channel: "core", Message: "world"}))
	require.NoError(t, sink.Close())

	records, err := Extract(path, "correct horse battery staple")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "hello", records[0].Message)
	require.Equal(t, "world", records[1].Message)
}

func TestExtractWrongPassword(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.log")

	sink, err := NewEncryptedFileSink(path, "right")
	require.NoError(t, err)
	require.NoError(t, sink.Write(Record{Channel: "core", Message: "hi"}))
	require.NoError(t, sink.Close())

	_, err = Extract(path, "wrong")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrBadPassword))
}

func TestExtractTruncatedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.log")

	sink, err := NewEncryptedFileSink(path, "pw")
	require.NoError(t, err)
	require.NoError(t, sink.Write(Record{Channel: "core", Message: "hello"}))
	// Flush establishes a zstd sync point: "hello" is decodable on its own
	// regardless of what happens to bytes written after it.
	require.NoError(t, sink.Flush())
	require.NoError(t, sink.Write(Record{Channel: "core", Message: "world"}))
	require.NoError(t, sink.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, info.Size()-3))

	records, err := Extract(path, "pw")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrPrematureEnd))
	require.NotEmpty(t, records)
	require.Equal(t, "hello", records[0].Message)
}

func TestVerifyPlausibleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.log")

	sink, err := NewEncryptedFileSink(path, "pw")
	require.NoError(t, err)
	require.NoError(t, sink.Write(Record{Channel: "core", Message: "x"}))
	require.NoError(t, sink.Close())

	require.NoError(t, Verify(path, "pw"))
	require.Error(t, Verify(path, "not-pw"))
}

func TestRotateKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.log")

	sink, err := NewEncryptedFileSink(path, "old")
	require.NoError(t, err)
	require.NoError(t, sink.Write(Record{Channel: "core", Message: "a"}))
	require.NoError(t, sink.Close())

	require.NoError(t, RotateKey(path, "old", "new"))

	_, err = Extract(path, "old")
	require.Error(t, err)

	records, err := Extract(path, "new")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "a", records[0].Message)
}

func TestRelocateMergesExistingTarget(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.log")
	dst := filepath.Join(dir, "dst.log")

	s1, err := NewEncryptedFileSink(src, "pw")
	require.NoError(t, err)
	require.NoError(t, s1.Write(Record{Channel: "c", Message: "from-src"}))
	require.NoError(t, s1.Close())

	s2, err := NewEncryptedFileSink(dst, "pw")
	require.NoError(t, err)
	require.NoError(t, s2.Write(Record{Channel: "c", Message: "from-dst"}))
	require.NoError(t, s2.Close())

	require.NoError(t, Relocate(src, dst, "pw"))
	_, err = os.Stat(src)
	require.True(t, os.IsNotExist(err))

	records, err := Extract(dst, "pw")
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestFileSinkPlainRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.log")

	sink, err := NewFileSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.Write(Record{Channel: "c", Message: "one"}))
	require.NoError(t, sink.Write(Record{Channel: "c", Message: "two"}))
	require.NoError(t, sink.Close())

	records, err := ExtractPlain(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestLoggerLevelFilter(t *testing.T) {
	var sink recordingSink
	l := New(WithLevel(Warn), WithSink(&sink))
	l.Info("c", "dropped")
	l.Warn("c", "kept")
	require.NoError(t, l.Close())
	require.Len(t, sink.records, 1)
	require.Equal(t, "kept", sink.records[0].Message)
}

func TestSinkLevelAndChannelFilter(t *testing.T) {
	var errSink, coreSink recordingSink
	l := New(
		WithSink(&errSink, WithSinkLevel(Error)),
		WithSink(&coreSink, WithSinkChannel("core")),
	)
	l.Info("core", "info on core")
	l.Warn("other", "warn on other")
	l.Error("other", "error on other")
	require.NoError(t, l.Close())

	require.Len(t, errSink.records, 1)
	require.Equal(t, "error on other", errSink.records[0].Message)

	require.Len(t, coreSink.records, 1)
	require.Equal(t, "info on core", coreSink.records[0].Message)
}

func TestRecordCarriesCallerMetadata(t *testing.T) {
	var sink recordingSink
	l := New(WithSink(&sink))
	l.Info("core", "hi")
	require.NoError(t, l.Close())

	require.Len(t, sink.records, 1)
	rec := sink.records[0]
	require.Equal(t, os.Getpid(), rec.Pid)
	require.NotZero(t, rec.Tid)
	require.Equal(t, "logger_test.go", rec.File)
	require.NotZero(t, rec.Line)
}

func TestLoggerFatalBypassesAsyncQueue(t *testing.T) {
	var sink recordingSink
	aborted := false
	l := New(WithAsyncBuffer(8), WithSink(&sink), WithAbort(func() { aborted = true }))
	l.Fatal("c", "boom")
	require.True(t, aborted)
	require.Len(t, sink.records, 1)
	require.NoError(t, l.Close())
}

type recordingSink struct {
	records []Record
}

func (s *recordingSink) Write(r Record) error { s.records = append(s.records, r); return nil }
func (s *recordingSink) Flush() error         { return nil }
func (s *recordingSink) Close() error         { return nil }
