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
	"os"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// FileSink appends zstd-compressed, newline-framed records to a file. It
// does not encrypt; use NewEncryptedFileSink for that.
type FileSink struct {
	mu   sync.Mutex
	f    *os.File
	zw   *zstd.Encoder
	bw   *bufio.Writer
	path string
}

// NewFileSink opens (creating if necessary) path and appends to it.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, wrapError(KindIO, "open log file", err)
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, wrapError(KindIO, "start zstd stream", err)
	}
	return &FileSink{f: f, zw: zw, bw: bufio.NewWriter(zw), path: path}, nil
}

func (s *FileSink) Write(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return encodeRecord(s.bw, r)
}

func (s *FileSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.bw.Flush(); err != nil {
		return err
	}
	return s.zw.Flush()
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.bw.Flush(); err != nil {
		return err
	}
	if err := s.zw.Close(); err != nil {
		return err
	}
	return s.f.Close()
}

// extractPlainFile decompresses a FileSink's file back into records,
// without any decryption step.
func extractPlainFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapError(KindIO, "open log file", err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, wrapError(KindPrematureEnd, "start zstd decode", err)
	}
	defer zr.Close()

	return decodeRecords(zr)
}
