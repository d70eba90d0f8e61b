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
	"os"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// EncryptedFileSink is a FileSink whose zstd-compressed stream is further
// encrypted with AES-256-CBC under a password-derived key (see crypt.go).
// Because CBC chains across the whole file, Flush cannot push the final
// partial AES block to disk early — only Close does, by padding it.
type EncryptedFileSink struct {
	mu       sync.Mutex
	f        *os.File
	cw       *cbcWriter
	zw       *zstd.Encoder
	bw       *bufio.Writer
	path     string
	password string
}

// NewEncryptedFileSink creates path if it doesn't exist. Unlike FileSink,
// an existing encrypted file cannot be appended to in place (the CBC chain
// has already been finalized by a prior Close); use RotateKey or Relocate
// to fold new content into an existing encrypted log.
func NewEncryptedFileSink(path, password string) (*EncryptedFileSink, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, wrapError(KindIO, "open log file", err)
	}
	cw, err := newCBCWriter(f, password)
	if err != nil {
		f.Close()
		return nil, err
	}
	zw, err := zstd.NewWriter(cw)
	if err != nil {
		f.Close()
		return nil, wrapError(KindIO, "start zstd stream", err)
	}
	return &EncryptedFileSink{
		f: f, cw: cw, zw: zw, bw: bufio.NewWriter(zw),
		path: path, password: password,
	}, nil
}

func (s *EncryptedFileSink) Write(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return encodeRecord(s.bw, r)
}

func (s *EncryptedFileSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.bw.Flush(); err != nil {
		return err
	}
	return s.zw.Flush()
}

func (s *EncryptedFileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.bw.Flush(); err != nil {
		return err
	}
	if err := s.zw.Close(); err != nil {
		return err
	}
	if err := s.cw.Close(); err != nil {
		return err
	}
	return s.f.Close()
}

// extractEncryptedFile decrypts and decompresses path back into records.
// A wrong password surfaces as BAD_PASSWORD. A truncated file still yields
// whatever records decoded from the plaintext recovered before the cut,
// returned alongside a PREMATURE_END error rather than discarding them.
func extractEncryptedFile(path, password string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapError(KindIO, "open log file", err)
	}
	defer f.Close()

	cr, err := newCBCReader(f, password)
	if err != nil {
		return nil, err
	}
	plain, decErr := cr.decryptAll()
	if len(plain) == 0 {
		return nil, decErr
	}

	zr, err := zstd.NewReader(bytes.NewReader(plain))
	if err != nil {
		if decErr != nil {
			return nil, decErr
		}
		return nil, wrapError(KindPrematureEnd, "start zstd decode", err)
	}
	defer zr.Close()

	records, err := decodeRecords(zr)
	if decErr != nil {
		return records, decErr
	}
	return records, err
}
