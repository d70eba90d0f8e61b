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

// Extract decodes every record from an encrypted log file written by
// EncryptedFileSink. A wrong password is reported as BAD_PASSWORD; a
// truncated file returns the records that preceded the truncation
// alongside a PREMATURE_END error, so a partially-written log from a crash
// is still recoverable.
func Extract(path, password string) ([]Record, error) {
	return extractEncryptedFile(path, password)
}

// ExtractPlain is Extract's counterpart for a FileSink's unencrypted,
// zstd-only log.
func ExtractPlain(path string) ([]Record, error) {
	return extractPlainFile(path)
}

// Verify is a dry-run of Extract: it reports whether password opens path
// without returning the (potentially large) decoded record set. It still
// distinguishes a truncated-but-genuine file (PREMATURE_END, password was
// right) from a wrong password (BAD_PASSWORD).
func Verify(path, password string) error {
	_, err := extractEncryptedFile(path, password)
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok && e.Kind == KindPrematureEnd {
		return err
	}
	return err
}
