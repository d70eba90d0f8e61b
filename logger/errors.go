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

// Kind classifies a logger error.
type Kind string

const (
	// KindBadPassword means the verification header on an encrypted log
	// could not be decrypted with the supplied password.
	KindBadPassword Kind = "BAD_PASSWORD"
	// KindPrematureEnd means the log file ended mid-record; Extract and
	// ExtractPlain still return whatever records were fully readable before
	// the truncation.
	KindPrematureEnd Kind = "PREMATURE_END"
	// KindIO wraps an underlying filesystem failure.
	KindIO Kind = "IO_FAILED"
)

// Error is returned by the logger's extract/rotate/relocate operations.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, msg string) *Error             { return &Error{Kind: kind, Msg: msg} }
func wrapError(kind Kind, msg string, err error) *Error { return &Error{Kind: kind, Msg: msg, Err: err} }

// ErrBadPassword is the sentinel for errors.Is checks against any
// BAD_PASSWORD error.
var ErrBadPassword = &Error{Kind: KindBadPassword}

// ErrPrematureEnd is the sentinel for errors.Is checks against any
// PREMATURE_END error.
var ErrPrematureEnd = &Error{Kind: KindPrematureEnd}
