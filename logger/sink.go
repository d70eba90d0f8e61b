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

// Sink receives records a Logger has decided to emit. Implementations must
// be safe for concurrent Write calls: a Logger built with WithAsyncBuffer
// serializes calls per sink via its dispatch goroutine, but a synchronous
// Logger writes from each logging goroutine directly, and so does direct use
// of a Sink (tests, a custom driver).
type Sink interface {
	Write(Record) error
	Flush() error
	Close() error
}
