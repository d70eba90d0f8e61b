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
	"fmt"
	"io"
	"sync"
)

// ConsoleSink writes human-readable lines to an io.Writer, typically
// os.Stderr. It flushes after every write; consoles are for humans
// watching in real time, not throughput.
type ConsoleSink struct {
	mu sync.Mutex
	w  *bufio.Writer
}

// NewConsoleSink wraps w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: bufio.NewWriter(w)}
}

func (c *ConsoleSink) Write(r Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.w, "%s [%d:%d] %-5s %s %s:%d: %s\n",
		r.Time.Format("15:04:05.000000"), r.Pid, r.Tid, r.Severity, r.Channel, r.File, r.Line, r.Message)
	if err != nil {
		return err
	}
	return c.w.Flush()
}

func (c *ConsoleSink) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.Flush()
}

func (c *ConsoleSink) Close() error { return c.Flush() }
