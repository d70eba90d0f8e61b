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
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// sinkConfig pairs a Sink with its own severity floor and optional channel
// filter: a sink only receives a record when record.Severity >= Level AND
// (Channel == "" OR record.Channel == Channel), per spec.md 4.8.1/4.8.5.
type sinkConfig struct {
	sink    Sink
	level   Severity
	channel string
}

func (sc sinkConfig) accepts(r Record) bool {
	if r.Severity < sc.level {
		return false
	}
	return sc.channel == "" || sc.channel == r.Channel
}

// Config is the assembled configuration a Logger is built from. Most
// callers use the functional options below instead of building one by
// hand.
type Config struct {
	Level       Severity
	Sinks       []sinkConfig
	AsyncBuffer int // 0 disables the async dispatch goroutine
	Abort       func()
}

// Option configures a Logger at construction time.
type Option func(*Config)

// SinkOption configures an individual sink's filter; pass to WithSink.
type SinkOption func(*sinkConfig)

// WithSinkLevel raises the sink's own severity floor above the Logger's
// (the default is Trace, i.e. no additional floor).
func WithSinkLevel(level Severity) SinkOption {
	return func(sc *sinkConfig) { sc.level = level }
}

// WithSinkChannel restricts the sink to records tagged with exactly this
// channel. The default is no channel filter.
func WithSinkChannel(channel string) SinkOption {
	return func(sc *sinkConfig) { sc.channel = channel }
}

// WithLevel sets the minimum severity a Logger will consider dispatching at
// all; a sink may still raise its own floor further with WithSinkLevel.
func WithLevel(s Severity) Option { return func(c *Config) { c.Level = s } }

// WithSink adds s to the set of sinks a dispatched record may reach,
// subject to its own filter (see WithSinkLevel/WithSinkChannel). May be
// called more than once to fan out to several sinks.
func WithSink(s Sink, opts ...SinkOption) Option {
	return func(c *Config) {
		sc := sinkConfig{sink: s, level: Trace}
		for _, opt := range opts {
			opt(&sc)
		}
		c.Sinks = append(c.Sinks, sc)
	}
}

// WithAsyncBuffer makes non-fatal records queue onto a buffered channel
// drained by a background goroutine, instead of being written inline on the
// logging goroutine. n is the channel capacity; sends block once it's full
// (backpressure rather than silently dropping records).
func WithAsyncBuffer(n int) Option { return func(c *Config) { c.AsyncBuffer = n } }

// WithAbort overrides what Fatal calls after flushing. The default is
// os.Exit(1); tests substitute something that doesn't kill the process.
func WithAbort(fn func()) Option { return func(c *Config) { c.Abort = fn } }

// Logger dispatches Records to a set of Sinks, filtered by severity.
type Logger struct {
	level Severity
	sinks []sinkConfig
	abort func()

	queue chan Record
	wg    sync.WaitGroup
}

// New builds a Logger from opts.
func New(opts ...Option) *Logger {
	cfg := Config{Level: Info, Abort: func() { os.Exit(1) }}
	for _, opt := range opts {
		opt(&cfg)
	}
	l := &Logger{level: cfg.Level, sinks: cfg.Sinks, abort: cfg.Abort}
	if cfg.AsyncBuffer > 0 {
		l.queue = make(chan Record, cfg.AsyncBuffer)
		l.wg.Add(1)
		go l.drain()
	}
	return l
}

var (
	defaultOnce sync.Once
	defaultLog  *Logger
)

// Default returns the process-wide Logger used by memcore's own internal
// diagnostics when no logger.Logger is supplied via memcore.WithLogger. It
// writes Info and above to stderr, synchronously.
func Default() *Logger {
	defaultOnce.Do(func() {
		defaultLog = New(WithLevel(Info), WithSink(NewConsoleSink(os.Stderr)))
	})
	return defaultLog
}

func (l *Logger) drain() {
	defer l.wg.Done()
	for r := range l.queue {
		l.dispatch(r)
	}
}

func (l *Logger) dispatch(r Record) {
	for _, sc := range l.sinks {
		if !sc.accepts(r) {
			continue
		}
		if err := sc.sink.Write(r); err != nil {
			fmt.Fprintf(os.Stderr, "logger: sink write failed: %v\n", err)
		}
	}
}

func (l *Logger) log(sev Severity, channel, format string, args ...any) {
	if sev < l.level {
		return
	}
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file, line = "???", 0
	}
	rec := Record{
		Time:     time.Now(),
		Severity: sev,
		Pid:      processPID,
		Tid:      callerTid(),
		File:     filepath.Base(file),
		Line:     line,
		Channel:  channel,
		Message:  fmt.Sprintf(format, args...),
	}

	if sev == Fatal {
		// Fatal always bypasses the async queue: the process may not
		// survive long enough for a drain goroutine to run.
		l.dispatch(rec)
		l.Flush()
		l.abort()
		return
	}

	if l.queue != nil {
		l.queue <- rec
		return
	}
	l.dispatch(rec)
}

func (l *Logger) Trace(channel, format string, args ...any) { l.log(Trace, channel, format, args...) }
func (l *Logger) Debug(channel, format string, args ...any) { l.log(Debug, channel, format, args...) }
func (l *Logger) Info(channel, format string, args ...any)  { l.log(Info, channel, format, args...) }
func (l *Logger) Warn(channel, format string, args ...any)  { l.log(Warn, channel, format, args...) }
func (l *Logger) Error(channel, format string, args ...any) { l.log(Error, channel, format, args...) }
func (l *Logger) Fatal(channel, format string, args ...any) { l.log(Fatal, channel, format, args...) }

// Flush flushes every sink.
func (l *Logger) Flush() error {
	var first error
	for _, sc := range l.sinks {
		if err := sc.sink.Flush(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close stops the async drain goroutine (if any) and closes every sink.
func (l *Logger) Close() error {
	if l.queue != nil {
		close(l.queue)
		l.wg.Wait()
	}
	var first error
	for _, sc := range l.sinks {
		if err := sc.sink.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
