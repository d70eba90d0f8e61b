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
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Record is one logged event (spec.md 3: timestamp, severity, thread id,
// process id, channel tag, source file, source line, formatted message).
type Record struct {
	Time     time.Time
	Severity Severity
	Pid      int
	Tid      uint64
	File     string
	Line     int
	Channel  string
	Message  string
}

// timestampLayout renders Record.Time as spec.md 6's "d.m.Y H:M:S.f".
const timestampLayout = "02.01.2006 15:04:05.000000"

// formatUptime renders d as "H:M:S.f", unbounded on the hours field since a
// process can run past 24h unlike a wall-clock time.
func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	micros := d.Microseconds()
	secs := micros / 1_000_000
	micros %= 1_000_000
	mins := secs / 60
	secs %= 60
	hours := mins / 60
	mins %= 60
	return fmt.Sprintf("%02d:%02d:%02d.%06d", hours, mins, secs, micros)
}

// encodeRecord renders r as a single newline-terminated line in the format
// spec.md 6 mandates: [d.m.Y H:M:S.f][uptime H:M:S.f][pid][tid][severity]
// [channel] [file:line] message. Channel is inserted alongside severity
// since spec.md 3/4.8.1 both name it as a record field sinks filter on, even
// though the external-format example in spec.md 6 doesn't spell it out.
func encodeRecord(w *bufio.Writer, r Record) error {
	_, err := fmt.Fprintf(w, "[%s][%s][%d][%d][%s][%s] [%s:%d] %s\n",
		r.Time.UTC().Format(timestampLayout),
		formatUptime(r.Time.Sub(processStart)),
		r.Pid,
		r.Tid,
		r.Severity.String(),
		escape(r.Channel),
		escape(r.File),
		r.Line,
		escape(r.Message),
	)
	return err
}

// escape guards tab/newline/backslash so a record's Channel/File/Message
// never breaks the tab-free, newline-delimited line framing. Channel and
// File are assumed not to contain literal '[' or ']' (source paths and
// channel tags don't in practice); Message may contain them freely since
// it's captured to end-of-line with nothing delimited after it.
func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

func unescape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 't':
				b.WriteByte('\t')
				i++
				continue
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// lineRE parses a line produced by encodeRecord. Groups: 1=timestamp,
// 2=uptime (discarded, derived rather than stored), 3=pid, 4=tid,
// 5=severity, 6=channel, 7=file, 8=line, 9=message.
var lineRE = regexp.MustCompile(`^\[([^\]]*)\]\[([^\]]*)\]\[([^\]]*)\]\[([^\]]*)\]\[([^\]]*)\]\[([^\]]*)\] \[([^:\]]*):(\d+)\] (.*)$`)

// decodeRecords reads newline-delimited records from r until EOF. If a line
// doesn't parse (for instance because the stream was cut before its message),
// or the underlying reader fails, the records decoded so far are returned
// alongside a PREMATURE_END error. A final line without its trailing newline
// that still parses is kept as a record.
func decodeRecords(r io.Reader) ([]Record, error) {
	var (
		records []Record
		sc      = bufio.NewScanner(r)
		partial bool
	)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		rec, ok := parseLine(line)
		if !ok {
			partial = true
			break
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return records, wrapError(KindPrematureEnd, "read log stream", err)
	}
	if partial {
		return records, newError(KindPrematureEnd, "truncated log record")
	}
	return records, nil
}

func parseLine(line string) (Record, bool) {
	m := lineRE.FindStringSubmatch(line)
	if m == nil {
		return Record{}, false
	}
	ts, err := time.Parse(timestampLayout, m[1])
	if err != nil {
		return Record{}, false
	}
	pid, err := strconv.Atoi(m[3])
	if err != nil {
		return Record{}, false
	}
	tid, err := strconv.ParseUint(m[4], 10, 64)
	if err != nil {
		return Record{}, false
	}
	sev, ok := ParseSeverity(strings.ToLower(m[5]))
	if !ok {
		return Record{}, false
	}
	lineNum, err := strconv.Atoi(m[8])
	if err != nil {
		return Record{}, false
	}
	return Record{
		Time:     ts,
		Severity: sev,
		Pid:      pid,
		Tid:      tid,
		File:     unescape(m[7]),
		Line:     lineNum,
		Channel:  unescape(m[6]),
		Message:  unescape(m[9]),
	}, true
}
