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

// Command membench drives memcore.Manager through a scenario like those in
// SPEC_FULL.md 9 end to end: it registers a set of buffers, installs a
// policy, forces memory pressure, and reports what got evicted. It exists
// to have something runnable to point at while developing a policy or
// diagnosing a scratch-directory problem; it is not a benchmark harness
// comparing against other libraries.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/sightlab/memcore"
	"github.com/sightlab/memcore/bytesize"
	"github.com/sightlab/memcore/logger"
	"github.com/sightlab/memcore/memprobe"
	"github.com/sightlab/memcore/policy"
)

func main() {
	var (
		scratchDir  = pflag.String("scratch-dir", "", "scratch directory (defaults to a fresh temp dir)")
		policyName  = pflag.String("policy", "barrier", "eviction policy: none, barrier, valve")
		barrierStr  = pflag.String("barrier", "1MiB", "barrier policy threshold (bytesize.Parse grammar)")
		minFreeStr  = pflag.String("min-free-mem", "8MiB", "valve policy min_free_mem")
		numBuffers  = pflag.Int("buffers", 8, "number of buffers to register")
		bufSizeStr  = pflag.String("buffer-size", "256KiB", "size of each registered buffer")
		logPath     = pflag.String("log", "", "write a session log here (default: console only)")
		logPassword = pflag.String("log-password", "", "encrypt the session log with this password")
	)
	pflag.Parse()

	bufSize, err := bytesize.Parse(*bufSizeStr)
	if err != nil {
		fatalf("bad --buffer-size: %v", err)
	}

	log := buildLogger(*logPath, *logPassword)
	defer log.Close()

	dir := *scratchDir
	if dir == "" {
		d, err := os.MkdirTemp("", "membench-")
		if err != nil {
			fatalf("create scratch dir: %v", err)
		}
		dir = d
		log.Info("membench", "using temp scratch dir %s", dir)
	}

	mgr := memcore.NewManager(dir, memcore.WithLogger(log))

	switch *policyName {
	case "none":
		// leave policy.Never installed
	case "barrier":
		b := policy.NewBarrier(mgr.Access())
		if err := policy.ApplyParams(b, fmt.Sprintf("barrier=%s", *barrierStr)); err != nil {
			fatalf("apply barrier params: %v", err)
		}
		mgr.SetPolicy(b)
	case "valve":
		probe := memprobe.New()
		v := policy.NewValve(mgr.Access(), probe)
		if err := policy.ApplyParams(v, fmt.Sprintf("min_free_mem=%s", *minFreeStr)); err != nil {
			fatalf("apply valve params: %v", err)
		}
		mgr.SetPolicy(v)
	default:
		fatalf("unknown --policy %q", *policyName)
	}

	log.Info("membench", "registering %d buffers of %s each", *numBuffers, bytesize.Human(bufSize, bytesize.IEC))
	var handles []memcore.Handle
	for i := 0; i < *numBuffers; i++ {
		h, err := mgr.RegisterBuffer(bufSize)
		if err != nil {
			fatalf("register buffer %d: %v", i, err)
		}
		handles = append(handles, h)
	}

	stats := mgr.Stats()
	breakdown := mgr.StatsByState()
	log.Info("membench", "managed=%s dumped=%s buffers=%d (resident-unlocked=%d resident-locked=%d non-resident=%d)",
		bytesize.Human(stats.TotalManaged, bytesize.IEC),
		bytesize.Human(stats.TotalDumped, bytesize.IEC),
		stats.NumBuffers, breakdown.ResidentUnlocked, breakdown.ResidentLocked, breakdown.NonResident)

	for _, h := range handles {
		info, ok := mgr.Info(h)
		if !ok {
			continue
		}
		state := "resident"
		if !info.Resident {
			state = "dumped"
		}
		log.Debug("membench", "handle=%d size=%s state=%s", info.Handle, bytesize.Human(info.Size, bytesize.IEC), state)
	}
}

func buildLogger(path, password string) *logger.Logger {
	opts := []logger.Option{
		logger.WithLevel(logger.Debug),
		logger.WithSink(logger.NewConsoleSink(os.Stdout)),
	}
	if path != "" {
		var (
			sink logger.Sink
			err  error
		)
		if password != "" {
			sink, err = logger.NewEncryptedFileSink(path, password)
		} else {
			sink, err = logger.NewFileSink(path)
		}
		if err != nil {
			fatalf("open session log: %v", err)
		}
		opts = append(opts, logger.WithSink(sink))
	}
	return logger.New(opts...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "membench: "+format+"\n", args...)
	os.Exit(1)
}
