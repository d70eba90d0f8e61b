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

// Package paramset parses the "name=value; name=value" strings used to
// configure eviction policies, adapted from the teacher's SuperFlag
// key-value grammar.
package paramset

import (
	"strings"

	"github.com/pkg/errors"
)

// Set is an immutable snapshot of name->value pairs.
type Set struct {
	m map[string]string
}

// Parse splits s on ";" and each segment on the first "=". Empty segments
// are skipped. Keys are trimmed and lower-cased; values are trimmed as-is.
func Parse(s string) (*Set, error) {
	m := make(map[string]string)
	for _, kv := range strings.Split(s, ";") {
		if strings.TrimSpace(kv) == "" {
			continue
		}
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return nil, errors.Errorf("malformed parameter %q: missing '='", kv)
		}
		key := strings.ToLower(strings.TrimSpace(parts[0]))
		m[key] = strings.TrimSpace(parts[1])
	}
	return &Set{m: m}, nil
}

// Get returns the value for name and whether it was present.
func (s *Set) Get(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.m[name]
	return v, ok
}

// String renders the set back into "name=value; name=value" form.
func (s *Set) String() string {
	if s == nil {
		return ""
	}
	var parts []string
	for k, v := range s.m {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, "; ")
}
