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

// Package bytesize parses and formats human-readable byte quantities, in
// both SI (KB, MB, ...) and IEC (KiB, MiB, ...) families.
package bytesize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// Size is a nonnegative count of bytes.
type Size uint64

// Unit constants. SI units are powers of 10, IEC units are powers of 2.
const (
	B Size = 1

	KB = B * 1000
	MB = KB * 1000
	GB = MB * 1000
	TB = GB * 1000
	PB = TB * 1000

	KiB = B * 1024
	MiB = KiB * 1024
	GiB = MiB * 1024
	TiB = GiB * 1024
	PiB = TiB * 1024
)

// Family selects which unit ladder Human climbs.
type Family int

const (
	SI Family = iota
	IEC
)

// Of returns size bytes expressed as n units. It fails if n is negative.
func Of(n int64, unit Size) (Size, error) {
	if n < 0 {
		return 0, newError(KindBadCast, fmt.Sprintf("bad size: %d < 0", n))
	}
	return Size(n) * unit, nil
}

var unitTokens = map[string]Size{
	"b": B, "byte": B, "bytes": B,
	"kb": KB, "mb": MB, "gb": GB, "tb": TB, "pb": PB,
	"k": KiB, "kib": KiB,
	"m": MiB, "mib": MiB,
	"g": GiB, "gib": GiB,
	"t": TiB, "tib": TiB,
	"p": PiB, "pib": PiB,
}

// grammar: WS (int|real) WS unit? WS, full match required.
var sizePattern = regexp.MustCompile(`^\s*(-?[0-9]+(?:\.[0-9]+)?)\s*([a-zA-Z]*)\s*$`)

// Parse parses a human size string such as "1.5 MiB", "1500kb", "2 B".
// Bare single letters (k, m, g, t, p) mean the IEC unit. The parser picks the
// integer branch when the numeral has no fractional part, multiplying
// exactly; otherwise it floors (rounds toward zero) the real-valued product.
func Parse(s string) (Size, error) {
	m := sizePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, newError(KindBadCast, fmt.Sprintf("bad size: %q", s))
	}

	numeral, unitTok := m[1], strings.ToLower(m[2])

	unit := B
	if unitTok != "" {
		u, ok := unitTokens[unitTok]
		if !ok {
			return 0, newError(KindBadCast, fmt.Sprintf("bad unit: %q", unitTok))
		}
		unit = u
	}

	if strings.HasPrefix(numeral, "-") {
		return 0, newError(KindBadCast, fmt.Sprintf("bad size: %s < 0", numeral))
	}

	if !strings.Contains(numeral, ".") {
		n, err := strconv.ParseUint(numeral, 10, 64)
		if err != nil {
			return 0, newError(KindBadCast, errors.Wrapf(err, "bad size: %q", s).Error())
		}
		result, overflow := mulOverflows(n, uint64(unit))
		if overflow {
			return 0, newError(KindBadCast, fmt.Sprintf("overflow: %q", s))
		}
		return Size(result), nil
	}

	f, err := strconv.ParseFloat(numeral, 64)
	if err != nil {
		return 0, newError(KindBadCast, errors.Wrapf(err, "bad size: %q", s).Error())
	}
	product := math.Floor(f * float64(unit))
	if product < 0 || product > float64(math.MaxUint64) {
		return 0, newError(KindBadCast, fmt.Sprintf("overflow: %q", s))
	}
	return Size(uint64(product)), nil
}

func mulOverflows(a, b uint64) (uint64, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	result := a * b
	if result/a != b {
		return 0, true
	}
	return result, false
}

// Format renders size in terms of unit: an integer when unit is B, otherwise
// a floating point value with no trailing zeros, followed by the unit name.
func Format(size Size, unit Size) string {
	name := unitName(unit)
	if unit == B {
		return fmt.Sprintf("%d %s", uint64(size), name)
	}
	value := float64(size) / float64(unit)
	return fmt.Sprintf("%s %s", trimFloat(value), name)
}

func trimFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}

func unitName(unit Size) string {
	switch unit {
	case B:
		return "B"
	case KB:
		return "KB"
	case MB:
		return "MB"
	case GB:
		return "GB"
	case TB:
		return "TB"
	case PB:
		return "PB"
	case KiB:
		return "KiB"
	case MiB:
		return "MiB"
	case GiB:
		return "GiB"
	case TiB:
		return "TiB"
	case PiB:
		return "PiB"
	default:
		return "?"
	}
}

// Human renders size using the largest unit in the chosen family for which
// size is at least one unit. It delegates to dustin/go-humanize, which
// already implements this "largest applicable unit" search for both
// families.
func Human(size Size, family Family) string {
	switch family {
	case IEC:
		return humanize.IBytes(uint64(size))
	default:
		return humanize.Bytes(uint64(size))
	}
}

func (s Size) String() string {
	return Human(s, IEC)
}
