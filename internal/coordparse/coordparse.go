// Copyright 2025 the shp-processor authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package coordparse turns text-encoded coordinate cells into ordered
// coordinate sequences and classifies them as point, line, or polygon
// geometries.  The preferred encoding is a JSON array of pairs like
// [[116.404,39.915],[116.405,39.916]]; anything that fails strict JSON
// parsing goes through a permissive pattern scan instead.
package coordparse

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
)

// Kind classifies a parsed coordinate sequence.
type Kind int

const (
	Invalid Kind = iota
	Point
	Line
	Polygon
)

func (k Kind) String() string {
	switch k {
	case Point:
		return "Point"
	case Line:
		return "Line"
	case Polygon:
		return "Polygon"
	default:
		return "Invalid"
	}
}

// ParseKind returns the Kind named by s, or Invalid and false if the
// name is not recognized.  Matching is case-insensitive and accepts the
// LineString/Polygon aliases used by common vector formats.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "point":
		return Point, true
	case "line", "linestring":
		return Line, true
	case "polygon":
		return Polygon, true
	default:
		return Invalid, false
	}
}

// Diagnostic records why a piece of input was rejected during parsing.
// Only collected when the parser is configured as verbose.
type Diagnostic struct {
	Input  string `json:"input"`
	Reason string `json:"reason"`
}

// Sequence is the result of parsing one cell value: an ordered list of
// coordinate pairs tagged with the inferred geometry kind.  Order is
// significant since it defines the vertex order of lines and rings.
type Sequence struct {
	Kind        Kind
	Pairs       []orb.Point
	Warnings    []string
	Diagnostics []Diagnostic
}

// Closed reports whether the first and last pair coincide within epsilon.
func (s *Sequence) Closed(epsilon float64) bool {
	if len(s.Pairs) < 2 {
		return false
	}
	first := s.Pairs[0]
	last := s.Pairs[len(s.Pairs)-1]
	return math.Abs(first[0]-last[0]) <= epsilon && math.Abs(first[1]-last[1]) <= epsilon
}

const DefaultClosingEpsilon = 1e-9

type Options struct {
	// ClosingEpsilon is the tolerance used to decide whether a sequence
	// forms a closed ring.  Zero or negative selects
	// DefaultClosingEpsilon.
	ClosingEpsilon float64

	// Verbose enables per-substring diagnostics on the returned sequences.
	Verbose bool

	// Logger receives debug events for rejected input when set.
	Logger *zerolog.Logger
}

type Parser struct {
	epsilon float64
	verbose bool
	logger  zerolog.Logger
}

func New(options *Options) *Parser {
	if options == nil {
		options = &Options{}
	}
	epsilon := options.ClosingEpsilon
	if epsilon <= 0 {
		epsilon = DefaultClosingEpsilon
	}
	logger := zerolog.Nop()
	if options.Logger != nil {
		logger = *options.Logger
	}
	return &Parser{
		epsilon: epsilon,
		verbose: options.Verbose,
		logger:  logger,
	}
}

// The permissive fallback looks for bracketed numeric pairs first.  The
// token class is deliberately loose; strconv.ParseFloat is the actual
// gatekeeper and a token it rejects skips that pair only.
var (
	bracketedPair = regexp.MustCompile(`\[\s*([-+\d.eE]+)\s*,\s*([-+\d.eE]+)\s*\]`)
	flatPair      = regexp.MustCompile(`([-+]?\d+(?:\.\d+)?(?:[eE][-+]?\d+)?)\s*,\s*([-+]?\d+(?:\.\d+)?(?:[eE][-+]?\d+)?)`)
)

// Parse parses a single coordinate cell.  It never fails: input that
// yields no usable pairs comes back as an Invalid sequence with zero
// pairs, which is the normal "no spatial data in this row" case.
func (p *Parser) Parse(raw string) *Sequence {
	seq := &Sequence{}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return seq
	}

	if !p.parseStrict(trimmed, seq) {
		p.parsePermissive(trimmed, seq)
	}

	seq.Kind = p.classify(seq)
	p.checkRange(seq)
	return seq
}

// classify applies the geometry inference rule: no pairs is invalid, a
// single pair is a point, a ring of at least 4 pairs closed within
// epsilon is a polygon, and everything else is a line.
func (p *Parser) classify(seq *Sequence) Kind {
	switch {
	case len(seq.Pairs) == 0:
		return Invalid
	case len(seq.Pairs) == 1:
		return Point
	case len(seq.Pairs) >= 4 && seq.Closed(p.epsilon):
		return Polygon
	default:
		return Line
	}
}

// parseStrict attempts the JSON array-of-pairs encoding.  It reports
// false when the input is not a JSON array at all; element failures
// inside a valid array skip that element and continue.
func (p *Parser) parseStrict(raw string, seq *Sequence) bool {
	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elements); err != nil {
		p.reject(seq, raw, "not a JSON array: "+err.Error())
		return false
	}

	anyPair := false
	for _, element := range elements {
		var pair []float64
		if err := json.Unmarshal(element, &pair); err != nil {
			p.reject(seq, string(element), "not a numeric pair")
			continue
		}
		if len(pair) < 2 {
			p.reject(seq, string(element), "fewer than two numbers")
			continue
		}
		if !finite(pair[0]) || !finite(pair[1]) {
			p.reject(seq, string(element), "non-finite coordinate")
			continue
		}
		seq.Pairs = append(seq.Pairs, orb.Point{pair[0], pair[1]})
		anyPair = true
	}

	// A JSON array with no usable pair elements (for example a flat
	// [x,y] array, which decodes element-wise as bare numbers) falls
	// through to the permissive scan.
	return anyPair
}

// parsePermissive scans for bracketed numeric pairs.  When the text
// contains none, a flat "number,number" scan runs instead; bracketed
// matches always win so that nested arrays are not double-counted.
func (p *Parser) parsePermissive(raw string, seq *Sequence) {
	matches := bracketedPair.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		matches = flatPair.FindAllStringSubmatch(raw, -1)
	}

	for _, match := range matches {
		x, errX := strconv.ParseFloat(match[1], 64)
		y, errY := strconv.ParseFloat(match[2], 64)
		if errX != nil || errY != nil || !finite(x) || !finite(y) {
			p.reject(seq, match[0], "unparseable numeric token")
			continue
		}
		seq.Pairs = append(seq.Pairs, orb.Point{x, y})
	}
}

// checkRange flags pairs outside the geographic longitude/latitude
// domain.  A violation is a warning, not a failure: projected
// coordinate systems legitimately use other ranges.
func (p *Parser) checkRange(seq *Sequence) {
	for i, pair := range seq.Pairs {
		if pair[0] < -180 || pair[0] > 180 {
			seq.Warnings = append(seq.Warnings, "pair "+strconv.Itoa(i+1)+": x outside [-180, 180]")
		}
		if pair[1] < -90 || pair[1] > 90 {
			seq.Warnings = append(seq.Warnings, "pair "+strconv.Itoa(i+1)+": y outside [-90, 90]")
		}
	}
}

func (p *Parser) reject(seq *Sequence, input string, reason string) {
	if !p.verbose {
		return
	}
	if len(input) > 80 {
		input = input[:80]
	}
	seq.Diagnostics = append(seq.Diagnostics, Diagnostic{Input: input, Reason: reason})
	p.logger.Debug().Str("input", input).Str("reason", reason).Msg("rejected coordinate input")
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
