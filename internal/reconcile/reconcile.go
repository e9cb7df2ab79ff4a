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

// Package reconcile decides the single output geometry kind for an
// export and the disposition of every row relative to it.  Shapefiles
// hold one geometry type per file, so a heterogeneous result set has to
// be reduced to one kind before anything is written.
//
// Reconcile is a pure function over the full row set: no I/O, no hidden
// state, so the disposition rules are independently testable.
package reconcile

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/aidingjing/shp-processor/internal/cell"
	"github.com/aidingjing/shp-processor/internal/coordparse"
	"github.com/aidingjing/shp-processor/internal/fieldstats"
)

// ErrNoRows is returned when no row survives reconciliation.  The
// caller must fail the export before any file I/O happens.
var ErrNoRows = errors.New("no rows left after reconciliation")

const DefaultMaxReasons = 20

// Rejection reasons are fixed strings so reports stay greppable.
const (
	ReasonUnparseable    = "unparseable coordinates"
	ReasonTooFewVertices = "insufficient vertices for target type"
	ReasonExcessVertices = "excess vertices for target type"
	ReasonCannotClose    = "cannot close ring"
)

type Disposition int

const (
	Accept Disposition = iota
	Coerce
	Reject
)

// Row pairs the attribute values of one result row with its parsed
// coordinate sequence.
type Row struct {
	Attributes map[string]cell.Value
	Sequence   *coordparse.Sequence
}

// RowOutcome is the decision for a single row.  For Coerce the Sequence
// holds the coerced pairs (for example a ring closed from a line);
// Accept keeps the input sequence as-is.
type RowOutcome struct {
	Disposition Disposition
	Sequence    *coordparse.Sequence
	Reason      string
}

// Outcome is the global reconciliation decision.
type Outcome struct {
	Target   coordparse.Kind
	Rows     []RowOutcome
	Accepted int
	Coerced  int
	Rejected int

	// Reasons holds the first MaxReasons rejection reasons, one per
	// rejected row, for user display.  Rejected has the full count.
	Reasons []string
}

type Options struct {
	// MaxReasons caps how many per-row rejection reasons are carried in
	// the outcome.  Defaults to DefaultMaxReasons.
	MaxReasons int
}

// Reconcile decides the target kind and each row's disposition.  The
// target is the override when given, otherwise the mode over the full
// row set computed with the same tie-break the field analyzer uses.
func Reconcile(rows []Row, override coordparse.Kind, options *Options) (*Outcome, error) {
	if options == nil {
		options = &Options{}
	}
	maxReasons := options.MaxReasons
	if maxReasons <= 0 {
		maxReasons = DefaultMaxReasons
	}

	target := override
	if target == coordparse.Invalid {
		counts := map[coordparse.Kind]int{}
		for _, row := range rows {
			counts[row.Sequence.Kind]++
		}
		target = fieldstats.Mode(counts)
	}
	if target == coordparse.Invalid {
		return nil, fmt.Errorf("%w: no row contains parseable coordinates", ErrNoRows)
	}

	outcome := &Outcome{
		Target: target,
		Rows:   make([]RowOutcome, len(rows)),
	}

	for i, row := range rows {
		outcome.Rows[i] = dispose(row.Sequence, target)
		switch outcome.Rows[i].Disposition {
		case Accept:
			outcome.Accepted++
		case Coerce:
			outcome.Coerced++
		case Reject:
			outcome.Rejected++
			if len(outcome.Reasons) < maxReasons {
				outcome.Reasons = append(outcome.Reasons, outcome.Rows[i].Reason)
			}
		}
	}

	if outcome.Accepted+outcome.Coerced == 0 {
		return nil, fmt.Errorf("%w: all %d rows were rejected", ErrNoRows, outcome.Rejected)
	}
	return outcome, nil
}

func dispose(seq *coordparse.Sequence, target coordparse.Kind) RowOutcome {
	if seq.Kind == target {
		return RowOutcome{Disposition: Accept, Sequence: seq}
	}

	switch seq.Kind {
	case coordparse.Invalid:
		return rejected(ReasonUnparseable)
	case coordparse.Point:
		// a single point cannot be coerced upward
		return rejected(ReasonTooFewVertices)
	case coordparse.Line:
		if target == coordparse.Point {
			return rejected(ReasonExcessVertices)
		}
		return closeRing(seq)
	case coordparse.Polygon:
		if target == coordparse.Point {
			return rejected(ReasonExcessVertices)
		}
		// a closed ring is a valid, if redundant, line
		line := &coordparse.Sequence{
			Kind:     coordparse.Line,
			Pairs:    seq.Pairs,
			Warnings: seq.Warnings,
		}
		return RowOutcome{Disposition: Coerce, Sequence: line}
	}
	return rejected(ReasonUnparseable)
}

// closeRing coerces a line to a polygon by appending the first vertex.
// The result must have at least 4 vertices to form a ring.
func closeRing(seq *coordparse.Sequence) RowOutcome {
	if len(seq.Pairs)+1 < 4 {
		return rejected(ReasonCannotClose)
	}
	pairs := make([]orb.Point, 0, len(seq.Pairs)+1)
	pairs = append(pairs, seq.Pairs...)
	pairs = append(pairs, seq.Pairs[0])
	closed := &coordparse.Sequence{
		Kind:     coordparse.Polygon,
		Pairs:    pairs,
		Warnings: seq.Warnings,
	}
	return RowOutcome{Disposition: Coerce, Sequence: closed}
}

func rejected(reason string) RowOutcome {
	return RowOutcome{Disposition: Reject, Reason: reason}
}
