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

package geomutil

import (
	"math"
	"sync"

	"github.com/paulmach/orb"

	"github.com/aidingjing/shp-processor/internal/coordparse"
)

// Stats accumulates summary statistics over a stream of sequences.
// Pass concurrent to NewStats when sequences are added from multiple
// goroutines.
type Stats struct {
	mutex       *sync.RWMutex
	counts      map[coordparse.Kind]int
	totalLength float64
	totalArea   float64
	minX        float64
	maxX        float64
	minY        float64
	maxY        float64
	empty       bool
}

func NewStats(concurrent bool) *Stats {
	var mutex *sync.RWMutex
	if concurrent {
		mutex = &sync.RWMutex{}
	}
	return &Stats{
		mutex:  mutex,
		counts: map[coordparse.Kind]int{},
		minX:   math.Inf(1),
		maxX:   math.Inf(-1),
		minY:   math.Inf(1),
		maxY:   math.Inf(-1),
		empty:  true,
	}
}

func (s *Stats) writeLock() {
	if s.mutex == nil {
		return
	}
	s.mutex.Lock()
}

func (s *Stats) writeUnlock() {
	if s.mutex == nil {
		return
	}
	s.mutex.Unlock()
}

func (s *Stats) readLock() {
	if s.mutex == nil {
		return
	}
	s.mutex.RLock()
}

func (s *Stats) readUnlock() {
	if s.mutex == nil {
		return
	}
	s.mutex.RUnlock()
}

func (s *Stats) Add(seq coordparse.Sequence) {
	s.writeLock()
	s.counts[seq.Kind] += 1
	switch seq.Kind {
	case coordparse.Line:
		s.totalLength += LineLengthKm(seq.Pairs)
	case coordparse.Polygon:
		s.totalArea += RingAreaKm2(seq.Pairs)
	}
	for _, pair := range seq.Pairs {
		s.minX = math.Min(s.minX, pair[0])
		s.maxX = math.Max(s.maxX, pair[0])
		s.minY = math.Min(s.minY, pair[1])
		s.maxY = math.Max(s.maxY, pair[1])
		s.empty = false
	}
	s.writeUnlock()
}

func (s *Stats) Count(kind coordparse.Kind) int {
	s.readLock()
	count := s.counts[kind]
	s.readUnlock()
	return count
}

func (s *Stats) TotalLengthKm() float64 {
	s.readLock()
	length := s.totalLength
	s.readUnlock()
	return length
}

func (s *Stats) TotalAreaKm2() float64 {
	s.readLock()
	area := s.totalArea
	s.readUnlock()
	return area
}

// Bounds returns the bounding box of everything added so far, or false
// when nothing with coordinates has been added.
func (s *Stats) Bounds() (orb.Bound, bool) {
	s.readLock()
	defer s.readUnlock()
	if s.empty {
		return orb.Bound{}, false
	}
	return orb.Bound{
		Min: orb.Point{s.minX, s.minY},
		Max: orb.Point{s.maxX, s.maxY},
	}, true
}
