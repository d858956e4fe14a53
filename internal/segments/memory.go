// Copyright (C) 2019-2020 Zilliz. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License
// is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express
// or implied. See the License for the specific language governing permissions and limitations under the License.

// Package segments provides an in-memory, brute-force Segment used by the
// collection package's own tests and by anything that wants a working
// Segment without an index engine behind it.
package segments

import (
	"context"
	"encoding/binary"
	"math"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/milvus-io/vectorcol/internal/collection"
)

// PointFilter is the concrete Filter shape this package understands. A
// collection.Filter that is not a PointFilter is treated as matching
// everything.
type PointFilter func(id collection.PointID, payload collection.Payload) bool

// NewSegmentID mints a SegmentID for callers that have no id scheme of
// their own (fixtures, ad hoc embedders). It is never used internally:
// SegmentID assignment is always the registering caller's responsibility.
func NewSegmentID() collection.SegmentID {
	id := uuid.New()
	return collection.SegmentID(binary.BigEndian.Uint64(id[:8]) >> 1) // >>1 keeps it a positive int64
}

type point struct {
	vector  collection.Vector
	payload collection.Payload
}

// Memory is a brute-force, map-backed Segment: every Search scans all
// resident points. It exists for tests and small fixtures, not for
// production search paths.
type Memory struct {
	version  atomic.Uint64
	distance collection.Distance
	points   map[collection.PointID]point
}

// New builds an empty Memory segment scored under distance.
func New(distance collection.Distance) *Memory {
	return &Memory{distance: distance, points: make(map[collection.PointID]point)}
}

// bump advances the segment's version to op and reports true, unless op is
// not newer than the current version, in which case it reports false and
// leaves the version untouched. Every mutating method funnels through this
// to get the idempotent-replay behavior Segment promises for free.
func (m *Memory) bump(op collection.SeqNum) bool {
	if uint64(op) <= m.version.Load() {
		return false
	}
	m.version.Store(uint64(op))
	return true
}

// Version implements collection.Segment.
func (m *Memory) Version() collection.SeqNum {
	return collection.SeqNum(m.version.Load())
}

// Contains implements collection.Segment.
func (m *Memory) Contains(id collection.PointID) bool {
	_, ok := m.points[id]
	return ok
}

// VectorOf implements collection.Segment.
func (m *Memory) VectorOf(id collection.PointID) (collection.Vector, bool) {
	p, ok := m.points[id]
	if !ok {
		return nil, false
	}
	return append(collection.Vector(nil), p.vector...), true
}

// PayloadOf implements collection.Segment.
func (m *Memory) PayloadOf(id collection.PointID) (collection.Payload, bool) {
	p, ok := m.points[id]
	if !ok {
		return nil, false
	}
	return p.payload.Clone(), true
}

// UpsertPoint implements collection.Segment. Unlike the payload mutators,
// this must succeed even when id is not yet resident, since that is
// exactly how a point is first created.
func (m *Memory) UpsertPoint(op collection.SeqNum, id collection.PointID, vec collection.Vector) (bool, error) {
	if !m.bump(op) {
		return false, nil
	}
	p := m.points[id]
	p.vector = append(collection.Vector(nil), vec...)
	m.points[id] = p
	return true, nil
}

// DeletePoint implements collection.Segment.
func (m *Memory) DeletePoint(op collection.SeqNum, id collection.PointID) (bool, error) {
	if !m.bump(op) {
		return false, nil
	}
	delete(m.points, id)
	return true, nil
}

// SetPayload implements collection.Segment.
func (m *Memory) SetPayload(op collection.SeqNum, id collection.PointID, key string, value collection.PayloadValue) (bool, error) {
	p, ok := m.points[id]
	if !ok {
		return false, nil
	}
	if !m.bump(op) {
		return false, nil
	}
	if p.payload == nil {
		p.payload = make(collection.Payload)
	}
	p.payload[key] = value
	m.points[id] = p
	return true, nil
}

// DeletePayload implements collection.Segment.
func (m *Memory) DeletePayload(op collection.SeqNum, id collection.PointID, key string) (bool, error) {
	p, ok := m.points[id]
	if !ok {
		return false, nil
	}
	if !m.bump(op) {
		return false, nil
	}
	delete(p.payload, key)
	m.points[id] = p
	return true, nil
}

// ClearPayload implements collection.Segment.
func (m *Memory) ClearPayload(op collection.SeqNum, id collection.PointID) (bool, error) {
	p, ok := m.points[id]
	if !ok {
		return false, nil
	}
	if !m.bump(op) {
		return false, nil
	}
	p.payload = nil
	m.points[id] = p
	return true, nil
}

// WipePayload implements collection.Segment.
func (m *Memory) WipePayload(op collection.SeqNum) (bool, error) {
	if !m.bump(op) {
		return false, nil
	}
	for id, p := range m.points {
		p.payload = nil
		m.points[id] = p
	}
	return true, nil
}

// Search implements collection.Segment by scoring every resident point
// against vector and returning up to top of them, best-first. filter, if
// it is a PointFilter, excludes points it rejects; any other value
// (including nil) matches everything.
func (m *Memory) Search(ctx context.Context, vector collection.Vector, filter collection.Filter, top int, _ *collection.SearchParams) ([]collection.ScoredPoint, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var pred PointFilter
	if f, ok := filter.(PointFilter); ok {
		pred = f
	}

	hits := make([]collection.ScoredPoint, 0, len(m.points))
	for id, p := range m.points {
		if pred != nil && !pred(id, p.payload) {
			continue
		}
		hits = append(hits, collection.ScoredPoint{ID: id, Score: score(m.distance, vector, p.vector)})
	}

	higherIsBetter := m.distance.HigherIsBetter()
	sort.Slice(hits, func(i, j int) bool {
		if higherIsBetter {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Score < hits[j].Score
	})
	if top >= 0 && top < len(hits) {
		hits = hits[:top]
	}
	return hits, nil
}

func score(d collection.Distance, a, b collection.Vector) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	switch d {
	case collection.DistanceEuclid:
		var sum float32
		for i := 0; i < n; i++ {
			diff := a[i] - b[i]
			sum += diff * diff
		}
		return sum
	case collection.DistanceCosine:
		var dot, na, nb float32
		for i := 0; i < n; i++ {
			dot += a[i] * b[i]
			na += a[i] * a[i]
			nb += b[i] * b[i]
		}
		if na == 0 || nb == 0 {
			return 0
		}
		return dot / float32(math.Sqrt(float64(na))*math.Sqrt(float64(nb)))
	default: // DistanceDot
		var dot float32
		for i := 0; i < n; i++ {
			dot += a[i] * b[i]
		}
		return dot
	}
}
