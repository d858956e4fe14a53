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

package collection

import (
	"math/rand"
	"sync"

	"github.com/milvus-io/vectorcol/internal/metrics"
)

// lockedSegment pairs a Segment with its own reader/writer lock, so the
// Holder's collection-level lock never has to be held while a segment is
// searched or mutated.
type lockedSegment struct {
	mu  sync.RWMutex
	seg Segment
}

// Holder owns the set of live segments keyed by SegmentID and exposes the
// fan-out primitives the Searcher and Updater are built on. Lock order is
// always Holder read lock -> per-segment lock, never the reverse, and two
// per-segment write locks are never held simultaneously by one goroutine.
type Holder struct {
	mu       sync.RWMutex
	segments map[SegmentID]*lockedSegment
}

// NewHolder returns an empty Holder. The caller is responsible for
// registering at least one segment (via Add) before any Updater operation
// runs, per spec: random_segment must always return a segment once the
// collection is open.
func NewHolder() *Holder {
	return &Holder{segments: make(map[SegmentID]*lockedSegment)}
}

// Add registers seg under id. Insertion order is irrelevant and not part
// of any user-visible contract.
func (h *Holder) Add(id SegmentID, seg Segment) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.segments[id] = &lockedSegment{seg: seg}
	metrics.SegmentCount.Set(float64(len(h.segments)))
}

// Remove drops id from the set, returning the removed Segment if present.
// Removal is the optimizer's job in the full system; exposed here for
// completeness and tests.
func (h *Holder) Remove(id SegmentID) (Segment, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ls, ok := h.segments[id]
	if !ok {
		return nil, false
	}
	delete(h.segments, id)
	metrics.SegmentCount.Set(float64(len(h.segments)))
	return ls.seg, true
}

// Len returns the current number of live segments.
func (h *Holder) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.segments)
}

// SegmentHandle is a reference to one held segment that does not expose
// the raw Segment directly: callers must go through Read, which takes
// the segment's own read lock for the duration of fn. This is what lets
// fan-out callers (the Searcher) parallelize work across segments
// themselves, one goroutine per handle, while still honoring the
// Holder-read -> per-segment-lock order and never racing a concurrent
// ApplyPoints/ApplySegments write lock on the same segment.
type SegmentHandle struct {
	id SegmentID
	ls *lockedSegment
}

// ID returns the SegmentID this handle was taken for.
func (h SegmentHandle) ID() SegmentID { return h.id }

// Read runs fn against the segment under that segment's own read lock.
func (h SegmentHandle) Read(fn func(seg Segment) error) error {
	h.ls.mu.RLock()
	defer h.ls.mu.RUnlock()
	return fn(h.ls.seg)
}

// Handles snapshots the current segment set as SegmentHandles under the
// collection-wide read lock. Unlike a plain map iteration, nothing here
// hands a raw Segment to the caller; Read is the only way in, and it
// always takes that segment's own read lock first.
func (h *Holder) Handles() []SegmentHandle {
	h.mu.RLock()
	defer h.mu.RUnlock()
	handles := make([]SegmentHandle, 0, len(h.segments))
	for id, ls := range h.segments {
		handles = append(handles, SegmentHandle{id: id, ls: ls})
	}
	return handles
}

// RandomSegment returns some segment suitable for receiving a brand-new
// point. Selection is uniform over the current set, which is sufficient
// to spread concentrated insertion across segments over time.
func (h *Holder) RandomSegment() (Segment, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := len(h.segments)
	if n == 0 {
		return nil, false
	}
	skip := rand.Intn(n)
	for _, ls := range h.segments {
		if skip == 0 {
			return ls.seg, true
		}
		skip--
	}
	// unreachable: the loop above always returns within n iterations
	return nil, false
}

// ReadPoints invokes visit(id, segment) for each id in ids, for every
// segment that contains it, holding only read locks throughout. Visit
// ordering across segments is unspecified; within one segment, ids are
// visited in input order. Returning (false, nil) from visit short-circuits
// the current id; returning a non-nil error aborts the whole call.
func (h *Holder) ReadPoints(ids []PointID, visit func(id PointID, seg Segment) (bool, error)) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, id := range ids {
		for _, ls := range h.segments {
			ls.mu.RLock()
			contains := ls.seg.Contains(id)
			if !contains {
				ls.mu.RUnlock()
				continue
			}
			cont, err := visit(id, ls.seg)
			ls.mu.RUnlock()
			if err != nil {
				return err
			}
			if !cont {
				break
			}
		}
	}
	return nil
}

// ApplyPoints invokes mutate(id, segment) for each id in ids, for every
// segment that contains it, escalating to that segment's write lock for
// the call. It returns the count of (id, segment) pairs where mutate
// returned true.
//
// mutate is invoked once per (id, segment) pair whenever the segment
// contains the id, regardless of that segment's current version: idempotence
// with respect to op is the Segment implementation's responsibility (a
// mutating call with op <= Version() is defined to be a no-op returning
// false), not something this primitive re-derives. This mirrors the
// reference implementation, where the "touched" bookkeeping a caller does
// inside mutate must see every segment holding the id so that, e.g., an
// upsert does not re-insert a point into a fresh segment just because an
// older segment's write was absorbed as a replay.
func (h *Holder) ApplyPoints(op SeqNum, ids []PointID, mutate func(id PointID, seg Segment) (bool, error)) (int, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, id := range ids {
		for _, ls := range h.segments {
			ls.mu.RLock()
			contains := ls.seg.Contains(id)
			ls.mu.RUnlock()
			if !contains {
				continue
			}

			ls.mu.Lock()
			applied, err := mutate(id, ls.seg)
			ls.mu.Unlock()
			if err != nil {
				return count, err
			}
			if applied {
				count++
			}
		}
	}
	return count, nil
}

// ApplySegments invokes mutate(segment) once per segment, with no id
// filter, escalating to each segment's write lock in turn. Returns the
// count of segments where mutate returned true.
func (h *Holder) ApplySegments(op SeqNum, mutate func(seg Segment) (bool, error)) (int, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, ls := range h.segments {
		ls.mu.Lock()
		applied, err := mutate(ls.seg)
		ls.mu.Unlock()
		if err != nil {
			return count, err
		}
		if applied {
			count++
		}
	}
	return count, nil
}
