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
	"container/heap"
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/milvus-io/vectorcol/internal/metrics"
)

// Searcher runs collection-wide search and retrieve against a Holder.
type Searcher struct {
	holder   *Holder
	distance Distance
}

// NewSearcher builds a Searcher over holder, ordering hits according to
// distance.
func NewSearcher(holder *Holder, distance Distance) *Searcher {
	return &Searcher{holder: holder, distance: distance}
}

// orderedSegments snapshots the current segment set as SegmentHandles in
// ascending SegmentID order. A deterministic order is what makes "keep the
// first-seen duplicate" a well-defined rule instead of a race between
// goroutines; it does not otherwise carry any meaning (SegmentID assignment
// is the caller's to define).
func (s *Searcher) orderedSegments() []SegmentHandle {
	handles := s.holder.Handles()
	sort.Slice(handles, func(i, j int) bool { return handles[i].ID() < handles[j].ID() })
	return handles
}

// Search runs vector against every live segment concurrently and merges the
// results into a single bounded top-k list. A point present in more than one
// segment (e.g. mid-split) is kept once, under the lowest-SegmentID segment
// that returned it — later duplicates are dropped even if their score would
// have ranked higher. The first error from any segment cancels the rest and
// is returned.
func (s *Searcher) Search(ctx context.Context, vector Vector, filter Filter, top int, params *SearchParams) ([]ScoredPoint, error) {
	start := time.Now()
	entries := s.orderedSegments()
	if len(entries) == 0 || top <= 0 {
		metrics.SearchRequestTotal.WithLabelValues("ok").Inc()
		return nil, nil
	}
	metrics.SearchSegmentsFanout.Observe(float64(len(entries)))

	perSegment := make([][]ScoredPoint, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			return e.Read(func(seg Segment) error {
				hits, err := seg.Search(gctx, vector, filter, top, params)
				if err != nil {
					return err
				}
				perSegment[i] = hits
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		metrics.SearchRequestTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	seen := make(map[PointID]struct{})
	h := &scoreHeap{higherIsBetter: s.distance.HigherIsBetter()}
	for _, hits := range perSegment {
		for _, sp := range hits {
			if _, dup := seen[sp.ID]; dup {
				continue
			}
			seen[sp.ID] = struct{}{}
			h.pushBounded(sp, top)
		}
	}
	metrics.SearchRequestTotal.WithLabelValues("ok").Inc()
	metrics.SearchLatencySeconds.WithLabelValues().Observe(time.Since(start).Seconds())
	return h.sorted(), nil
}

// Retrieve materializes ids into Records, resolving any id held by more than
// one segment to the copy held by the segment with the largest Version —
// that segment is, by definition, the one that last successfully applied a
// write to the point. withPayload/withVector control which fields are
// populated; both false yields bare ids.
func (s *Searcher) Retrieve(ctx context.Context, ids []PointID, withPayload, withVector bool) ([]Record, error) {
	best := make(map[PointID]*Record)
	bestVersion := make(map[PointID]SeqNum)

	err := s.holder.ReadPoints(ids, func(id PointID, seg Segment) (bool, error) {
		v := seg.Version()
		if existing, ok := bestVersion[id]; ok && existing >= v {
			return true, nil
		}
		bestVersion[id] = v

		rec := &Record{ID: id}
		if withVector {
			if vec, ok := seg.VectorOf(id); ok {
				cp := append(Vector(nil), vec...)
				rec.Vector = &cp
			}
		}
		if withPayload {
			if pl, ok := seg.PayloadOf(id); ok {
				cp := pl.Clone()
				rec.Payload = &cp
			}
		}
		best[id] = rec
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(best))
	seen := make(map[PointID]struct{}, len(best))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		if rec, ok := best[id]; ok {
			out = append(out, *rec)
		}
		seen[id] = struct{}{}
	}
	return out, nil
}

// scoreHeap is a bounded container/heap.Interface holding at most top
// ScoredPoints, rooted at the currently-worst kept point so a new candidate
// can be compared and, if better, swapped in with a single Fix. This avoids
// ever sorting the full per-segment hit set.
type scoreHeap struct {
	items          []ScoredPoint
	higherIsBetter bool
}

func (h *scoreHeap) Len() int { return len(h.items) }

func (h *scoreHeap) Less(i, j int) bool {
	if h.higherIsBetter {
		return h.items[i].Score < h.items[j].Score
	}
	return h.items[i].Score > h.items[j].Score
}

func (h *scoreHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *scoreHeap) Push(x any) { h.items = append(h.items, x.(ScoredPoint)) }

func (h *scoreHeap) Pop() any {
	old := h.items
	n := len(old)
	it := old[n-1]
	h.items = old[:n-1]
	return it
}

func (h *scoreHeap) betterScore(a, b float32) bool {
	if h.higherIsBetter {
		return a > b
	}
	return a < b
}

// pushBounded adds sp if the heap has not yet reached top entries, or if sp
// beats the current worst kept entry.
func (h *scoreHeap) pushBounded(sp ScoredPoint, top int) {
	if h.Len() < top {
		heap.Push(h, sp)
		return
	}
	if h.Len() == 0 {
		return
	}
	worst := h.items[0]
	if h.betterScore(sp.Score, worst.Score) {
		h.items[0] = sp
		heap.Fix(h, 0)
	}
}

// sorted drains the heap into best-first order without mutating it.
func (h *scoreHeap) sorted() []ScoredPoint {
	items := make([]ScoredPoint, len(h.items))
	copy(items, h.items)
	sort.Slice(items, func(i, j int) bool { return h.betterScore(items[i].Score, items[j].Score) })
	return items
}
