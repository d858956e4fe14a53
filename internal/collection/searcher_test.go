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

package collection_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milvus-io/vectorcol/internal/collection"
	"github.com/milvus-io/vectorcol/internal/segments"
)

func buildTestHolder() *collection.Holder {
	h := collection.NewHolder()

	// Every write into a segment uses a fresh op: a segment absorbs any op
	// <= its Version() as a replay.
	s1 := segments.New(collection.DistanceDot)
	_, _ = s1.UpsertPoint(1, 1, collection.Vector{1, 0, 2, 2})
	_, _ = s1.UpsertPoint(2, 2, collection.Vector{1, 0, 1, 0})
	_, _ = s1.UpsertPoint(3, 3, collection.Vector{2, 2, 2, 2})
	_, _ = s1.UpsertPoint(4, 4, collection.Vector{1, 1, 0, 1})
	_, _ = s1.UpsertPoint(5, 5, collection.Vector{1, 0, 0, 0})

	s2 := segments.New(collection.DistanceDot)
	_, _ = s2.UpsertPoint(1, 6, collection.Vector{1, 0, 0, 0})
	_, _ = s2.UpsertPoint(2, 7, collection.Vector{1, 0, 0, 0})
	_, _ = s2.UpsertPoint(3, 8, collection.Vector{1, 0, 0, 0})
	_, _ = s2.UpsertPoint(4, 9, collection.Vector{1, 0, 0, 0})
	_, _ = s2.UpsertPoint(5, 10, collection.Vector{1, 0, 0, 0})
	// 11 also lives in s1 under a different, later-written vector, to
	// exercise dedup across segments.
	_, _ = s2.UpsertPoint(6, 11, collection.Vector{1, 0, 0, 0})

	_, _ = s1.UpsertPoint(7, 11, collection.Vector{3, 0, 0, 0})

	h.Add(1, s1)
	h.Add(2, s2)
	return h
}

func TestSearcher_searchMergesAcrossSegments(t *testing.T) {
	h := buildTestHolder()
	searcher := collection.NewSearcher(h, collection.DistanceDot)

	// query . point3 (2,2,2,2) = 6, query . point1 (1,0,2,2) = 5,
	// query . point11-via-s1 (3,0,0,0) = 3: distinct top-3.
	hits, err := searcher.Search(context.Background(), collection.Vector{1, 0, 1, 1}, nil, 3, nil)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, collection.PointID(3), hits[0].ID)
	assert.Equal(t, collection.PointID(1), hits[1].ID)
	assert.Equal(t, collection.PointID(11), hits[2].ID)
}

func TestSearcher_searchDedupsKeepingFirstSeenSegment(t *testing.T) {
	h := buildTestHolder()
	searcher := collection.NewSearcher(h, collection.DistanceDot)

	hits, err := searcher.Search(context.Background(), collection.Vector{1, 0, 0, 0}, nil, 20, nil)
	require.NoError(t, err)

	seen := make(map[collection.PointID]int)
	for _, hit := range hits {
		seen[hit.ID]++
	}
	assert.Equal(t, 1, seen[11], "point 11 is present in both segments and must be merged into a single hit")

	// Segment 1 registered first (lowest SegmentID); its copy of point 11
	// (score 3, vector {3,0,0,0}) must be the one that wins over segment
	// 2's copy (score 1), since dedup keeps the first-seen segment's
	// result rather than reconciling by version or score.
	for _, hit := range hits {
		if hit.ID == 11 {
			assert.Equal(t, float32(3), hit.Score)
		}
	}
}

func TestSearcher_retrieveReconcilesByVersion(t *testing.T) {
	h := collection.NewHolder()
	s1 := segments.New(collection.DistanceDot)
	s2 := segments.New(collection.DistanceDot)
	_, _ = s1.UpsertPoint(1, 42, collection.Vector{1, 1})
	_, _ = s2.UpsertPoint(5, 42, collection.Vector{2, 2})
	h.Add(1, s1)
	h.Add(2, s2)

	searcher := collection.NewSearcher(h, collection.DistanceDot)
	records, err := searcher.Retrieve(context.Background(), []collection.PointID{42}, false, true)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Vector)
	assert.Equal(t, collection.Vector{2, 2}, *records[0].Vector)
}

func TestSearcher_retrieveSkipsMissingIDs(t *testing.T) {
	h := buildTestHolder()
	searcher := collection.NewSearcher(h, collection.DistanceDot)

	records, err := searcher.Retrieve(context.Background(), []collection.PointID{1, 9999}, false, false)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, collection.PointID(1), records[0].ID)
}
