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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milvus-io/vectorcol/internal/collection"
	"github.com/milvus-io/vectorcol/internal/segments"
)

func TestHolder_addLenRemove(t *testing.T) {
	h := collection.NewHolder()
	assert.Equal(t, 0, h.Len())

	h.Add(1, segments.New(collection.DistanceDot))
	h.Add(2, segments.New(collection.DistanceDot))
	assert.Equal(t, 2, h.Len())

	removed, ok := h.Remove(1)
	require.True(t, ok)
	assert.NotNil(t, removed)
	assert.Equal(t, 1, h.Len())

	_, ok = h.Remove(1)
	assert.False(t, ok)
}

func TestHolder_randomSegmentEmpty(t *testing.T) {
	h := collection.NewHolder()
	_, ok := h.RandomSegment()
	assert.False(t, ok)
}

func TestHolder_readPointsOnlyVisitsContainingSegments(t *testing.T) {
	h := collection.NewHolder()
	s1 := segments.New(collection.DistanceDot)
	s2 := segments.New(collection.DistanceDot)
	_, _ = s1.UpsertPoint(1, 10, collection.Vector{1, 0})
	_, _ = s2.UpsertPoint(1, 20, collection.Vector{0, 1})
	h.Add(1, s1)
	h.Add(2, s2)

	var visited []collection.PointID
	err := h.ReadPoints([]collection.PointID{10, 20, 30}, func(id collection.PointID, seg collection.Segment) (bool, error) {
		visited = append(visited, id)
		return true, nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []collection.PointID{10, 20}, visited)
}

func TestHolder_applyPointsCountsOnlyApplied(t *testing.T) {
	h := collection.NewHolder()
	s1 := segments.New(collection.DistanceDot)
	s2 := segments.New(collection.DistanceDot)
	_, _ = s1.UpsertPoint(1, 10, collection.Vector{1, 0})
	_, _ = s2.UpsertPoint(1, 11, collection.Vector{0, 1})
	h.Add(1, s1)
	h.Add(2, s2)

	count, err := h.ApplyPoints(2, []collection.PointID{10, 11, 999}, func(id collection.PointID, seg collection.Segment) (bool, error) {
		return seg.DeletePoint(2, id)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.False(t, s1.Contains(10))
	assert.False(t, s2.Contains(11))
}
