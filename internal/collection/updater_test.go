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

func TestUpdater_upsertRoutesNewPointsToRandomSegment(t *testing.T) {
	h := collection.NewHolder()
	s1 := segments.New(collection.DistanceDot)
	_, _ = s1.UpsertPoint(1, 1, collection.Vector{1, 0})
	h.Add(1, s1)

	updater := collection.NewUpdater(h)
	count, err := updater.Update(2, collection.UpsertOperation{
		IDs:     []collection.PointID{1, 2},
		Vectors: []collection.Vector{{1, 1}, {0, 1}},
	})
	require.NoError(t, err)
	// Point 1 already existed in s1 and was touched there; point 2 is new
	// and was routed to a random segment without being counted.
	assert.Equal(t, 1, count)
	assert.True(t, s1.Contains(2))
}

func TestUpdater_upsertErrorsWithNoSegments(t *testing.T) {
	h := collection.NewHolder()
	updater := collection.NewUpdater(h)
	_, err := updater.Update(1, collection.UpsertOperation{
		IDs:     []collection.PointID{1},
		Vectors: []collection.Vector{{1, 1}},
	})
	assert.Error(t, err)
	var svcErr *collection.ServiceError
	assert.ErrorAs(t, err, &svcErr)
}

func TestUpdater_deleteAbsentPointIsSilent(t *testing.T) {
	h := collection.NewHolder()
	s1 := segments.New(collection.DistanceDot)
	h.Add(1, s1)

	updater := collection.NewUpdater(h)
	count, err := updater.Update(1, collection.DeleteOperation{IDs: []collection.PointID{123}})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestUpdater_setPayloadOnMissingPointIsNotFound(t *testing.T) {
	h := collection.NewHolder()
	s1 := segments.New(collection.DistanceDot)
	_, _ = s1.UpsertPoint(1, 1, collection.Vector{1, 0})
	h.Add(1, s1)

	updater := collection.NewUpdater(h)
	_, err := updater.Update(2, collection.SetPayloadOperation{
		Points: []collection.PointID{1, 404},
		Payload: map[string]collection.PayloadValue{
			"color": {Kind: collection.PayloadKeyword, Keyword: "red"},
		},
	})
	require.Error(t, err)
	assert.True(t, collection.IsNotFound(err))

	var nf *collection.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, collection.PointID(404), nf.MissedPointID)
}

func TestUpdater_wipePayloadTouchesEverySegment(t *testing.T) {
	h := collection.NewHolder()
	s1 := segments.New(collection.DistanceDot)
	s2 := segments.New(collection.DistanceDot)
	_, _ = s1.UpsertPoint(1, 1, collection.Vector{1, 0})
	_, _ = s2.UpsertPoint(1, 2, collection.Vector{0, 1})
	h.Add(1, s1)
	h.Add(2, s2)

	updater := collection.NewUpdater(h)
	count, err := updater.Update(5, collection.WipePayloadOperation{})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
