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

import "context"

// Segment is the external contract for one searchable, mutable shard of a
// collection. An implementation owns an index structure and a payload
// store for some subset of points, plus a monotonically advancing version
// counter.
//
// Every mutating call is idempotent with respect to op: a call with
// op <= Version() must be a no-op that returns false. The core relies on
// this to absorb duplicate or replayed operations.
//
// Segment implementations are out of scope for this module (see
// internal/segments for an in-memory reference used by tests); the core
// only ever talks to this interface.
type Segment interface {
	// Version returns the largest SeqNum this segment has successfully
	// applied. Monotone non-decreasing.
	Version() SeqNum

	// Search returns up to top ScoredPoints for vector, honoring filter
	// and params. Context cancellation should abort the search promptly.
	Search(ctx context.Context, vector Vector, filter Filter, top int, params *SearchParams) ([]ScoredPoint, error)

	// Contains reports whether this segment holds id, without needing a
	// separate id->segment index in the Holder.
	Contains(id PointID) bool

	// VectorOf and PayloadOf materialize a point's vector/payload. ok is
	// false if the segment does not hold id.
	VectorOf(id PointID) (Vector, bool)
	PayloadOf(id PointID) (Payload, bool)

	// UpsertPoint inserts or replaces id's vector. Returns true iff op was
	// newer than Version() and the write was applied.
	UpsertPoint(op SeqNum, id PointID, vec Vector) (bool, error)
	// DeletePoint removes id. Returns true iff applied.
	DeletePoint(op SeqNum, id PointID) (bool, error)

	// SetPayload, DeletePayload, ClearPayload mutate one point's payload;
	// WipePayload clears payload collection-wide for this segment. Each
	// returns true iff applied.
	SetPayload(op SeqNum, id PointID, key string, value PayloadValue) (bool, error)
	DeletePayload(op SeqNum, id PointID, key string) (bool, error)
	ClearPayload(op SeqNum, id PointID) (bool, error)
	WipePayload(op SeqNum) (bool, error)
}
