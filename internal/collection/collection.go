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

// Collection composes a Holder with the Searcher and Updater built over
// it, and is the surface the rest of the system talks to: add/remove
// segments through Holder, everything else through the three methods
// below.
type Collection struct {
	Holder   *Holder
	Searcher *Searcher
	Updater  *Updater
}

// New builds an empty Collection. distance fixes the score ordering used
// by Search for the lifetime of the collection.
func New(distance Distance) *Collection {
	holder := NewHolder()
	return &Collection{
		Holder:   holder,
		Searcher: NewSearcher(holder, distance),
		Updater:  NewUpdater(holder),
	}
}

// Search runs a nearest-neighbor query across every live segment. See
// Searcher.Search for the merge/dedup contract.
func (c *Collection) Search(ctx context.Context, vector Vector, filter Filter, top int, params *SearchParams) ([]ScoredPoint, error) {
	return c.Searcher.Search(ctx, vector, filter, top, params)
}

// Retrieve materializes points by id. See Searcher.Retrieve for the
// version-reconciliation contract.
func (c *Collection) Retrieve(ctx context.Context, ids []PointID, withPayload, withVector bool) ([]Record, error) {
	return c.Searcher.Retrieve(ctx, ids, withPayload, withVector)
}

// Update applies operation under op and reports how many points (or
// segments, for WipePayloadOperation) it actually touched.
func (c *Collection) Update(op SeqNum, operation Operation) (int, error) {
	return c.Updater.Update(op, operation)
}
