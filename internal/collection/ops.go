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

// Operation is one collection-level mutation submitted to an Updater under
// a single SeqNum. Exactly one of the concrete types below implements it.
type Operation interface {
	isOperation()
}

// UpsertOperation inserts or replaces the vector of every point in IDs.
// IDs and Vectors must be the same length and are paired by index.
type UpsertOperation struct {
	IDs     []PointID
	Vectors []Vector
}

func (UpsertOperation) isOperation() {}

// DeleteOperation removes every point in IDs. Deleting an id no segment
// holds is silently a no-op, not an error.
type DeleteOperation struct {
	IDs []PointID
}

func (DeleteOperation) isOperation() {}

// SetPayloadOperation merges Payload into every point in Points. Naming a
// point no segment holds is a NotFoundError.
type SetPayloadOperation struct {
	Points  []PointID
	Payload map[string]PayloadValue
}

func (SetPayloadOperation) isOperation() {}

// DeletePayloadOperation removes the named Keys from every point in Points.
type DeletePayloadOperation struct {
	Points []PointID
	Keys   []string
}

func (DeletePayloadOperation) isOperation() {}

// ClearPayloadOperation drops all payload from every point in Points.
type ClearPayloadOperation struct {
	Points []PointID
}

func (ClearPayloadOperation) isOperation() {}

// WipePayloadOperation drops all payload collection-wide.
type WipePayloadOperation struct{}

func (WipePayloadOperation) isOperation() {}
