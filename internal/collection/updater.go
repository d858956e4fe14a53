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
	"github.com/samber/lo"

	"github.com/milvus-io/vectorcol/internal/metrics"
)

// Updater dispatches collection-level Operations onto a Holder, one op at a
// time. Callers are responsible for serializing the SeqNum sequence; the
// Updater does not allocate or validate it.
type Updater struct {
	holder *Holder
}

// NewUpdater builds an Updater over holder.
func NewUpdater(holder *Holder) *Updater {
	return &Updater{holder: holder}
}

// Update dispatches operation under op, returning the number of points (or,
// for WipePayloadOperation, segments) actually touched.
func (u *Updater) Update(op SeqNum, operation Operation) (int, error) {
	label := opLabel(operation)
	count, err := u.dispatch(op, operation)
	if err != nil {
		metrics.UpdateRequestTotal.WithLabelValues(label, "error").Inc()
		return count, err
	}
	metrics.UpdateRequestTotal.WithLabelValues(label, "ok").Inc()
	metrics.UpdatePointsTouched.WithLabelValues(label).Add(float64(count))
	return count, nil
}

func (u *Updater) dispatch(op SeqNum, operation Operation) (int, error) {
	switch o := operation.(type) {
	case UpsertOperation:
		return u.upsertPoints(op, o.IDs, o.Vectors)
	case DeleteOperation:
		return u.deletePoints(op, o.IDs)
	case SetPayloadOperation:
		return u.setPayload(op, o.Points, o.Payload)
	case DeletePayloadOperation:
		return u.deletePayload(op, o.Points, o.Keys)
	case ClearPayloadOperation:
		return u.clearPayload(op, o.Points)
	case WipePayloadOperation:
		return u.wipePayload(op)
	default:
		return 0, NewServiceError("unsupported operation type %T", operation)
	}
}

// opLabel names operation for metrics; it does not affect dispatch.
func opLabel(operation Operation) string {
	switch operation.(type) {
	case UpsertOperation:
		return "upsert"
	case DeleteOperation:
		return "delete"
	case SetPayloadOperation:
		return "set_payload"
	case DeletePayloadOperation:
		return "delete_payload"
	case ClearPayloadOperation:
		return "clear_payload"
	case WipePayloadOperation:
		return "wipe_payload"
	default:
		return "unknown"
	}
}

// checkUnprocessedPoints reports a NotFoundError naming the first id in
// points (in input order) that processed does not contain.
func checkUnprocessedPoints(points []PointID, processed map[PointID]struct{}) error {
	for _, p := range points {
		if _, ok := processed[p]; !ok {
			return NewNotFoundError(p)
		}
	}
	return nil
}

func (u *Updater) deletePoints(op SeqNum, ids []PointID) (int, error) {
	return u.holder.ApplyPoints(op, ids, func(id PointID, seg Segment) (bool, error) {
		return seg.DeletePoint(op, id)
	})
}

// upsertPoints checks point id in each segment and updates it if found; any
// id not found in any segment is inserted into one segment chosen at
// random. The returned count covers only the segments touched by the
// first pass — points freshly routed to the random segment are not
// counted, matching how the reference implementation captures its result
// before performing the residual insert.
func (u *Updater) upsertPoints(op SeqNum, ids []PointID, vectors []Vector) (int, error) {
	if len(ids) != len(vectors) {
		return 0, NewServiceError("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}
	pointsMap := make(map[PointID]Vector, len(ids))
	for i, id := range ids {
		pointsMap[id] = vectors[i]
	}

	updated := make(map[PointID]struct{}, len(ids))
	res, err := u.holder.ApplyPoints(op, ids, func(id PointID, seg Segment) (bool, error) {
		updated[id] = struct{}{}
		return seg.UpsertPoint(op, id, pointsMap[id])
	})
	if err != nil {
		return 0, err
	}

	seg, ok := u.holder.RandomSegment()
	if !ok {
		return 0, NewServiceError("no segments exist, expected at least one")
	}
	residual := lo.Filter(ids, func(id PointID, _ int) bool {
		_, touched := updated[id]
		return !touched
	})
	for _, id := range residual {
		if _, err := seg.UpsertPoint(op, id, pointsMap[id]); err != nil {
			return 0, err
		}
	}
	return res, nil
}

func (u *Updater) setPayload(op SeqNum, points []PointID, payload map[string]PayloadValue) (int, error) {
	updated := make(map[PointID]struct{}, len(points))
	res, err := u.holder.ApplyPoints(op, points, func(id PointID, seg Segment) (bool, error) {
		updated[id] = struct{}{}
		applied := true
		for key, value := range payload {
			ok, err := seg.SetPayload(op, id, key, value)
			if err != nil {
				return false, err
			}
			applied = applied && ok
		}
		return applied, nil
	})
	if err != nil {
		return 0, err
	}
	if err := checkUnprocessedPoints(points, updated); err != nil {
		return 0, err
	}
	return res, nil
}

func (u *Updater) deletePayload(op SeqNum, points []PointID, keys []string) (int, error) {
	updated := make(map[PointID]struct{}, len(points))
	res, err := u.holder.ApplyPoints(op, points, func(id PointID, seg Segment) (bool, error) {
		updated[id] = struct{}{}
		applied := true
		for _, key := range keys {
			ok, err := seg.DeletePayload(op, id, key)
			if err != nil {
				return false, err
			}
			applied = applied && ok
		}
		return applied, nil
	})
	if err != nil {
		return 0, err
	}
	if err := checkUnprocessedPoints(points, updated); err != nil {
		return 0, err
	}
	return res, nil
}

func (u *Updater) clearPayload(op SeqNum, points []PointID) (int, error) {
	updated := make(map[PointID]struct{}, len(points))
	res, err := u.holder.ApplyPoints(op, points, func(id PointID, seg Segment) (bool, error) {
		updated[id] = struct{}{}
		return seg.ClearPayload(op, id)
	})
	if err != nil {
		return 0, err
	}
	if err := checkUnprocessedPoints(points, updated); err != nil {
		return 0, err
	}
	return res, nil
}

func (u *Updater) wipePayload(op SeqNum) (int, error) {
	return u.holder.ApplySegments(op, func(seg Segment) (bool, error) {
		return seg.WipePayload(op)
	})
}
