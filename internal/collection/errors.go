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
	"github.com/cockroachdb/errors"
)

// NotFoundError reports that a payload operation named an id that no
// segment holds. Work done before the miss is not rolled back: the
// segments touched before the miss was detected keep their mutation.
type NotFoundError struct {
	MissedPointID PointID
}

func (e *NotFoundError) Error() string {
	return errors.Newf("point %d not found in any segment", e.MissedPointID).Error()
}

// NewNotFoundError builds a NotFoundError naming the first missing id in
// input order.
func NewNotFoundError(id PointID) error {
	return &NotFoundError{MissedPointID: id}
}

// IsNotFound reports whether err (or anything it wraps) is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ServiceError reports an internal invariant violation, e.g. an upsert
// into a Holder with zero segments.
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewServiceError wraps a message as a ServiceError.
func NewServiceError(format string, args ...any) error {
	return &ServiceError{Message: errors.Newf(format, args...).Error()}
}
