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

package tlscert

import "github.com/cockroachdb/errors"

// OpenFileError wraps a failure to open or read a PEM file named by Path.
type OpenFileError struct {
	Path string
	Err  error
}

func (e *OpenFileError) Error() string {
	return errors.Newf("tls file %q could not be read: %s", e.Path, e.Err).Error()
}

func (e *OpenFileError) Unwrap() error { return e.Err }

// NoServerCertError reports that a cert file parsed cleanly as PEM but
// contained no X.509 certificate.
type NoServerCertError struct{ Path string }

func (e *NoServerCertError) Error() string {
	return errors.Newf("no server certificate found in %q", e.Path).Error()
}

// NoPrivateKeyError reports that a key file contained no PEM block at all.
// A PEM block that is present but not a parsable key is reported as
// InvalidPrivateKeyError instead.
type NoPrivateKeyError struct{ Path string }

func (e *NoPrivateKeyError) Error() string {
	return errors.Newf("no private key found in %q", e.Path).Error()
}

// InvalidPrivateKeyError reports that a key block was found but could not
// be parsed as PKCS1, PKCS8, or EC.
type InvalidPrivateKeyError struct {
	Path string
	Err  error
}

func (e *InvalidPrivateKeyError) Error() string {
	return errors.Newf("invalid private key in %q: %s", e.Path, e.Err).Error()
}

func (e *InvalidPrivateKeyError) Unwrap() error { return e.Err }

// ClientCertVerifierError reports a failure building the client CA pool
// used to verify mTLS client certificates.
type ClientCertVerifierError struct{ Err error }

func (e *ClientCertVerifierError) Error() string {
	return errors.Newf("client certificate verifier: %s", e.Err).Error()
}

func (e *ClientCertVerifierError) Unwrap() error { return e.Err }
