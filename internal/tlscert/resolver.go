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

// Package tlscert resolves the server certificate handed out over TLS,
// reloading it from disk on a TTL so a renewed certificate is picked up
// without a restart.
package tlscert

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/milvus-io/vectorcol/internal/log"
	"github.com/milvus-io/vectorcol/internal/metrics"
)

// Config names the on-disk PEM files backing a Resolver and how often its
// certificate should be reloaded.
type Config struct {
	CertPath string
	KeyPath  string
	// TTL of zero disables rotation: the certificate loaded at
	// NewResolver time is served for the process lifetime.
	TTL time.Duration
}

type certifiedKeyWithAge struct {
	lastUpdate time.Time
	cert       *tls.Certificate
}

func (c certifiedKeyWithAge) age() time.Duration { return time.Since(c.lastUpdate) }

func (c certifiedKeyWithAge) isExpired(ttl time.Duration) bool { return c.age() >= ttl }

// Resolver implements a TTL-based rotating certificate source, suitable
// for tls.Config.GetCertificate. A read lock covers the common case of
// serving an unexpired certificate; a refresh escalates to a write lock
// and re-checks expiry to absorb concurrent refreshers.
type Resolver struct {
	cfg Config

	mu  sync.RWMutex
	key certifiedKeyWithAge
}

// NewResolver loads cfg's certificate and key once, eagerly, so
// construction fails fast rather than on the first handshake.
func NewResolver(cfg Config) (*Resolver, error) {
	cert, err := loadCertifiedKey(cfg)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		cfg: cfg,
		key: certifiedKeyWithAge{lastUpdate: time.Now(), cert: cert},
	}, nil
}

// GetCertificate implements the signature tls.Config.GetCertificate wants.
func (r *Resolver) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return r.getKeyOrRefresh(), nil
}

// getKeyOrRefresh returns the current certificate, refreshing it first if
// its TTL has elapsed. If a refresh attempt fails, the error is logged and
// the previous (now-stale) certificate is kept in service.
func (r *Resolver) getKeyOrRefresh() *tls.Certificate {
	r.mu.RLock()
	if r.cfg.TTL <= 0 || !r.key.isExpired(r.cfg.TTL) {
		cert := r.key.cert
		r.mu.RUnlock()
		return cert
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.key.isExpired(r.cfg.TTL) {
		metrics.TLSCertRefreshTotal.Inc()
		cert, err := loadCertifiedKey(r.cfg)
		if err != nil {
			metrics.TLSCertRefreshFailuresTotal.Inc()
			log.Error("failed to refresh server TLS certificate, keeping current", zap.Error(err))
		} else {
			r.key = certifiedKeyWithAge{lastUpdate: time.Now(), cert: cert}
		}
	}
	return r.key.cert
}

// loadCertifiedKey reads and parses the certificate chain and private key
// named by cfg, returning distinct error types for each way the files can
// be malformed so callers can tell a missing file from an empty chain from
// an unrecognized key format.
func loadCertifiedKey(cfg Config) (*tls.Certificate, error) {
	certPEM, err := os.ReadFile(cfg.CertPath)
	if err != nil {
		return nil, &OpenFileError{Path: cfg.CertPath, Err: err}
	}

	var certDERs [][]byte
	rest := certPEM
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type == "CERTIFICATE" {
			certDERs = append(certDERs, block.Bytes)
		}
	}
	if len(certDERs) == 0 {
		return nil, &NoServerCertError{Path: cfg.CertPath}
	}

	keyPEM, err := os.ReadFile(cfg.KeyPath)
	if err != nil {
		return nil, &OpenFileError{Path: cfg.KeyPath, Err: err}
	}
	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil {
		return nil, &NoPrivateKeyError{Path: cfg.KeyPath}
	}

	signer, err := parsePrivateKey(keyBlock)
	if err != nil {
		return nil, &InvalidPrivateKeyError{Path: cfg.KeyPath, Err: err}
	}

	leaf, err := x509.ParseCertificate(certDERs[0])
	if err != nil {
		return nil, &NoServerCertError{Path: cfg.CertPath}
	}

	return &tls.Certificate{
		Certificate: certDERs,
		PrivateKey:  signer,
		Leaf:        leaf,
	}, nil
}

func parsePrivateKey(block *pem.Block) (any, error) {
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	return nil, errors.New("unrecognized private key encoding")
}

// ServerConfig builds a *tls.Config that serves certResolver's certificate
// and, when verifyClient is true, requires and verifies a client
// certificate signed by caCertPath.
func ServerConfig(certResolver *Resolver, verifyClient bool, caCertPath string) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:     tls.VersionTLS12,
		GetCertificate: certResolver.GetCertificate,
	}
	if !verifyClient {
		cfg.ClientAuth = tls.NoClientCert
		return cfg, nil
	}

	caPEM, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, &OpenFileError{Path: caCertPath, Err: err}
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, &ClientCertVerifierError{Err: errors.Newf("no certificates parsed from %q", caCertPath)}
	}
	cfg.ClientAuth = tls.RequireAndVerifyClientCert
	cfg.ClientCAs = pool
	return cfg, nil
}
