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

// Package config loads the settings a collection server needs to start:
// which distance metric to serve and its TLS material. It carries no
// logging settings. It follows
// the same viper-plus-environment-override shape used across the rest of
// the stack's paramtable, narrowed to this module's own keys.
package config

import (
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/milvus-io/vectorcol/internal/collection"
)

const (
	// EnvPrefix is the prefix recognized for environment variable
	// overrides, e.g. VECTORCOL_TLS_CERTTTL.
	EnvPrefix = "VECTORCOL"

	DefaultConfigName = "vectorcol"
	DefaultDistance   = "dot"
)

// TLSConfig names the on-disk TLS material for the collection's gRPC/HTTP
// front door.
type TLSConfig struct {
	Enabled  bool
	CertPath string
	KeyPath  string
	// CertTTL is how often the certificate is reloaded from disk. The
	// tls.certTTL config key (and VECTORCOL_TLS_CERTTTL env override) is a
	// bare integer count of seconds, not a Go duration string.
	CertTTL          time.Duration
	VerifyClientCert bool
	CACertPath       string
}

// Config is everything a running collection server reads at startup.
type Config struct {
	Distance collection.Distance
	TLS      TLSConfig
}

// Load reads configDir/DefaultConfigName.yaml (if present) and layers
// VECTORCOL_-prefixed environment variables over it, dotted keys becoming
// underscored env names the way viper's AutomaticEnv does by default.
func Load(configDir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(DefaultConfigName)
	v.SetConfigType("yaml")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("distance", DefaultDistance)
	v.SetDefault("tls.enabled", false)
	v.SetDefault("tls.certTTL", 0)
	v.SetDefault("tls.verifyClientCert", false)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, err
		}
	}

	distance, err := parseDistance(v.GetString("distance"))
	if err != nil {
		return nil, err
	}

	certTTLSeconds, err := cast.ToIntE(v.Get("tls.certTTL"))
	if err != nil {
		return nil, err
	}
	certTTL := time.Duration(certTTLSeconds) * time.Second

	return &Config{
		Distance: distance,
		TLS: TLSConfig{
			Enabled:          v.GetBool("tls.enabled"),
			CertPath:         v.GetString("tls.certPath"),
			KeyPath:          v.GetString("tls.keyPath"),
			CertTTL:          certTTL,
			VerifyClientCert: v.GetBool("tls.verifyClientCert"),
			CACertPath:       v.GetString("tls.caCertPath"),
		},
	}, nil
}

func parseDistance(s string) (collection.Distance, error) {
	switch strings.ToLower(s) {
	case "dot", "":
		return collection.DistanceDot, nil
	case "cosine":
		return collection.DistanceCosine, nil
	case "euclid", "euclidean", "l2":
		return collection.DistanceEuclid, nil
	default:
		return 0, collection.NewServiceError("unknown distance %q", s)
	}
}
