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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milvus-io/vectorcol/internal/collection"
)

func TestLoad_defaultsWithNoFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, collection.DistanceDot, cfg.Distance)
	assert.False(t, cfg.TLS.Enabled)
}

func TestLoad_readsYamlFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "distance: cosine\ntls:\n  enabled: true\n  certPath: /tmp/cert.pem\n  keyPath: /tmp/key.pem\n  certTTL: 600\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigName+".yaml"), []byte(yaml), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, collection.DistanceCosine, cfg.Distance)
	assert.True(t, cfg.TLS.Enabled)
	assert.Equal(t, "/tmp/cert.pem", cfg.TLS.CertPath)
	assert.Equal(t, 10*time.Minute, cfg.TLS.CertTTL)
}

func TestLoad_envOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigName+".yaml"), []byte("distance: dot\n"), 0o600))

	t.Setenv("VECTORCOL_DISTANCE", "euclid")
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, collection.DistanceEuclid, cfg.Distance)
}

func TestLoad_rejectsUnknownDistance(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigName+".yaml"), []byte("distance: manhattan\n"), 0o600))

	_, err := Load(dir)
	assert.Error(t, err)
}
