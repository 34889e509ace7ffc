// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmdm/stoma-go/internal/config"
)

func TestOpen_SQLitePinsSingleConnection(t *testing.T) {
	cfg := config.DatabaseConfig{Driver: "sqlite", Database: ":memory:"}

	db, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	stats := db.Stats()
	require.Equal(t, 1, stats.MaxOpenConnections)
}

func TestOpen_InvalidDriverFails(t *testing.T) {
	cfg := config.DatabaseConfig{Driver: "not-a-real-driver", Database: "x"}
	_, err := Open(cfg)
	require.Error(t, err)
}
