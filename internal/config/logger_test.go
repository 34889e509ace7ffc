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

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerConfig_SetDefaults(t *testing.T) {
	c := &LoggerConfig{}
	c.SetDefaults()
	require.Equal(t, "info", c.Level)
	require.Equal(t, "simple", c.Format)
	require.Empty(t, c.File)
}

func TestLoggerConfig_Validate(t *testing.T) {
	require.NoError(t, (&LoggerConfig{Level: "warning"}).Validate())
	require.NoError(t, (&LoggerConfig{Level: ""}).Validate())
	require.NoError(t, (&LoggerConfig{Format: "anything-goes"}).Validate())
	require.Error(t, (&LoggerConfig{Level: "trace"}).Validate())
}
