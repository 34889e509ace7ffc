package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewZookeeperProvider_RequiresEndpointsAndPath(t *testing.T) {
	_, err := NewZookeeperProvider(nil, "/stoma/config")
	require.Error(t, err)

	_, err = NewZookeeperProvider([]string{"localhost:2181"}, "")
	require.Error(t, err)
}
