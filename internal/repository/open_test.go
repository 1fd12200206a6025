package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-student-api/pkg/config"
)

func TestOpenMemoryBackend(t *testing.T) {
	obs := &recordingObserver{}
	backend, err := Open(context.Background(), &config.Config{Store: config.StoreConfig{Driver: config.StoreMemory}}, nil, obs)
	require.NoError(t, err)
	defer backend.Close() //nolint:errcheck

	assert.Equal(t, config.StoreMemory, backend.Name)
	require.NoError(t, backend.Ping(context.Background()))
	require.NoError(t, backend.Store.Put(context.Background(), "k", []byte("v")))
	assert.NotEmpty(t, obs.ops)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{Store: config.StoreConfig{Driver: "etcd"}}, nil, nil)
	assert.Error(t, err)
}
