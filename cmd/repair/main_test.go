package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-student-api/internal/service"
	"github.com/noah-isme/smart-student-api/pkg/config"
)

func TestRunRefusesMemoryStore(t *testing.T) {
	for _, driver := range []string{"", config.StoreMemory} {
		t.Run("driver="+driver, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv("STORE_DRIVER", driver)

			var out bytes.Buffer
			err := run(context.Background(), []string{"-collection", service.RepairComments, "-strip", "jorge"}, &out)
			require.ErrorIs(t, err, errVolatileStore)
			assert.Empty(t, out.String())
		})
	}
}

func TestParseOptions(t *testing.T) {
	cfg := &config.Config{Repair: config.RepairConfig{DefaultStudent: "maria", DefaultReader: "jorge"}}

	opts, err := parseOptions(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, service.RepairComments, opts.collection)
	assert.Equal(t, "maria", opts.request.StudentUsername)
	assert.Equal(t, "jorge", opts.request.StripReader)
	assert.Nil(t, opts.request.Before)

	opts, err = parseOptions(cfg, []string{"-collection", "notifications", "-type", "pending_grading", "-before", "2024-02-01T00:00:00Z", "-dry-run"})
	require.NoError(t, err)
	assert.Equal(t, service.RepairNotifications, opts.collection)
	assert.True(t, opts.request.DryRun)
	require.NotNil(t, opts.request.Before)
	assert.True(t, opts.request.Before.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))

	_, err = parseOptions(cfg, []string{"-before", "last week"})
	require.Error(t, err)
}
