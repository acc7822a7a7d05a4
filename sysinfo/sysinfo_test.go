package sysinfo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect(t *testing.T) {
	info, err := Collect(context.Background())
	require.NoError(t, err)
	require.NotNil(t, info)

	assert.NotZero(t, info.MemoryTotal)

	ts, err := time.Parse(time.RFC3339, info.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
}
