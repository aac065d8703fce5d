package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEpochMillis(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 123e6, time.UTC)

	assert.Equal(t, ts, FromEpochMillis(ToEpochMillis(ts)))
	assert.True(t, FromEpochMillis(0).IsZero())
	assert.Equal(t, int64(0), ToEpochMillis(time.Time{}))
}

func TestValidateStruct(t *testing.T) {
	type sample struct {
		Name  string `validate:"required"`
		Kind  string `validate:"oneof=png svg"`
		Limit int    `validate:"gte=1,lte=10"`
	}

	require.NoError(t, ValidateStruct(sample{Name: "x", Kind: "png", Limit: 5}))

	err := ValidateStruct(sample{Kind: "gif", Limit: 20})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "kind must be one of: png svg")
	assert.Contains(t, err.Error(), "limit must be at most 10")
}
