package main

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGenerateArgs(t *testing.T) {
	tenantID := uuid.New()

	t.Run("tenant and date", func(t *testing.T) {
		gotTenant, asOf, err := parseGenerateArgs([]string{tenantID.String(), "2024-03-15"})

		require.NoError(t, err)
		assert.Equal(t, tenantID, gotTenant)
		assert.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), asOf)
	})

	t.Run("date defaults to zero", func(t *testing.T) {
		gotTenant, asOf, err := parseGenerateArgs([]string{tenantID.String()})

		require.NoError(t, err)
		assert.Equal(t, tenantID, gotTenant)
		assert.True(t, asOf.IsZero())
	})

	t.Run("errors", func(t *testing.T) {
		for name, args := range map[string][]string{
			"no tenant":   nil,
			"bad tenant":  {"tenant-1"},
			"bad date":    {tenantID.String(), "15/03/2024"},
			"partial iso": {tenantID.String(), "2024-03"},
		} {
			_, _, err := parseGenerateArgs(args)
			assert.Error(t, err, name)
		}
	})
}
