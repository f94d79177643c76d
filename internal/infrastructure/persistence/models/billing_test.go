package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullDate_Scan(t *testing.T) {
	feb1 := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value any
		want  *time.Time
	}{
		{"null", nil, nil},
		{"time value", feb1, &feb1},
		{"sqlite timestamp text", "2024-02-01 00:00:00+00:00", &feb1},
		{"rfc3339 text", "2024-02-01T00:00:00Z", &feb1},
		{"date only bytes", []byte("2024-02-01"), &feb1},
		{"empty text", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d NullDate
			require.NoError(t, d.Scan(tt.value))

			if tt.want == nil {
				assert.False(t, d.Valid)
				assert.Nil(t, d.Ptr())
				return
			}
			require.NotNil(t, d.Ptr())
			assert.True(t, tt.want.Equal(*d.Ptr()))
		})
	}
}

func TestNullDate_ScanRejectsGarbage(t *testing.T) {
	var d NullDate

	assert.Error(t, d.Scan("yesterday"))
	assert.Error(t, d.Scan(42))
	assert.False(t, d.Valid)
}

func TestNullDate_ScanResetsPreviousValue(t *testing.T) {
	d := NullDate{Time: time.Now(), Valid: true}

	require.NoError(t, d.Scan(nil))
	assert.False(t, d.Valid)
}
