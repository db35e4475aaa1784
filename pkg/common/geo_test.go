package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineMeters(t *testing.T) {
	tests := []struct {
		name           string
		lat1, lng1     float64
		lat2, lng2     float64
		expectedMeters float64
		tolerance      float64
	}{
		{
			name: "same point",
			lat1: 48.137, lng1: 11.575,
			lat2: 48.137, lng2: 11.575,
			expectedMeters: 0, tolerance: 0.001,
		},
		{
			name: "munich to berlin",
			lat1: 48.137, lng1: 11.575,
			lat2: 52.520, lng2: 13.405,
			expectedMeters: 504000, tolerance: 5000,
		},
		{
			name: "one degree of latitude",
			lat1: 0, lng1: 0,
			lat2: 1, lng2: 0,
			expectedMeters: 111195, tolerance: 100,
		},
		{
			name: "across the antimeridian",
			lat1: 0, lng1: 179.9,
			lat2: 0, lng2: -179.9,
			expectedMeters: 22239, tolerance: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineMeters(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			assert.InDelta(t, tt.expectedMeters, got, tt.tolerance)
		})
	}
}

func TestHaversineMeters_Symmetric(t *testing.T) {
	a := HaversineMeters(48.1, 11.5, 52.5, 13.4)
	b := HaversineMeters(52.5, 13.4, 48.1, 11.5)
	assert.InDelta(t, a, b, 0.0001)
}
